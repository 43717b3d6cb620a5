package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cartapp "github.com/wyfcoding/storefront/internal/cart/application"
	"github.com/wyfcoding/storefront/internal/cart/infrastructure/persistence/memory"
	catalogapp "github.com/wyfcoding/storefront/internal/catalog/application"
	catalogdomain "github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/internal/storefront/application"
)

type fakeSource struct {
	products []catalogdomain.Product
	err      error
	release  chan struct{}
}

func (f *fakeSource) ListProducts(context.Context) ([]catalogdomain.Product, error) {
	if f.release != nil {
		<-f.release
	}
	return f.products, f.err
}

func sampleProducts() []catalogdomain.Product {
	return []catalogdomain.Product{
		{ID: 1, Title: "Fjallraven Backpack", Price: decimal.RequireFromString("109.95"), Category: "bags", Description: "Fits 15 inch laptops", Image: "https://example.com/1.jpg", Rating: &catalogdomain.Rating{Rate: 3.9, Count: 120}},
		{ID: 2, Title: "Casual T-Shirt", Price: decimal.RequireFromString("22.30"), Category: "clothing", Description: "Slim fit", Image: "https://example.com/2.jpg"},
	}
}

type testServer struct {
	router   *gin.Engine
	registry *application.Registry
	carts    *cartapp.CartApplicationService
	cookie   *http.Cookie
}

func newTestServer(src *fakeSource) *testServer {
	gin.SetMode(gin.TestMode)

	catalog := catalogapp.NewCatalogApplicationService(catalogapp.NewCatalogQueryService(src, nil, 0))
	carts := cartapp.NewCartApplicationService(memory.NewCartRepository(), nil, nil)
	registry := application.NewRegistry(catalog, carts, application.RegistryConfig{IdleTimeout: time.Hour}, nil)
	handler := NewStorefrontHandler(registry, application.NewStorefrontService(carts), CookieConfig{Name: "sf_session", MaxAge: time.Hour})

	router := gin.New()
	handler.RegisterRoutes(router)
	return &testServer{router: router, registry: registry, carts: carts}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "sf_session" {
			s.cookie = c
		}
	}
	return rec
}

// open 创建会话并等待目录加载结束
func (s *testServer) open(t *testing.T) catalogdomain.LoadState {
	t.Helper()
	s.do(t, http.MethodGet, "/", "")
	require.NotNil(t, s.cookie)
	sess, ok := s.registry.Get(s.cookie.Value)
	require.True(t, ok)
	state, err := sess.Loader.Wait(context.Background())
	require.NoError(t, err)
	return state
}

type cartEnvelope struct {
	Code int     `json:"code"`
	Data CartDTO `json:"data"`
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) CartDTO {
	t.Helper()
	var env cartEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Data
}

func TestIndexShowsProgressWhileLoading(t *testing.T) {
	src := &fakeSource{products: sampleProducts(), release: make(chan struct{})}
	defer close(src.release)
	s := newTestServer(src)

	rec := s.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `role="progressbar"`)
	assert.Contains(t, body, `http-equiv="refresh"`)
	assert.NotContains(t, body, `id="catalog"`)
	assert.NotContains(t, body, "Something went wrong")
	require.NotNil(t, s.cookie)
	assert.True(t, s.cookie.HttpOnly)
}

func TestIndexShowsErrorAndNoGridWhenFetchFails(t *testing.T) {
	s := newTestServer(&fakeSource{err: errors.New("connection refused")})

	state := s.open(t)
	assert.Equal(t, catalogdomain.StatusError, state.Status)

	rec := s.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Something went wrong ...")
	assert.NotContains(t, body, `id="catalog"`)
	assert.NotContains(t, body, `role="progressbar"`)
	assert.NotContains(t, body, "Add to cart")

	rec = s.do(t, http.MethodGet, "/api/v1/catalog", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStorefrontFlowThroughForms(t *testing.T) {
	s := newTestServer(&fakeSource{products: sampleProducts()})
	s.open(t)

	rec := s.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="catalog"`)
	assert.Contains(t, body, "Fjallraven Backpack")
	assert.Contains(t, body, "$109.95")
	assert.Contains(t, body, "Rating 3.9 (120)")
	assert.Contains(t, body, `<span class="badge" id="cart-count">0</span>`)
	assert.NotContains(t, body, `id="cart"`)

	for i := 0; i < 2; i++ {
		rec = s.do(t, http.MethodPost, "/cart/add/1", "")
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	}
	rec = s.do(t, http.MethodPost, "/cart/add/2", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = s.do(t, http.MethodPost, "/drawer/open", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	body = s.do(t, http.MethodGet, "/", "").Body.String()
	assert.Contains(t, body, `id="cart"`)
	assert.Contains(t, body, `<span class="badge" id="cart-count">3</span>`)
	assert.Contains(t, body, "Total: $219.90")
	assert.Contains(t, body, "Total: $242.20")
	assert.NotContains(t, body, "No items in cart.")
	assert.Less(t, strings.Index(body, `class="line" data-product-id="1"`), strings.Index(body, `class="line" data-product-id="2"`))

	rec = s.do(t, http.MethodPost, "/cart/remove/1", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	body = s.do(t, http.MethodGet, "/", "").Body.String()
	assert.Contains(t, body, `<span class="badge" id="cart-count">2</span>`)

	s.do(t, http.MethodPost, "/drawer/close", "")
	body = s.do(t, http.MethodGet, "/", "").Body.String()
	assert.NotContains(t, body, `id="cart"`)
	assert.Contains(t, body, `<span class="badge" id="cart-count">2</span>`)
}

func TestEmptyDrawer(t *testing.T) {
	s := newTestServer(&fakeSource{products: sampleProducts()})
	s.open(t)

	s.do(t, http.MethodPost, "/drawer/open", "")
	body := s.do(t, http.MethodGet, "/", "").Body.String()
	assert.Contains(t, body, "No items in cart.")
	assert.Contains(t, body, "Total: $0.00")
}

func TestFormErrors(t *testing.T) {
	s := newTestServer(&fakeSource{products: sampleProducts()})
	s.open(t)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"non integer id", "/cart/add/abc", http.StatusBadRequest},
		{"unknown product", "/cart/add/99", http.StatusNotFound},
		{"remove non integer id", "/cart/remove/x", http.StatusBadRequest},
		{"remove absent product", "/cart/remove/99", http.StatusSeeOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, tt.path, "")
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCartAPI(t *testing.T) {
	s := newTestServer(&fakeSource{products: sampleProducts()})

	rec := s.do(t, http.MethodGet, "/api/v1/catalog", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var catalog struct {
		Data CatalogDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &catalog))
	assert.Equal(t, catalogdomain.StatusSuccess, catalog.Data.Status)
	assert.Len(t, catalog.Data.Products, 2)

	rec = s.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	cart := decodeCart(t, rec)
	assert.Equal(t, 3, cart.TotalItems)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 1, cart.Items[0].ID)
	assert.Equal(t, 2, cart.Items[0].Amount)
	assert.Equal(t, "242.2", cart.Subtotal.String())

	rec = s.do(t, http.MethodDelete, "/api/v1/cart/items/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/v1/cart/items/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cart = decodeCart(t, rec)
	assert.Equal(t, 1, cart.TotalItems)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].ID)

	t.Run("product id zero", func(t *testing.T) {
		zero := sampleProducts()[0]
		zero.ID = 0
		z := newTestServer(&fakeSource{products: []catalogdomain.Product{zero}})
		z.open(t)

		rec := z.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":0}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		cart := decodeCart(t, rec)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 0, cart.Items[0].ID)

		rec = z.do(t, http.MethodPost, "/cart/add/0", "")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		rec = z.do(t, http.MethodGet, "/api/v1/cart", "")
		assert.Equal(t, 2, decodeCart(t, rec).TotalItems)
	})
}

func TestCartAPIErrors(t *testing.T) {
	s := newTestServer(&fakeSource{products: sampleProducts()})
	s.open(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"malformed body", http.MethodPost, "/api/v1/cart/items", `{"product_id":`, http.StatusBadRequest},
		{"missing product id", http.MethodPost, "/api/v1/cart/items", `{}`, http.StatusBadRequest},
		{"unknown product", http.MethodPost, "/api/v1/cart/items", `{"product_id":42}`, http.StatusNotFound},
		{"non integer delete", http.MethodDelete, "/api/v1/cart/items/abc", "", http.StatusBadRequest},
		{"absent delete", http.MethodDelete, "/api/v1/cart/items/7", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestSessionsDoNotShareCarts(t *testing.T) {
	src := &fakeSource{products: sampleProducts()}
	a := newTestServer(src)
	a.open(t)
	a.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":1}`)

	// 同一路由、另一个浏览器
	b := &testServer{router: a.router, registry: a.registry}
	rec := b.do(t, http.MethodGet, "/api/v1/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeCart(t, rec).TotalItems)
	require.NotNil(t, b.cookie)
	assert.NotEqual(t, a.cookie.Value, b.cookie.Value)
}

func TestHealth(t *testing.T) {
	s := newTestServer(&fakeSource{products: sampleProducts()})
	rec := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Nil(t, s.cookie)
}

func TestDiscardedCartIsNotRecreated(t *testing.T) {
	s := newTestServer(&fakeSource{products: sampleProducts()})
	s.open(t)
	require.NoError(t, s.carts.DiscardCart(context.Background(), s.cookie.Value))

	rec := s.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":1}`)
	assert.Equal(t, http.StatusGone, rec.Code)

	rec = s.do(t, http.MethodPost, "/cart/add/1", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	cart, err := s.carts.GetCart(context.Background(), s.cookie.Value)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}
