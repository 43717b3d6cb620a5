package http

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	cartdomain "github.com/wyfcoding/storefront/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/internal/storefront/application"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/response"
)

//go:embed templates/*.html
var templatesFS embed.FS

const sessionKey = "storefront_session"

// Templates 解析内嵌页面模板
func Templates() *template.Template {
	return template.Must(template.ParseFS(templatesFS, "templates/*.html"))
}

// SessionResolver 由 application.Registry 实现
type SessionResolver interface {
	Resolve(ctx context.Context, id string) (*application.Session, bool)
}

// CookieConfig 会话 cookie 配置
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
}

// StorefrontHandler HTTP 处理器
type StorefrontHandler struct {
	sessions SessionResolver
	service  *application.StorefrontService
	cookie   CookieConfig
}

// NewStorefrontHandler 创建 HTTP 处理器
func NewStorefrontHandler(sessions SessionResolver, service *application.StorefrontService, cookie CookieConfig) *StorefrontHandler {
	if cookie.Name == "" {
		cookie.Name = "sf_session"
	}
	return &StorefrontHandler{
		sessions: sessions,
		service:  service,
		cookie:   cookie,
	}
}

// RegisterRoutes 注册路由与页面模板
func (h *StorefrontHandler) RegisterRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(Templates())

	router.GET("/health", h.Health)

	pages := router.Group("/", h.sessionMiddleware())
	{
		pages.GET("", h.Index)
		pages.POST("/cart/add/:id", h.AddToCartForm)
		pages.POST("/cart/remove/:id", h.RemoveFromCartForm)
		pages.POST("/drawer/open", h.OpenDrawer)
		pages.POST("/drawer/close", h.CloseDrawer)
	}

	api := router.Group("/api/v1", h.sessionMiddleware())
	{
		api.GET("/catalog", h.GetCatalog)
		api.GET("/cart", h.GetCart)
		api.POST("/cart/items", h.AddCartItem)
		api.DELETE("/cart/items/:id", h.RemoveCartItem)
	}
}

// sessionMiddleware 根据 cookie 解析或创建会话
func (h *StorefrontHandler) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(h.cookie.Name)
		sess, created := h.sessions.Resolve(c.Request.Context(), id)
		if created {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(h.cookie.Name, sess.ID, int(h.cookie.MaxAge.Seconds()), "/", "", false, true)
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func session(c *gin.Context) *application.Session {
	return c.MustGet(sessionKey).(*application.Session)
}

// Health 健康检查
func (h *StorefrontHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Index 按加载状态渲染进度条、错误信息或店面
func (h *StorefrontHandler) Index(c *gin.Context) {
	ctx := c.Request.Context()
	view, err := h.service.View(ctx, session(c))
	if err != nil {
		logger.Error(ctx, "Failed to build storefront view", "error", err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	switch view.Catalog.Status {
	case catalogdomain.StatusLoading:
		c.HTML(http.StatusOK, "loading.html", nil)
	case catalogdomain.StatusError:
		c.HTML(http.StatusOK, "error.html", nil)
	default:
		c.HTML(http.StatusOK, "index.html", newPageData(view))
	}
}

// AddToCartForm 表单加购后重定向回首页，会话已过期时首页会换发新会话
func (h *StorefrontHandler) AddToCartForm(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		c.String(http.StatusBadRequest, "invalid product id")
		return
	}
	if _, err := h.service.AddToCart(c.Request.Context(), session(c), id); err != nil && !errors.Is(err, cartdomain.ErrCartNotFound) {
		status, msg := cartErrorStatus(err)
		c.String(status, msg)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// RemoveFromCartForm 表单减购后重定向回首页
func (h *StorefrontHandler) RemoveFromCartForm(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		c.String(http.StatusBadRequest, "invalid product id")
		return
	}
	if _, err := h.service.RemoveFromCart(c.Request.Context(), session(c), id); err != nil && !errors.Is(err, cartdomain.ErrCartNotFound) {
		status, msg := cartErrorStatus(err)
		c.String(status, msg)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// OpenDrawer 打开购物车抽屉
func (h *StorefrontHandler) OpenDrawer(c *gin.Context) {
	h.service.SetDrawer(session(c), true)
	c.Redirect(http.StatusSeeOther, "/")
}

// CloseDrawer 关闭购物车抽屉
func (h *StorefrontHandler) CloseDrawer(c *gin.Context) {
	h.service.SetDrawer(session(c), false)
	c.Redirect(http.StatusSeeOther, "/")
}

// GetCatalog 等待本会话目录加载结束后返回
func (h *StorefrontHandler) GetCatalog(c *gin.Context) {
	state, err := session(c).Loader.Wait(c.Request.Context())
	if err != nil {
		response.Success(c, CatalogDTO{Status: state.Status, Products: []catalogdomain.Product{}})
		return
	}
	if state.Status == catalogdomain.StatusError {
		response.ErrorWithStatus(c, http.StatusBadGateway, "Something went wrong ...", state.Err.Error())
		return
	}
	response.Success(c, CatalogDTO{Status: state.Status, Products: state.Products})
}

// GetCart 返回会话购物车
func (h *StorefrontHandler) GetCart(c *gin.Context) {
	cart, err := h.service.GetCart(c.Request.Context(), session(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, newCartDTO(cart))
}

// AddCartItemRequest 加购请求
type AddCartItemRequest struct {
	// 指针区分缺省与商品 ID 0
	ProductID *int `json:"product_id" binding:"required"`
}

// AddCartItem 加购，目录加载中会先等待加载结束
func (h *StorefrontHandler) AddCartItem(c *gin.Context) {
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	ctx := c.Request.Context()
	sess := session(c)
	_, _ = sess.Loader.Wait(ctx)

	cart, err := h.service.AddToCart(ctx, sess, *req.ProductID)
	if err != nil {
		status, msg := cartErrorStatus(err)
		response.ErrorWithStatus(c, status, msg, "")
		return
	}
	response.Success(c, newCartDTO(cart))
}

// RemoveCartItem 减少一件
func (h *StorefrontHandler) RemoveCartItem(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", c.Param("id"))
		return
	}
	cart, err := h.service.RemoveFromCart(c.Request.Context(), session(c), id)
	if err != nil {
		status, msg := cartErrorStatus(err)
		response.ErrorWithStatus(c, status, msg, "")
		return
	}
	response.Success(c, newCartDTO(cart))
}

func productID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, false
	}
	return id, true
}

func cartErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, catalogdomain.ErrProductNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, catalogdomain.ErrCatalogNotReady):
		return http.StatusConflict, err.Error()
	case errors.Is(err, cartdomain.ErrCartNotFound):
		return http.StatusGone, "session expired"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
