package http

import (
	"github.com/shopspring/decimal"
	cartdomain "github.com/wyfcoding/storefront/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/internal/storefront/application"
)

// ProductTile 商品格子
type ProductTile struct {
	ID          int
	Title       string
	Price       string
	Category    string
	Description string
	Image       string
	Rating      *catalogdomain.Rating
}

// LineView 抽屉中的一行
type LineView struct {
	ID        int
	Title     string
	Image     string
	Price     string
	Amount    int
	LineTotal string
}

// PageData 店面页面数据
type PageData struct {
	Products   []ProductTile
	Lines      []LineView
	TotalItems int
	Subtotal   string
	DrawerOpen bool
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func newPageData(v application.View) PageData {
	data := PageData{
		TotalItems: v.TotalItems,
		Subtotal:   money(v.Subtotal),
		DrawerOpen: v.DrawerOpen,
	}
	for _, p := range v.Catalog.Products {
		data.Products = append(data.Products, ProductTile{
			ID:          p.ID,
			Title:       p.Title,
			Price:       money(p.Price),
			Category:    p.Category,
			Description: p.Description,
			Image:       p.Image,
			Rating:      p.Rating,
		})
	}
	for _, l := range v.Cart.Lines() {
		data.Lines = append(data.Lines, LineView{
			ID:        l.ID,
			Title:     l.Title,
			Image:     l.Image,
			Price:     money(l.Price),
			Amount:    l.Amount,
			LineTotal: money(l.LineTotal()),
		})
	}
	return data
}

// CartLineDTO JSON 购物车行
type CartLineDTO struct {
	ID        int             `json:"id"`
	Title     string          `json:"title"`
	Category  string          `json:"category"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Amount    int             `json:"amount"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartDTO JSON 购物车
type CartDTO struct {
	Items      []CartLineDTO   `json:"items"`
	TotalItems int             `json:"total_items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

func newCartDTO(c cartdomain.Cart) CartDTO {
	dto := CartDTO{
		Items:      []CartLineDTO{},
		TotalItems: c.TotalItems(),
		Subtotal:   c.Subtotal(),
	}
	for _, l := range c.Lines() {
		dto.Items = append(dto.Items, CartLineDTO{
			ID:        l.ID,
			Title:     l.Title,
			Category:  l.Category,
			Image:     l.Image,
			Price:     l.Price,
			Amount:    l.Amount,
			LineTotal: l.LineTotal(),
		})
	}
	return dto
}

// CatalogDTO JSON 目录
type CatalogDTO struct {
	Status   catalogdomain.LoadStatus `json:"status"`
	Products []catalogdomain.Product  `json:"products"`
}
