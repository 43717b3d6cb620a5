package domain

import "github.com/shopspring/decimal"

// Rating 商品评分
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product 远程目录中的商品，拉取后不可变
type Product struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Rating      *Rating         `json:"rating,omitempty"`
}
