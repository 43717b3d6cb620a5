package domain

import (
	"slices"

	"github.com/shopspring/decimal"
	catalogdomain "github.com/wyfcoding/storefront/internal/catalog/domain"
)

// CartLine 购物车行：商品快照加数量，Amount >= 1
type CartLine struct {
	catalogdomain.Product
	Amount int `json:"amount"`
}

// LineTotal 单行金额
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Amount)))
}

// Cart 有序购物车，顺序为商品首次加入的顺序，每个商品 ID 至多一行
// 值类型，只能通过 AddToCart / RemoveFromCart 得到新的 Cart
type Cart struct {
	lines []CartLine
}

// NewCart 空购物车
func NewCart() Cart {
	return Cart{}
}

// AddToCart 已存在则数量 +1，否则追加 {product, 1}
func AddToCart(c Cart, p catalogdomain.Product) Cart {
	next := slices.Clone(c.lines)
	for i := range next {
		if next[i].ID == p.ID {
			next[i].Amount++
			return Cart{lines: next}
		}
	}
	return Cart{lines: append(next, CartLine{Product: p, Amount: 1})}
}

// RemoveFromCart 数量为 1 的行被移除，大于 1 的减 1，ID 不存在时原样返回
func RemoveFromCart(c Cart, id int) Cart {
	next := make([]CartLine, 0, len(c.lines))
	for _, l := range c.lines {
		if l.ID == id {
			if l.Amount == 1 {
				continue
			}
			l.Amount--
		}
		next = append(next, l)
	}
	return Cart{lines: next}
}

// Lines 购物车行的副本
func (c Cart) Lines() []CartLine {
	return slices.Clone(c.lines)
}

// Line 按商品 ID 查找行
func (c Cart) Line(id int) (CartLine, bool) {
	for _, l := range c.lines {
		if l.ID == id {
			return l, true
		}
	}
	return CartLine{}, false
}

// IsEmpty 是否为空
func (c Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// TotalItems 所有行数量之和，每次调用重新计算
func (c Cart) TotalItems() int {
	total := 0
	for _, l := range c.lines {
		total += l.Amount
	}
	return total
}

// Subtotal 所有行 price * amount 之和
func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.LineTotal())
	}
	return sum
}
