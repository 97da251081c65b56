package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Trade は取引 1 件を表すエンティティです。価格は decimal で保持します。
type Trade struct {
	ID       int64
	Version  int64
	Isin     string
	Quantity int64
	Price    decimal.Decimal
	Customer string
}

// NewTrade は新しい Trade のインスタンスを作成します。
func NewTrade(isin string, quantity int64, price decimal.Decimal, customer string) *Trade {
	return &Trade{
		Isin:     isin,
		Quantity: quantity,
		Price:    price,
		Customer: customer,
	}
}

func (t *Trade) String() string {
	return fmt.Sprintf("Trade: [isin=%s,quantity=%d,price=%s,customer=%s]", t.Isin, t.Quantity, t.Price.String(), t.Customer)
}
