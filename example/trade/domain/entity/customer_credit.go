package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CustomerCredit は顧客のクレジット残高を表すエンティティです。
type CustomerCredit struct {
	ID     int64
	Name   string
	Credit decimal.Decimal
}

// IncreaseCreditBy は sum を加算したクレジットを持つ新しい CustomerCredit を返します。元の値は変更しません。
func (c *CustomerCredit) IncreaseCreditBy(sum decimal.Decimal) *CustomerCredit {
	return &CustomerCredit{
		ID:     c.ID,
		Name:   c.Name,
		Credit: c.Credit.Add(sum),
	}
}

func (c *CustomerCredit) String() string {
	return fmt.Sprintf("CustomerCredit [id=%d,name=%s, credit=%s]", c.ID, c.Name, c.Credit.String())
}
