package processor

import (
	"context"

	"github.com/shopspring/decimal"

	"tradesample/example/trade/domain/entity"
	core "tradesample/pkg/batch/job/core"
)

// FixedAmount はデフォルトの加算額です。
var FixedAmount = decimal.NewFromInt(5)

// CustomerCreditIncreaseProcessor は顧客のクレジットに固定額を加算する ItemProcessor です。
type CustomerCreditIncreaseProcessor struct {
	amount decimal.Decimal
}

// NewCustomerCreditIncreaseProcessor は amount を加算する CustomerCreditIncreaseProcessor を作成します。
func NewCustomerCreditIncreaseProcessor(amount decimal.Decimal) *CustomerCreditIncreaseProcessor {
	return &CustomerCreditIncreaseProcessor{amount: amount}
}

// Process はクレジットを加算した新しい CustomerCredit を返します。
func (p *CustomerCreditIncreaseProcessor) Process(ctx context.Context, item *entity.CustomerCredit) (*entity.CustomerCredit, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if item == nil {
		return nil, nil
	}
	return item.IncreaseCreditBy(p.amount), nil
}

var _ core.ItemProcessor[*entity.CustomerCredit, *entity.CustomerCredit] = (*CustomerCreditIncreaseProcessor)(nil)
