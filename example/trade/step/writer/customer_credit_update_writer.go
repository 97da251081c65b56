package writer

import (
	"context"

	"github.com/shopspring/decimal"

	"tradesample/example/trade/domain/dao"
	"tradesample/example/trade/domain/entity"
	"tradesample/pkg/batch/database"
	core "tradesample/pkg/batch/job/core"
	"tradesample/pkg/batch/util/logger"
)

// DefaultCreditFilter は CustomerCreditUpdateWriter のデフォルトの閾値です。
const DefaultCreditFilter = 800.0

// CustomerCreditUpdateWriter はクレジットが閾値を超える顧客のみを DAO に渡す ItemWriter です。
// 閾値と等しいクレジットは書き込みません。DAO のエラーはそのまま返します。
type CustomerCreditUpdateWriter struct {
	creditFilter decimal.Decimal
	dao          dao.CustomerCreditDao
	ec           core.ExecutionContext
}

// NewCustomerCreditUpdateWriter はデフォルトの閾値で CustomerCreditUpdateWriter を作成します。
func NewCustomerCreditUpdateWriter(d dao.CustomerCreditDao) *CustomerCreditUpdateWriter {
	return &CustomerCreditUpdateWriter{
		creditFilter: decimal.NewFromFloat(DefaultCreditFilter),
		dao:          d,
		ec:           core.NewExecutionContext(),
	}
}

// SetCreditFilter は閾値を設定します。
func (w *CustomerCreditUpdateWriter) SetCreditFilter(creditFilter float64) {
	w.creditFilter = decimal.NewFromFloat(creditFilter)
}

// SetDao は書き込み先の DAO を設定します。
func (w *CustomerCreditUpdateWriter) SetDao(d dao.CustomerCreditDao) {
	w.dao = d
}

// CreditFilter は現在の閾値を返します。
func (w *CustomerCreditUpdateWriter) CreditFilter() decimal.Decimal {
	return w.creditFilter
}

func (w *CustomerCreditUpdateWriter) Open(ctx context.Context, ec core.ExecutionContext) error {
	return w.SetExecutionContext(ctx, ec)
}

// Write は items を順に確認し、クレジットが閾値より大きいものだけを DAO に書き込みます。
func (w *CustomerCreditUpdateWriter) Write(ctx context.Context, tx database.Tx, items []*entity.CustomerCredit) error {
	for _, credit := range items {
		if credit == nil || !credit.Credit.GreaterThan(w.creditFilter) {
			continue
		}
		if err := w.dao.WriteCredit(ctx, tx, credit); err != nil {
			return err
		}
	}
	logger.Debugf("CustomerCreditUpdateWriter: %d 件を確認しました。(閾値: %s)", len(items), w.creditFilter)
	return nil
}

func (w *CustomerCreditUpdateWriter) Close(ctx context.Context) error {
	return nil
}

func (w *CustomerCreditUpdateWriter) SetExecutionContext(ctx context.Context, ec core.ExecutionContext) error {
	if ec == nil {
		ec = core.NewExecutionContext()
	}
	w.ec = ec
	return nil
}

func (w *CustomerCreditUpdateWriter) GetExecutionContext(ctx context.Context) (core.ExecutionContext, error) {
	return w.ec, nil
}

var _ core.ItemWriter[*entity.CustomerCredit] = (*CustomerCreditUpdateWriter)(nil)
