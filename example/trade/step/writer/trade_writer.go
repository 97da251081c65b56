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

// TotalAmountKey は書き込んだ取引の価格合計を保存する ExecutionContext のキーです。
const TotalAmountKey = "trade.total.amount"

// TradeWriter は全ての取引を TradeDao に書き込み、価格の合計を ExecutionContext に保存する ItemWriter です。
type TradeWriter struct {
	dao        dao.TradeDao
	totalPrice decimal.Decimal
	ec         core.ExecutionContext
}

// NewTradeWriter は新しい TradeWriter を作成します。
func NewTradeWriter(d dao.TradeDao) *TradeWriter {
	return &TradeWriter{dao: d, totalPrice: decimal.Zero, ec: core.NewExecutionContext()}
}

// Open は ExecutionContext から価格の合計を復元します。
func (w *TradeWriter) Open(ctx context.Context, ec core.ExecutionContext) error {
	return w.SetExecutionContext(ctx, ec)
}

// Write は items を順に DAO に書き込みます。DAO のエラーはそのまま返します。
func (w *TradeWriter) Write(ctx context.Context, tx database.Tx, items []*entity.Trade) error {
	chunkTotal := decimal.Zero
	for _, trade := range items {
		if err := w.dao.WriteTrade(ctx, tx, trade); err != nil {
			return err
		}
		chunkTotal = chunkTotal.Add(trade.Price)
	}
	w.totalPrice = w.totalPrice.Add(chunkTotal)
	logger.Debugf("TradeWriter: %d 件の取引を書き込みました。合計価格: %s", len(items), w.totalPrice)
	return nil
}

func (w *TradeWriter) Close(ctx context.Context) error {
	return nil
}

// TotalPrice はこれまでに書き込んだ取引の価格合計を返します。
func (w *TradeWriter) TotalPrice() decimal.Decimal {
	return w.totalPrice
}

func (w *TradeWriter) SetExecutionContext(ctx context.Context, ec core.ExecutionContext) error {
	if ec == nil {
		ec = core.NewExecutionContext()
	}
	w.ec = ec
	w.totalPrice = decimal.Zero
	switch v := ec[TotalAmountKey].(type) {
	case decimal.Decimal:
		w.totalPrice = v
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			logger.Warnf("TradeWriter: ExecutionContext の '%s' の値 '%s' が不正です。0 から集計します。", TotalAmountKey, v)
			break
		}
		w.totalPrice = d
	}
	return nil
}

func (w *TradeWriter) GetExecutionContext(ctx context.Context) (core.ExecutionContext, error) {
	w.ec.Put(TotalAmountKey, w.totalPrice)
	return w.ec, nil
}

var _ core.ItemWriter[*entity.Trade] = (*TradeWriter)(nil)
