package repository

import (
	"context"

	"tradesample/example/trade/domain/dao"
	"tradesample/example/trade/domain/entity"
	"tradesample/pkg/batch/database"
	"tradesample/pkg/batch/database/incrementer"
	"tradesample/pkg/batch/util/exception"
	"tradesample/pkg/batch/util/logger"
)

// InsertTradeSQL は取引を挿入する SQL です。'?' で記述し、実行時に Dialect の形式へ書き換えます。
const InsertTradeSQL = "INSERT INTO TRADE (id, version, isin, quantity, price, customer) VALUES (?, 0, ?, ?, ?, ?)"

// JdbcTradeDao は TRADE テーブルに取引を挿入する TradeDao の実装です。
// id は取引ごとにインクリメンタから 1 つ採番し、最初のパラメータとしてバインドします。
type JdbcTradeDao struct {
	incrementer incrementer.DataFieldMaxValueIncrementer
	query       string
}

// NewJdbcTradeDao は新しい JdbcTradeDao のインスタンスを作成します。
func NewJdbcTradeDao(inc incrementer.DataFieldMaxValueIncrementer, dialect database.Dialect) *JdbcTradeDao {
	return &JdbcTradeDao{
		incrementer: inc,
		query:       dialect.Rebind(InsertTradeSQL),
	}
}

// Query は実行する SQL を返します。
func (d *JdbcTradeDao) Query() string {
	return d.query
}

// WriteTrade は trade を tx 上で挿入します。
func (d *JdbcTradeDao) WriteTrade(ctx context.Context, tx database.Tx, trade *entity.Trade) error {
	logger.Debugf("Processing: %s", trade)

	id, err := d.incrementer.NextInt64(ctx, tx)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, d.query, id, trade.Isin, trade.Quantity, trade.Price, trade.Customer); err != nil {
		return exception.NewBatchError("trade_dao", "TRADE への挿入に失敗しました", err, true, false)
	}
	return nil
}

var _ dao.TradeDao = (*JdbcTradeDao)(nil)
