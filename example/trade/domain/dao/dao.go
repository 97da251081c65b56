// Package dao は取引と顧客クレジットを永続化するための DAO インターフェースを定義します。
package dao

import (
	"context"

	"tradesample/example/trade/domain/entity"
	"tradesample/pkg/batch/database"
)

// TradeDao は取引を書き込む DAO です。
type TradeDao interface {
	WriteTrade(ctx context.Context, tx database.Tx, trade *entity.Trade) error
}

// CustomerCreditDao は顧客クレジットを書き込む DAO です。
type CustomerCreditDao interface {
	WriteCredit(ctx context.Context, tx database.Tx, credit *entity.CustomerCredit) error
}
