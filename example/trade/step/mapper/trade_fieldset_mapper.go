package mapper

import (
	"tradesample/example/trade/domain/entity"
	"tradesample/pkg/batch/item/file"
)

// 入力ファイルの列番号
const (
	IsinColumn     = 0
	QuantityColumn = 1
	PriceColumn    = 2
	CustomerColumn = 3
)

// TradeFieldSetMapper は FieldSet を Trade に変換する FieldSetMapper です。
type TradeFieldSetMapper struct{}

// NewTradeFieldSetMapper は新しい TradeFieldSetMapper を作成します。
func NewTradeFieldSetMapper() *TradeFieldSetMapper {
	return &TradeFieldSetMapper{}
}

// MapFieldSet は列 0 から順に isin, quantity, price, customer を読み込みます。
func (m *TradeFieldSetMapper) MapFieldSet(fs *file.FieldSet) (*entity.Trade, error) {
	isin, err := fs.ReadString(IsinColumn)
	if err != nil {
		return nil, err
	}
	quantity, err := fs.ReadLong(QuantityColumn)
	if err != nil {
		return nil, err
	}
	price, err := fs.ReadBigDecimal(PriceColumn)
	if err != nil {
		return nil, err
	}
	customer, err := fs.ReadString(CustomerColumn)
	if err != nil {
		return nil, err
	}
	return entity.NewTrade(isin, quantity, price, customer), nil
}

var _ file.FieldSetMapper[*entity.Trade] = (*TradeFieldSetMapper)(nil)
