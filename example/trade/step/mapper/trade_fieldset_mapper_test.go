package mapper_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesample/example/trade/step/mapper"
	"tradesample/pkg/batch/item/file"
)

func TestTradeFieldSetMapper_ColumnOrder(t *testing.T) {
	fs, err := file.NewFieldSet([]string{"UK21341EAH45", "978", "98.34", "customer1"}, nil)
	require.NoError(t, err)

	trade, err := mapper.NewTradeFieldSetMapper().MapFieldSet(fs)
	require.NoError(t, err)

	assert.Equal(t, "UK21341EAH45", trade.Isin)
	assert.Equal(t, int64(978), trade.Quantity)
	assert.True(t, decimal.RequireFromString("98.34").Equal(trade.Price))
	assert.Equal(t, "customer1", trade.Customer)
	assert.Equal(t, int64(0), trade.ID)
}

func TestTradeFieldSetMapper_Errors(t *testing.T) {
	tests := []struct {
		name   string
		values []string
	}{
		{"列が足りない", []string{"UK21341EAH45", "978", "98.34"}},
		{"数量が数値でない", []string{"UK21341EAH45", "many", "98.34", "customer1"}},
		{"価格が空", []string{"UK21341EAH45", "978", "", "customer1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, err := file.NewFieldSet(tt.values, nil)
			require.NoError(t, err)
			_, err = mapper.NewTradeFieldSetMapper().MapFieldSet(fs)
			assert.Error(t, err)
		})
	}
}
