package processor_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesample/example/trade/domain/entity"
	"tradesample/example/trade/step/processor"
)

func TestCustomerCreditIncreaseProcessor(t *testing.T) {
	in := &entity.CustomerCredit{ID: 3, Name: "customer3", Credit: decimal.RequireFromString("795")}
	out, err := processor.NewCustomerCreditIncreaseProcessor(processor.FixedAmount).Process(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "800", out.Credit.String())
	assert.Equal(t, int64(3), out.ID)
	assert.Equal(t, "customer3", out.Name)
	assert.Equal(t, "795", in.Credit.String(), "入力は変更しない")
}

func TestCustomerCreditIncreaseProcessor_Nil(t *testing.T) {
	out, err := processor.NewCustomerCreditIncreaseProcessor(processor.FixedAmount).Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}
