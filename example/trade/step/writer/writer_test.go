package writer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tradesample/example/trade/domain/entity"
	"tradesample/example/trade/step/writer"
	"tradesample/pkg/batch/database"
	core "tradesample/pkg/batch/job/core"
)

// mockCreditDao は書き込まれた顧客クレジットを記録する CustomerCreditDao のモックです。
type mockCreditDao struct {
	mock.Mock
}

func (m *mockCreditDao) WriteCredit(ctx context.Context, tx database.Tx, credit *entity.CustomerCredit) error {
	return m.Called(credit).Error(0)
}

func (m *mockCreditDao) written() []string {
	var names []string
	for _, c := range m.Calls {
		names = append(names, c.Arguments.Get(0).(*entity.CustomerCredit).Name)
	}
	return names
}

type mockTradeDao struct {
	mock.Mock
}

func (m *mockTradeDao) WriteTrade(ctx context.Context, tx database.Tx, trade *entity.Trade) error {
	return m.Called(trade).Error(0)
}

func credit(name, amount string) *entity.CustomerCredit {
	return &entity.CustomerCredit{Name: name, Credit: decimal.RequireFromString(amount)}
}

func TestCustomerCreditUpdateWriter_StrictlyGreaterThanFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter *float64
		items  []*entity.CustomerCredit
		want   []string
	}{
		{
			name:  "デフォルトの閾値 800",
			items: []*entity.CustomerCredit{credit("a", "801"), credit("b", "800"), credit("c", "799.99"), credit("d", "800.01")},
			want:  []string{"a", "d"},
		},
		{
			name:   "閾値を変更",
			filter: func() *float64 { f := 1000.0; return &f }(),
			items:  []*entity.CustomerCredit{credit("a", "1000"), credit("b", "1500"), credit("c", "999")},
			want:   []string{"b"},
		},
		{
			name:  "全て閾値以下",
			items: []*entity.CustomerCredit{credit("a", "100"), credit("b", "800")},
			want:  nil,
		},
		{
			name:  "空のチャンク",
			items: nil,
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dao := &mockCreditDao{}
			dao.On("WriteCredit", mock.Anything).Return(nil)
			w := writer.NewCustomerCreditUpdateWriter(dao)
			if tt.filter != nil {
				w.SetCreditFilter(*tt.filter)
			}

			require.NoError(t, w.Write(context.Background(), nil, tt.items))
			assert.Equal(t, tt.want, dao.written(), "閾値を超えるものだけが入力順に書き込まれる")
		})
	}
}

func TestCustomerCreditUpdateWriter_PropagatesDaoError(t *testing.T) {
	cause := errors.New("update failed")
	dao := &mockCreditDao{}
	dao.On("WriteCredit", mock.MatchedBy(func(c *entity.CustomerCredit) bool { return c.Name == "b" })).Return(cause)
	dao.On("WriteCredit", mock.Anything).Return(nil)

	w := writer.NewCustomerCreditUpdateWriter(dao)
	err := w.Write(context.Background(), nil, []*entity.CustomerCredit{credit("a", "900"), credit("b", "900"), credit("c", "900")})

	assert.Same(t, cause, err, "DAO のエラーはラップせずに返す")
	assert.Equal(t, []string{"a", "b"}, dao.written())
}

func TestCustomerCreditUpdateWriter_DefaultFilter(t *testing.T) {
	w := writer.NewCustomerCreditUpdateWriter(&mockCreditDao{})
	assert.True(t, decimal.NewFromInt(800).Equal(w.CreditFilter()))
}

func TestTradeWriter_WritesAllAndTotals(t *testing.T) {
	ctx := context.Background()
	dao := &mockTradeDao{}
	dao.On("WriteTrade", mock.Anything).Return(nil)

	w := writer.NewTradeWriter(dao)
	require.NoError(t, w.Open(ctx, core.NewExecutionContext()))
	trades := []*entity.Trade{
		entity.NewTrade("A", 1, decimal.RequireFromString("98.34"), "c1"),
		entity.NewTrade("B", 2, decimal.RequireFromString("18.12"), "c2"),
	}
	require.NoError(t, w.Write(ctx, nil, trades))
	require.NoError(t, w.Write(ctx, nil, trades[:1]))

	dao.AssertNumberOfCalls(t, "WriteTrade", 3)
	assert.Equal(t, "214.8", w.TotalPrice().String())

	ec, err := w.GetExecutionContext(ctx)
	require.NoError(t, err)
	total, ok := ec.Get(writer.TotalAmountKey)
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("214.80").Equal(total.(decimal.Decimal)))
}

func TestTradeWriter_RestoresTotal(t *testing.T) {
	ec := core.NewExecutionContext()
	ec.Put(writer.TotalAmountKey, "10.5")
	w := writer.NewTradeWriter(&mockTradeDao{})
	require.NoError(t, w.Open(context.Background(), ec))
	assert.Equal(t, "10.5", w.TotalPrice().String())
}

func TestTradeWriter_PropagatesDaoError(t *testing.T) {
	cause := errors.New("insert failed")
	dao := &mockTradeDao{}
	dao.On("WriteTrade", mock.Anything).Return(cause)

	w := writer.NewTradeWriter(dao)
	err := w.Write(context.Background(), nil, []*entity.Trade{entity.NewTrade("A", 1, decimal.NewFromInt(1), "c")})
	assert.Same(t, cause, err)
	assert.True(t, w.TotalPrice().IsZero(), "失敗したチャンクは合計に含めない")
}
