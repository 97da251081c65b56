package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tradejob "tradesample/example/trade/job"
	core "tradesample/pkg/batch/job/core"
)

const testTrades = `ISIN,QUANTITY,PRICE,CUSTOMER
# isin,quantity,price,customer
UK21341EAH45,978,98.34,customer1
UK21341EAH46,112,18.12,customer2

UK21341EAH47,245,12.78,customer2
UK21341EAH48,108,109.25,customer3
UK21341EAH49,854,123.39,customer4
`

func testConfig(t *testing.T, jobName string) []byte {
	t.Helper()
	input := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, os.WriteFile(input, []byte(testTrades), 0o600))
	return []byte(fmt.Sprintf(`
database:
  type: sqlite
  path: ":memory:"
batch:
  job_name: %s
  chunk_size: 2
  page_size: 2
  input_file: %s
  lines_to_skip: 1
system:
  logging:
    level: WARN
`, jobName, input))
}

func TestApplication_TradeAndCustomerCreditJobs(t *testing.T) {
	ctx := context.Background()
	bi, err := setupApplication(ctx, "", testConfig(t, tradejob.TradeJobName), os.DirFS("../resources/migrations"))
	require.NoError(t, err)
	t.Cleanup(func() { bi.Close() })

	assert.Equal(t, []string{tradejob.CustomerCreditJobName, tradejob.TradeJobName}, bi.JobFactory.JobNames())

	// tradeJob: 5 件の取引を 3 チャンクで取り込む
	require.Equal(t, 0, executeJob(ctx, bi.JobLauncher, bi.Config))

	rows, err := bi.DBConnection.QueryContext(ctx, "SELECT id, isin, quantity, price, customer FROM TRADE ORDER BY id")
	require.NoError(t, err)
	var ids []int64
	var isins []string
	total := decimal.Zero
	for rows.Next() {
		var (
			id, qty        int64
			isin, customer string
			price          decimal.Decimal
		)
		require.NoError(t, rows.Scan(&id, &isin, &qty, &price, &customer))
		ids = append(ids, id)
		isins = append(isins, isin)
		total = total.Add(price)
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())

	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids)
	assert.Equal(t, []string{"UK21341EAH45", "UK21341EAH46", "UK21341EAH47", "UK21341EAH48", "UK21341EAH49"}, isins)
	assert.True(t, decimal.RequireFromString("361.88").Equal(total), "total=%s", total)

	// customerCreditJob: +5 した結果が 800 を超える顧客だけが更新される
	bi.Config.Batch.JobName = tradejob.CustomerCreditJobName
	require.Equal(t, 0, executeJob(ctx, bi.JobLauncher, bi.Config))

	want := map[string]string{
		"customer1": "100005",
		"customer2": "50005",
		"customer3": "795", // 800 は閾値と等しいため書き込まれない
		"customer4": "700.5",
	}
	for name, credit := range want {
		var got decimal.Decimal
		require.NoError(t, bi.DBConnection.QueryRowContext(ctx, "SELECT credit FROM CUSTOMER WHERE name = ?", name).Scan(&got))
		assert.True(t, decimal.RequireFromString(credit).Equal(got), "%s: got %s, want %s", name, got, credit)
	}
}

func TestApplication_UnknownJob(t *testing.T) {
	ctx := context.Background()
	bi, err := setupApplication(ctx, "", testConfig(t, "noSuchJob"), os.DirFS("../resources/migrations"))
	require.NoError(t, err)
	t.Cleanup(func() { bi.Close() })

	assert.Equal(t, 1, executeJob(ctx, bi.JobLauncher, bi.Config))
}

func TestApplication_TradeJobFailsOnBadLine(t *testing.T) {
	ctx := context.Background()
	input := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(input, []byte("UK21341EAH45,978,98.34,customer1\nUK21341EAH46,abc,18.12,customer2\n"), 0o600))

	bi, err := setupApplication(ctx, "", testConfig(t, tradejob.TradeJobName), os.DirFS("../resources/migrations"))
	require.NoError(t, err)
	t.Cleanup(func() { bi.Close() })
	bi.Config.Batch.InputFile = input
	bi.Config.Batch.LinesToSkip = 0

	assert.Equal(t, 1, executeJob(ctx, bi.JobLauncher, bi.Config))

	var n int
	require.NoError(t, bi.DBConnection.QueryRowContext(ctx, "SELECT COUNT(*) FROM TRADE").Scan(&n))
	assert.Equal(t, 0, n, "失敗したチャンクはロールバックされる")
}

func TestRunApplication_InitializationFailure(t *testing.T) {
	code := RunApplication(context.Background(), "", []byte("database:\n  type: oracle\n"), nil)
	assert.Equal(t, 1, code)
}

func TestHandleApplicationError(t *testing.T) {
	assert.Equal(t, 0, handleApplicationError(nil, &core.JobExecution{Status: core.BatchStatusCompleted}, "tradeJob"))
	assert.Equal(t, 1, handleApplicationError(nil, &core.JobExecution{Status: core.BatchStatusFailed}, "tradeJob"))
	assert.Equal(t, 1, handleApplicationError(nil, &core.JobExecution{Status: core.BatchStatusStopped}, "tradeJob"))
	assert.Equal(t, 1, handleApplicationError(fmt.Errorf("boom"), nil, "tradeJob"))
}
