package job_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tradejob "tradesample/example/trade/job"
	"tradesample/pkg/batch/config"
	"tradesample/pkg/batch/database"
	"tradesample/pkg/batch/database/connector"
	"tradesample/pkg/batch/database/incrementer"
	core "tradesample/pkg/batch/job/core"
	"tradesample/pkg/batch/job/runner"
)

func openSQLite(t *testing.T) database.DBConnection {
	t.Helper()
	cfg := config.DatabaseConfig{Type: "sqlite", Path: ":memory:"}
	conn, err := connector.NewDBConnectionFromConfig(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, database.RunMigrations(cfg, conn, os.DirFS("../resources/migrations")))
	return conn
}

func TestNewTradeJob(t *testing.T) {
	conn := openSQLite(t)
	j, err := tradejob.NewTradeJob(config.NewConfig(), conn, incrementer.NewStaticIncrementer(1))
	require.NoError(t, err)
	assert.Equal(t, tradejob.TradeJobName, j.JobName())

	sj := j.(*runner.SimpleJob)
	require.Len(t, sj.Steps(), 1)
	assert.Equal(t, tradejob.TradeStepName, sj.Steps()[0].StepName())

	params := core.NewJobParameters()
	assert.Error(t, sj.ValidateParameters(params), "入力ファイルのパラメータは必須")
	params.Put(tradejob.InputFileParam, "data/trades.csv")
	assert.NoError(t, sj.ValidateParameters(params))

	_, err = tradejob.NewTradeJob(config.NewConfig(), nil, nil)
	assert.Error(t, err)
}

func TestTradeJob_ReadsFileNamedByJobParameter(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)
	cfg := config.NewConfig()
	cfg.Batch.InputFile = filepath.Join(t.TempDir(), "missing.csv")
	cfg.Batch.LinesToSkip = 0

	input := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, os.WriteFile(input, []byte("UK21341EAH45,978,98.34,customer1\nUK21341EAH46,112,18.12,customer2\n"), 0o600))

	j, err := tradejob.NewTradeJob(cfg, conn, incrementer.NewStaticIncrementer(0))
	require.NoError(t, err)
	params := core.NewJobParameters()
	params.Put(tradejob.InputFileParam, input)
	je := core.NewJobExecution(j.JobName(), params)
	require.NoError(t, j.Run(ctx, je))

	assert.Equal(t, core.BatchStatusCompleted, je.Status)
	var n int
	require.NoError(t, conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM TRADE").Scan(&n))
	assert.Equal(t, 2, n, "設定ファイルの input_file ではなくジョブパラメータのファイルを読む")
}

func TestNewCustomerCreditJob(t *testing.T) {
	conn := openSQLite(t)
	j, err := tradejob.NewCustomerCreditJob(config.NewConfig(), conn)
	require.NoError(t, err)
	assert.Equal(t, tradejob.CustomerCreditJobName, j.JobName())

	cfg := config.NewConfig()
	cfg.Batch.CreditThreshold = "abc"
	_, err = tradejob.NewCustomerCreditJob(cfg, conn)
	assert.ErrorContains(t, err, "credit_threshold")

	cfg = config.NewConfig()
	cfg.Batch.CreditIncrease = ""
	_, err = tradejob.NewCustomerCreditJob(cfg, conn)
	assert.ErrorContains(t, err, "credit_increase")
}

func TestCustomerCreditJob_Run(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)
	cfg := config.NewConfig()
	cfg.Batch.ChunkSize = 3

	j, err := tradejob.NewCustomerCreditJob(cfg, conn)
	require.NoError(t, err)
	je := core.NewJobExecution(j.JobName(), core.NewJobParameters())
	require.NoError(t, j.Run(ctx, je))

	assert.Equal(t, core.BatchStatusCompleted, je.Status)
	require.Len(t, je.StepExecutions, 1)
	se := je.StepExecutions[0]
	assert.Equal(t, 4, se.ReadCount)
	assert.Equal(t, 4, se.WriteCount, "閾値による除外は Writer 内で行うため WriteCount はチャンクの件数")
	assert.Equal(t, 2, se.CommitCount)
}
