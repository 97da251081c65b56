package connector_test

import (
	"context"
	"testing"

	"tradesample/pkg/batch/config"
	"tradesample/pkg/batch/database"
	"tradesample/pkg/batch/database/connector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDBConnectionFromConfig_SQLiteInMemory(t *testing.T) {
	ctx := context.Background()
	conn, err := connector.NewDBConnectionFromConfig(ctx, config.DatabaseConfig{Type: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	assert.Equal(t, database.DialectSQLite, conn.Dialect())
	assert.Equal(t, 1, conn.DB().Stats().MaxOpenConnections)

	_, err = conn.ExecContext(ctx, "CREATE TABLE t (v INTEGER)")
	require.NoError(t, err)

	tx, err := conn.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, "INSERT INTO t (v) VALUES (?)", 42)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	var v int
	require.NoError(t, conn.QueryRowContext(ctx, "SELECT v FROM t").Scan(&v))
	assert.Equal(t, 42, v)
}

func TestNewDBConnectionFromConfig_UnsupportedType(t *testing.T) {
	_, err := connector.NewDBConnectionFromConfig(context.Background(), config.DatabaseConfig{Type: "oracle"})
	assert.ErrorContains(t, err, "未対応のデータベースタイプ")
}
