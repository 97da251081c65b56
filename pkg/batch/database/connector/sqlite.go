package connector

import (
	"database/sql"

	_ "modernc.org/sqlite" // Pure Go の SQLite ドライバ

	"tradesample/pkg/batch/config"
)

// sqliteConnector はSQLiteデータベースへの接続を確立するDBConnectorの実装です。
type sqliteConnector struct{}

// Connect はSQLiteデータベースを開きます。
// インメモリ DB は接続ごとに別のデータベースになるため、接続数を 1 に固定します。
func (c *sqliteConnector) Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.ConnectionString() == ":memory:" {
		cfg.ConnectionPool.MaxOpenConns = 1
		cfg.ConnectionPool.MaxIdleConns = 1
		cfg.ConnectionPool.ConnMaxLifetimeSeconds = 0
	}
	return openAndPing("sqlite", "SQLite", cfg)
}

func init() {
	RegisterConnector("sqlite", &sqliteConnector{})
}
