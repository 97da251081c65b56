package connector

import (
	"database/sql"

	_ "github.com/lib/pq" // PostgreSQL ドライバ

	"tradesample/pkg/batch/config"
)

// postgresConnector はPostgreSQLデータベースへの接続を確立するDBConnectorの実装です。
type postgresConnector struct{}

// Connect はPostgreSQLデータベースへの接続を確立し、*sql.DBを返します。
func (c *postgresConnector) Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	return openAndPing("postgres", "PostgreSQL", cfg)
}

func init() {
	RegisterConnector("postgres", &postgresConnector{})
}
