package connector

import (
	"database/sql"

	_ "github.com/lib/pq" // Redshift は PostgreSQL と互換性があるため、pq ドライバを使用

	"tradesample/pkg/batch/config"
)

// redshiftConnector はRedshiftデータベースへの接続を確立するDBConnectorの実装です。
type redshiftConnector struct{}

// Connect はRedshiftデータベースへの接続を確立し、*sql.DBを返します。
func (c *redshiftConnector) Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	return openAndPing("postgres", "Redshift", cfg)
}

func init() {
	RegisterConnector("redshift", &redshiftConnector{})
}
