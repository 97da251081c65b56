package connector

import (
	"database/sql"

	_ "github.com/go-sql-driver/mysql" // MySQL ドライバ

	"tradesample/pkg/batch/config"
)

// mysqlConnector はMySQLデータベースへの接続を確立するDBConnectorの実装です。
type mysqlConnector struct{}

// Connect はMySQLデータベースへの接続を確立し、*sql.DBを返します。
func (c *mysqlConnector) Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	return openAndPing("mysql", "MySQL", cfg)
}

func init() {
	RegisterConnector("mysql", &mysqlConnector{})
}
