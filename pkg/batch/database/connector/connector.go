package connector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"tradesample/pkg/batch/config"
	"tradesample/pkg/batch/database"
	"tradesample/pkg/batch/util/exception"
	"tradesample/pkg/batch/util/logger"
)

// DBConnector は特定のデータベースタイプへの接続を確立するためのインターフェースです。
type DBConnector interface {
	Connect(cfg config.DatabaseConfig) (*sql.DB, error)
}

var (
	mu sync.RWMutex
	// connectors は登録されたDBConnectorの実装を保持するマップです。
	connectors = make(map[string]DBConnector)
)

// RegisterConnector は指定されたタイプ名でDBConnectorを登録します。
func RegisterConnector(dbType string, connector DBConnector) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := connectors[dbType]; exists {
		logger.Warnf("DBConnector '%s' は既に登録されています。上書きします。", dbType)
	}
	connectors[dbType] = connector
}

// GetSQLDB は設定に基づいて適切なデータベース接続を確立します。
// 登録されたコネクタの中から適切なものを選択して接続します。
func GetSQLDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	mu.RLock()
	connector, ok := connectors[strings.ToLower(cfg.Type)]
	mu.RUnlock()
	if !ok {
		return nil, exception.NewBatchError("database", fmt.Sprintf("未対応のデータベースタイプ: %s", cfg.Type), nil, false, false)
	}
	return connector.Connect(cfg)
}

// NewDBConnectionFromConfig は設定に基づいてデータベース接続を確立し、DBConnection として返します。
func NewDBConnectionFromConfig(ctx context.Context, cfg config.DatabaseConfig) (database.DBConnection, error) {
	dialect, err := database.DialectFor(cfg.Type)
	if err != nil {
		return nil, err
	}
	rawDB, err := GetSQLDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := rawDB.PingContext(ctx); err != nil {
		rawDB.Close()
		return nil, exception.NewBatchError("database", "データベースへのPingに失敗しました", err, true, false)
	}
	return database.NewSQLDBAdapter(rawDB, dialect), nil
}

// openAndPing はドライバ名と DSN で接続を開き、プール設定を適用して疎通を確認します。
func openAndPing(driverName, label string, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(driverName, cfg.ConnectionString())
	if err != nil {
		return nil, exception.NewBatchError("database", fmt.Sprintf("%s への接続に失敗しました", label), err, false, false)
	}

	pool := cfg.ConnectionPool
	db.SetMaxOpenConns(pool.MaxOpenConns)
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	db.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeSeconds) * time.Second)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, exception.NewBatchError("database", fmt.Sprintf("%s への Ping に失敗しました", label), err, true, false)
	}

	logger.Debugf("%s に正常に接続しました。MaxOpenConns: %d, MaxIdleConns: %d, ConnMaxLifetime: %d秒",
		label, pool.MaxOpenConns, pool.MaxIdleConns, pool.ConnMaxLifetimeSeconds)
	return db, nil
}
