package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"tradesample/pkg/batch/util/exception"
	"tradesample/pkg/batch/util/logger"
)

// ConfigLoader は Config をロードするためのインターフェースです。
type ConfigLoader interface {
	Load() (*Config, error)
}

// BytesConfigLoader はバイトスライスから設定をロードする ConfigLoader の実装です。
type BytesConfigLoader struct {
	data []byte
}

// NewBytesConfigLoader は新しい BytesConfigLoader のインスタンスを作成します。
func NewBytesConfigLoader(data []byte) *BytesConfigLoader {
	return &BytesConfigLoader{data: data}
}

// Load は埋め込まれたバイトスライスから設定をロードします。
// YAML に記述のない項目は NewConfig のデフォルト値のまま残り、最後に環境変数で上書きされます。
func (l *BytesConfigLoader) Load() (*Config, error) {
	cfg := NewConfig()

	if len(l.data) > 0 {
		if err := yaml.Unmarshal(l.data, cfg); err != nil {
			return nil, exception.NewBatchError("config", "YAML設定のパースに失敗しました", err, false, false)
		}
	}
	cfg.EmbeddedConfig = l.data

	loadEnvVars(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Batch.ChunkSize <= 0 {
		return exception.NewBatchErrorf("config", "chunk_size は 1 以上である必要があります: %d", cfg.Batch.ChunkSize)
	}
	if cfg.Batch.LinesToSkip < 0 {
		return exception.NewBatchErrorf("config", "lines_to_skip は 0 以上である必要があります: %d", cfg.Batch.LinesToSkip)
	}
	if cfg.Batch.PageSize <= 0 {
		return exception.NewBatchErrorf("config", "page_size は 1 以上である必要があります: %d", cfg.Batch.PageSize)
	}
	return nil
}

func envInt(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warnf("%s の値 '%s' が無効です。デフォルト値または設定ファイルの値を使用します。", key, v)
		return
	}
	*dst = n
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// 環境変数で個別の設定値を上書きする関数
func loadEnvVars(cfg *Config) {
	// Database 設定
	envString("DATABASE_TYPE", &cfg.Database.Type)
	envString("DATABASE_HOST", &cfg.Database.Host)
	envInt("DATABASE_PORT", &cfg.Database.Port)
	envString("DATABASE_DATABASE", &cfg.Database.Database)
	envString("DATABASE_USER", &cfg.Database.User)
	envString("DATABASE_PASSWORD", &cfg.Database.Password)
	envString("DATABASE_SSLMODE", &cfg.Database.Sslmode)
	envString("DATABASE_ACCOUNT", &cfg.Database.Account)
	envString("DATABASE_WAREHOUSE", &cfg.Database.Warehouse)
	envString("DATABASE_SCHEMA", &cfg.Database.Schema)
	envString("DATABASE_PATH", &cfg.Database.Path)
	envString("DATABASE_MIGRATION_PATH", &cfg.Database.MigrationPath)
	envInt("DATABASE_MAX_OPEN_CONNS", &cfg.Database.ConnectionPool.MaxOpenConns)
	envInt("DATABASE_MAX_IDLE_CONNS", &cfg.Database.ConnectionPool.MaxIdleConns)
	envInt("DATABASE_CONN_MAX_LIFETIME_SECONDS", &cfg.Database.ConnectionPool.ConnMaxLifetimeSeconds)

	// Batch 設定
	envString("BATCH_JOB_NAME", &cfg.Batch.JobName)
	envInt("BATCH_CHUNK_SIZE", &cfg.Batch.ChunkSize)
	envInt("BATCH_PAGE_SIZE", &cfg.Batch.PageSize)
	envString("BATCH_INPUT_FILE", &cfg.Batch.InputFile)
	envInt("BATCH_LINES_TO_SKIP", &cfg.Batch.LinesToSkip)
	envString("BATCH_CREDIT_THRESHOLD", &cfg.Batch.CreditThreshold)
	if v := os.Getenv("BATCH_CREDIT_FILTER"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Batch.CreditFilter = f
		} else {
			logger.Warnf("BATCH_CREDIT_FILTER の値 '%s' が無効です。デフォルト値または設定ファイルの値を使用します。", v)
		}
	}

	// System 設定
	envString("SYSTEM_LOGGING_LEVEL", &cfg.System.Logging.Level)
	envString("SYSTEM_LOGGING_FORMAT", &cfg.System.Logging.Format)
}

// String はパスワードを伏せた接続情報の要約を返します。
func (c DatabaseConfig) String() string {
	return fmt.Sprintf("DatabaseConfig[type=%s, host=%s, port=%d, database=%s, user=%s]",
		c.Type, c.Host, c.Port, c.Database, c.User)
}
