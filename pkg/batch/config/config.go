package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// EmbeddedConfig は、設定ファイルの内容を保持するためのフィールドです。
// main.go から渡される埋め込み設定を格納します。
type EmbeddedConfig []byte

// ConnectionPoolConfig はデータベースコネクションプールの設定を保持します。
type ConnectionPoolConfig struct {
	MaxOpenConns           int `yaml:"max_open_conns"`
	MaxIdleConns           int `yaml:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `yaml:"conn_max_lifetime_seconds"`
}

type DatabaseConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Sslmode  string `yaml:"sslmode"`
	// Snowflake 用
	Account   string `yaml:"account"`
	Warehouse string `yaml:"warehouse"`
	Schema    string `yaml:"schema"`
	// SQLite 用のファイルパス (":memory:" も可)
	Path string `yaml:"path"`
	// アプリケーション固有のマイグレーションファイルのパス。空の場合は埋め込みのマイグレーションを使用します。
	MigrationPath  string               `yaml:"migration_path"`
	ConnectionPool ConnectionPoolConfig `yaml:"connection_pool"`
}

// ConnectionString は database/sql のドライバに渡す DSN を返します。
func (c DatabaseConfig) ConnectionString() string {
	switch strings.ToLower(c.Type) {
	case "postgres", "redshift":
		// ユーザー名とパスワードは URL エスケープする
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
			Path:     "/" + c.Database,
			RawQuery: "sslmode=" + url.QueryEscape(c.Sslmode),
		}
		return u.String()
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
		mc.DBName = c.Database
		mc.ParseTime = true
		return mc.FormatDSN()
	case "snowflake":
		return fmt.Sprintf("%s:%s@%s/%s/%s?warehouse=%s",
			c.User, c.Password, c.Account, c.Database, c.Schema, c.Warehouse)
	case "sqlite":
		if c.Path == "" {
			return ":memory:"
		}
		return c.Path
	default:
		return ""
	}
}

// MigrationURL は golang-migrate が期待するデータベース URL を返します。
// SQLite はインメモリ DB を共有する必要があるため、URL ではなく既存の接続でマイグレーションします。
func (c DatabaseConfig) MigrationURL() string {
	switch strings.ToLower(c.Type) {
	case "postgres":
		return c.ConnectionString()
	case "redshift":
		// golang-migrate の redshift ドライバは redshift:// スキームで登録されている
		return "redshift" + strings.TrimPrefix(c.ConnectionString(), "postgres")
	case "mysql":
		return "mysql://" + c.ConnectionString() + "&multiStatements=true"
	default:
		return ""
	}
}

// IncrementerConfig はサロゲートキー採番に使用するインクリメンタの設定です。
type IncrementerConfig struct {
	// Type は "sequence", "table", "static" のいずれか。空の場合はデータベースタイプから決定します。
	Type string `yaml:"type"`
	// Name はシーケンス名、またはテーブル方式の場合のテーブル名です。
	Name string `yaml:"name"`
	// Column はテーブル方式でのカラム名です。
	Column    string `yaml:"column"`
	CacheSize int    `yaml:"cache_size"`
}

type BatchConfig struct {
	JobName   string `yaml:"job_name"`
	ChunkSize int    `yaml:"chunk_size"`
	// CreditFilter はこの値を超えるクレジットのみを書き込み対象とする閾値です。
	CreditFilter float64 `yaml:"credit_filter"`
	// CreditIncrease はクレジットに加算する固定額です。
	CreditIncrease string `yaml:"credit_increase"`
	// CreditThreshold は読み込み対象とする顧客クレジットの下限です (この値より大きいもの)。
	CreditThreshold string `yaml:"credit_threshold"`
	PageSize        int    `yaml:"page_size"`
	InputFile       string `yaml:"input_file"`
	// LinesToSkip は入力ファイル先頭で読み飛ばす行数です (ヘッダ行など)。
	LinesToSkip int               `yaml:"lines_to_skip"`
	Incrementer IncrementerConfig `yaml:"incrementer"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SystemConfig struct {
	Timezone string        `yaml:"timezone"`
	Logging  LoggingConfig `yaml:"logging"`
}

type Config struct {
	Database       DatabaseConfig `yaml:"database"`
	Batch          BatchConfig    `yaml:"batch"`
	System         SystemConfig   `yaml:"system"`
	EmbeddedConfig EmbeddedConfig `yaml:"-"` // 埋め込み設定を格納するためのフィールド。YAMLからは読み込まない。
}

// NewConfig はデフォルト値を設定した Config の新しいインスタンスを返します。
func NewConfig() *Config {
	return &Config{
		System: SystemConfig{
			Timezone: "UTC",
			Logging:  LoggingConfig{Level: "INFO", Format: "cli"},
		},
		Batch: BatchConfig{
			ChunkSize:       10,
			CreditFilter:    800,
			CreditIncrease:  "5",
			CreditThreshold: "0",
			PageSize:        2,
			Incrementer: IncrementerConfig{
				Name:      "TRADE_SEQ",
				Column:    "ID",
				CacheSize: 1,
			},
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			Path: ":memory:",
		},
	}
}
