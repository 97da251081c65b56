package database

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"    // MySQL ドライバを登録
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // PostgreSQL ドライバを登録
	_ "github.com/golang-migrate/migrate/v4/database/redshift" // Redshift ドライバを登録 (advisory lock を使用しない)
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file" // ファイルソースドライバを登録
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"tradesample/pkg/batch/config"
	"tradesample/pkg/batch/util/exception"
	"tradesample/pkg/batch/util/logger"
)

// migrationDir は Dialect ごとのマイグレーションのサブディレクトリ名を返します。
func migrationDir(d Dialect) string {
	return string(d)
}

// RunMigrations はアプリケーションのテーブルを作成するマイグレーションを実行します。
//
// cfg.MigrationPath が指定されている場合はそのディレクトリを、そうでなければ
// migrations 内の Dialect 名のサブディレクトリ (例: "postgres") を使用します。
// SQLite の場合はインメモリ DB を共有するため、conn 上でそのままマイグレーションします。
func RunMigrations(cfg config.DatabaseConfig, conn DBConnection, migrations fs.FS) error {
	dialect := conn.Dialect()
	if dialect == DialectSnowflake {
		logger.Warnf("Snowflake ではマイグレーションをサポートしていません。テーブルが事前に作成されていることを前提とします。")
		return nil
	}
	logger.Infof("データベースマイグレーションを開始します。DBタイプ: %s", dialect)

	m, err := newMigrate(cfg, conn, migrations)
	if err != nil {
		return exception.NewBatchError("migration", "マイグレーションインスタンスの作成に失敗しました", err, false, false)
	}
	if dialect != DialectSQLite {
		// SQLite は conn を共有しているため Close しない
		defer func() {
			if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
				logger.Warnf("マイグレーションのクローズに失敗しました: source=%v, database=%v", srcErr, dbErr)
			}
		}()
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Infof("マイグレーションは不要です。データベースは最新の状態です。")
			return nil
		}
		return exception.NewBatchError("migration", "マイグレーションの実行に失敗しました", err, false, false)
	}

	logger.Infof("データベースマイグレーションが正常に完了しました。")
	return nil
}

func newMigrate(cfg config.DatabaseConfig, conn DBConnection, migrations fs.FS) (*migrate.Migrate, error) {
	dialect := conn.Dialect()

	if dialect == DialectSQLite {
		driver, err := sqlite.WithInstance(conn.DB(), &sqlite.Config{})
		if err != nil {
			return nil, err
		}
		if cfg.MigrationPath != "" {
			return migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", cfg.MigrationPath), "sqlite", driver)
		}
		src, err := iofs.New(migrations, migrationDir(dialect))
		if err != nil {
			return nil, err
		}
		return migrate.NewWithInstance("iofs", src, "sqlite", driver)
	}

	databaseURL := cfg.MigrationURL()
	if databaseURL == "" {
		return nil, fmt.Errorf("サポートされていないデータベースタイプ: %s", cfg.Type)
	}
	if cfg.MigrationPath != "" {
		return migrate.New(fmt.Sprintf("file://%s", cfg.MigrationPath), databaseURL)
	}
	src, err := iofs.New(migrations, migrationDir(dialect))
	if err != nil {
		return nil, err
	}
	return migrate.NewWithSourceInstance("iofs", src, databaseURL)
}
