package initializer

import (
	"context"
	"io/fs"
	"time"

	"tradesample/pkg/batch/config"
	"tradesample/pkg/batch/database"
	"tradesample/pkg/batch/database/connector"
	"tradesample/pkg/batch/job/factory"
	"tradesample/pkg/batch/job/joblauncher"
	"tradesample/pkg/batch/util/exception"
	"tradesample/pkg/batch/util/logger"
)

// BatchInitializer はバッチアプリケーションの初期化処理を担当します。
// 設定のロード、ロギングの設定、データベース接続、マイグレーション、JobFactory と JobLauncher の生成を行います。
type BatchInitializer struct {
	Config *config.Config
	// Migrations は Dialect 名のサブディレクトリ (例: "postgres") にマイグレーションファイルを持つ FS です。
	Migrations fs.FS

	// MaxConnectRetries はデータベース接続の最大試行回数です。
	MaxConnectRetries int
	// ConnectRetryDelay は接続の再試行までの待ち時間です。
	ConnectRetryDelay time.Duration

	DBConnection database.DBConnection
	JobFactory   *factory.JobFactory
	JobLauncher  *joblauncher.SimpleJobLauncher
}

// NewBatchInitializer は新しい BatchInitializer のインスタンスを作成します。
// cfg.EmbeddedConfig に埋め込みの YAML 設定を渡します。
func NewBatchInitializer(cfg *config.Config, migrations fs.FS) *BatchInitializer {
	return &BatchInitializer{
		Config:            cfg,
		Migrations:        migrations,
		MaxConnectRetries: 5,
		ConnectRetryDelay: 3 * time.Second,
	}
}

// connectWithRetry は設定されたデータベースにリトライ付きで接続を試みます。
func (bi *BatchInitializer) connectWithRetry(ctx context.Context) (database.DBConnection, error) {
	retries := bi.MaxConnectRetries
	if retries < 1 {
		retries = 1
	}
	var lastErr error
	for i := 0; i < retries; i++ {
		logger.Debugf("データベース接続を試行中 (試行 %d/%d)...", i+1, retries)
		conn, err := connector.NewDBConnectionFromConfig(ctx, bi.Config.Database)
		if err == nil {
			logger.Infof("データベース接続に成功しました。%s", bi.Config.Database)
			return conn, nil
		}
		lastErr = err
		// 設定の誤りなどリトライしても回復しないエラーはそのまま返す
		if !exception.IsRetryable(err) {
			return nil, err
		}
		logger.Warnf("データベースへの接続に失敗しました: %v", err)
		if i == retries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(bi.ConnectRetryDelay):
		}
	}
	return nil, exception.NewBatchError("initializer", "データベースへの接続に最大試行回数失敗しました", lastErr, false, false)
}

// Initialize はバッチアプリケーションの初期化処理を実行します。
// .env ファイルのロードは呼び出し元で行います。
func (bi *BatchInitializer) Initialize(ctx context.Context) error {
	logger.Debugf("BatchInitializer.Initialize が呼び出されました。")

	// Step 1: 設定のロード
	cfg, err := config.NewBytesConfigLoader(bi.Config.EmbeddedConfig).Load()
	if err != nil {
		return exception.NewBatchError("initializer", "設定のロードに失敗しました", err, false, false)
	}
	bi.Config = cfg

	// Step 2: ロギングの設定
	logger.SetLogLevel(cfg.System.Logging.Level)
	logger.SetFormat(cfg.System.Logging.Format)
	logger.Infof("ロギングレベルを '%s' に設定しました。", cfg.System.Logging.Level)

	// Step 3: データベース接続
	conn, err := bi.connectWithRetry(ctx)
	if err != nil {
		return exception.NewBatchError("initializer", "データベースへの接続に失敗しました", err, false, false)
	}
	bi.DBConnection = conn

	// Step 4: アプリケーションのマイグレーション
	if bi.Migrations != nil || cfg.Database.MigrationPath != "" {
		if err := database.RunMigrations(cfg.Database, conn, bi.Migrations); err != nil {
			return exception.NewBatchError("initializer", "アプリケーションのマイグレーションに失敗しました", err, false, false)
		}
	} else {
		logger.Infof("マイグレーションが指定されていません。スキップします。")
	}

	// Step 5: JobFactory と JobLauncher の生成
	bi.JobFactory = factory.NewJobFactory(cfg)
	bi.JobLauncher = joblauncher.NewSimpleJobLauncher(bi.JobFactory)
	logger.Debugf("JobFactory と JobLauncher を生成しました。")
	return nil
}

// Close は初期化で確保したリソースを解放します。
func (bi *BatchInitializer) Close() error {
	if bi.DBConnection == nil {
		return nil
	}
	err := bi.DBConnection.Close()
	bi.DBConnection = nil
	if err != nil {
		return exception.NewBatchError("initializer", "データベース接続のクローズに失敗しました", err, false, false)
	}
	logger.Debugf("データベース接続を閉じました。")
	return nil
}
