package main

import (
	"context"
	"embed"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"tradesample/example/trade/app"
	"tradesample/pkg/batch/util/logger"
)

//go:embed resources/application.yaml
var embeddedConfig []byte // application.yaml の内容をバイトスライスとして埋め込む

//go:embed resources/migrations
var embeddedMigrations embed.FS // Dialect ごとのマイグレーションファイルを埋め込む

func main() {
	// Context の設定 (キャンセル可能にする)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// シグナルハンドリング (Ctrl+C などで安全に終了するため)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Warnf("シグナル '%v' を受信しました。ジョブの停止を試みます...", sig)
		cancel() // Context をキャンセルしてジョブ実行を中断
	}()

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env" // デフォルトのパス
	}

	migrations, err := fs.Sub(embeddedMigrations, "resources/migrations")
	if err != nil {
		logger.Errorf("埋め込みマイグレーションの読み込みに失敗しました: %v", err)
		os.Exit(1)
	}

	exitCode := app.RunApplication(ctx, envFilePath, embeddedConfig, migrations)
	cancel()
	os.Exit(exitCode)
}
