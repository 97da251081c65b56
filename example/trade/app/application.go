// Package app は取引サンプルのバッチアプリケーションを起動します。
package app

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"

	tradejob "tradesample/example/trade/job"
	"tradesample/pkg/batch/config"
	"tradesample/pkg/batch/database/incrementer"
	"tradesample/pkg/batch/initializer"
	core "tradesample/pkg/batch/job/core"
	"tradesample/pkg/batch/job/joblauncher"
	"tradesample/pkg/batch/util/exception"
	"tradesample/pkg/batch/util/logger"
)

// registerApplicationJobs は取引サンプルのジョブを JobFactory に登録します。
func registerApplicationJobs(bi *initializer.BatchInitializer) error {
	cfg := bi.Config
	conn := bi.DBConnection

	inc, err := incrementer.NewIncrementer(conn.Dialect(), cfg.Batch.Incrementer)
	if err != nil {
		return exception.NewBatchError("app", "インクリメンタの生成に失敗しました", err, false, false)
	}

	bi.JobFactory.RegisterJobBuilder(tradejob.TradeJobName, func(cfg *config.Config) (core.Job, error) {
		return tradejob.NewTradeJob(cfg, conn, inc)
	})
	bi.JobFactory.RegisterJobBuilder(tradejob.CustomerCreditJobName, func(cfg *config.Config) (core.Job, error) {
		return tradejob.NewCustomerCreditJob(cfg, conn)
	})

	logger.Debugf("全てのアプリケーションジョブビルダーを登録しました。%v", bi.JobFactory.JobNames())
	return nil
}

// setupApplication はアプリケーションの初期化処理を実行し、初期化済みの BatchInitializer を返します。
func setupApplication(ctx context.Context, envFilePath string, embeddedConfig []byte, migrations fs.FS) (*initializer.BatchInitializer, error) {
	// .env ファイルのロード
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env ファイル '%s' のロードに失敗しました (本番環境では環境変数を使用): %v", envFilePath, err)
		} else {
			logger.Infof(".env ファイル '%s' をロードしました。", envFilePath)
		}
	} else {
		logger.Debugf(".env ファイルのパスが指定されていないため、ロードをスキップします。")
	}

	batchInitializer := initializer.NewBatchInitializer(&config.Config{EmbeddedConfig: embeddedConfig}, migrations)
	if err := batchInitializer.Initialize(ctx); err != nil {
		batchInitializer.Close()
		return nil, exception.NewBatchError("app", "バッチアプリケーションの初期化に失敗しました", err, false, false)
	}
	logger.Infof("バッチアプリケーションの初期化が完了しました。")

	if err := registerApplicationJobs(batchInitializer); err != nil {
		batchInitializer.Close()
		return nil, err
	}
	return batchInitializer, nil
}

// executeJob は設定されたジョブを実行し、その結果に基づいて終了コードを返します。
func executeJob(ctx context.Context, jobLauncher joblauncher.JobLauncher, appConfig *config.Config) int {
	jobName := appConfig.Batch.JobName
	if jobName == "" {
		logger.Errorf("設定ファイルにジョブ名が指定されていません。")
		return 1
	}
	logger.Infof("実行する Job: '%s'", jobName)

	jobParams := core.NewJobParameters()
	jobParams.Put(tradejob.InputFileParam, appConfig.Batch.InputFile)
	jobParams.Put("process.date", time.Now().Format("2006-01-02"))

	jobExecution, err := jobLauncher.Launch(ctx, jobName, jobParams)
	if err == nil && jobExecution == nil {
		logger.Errorf("JobLauncher.Launch がエラーなしで nil の JobExecution を返しました。")
		return 1
	}
	return handleApplicationError(err, jobExecution, jobName)
}

// RunApplication はアプリケーションのメインロジックを実行し、終了コードを返します。
func RunApplication(ctx context.Context, envFilePath string, embeddedConfig []byte, migrations fs.FS) int {
	batchInitializer, err := setupApplication(ctx, envFilePath, embeddedConfig, migrations)
	if err != nil {
		logger.Errorf("%v", err)
		return 1
	}

	// 初期化完了後、リソースのクローズ処理を defer で登録
	defer func() {
		if closeErr := batchInitializer.Close(); closeErr != nil {
			logger.Errorf("バッチアプリケーションのリソースクローズ中にエラーが発生しました: %v", closeErr)
		} else {
			logger.Infof("バッチアプリケーションのリソースを正常にクローズしました。")
		}
	}()

	return executeJob(ctx, batchInitializer.JobLauncher, batchInitializer.Config)
}

// handleApplicationError はアプリケーションのエラーを処理し、適切な終了コードを返します。
func handleApplicationError(err error, jobExecution *core.JobExecution, jobName string) int {
	hasError := false

	if err != nil {
		hasError = true
		if jobExecution != nil {
			logger.Errorf("Job '%s' (Execution ID: %s) の実行中にエラーが発生しました: %v",
				jobName, jobExecution.ID, err)
			logger.Errorf("Job '%s' (Execution ID: %s) の最終状態: %s, ExitStatus: %s",
				jobName, jobExecution.ID, jobExecution.Status, jobExecution.ExitStatus)
		} else {
			logger.Errorf("Job '%s' の起動処理中にエラーが発生しました: %v", jobName, err)
		}

		var be *exception.BatchError
		if errors.As(err, &be) {
			logger.Errorf("BatchError 詳細: Module=%s, Message=%s, OriginalErr=%v", be.Module, be.Message, be.OriginalErr)
			if be.StackTrace != "" {
				logger.Debugf("BatchError StackTrace:\n%s", be.StackTrace)
			}
		}
	}

	// err が nil でも jobExecution のステータスが失敗の場合
	if jobExecution != nil && (jobExecution.Status == core.BatchStatusFailed || jobExecution.Status == core.BatchStatusStopped) {
		hasError = true
		logger.Errorf("Job '%s' は %s で終了しました。詳細は JobExecution (ID: %s) およびログを確認してください。",
			jobExecution.JobName, jobExecution.Status, jobExecution.ID)
	}

	if jobExecution != nil {
		for i, f := range jobExecution.Failures {
			logger.Errorf("  - 失敗 %d: %v", i+1, f)
		}
		for _, se := range jobExecution.StepExecutions {
			logger.Infof("Step '%s': %s (read=%d, write=%d, filter=%d, commit=%d, rollback=%d)",
				se.StepName, se.Status, se.ReadCount, se.WriteCount, se.FilterCount, se.CommitCount, se.RollbackCount)
		}
	}

	if hasError {
		return 1
	}
	return 0
}
