package listener

import (
	"context"

	core "tradesample/pkg/batch/job/core"
	"tradesample/pkg/batch/util/logger"
)

// LoggingJobListener はジョブの開始と終了をログに出力する JobExecutionListener の実装です。
type LoggingJobListener struct{}

// NewLoggingJobListener は新しい LoggingJobListener のインスタンスを作成します。
func NewLoggingJobListener() *LoggingJobListener {
	return &LoggingJobListener{}
}

// BeforeJob はジョブの開始前に呼び出されます。
func (l *LoggingJobListener) BeforeJob(ctx context.Context, jobExecution *core.JobExecution) {
	logger.Infof("ジョブ '%s' (ID: %s) を開始します。パラメータ: %v", jobExecution.JobName, jobExecution.ID, jobExecution.Parameters.Params)
}

// AfterJob はジョブの終了後に呼び出されます。
func (l *LoggingJobListener) AfterJob(ctx context.Context, jobExecution *core.JobExecution) {
	duration := jobExecution.EndTime.Sub(jobExecution.StartTime)
	logger.Infof("ジョブ '%s' (ID: %s) が終了しました。ステータス: %s, 終了ステータス: %s, 所要時間: %s",
		jobExecution.JobName, jobExecution.ID, jobExecution.Status, jobExecution.ExitStatus, duration)
	for _, se := range jobExecution.StepExecutions {
		logger.Infof("  ステップ '%s': %s (読み込み: %d, 書き込み: %d, フィルタ: %d)",
			se.StepName, se.Status, se.ReadCount, se.WriteCount, se.FilterCount)
	}
	for _, err := range jobExecution.Failures {
		logger.Errorf("ジョブ '%s' のエラー: %v", jobExecution.JobName, err)
	}
}

var _ core.JobExecutionListener = (*LoggingJobListener)(nil)
