package listener

import (
	"context"

	core "tradesample/pkg/batch/job/core"
	"tradesample/pkg/batch/util/logger"
)

// LoggingStepExecutionListener はステップの開始と終了、処理件数をログに出力します。
type LoggingStepExecutionListener struct{}

// NewLoggingStepExecutionListener は新しい LoggingStepExecutionListener のインスタンスを作成します。
func NewLoggingStepExecutionListener() *LoggingStepExecutionListener {
	return &LoggingStepExecutionListener{}
}

// BeforeStep はステップの開始前に呼び出されます。
func (l *LoggingStepExecutionListener) BeforeStep(ctx context.Context, stepExecution *core.StepExecution) {
	logger.Infof("ステップ '%s' を開始します。", stepExecution.StepName)
}

// AfterStep はステップの終了後に呼び出されます。成功・失敗に関わらず呼び出されます。
func (l *LoggingStepExecutionListener) AfterStep(ctx context.Context, stepExecution *core.StepExecution) {
	logger.Infof("ステップ '%s' が終了しました。ステータス: %s, 読み込み: %d, 書き込み: %d, フィルタ: %d, コミット: %d, ロールバック: %d",
		stepExecution.StepName, stepExecution.Status, stepExecution.ReadCount, stepExecution.WriteCount,
		stepExecution.FilterCount, stepExecution.CommitCount, stepExecution.RollbackCount)
	for _, err := range stepExecution.Failures {
		logger.Errorf("ステップ '%s' のエラー: %v", stepExecution.StepName, err)
	}
}

var _ core.StepExecutionListener = (*LoggingStepExecutionListener)(nil)
