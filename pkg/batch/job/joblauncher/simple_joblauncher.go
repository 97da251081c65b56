package joblauncher

import (
	"context"
	"fmt"
	"sync"

	core "tradesample/pkg/batch/job/core"
	"tradesample/pkg/batch/job/factory"
	"tradesample/pkg/batch/util/exception"
	"tradesample/pkg/batch/util/logger"
)

// SimpleJobLauncher は JobLauncher インターフェースのシンプルな実装です。
// JobFactory からジョブを生成し、同期的に実行します。
// 実行中のジョブのキャンセル関数を保持し、Stop で停止できます。
type SimpleJobLauncher struct {
	jobFactory *factory.JobFactory

	mu                     sync.Mutex
	activeJobCancellations map[string]context.CancelFunc
}

// NewSimpleJobLauncher は新しい SimpleJobLauncher のインスタンスを作成します。
func NewSimpleJobLauncher(jobFactory *factory.JobFactory) *SimpleJobLauncher {
	return &SimpleJobLauncher{
		jobFactory:             jobFactory,
		activeJobCancellations: make(map[string]context.CancelFunc),
	}
}

func (l *SimpleJobLauncher) registerCancelFunc(executionID string, cancel context.CancelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.activeJobCancellations[executionID] = cancel
}

func (l *SimpleJobLauncher) unregisterCancelFunc(executionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cancel, ok := l.activeJobCancellations[executionID]; ok {
		cancel()
		delete(l.activeJobCancellations, executionID)
	}
}

// Stop は実行中のジョブをキャンセルします。該当する実行がない場合は false を返します。
func (l *SimpleJobLauncher) Stop(executionID string) bool {
	l.mu.Lock()
	cancel, ok := l.activeJobCancellations[executionID]
	l.mu.Unlock()
	if !ok {
		return false
	}
	logger.Infof("JobExecution (ID: %s) に停止を要求しました。", executionID)
	cancel()
	return true
}

// StopAll は実行中の全てのジョブをキャンセルし、キャンセルした件数を返します。
func (l *SimpleJobLauncher) StopAll() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, cancel := range l.activeJobCancellations {
		logger.Infof("JobExecution (ID: %s) に停止を要求しました。", id)
		cancel()
	}
	return len(l.activeJobCancellations)
}

// Launch は指定された Job を生成して実行します。
// ジョブ自体の実行エラーは JobExecution の状態に記録され、同じエラーが返されます。
func (l *SimpleJobLauncher) Launch(ctx context.Context, jobName string, params core.JobParameters) (*core.JobExecution, error) {
	logger.Infof("JobLauncher を使用して Job '%s' を起動します。", jobName)

	batchJob, err := l.jobFactory.CreateJob(jobName)
	if err != nil {
		return nil, exception.NewBatchError("job_launcher", fmt.Sprintf("Job '%s' の作成に失敗しました", jobName), err, false, false)
	}

	if v, ok := batchJob.(ParametersValidator); ok {
		if err := v.ValidateParameters(params); err != nil {
			return nil, exception.NewBatchError("job_launcher", "JobParameters のバリデーションエラー", err, false, false)
		}
	}

	jobExecution := core.NewJobExecution(jobName, params)
	jobCtx, cancel := context.WithCancel(ctx)
	l.registerCancelFunc(jobExecution.ID, cancel)
	defer l.unregisterCancelFunc(jobExecution.ID)

	logger.Infof("Job '%s' (Execution ID: %s) を実行します。", jobName, jobExecution.ID)
	runErr := batchJob.Run(jobCtx, jobExecution)
	logger.Infof("Job '%s' (Execution ID: %s) が終了しました。ステータス: %s", jobName, jobExecution.ID, jobExecution.Status)
	return jobExecution, runErr
}

var _ JobLauncher = (*SimpleJobLauncher)(nil)
