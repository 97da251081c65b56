package runner

import (
	"context"
	"errors"

	core "tradesample/pkg/batch/job/core"
	"tradesample/pkg/batch/util/exception"
	"tradesample/pkg/batch/util/logger"
)

// SimpleJob は登録順にステップを実行する core.Job の実装です。
// いずれかのステップが失敗した時点でジョブを失敗させ、後続のステップは実行しません。
type SimpleJob struct {
	name         string
	steps        []core.Step
	jobListeners []core.JobExecutionListener
	validator    func(params core.JobParameters) error
}

var _ core.Job = (*SimpleJob)(nil)

// NewSimpleJob は新しい SimpleJob のインスタンスを作成します。
func NewSimpleJob(name string, steps ...core.Step) *SimpleJob {
	return &SimpleJob{name: name, steps: steps}
}

// RegisterListener は JobExecutionListener を登録します。
func (j *SimpleJob) RegisterListener(l core.JobExecutionListener) *SimpleJob {
	j.jobListeners = append(j.jobListeners, l)
	return j
}

// WithValidator はジョブパラメータのバリデーション関数を設定します。
func (j *SimpleJob) WithValidator(v func(params core.JobParameters) error) *SimpleJob {
	j.validator = v
	return j
}

// JobName はジョブ名を返します。
func (j *SimpleJob) JobName() string {
	return j.name
}

// Steps は登録されているステップを返します。
func (j *SimpleJob) Steps() []core.Step {
	return append([]core.Step(nil), j.steps...)
}

// ValidateParameters はジョブパラメータのバリデーションを行います。バリデーション関数がない場合は常に nil です。
func (j *SimpleJob) ValidateParameters(params core.JobParameters) error {
	if j.validator == nil {
		return nil
	}
	return j.validator(params)
}

// Run はステップを順に実行し、jobExecution の状態を更新します。
func (j *SimpleJob) Run(ctx context.Context, jobExecution *core.JobExecution) error {
	for _, l := range j.jobListeners {
		l.BeforeJob(ctx, jobExecution)
	}
	jobExecution.MarkAsStarted()

	err := j.runSteps(ctx, jobExecution)
	if err != nil {
		jobExecution.MarkAsFailed(err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			jobExecution.Status = core.BatchStatusStopped
			jobExecution.ExitStatus = core.ExitStatusStopped
		}
	} else {
		jobExecution.MarkAsCompleted()
	}

	for _, l := range j.jobListeners {
		l.AfterJob(ctx, jobExecution)
	}
	return err
}

func (j *SimpleJob) runSteps(ctx context.Context, jobExecution *core.JobExecution) error {
	if len(j.steps) == 0 {
		return exception.NewBatchErrorf("simple_job", "ジョブ '%s' にステップが登録されていません", j.name)
	}
	for _, s := range j.steps {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		stepExecution := core.NewStepExecution(s.StepName(), jobExecution)
		logger.Debugf("ジョブ '%s': ステップ '%s' を実行します。", j.name, s.StepName())
		if err := s.Execute(ctx, jobExecution, stepExecution); err != nil {
			return err
		}
		// ステップの ExecutionContext は後続のステップから参照できるようにジョブに昇格させる
		jobExecution.ExecutionContext.Merge(stepExecution.ExecutionContext)
	}
	return nil
}
