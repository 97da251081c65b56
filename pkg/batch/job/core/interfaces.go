package core

import (
	"context"

	"tradesample/pkg/batch/database"
)

// Job は実行可能なバッチジョブのインターフェースです。
type Job interface {
	Run(ctx context.Context, jobExecution *JobExecution) error
	JobName() string
}

// Step はジョブ内で実行される単一のステップのインターフェースです。
type Step interface {
	Execute(ctx context.Context, jobExecution *JobExecution, stepExecution *StepExecution) error
	StepName() string
}

// ItemReader はデータを読み込むステップのインターフェースです。
// O は読み込まれるアイテムの型です。データの終端では io.EOF を返します。
type ItemReader[O any] interface {
	Open(ctx context.Context, ec ExecutionContext) error // リソースを開き、ExecutionContextから状態を復元
	Read(ctx context.Context) (O, error)
	Close(ctx context.Context) error
	SetExecutionContext(ctx context.Context, ec ExecutionContext) error
	GetExecutionContext(ctx context.Context) (ExecutionContext, error)
}

// JobParametersAware はオープン前にジョブパラメータを受け取る Reader や Writer が実装します。
type JobParametersAware interface {
	BindJobParameters(params JobParameters) error
}

// ItemProcessor はアイテムを処理するステップのインターフェースです。
// I は入力アイテムの型、O は出力アイテムの型です。
// nil (またはゼロ値) を返したアイテムはフィルタされ、書き込まれません。
type ItemProcessor[I, O any] interface {
	Process(ctx context.Context, item I) (O, error)
}

// ItemWriter はデータを書き込むステップのインターフェースです。
// I は書き込まれるアイテムの型です。items はひとつのチャンクで、tx はそのチャンクのトランザクションです。
type ItemWriter[I any] interface {
	Open(ctx context.Context, ec ExecutionContext) error
	Write(ctx context.Context, tx database.Tx, items []I) error
	Close(ctx context.Context) error
	SetExecutionContext(ctx context.Context, ec ExecutionContext) error
	GetExecutionContext(ctx context.Context) (ExecutionContext, error)
}

// StepExecutionListener はステップ実行イベントを処理するためのインターフェースです。
type StepExecutionListener interface {
	BeforeStep(ctx context.Context, stepExecution *StepExecution)
	AfterStep(ctx context.Context, stepExecution *StepExecution)
}

// ChunkListener はチャンク処理イベントを処理するためのインターフェースです。
type ChunkListener interface {
	BeforeChunk(ctx context.Context, stepExecution *StepExecution)
	AfterChunk(ctx context.Context, stepExecution *StepExecution)
}

// ItemReadListener はアイテム読み込みエラーを処理するためのインターフェースです。
type ItemReadListener interface {
	OnReadError(ctx context.Context, err error)
}

// ItemProcessListener はアイテム処理エラーを処理するためのインターフェースです。
type ItemProcessListener interface {
	OnProcessError(ctx context.Context, item interface{}, err error)
}

// ItemWriteListener はアイテム書き込みイベントを処理するためのインターフェースです。
type ItemWriteListener interface {
	OnWriteError(ctx context.Context, items []interface{}, err error)
}

// JobExecutionListener はジョブ実行イベントを処理するためのインターフェースです。
type JobExecutionListener interface {
	BeforeJob(ctx context.Context, jobExecution *JobExecution)
	AfterJob(ctx context.Context, jobExecution *JobExecution)
}
