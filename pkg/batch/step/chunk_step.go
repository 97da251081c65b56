package step

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"reflect"

	"tradesample/pkg/batch/database"
	core "tradesample/pkg/batch/job/core"
	"tradesample/pkg/batch/util/exception"
	"tradesample/pkg/batch/util/logger"
)

// TransactionManager はチャンクごとのトランザクションを開始するインターフェースです。
// database.DBConnection はこれを満たします。
type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (database.Tx, error)
}

// ChunkStep はチャンク指向のステップを実装します。
// Reader, Processor, Writer を使用してアイテムを処理します。
//
// チャンクは次の順で処理されます。
//  1. chunkSize 件 (または終端まで) を読み込み、各アイテムを Processor に渡す
//  2. トランザクションを開始し、フィルタされなかったアイテムをまとめて Writer に渡す
//  3. コミットし、Reader と Writer の ExecutionContext を控える。エラーの場合はロールバックしてステップを失敗させる
//
// ステップの ExecutionContext には最後にコミットしたチャンクの時点の状態が保存されます。
//
// 読み込みはトランザクションの外で行うため、接続数が 1 のプールでもリーダーとライターが互いを待つことはありません。
type ChunkStep[I, O any] struct {
	name      string
	txManager TransactionManager
	reader    core.ItemReader[I]
	processor core.ItemProcessor[I, O]
	writer    core.ItemWriter[O]
	chunkSize int

	// リスナー
	stepListeners        []core.StepExecutionListener
	chunkListeners       []core.ChunkListener
	itemReadListeners    []core.ItemReadListener
	itemProcessListeners []core.ItemProcessListener
	itemWriteListeners   []core.ItemWriteListener
}

// NewChunkStep は新しい ChunkStep のインスタンスを作成します。
func NewChunkStep[I, O any](
	name string,
	txManager TransactionManager,
	r core.ItemReader[I],
	p core.ItemProcessor[I, O],
	w core.ItemWriter[O],
	chunkSize int,
) *ChunkStep[I, O] {
	if chunkSize < 1 {
		chunkSize = 1
	}
	return &ChunkStep[I, O]{
		name:      name,
		txManager: txManager,
		reader:    r,
		processor: p,
		writer:    w,
		chunkSize: chunkSize,
	}
}

// RegisterStepListener はステップリスナーを登録します。
func (cs *ChunkStep[I, O]) RegisterStepListener(l core.StepExecutionListener) *ChunkStep[I, O] {
	cs.stepListeners = append(cs.stepListeners, l)
	return cs
}

// RegisterChunkListener はチャンクリスナーを登録します。
func (cs *ChunkStep[I, O]) RegisterChunkListener(l core.ChunkListener) *ChunkStep[I, O] {
	cs.chunkListeners = append(cs.chunkListeners, l)
	return cs
}

// RegisterItemReadListener はアイテム読み込みリスナーを登録します。
func (cs *ChunkStep[I, O]) RegisterItemReadListener(l core.ItemReadListener) *ChunkStep[I, O] {
	cs.itemReadListeners = append(cs.itemReadListeners, l)
	return cs
}

// RegisterItemProcessListener はアイテム処理リスナーを登録します。
func (cs *ChunkStep[I, O]) RegisterItemProcessListener(l core.ItemProcessListener) *ChunkStep[I, O] {
	cs.itemProcessListeners = append(cs.itemProcessListeners, l)
	return cs
}

// RegisterItemWriteListener はアイテム書き込みリスナーを登録します。
func (cs *ChunkStep[I, O]) RegisterItemWriteListener(l core.ItemWriteListener) *ChunkStep[I, O] {
	cs.itemWriteListeners = append(cs.itemWriteListeners, l)
	return cs
}

// StepName はステップの名前を返します。
func (cs *ChunkStep[I, O]) StepName() string {
	return cs.name
}

// Execute はチャンクステップを実行します。最初のエラーでステップを失敗させ、そのエラーを返します。
func (cs *ChunkStep[I, O]) Execute(ctx context.Context, jobExecution *core.JobExecution, stepExecution *core.StepExecution) (err error) {
	if stepExecution.ExecutionContext == nil {
		stepExecution.ExecutionContext = core.NewExecutionContext()
	}

	for _, l := range cs.stepListeners {
		l.BeforeStep(ctx, stepExecution)
	}
	stepExecution.MarkAsStarted()

	defer func() {
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				stepExecution.MarkAsStopped(err)
			} else {
				stepExecution.MarkAsFailed(err)
			}
		} else {
			stepExecution.MarkAsCompleted()
		}
		for _, l := range cs.stepListeners {
			l.AfterStep(ctx, stepExecution)
		}
	}()

	if jobExecution != nil {
		if err := bindJobParameters(cs.reader, jobExecution.Parameters); err != nil {
			return exception.NewBatchError("chunk_step", "Reader にジョブパラメータを設定できませんでした", err, false, false)
		}
		if err := bindJobParameters(cs.writer, jobExecution.Parameters); err != nil {
			return exception.NewBatchError("chunk_step", "Writer にジョブパラメータを設定できませんでした", err, false, false)
		}
	}

	if err := cs.reader.Open(ctx, stepExecution.ExecutionContext.Copy()); err != nil {
		return exception.NewBatchError("chunk_step", "Reader のオープンに失敗しました", err, false, false)
	}
	defer cs.closeResource(ctx, "Reader", cs.reader.Close)

	if err := cs.writer.Open(ctx, stepExecution.ExecutionContext.Copy()); err != nil {
		return exception.NewBatchError("chunk_step", "Writer のオープンに失敗しました", err, false, false)
	}
	defer cs.closeResource(ctx, "Writer", cs.writer.Close)

	// ステップの ExecutionContext にはコミット済みの時点の状態だけを保存する。
	// 失敗したチャンクで読み進めた分は含めないため、再オープン時にそのチャンクから読み直せる。
	committed := cs.snapshotExecutionContext(ctx, stepExecution.ExecutionContext)
	defer func() {
		stepExecution.ExecutionContext.Merge(committed)
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Warnf("ステップ '%s' がコンテキストキャンセルにより停止されました: %v", cs.name, ctx.Err())
			return ctx.Err()
		default:
		}

		done, err := cs.processChunk(ctx, stepExecution)
		if err != nil {
			// ロールバックしたチャンクで Writer が積み上げた状態を戻す
			if rerr := cs.writer.SetExecutionContext(ctx, committed.Copy()); rerr != nil {
				logger.Warnf("ステップ '%s': Writer の ExecutionContext を復元できませんでした: %v", cs.name, rerr)
			}
			return err
		}
		committed = cs.snapshotExecutionContext(ctx, committed)
		if done {
			return nil
		}
	}
}

// processChunk は 1 チャンク分を読み込み、書き込み、コミットします。終端に達した場合は true を返します。
func (cs *ChunkStep[I, O]) processChunk(ctx context.Context, stepExecution *core.StepExecution) (bool, error) {
	for _, l := range cs.chunkListeners {
		l.BeforeChunk(ctx, stepExecution)
	}

	items := make([]O, 0, cs.chunkSize)
	read := 0
	eof := false
	for read < cs.chunkSize {
		item, err := cs.reader.Read(ctx)
		if errors.Is(err, io.EOF) {
			eof = true
			break
		}
		if err != nil {
			for _, l := range cs.itemReadListeners {
				l.OnReadError(ctx, err)
			}
			return false, err
		}
		read++
		stepExecution.ReadCount++

		out, err := cs.processor.Process(ctx, item)
		if err != nil {
			for _, l := range cs.itemProcessListeners {
				l.OnProcessError(ctx, item, err)
			}
			return false, err
		}
		if isFiltered(out) {
			stepExecution.FilterCount++
			continue
		}
		items = append(items, out)
	}

	if read == 0 {
		return true, nil
	}

	if err := cs.writeChunk(ctx, stepExecution, items); err != nil {
		return false, err
	}

	for _, l := range cs.chunkListeners {
		l.AfterChunk(ctx, stepExecution)
	}
	return eof, nil
}

// writeChunk はトランザクション内で items を書き込みます。
func (cs *ChunkStep[I, O]) writeChunk(ctx context.Context, stepExecution *core.StepExecution, items []O) error {
	tx, err := cs.txManager.BeginTx(ctx, nil)
	if err != nil {
		return exception.NewBatchError("chunk_step", "トランザクションの開始に失敗しました", err, true, false)
	}

	if err := cs.writer.Write(ctx, tx, items); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Errorf("ステップ '%s' のロールバックに失敗しました: %v", cs.name, rbErr)
		}
		stepExecution.RollbackCount++
		anyItems := make([]interface{}, len(items))
		for i, it := range items {
			anyItems[i] = it
		}
		for _, l := range cs.itemWriteListeners {
			l.OnWriteError(ctx, anyItems, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		stepExecution.RollbackCount++
		return exception.NewBatchError("chunk_step", fmt.Sprintf("ステップ '%s' のコミットに失敗しました", cs.name), err, true, false)
	}
	stepExecution.CommitCount++
	stepExecution.WriteCount += len(items)
	return nil
}

// snapshotExecutionContext は Reader と Writer の現在の ExecutionContext をコピーして返します。
// 取得に失敗した場合はその部分について prev の値を引き継ぎます。
func (cs *ChunkStep[I, O]) snapshotExecutionContext(ctx context.Context, prev core.ExecutionContext) core.ExecutionContext {
	snap := prev.Copy()
	if ec, err := cs.reader.GetExecutionContext(ctx); err == nil {
		snap.Merge(ec)
	} else {
		logger.Errorf("Reader の ExecutionContext 取得に失敗しました: %v", err)
	}
	if ec, err := cs.writer.GetExecutionContext(ctx); err == nil {
		snap.Merge(ec)
	} else {
		logger.Errorf("Writer の ExecutionContext 取得に失敗しました: %v", err)
	}
	return snap
}

func (cs *ChunkStep[I, O]) closeResource(ctx context.Context, label string, closeFn func(context.Context) error) {
	if err := closeFn(ctx); err != nil {
		logger.Warnf("ステップ '%s' の %s のクローズに失敗しました: %v", cs.name, label, err)
	}
}

// isFiltered は Processor の出力がフィルタ (nil またはゼロ値) かどうかを判定します。
func isFiltered[O any](out O) bool {
	v := reflect.ValueOf(any(out))
	return !v.IsValid() || v.IsZero()
}

var _ core.Step = (*ChunkStep[any, any])(nil)

func bindJobParameters(component interface{}, params core.JobParameters) error {
	if aware, ok := component.(core.JobParametersAware); ok {
		return aware.BindJobParameters(params)
	}
	return nil
}
