// Package job は取引サンプルのジョブを組み立てます。
package job

import (
	"tradesample/example/trade/domain/entity"
	"tradesample/example/trade/repository"
	"tradesample/example/trade/step/mapper"
	"tradesample/example/trade/step/writer"
	"tradesample/pkg/batch/config"
	"tradesample/pkg/batch/database"
	"tradesample/pkg/batch/database/incrementer"
	"tradesample/pkg/batch/item/file"
	core "tradesample/pkg/batch/job/core"
	joblistener "tradesample/pkg/batch/job/listener"
	"tradesample/pkg/batch/job/runner"
	"tradesample/pkg/batch/step"
	steplistener "tradesample/pkg/batch/step/listener"
	"tradesample/pkg/batch/step/processor"
	"tradesample/pkg/batch/util/exception"
)

const (
	TradeJobName  = "tradeJob"
	TradeStepName = "tradeLoadStep"

	// InputFileParam は入力ファイルのパスを渡すジョブパラメータのキーです。
	InputFileParam = "input.file"
)

// NewTradeJob は入力ファイルの取引を TRADE テーブルに取り込むジョブを作成します。
// 読み込むファイルはジョブパラメータ input.file で指定します。cfg.Batch.InputFile は既定値としてのみ保持されます。
//
//	FlatFileItemReader(TradeFieldSetMapper) -> PassThroughItemProcessor -> TradeWriter(JdbcTradeDao)
func NewTradeJob(cfg *config.Config, conn database.DBConnection, inc incrementer.DataFieldMaxValueIncrementer) (core.Job, error) {
	if conn == nil || inc == nil {
		return nil, exception.NewBatchErrorf("trade_job", "データベース接続とインクリメンタは必須です")
	}

	reader := file.NewFlatFileItemReader[*entity.Trade]("tradeFileReader", cfg.Batch.InputFile, mapper.NewTradeFieldSetMapper())
	reader.PathParameter = InputFileParam
	reader.LinesToSkip = cfg.Batch.LinesToSkip

	tradeWriter := writer.NewTradeWriter(repository.NewJdbcTradeDao(inc, conn.Dialect()))

	tradeStep := step.NewChunkStep[*entity.Trade, *entity.Trade](
		TradeStepName,
		conn,
		reader,
		processor.NewPassThroughItemProcessor[*entity.Trade](),
		tradeWriter,
		cfg.Batch.ChunkSize,
	)
	registerStepListeners(tradeStep)

	return runner.NewSimpleJob(TradeJobName, tradeStep).
		RegisterListener(joblistener.NewLoggingJobListener()).
		WithValidator(validateTradeParameters), nil
}

func validateTradeParameters(params core.JobParameters) error {
	path, ok := params.GetString(InputFileParam)
	if !ok || path == "" {
		return exception.NewBatchErrorf("trade_job", "ジョブパラメータ '%s' が指定されていません", InputFileParam)
	}
	return nil
}

// registerStepListeners はステップにロギングリスナーを登録します。
func registerStepListeners[I, O any](s *step.ChunkStep[I, O]) {
	s.RegisterStepListener(steplistener.NewLoggingStepExecutionListener()).
		RegisterChunkListener(steplistener.NewLoggingChunkListener()).
		RegisterItemReadListener(steplistener.NewLoggingItemReadListener()).
		RegisterItemProcessListener(steplistener.NewLoggingItemProcessListener()).
		RegisterItemWriteListener(steplistener.NewLoggingItemWriteListener())
}
