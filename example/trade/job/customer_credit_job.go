package job

import (
	"github.com/shopspring/decimal"

	"tradesample/example/trade/domain/entity"
	"tradesample/example/trade/repository"
	"tradesample/example/trade/step/processor"
	"tradesample/example/trade/step/reader"
	"tradesample/example/trade/step/writer"
	"tradesample/pkg/batch/config"
	"tradesample/pkg/batch/database"
	core "tradesample/pkg/batch/job/core"
	joblistener "tradesample/pkg/batch/job/listener"
	"tradesample/pkg/batch/job/runner"
	"tradesample/pkg/batch/step"
	"tradesample/pkg/batch/util/exception"
)

const (
	CustomerCreditJobName  = "customerCreditJob"
	CustomerCreditStepName = "customerCreditIncreaseStep"
)

// NewCustomerCreditJob は顧客のクレジットを加算し、閾値を超えたものだけを更新するジョブを作成します。
//
//	CustomerCreditReader -> CustomerCreditIncreaseProcessor -> CustomerCreditUpdateWriter(JdbcCustomerCreditDao)
func NewCustomerCreditJob(cfg *config.Config, conn database.DBConnection) (core.Job, error) {
	if conn == nil {
		return nil, exception.NewBatchErrorf("customer_credit_job", "データベース接続は必須です")
	}
	threshold, err := decimal.NewFromString(cfg.Batch.CreditThreshold)
	if err != nil {
		return nil, exception.NewBatchErrorf("customer_credit_job", "credit_threshold '%s' が不正です: %w", cfg.Batch.CreditThreshold, err)
	}
	increase, err := decimal.NewFromString(cfg.Batch.CreditIncrease)
	if err != nil {
		return nil, exception.NewBatchErrorf("customer_credit_job", "credit_increase '%s' が不正です: %w", cfg.Batch.CreditIncrease, err)
	}

	creditWriter := writer.NewCustomerCreditUpdateWriter(repository.NewJdbcCustomerCreditDao(conn.Dialect()))
	creditWriter.SetCreditFilter(cfg.Batch.CreditFilter)

	creditStep := step.NewChunkStep[*entity.CustomerCredit, *entity.CustomerCredit](
		CustomerCreditStepName,
		conn,
		reader.NewCustomerCreditReader(conn, threshold, cfg.Batch.PageSize),
		processor.NewCustomerCreditIncreaseProcessor(increase),
		creditWriter,
		cfg.Batch.ChunkSize,
	)
	registerStepListeners(creditStep)

	return runner.NewSimpleJob(CustomerCreditJobName, creditStep).
		RegisterListener(joblistener.NewLoggingJobListener()), nil
}
