package joblauncher

import (
	"context"

	core "tradesample/pkg/batch/job/core"
)

// JobLauncher は Job を JobParameters とともに起動するためのインターフェースです。
type JobLauncher interface {
	// Launch は指定された Job を JobParameters とともに起動します。
	// ジョブが起動できた場合は、失敗した場合でも JobExecution を返します。
	Launch(ctx context.Context, jobName string, params core.JobParameters) (*core.JobExecution, error)
}

// ParametersValidator はジョブパラメータのバリデーションを行う Job が実装するインターフェースです。
type ParametersValidator interface {
	ValidateParameters(params core.JobParameters) error
}
