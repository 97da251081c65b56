package factory

import (
	"sort"
	"sync"

	"tradesample/pkg/batch/config"
	core "tradesample/pkg/batch/job/core"
	"tradesample/pkg/batch/util/exception"
	"tradesample/pkg/batch/util/logger"
)

// JobBuilder は、特定の Job を生成するための関数型です。
// 設定を受け取り、生成された core.Job インターフェースとエラーを返します。
type JobBuilder func(cfg *config.Config) (core.Job, error)

// JobFactory はジョブ名から Job オブジェクトを生成するためのファクトリです。
type JobFactory struct {
	mu          sync.RWMutex
	config      *config.Config
	jobBuilders map[string]JobBuilder
}

// NewJobFactory は新しい JobFactory のインスタンスを作成します。
func NewJobFactory(cfg *config.Config) *JobFactory {
	return &JobFactory{
		config:      cfg,
		jobBuilders: make(map[string]JobBuilder),
	}
}

// RegisterJobBuilder は指定されたジョブ名で JobBuilder を登録します。
func (f *JobFactory) RegisterJobBuilder(name string, builder JobBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.jobBuilders[name]; exists {
		logger.Warnf("JobBuilder '%s' は既に登録されています。上書きします。", name)
	}
	f.jobBuilders[name] = builder
	logger.Debugf("JobBuilder '%s' を登録しました。", name)
}

// CreateJob は登録された JobBuilder を使用して Job を生成します。
func (f *JobFactory) CreateJob(name string) (core.Job, error) {
	f.mu.RLock()
	builder, ok := f.jobBuilders[name]
	f.mu.RUnlock()
	if !ok {
		return nil, exception.NewBatchErrorf("job_factory", "ジョブ '%s' は登録されていません (登録済み: %v)", name, f.JobNames())
	}
	job, err := builder(f.config)
	if err != nil {
		return nil, exception.NewBatchError("job_factory", "ジョブ '"+name+"' の生成に失敗しました", err, false, false)
	}
	return job, nil
}

// JobNames は登録されているジョブ名をソートして返します。
func (f *JobFactory) JobNames() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.jobBuilders))
	for name := range f.jobBuilders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
