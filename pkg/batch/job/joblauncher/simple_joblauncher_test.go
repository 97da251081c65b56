package joblauncher_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesample/pkg/batch/config"
	core "tradesample/pkg/batch/job/core"
	"tradesample/pkg/batch/job/factory"
	"tradesample/pkg/batch/job/joblauncher"
	"tradesample/pkg/batch/job/runner"
)

type funcStep struct {
	fn func(ctx context.Context) error
}

func (s funcStep) StepName() string { return "funcStep" }
func (s funcStep) Execute(ctx context.Context, je *core.JobExecution, se *core.StepExecution) error {
	return s.fn(ctx)
}

func newFactory(steps map[string]core.Step) *factory.JobFactory {
	f := factory.NewJobFactory(config.NewConfig())
	for name, s := range steps {
		name, s := name, s
		f.RegisterJobBuilder(name, func(cfg *config.Config) (core.Job, error) {
			return runner.NewSimpleJob(name, s).WithValidator(func(p core.JobParameters) error {
				if _, ok := p.GetString("reject"); ok {
					return errors.New("rejected")
				}
				return nil
			}), nil
		})
	}
	return f
}

func TestSimpleJobLauncher_Launch(t *testing.T) {
	ok := funcStep{fn: func(ctx context.Context) error { return nil }}
	cause := errors.New("step failed")
	ng := funcStep{fn: func(ctx context.Context) error { return cause }}
	l := joblauncher.NewSimpleJobLauncher(newFactory(map[string]core.Step{"okJob": ok, "ngJob": ng}))

	je, err := l.Launch(context.Background(), "okJob", core.NewJobParameters())
	require.NoError(t, err)
	assert.Equal(t, core.BatchStatusCompleted, je.Status)

	je, err = l.Launch(context.Background(), "ngJob", core.NewJobParameters())
	assert.ErrorIs(t, err, cause)
	require.NotNil(t, je)
	assert.Equal(t, core.BatchStatusFailed, je.Status)
}

func TestSimpleJobLauncher_LaunchErrors(t *testing.T) {
	ok := funcStep{fn: func(ctx context.Context) error { return nil }}
	l := joblauncher.NewSimpleJobLauncher(newFactory(map[string]core.Step{"okJob": ok}))

	je, err := l.Launch(context.Background(), "unknownJob", core.NewJobParameters())
	assert.Nil(t, je)
	assert.ErrorContains(t, err, "unknownJob")

	params := core.NewJobParameters()
	params.Put("reject", "yes")
	je, err = l.Launch(context.Background(), "okJob", params)
	assert.Nil(t, je)
	assert.ErrorContains(t, err, "rejected")
}

func TestSimpleJobLauncher_Stop(t *testing.T) {
	started := make(chan struct{})
	blocking := funcStep{fn: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}}
	l := joblauncher.NewSimpleJobLauncher(newFactory(map[string]core.Step{"longJob": blocking}))

	type result struct {
		je  *core.JobExecution
		err error
	}
	done := make(chan result, 1)
	go func() {
		je, err := l.Launch(context.Background(), "longJob", core.NewJobParameters())
		done <- result{je, err}
	}()

	<-started
	assert.False(t, l.Stop("no-such-execution"))
	assert.Equal(t, 1, l.StopAll())

	r := <-done
	assert.ErrorIs(t, r.err, context.Canceled)
	assert.Equal(t, core.BatchStatusStopped, r.je.Status)
}
