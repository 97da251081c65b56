package core_test

import (
	"errors"
	"testing"

	core "tradesample/pkg/batch/job/core"

	"github.com/stretchr/testify/assert"
)

func TestExecutionContext_TypedGetters(t *testing.T) {
	ec := core.NewExecutionContext()
	ec.Put("count", 3)
	ec.Put("key", int64(7))
	ec.Put("name", "trade")

	n, ok := ec.GetInt("count")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	k, ok := ec.GetInt64("key")
	assert.True(t, ok)
	assert.Equal(t, int64(7), k)

	_, ok = ec.GetInt("name")
	assert.False(t, ok)

	c := ec.Copy()
	c.Put("name", "credit")
	s, _ := ec.GetString("name")
	assert.Equal(t, "trade", s, "Copy は元の ExecutionContext を変更しない")
}

func TestJobParameters_Conversions(t *testing.T) {
	p := core.NewJobParameters()
	p.Put("credit", "10000")
	p.Put("chunk", 4)

	f, ok := p.GetFloat64("credit")
	assert.True(t, ok)
	assert.Equal(t, 10000.0, f)

	n, ok := p.GetInt("chunk")
	assert.True(t, ok)
	assert.Equal(t, 4, n)

	s, ok := p.GetString("chunk")
	assert.True(t, ok)
	assert.Equal(t, "4", s)

	_, ok = p.GetFloat64("missing")
	assert.False(t, ok)
}

func TestStepExecution_Lifecycle(t *testing.T) {
	je := core.NewJobExecution("tradeJob", core.NewJobParameters())
	se := core.NewStepExecution("tradeStep", je)

	assert.NotEmpty(t, je.ID)
	assert.Len(t, je.StepExecutions, 1)
	assert.Equal(t, core.BatchStatusStarting, se.Status)

	se.MarkAsStarted()
	assert.Equal(t, core.BatchStatusStarted, se.Status)

	cause := errors.New("boom")
	se.MarkAsFailed(cause)
	assert.Equal(t, core.ExitStatusFailed, se.ExitStatus)
	assert.True(t, se.Status.IsFinished())
	assert.Equal(t, []error{cause}, se.Failures)
}
