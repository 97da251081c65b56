package exception_test

import (
	"errors"
	"fmt"
	"testing"

	"tradesample/pkg/batch/util/exception"

	"github.com/stretchr/testify/assert"
)

func TestBatchError_WrapsOriginal(t *testing.T) {
	cause := errors.New("connection reset")
	err := exception.NewBatchError("trade_dao", "TRADE への挿入に失敗しました", cause, true, false)

	assert.Equal(t, "[trade_dao] TRADE への挿入に失敗しました: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, err.IsRetryable())
	assert.False(t, err.IsSkippable())
	assert.NotEmpty(t, err.StackTrace)
}

func TestNewBatchErrorf(t *testing.T) {
	cause := errors.New("bad token")
	err := exception.NewBatchErrorf("reader", "%d 行目の解析に失敗しました: %v", 3, cause)

	assert.Equal(t, "[reader] 3 行目の解析に失敗しました: bad token: bad token", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.False(t, err.IsRetryable())

	withW := exception.NewBatchErrorf("fieldset", "変換できません: %w", cause)
	assert.Equal(t, "[fieldset] 変換できません: bad token: bad token", withW.Error())
	assert.ErrorIs(t, withW, cause)

	noCause := exception.NewBatchErrorf("config", "未対応のタイプ: %s", "oracle")
	assert.Equal(t, "[config] 未対応のタイプ: oracle", noCause.Error())
	assert.Nil(t, noCause.Unwrap())
}

func TestIsRetryableAndSkippable_ThroughWrapping(t *testing.T) {
	be := exception.NewBatchError("flat_file_reader", "解析に失敗しました", nil, false, true)
	wrapped := fmt.Errorf("step failed: %w", be)

	assert.True(t, exception.IsSkippable(wrapped))
	assert.False(t, exception.IsRetryable(wrapped))
	assert.False(t, exception.IsSkippable(errors.New("plain")))
}
