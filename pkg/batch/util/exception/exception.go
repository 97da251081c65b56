package exception

import (
	"errors"
	"fmt"
	"runtime"
)

// BatchError はバッチ処理中に発生するカスタムエラー型です。
// エラーの発生元モジュール、メッセージ、ラップされた元のエラー、
// そしてリトライ可能か、スキップ可能かのフラグを保持します。
type BatchError struct {
	Module      string // エラーが発生したモジュール (例: "reader", "trade_dao", "config")
	Message     string // エラーの簡潔な説明
	OriginalErr error  // ラップされた元のエラー
	isRetryable bool
	isSkippable bool
	StackTrace  string // スタックトレース (デバッグ用)
}

// NewBatchError は新しい BatchError のインスタンスを作成します。
func NewBatchError(module, message string, originalErr error, isRetryable, isSkippable bool) *BatchError {
	return &BatchError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		isSkippable: isSkippable,
		StackTrace:  captureStack(),
	}
}

// NewBatchErrorf はフォーマット文字列から BatchError を作成します。
// 引数に error が含まれる場合、最後の error を OriginalErr として扱います。書式は fmt.Errorf と同じく %w を使用できます。
// フラグはどちらも false になります。必要な場合は NewBatchError を使用してください。
func NewBatchErrorf(module, format string, a ...interface{}) *BatchError {
	var originalErr error
	for i := len(a) - 1; i >= 0; i-- {
		if err, ok := a[i].(error); ok {
			originalErr = err
			break
		}
	}
	return &BatchError{
		Module:      module,
		Message:     fmt.Errorf(format, a...).Error(),
		OriginalErr: originalErr,
		StackTrace:  captureStack(),
	}
}

func captureStack() string {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// Error は error インターフェースの実装です。
func (e *BatchError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap は errors.Unwrap のために元のエラーを返します。
func (e *BatchError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable はこのエラーがリトライ可能かどうかを返します。
func (e *BatchError) IsRetryable() bool {
	return e.isRetryable
}

// IsSkippable はこのエラーがスキップ可能かどうかを返します。
func (e *BatchError) IsSkippable() bool {
	return e.isSkippable
}

// IsRetryable はエラーチェーン内の BatchError がリトライ可能かどうかを判定します。
func IsRetryable(err error) bool {
	var be *BatchError
	if errors.As(err, &be) {
		return be.IsRetryable()
	}
	return false
}

// IsSkippable はエラーチェーン内の BatchError がスキップ可能かどうかを判定します。
func IsSkippable(err error) bool {
	var be *BatchError
	if errors.As(err, &be) {
		return be.IsSkippable()
	}
	return false
}
