package file

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"tradesample/pkg/batch/util/exception"
)

// LineTokenizer は 1 行を FieldSet に分割するインターフェースです。
type LineTokenizer interface {
	Tokenize(line string) (*FieldSet, error)
}

// DelimitedLineTokenizer は区切り文字で行を分割する LineTokenizer です。
// ダブルクォートで囲まれたフィールド内の区切り文字はそのまま値として扱います。
type DelimitedLineTokenizer struct {
	// Delimiter は区切り文字です。ゼロ値の場合は ',' を使用します。
	Delimiter rune
	// Names を指定すると FieldSet の名前として使用されます。
	Names []string
	// Strict が true の場合、Names とフィールド数が一致しない行をエラーにします。
	// false の場合は不足分を空文字で補い、超過分を切り捨てます。
	Strict bool
}

// NewDelimitedLineTokenizer はカンマ区切りの DelimitedLineTokenizer を作成します。
func NewDelimitedLineTokenizer(names ...string) *DelimitedLineTokenizer {
	return &DelimitedLineTokenizer{Delimiter: ',', Names: names, Strict: len(names) > 0}
}

// Tokenize は line を分割して FieldSet を返します。
func (t *DelimitedLineTokenizer) Tokenize(line string) (*FieldSet, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = t.delimiter()
	r.FieldsPerRecord = -1
	r.LazyQuotes = false

	values, err := r.Read()
	if err == io.EOF {
		values = []string{}
	} else if err != nil {
		return nil, exception.NewBatchError("tokenizer", "行のトークン化に失敗しました", err, false, true)
	}

	if len(t.Names) == 0 {
		return NewFieldSet(values, nil)
	}
	if len(values) != len(t.Names) {
		if t.Strict {
			return nil, exception.NewBatchError("tokenizer",
				fmt.Sprintf("フィールド数が一致しません (期待値: %d, 実際: %d)", len(t.Names), len(values)), nil, false, true)
		}
		adjusted := make([]string, len(t.Names))
		copy(adjusted, values)
		values = adjusted
	}
	return NewFieldSet(values, t.Names)
}

func (t *DelimitedLineTokenizer) delimiter() rune {
	if t.Delimiter == 0 {
		return ','
	}
	return t.Delimiter
}

var _ LineTokenizer = (*DelimitedLineTokenizer)(nil)
