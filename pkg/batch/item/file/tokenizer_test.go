package file_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesample/pkg/batch/item/file"
	"tradesample/pkg/batch/util/exception"
)

func TestDelimitedLineTokenizer(t *testing.T) {
	tests := []struct {
		name      string
		tokenizer *file.DelimitedLineTokenizer
		line      string
		want      []string
	}{
		{"カンマ区切り", file.NewDelimitedLineTokenizer(), "UK21341EAH45,978,98.34,customer1", []string{"UK21341EAH45", "978", "98.34", "customer1"}},
		{"クォート内の区切り文字", file.NewDelimitedLineTokenizer(), `a,"b,c",d`, []string{"a", "b,c", "d"}},
		{"空のフィールド", file.NewDelimitedLineTokenizer(), "a,,c", []string{"a", "", "c"}},
		{"パイプ区切り", &file.DelimitedLineTokenizer{Delimiter: '|'}, "a|b", []string{"a", "b"}},
		{"非 Strict は不足を補う", &file.DelimitedLineTokenizer{Names: []string{"x", "y", "z"}}, "1,2", []string{"1", "2", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, err := tt.tokenizer.Tokenize(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fs.Values())
		})
	}
}

func TestDelimitedLineTokenizer_StrictMismatchIsSkippable(t *testing.T) {
	tok := file.NewDelimitedLineTokenizer("isin", "quantity", "price", "customer")
	_, err := tok.Tokenize("UK21341EAH45,978")
	require.Error(t, err)
	assert.True(t, exception.IsSkippable(err))

	fs, err := tok.Tokenize("UK21341EAH45,978,98.34,customer1")
	require.NoError(t, err)
	customer, err := fs.ReadStringByName("customer")
	require.NoError(t, err)
	assert.Equal(t, "customer1", customer)
}

func TestDelimitedLineTokenizer_BadQuote(t *testing.T) {
	_, err := file.NewDelimitedLineTokenizer().Tokenize(`a,"b`)
	assert.Error(t, err)
}
