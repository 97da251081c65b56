package file

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	core "tradesample/pkg/batch/job/core"
	"tradesample/pkg/batch/util/exception"
	"tradesample/pkg/batch/util/logger"
)

// ExecutionContext に保存する読み込み件数のキーの接尾辞
const readCountSuffix = ".read.count"

// FlatFileItemReader はフラットファイルを 1 行ずつ読み込み、FieldSetMapper で T に変換する ItemReader です。
// 読み込み件数を ExecutionContext に保存し、再オープン時には読み込み済みの件数だけ読み飛ばします。
type FlatFileItemReader[T any] struct {
	// Name は ExecutionContext のキーの接頭辞です。
	Name string
	// Path は読み込むファイルのパスです。Source が指定されている場合は使用しません。
	Path string
	// PathParameter が空でなければ、オープン前にこのキーのジョブパラメータで Path を置き換えます。
	PathParameter string
	// Source はファイルの代わりに読み込む io.Reader です。
	Source io.Reader
	// LinesToSkip はファイル先頭で読み飛ばす行数です (ヘッダ行など)。
	LinesToSkip int
	// Comments はコメント行とみなす接頭辞です。nil の場合は "#" を使用します。
	Comments []string
	Tokenizer LineTokenizer
	Mapper    FieldSetMapper[T]

	file      *os.File
	scanner   *bufio.Scanner
	lineNo    int
	readCount int
	ec        core.ExecutionContext
}

// NewFlatFileItemReader はカンマ区切りのファイルを読み込む FlatFileItemReader を作成します。
func NewFlatFileItemReader[T any](name, path string, mapper FieldSetMapper[T]) *FlatFileItemReader[T] {
	return &FlatFileItemReader[T]{
		Name:      name,
		Path:      path,
		Tokenizer: NewDelimitedLineTokenizer(),
		Mapper:    mapper,
		ec:        core.NewExecutionContext(),
	}
}

// BindJobParameters は PathParameter のジョブパラメータから読み込むファイルを決めます。
func (r *FlatFileItemReader[T]) BindJobParameters(params core.JobParameters) error {
	if r.PathParameter == "" {
		return nil
	}
	path, ok := params.GetString(r.PathParameter)
	if !ok || path == "" {
		return exception.NewBatchErrorf("flat_file_reader", "ジョブパラメータ '%s' が指定されていません", r.PathParameter)
	}
	r.Path = path
	return nil
}

func (r *FlatFileItemReader[T]) readCountKey() string {
	name := r.Name
	if name == "" {
		name = "FlatFileItemReader"
	}
	return name + readCountSuffix
}

// Open はファイルを開き、ExecutionContext に保存された件数分を読み飛ばします。
func (r *FlatFileItemReader[T]) Open(ctx context.Context, ec core.ExecutionContext) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if r.Mapper == nil {
		return exception.NewBatchErrorf("flat_file_reader", "FieldSetMapper が設定されていません")
	}
	if r.Tokenizer == nil {
		r.Tokenizer = NewDelimitedLineTokenizer()
	}

	src := r.Source
	if src == nil {
		f, err := os.Open(r.Path)
		if err != nil {
			return exception.NewBatchError("flat_file_reader", fmt.Sprintf("ファイル '%s' を開けませんでした", r.Path), err, false, false)
		}
		r.file = f
		src = f
	}
	r.scanner = bufio.NewScanner(src)
	r.scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	r.lineNo = 0
	r.readCount = 0

	for i := 0; i < r.LinesToSkip; i++ {
		if !r.scanner.Scan() {
			break
		}
		r.lineNo++
	}

	if err := r.SetExecutionContext(ctx, ec); err != nil {
		return err
	}
	restored := r.readCount
	r.readCount = 0
	for r.readCount < restored {
		if _, ok, err := r.nextLine(); err != nil {
			return err
		} else if !ok {
			break
		}
		r.readCount++
	}
	if restored > 0 {
		logger.Infof("FlatFileItemReader '%s': 読み込み済みの %d 件をスキップしました。", r.readCountKey(), r.readCount)
	}
	logger.Debugf("FlatFileItemReader を開きました。path: %s", r.Path)
	return nil
}

// nextLine は空行とコメント行を除いた次の行を返します。
func (r *FlatFileItemReader[T]) nextLine() (string, bool, error) {
	for r.scanner.Scan() {
		r.lineNo++
		line := strings.TrimSuffix(r.scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || r.isComment(line) {
			continue
		}
		return line, true, nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", false, exception.NewBatchError("flat_file_reader", fmt.Sprintf("%d 行目付近の読み込みに失敗しました", r.lineNo+1), err, true, false)
	}
	return "", false, nil
}

func (r *FlatFileItemReader[T]) isComment(line string) bool {
	prefixes := r.Comments
	if prefixes == nil {
		prefixes = []string{"#"}
	}
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// Read は次のアイテムを返します。ファイルの終端では io.EOF を返します。
// 解析に失敗した行のエラーは行番号を含み、スキップ可能としてマークされます。
func (r *FlatFileItemReader[T]) Read(ctx context.Context) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	default:
	}
	if r.scanner == nil {
		return zero, exception.NewBatchErrorf("flat_file_reader", "リーダーが開かれていません")
	}

	line, ok, err := r.nextLine()
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, io.EOF
	}
	r.readCount++

	fs, err := r.Tokenizer.Tokenize(line)
	if err != nil {
		return zero, exception.NewBatchError("flat_file_reader", fmt.Sprintf("%d 行目の解析に失敗しました: %q", r.lineNo, line), err, false, true)
	}
	item, err := r.Mapper.MapFieldSet(fs)
	if err != nil {
		return zero, exception.NewBatchError("flat_file_reader", fmt.Sprintf("%d 行目のマッピングに失敗しました: %q", r.lineNo, line), err, false, true)
	}
	return item, nil
}

// Close は Path から開いたファイルを閉じます。Source は呼び出し側が管理します。
func (r *FlatFileItemReader[T]) Close(ctx context.Context) error {
	r.scanner = nil
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	if err != nil {
		return exception.NewBatchError("flat_file_reader", "ファイルのクローズに失敗しました", err, false, false)
	}
	return nil
}

// SetExecutionContext は ExecutionContext から読み込み件数を復元します。
func (r *FlatFileItemReader[T]) SetExecutionContext(ctx context.Context, ec core.ExecutionContext) error {
	if ec == nil {
		ec = core.NewExecutionContext()
	}
	r.ec = ec
	if n, ok := ec.GetInt(r.readCountKey()); ok {
		r.readCount = n
	}
	return nil
}

// GetExecutionContext は現在の読み込み件数を保存した ExecutionContext を返します。
func (r *FlatFileItemReader[T]) GetExecutionContext(ctx context.Context) (core.ExecutionContext, error) {
	if r.ec == nil {
		r.ec = core.NewExecutionContext()
	}
	r.ec.Put(r.readCountKey(), r.readCount)
	return r.ec, nil
}

// ReadCount はこれまでに読み込んだアイテム数を返します。
func (r *FlatFileItemReader[T]) ReadCount() int {
	return r.readCount
}

var _ core.ItemReader[any] = (*FlatFileItemReader[any])(nil)
var _ core.JobParametersAware = (*FlatFileItemReader[any])(nil)
