// Package database はデータベースからアイテムを読み込む ItemReader を提供します。
package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	db "tradesample/pkg/batch/database"
	core "tradesample/pkg/batch/job/core"
	"tradesample/pkg/batch/util/exception"
	"tradesample/pkg/batch/util/logger"
)

// RowMapper は結果セットの現在行を T に変換するインターフェースです。
type RowMapper[T any] interface {
	MapRow(rows *sql.Rows) (T, error)
}

// RowMapperFunc は関数を RowMapper として扱うためのアダプタです。
type RowMapperFunc[T any] func(rows *sql.Rows) (T, error)

// MapRow は f(rows) を呼び出します。
func (f RowMapperFunc[T]) MapRow(rows *sql.Rows) (T, error) {
	return f(rows)
}

// JdbcPagingItemReader はソートキーによるキーセットページングでテーブルを読み込む ItemReader です。
//
//	SELECT <SelectClause> FROM <FromClause> WHERE <WhereClause> AND <SortKey> > ? ORDER BY <SortKey> LIMIT <PageSize>
//
// 最初のページではキーの条件を付けません。ページ単位でまとめて取得し、結果セットはすぐに閉じるため、
// 接続数が 1 のプールでも読み込みと書き込みを交互に行えます。
// 最後に返したアイテムのキーを ExecutionContext に保存し、再オープン時にはその続きから読み込みます。
type JdbcPagingItemReader[T any] struct {
	Name         string
	SelectClause string
	FromClause   string
	// WhereClause は '?' プレースホルダを含むことができます。値は Params で渡します。
	WhereClause string
	Params      []any
	SortKey     string
	PageSize    int
	RowMapper   RowMapper[T]
	// KeyExtractor はアイテムからソートキーの値を取り出します。
	KeyExtractor func(item T) any

	conn db.DBConnection

	page      []T
	pos       int
	exhausted bool
	lastKey   any
	hasKey    bool
	readCount int
	pageCount int
	ec        core.ExecutionContext
}

// NewJdbcPagingItemReader は新しい JdbcPagingItemReader を作成します。
func NewJdbcPagingItemReader[T any](name string, conn db.DBConnection, mapper RowMapper[T], keyExtractor func(T) any) *JdbcPagingItemReader[T] {
	return &JdbcPagingItemReader[T]{
		Name:         name,
		conn:         conn,
		RowMapper:    mapper,
		KeyExtractor: keyExtractor,
		PageSize:     10,
		ec:           core.NewExecutionContext(),
	}
}

func (r *JdbcPagingItemReader[T]) key(suffix string) string {
	name := r.Name
	if name == "" {
		name = "JdbcPagingItemReader"
	}
	return name + "." + suffix
}

// Open は設定を検証し、ExecutionContext から読み込み位置を復元します。
func (r *JdbcPagingItemReader[T]) Open(ctx context.Context, ec core.ExecutionContext) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	switch {
	case r.conn == nil:
		return exception.NewBatchErrorf("paging_reader", "データベース接続が設定されていません")
	case r.SelectClause == "" || r.FromClause == "" || r.SortKey == "":
		return exception.NewBatchErrorf("paging_reader", "SelectClause, FromClause, SortKey は必須です")
	case r.RowMapper == nil || r.KeyExtractor == nil:
		return exception.NewBatchErrorf("paging_reader", "RowMapper と KeyExtractor は必須です")
	case r.PageSize < 1:
		return exception.NewBatchErrorf("paging_reader", "PageSize は 1 以上である必要があります: %d", r.PageSize)
	}

	r.page = nil
	r.pos = 0
	r.exhausted = false
	r.lastKey = nil
	r.hasKey = false
	r.readCount = 0
	r.pageCount = 0
	return r.SetExecutionContext(ctx, ec)
}

// buildQuery はページ取得用の SQL を '?' プレースホルダで組み立てます。
func (r *JdbcPagingItemReader[T]) buildQuery(withKey bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", r.SelectClause, r.FromClause)

	var conds []string
	if r.WhereClause != "" {
		conds = append(conds, "("+r.WhereClause+")")
	}
	if withKey {
		conds = append(conds, r.SortKey+" > ?")
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	fmt.Fprintf(&sb, " ORDER BY %s ASC LIMIT %d", r.SortKey, r.PageSize)
	return sb.String()
}

// Query は次のページを取得する SQL を Dialect の形式で返します。
func (r *JdbcPagingItemReader[T]) Query() string {
	return r.conn.Dialect().Rebind(r.buildQuery(r.hasKey))
}

func (r *JdbcPagingItemReader[T]) fetchPage(ctx context.Context) error {
	args := append([]any(nil), r.Params...)
	if r.hasKey {
		args = append(args, r.lastKey)
	}
	query := r.Query()
	logger.Debugf("JdbcPagingItemReader '%s': ページ %d を取得します。SQL: %s", r.Name, r.pageCount, query)

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return exception.NewBatchError("paging_reader", fmt.Sprintf("ページ %d の取得に失敗しました", r.pageCount), err, true, false)
	}
	defer rows.Close()

	page := make([]T, 0, r.PageSize)
	for rows.Next() {
		item, err := r.RowMapper.MapRow(rows)
		if err != nil {
			return exception.NewBatchError("paging_reader", "行のマッピングに失敗しました", err, false, false)
		}
		page = append(page, item)
	}
	if err := rows.Err(); err != nil {
		return exception.NewBatchError("paging_reader", "結果セットの読み込みに失敗しました", err, true, false)
	}

	r.page = page
	r.pos = 0
	r.pageCount++
	if len(page) < r.PageSize {
		r.exhausted = true
	}
	return nil
}

// Read は次のアイテムを返します。全ての行を読み終えると io.EOF を返します。
func (r *JdbcPagingItemReader[T]) Read(ctx context.Context) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	default:
	}

	if r.pos >= len(r.page) {
		if r.exhausted {
			return zero, io.EOF
		}
		if err := r.fetchPage(ctx); err != nil {
			return zero, err
		}
		if len(r.page) == 0 {
			return zero, io.EOF
		}
	}

	item := r.page[r.pos]
	r.pos++
	r.readCount++
	r.lastKey = r.KeyExtractor(item)
	r.hasKey = true
	return item, nil
}

// Close は読み込み済みのページを破棄します。接続は呼び出し側が管理します。
func (r *JdbcPagingItemReader[T]) Close(ctx context.Context) error {
	r.page = nil
	r.pos = 0
	return nil
}

// SetExecutionContext は最後に読み込んだキーと件数を復元します。
func (r *JdbcPagingItemReader[T]) SetExecutionContext(ctx context.Context, ec core.ExecutionContext) error {
	if ec == nil {
		ec = core.NewExecutionContext()
	}
	r.ec = ec
	if k, ok := ec.Get(r.key("last.key")); ok {
		r.lastKey = k
		r.hasKey = true
		logger.Debugf("JdbcPagingItemReader '%s': キー %v の続きから読み込みます。", r.Name, k)
	}
	if n, ok := ec.GetInt(r.key("read.count")); ok {
		r.readCount = n
	}
	return nil
}

// GetExecutionContext は最後に読み込んだキーと件数を保存した ExecutionContext を返します。
func (r *JdbcPagingItemReader[T]) GetExecutionContext(ctx context.Context) (core.ExecutionContext, error) {
	if r.ec == nil {
		r.ec = core.NewExecutionContext()
	}
	if r.hasKey {
		r.ec.Put(r.key("last.key"), r.lastKey)
	}
	r.ec.Put(r.key("read.count"), r.readCount)
	return r.ec, nil
}

var _ core.ItemReader[any] = (*JdbcPagingItemReader[any])(nil)
