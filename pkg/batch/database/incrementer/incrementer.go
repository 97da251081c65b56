// Package incrementer はサロゲートキーを採番するインクリメンタを提供します。
// データベースの自動採番に頼らず、シーケンスや採番テーブルから次の値を取得します。
package incrementer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"tradesample/pkg/batch/config"
	"tradesample/pkg/batch/database"
	"tradesample/pkg/batch/util/exception"
)

// DataFieldMaxValueIncrementer は一意なキーを採番するインターフェースです。
// exec にはチャンクのトランザクション、またはデータベース接続を渡します。
type DataFieldMaxValueIncrementer interface {
	NextInt64(ctx context.Context, exec database.Executor) (int64, error)
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// validateIdentifier は SQL に埋め込む識別子 (シーケンス名・テーブル名) を検証します。
func validateIdentifier(kind, name string) error {
	if !identifierPattern.MatchString(name) {
		return exception.NewBatchErrorf("incrementer", "不正な%s名です: '%s'", kind, name)
	}
	return nil
}

// NewIncrementer は Dialect と設定から適切なインクリメンタを作成します。
//
//	postgres, snowflake : シーケンス
//	redshift            : 1 行の採番テーブル (UPDATE してから SELECT)
//	mysql               : 採番テーブル (LAST_INSERT_ID)
//	sqlite              : AUTOINCREMENT の採番テーブル
//
// cfg.Type が "static" の場合はデータベースを使用しないインメモリのカウンタを返します。
func NewIncrementer(dialect database.Dialect, cfg config.IncrementerConfig) (DataFieldMaxValueIncrementer, error) {
	if strings.EqualFold(cfg.Type, "static") {
		return NewStaticIncrementer(0), nil
	}
	switch dialect {
	case database.DialectPostgres:
		return NewPostgresSequenceMaxValueIncrementer(cfg.Name)
	case database.DialectRedshift:
		// Redshift はシーケンスをサポートしない
		return NewTableMaxValueIncrementer(cfg.Name, cfg.Column, cfg.CacheSize)
	case database.DialectSnowflake:
		return NewSnowflakeSequenceMaxValueIncrementer(cfg.Name)
	case database.DialectMySQL:
		return NewMySQLMaxValueIncrementer(cfg.Name, cfg.Column, cfg.CacheSize)
	case database.DialectSQLite:
		return NewSqliteMaxValueIncrementer(cfg.Name, cfg.Column)
	default:
		return nil, exception.NewBatchErrorf("incrementer", "未対応のデータベースタイプ: %s", dialect)
	}
}

// SequenceMaxValueIncrementer はデータベースのシーケンスから値を取得するインクリメンタです。
type SequenceMaxValueIncrementer struct {
	sequenceName string
	query        string
}

// NewPostgresSequenceMaxValueIncrementer は nextval を使用するインクリメンタを作成します。
func NewPostgresSequenceMaxValueIncrementer(sequenceName string) (*SequenceMaxValueIncrementer, error) {
	if err := validateIdentifier("シーケンス", sequenceName); err != nil {
		return nil, err
	}
	return &SequenceMaxValueIncrementer{
		sequenceName: sequenceName,
		query:        fmt.Sprintf("SELECT nextval('%s')", sequenceName),
	}, nil
}

// NewSnowflakeSequenceMaxValueIncrementer は <seq>.NEXTVAL を使用するインクリメンタを作成します。
func NewSnowflakeSequenceMaxValueIncrementer(sequenceName string) (*SequenceMaxValueIncrementer, error) {
	if err := validateIdentifier("シーケンス", sequenceName); err != nil {
		return nil, err
	}
	return &SequenceMaxValueIncrementer{
		sequenceName: sequenceName,
		query:        fmt.Sprintf("SELECT %s.NEXTVAL", sequenceName),
	}, nil
}

// Query は採番に使用する SQL を返します。
func (i *SequenceMaxValueIncrementer) Query() string {
	return i.query
}

// NextInt64 はシーケンスの次の値を返します。
func (i *SequenceMaxValueIncrementer) NextInt64(ctx context.Context, exec database.Executor) (int64, error) {
	var next int64
	if err := exec.QueryRowContext(ctx, i.query).Scan(&next); err != nil {
		return 0, exception.NewBatchError("incrementer", fmt.Sprintf("シーケンス '%s' から値を取得できませんでした", i.sequenceName), err, true, false)
	}
	return next, nil
}

// MySQLMaxValueIncrementer は採番テーブルの値を LAST_INSERT_ID で更新して採番するインクリメンタです。
// cacheSize 件分のブロックを一度に確保し、使い切るまではデータベースにアクセスしません。
//
// cacheSize が 1 より大きい場合、確保したブロックはトランザクションのロールバックでは戻りません。
// ロールバックされうるトランザクションを exec に渡す場合は cacheSize を 1 にしてください。
type MySQLMaxValueIncrementer struct {
	mu         sync.Mutex
	tableName  string
	columnName string
	cacheSize  int
	query      string

	// 確保済みブロックの次に返す値と、ブロックの最大値
	nextID int64
	maxID  int64
}

// NewMySQLMaxValueIncrementer は新しい MySQLMaxValueIncrementer を作成します。
func NewMySQLMaxValueIncrementer(tableName, columnName string, cacheSize int) (*MySQLMaxValueIncrementer, error) {
	if err := validateIdentifier("テーブル", tableName); err != nil {
		return nil, err
	}
	if err := validateIdentifier("カラム", columnName); err != nil {
		return nil, err
	}
	if cacheSize < 1 {
		cacheSize = 1
	}
	return &MySQLMaxValueIncrementer{
		tableName:  tableName,
		columnName: columnName,
		cacheSize:  cacheSize,
		query: fmt.Sprintf("UPDATE %s SET %s = LAST_INSERT_ID(%s + %d)",
			tableName, columnName, columnName, cacheSize),
	}, nil
}

// NextInt64 は確保済みブロックから次の値を返します。ブロックを使い切った場合は新しいブロックを確保します。
func (i *MySQLMaxValueIncrementer) NextInt64(ctx context.Context, exec database.Executor) (int64, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.nextID == 0 || i.nextID > i.maxID {
		// LAST_INSERT_ID(expr) の値は同じ文の結果として返されるため、接続をまたいでも安全に取得できる
		res, err := exec.ExecContext(ctx, i.query)
		if err != nil {
			return 0, exception.NewBatchError("incrementer", fmt.Sprintf("採番テーブル '%s' の更新に失敗しました", i.tableName), err, true, false)
		}
		maxID, err := res.LastInsertId()
		if err != nil {
			return 0, exception.NewBatchError("incrementer", "LAST_INSERT_ID の取得に失敗しました", err, true, false)
		}
		i.maxID = maxID
		i.nextID = maxID - int64(i.cacheSize) + 1
	}

	next := i.nextID
	i.nextID++
	return next, nil
}

// TableMaxValueIncrementer は 1 行だけを持つ採番テーブルの値を加算し、同じトランザクションで読み戻すインクリメンタです。
// シーケンスも LAST_INSERT_ID も持たないデータベース (Redshift など) で使用します。
//
//	UPDATE <tbl> SET <col> = <col> + cacheSize
//	SELECT <col> FROM <tbl>
//
// exec にはチャンクのトランザクションを渡してください。更新した行はコミットまでロックされるため、
// 他のトランザクションと同じ値を読むことはありません。ブロックの扱いは MySQLMaxValueIncrementer と同じです。
type TableMaxValueIncrementer struct {
	mu          sync.Mutex
	tableName   string
	cacheSize   int
	updateQuery string
	selectQuery string

	nextID int64
	maxID  int64
}

// NewTableMaxValueIncrementer は新しい TableMaxValueIncrementer を作成します。
func NewTableMaxValueIncrementer(tableName, columnName string, cacheSize int) (*TableMaxValueIncrementer, error) {
	if err := validateIdentifier("テーブル", tableName); err != nil {
		return nil, err
	}
	if err := validateIdentifier("カラム", columnName); err != nil {
		return nil, err
	}
	if cacheSize < 1 {
		cacheSize = 1
	}
	return &TableMaxValueIncrementer{
		tableName:   tableName,
		cacheSize:   cacheSize,
		updateQuery: fmt.Sprintf("UPDATE %s SET %s = %s + %d", tableName, columnName, columnName, cacheSize),
		selectQuery: fmt.Sprintf("SELECT %s FROM %s", columnName, tableName),
	}, nil
}

// Queries は採番に使用する UPDATE と SELECT を返します。
func (i *TableMaxValueIncrementer) Queries() (update, sel string) {
	return i.updateQuery, i.selectQuery
}

// NextInt64 は確保済みブロックから次の値を返します。ブロックを使い切った場合は新しいブロックを確保します。
func (i *TableMaxValueIncrementer) NextInt64(ctx context.Context, exec database.Executor) (int64, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.nextID == 0 || i.nextID > i.maxID {
		res, err := exec.ExecContext(ctx, i.updateQuery)
		if err != nil {
			return 0, exception.NewBatchError("incrementer", fmt.Sprintf("採番テーブル '%s' の更新に失敗しました", i.tableName), err, true, false)
		}
		if n, err := res.RowsAffected(); err == nil && n != 1 {
			return 0, exception.NewBatchErrorf("incrementer", "採番テーブル '%s' は 1 行である必要があります (更新件数: %d)", i.tableName, n)
		}
		var maxID int64
		if err := exec.QueryRowContext(ctx, i.selectQuery).Scan(&maxID); err != nil {
			return 0, exception.NewBatchError("incrementer", fmt.Sprintf("採番テーブル '%s' の読み込みに失敗しました", i.tableName), err, true, false)
		}
		i.maxID = maxID
		i.nextID = maxID - int64(i.cacheSize) + 1
	}

	next := i.nextID
	i.nextID++
	return next, nil
}

// SqliteMaxValueIncrementer は AUTOINCREMENT の採番テーブルに行を挿入して採番するインクリメンタです。
// 採番後、古い行は削除されます。
type SqliteMaxValueIncrementer struct {
	mu          sync.Mutex
	tableName   string
	insertQuery string
	deleteQuery string
}

// NewSqliteMaxValueIncrementer は新しい SqliteMaxValueIncrementer を作成します。
func NewSqliteMaxValueIncrementer(tableName, columnName string) (*SqliteMaxValueIncrementer, error) {
	if err := validateIdentifier("テーブル", tableName); err != nil {
		return nil, err
	}
	if err := validateIdentifier("カラム", columnName); err != nil {
		return nil, err
	}
	return &SqliteMaxValueIncrementer{
		tableName:   tableName,
		insertQuery: fmt.Sprintf("INSERT INTO %s (%s) VALUES (NULL)", tableName, columnName),
		deleteQuery: fmt.Sprintf("DELETE FROM %s WHERE %s < ?", tableName, columnName),
	}, nil
}

// NextInt64 は採番テーブルに行を追加し、その rowid を返します。
func (i *SqliteMaxValueIncrementer) NextInt64(ctx context.Context, exec database.Executor) (int64, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	res, err := exec.ExecContext(ctx, i.insertQuery)
	if err != nil {
		return 0, exception.NewBatchError("incrementer", fmt.Sprintf("採番テーブル '%s' への挿入に失敗しました", i.tableName), err, true, false)
	}
	next, err := res.LastInsertId()
	if err != nil {
		return 0, exception.NewBatchError("incrementer", "last_insert_rowid の取得に失敗しました", err, true, false)
	}
	if _, err := exec.ExecContext(ctx, i.deleteQuery, next); err != nil {
		return 0, exception.NewBatchError("incrementer", fmt.Sprintf("採番テーブル '%s' の整理に失敗しました", i.tableName), err, true, false)
	}
	return next, nil
}

// StaticIncrementer はデータベースを使用しないインメモリのカウンタです。
// テストやドライランで使用します。
type StaticIncrementer struct {
	mu      sync.Mutex
	current int64
}

// NewStaticIncrementer は start の次の値から採番する StaticIncrementer を作成します。
func NewStaticIncrementer(start int64) *StaticIncrementer {
	return &StaticIncrementer{current: start}
}

// NextInt64 は次の値を返します。exec は使用しません。
func (i *StaticIncrementer) NextInt64(ctx context.Context, _ database.Executor) (int64, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.current++
	return i.current, nil
}

var (
	_ DataFieldMaxValueIncrementer = (*SequenceMaxValueIncrementer)(nil)
	_ DataFieldMaxValueIncrementer = (*TableMaxValueIncrementer)(nil)
	_ DataFieldMaxValueIncrementer = (*MySQLMaxValueIncrementer)(nil)
	_ DataFieldMaxValueIncrementer = (*SqliteMaxValueIncrementer)(nil)
	_ DataFieldMaxValueIncrementer = (*StaticIncrementer)(nil)
)
