package database

import (
	"strconv"
	"strings"

	"tradesample/pkg/batch/util/exception"
)

// Dialect はデータベース固有の SQL の差異を表します。
type Dialect string

const (
	DialectMySQL     Dialect = "mysql"
	DialectPostgres  Dialect = "postgres"
	DialectRedshift  Dialect = "redshift"
	DialectSnowflake Dialect = "snowflake"
	DialectSQLite    Dialect = "sqlite"
)

// DialectFor は設定のデータベースタイプから Dialect を返します。
func DialectFor(dbType string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(dbType)); d {
	case DialectMySQL, DialectPostgres, DialectRedshift, DialectSnowflake, DialectSQLite:
		return d, nil
	default:
		return "", exception.NewBatchErrorf("database", "未対応のデータベースタイプ: %s", dbType)
	}
}

// UsesNumberedPlaceholders は $1, $2 ... 形式のプレースホルダを使うかどうかを返します。
func (d Dialect) UsesNumberedPlaceholders() bool {
	return d == DialectPostgres || d == DialectRedshift
}

// Rebind は '?' プレースホルダで書かれたクエリを Dialect の形式に書き換えます。
// 文字列リテラル内の '?' は置換しません。
func (d Dialect) Rebind(query string) string {
	if !d.UsesNumberedPlaceholders() {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
