package database_test

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesample/pkg/batch/config"
	db "tradesample/pkg/batch/database"
	"tradesample/pkg/batch/database/connector"
	"tradesample/pkg/batch/item/database"
	core "tradesample/pkg/batch/job/core"
)

type customer struct {
	ID     int64
	Name   string
	Credit int64
}

var customerMapper = database.RowMapperFunc[customer](func(rows *sql.Rows) (customer, error) {
	var c customer
	err := rows.Scan(&c.ID, &c.Name, &c.Credit)
	return c, err
})

func setupCustomers(t *testing.T) db.DBConnection {
	t.Helper()
	ctx := context.Background()
	conn, err := connector.NewDBConnectionFromConfig(ctx, config.DatabaseConfig{Type: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	_, err = conn.ExecContext(ctx, "CREATE TABLE CUSTOMER (id INTEGER PRIMARY KEY, name TEXT, credit INTEGER)")
	require.NoError(t, err)
	// id の挿入順とソート順を変えておく
	for _, c := range []customer{{5, "e", 500}, {1, "a", 100}, {3, "c", 300}, {2, "b", 200}, {4, "d", 400}} {
		_, err := conn.ExecContext(ctx, "INSERT INTO CUSTOMER (id, name, credit) VALUES (?, ?, ?)", c.ID, c.Name, c.Credit)
		require.NoError(t, err)
	}
	return conn
}

func newCustomerReader(conn db.DBConnection, pageSize int) *database.JdbcPagingItemReader[customer] {
	r := database.NewJdbcPagingItemReader[customer]("customerReader", conn, customerMapper,
		func(c customer) any { return c.ID })
	r.SelectClause = "id, name, credit"
	r.FromClause = "CUSTOMER"
	r.WhereClause = "credit > ?"
	r.Params = []any{150}
	r.SortKey = "id"
	r.PageSize = pageSize
	return r
}

func readIDs(t *testing.T, r *database.JdbcPagingItemReader[customer]) []int64 {
	t.Helper()
	var ids []int64
	for {
		c, err := r.Read(context.Background())
		if err == io.EOF {
			return ids
		}
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}
}

func TestJdbcPagingItemReader_ReadsAcrossPages(t *testing.T) {
	for _, pageSize := range []int{1, 2, 4, 10} {
		t.Run(fmt.Sprintf("page_size=%d", pageSize), func(t *testing.T) {
			ctx := context.Background()
			r := newCustomerReader(setupCustomers(t), pageSize)
			require.NoError(t, r.Open(ctx, core.NewExecutionContext()))
			assert.Equal(t, []int64{2, 3, 4, 5}, readIDs(t, r))

			_, err := r.Read(ctx)
			assert.Equal(t, io.EOF, err)
			require.NoError(t, r.Close(ctx))
		})
	}
}

func TestJdbcPagingItemReader_ResumesFromLastKey(t *testing.T) {
	ctx := context.Background()
	conn := setupCustomers(t)

	first := newCustomerReader(conn, 2)
	require.NoError(t, first.Open(ctx, nil))
	_, err := first.Read(ctx)
	require.NoError(t, err)
	_, err = first.Read(ctx)
	require.NoError(t, err)
	ec, err := first.GetExecutionContext(ctx)
	require.NoError(t, err)
	require.NoError(t, first.Close(ctx))

	lastKey, ok := ec.GetInt64("customerReader.last.key")
	require.True(t, ok)
	assert.Equal(t, int64(3), lastKey)

	second := newCustomerReader(conn, 2)
	require.NoError(t, second.Open(ctx, ec.Copy()))
	assert.Equal(t, []int64{4, 5}, readIDs(t, second))
}

func TestJdbcPagingItemReader_Query(t *testing.T) {
	r := newCustomerReader(db.NewSQLDBAdapter(nil, db.DialectPostgres), 2)
	require.NoError(t, r.Open(context.Background(), nil))
	assert.Equal(t, "SELECT id, name, credit FROM CUSTOMER WHERE (credit > $1) ORDER BY id ASC LIMIT 2", r.Query())

	ec := core.NewExecutionContext()
	ec.Put("customerReader.last.key", int64(7))
	require.NoError(t, r.Open(context.Background(), ec))
	assert.Equal(t, "SELECT id, name, credit FROM CUSTOMER WHERE (credit > $1) AND id > $2 ORDER BY id ASC LIMIT 2", r.Query())
}

func TestJdbcPagingItemReader_OpenValidation(t *testing.T) {
	r := database.NewJdbcPagingItemReader[customer]("customerReader", nil, customerMapper, func(c customer) any { return c.ID })
	assert.Error(t, r.Open(context.Background(), nil))
}
