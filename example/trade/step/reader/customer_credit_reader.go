package reader

import (
	"database/sql"

	"github.com/shopspring/decimal"

	"tradesample/example/trade/domain/entity"
	"tradesample/pkg/batch/database"
	itemdb "tradesample/pkg/batch/item/database"
)

// NewCustomerCreditReader は credit が threshold より大きい顧客を id 順にページングで読み込む ItemReader を作成します。
//
//	SELECT id, name, credit FROM CUSTOMER WHERE credit > ? ORDER BY id
func NewCustomerCreditReader(conn database.DBConnection, threshold decimal.Decimal, pageSize int) *itemdb.JdbcPagingItemReader[*entity.CustomerCredit] {
	r := itemdb.NewJdbcPagingItemReader[*entity.CustomerCredit](
		"customerCreditReader",
		conn,
		itemdb.RowMapperFunc[*entity.CustomerCredit](mapCustomerCredit),
		func(c *entity.CustomerCredit) any { return c.ID },
	)
	r.SelectClause = "id, name, credit"
	r.FromClause = "CUSTOMER"
	r.WhereClause = "credit > ?"
	r.Params = []any{threshold}
	r.SortKey = "id"
	r.PageSize = pageSize
	return r
}

func mapCustomerCredit(rows *sql.Rows) (*entity.CustomerCredit, error) {
	c := &entity.CustomerCredit{}
	if err := rows.Scan(&c.ID, &c.Name, &c.Credit); err != nil {
		return nil, err
	}
	return c, nil
}
