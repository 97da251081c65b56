package repository

import (
	"context"

	"tradesample/example/trade/domain/dao"
	"tradesample/example/trade/domain/entity"
	"tradesample/pkg/batch/database"
	"tradesample/pkg/batch/util/exception"
)

// UpdateCreditSQL は顧客名をキーにクレジットを更新する SQL です。
const UpdateCreditSQL = "UPDATE CUSTOMER SET credit = ? WHERE name = ?"

// JdbcCustomerCreditDao は CUSTOMER テーブルのクレジットを更新する CustomerCreditDao の実装です。
type JdbcCustomerCreditDao struct {
	query string
}

// NewJdbcCustomerCreditDao は新しい JdbcCustomerCreditDao のインスタンスを作成します。
func NewJdbcCustomerCreditDao(dialect database.Dialect) *JdbcCustomerCreditDao {
	return &JdbcCustomerCreditDao{query: dialect.Rebind(UpdateCreditSQL)}
}

// WriteCredit は credit の値で CUSTOMER を更新します。
func (d *JdbcCustomerCreditDao) WriteCredit(ctx context.Context, tx database.Tx, credit *entity.CustomerCredit) error {
	if _, err := tx.ExecContext(ctx, d.query, credit.Credit, credit.Name); err != nil {
		return exception.NewBatchError("customer_credit_dao", "CUSTOMER の更新に失敗しました", err, true, false)
	}
	return nil
}

var _ dao.CustomerCreditDao = (*JdbcCustomerCreditDao)(nil)
