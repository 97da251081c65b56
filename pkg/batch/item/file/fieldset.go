// Package file はフラットファイル (CSV などの区切り文字形式) を読み込むためのコンポーネントを提供します。
package file

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"tradesample/pkg/batch/util/exception"
)

// FieldSet はトークン化された 1 行分のフィールドを保持し、型付きの読み取りを提供します。
// 作成後に内容が変更されることはありません。
type FieldSet struct {
	values []string
	names  []string
}

// NewFieldSet は values から FieldSet を作成します。names は省略可能です。
// names を指定する場合は values と同じ長さである必要があります。
func NewFieldSet(values []string, names []string) (*FieldSet, error) {
	if names != nil && len(names) != len(values) {
		return nil, exception.NewBatchErrorf("fieldset", "フィールド名の数 (%d) と値の数 (%d) が一致しません", len(names), len(values))
	}
	fs := &FieldSet{values: append([]string(nil), values...)}
	if names != nil {
		fs.names = append([]string(nil), names...)
	}
	return fs, nil
}

// FieldCount はフィールド数を返します。
func (fs *FieldSet) FieldCount() int {
	return len(fs.values)
}

// Values はフィールド値のコピーを返します。
func (fs *FieldSet) Values() []string {
	return append([]string(nil), fs.values...)
}

// Names はフィールド名のコピーを返します。名前がない場合は nil です。
func (fs *FieldSet) Names() []string {
	if fs.names == nil {
		return nil
	}
	return append([]string(nil), fs.names...)
}

func (fs *FieldSet) raw(index int) (string, error) {
	if index < 0 || index >= len(fs.values) {
		return "", exception.NewBatchErrorf("fieldset", "インデックス %d は範囲外です (フィールド数: %d)", index, len(fs.values))
	}
	return fs.values[index], nil
}

// ReadRawString は index のフィールドをトリムせずに返します。
func (fs *FieldSet) ReadRawString(index int) (string, error) {
	return fs.raw(index)
}

// ReadString は index のフィールドを前後の空白を除いて返します。
func (fs *FieldSet) ReadString(index int) (string, error) {
	v, err := fs.raw(index)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

// ReadStringByName は名前でフィールドを検索し、トリムした値を返します。
func (fs *FieldSet) ReadStringByName(name string) (string, error) {
	for i, n := range fs.names {
		if n == name {
			return fs.ReadString(i)
		}
	}
	return "", exception.NewBatchErrorf("fieldset", "フィールド名 '%s' が見つかりません", name)
}

// numeric は数値として解釈するフィールドを返します。空欄はエラーです。
func (fs *FieldSet) numeric(index int, kind string) (string, error) {
	v, err := fs.ReadString(index)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", exception.NewBatchErrorf("fieldset", "インデックス %d の値が空のため %s として読み込めません", index, kind)
	}
	return v, nil
}

// ReadLong は index のフィールドを int64 として返します。
func (fs *FieldSet) ReadLong(index int) (int64, error) {
	v, err := fs.numeric(index, "long")
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, exception.NewBatchErrorf("fieldset", "インデックス %d の値 '%s' を long に変換できません: %w", index, v, err)
	}
	return n, nil
}

// ReadInt は index のフィールドを int として返します。
func (fs *FieldSet) ReadInt(index int) (int, error) {
	v, err := fs.numeric(index, "int")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, exception.NewBatchErrorf("fieldset", "インデックス %d の値 '%s' を int に変換できません: %w", index, v, err)
	}
	return n, nil
}

// ReadBigDecimal は index のフィールドを decimal.Decimal として返します。
func (fs *FieldSet) ReadBigDecimal(index int) (decimal.Decimal, error) {
	v, err := fs.numeric(index, "decimal")
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, exception.NewBatchErrorf("fieldset", "インデックス %d の値 '%s' を decimal に変換できません: %w", index, v, err)
	}
	return d, nil
}

// ReadBool は index のフィールドを bool として返します。"true"/"false" のほか "1"/"0" なども受け付けます。
func (fs *FieldSet) ReadBool(index int) (bool, error) {
	v, err := fs.numeric(index, "bool")
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, exception.NewBatchErrorf("fieldset", "インデックス %d の値 '%s' を bool に変換できません: %w", index, v, err)
	}
	return b, nil
}
