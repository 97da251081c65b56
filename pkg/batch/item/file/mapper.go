package file

// FieldSetMapper は FieldSet をドメインオブジェクトに変換するインターフェースです。
type FieldSetMapper[T any] interface {
	MapFieldSet(fs *FieldSet) (T, error)
}

// FieldSetMapperFunc は関数を FieldSetMapper として扱うためのアダプタです。
type FieldSetMapperFunc[T any] func(fs *FieldSet) (T, error)

// MapFieldSet は f(fs) を呼び出します。
func (f FieldSetMapperFunc[T]) MapFieldSet(fs *FieldSet) (T, error) {
	return f(fs)
}
