package meta

import "strings"

// Table описывает отражённую таблицу Postgres:
// колонки, первичный ключ и внешние ключи — как они есть в БД,
// без какой-либо интерпретации (интерпретация — в internal/model).
type Table struct {
	Schema      string
	Name        string
	Columns     []Column
	PrimaryKey  []string // имена колонок PK в порядке constraint'а
	ForeignKeys []ForeignKey
}

// Column описывает колонку из information_schema.columns.
type Column struct {
	Name       string
	DataType   string   // information_schema data_type ("character varying", "bigint", ...)
	UDTName    string   // udt_name — нужен для enum-типов и jsonb
	Nullable   bool
	Default    string   // выражение column_default, "" если нет
	MaxLength  int      // character_maximum_length, 0 если не задана
	Precision  int
	Scale      int
	EnumValues []string // метки enum-типа, если колонка enum
	IsPrimary  bool
}

// ForeignKey — одна FK-связь колонки. Колонка может нести несколько
// constraint'ов — тогда ForeignKeys содержит несколько записей с
// одинаковым Column (такие колонки считаем неподдерживаемыми).
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// Column возвращает колонку по имени (регистронезависимо).
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i]
		}
	}
	return nil
}

// FKsFor возвращает все внешние ключи, висящие на колонке.
func (t *Table) FKsFor(column string) []ForeignKey {
	var out []ForeignKey
	for _, fk := range t.ForeignKeys {
		if strings.EqualFold(fk.Column, column) {
			out = append(out, fk)
		}
	}
	return out
}

// HasCompositePK — первичный ключ из двух и более колонок.
func (t *Table) HasCompositePK() bool { return len(t.PrimaryKey) > 1 }
