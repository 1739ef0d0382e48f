package model

import (
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"

	"revizor/internal/meta"
)

// Issue — не фатальная проблема синтеза: таблица или колонка,
// которую нельзя отразить честно. Собираем и логируем, не падаем.
type Issue struct {
	Table   string `json:"table"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	IssueNoPrimaryKey  = "no_primary_key"
	IssueMultiFK       = "multi_foreign_key"
	IssueUnknownType   = "unknown_type"
	IssueFKChainBroken = "fk_chain_broken"
	IssueBadPKOverride = "bad_pk_override"
)

// Options — переопределения синтеза для одной таблицы (из admin-каталога).
type Options struct {
	Name        string // имя модели вместо CamelCase(table)
	NamePlural  string
	StrTemplate string
	PKColumn    string // назначить PK явно (колонка должна быть уникальной)
}

// Synthesize превращает отражённые таблицы в модели.
// Таблицы без первичного ключа (и без pk_column-переопределения)
// пропускаются: admin не может адресовать их записи.
func Synthesize(tables []*meta.Table, overrides map[string]Options) ([]*Model, []Issue) {
	byName := make(map[string]*meta.Table, len(tables))
	for _, t := range tables {
		byName[strings.ToLower(t.Name)] = t
	}

	var models []*Model
	var issues []Issue
	for _, t := range tables {
		m, errs := FromTable(t, byName, overrides[strings.ToLower(t.Name)])
		issues = append(issues, errs...)
		if m != nil {
			models = append(models, m)
		}
	}
	return models, issues
}

// FromTable синтезирует одну модель. byName нужен для прохода по
// цепочкам внешних ключей (составной FK может вести через таблицу-мост).
func FromTable(t *meta.Table, byName map[string]*meta.Table, opts Options) (*Model, []Issue) {
	var issues []Issue

	name := opts.Name
	if name == "" {
		name = ModelName(t.Name)
	}
	plural := opts.NamePlural
	if plural == "" {
		plural = inflect.Pluralize(name)
	}

	m := &Model{
		Name:              name,
		VerboseName:       name,
		VerboseNamePlural: plural,
		StrTemplate:       opts.StrTemplate,
		Meta:              t,
	}

	pkOverride := strings.ToLower(strings.TrimSpace(opts.PKColumn))
	if pkOverride != "" && t.Column(pkOverride) == nil {
		issues = append(issues, Issue{
			Table: t.Name, Column: opts.PKColumn, Code: IssueBadPKOverride,
			Message: fmt.Sprintf("pk_column %q: no such column", opts.PKColumn),
		})
		pkOverride = ""
	}

	for i := range t.Columns {
		f, errs := columnAsField(t, &t.Columns[i], byName, pkOverride)
		issues = append(issues, errs...)
		m.Fields = append(m.Fields, f)
	}

	// составной первичный ключ: разжалуем составляющие и добавляем
	// синтетическое поле id с токеном
	var pkFields []*Field
	for i := range m.Fields {
		if m.Fields[i].PrimaryKey {
			pkFields = append(pkFields, &m.Fields[i])
		}
	}
	if len(pkFields) > 1 {
		columns := make([]string, 0, len(pkFields))
		for _, f := range pkFields {
			f.PrimaryKey = false
			columns = append(columns, f.Column)
		}
		m.Fields = append(m.Fields, Field{
			Name:       "id",
			Column:     columns[0], // для сортировки по умолчанию
			Kind:       KindCompositeKey,
			PrimaryKey: true,
			KeyColumns: columns,
		})
	}

	if m.PK() == nil {
		issues = append(issues, Issue{
			Table: t.Name, Code: IssueNoPrimaryKey,
			Message: "table has no primary key and no pk_column override; skipped",
		})
		return nil, issues
	}
	return m, issues
}

// columnAsField — соответствие колонка -> поле модели.
func columnAsField(t *meta.Table, c *meta.Column, byName map[string]*meta.Table, pkOverride string) (Field, []Issue) {
	var issues []Issue

	kind, ok := kindOf(c)
	if !ok {
		issues = append(issues, Issue{
			Table: t.Name, Column: c.Name, Code: IssueUnknownType,
			Message: fmt.Sprintf("unmapped type %q (%s); falling back to text", c.DataType, c.UDTName),
		})
		kind = KindText
	}

	// PK вычисляется из колонки либо назначается через pk_column.
	// pk_column должен указывать на колонку с уникальными значениями.
	primary := c.IsPrimary || strings.EqualFold(c.Name, pkOverride)

	f := Field{
		Name:       c.Name,
		Column:     c.Name,
		Kind:       kind,
		Null:       c.Nullable,
		Blank:      c.Nullable, // обязательность в формах = nullability
		Editable:   !primary,   // смена PK в admin породила бы новую запись
		PrimaryKey: primary,
		HasDefault: c.Default != "",
		Default:    c.Default,
		Choices:    append([]string(nil), c.EnumValues...),
	}
	if kind == KindChar {
		f.MaxLength = c.MaxLength
	}

	fks := t.FKsFor(c.Name)
	switch {
	case len(fks) > 1:
		// что делать с несколькими FK на одной колонке — открытый вопрос;
		// оставляем обычное поле
		issues = append(issues, Issue{
			Table: t.Name, Column: c.Name, Code: IssueMultiFK,
			Message: fmt.Sprintf("column carries %d foreign keys; relation dropped", len(fks)),
		})
	case len(fks) == 1:
		rel, err := followChain(fks[0], byName)
		if err != nil {
			issues = append(issues, Issue{
				Table: t.Name, Column: c.Name, Code: IssueFKChainBroken,
				Message: err.Error(),
			})
			break
		}
		// колонка хранится под своим именем, поле называем по связи:
		// user_id -> user; колонка без суффикса получает _obj
		if strings.HasSuffix(c.Name, "_id") {
			f.Name = strings.TrimSuffix(c.Name, "_id")
		} else {
			f.Name = c.Name + "_obj"
		}
		f.Relation = rel
	}

	return f, issues
}

// followChain идёт по цепочке внешних ключей до терминальной колонки:
// ссылка может вести на колонку, которая сама является FK
// (характерно для ссылок на составные ключи через таблицу-мост).
func followChain(fk meta.ForeignKey, byName map[string]*meta.Table) (*Relation, error) {
	cur := fk
	for depth := 0; ; depth++ {
		if depth > 16 {
			return nil, fmt.Errorf("fk chain from %s too deep (cycle?)", fk.Column)
		}
		target, ok := byName[strings.ToLower(cur.RefTable)]
		if !ok {
			// цель вне отражённого набора — останавливаемся на том, что знаем
			return &Relation{
				Model:   ModelName(cur.RefTable),
				Table:   cur.RefTable,
				ToField: cur.RefColumn,
			}, nil
		}
		next := target.FKsFor(cur.RefColumn)
		if len(next) == 0 {
			return &Relation{
				Model:   ModelName(target.Name),
				Table:   target.Name,
				ToField: cur.RefColumn,
			}, nil
		}
		if len(next) > 1 {
			return nil, fmt.Errorf("fk chain via %s.%s has multiple foreign keys", target.Name, cur.RefColumn)
		}
		cur = next[0]
	}
}

// ModelName: snake_case имя таблицы -> CamelCase имя модели.
func ModelName(table string) string {
	return inflect.Camelize(table)
}

// kindOf — таблица соответствия типов Postgres видам полей.
func kindOf(c *meta.Column) (Kind, bool) {
	switch c.DataType {
	case "character varying", "character":
		if c.MaxLength > 0 {
			return KindChar, true
		}
		return KindText, true
	case "text":
		return KindText, true
	case "smallint", "integer":
		return KindInt, true
	case "bigint":
		return KindBigInt, true
	case "date":
		return KindDate, true
	case "timestamp without time zone", "timestamp with time zone":
		return KindDateTime, true
	case "numeric", "decimal":
		return KindDecimal, true
	case "boolean":
		return KindBool, true
	case "uuid":
		return KindUUID, true
	case "json", "jsonb":
		return KindJSON, true
	case "USER-DEFINED":
		if len(c.EnumValues) > 0 {
			return KindChar, true
		}
	}
	return "", false
}
