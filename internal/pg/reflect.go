package pg

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"revizor/internal/meta"
)

// Запросы к каталогу вынесены в константы — на них же завязаны тесты.
const (
	queryTables = `
		select table_name
		from information_schema.tables
		where table_schema = $1 and table_type = 'BASE TABLE'
		order by table_name`

	queryColumns = `
		select column_name, data_type, udt_name, is_nullable,
		       coalesce(column_default, ''),
		       coalesce(character_maximum_length, 0),
		       coalesce(numeric_precision, 0),
		       coalesce(numeric_scale, 0)
		from information_schema.columns
		where table_schema = $1 and table_name = $2
		order by ordinal_position`

	queryPrimaryKey = `
		select kcu.column_name
		from information_schema.table_constraints tc
		join information_schema.key_column_usage kcu
		  on kcu.constraint_name = tc.constraint_name
		 and kcu.table_schema = tc.table_schema
		where tc.table_schema = $1 and tc.table_name = $2
		  and tc.constraint_type = 'PRIMARY KEY'
		order by kcu.ordinal_position`

	queryForeignKeys = `
		select kcu.column_name, ccu.table_name, ccu.column_name
		from information_schema.table_constraints tc
		join information_schema.key_column_usage kcu
		  on kcu.constraint_name = tc.constraint_name
		 and kcu.table_schema = tc.table_schema
		join information_schema.constraint_column_usage ccu
		  on ccu.constraint_name = tc.constraint_name
		 and ccu.table_schema = tc.table_schema
		where tc.table_schema = $1 and tc.table_name = $2
		  and tc.constraint_type = 'FOREIGN KEY'
		order by kcu.ordinal_position`

	queryEnumLabels = `
		select e.enumlabel
		from pg_type t
		join pg_enum e on e.enumtypid = t.oid
		where t.typname = $1
		order by e.enumsortorder`
)

// Reflect читает метаданные таблиц схемы из information_schema.
// include — необязательный список имён таблиц (пустой = все таблицы схемы).
// DDL мы не трогаем: только чтение каталога.
func Reflect(ctx context.Context, db *sql.DB, schema string, include []string) ([]*meta.Table, error) {
	if strings.TrimSpace(schema) == "" {
		schema = "public"
	}

	names, err := tableNames(ctx, db, schema)
	if err != nil {
		return nil, fmt.Errorf("reflect %s: %w", schema, err)
	}
	if len(include) > 0 {
		names = filterNames(names, include)
	}

	// кэш меток enum-типов: один тип может встречаться во многих колонках
	enumCache := map[string][]string{}

	tables := make([]*meta.Table, 0, len(names))
	for _, name := range names {
		t := &meta.Table{Schema: schema, Name: name}

		if t.Columns, err = tableColumns(ctx, db, schema, name, enumCache); err != nil {
			return nil, fmt.Errorf("reflect %s.%s: %w", schema, name, err)
		}
		if t.PrimaryKey, err = primaryKey(ctx, db, schema, name); err != nil {
			return nil, fmt.Errorf("reflect %s.%s: %w", schema, name, err)
		}
		if t.ForeignKeys, err = foreignKeys(ctx, db, schema, name); err != nil {
			return nil, fmt.Errorf("reflect %s.%s: %w", schema, name, err)
		}

		for i := range t.Columns {
			for _, pk := range t.PrimaryKey {
				if strings.EqualFold(t.Columns[i].Name, pk) {
					t.Columns[i].IsPrimary = true
				}
			}
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func tableNames(ctx context.Context, db *sql.DB, schema string) ([]string, error) {
	rows, err := db.QueryContext(ctx, queryTables, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func tableColumns(ctx context.Context, db *sql.DB, schema, table string, enumCache map[string][]string) ([]meta.Column, error) {
	rows, err := db.QueryContext(ctx, queryColumns, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []meta.Column
	for rows.Next() {
		var c meta.Column
		var nullable string
		if err := rows.Scan(&c.Name, &c.DataType, &c.UDTName, &nullable,
			&c.Default, &c.MaxLength, &c.Precision, &c.Scale); err != nil {
			return nil, err
		}
		c.Nullable = nullable == "YES"
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s.%s not found", schema, table)
	}

	// enum-метки подтягиваем отдельным запросом по udt_name
	for i := range cols {
		if cols[i].DataType != "USER-DEFINED" {
			continue
		}
		labels, ok := enumCache[cols[i].UDTName]
		if !ok {
			labels, err = enumLabels(ctx, db, cols[i].UDTName)
			if err != nil {
				return nil, err
			}
			enumCache[cols[i].UDTName] = labels
		}
		cols[i].EnumValues = labels
	}
	return cols, nil
}

func primaryKey(ctx context.Context, db *sql.DB, schema, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, queryPrimaryKey, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pk []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		pk = append(pk, col)
	}
	return pk, rows.Err()
}

func foreignKeys(ctx context.Context, db *sql.DB, schema, table string) ([]meta.ForeignKey, error) {
	rows, err := db.QueryContext(ctx, queryForeignKeys, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []meta.ForeignKey
	for rows.Next() {
		var fk meta.ForeignKey
		if err := rows.Scan(&fk.Column, &fk.RefTable, &fk.RefColumn); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

func enumLabels(ctx context.Context, db *sql.DB, typname string) ([]string, error) {
	rows, err := db.QueryContext(ctx, queryEnumLabels, typname)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// filterNames оставляет только перечисленные таблицы; порядок — стабильный.
func filterNames(names, include []string) []string {
	want := make(map[string]struct{}, len(include))
	for _, n := range include {
		want[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}
	var out []string
	for _, n := range names {
		if _, ok := want[strings.ToLower(n)]; ok {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
