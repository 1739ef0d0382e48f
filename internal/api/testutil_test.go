package api

import (
	"testing"

	"github.com/stretchr/testify/require"

	"revizor/internal/admincfg"
	"revizor/internal/meta"
	"revizor/internal/model"
)

// Тестовые таблицы: booking (строковый PK, связь, enum, bool),
// order_item (составной PK).

func bookingTable() *meta.Table {
	return &meta.Table{
		Schema: "public",
		Name:   "booking",
		Columns: []meta.Column{
			{Name: "code", DataType: "character varying", MaxLength: 32, IsPrimary: true},
			{Name: "title", DataType: "character varying", MaxLength: 100},
			{Name: "user_id", DataType: "bigint"},
			{Name: "status", DataType: "USER-DEFINED", UDTName: "booking_status",
				EnumValues: []string{"new", "paid", "cancelled"}},
			{Name: "is_active", DataType: "boolean", Default: "true"},
			{Name: "created_at", DataType: "timestamp with time zone", Default: "now()"},
			{Name: "payload", DataType: "json", Nullable: true},
		},
		PrimaryKey:  []string{"code"},
		ForeignKeys: []meta.ForeignKey{{Column: "user_id", RefTable: "users", RefColumn: "id"}},
	}
}

func orderItemTable() *meta.Table {
	return &meta.Table{
		Schema: "public",
		Name:   "order_item",
		Columns: []meta.Column{
			{Name: "order_id", DataType: "bigint", IsPrimary: true},
			{Name: "item_no", DataType: "integer", IsPrimary: true},
			{Name: "qty", DataType: "integer"},
			{Name: "note", DataType: "text", Nullable: true},
		},
		PrimaryKey: []string{"order_id", "item_no"},
	}
}

func usersTable() *meta.Table {
	return &meta.Table{
		Schema:     "public",
		Name:       "users",
		Columns:    []meta.Column{{Name: "id", DataType: "bigint", IsPrimary: true}},
		PrimaryKey: []string{"id"},
	}
}

// testRegistry синтезирует модели из тестовых таблиц и наполняет реестр.
func testRegistry(t *testing.T) *Registry {
	t.Helper()

	tables := []*meta.Table{bookingTable(), orderItemTable(), usersTable()}
	models, issues := model.Synthesize(tables, nil)
	require.Empty(t, issues)
	require.Len(t, models, 3)

	reg := NewRegistry()
	reg.Replace(models, map[string]admincfg.ModelConfig{}, false)
	return reg
}

func entryFor(t *testing.T, reg *Registry, name string) *Entry {
	t.Helper()
	e, ok := reg.Lookup(name)
	require.True(t, ok, "model %s not registered", name)
	return e
}
