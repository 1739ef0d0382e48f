package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revizor/internal/admincfg"
	"revizor/internal/model"
)

func TestDefaultListDisplay(t *testing.T) {
	reg := testRegistry(t)
	e := entryFor(t, reg, "Booking")

	// первые четыре реальные колонки; у связи — имя db-колонки
	assert.Equal(t, []string{"code", "title", "user_id", "status"}, e.Options.ListDisplay)
}

func TestDefaultListDisplayShortTable(t *testing.T) {
	reg := testRegistry(t)
	e := entryFor(t, reg, "Users")

	// полей меньше четырёх — показываем сколько есть
	assert.Equal(t, []string{"id"}, e.Options.ListDisplay)
}

func TestDefaultSearchFields(t *testing.T) {
	reg := testRegistry(t)
	e := entryFor(t, reg, "Booking")

	assert.Equal(t, []string{"=pk"}, e.Options.SearchFields)
}

func TestDefaultListFilter(t *testing.T) {
	reg := testRegistry(t)
	e := entryFor(t, reg, "Booking")

	// choices + булевы
	assert.Equal(t, []string{"status", "is_active"}, e.Options.ListFilter)
}

func TestRawIDFields(t *testing.T) {
	reg := testRegistry(t)
	e := entryFor(t, reg, "Booking")

	assert.Equal(t, []string{"user"}, e.Options.RawIDFields)
}

func TestOverridesWin(t *testing.T) {
	reg := testRegistry(t)
	e := entryFor(t, reg, "Booking")

	opts := buildOptions(e.Model, admincfg.ModelConfig{
		Table:        "booking",
		ListDisplay:  []string{"code"},
		SearchFields: []string{"title"},
		ListFilter:   []string{"is_active"},
	})
	assert.Equal(t, []string{"code"}, opts.ListDisplay)
	assert.Equal(t, []string{"title"}, opts.SearchFields)
	assert.Equal(t, []string{"is_active"}, opts.ListFilter)
}

func TestChangeFieldsExcludePK(t *testing.T) {
	reg := testRegistry(t)

	// одиночный ключ
	e := entryFor(t, reg, "Booking")
	fields := changeFields(e.Model, e.Options)
	assert.NotContains(t, fields, "code")
	assert.Contains(t, fields, "title")

	// составной ключ: исключаются все составляющие
	e = entryFor(t, reg, "OrderItem")
	fields = changeFields(e.Model, e.Options)
	assert.NotContains(t, fields, "order_id")
	assert.NotContains(t, fields, "item_no")
	assert.Contains(t, fields, "qty")
}

func TestCompositeListFilterEmptyByDefault(t *testing.T) {
	reg := testRegistry(t)
	e := entryFor(t, reg, "OrderItem")

	// нет ни choices, ни bool — фильтров по умолчанию нет
	assert.Empty(t, e.Options.ListFilter)
	require.NotNil(t, e.Model.PK())
	assert.Equal(t, model.KindCompositeKey, e.Model.PK().Kind)
}
