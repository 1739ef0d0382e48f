package api

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseListParamsDefaults(t *testing.T) {
	lp := parseListParams(url.Values{})
	assert.Equal(t, 50, lp.Limit)
	assert.Equal(t, 0, lp.Offset)
	assert.Equal(t, "last", lp.Nulls)
	assert.Empty(t, lp.Sort)
	assert.Empty(t, lp.Filters)
}

func TestParseListParamsLimitClamp(t *testing.T) {
	// за пределами [0, 1000] — остаёмся на умолчании
	lp := parseListParams(url.Values{"_limit": {"5000"}})
	assert.Equal(t, 50, lp.Limit)

	lp = parseListParams(url.Values{"_limit": {"-1"}})
	assert.Equal(t, 50, lp.Limit)

	lp = parseListParams(url.Values{"limit": {"200"}, "_offset": {"10"}})
	assert.Equal(t, 200, lp.Limit)
	assert.Equal(t, 10, lp.Offset)
}

func TestParseListParamsSort(t *testing.T) {
	lp := parseListParams(url.Values{"_sort": {"-created_at, +title,code"}})
	assert.Equal(t, []SortKey{
		{Field: "created_at", Desc: true},
		{Field: "title"},
		{Field: "code"},
	}, lp.Sort)
}

func TestParseListParamsFilters(t *testing.T) {
	lp := parseListParams(url.Values{
		"q":      {" поиск "},
		"status": {"new", "paid", " "},
		"_sort":  {"code"},
		"nulls":  {"FIRST"},
	})
	assert.Equal(t, "поиск", lp.Q)
	assert.Equal(t, map[string][]string{"status": {"new", "paid"}}, lp.Filters)
	assert.Equal(t, "first", lp.Nulls)
	// служебные ключи в фильтры не попадают
	assert.NotContains(t, lp.Filters, "_sort")
	assert.NotContains(t, lp.Filters, "nulls")
}
