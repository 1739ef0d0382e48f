package admincfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "admin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeCatalog(t, `
models:
  - table: Booking
    name: Reservation
    str_template: "{title} ({pk})"
    list_display: [code, title]
    read_only: true
  - table: audit_log
    pk_column: event_id
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg, 2)

	// ключ — имя таблицы в нижнем регистре
	b, ok := cfg["booking"]
	require.True(t, ok)
	assert.Equal(t, "Reservation", b.Name)
	assert.Equal(t, "{title} ({pk})", b.StrTemplate)
	assert.Equal(t, []string{"code", "title"}, b.ListDisplay)
	assert.True(t, b.ReadOnly)

	assert.Equal(t, "event_id", cfg["audit_log"].PKColumn)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadDuplicateTable(t *testing.T) {
	path := writeCatalog(t, `
models:
  - table: booking
  - table: BOOKING
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate table")
}

func TestLoadEntryWithoutTable(t *testing.T) {
	path := writeCatalog(t, `
models:
  - name: Orphan
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without table")
}

func TestLoadBrokenYAML(t *testing.T) {
	path := writeCatalog(t, "models: [отряд: {{")
	_, err := Load(path)
	assert.Error(t, err)
}
