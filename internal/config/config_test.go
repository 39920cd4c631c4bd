package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contfrac/internal/label"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, label.Path{1}, cfg.Root())
	assert.Equal(t, label.DefaultLimit, cfg.Limit())
	assert.Equal(t, 16, cfg.DecimalPlaces)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contfrac.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
driver: postgres
dsn: postgres://localhost/contfrac
root_path: [2, 3]
decimal_places: 24
max_label_bits: 0
log:
  level: debug
  file: /tmp/contfrac.log
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Driver)
	assert.Equal(t, "postgres://localhost/contfrac", cfg.DSN)
	assert.Equal(t, label.Path{2, 3}, cfg.Root())
	assert.Equal(t, 24, cfg.DecimalPlaces)
	assert.Equal(t, label.Limit(0), cfg.Limit(), "explicit 0 must not be replaced by the default")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "contfrac.db", cfg.Database, "unset keys keep defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("decimal_place: 12\n"))
	assert.ErrorContains(t, err, "failed to parse YAML")
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"unknown driver", "driver: mysql\n", "driver"},
		{"places too small", "decimal_places: 0\n", "decimal_places"},
		{"places too large", "decimal_places: 65\n", "decimal_places"},
		{"label bits too small", "max_label_bits: 4\n", "max_label_bits"},
		{"empty root", "root_path: []\n", "root_path"},
		{"zero ordinal", "root_path: [1, 0]\n", "root_path"},
		{"bad level", "log: {level: loud}\n", "level"},
		{"postgres needs dsn", "driver: postgres\n", "dsn"},
		{"sqlite needs database", "database: \"\"\n", "database"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorContains(t, err, "invalid config")
			assert.ErrorContains(t, err, tt.field)
		})
	}
}

func TestRoot_ReturnsCopy(t *testing.T) {
	cfg := Default()
	root := cfg.Root()
	root[0] = 9
	assert.Equal(t, []int{1}, cfg.RootPath)
}
