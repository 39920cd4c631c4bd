// Package config loads the contfrac configuration file.
//
// The file is YAML, decoded strictly onto the defaults, then validated
// against an embedded CUE schema:
//
//	driver: sqlite            # or postgres
//	database: contfrac.db     # sqlite file
//	dsn: ""                   # postgres connection string
//	root_path: [1]
//	decimal_places: 16
//	max_label_bits: 256       # 0 disables the bound
//	log:
//	  level: info
//	  file: ""
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/contfrac/internal/label"
)

//go:embed schema.cue
var schemaCUE string

// Driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the complete runtime configuration.
type Config struct {
	Driver        string `yaml:"driver" json:"driver"`
	Database      string `yaml:"database" json:"database"`
	DSN           string `yaml:"dsn" json:"dsn"`
	RootPath      []int  `yaml:"root_path" json:"root_path"`
	DecimalPlaces int    `yaml:"decimal_places" json:"decimal_places"`
	MaxLabelBits  int    `yaml:"max_label_bits" json:"max_label_bits"`
	Log           Log    `yaml:"log" json:"log"`
}

// Log configures internal/logging.
type Log struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Driver:        DriverSQLite,
		Database:      "contfrac.db",
		RootPath:      []int{1},
		DecimalPlaces: label.DefaultPlaces,
		MaxLabelBits:  int(label.DefaultLimit),
		Log:           Log{Level: "info"},
	}
}

// Load reads path over the defaults and validates the result. An empty
// path returns the validated defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg against the embedded schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	v := schema.Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Root returns the configured root ordinal path.
func (c Config) Root() label.Path {
	return label.Path(append([]int(nil), c.RootPath...))
}

// Limit returns the configured label bound.
func (c Config) Limit() label.Limit {
	return label.Limit(c.MaxLabelBits)
}
