package config

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aevon-lab/metric-oracle/internal/core/oracle"
	"github.com/aevon-lab/metric-oracle/internal/core/series"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the top-level application config plus the resolved fixture series.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Generator GeneratorConfig `koanf:"generator"`
	Oracle    OracleConfig    `koanf:"oracle"`
	Files     FilesConfig     `koanf:"files"`

	// Fixtures is populated by Load after parsing the series fixture files.
	Fixtures FixtureLoadingConfig `koanf:"-"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // debug | release
}

type GeneratorConfig struct {
	Records         int      `koanf:"records"`
	ValuesPerRecord int      `koanf:"values_per_record"`
	LowerLimit      int64    `koanf:"lower_limit"`
	UpperLimit      int64    `koanf:"upper_limit"` // exclusive
	Kinds           []string `koanf:"kinds"`
	NamePrefix      string   `koanf:"name_prefix"`
	Seed            uint64   `koanf:"seed"` // 0 = seed from the clock
}

type OracleConfig struct {
	Boundaries  []float64 `koanf:"boundaries"`
	Quantiles   []float64 `koanf:"quantiles"` // fractions in [0, 1]
	WorkerCount int       `koanf:"worker_count"`
}

type FilesConfig struct {
	DataFile      string `koanf:"data_file"`
	AnswersFile   string `koanf:"answers_file"`
	ResultsFile   string `koanf:"results_file"`
	SeriesDir     string `koanf:"series_dir"` // optional hand-written fixtures
	MaxMismatches int    `koanf:"max_mismatches"`
}

type FixtureLoadingConfig struct {
	Dir    string
	Series []series.Series
}

// Options converts the configured boundaries and quantiles for the oracle.
func (c OracleConfig) Options() oracle.Options {
	return oracle.Options{
		Boundaries: oracle.FromFloats(c.Boundaries...),
		Quantiles:  oracle.FromFloats(c.Quantiles...),
	}
}

// ParsedKinds resolves the configured kind names.
func (c GeneratorConfig) ParsedKinds() ([]oracle.Kind, error) {
	kinds := make([]oracle.Kind, 0, len(c.Kinds))
	for _, name := range c.Kinds {
		k, err := oracle.ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	if c.Generator.Records < 0 {
		return fmt.Errorf("generator.records must be >= 0")
	}
	if c.Generator.ValuesPerRecord < 1 {
		return fmt.Errorf("generator.values_per_record must be >= 1")
	}
	if c.Generator.UpperLimit <= c.Generator.LowerLimit {
		return fmt.Errorf("generator.upper_limit must be > generator.lower_limit")
	}
	if int64(c.Generator.ValuesPerRecord) > c.Generator.UpperLimit-c.Generator.LowerLimit {
		return fmt.Errorf("generator.values_per_record %d exceeds the %d distinct values in range",
			c.Generator.ValuesPerRecord, c.Generator.UpperLimit-c.Generator.LowerLimit)
	}
	if len(c.Generator.Kinds) == 0 {
		return fmt.Errorf("generator.kinds must not be empty")
	}
	if _, err := c.Generator.ParsedKinds(); err != nil {
		return fmt.Errorf("invalid generator.kinds: %w", err)
	}

	for _, b := range c.Oracle.Boundaries {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return fmt.Errorf("invalid oracle.boundaries value %v (must be finite)", b)
		}
	}
	if !sort.Float64sAreSorted(c.Oracle.Boundaries) {
		return fmt.Errorf("oracle.boundaries must be ascending, got %v", c.Oracle.Boundaries)
	}
	for i := 1; i < len(c.Oracle.Boundaries); i++ {
		if c.Oracle.Boundaries[i] == c.Oracle.Boundaries[i-1] {
			return fmt.Errorf("oracle.boundaries must not repeat %v", c.Oracle.Boundaries[i])
		}
	}
	for _, q := range c.Oracle.Quantiles {
		if math.IsNaN(q) || q < 0 || q > 1 {
			return fmt.Errorf("invalid oracle.quantiles value %v (must be within [0, 1])", q)
		}
	}
	if c.Oracle.WorkerCount <= 0 {
		return fmt.Errorf("oracle.worker_count must be > 0")
	}

	if strings.TrimSpace(c.Files.DataFile) == "" {
		return fmt.Errorf("files.data_file is required")
	}
	if strings.TrimSpace(c.Files.AnswersFile) == "" {
		return fmt.Errorf("files.answers_file is required")
	}
	if c.Files.MaxMismatches <= 0 {
		return fmt.Errorf("files.max_mismatches must be > 0")
	}

	return nil
}

// Load parses config from file + env, validates it, then loads the series fixtures.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":                 8080,
		"server.host":                 "0.0.0.0",
		"server.max_body_size_mb":     1,
		"server.mode":                 "release",
		"generator.records":           2000,
		"generator.values_per_record": 8,
		"generator.lower_limit":       -50,
		"generator.upper_limit":       50,
		"generator.kinds":             []string{"hist", "dist", "sum", "mmsc", "lval"},
		"generator.name_prefix":       "p2",
		"generator.seed":              0,
		"oracle.boundaries":           []float64{-25, 0, 25},
		"oracle.quantiles":            []float64{0.25, 0.5, 0.75},
		"oracle.worker_count":         10,
		"files.data_file":             "data/PrometheusDataSecond.csv",
		"files.answers_file":          "data/PrometheusAnswersSecond.csv",
		"files.results_file":          "data/pipelineTwoResults.csv",
		"files.series_dir":            "",
		"files.max_mismatches":        20,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// ORACLE_GENERATOR__RECORDS=100 overrides generator.records
	if err := k.Load(env.Provider("ORACLE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "ORACLE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Fixtures = FixtureLoadingConfig{Dir: cfg.Files.SeriesDir}
	if cfg.Files.SeriesDir != "" {
		repo, err := series.NewFileSystemRepository(cfg.Files.SeriesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load series fixtures: %w", err)
		}
		fixtures, err := repo.List(context.Background(), "")
		if err != nil {
			return nil, fmt.Errorf("failed to list series fixtures: %w", err)
		}
		cfg.Fixtures.Series = fixtures
	}

	return &cfg, nil
}
