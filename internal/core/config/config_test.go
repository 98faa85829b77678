package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	requireNoError(t, err)

	if cfg.Generator.Records != 2000 || cfg.Generator.ValuesPerRecord != 8 {
		t.Fatalf("unexpected generator defaults: %+v", cfg.Generator)
	}
	if cfg.Generator.LowerLimit != -50 || cfg.Generator.UpperLimit != 50 {
		t.Fatalf("unexpected value range: [%d, %d)", cfg.Generator.LowerLimit, cfg.Generator.UpperLimit)
	}
	kinds, err := cfg.Generator.ParsedKinds()
	requireNoError(t, err)
	if len(kinds) != 5 {
		t.Fatalf("expected 5 kinds, got %v", kinds)
	}

	opts := cfg.Oracle.Options()
	if len(opts.Boundaries) != 3 || opts.Boundaries[0].String() != "-25" {
		t.Fatalf("unexpected boundaries: %v", opts.Boundaries)
	}
	if len(opts.Quantiles) != 3 || opts.Quantiles[1].String() != "0.5" {
		t.Fatalf("unexpected quantiles: %v", opts.Quantiles)
	}
	if len(cfg.Fixtures.Series) != 0 {
		t.Fatalf("expected no fixtures, got %d", len(cfg.Fixtures.Series))
	}
}

func TestLoad_FileAndFixtures(t *testing.T) {
	root := t.TempDir()
	seriesDir := filepath.Join(root, "series")
	requireNoError(t, os.MkdirAll(seriesDir, 0o755))
	requireNoError(t, os.WriteFile(filepath.Join(seriesDir, "latency.yaml"), []byte(`
name: "latency"
description: "request latency"
kind: "dist"
values: [5, 1, 3]
`), 0o644))

	cfgPath := filepath.Join(root, "oracle.yaml")
	requireNoError(t, os.WriteFile(cfgPath, []byte(`
generator:
  records: 10
  values_per_record: 4
  lower_limit: 0
  upper_limit: 10
  kinds: ["sum", "histogram"]
  seed: 42
oracle:
  boundaries: [2, 4.5]
  quantiles: [0.9]
  worker_count: 3
files:
  data_file: "`+filepath.Join(root, "data.csv")+`"
  answers_file: "`+filepath.Join(root, "answers.csv")+`"
  series_dir: "`+seriesDir+`"
`), 0o644))

	cfg, err := Load(cfgPath)
	requireNoError(t, err)

	if cfg.Generator.Records != 10 || cfg.Generator.Seed != 42 {
		t.Fatalf("file values not applied: %+v", cfg.Generator)
	}
	if cfg.Oracle.WorkerCount != 3 {
		t.Fatalf("expected worker_count 3, got %d", cfg.Oracle.WorkerCount)
	}
	if got := cfg.Oracle.Options().Boundaries[1].String(); got != "4.5" {
		t.Fatalf("expected boundary 4.5, got %s", got)
	}
	if len(cfg.Fixtures.Series) != 1 || cfg.Fixtures.Series[0].Key.Name != "latency" {
		t.Fatalf("expected latency fixture, got %+v", cfg.Fixtures.Series)
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("ORACLE_GENERATOR__RECORDS", "7")
	t.Setenv("ORACLE_SERVER__PORT", "9090")

	cfg, err := Load("")
	requireNoError(t, err)
	if cfg.Generator.Records != 7 {
		t.Fatalf("expected env records 7, got %d", cfg.Generator.Records)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected env port 9090, got %d", cfg.Server.Port)
	}
}

func TestLoad_InvalidSettingsFailStartup(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "port",
			body: "server:\n  port: -1\n",
			want: "invalid server.port",
		},
		{
			name: "unknown kind",
			body: "generator:\n  kinds: [\"avg\"]\n",
			want: "invalid generator.kinds",
		},
		{
			name: "range too small",
			body: "generator:\n  values_per_record: 20\n  lower_limit: 0\n  upper_limit: 10\n",
			want: "exceeds the 10 distinct values",
		},
		{
			name: "descending boundaries",
			body: "oracle:\n  boundaries: [25, 0]\n",
			want: "oracle.boundaries must be ascending",
		},
		{
			name: "repeated boundaries",
			body: "oracle:\n  boundaries: [0, 0]\n",
			want: "must not repeat",
		},
		{
			name: "percent style quantile",
			body: "oracle:\n  quantiles: [50]\n",
			want: "invalid oracle.quantiles",
		},
		{
			name: "infinite boundary",
			body: "oracle:\n  boundaries: [-25, 0, .inf]\n",
			want: "invalid oracle.boundaries value +Inf",
		},
		{
			name: "negative infinite boundary",
			body: "oracle:\n  boundaries: [-.inf, 0]\n",
			want: "invalid oracle.boundaries value -Inf",
		},
		{
			name: "nan quantile",
			body: "oracle:\n  quantiles: [.nan]\n",
			want: "invalid oracle.quantiles value NaN",
		},
		{
			name: "missing data file",
			body: "files:\n  data_file: \"\"\n",
			want: "files.data_file is required",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfgPath := filepath.Join(t.TempDir(), "oracle.yaml")
			requireNoError(t, os.WriteFile(cfgPath, []byte(tc.body), 0o644))

			_, err := Load(cfgPath)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q error, got %v", tc.want, err)
			}
		})
	}
}

func TestLoad_InvalidFixtureFailsStartup(t *testing.T) {
	root := t.TempDir()
	requireNoError(t, os.WriteFile(filepath.Join(root, "bad.yaml"), []byte(`
name: "bad"
kind: "average"
values: [1]
`), 0o644))

	cfgPath := filepath.Join(root, "oracle.yaml")
	requireNoError(t, os.WriteFile(cfgPath, []byte("files:\n  series_dir: \""+root+"\"\n"), 0o644))

	_, err := Load(cfgPath)
	if err == nil || !strings.Contains(err.Error(), "failed to load series fixtures") {
		t.Fatalf("expected fixture load error, got %v", err)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to load config file") {
		t.Fatalf("expected config file error, got %v", err)
	}
}

func requireNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
