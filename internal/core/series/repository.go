package series

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aevon-lab/metric-oracle/internal/core/oracle"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Series is one hand-written batch of observations with its expected kind.
type Series struct {
	Key         Key
	Kind        oracle.Kind
	Values      []decimal.Decimal
	Fingerprint string // SHA-256 of the raw YAML file
}

// rawSeries is the on-disk YAML shape.
type rawSeries struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Labels      []Label       `yaml:"labels"`
	Kind        string        `yaml:"kind"`
	Values      []interface{} `yaml:"values"`
}

// Repository loads fixture series.
type Repository interface {
	// Get returns the series with the given name, or an error if not found.
	Get(ctx context.Context, name string) (*Series, error)

	// List returns all loaded series, optionally filtered by kind.
	List(ctx context.Context, kind oracle.Kind) ([]Series, error)
}

// FileSystemRepository loads series fixtures from *.yaml files in a directory.
// Each file holds exactly one series. Files are read once, at construction.
type FileSystemRepository struct {
	dir    string
	series map[string]Series // keyed by Name
}

// NewFileSystemRepository creates a repository and eagerly loads every
// fixture in dir. A missing directory yields an empty repository.
func NewFileSystemRepository(dir string) (*FileSystemRepository, error) {
	repo := &FileSystemRepository{
		dir:    dir,
		series: make(map[string]Series),
	}
	if err := repo.load(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *FileSystemRepository) load() error {
	info, err := os.Stat(r.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("series fixture dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("series fixture path %q is not a directory", r.dir)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading series fixture dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(r.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading series file %s: %w", path, err)
		}

		var raw rawSeries
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				continue // empty or comment-only file
			}
			return fmt.Errorf("parsing series file %s: %w", path, err)
		}
		if raw.isEmpty() {
			continue
		}

		s, err := raw.compile()
		if err != nil {
			return fmt.Errorf("series file %s: %w", path, err)
		}
		if _, exists := r.series[s.Key.Name]; exists {
			return fmt.Errorf("series %q: duplicate series name (check multiple YAML files)", s.Key.Name)
		}
		s.Fingerprint = fmt.Sprintf("%x", sha256.Sum256(data))
		r.series[s.Key.Name] = s
	}
	return nil
}

func (raw rawSeries) isEmpty() bool {
	return raw.Name == "" && raw.Description == "" && raw.Kind == "" &&
		len(raw.Labels) == 0 && len(raw.Values) == 0
}

func (raw rawSeries) compile() (Series, error) {
	kind, err := oracle.ParseKind(raw.Kind)
	if err != nil {
		return Series{}, fmt.Errorf("series %q: %w", raw.Name, err)
	}

	key := Key{Name: raw.Name, Description: raw.Description, Labels: Labels(raw.Labels)}
	if key.Labels == nil {
		key.Labels = Labels{}
	}
	if err := key.Validate(); err != nil {
		return Series{}, err
	}

	if len(raw.Values) == 0 {
		return Series{}, fmt.Errorf("series %q: values must not be empty", raw.Name)
	}
	values := make([]decimal.Decimal, 0, len(raw.Values))
	for i, v := range raw.Values {
		d, err := oracle.ToDecimal(v)
		if err != nil {
			return Series{}, fmt.Errorf("series %q: value %d: %w", raw.Name, i, err)
		}
		values = append(values, d)
	}

	return Series{Key: key, Kind: kind, Values: values}, nil
}

// Get returns the series with the given name, or an error if not found.
func (r *FileSystemRepository) Get(_ context.Context, name string) (*Series, error) {
	s, ok := r.series[name]
	if !ok {
		return nil, fmt.Errorf("series %q not found", name)
	}
	return &s, nil
}

// List returns all loaded series ordered by name, optionally filtered by kind.
func (r *FileSystemRepository) List(_ context.Context, kind oracle.Kind) ([]Series, error) {
	out := make([]Series, 0, len(r.series))
	for _, s := range r.series {
		if kind != "" && s.Kind != kind {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Name < out[j].Key.Name })
	return out, nil
}
