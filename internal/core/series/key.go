package series

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrNoIndex is returned when a series name carries no embedded index.
var ErrNoIndex = errors.New("series name has no index")

// Label is one key:value pair attached to a series.
type Label struct {
	Key   string `yaml:"key" json:"key"`
	Value string `yaml:"value" json:"value"`
}

// Labels keeps labels in declaration order; the order is part of the
// series identity because it is part of the rendered properties string.
type Labels []Label

// String renders labels as {k:v,k2:v2}.
func (l Labels) String() string {
	parts := make([]string, len(l))
	for i, lbl := range l {
		parts[i] = lbl.Key + ":" + lbl.Value
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// ParseLabels is the inverse of Labels.String.
func ParseLabels(s string) (Labels, error) {
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil, fmt.Errorf("labels %q must be wrapped in braces", s)
	}
	body := s[1 : len(s)-1]
	if body == "" {
		return Labels{}, nil
	}

	var labels Labels
	for _, pair := range strings.Split(body, ",") {
		i := strings.Index(pair, ":")
		if i <= 0 {
			return nil, fmt.Errorf("label %q must be key:value", pair)
		}
		labels = append(labels, Label{Key: pair[:i], Value: pair[i+1:]})
	}
	return labels, nil
}

// Key identifies one series: a name, a description and a label set.
type Key struct {
	Name        string
	Description string
	Labels      Labels
}

// String renders the properties form name,description,{labels}.
func (k Key) String() string {
	return k.Name + "," + k.Description + "," + k.Labels.String()
}

// Validate ensures the key can be rendered and parsed back unchanged, and
// that it is written identically in data lines and answer lines.
func (k Key) Validate() error {
	if k.Name == "" {
		return fmt.Errorf("series name is required")
	}
	if err := checkText("name", k.Name, ",|"); err != nil {
		return err
	}
	if err := checkText("description", k.Description, ",|"); err != nil {
		return err
	}
	for _, l := range k.Labels {
		if l.Key == "" {
			return fmt.Errorf("series %q: label key is required", k.Name)
		}
		if err := checkText("label key", l.Key, ",:{}|"); err != nil {
			return fmt.Errorf("series %q: %w", k.Name, err)
		}
		if err := checkText("label value", l.Value, ",{}|"); err != nil {
			return fmt.Errorf("series %q: %w", k.Name, err)
		}
	}
	return nil
}

// checkText rejects reserved separators, quotes, line breaks and surrounding
// whitespace, any of which would make the csv writer quote the field.
func checkText(field, s, reserved string) error {
	if strings.ContainsAny(s, reserved) {
		return fmt.Errorf("series %s %q must not contain any of %q", field, s, reserved)
	}
	if strings.ContainsAny(s, "\"\r\n") {
		return fmt.Errorf("series %s %q must not contain quotes or line breaks", field, s)
	}
	if strings.TrimSpace(s) != s {
		return fmt.Errorf("series %s %q must not start or end with whitespace", field, s)
	}
	return nil
}

// ParseKey parses the properties form name,description,{labels}.
// Only the first two commas separate fields; the rest belong to the labels.
func ParseKey(s string) (Key, error) {
	fields := strings.SplitN(s, ",", 3)
	if len(fields) != 3 {
		return Key{}, fmt.Errorf("series properties %q must be name,description,{labels}", s)
	}
	labels, err := ParseLabels(fields[2])
	if err != nil {
		return Key{}, fmt.Errorf("series %q: %w", fields[0], err)
	}
	key := Key{Name: fields[0], Description: fields[1], Labels: labels}
	if key.Name == "" {
		return Key{}, fmt.Errorf("series properties %q: name is required", s)
	}
	return key, nil
}

// Index extracts the integer at the end of the first '_' delimited token of
// a series name: p2name17_hist -> 17.
func Index(name string) (int, error) {
	token := name
	if i := strings.IndexByte(name, '_'); i >= 0 {
		token = name[:i]
	}
	start := len(token)
	for start > 0 && token[start-1] >= '0' && token[start-1] <= '9' {
		start--
	}
	if start == len(token) {
		return 0, fmt.Errorf("%w: %q", ErrNoIndex, name)
	}
	n, err := strconv.Atoi(token[start:])
	if err != nil {
		return 0, fmt.Errorf("series %q: %w", name, err)
	}
	return n, nil
}

// SortByIndex orders items by the index embedded in their series name.
// Names without an index sort after indexed ones; ties fall back to the
// full properties string so the order is total.
func SortByIndex[T any](items []T, key func(T) Key) {
	type ranked struct {
		idx   int
		ok    bool
		props string
	}
	ranks := make([]ranked, len(items))
	perm := make([]int, len(items))
	for i, it := range items {
		k := key(it)
		idx, err := Index(k.Name)
		ranks[i] = ranked{idx: idx, ok: err == nil, props: k.String()}
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		ra, rb := ranks[perm[a]], ranks[perm[b]]
		if ra.ok != rb.ok {
			return ra.ok
		}
		if ra.idx != rb.idx {
			return ra.idx < rb.idx
		}
		return ra.props < rb.props
	})

	sorted := make([]T, len(items))
	for i, p := range perm {
		sorted[i] = items[p]
	}
	copy(items, sorted)
}
