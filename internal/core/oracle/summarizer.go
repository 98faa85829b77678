package oracle

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Summarizer computes the expected summary of one kind for a non-empty,
// already validated batch of observations.
// To add a new kind: implement Summarizer and register it in Summarizers.
type Summarizer interface {
	Summarize(values []decimal.Decimal, opts Options) Summary
}

// Summarizers is the registry of all supported aggregation kinds.
var Summarizers = map[Kind]Summarizer{
	KindSum:       sumSummarizer{},
	KindLastValue: lastValueSummarizer{},
	KindMMSC:      mmscSummarizer{},
	KindDist:      distSummarizer{},
	KindHist:      histSummarizer{},
}

// ValidKind reports whether k is a registered aggregation kind.
func ValidKind(k Kind) bool {
	_, ok := Summarizers[k]
	return ok
}

// ParseKind resolves a short kind name ("lval") or its long form ("last-value").
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if alias, ok := kindAliases[name]; ok {
		return alias, nil
	}
	k := Kind(name)
	if !ValidKind(k) {
		return "", newUnknownKindError(Kind(s))
	}
	return k, nil
}

// Summarize computes the summary a correct metrics SDK must report for the
// given kind and batch. The batch order matters only for lval.
// It never mutates values and holds no state between calls.
func Summarize(kind Kind, values []decimal.Decimal, opts Options) (Summary, error) {
	s, ok := Summarizers[kind]
	if !ok {
		return Summary{}, newUnknownKindError(kind)
	}
	if len(values) == 0 {
		return Summary{}, newInvalidInputError(kind, "values", "at least one observation is required")
	}
	if err := opts.validate(kind); err != nil {
		return Summary{}, err
	}
	return s.Summarize(values, opts), nil
}

func (o Options) validate(kind Kind) error {
	for i := 1; i < len(o.Boundaries); i++ {
		if !o.Boundaries[i].GreaterThan(o.Boundaries[i-1]) {
			return newInvalidInputError(kind, "boundaries",
				"boundaries must be strictly ascending, got %s after %s", o.Boundaries[i], o.Boundaries[i-1])
		}
	}
	one := decimal.NewFromInt(1)
	for _, q := range o.Quantiles {
		if q.IsNegative() || q.GreaterThan(one) {
			return newInvalidInputError(kind, "quantiles", "quantile rank %s is outside [0, 1]", q)
		}
	}
	return nil
}

type sumSummarizer struct{}

func (sumSummarizer) Summarize(values []decimal.Decimal, _ Options) Summary {
	return Summary{Kind: KindSum, Value: decimal.Sum(values[0], values[1:]...)}
}

// lastValueSummarizer keeps the final observation in sampling order, not the largest.
type lastValueSummarizer struct{}

func (lastValueSummarizer) Summarize(values []decimal.Decimal, _ Options) Summary {
	return Summary{Kind: KindLastValue, Value: values[len(values)-1]}
}

type mmscSummarizer struct{}

func (mmscSummarizer) Summarize(values []decimal.Decimal, _ Options) Summary {
	return Summary{
		Kind:  KindMMSC,
		Value: decimal.Sum(values[0], values[1:]...),
		Min:   decimal.Min(values[0], values[1:]...),
		Max:   decimal.Max(values[0], values[1:]...),
		Count: int64(len(values)),
	}
}

// distSummarizer is mmsc plus one independent percentile estimate per rank.
type distSummarizer struct{}

func (distSummarizer) Summarize(values []decimal.Decimal, opts Options) Summary {
	s := mmscSummarizer{}.Summarize(values, opts)
	s.Kind = KindDist

	sorted := sortedCopy(values)
	s.Quantiles = make([]Quantile, 0, len(opts.Quantiles))
	for _, q := range opts.Quantiles {
		s.Quantiles = append(s.Quantiles, Quantile{
			Rank:  q,
			Value: Percentile(sorted, q).Truncate(0),
		})
	}
	return s
}

// histSummarizer counts, per boundary, the observations strictly below it.
// Buckets are cumulative rather than disjoint: each one answers "how many
// values fall below this line", and the final bucket holds every value.
type histSummarizer struct{}

func (histSummarizer) Summarize(values []decimal.Decimal, opts Options) Summary {
	s := Summary{
		Kind:    KindHist,
		Value:   decimal.Sum(values[0], values[1:]...),
		Count:   int64(len(values)),
		Buckets: make([]Bucket, 0, len(opts.Boundaries)+1),
	}
	for _, b := range opts.Boundaries {
		var n int64
		for _, v := range values {
			if v.LessThan(b) {
				n++
			}
		}
		boundary := b
		s.Buckets = append(s.Buckets, Bucket{Boundary: &boundary, Count: n})
	}
	s.Buckets = append(s.Buckets, Bucket{Inf: true, Count: int64(len(values))})
	return s
}
