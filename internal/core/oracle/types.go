package oracle

import (
	"github.com/shopspring/decimal"
)

// Kind selects which summary fields an aggregation produces.
type Kind string

// Supported aggregation kinds. The short names match the record format
// used by the data and answer files.
const (
	KindSum       Kind = "sum"
	KindLastValue Kind = "lval"
	KindMMSC      Kind = "mmsc" // min, max, sum, count
	KindDist      Kind = "dist" // mmsc plus quantiles
	KindHist      Kind = "hist"
)

// Kinds lists every supported kind in a stable order.
var Kinds = []Kind{KindHist, KindDist, KindSum, KindMMSC, KindLastValue}

var kindAliases = map[string]Kind{
	"last-value":        KindLastValue,
	"min-max-sum-count": KindMMSC,
	"distribution":      KindDist,
	"histogram":         KindHist,
}

func (k Kind) String() string { return string(k) }

// Options carries the histogram boundaries and quantile ranks applied by
// the hist and dist kinds. Quantile ranks are fractions in [0, 1].
type Options struct {
	Boundaries []decimal.Decimal
	Quantiles  []decimal.Decimal
}

// DefaultOptions returns boundaries [-25, 0, 25] and quantiles [0.25, 0.5, 0.75].
func DefaultOptions() Options {
	return Options{
		Boundaries: []decimal.Decimal{
			decimal.NewFromInt(-25),
			decimal.Zero,
			decimal.NewFromInt(25),
		},
		Quantiles: []decimal.Decimal{
			decimal.RequireFromString("0.25"),
			decimal.RequireFromString("0.5"),
			decimal.RequireFromString("0.75"),
		},
	}
}

// Bucket is one cumulative histogram bucket. Count is the number of
// observations strictly less than Boundary. The last bucket of a summary is
// unbounded (Inf is true, Boundary is nil) and always counts every observation.
type Bucket struct {
	Boundary *decimal.Decimal `json:"boundary,omitempty"`
	Inf      bool            `json:"inf,omitempty"`
	Count    int64           `json:"count"`
}

// Quantile is a percentile estimate at Rank, truncated toward zero.
type Quantile struct {
	Rank  decimal.Decimal `json:"rank"`
	Value decimal.Decimal `json:"value"`
}

// Summary is the expected aggregation result for one series.
// Only the fields relevant to Kind are populated; the rest stay at their
// zero value and carry no meaning.
type Summary struct {
	Kind      Kind            `json:"kind"`
	Value     decimal.Decimal `json:"value"` // sum, or last value for lval
	Min       decimal.Decimal `json:"min"`
	Max       decimal.Decimal `json:"max"`
	Count     int64           `json:"count"`
	Buckets   []Bucket        `json:"buckets,omitempty"`
	Quantiles []Quantile      `json:"quantiles,omitempty"`
}

// HasMinMax reports whether Min and Max are meaningful for the summary's kind.
func (s Summary) HasMinMax() bool {
	return s.Kind == KindMMSC || s.Kind == KindDist
}

// HasCount reports whether Count is meaningful for the summary's kind.
func (s Summary) HasCount() bool {
	return s.Kind == KindMMSC || s.Kind == KindDist || s.Kind == KindHist
}
