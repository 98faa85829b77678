package v1

import (
	"fmt"

	"github.com/aevon-lab/metric-oracle/internal/core/oracle"
	"github.com/aevon-lab/metric-oracle/internal/core/series"
	"github.com/shopspring/decimal"
)

// SummaryRequest asks for the expected summary of one batch.
// Nil Boundaries or Quantiles fall back to the server defaults; an explicit
// empty list disables buckets or quantiles.
type SummaryRequest struct {
	// Kind is the aggregation kind, short ("lval") or long ("last-value").
	Kind string `json:"kind"`

	// Values are the observations in sampling order. JSON numbers and
	// decimal strings are both accepted.
	Values []decimal.Decimal `json:"values"`

	Boundaries []decimal.Decimal `json:"boundaries,omitempty"`
	Quantiles  []decimal.Decimal `json:"quantiles,omitempty"`
}

// Validate ensures the request names a kind. Batch contents are checked by the oracle.
func (r *SummaryRequest) Validate() error {
	if r.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	return nil
}

// SummaryResponse wraps the computed summary.
type SummaryResponse struct {
	Summary oracle.Summary `json:"summary"`
}

// SeriesRecord is one series of an answers request.
type SeriesRecord struct {
	Kind        string            `json:"kind"`
	Values      []decimal.Decimal `json:"values"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Labels      []series.Label    `json:"labels"`
}

// Key returns the series identity of the record.
func (r SeriesRecord) Key() series.Key {
	labels := series.Labels(r.Labels)
	if labels == nil {
		labels = series.Labels{}
	}
	return series.Key{Name: r.Name, Description: r.Description, Labels: labels}
}

// Validate ensures the record has a kind and a renderable series key.
func (r *SeriesRecord) Validate() error {
	if r.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	return r.Key().Validate()
}

// AnswersRequest asks for the answer lines of a batch of series.
type AnswersRequest struct {
	Records    []SeriesRecord    `json:"records"`
	Boundaries []decimal.Decimal `json:"boundaries,omitempty"`
	Quantiles  []decimal.Decimal `json:"quantiles,omitempty"`
}

// Validate ensures every record is well formed.
func (r *AnswersRequest) Validate() error {
	if len(r.Records) == 0 {
		return fmt.Errorf("records must not be empty")
	}
	for i := range r.Records {
		if err := r.Records[i].Validate(); err != nil {
			return fmt.Errorf("records[%d]: %w", i, err)
		}
	}
	return nil
}

// AnswersResponse holds answer lines ordered by series index.
type AnswersResponse struct {
	Answers []string `json:"answers"`
}
