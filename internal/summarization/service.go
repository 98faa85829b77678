package summarization

import (
	"context"
	"errors"
	"fmt"

	v1 "github.com/aevon-lab/metric-oracle/internal/api/v1"
	"github.com/aevon-lab/metric-oracle/internal/core/oracle"
	"github.com/aevon-lab/metric-oracle/internal/pipeline"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ErrInvalidRequest marks request validation errors that should return HTTP 400.
var ErrInvalidRequest = errors.New("invalid summary request")

// Service exposes the oracle over HTTP.
type Service struct {
	defaults         oracle.Options
	workerCount      int
	maxBodySizeBytes int
}

func NewService(defaults oracle.Options, workerCount, maxBodySizeMB int) *Service {
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		defaults:         defaults,
		workerCount:      workerCount,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
	}
}

// RegisterRoutes registers the summarization routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/summaries", s.SummarizeHandler)
	r.POST("/v1/answers", s.AnswersHandler)
}

// Summarize computes the expected summary for one batch.
func (s *Service) Summarize(_ context.Context, req v1.SummaryRequest) (oracle.Summary, error) {
	if err := req.Validate(); err != nil {
		return oracle.Summary{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	kind, err := oracle.ParseKind(req.Kind)
	if err != nil {
		return oracle.Summary{}, err
	}
	return oracle.Summarize(kind, req.Values, s.options(req.Boundaries, req.Quantiles))
}

// Answers computes the answer lines for a batch of series, ordered by series index.
func (s *Service) Answers(ctx context.Context, req v1.AnswersRequest) ([]pipeline.Answer, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	records := make([]pipeline.Record, 0, len(req.Records))
	for i, r := range req.Records {
		kind, err := oracle.ParseKind(r.Kind)
		if err != nil {
			return nil, fmt.Errorf("records[%d]: %w", i, err)
		}
		records = append(records, pipeline.Record{Kind: kind, Values: r.Values, Key: r.Key()})
	}
	return pipeline.BuildAnswers(ctx, records, s.options(req.Boundaries, req.Quantiles), s.workerCount)
}

func (s *Service) options(boundaries, quantiles []decimal.Decimal) oracle.Options {
	opts := s.defaults
	if boundaries != nil {
		opts.Boundaries = boundaries
	}
	if quantiles != nil {
		opts.Quantiles = quantiles
	}
	return opts
}
