package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aevon-lab/metric-oracle/internal/core/oracle"
	"github.com/aevon-lab/metric-oracle/internal/core/series"
	"golang.org/x/sync/errgroup"
)

const defaultWorkerCount = 10

// ErrDuplicateSeries is returned when two records share both kind and series key.
var ErrDuplicateSeries = errors.New("duplicate series")

type seriesID struct {
	kind  oracle.Kind
	props string
}

// BuildAnswers runs the oracle once per record and returns the answers
// ordered by the index embedded in each series name. Records are
// independent, so they are summarized concurrently on up to workers
// goroutines; the result does not depend on the worker count.
// The first oracle error aborts the run.
func BuildAnswers(ctx context.Context, records []Record, opts oracle.Options, workers int) ([]Answer, error) {
	if workers <= 0 {
		workers = defaultWorkerCount
	}

	seen := make(map[seriesID]struct{}, len(records))
	for _, rec := range records {
		id := seriesID{kind: rec.Kind, props: rec.Key.String()}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: %s %s", ErrDuplicateSeries, rec.Kind, rec.Key)
		}
		seen[id] = struct{}{}
	}

	slog.Info("[Answers] Summarizing series",
		"series", len(records),
		"workers", workers,
	)

	answers := make([]Answer, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rec := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := oracle.Summarize(rec.Kind, rec.Values, opts)
			if err != nil {
				return fmt.Errorf("series %s: %w", rec.Key, err)
			}
			answers[i] = Answer{Key: rec.Key, Summary: s}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	series.SortByIndex(answers, func(a Answer) series.Key { return a.Key })

	slog.Info("[Answers] Summaries complete", "answers", len(answers))
	return answers, nil
}
