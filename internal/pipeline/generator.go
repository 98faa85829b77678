package pipeline

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/aevon-lab/metric-oracle/internal/core/oracle"
	"github.com/aevon-lab/metric-oracle/internal/core/series"
	"github.com/shopspring/decimal"
)

// Generator produces synthetic data records. Every record gets a random kind
// and ValuesPerRecord distinct integers drawn from [Lower, Upper) in random
// order. The same Seed always yields the same records.
type Generator struct {
	Records         int
	ValuesPerRecord int
	Lower           int64
	Upper           int64 // exclusive
	Kinds           []oracle.Kind
	NamePrefix      string // series names look like {NamePrefix}name{i}_{kind}
	Seed            uint64 // 0 picks a seed from the clock
}

// Validate rejects settings that cannot produce a record.
func (g Generator) Validate() error {
	if g.Records < 0 {
		return fmt.Errorf("records must be >= 0, got %d", g.Records)
	}
	if g.ValuesPerRecord < 1 {
		return fmt.Errorf("values per record must be >= 1, got %d", g.ValuesPerRecord)
	}
	if g.Upper <= g.Lower {
		return fmt.Errorf("value range [%d, %d) is empty", g.Lower, g.Upper)
	}
	if int64(g.ValuesPerRecord) > g.Upper-g.Lower {
		return fmt.Errorf("cannot sample %d distinct values from [%d, %d)", g.ValuesPerRecord, g.Lower, g.Upper)
	}
	if len(g.Kinds) == 0 {
		return fmt.Errorf("at least one kind is required")
	}
	for _, k := range g.Kinds {
		if !oracle.ValidKind(k) {
			return fmt.Errorf("kind %q: %w", k, oracle.ErrUnknownKind)
		}
	}
	return nil
}

// EffectiveSeed returns Seed, or a clock-derived seed when Seed is zero.
func (g Generator) EffectiveSeed() uint64 {
	if g.Seed != 0 {
		return g.Seed
	}
	return uint64(time.Now().UnixNano())
}

// Generate returns Records data records using seed.
func (g Generator) Generate(seed uint64) ([]Record, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	records := make([]Record, 0, g.Records)
	for i := 0; i < g.Records; i++ {
		kind := g.Kinds[rng.IntN(len(g.Kinds))]
		raw := sampleWithoutReplacement(rng, g.Lower, g.Upper, g.ValuesPerRecord)

		values := make([]decimal.Decimal, len(raw))
		for j, v := range raw {
			values[j] = decimal.NewFromInt(v)
		}

		records = append(records, Record{
			Kind:   kind,
			Values: values,
			Key: series.Key{
				Name:        fmt.Sprintf("%sname%d_%s", g.NamePrefix, i, kind),
				Description: fmt.Sprintf("description%d", i),
				Labels:      series.Labels{{Key: fmt.Sprintf("key%d", i), Value: fmt.Sprintf("value%d", i)}},
			},
		})
	}
	return records, nil
}

// sampleWithoutReplacement runs a partial Fisher-Yates shuffle over the
// virtual slice [lower, upper), touching only the n positions it swaps.
func sampleWithoutReplacement(rng *rand.Rand, lower, upper int64, n int) []int64 {
	size := upper - lower
	swapped := make(map[int64]int64, 2*n)
	at := func(i int64) int64 {
		if v, ok := swapped[i]; ok {
			return v
		}
		return i
	}

	out := make([]int64, n)
	for i := int64(0); i < int64(n); i++ {
		j := i + rng.Int64N(size-i)
		vi, vj := at(i), at(j)
		swapped[j] = vi
		out[i] = lower + vj
	}
	return out
}
