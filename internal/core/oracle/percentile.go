package oracle

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Percentile estimates the value at rank q (a fraction in [0, 1]) of an
// ascending slice using linear interpolation between the two order
// statistics around position q*(n-1). The result is not truncated.
// sorted must be non-empty and q must already be range checked.
func Percentile(sorted []decimal.Decimal, q decimal.Decimal) decimal.Decimal {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}

	pos := q.Mul(decimal.NewFromInt(int64(n - 1)))
	lower := pos.Floor()
	i := int(lower.IntPart())
	if i >= n-1 {
		return sorted[n-1]
	}

	frac := pos.Sub(lower)
	if frac.IsZero() {
		return sorted[i]
	}
	return sorted[i].Add(sorted[i+1].Sub(sorted[i]).Mul(frac))
}

func sortedCopy(values []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	copy(out, values)
	sort.Slice(out, func(i, j int) bool { return out[i].LessThan(out[j]) })
	return out
}
