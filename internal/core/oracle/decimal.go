package oracle

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ToDecimal converts a decoded numeric value into an exact decimal.
// YAML and JSON decoders hand back int, float64 or string depending on the
// source; floats go through NewFromFloat which keeps their shortest form.
func ToDecimal(v interface{}) (decimal.Decimal, error) {
	switch val := v.(type) {
	case decimal.Decimal:
		return val, nil
	case float64:
		return decimal.NewFromFloat(val), nil
	case float32:
		return decimal.NewFromFloat32(val), nil
	case int:
		return decimal.NewFromInt(int64(val)), nil
	case int64:
		return decimal.NewFromInt(val), nil
	case int32:
		return decimal.NewFromInt(int64(val)), nil
	case string:
		d, err := decimal.NewFromString(val)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse %q as number: %w", val, err)
		}
		return d, nil
	}
	return decimal.Zero, fmt.Errorf("unsupported numeric type %T", v)
}

// FromInts converts integer observations, the common case for generated batches.
func FromInts(values ...int64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromInt(v)
	}
	return out
}

// FromFloats converts float settings such as configured boundaries or quantile ranks.
func FromFloats(values ...float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromFloat(v)
	}
	return out
}
