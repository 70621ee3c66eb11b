package matchstats

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// NUMERIC(5,2) percentages are bounded to a real percentage.
	maxPercent = decimal.NewFromInt(100)
	// NUMERIC(4,2) holds at most 99.99.
	maxExpectedGoals = decimal.RequireFromString("99.99")
)

// parseCount accepts whole JSON numbers and numeric strings. Fractions, negatives
// and anything unparseable yield NULL.
func parseCount(raw any) *int {
	value, ok := toDecimal(raw)
	if !ok || !value.IsInteger() || value.IsNegative() {
		return nil
	}
	if value.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return nil
	}
	out := int(value.IntPart())
	return &out
}

// parsePercent turns "55%", "55" or 55 into 55.00.
func parsePercent(raw any) decimal.NullDecimal {
	value, ok := toDecimal(raw)
	if !ok || value.IsNegative() || value.GreaterThan(maxPercent) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(value.Round(2))
}

func parseBoundedDecimal(raw any, limit decimal.Decimal) decimal.NullDecimal {
	value, ok := toDecimal(raw)
	if !ok || value.Abs().Round(2).GreaterThan(limit) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(value.Round(2))
}

func toDecimal(raw any) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case nil:
		return decimal.Decimal{}, false
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(v), true
	case float32:
		return toDecimal(float64(v))
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case int32:
		return decimal.NewFromInt(int64(v)), true
	case json.Number:
		return parseDecimalString(v.String())
	case string:
		return parseDecimalString(v)
	default:
		return decimal.Decimal{}, false
	}
}

func parseDecimalString(raw string) (decimal.Decimal, bool) {
	value := strings.TrimSpace(raw)
	value = strings.TrimSpace(strings.TrimSuffix(value, "%"))
	if value == "" {
		return decimal.Decimal{}, false
	}
	out, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return out, true
}
