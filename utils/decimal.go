package utils

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount normalizes a monetary value arriving over JSON.
//
// POS clients are loose about money: amounts show up as numbers, numeric
// strings, or user-formatted strings ("20,000", "NGN 1,500.50", "$ -20").
// Parse once here; everything past this boundary is strictly decimal.
func ParseAmount(i interface{}) (decimal.Decimal, error) {
	switch v := i.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s != "" {
			s = strings.ReplaceAll(s, ",", "")
		}
		neg := false
		if strings.HasPrefix(s, "-") {
			neg = true
			s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
		}
		// Strip currency symbols and codes: keep digits, '.', and an inner '-'.
		var b strings.Builder
		b.Grow(len(s) + 1)
		for _, r := range s {
			if (r >= '0' && r <= '9') || r == '.' {
				b.WriteRune(r)
			} else if r == '-' {
				neg = true
			}
		}
		clean := b.String()
		if clean == "" {
			return decimal.NewFromInt(0), ErrorInvalidAmount
		}
		if neg {
			clean = "-" + clean
		}

		val, err := decimal.NewFromString(clean)
		if err != nil {
			return decimal.NewFromInt(0), err
		}
		return val, nil
	case json.Number:
		val, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.NewFromInt(0), err
		}
		return val, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case nil:
		return decimal.NewFromInt(0), ErrorInvalidAmount
	default:
		return decimal.NewFromInt(0), fmt.Errorf("invalid value of type %T", i)
	}
}

// Amount is a decimal that accepts string-or-number JSON payloads.
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var raw interface{}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	d, err := ParseAmount(raw)
	if err != nil {
		return err
	}
	a.Decimal = d
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}
