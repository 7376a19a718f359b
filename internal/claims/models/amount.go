package models

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amount is a currency-agnostic monetary value held in minor units (1/100)
// so sums and comparisons stay exact.
type Amount int64

const minorPerUnit = 100

// ParseAmount reads a decimal string with at most two fractional digits.
func ParseAmount(raw string) (Amount, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, validationError("amount_claimed is required")
	}
	if strings.HasPrefix(s, "-") {
		return 0, validationError("amount_claimed must be positive")
	}
	s = strings.TrimPrefix(s, "+")

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || (hasFrac && frac == "") {
		return 0, validationError("amount_claimed is not a decimal number")
	}
	if len(frac) > 2 {
		return 0, validationError("amount_claimed supports at most two decimal places")
	}
	for len(frac) < 2 {
		frac += "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, validationError("amount_claimed is not a decimal number")
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, validationError("amount_claimed is not a decimal number")
	}
	if units > (math.MaxInt64-cents)/minorPerUnit {
		return 0, validationError("amount_claimed is too large")
	}
	return Amount(units*minorPerUnit + cents), nil
}

// AmountFromUnits builds an Amount from whole currency units.
func AmountFromUnits(units int64) Amount {
	return Amount(units * minorPerUnit)
}

func (a Amount) IsPositive() bool { return a > 0 }

// Minor returns the value in minor units.
func (a Amount) Minor() int64 { return int64(a) }

// Float returns the value in whole units, for statistics only.
func (a Amount) Float() float64 { return float64(a) / minorPerUnit }

func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/minorPerUnit, v%minorPerUnit)
}

// MarshalJSON renders the amount as a JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	parsed, err := ParseAmount(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
