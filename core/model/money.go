package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Money is an amount in cents. Tolls never go through binary floating point.
type Money int64

// Cents returns the amount for the given number of cents.
func Cents(c int64) Money { return Money(c) }

// Dollars returns the amount for whole dollars and cents, e.g. Dollars(2, 50) is $2.50.
func Dollars(d, c int64) Money { return Money(d*100 + c) }

// Cents returns the amount in minor units.
func (m Money) Cents() int64 { return int64(m) }

func (m Money) Add(o Money) Money { return m + o }
func (m Money) Sub(o Money) Money { return m - o }

// Decimal formats the amount with exactly two fraction digits ("2.50").
func (m Money) Decimal() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// String formats the amount as dollars ("$2.50").
func (m Money) String() string {
	if m < 0 {
		return "-$" + (-m).Decimal()
	}
	return "$" + m.Decimal()
}

// ParseMoney parses a decimal string with at most two fraction digits.
// A leading "$" is accepted.
func ParseMoney(s string) (Money, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "$")
	neg := strings.HasPrefix(raw, "-")
	raw = strings.TrimPrefix(raw, "-")
	whole, frac, hasFrac := strings.Cut(raw, ".")
	if whole == "" || strings.Trim(whole, "0123456789") != "" || (hasFrac && (frac == "" || len(frac) > 2)) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	d, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	var c int64
	if hasFrac {
		if len(frac) == 1 {
			frac += "0"
		}
		if strings.Trim(frac, "0123456789") != "" {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		c, _ = strconv.ParseInt(frac, 10, 64)
	}
	m := Dollars(d, c)
	if neg {
		m = -m
	}
	return m, nil
}

// MarshalJSON encodes the amount as a decimal string so clients never see a float.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.Decimal())), nil
}

// UnmarshalJSON accepts the representation produced by MarshalJSON.
func (m *Money) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("amount must be a string: %w", err)
	}
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
