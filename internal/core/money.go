// Package core provides money parsing and handling utilities.
//
// Amounts are tracked in whole currency units; there are no fractional parts.
package core

import (
	"strconv"
	"strings"
)

// ParseAmount converts a user supplied string to a positive whole amount.
//
// A single kind of thousands separator (comma, dot, space, underscore) may
// group the digits in threes from the right, so "12,000", "12.000" and
// "12 000" all parse as 12000. Signs, fractions ("12.5", "9.99"), irregular
// grouping and anything non-numeric are rejected, as is zero.
//
// Examples:
//
//	ParseAmount("250")    -> 250, nil
//	ParseAmount("12,000") -> 12000, nil
//	ParseAmount("9.99")   -> 0, ErrInvalidAmount
//	ParseAmount("-5")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}

	var sep rune
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == ',' || r == '.' || r == ' ' || r == '_':
			if sep != 0 && sep != r {
				return 0, ErrInvalidAmount
			}
			sep = r
		default:
			return 0, ErrInvalidAmount
		}
	}

	digits := s
	if sep != 0 {
		groups := strings.Split(s, string(sep))
		if len(groups[0]) < 1 || len(groups[0]) > 3 {
			return 0, ErrInvalidAmount
		}
		for _, g := range groups[1:] {
			if len(g) != 3 {
				return 0, ErrInvalidAmount
			}
		}
		digits = strings.Join(groups, "")
	}

	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// Format renders the amount with thousands separators, e.g. "-12,345".
func (m Money) Format() string {
	units := m.Units
	neg := units < 0
	if neg {
		units = -units
	}
	digits := strconv.FormatInt(units, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
