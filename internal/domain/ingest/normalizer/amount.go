// Package normalizer handles locale-variant money, date, and description parsing.
// Converts raw statement cell values into canonical representations for review.
package normalizer

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseSingle converts one raw monetary cell into a signed amount.
// Parenthesis notation "(123.45)" marks a negative value, currency symbols
// and whitespace are stripped, and thousands-separating commas are removed.
// Returns false for empty input, a lone minus sign, or a non-numeric remainder.
func ParseSingle(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, s)

	// A leading minus is honored after the parenthesis check.
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}

	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		val = -math.Abs(val)
	}
	return val, true
}

// ParseAmount resolves a row's signed amount from either a unified amount
// column or split debit/credit columns. A non-empty amount column is
// authoritative and overrides the split columns. Debit resolves negative
// (money out), credit positive; debit wins when both sides are non-zero.
// An explicit zero on either side is a valid zero-amount transaction,
// distinct from "nothing parsed" which returns false.
func ParseAmount(amount, debit, credit string) (float64, bool) {
	if strings.TrimSpace(amount) != "" {
		return ParseSingle(amount)
	}

	d, dok := ParseSingle(debit)
	c, cok := ParseSingle(credit)

	switch {
	case dok && d != 0:
		return -math.Abs(d), true
	case cok && c != 0:
		return math.Abs(c), true
	case dok || cok:
		return 0, true
	}
	return 0, false
}
