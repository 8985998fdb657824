// Package format holds the Brazilian display formatters (phone, CPF, BRL)
// and the accent-insensitive text matching used by every search.
package format

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidAmount is returned by ParseBRL for input that is not a number.
var ErrInvalidAmount = errors.New("invalid amount")

// DigitsOnly strips everything but ASCII digits.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func limitDigits(raw string, n int) string {
	d := DigitsOnly(raw)
	if len(d) > n {
		d = d[:n]
	}
	return d
}

// FormatPhoneBR masks up to 11 digits as (99) 9999-9999 or (99) 99999-9999.
// Partial input is masked progressively.
func FormatPhoneBR(raw string) string {
	d := limitDigits(raw, 11)
	switch {
	case d == "":
		return ""
	case len(d) <= 2:
		return "(" + d
	}

	ddd, rest := d[:2], d[2:]
	switch {
	case len(rest) <= 4:
		return fmt.Sprintf("(%s) %s", ddd, rest)
	case len(rest) <= 8:
		return fmt.Sprintf("(%s) %s-%s", ddd, rest[:4], rest[4:])
	default:
		return fmt.Sprintf("(%s) %s-%s", ddd, rest[:5], rest[5:])
	}
}

// FormatCPF masks up to 11 digits as 999.999.999-99, progressively.
func FormatCPF(raw string) string {
	d := limitDigits(raw, 11)
	switch {
	case len(d) <= 3:
		return d
	case len(d) <= 6:
		return d[:3] + "." + d[3:]
	case len(d) <= 9:
		return d[:3] + "." + d[3:6] + "." + d[6:]
	default:
		return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
	}
}

// FormatBRLFromDigits treats the digits of raw as cents.
// Input without digits yields an empty string.
func FormatBRLFromDigits(raw string) string {
	d := DigitsOnly(raw)
	if d == "" {
		return ""
	}
	v, err := decimal.NewFromString(d)
	if err != nil {
		return ""
	}
	return FormatBRL(v.Shift(-2))
}

// FormatBRL renders v as "R$ 1.234,56"; negatives as "-R$ 1,00".
func FormatBRL(v decimal.Decimal) string {
	sign := ""
	if v.IsNegative() {
		sign = "-"
		v = v.Neg()
	}
	fixed := v.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	return sign + "R$ " + groupThousands(intPart) + "," + frac
}

func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// ParseBRL reads "R$ 30.000,00", "30000.00", "30.000" or "30000".
// Empty input is zero.
func ParseBRL(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "R$", "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, nil
	}

	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// Fold lowercases s and strips diacritics so "Júlio" matches "julio".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Contains reports whether needle occurs in haystack ignoring case and accents.
func Contains(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}
