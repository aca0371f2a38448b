// Package format converts between numbers and the Brazilian text used in
// forms and exported tables.
package format

import (
	"math"
	"strconv"
	"strings"
)

// ParseMoneyOrDefault parses "1.234,56" or "R$ 1.234,56". Text that is
// not a number yields def.
func ParseMoneyOrDefault(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}

	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// Currency formats v as "R$ 1.234,56".
func Currency(v float64) string {
	if math.IsNaN(v) || v == 0 {
		return "R$ 0,00"
	}
	return "R$ " + brNumber(v)
}

// Percent formats v as "12,34%".
func Percent(v float64) string {
	if math.IsNaN(v) {
		return "0,00%"
	}
	return strings.Replace(strconv.FormatFloat(v, 'f', 2, 64), ".", ",", 1) + "%"
}

// Millions formats v divided by one million, "R$ 1,23".
func Millions(v float64) string {
	if math.IsNaN(v) || v == 0 {
		return "R$ 0,00"
	}
	return "R$ " + brNumber(v/1_000_000)
}

// brNumber renders v with two decimals, "." as thousands separator and ","
// as decimal separator.
func brNumber(v float64) string {
	s := strconv.FormatFloat(math.Abs(v), 'f', 2, 64)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if v < 0 {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}
