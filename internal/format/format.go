// Package format renders and parses the localized numeric representations
// used by currency, percentage and number columns.
//
// Formatting goes through golang.org/x/text so that pt-BR output
// ("1.234,56", "R$ 10,00") matches what the data-collection forms display.
// Parsing is deliberately forgiving: it accepts either separator convention
// and strips currency symbols, because cell values arrive as whatever the
// user typed.
package format

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Number formats v with the given locale and a fixed number of decimals.
func Number(v float64, locale string, decimals int) string {
	p := message.NewPrinter(language.Make(locale))
	return p.Sprint(number.Decimal(v,
		number.MinFractionDigits(decimals),
		number.MaxFractionDigits(decimals),
	))
}

// Currency formats v as an amount of the given ISO 4217 currency.
// An unknown code falls back to plain number formatting.
func Currency(v float64, locale, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return Number(v, locale, 2)
	}
	p := message.NewPrinter(language.Make(locale))
	return p.Sprint(currency.Symbol(unit.Amount(v)))
}

// Percent formats v as a percentage. Values are stored as plain numbers
// (12.5 means 12.5%), so this is number formatting plus the suffix.
func Percent(v float64, locale string, decimals int) string {
	return Number(v, locale, decimals) + "%"
}

// ParseNumber extracts a numeric value from user input.
//
// Both "1.234,56" and "1,234.56" parse to 1234.56: when both separators are
// present the rightmost one is the decimal separator. A lone separator is
// treated as a thousands separator only when followed by exactly three
// digits with no other evidence. Currency symbols, percent signs and spaces
// are ignored. Empty or non-numeric input returns false.
func ParseNumber(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			return r
		default:
			return -1
		}
	}, s)
	if cleaned == "" || cleaned == "-" {
		return 0, false
	}

	dot := strings.LastIndexByte(cleaned, '.')
	comma := strings.LastIndexByte(cleaned, ',')

	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case comma >= 0:
		if strings.Count(cleaned, ",") > 1 {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		} else {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		}
	case dot >= 0:
		if strings.Count(cleaned, ".") > 1 || len(cleaned)-dot-1 == 3 {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ToFloat coerces an arbitrary cell value to a number.
// Strings go through ParseNumber; booleans and nil are not numbers.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		return ParseNumber(n)
	default:
		return 0, false
	}
}

// Digits returns only the decimal digits of s. Used by the document-number
// and phone format checks.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteByte(byte(r))
		}
	}
	return b.String()
}

// Plain renders a value for non-numeric display without locale processing.
func Plain(v any) string {
	if v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case bool:
		if s {
			return "true"
		}
		return "false"
	case float64:
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
