// Package format turns metric values into display strings.
//
// Output mirrors en-US browser formatting: grouped thousands, currency in
// whole dollars, percentages with one decimal. Rounding is half away from
// zero at every precision so the numbers shown match the numbers quoted in
// hover messages.
package format

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Kind tags how a value is displayed.
type Kind string

// Supported kinds. Text is only meaningful for table cells.
const (
	Number   Kind = "number"
	Currency Kind = "currency"
	Percent  Kind = "percent"
	Text     Kind = "string"
)

// Missing is rendered for absent table cells.
const Missing = "—"

// maxGroupedFraction matches the browser default for plain numbers.
const maxGroupedFraction = 3

// ErrUnknownKind is returned by ParseKind for unsupported tags.
var ErrUnknownKind = errors.New("unknown format kind")

var printer = message.NewPrinter(language.AmericanEnglish)

// ParseKind parses a format tag. Empty input yields def.
func ParseKind(s string, def Kind) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return def, nil
	case Number, Currency, Percent, Text:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Numeric reports whether values of this kind are numbers.
func (k Kind) Numeric() bool {
	return k == Number || k == Currency || k == Percent
}

// Value formats v according to k. Text falls back to Grouped.
func Value(v float64, k Kind) string {
	switch k {
	case Currency:
		return Dollars(v)
	case Percent:
		return Fixed(v, 1) + "%"
	default:
		return Grouped(v)
	}
}

// ValueAt formats v according to k with exactly decimals fractional digits.
// Animated counters use it so every sample keeps the target's precision.
func ValueAt(v float64, k Kind, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	switch k {
	case Currency:
		r := Round(v, decimals)
		sign := ""
		if r < 0 {
			sign = "-"
			r = -r
		}
		return sign + "$" + fixedGrouped(r, decimals)
	case Percent:
		return Fixed(v, decimals) + "%"
	default:
		return fixedGrouped(Round(v, decimals), decimals)
	}
}

func fixedGrouped(v float64, decimals int) string {
	return printer.Sprintf("%v", number.Decimal(v,
		number.MinFractionDigits(decimals),
		number.MaxFractionDigits(decimals),
	))
}

// Affixed formats v and wraps it with prefix and suffix.
func Affixed(v float64, k Kind, prefix, suffix string) string {
	return prefix + Value(v, k) + suffix
}

// Grouped renders v with thousands separators and up to three decimals.
func Grouped(v float64) string {
	return printer.Sprintf("%v", number.Decimal(Round(v, maxGroupedFraction), number.MaxFractionDigits(maxGroupedFraction)))
}

// Dollars renders v as whole US dollars, e.g. "$2,450,000" or "-$550".
func Dollars(v float64) string {
	r := Round(v, 0)
	sign := ""
	if r < 0 {
		sign = "-"
		r = -r
	}
	return sign + "$" + printer.Sprintf("%v", number.Decimal(r, number.MaxFractionDigits(0)))
}

// Fixed renders v with exactly decimals digits after the point.
func Fixed(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return strconv.FormatFloat(Round(v, decimals), 'f', decimals, 64)
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}
	f := math.Pow(10, float64(decimals))
	return math.Round(v*f) / f
}

// Decimals returns how many fractional digits the shortest representation
// of v carries: 34.2 -> 1, 142 -> 0, 0.125 -> 3.
func Decimals(v float64) int {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}

// Delta returns the percentage change from previous to current. ok is false
// when previous is zero and the change is undefined.
func Delta(current, previous float64) (pct float64, ok bool) {
	if previous == 0 {
		return 0, false
	}
	return (current - previous) / previous * 100, true
}

// Trend renders a signed delta badge such as "▲ 16.7%" or "▼ 3.1%".
func Trend(delta float64) string {
	arrow := "▲"
	if delta < 0 {
		arrow = "▼"
	}
	return arrow + " " + Fixed(math.Abs(delta), 1) + "%"
}

// Cell formats an arbitrary table value. Numeric kinds accept numbers and
// numeric strings; anything that does not parse is shown verbatim.
func Cell(v any, k Kind) string {
	if v == nil {
		return Missing
	}
	if !k.Numeric() {
		return fmt.Sprint(v)
	}
	n, ok := ToFloat(v)
	if !ok {
		return fmt.Sprint(v)
	}
	return Value(n, k)
}

// ToFloat converts decoded document values to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
