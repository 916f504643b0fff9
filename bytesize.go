package formdata

import (
	"math"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

const (
	// ErrUnknownUnit is returned by [ParseSize] for an unrecognised suffix.
	ErrUnknownUnit = errors.ConstError("unknown size unit")

	// ErrInvalidSize is returned by [ParseSize] when no digits are present or
	// the value does not fit in an int64.
	ErrInvalidSize = errors.ConstError("invalid size")
)

var (
	formatSuffixes = []string{"", "K", "M", "G", "T"}
	parseUnits     = []string{"B", "K", "M", "G", "T", "P"}
)

// FormatSize renders a byte count in human readable form using 1024 based
// units and at most two decimals, e.g. 12345 becomes "12.06K". Zero (and any
// negative count) renders as "0".
func FormatSize(n int64) string {
	if n <= 0 {
		return "0"
	}

	exp := 0
	unit := int64(1)
	for exp < len(formatSuffixes)-1 && n/unit >= 1024 {
		unit *= 1024
		exp++
	}

	mantissa := math.Round(float64(n)/float64(unit)*100) / 100
	return strconv.FormatFloat(mantissa, 'f', -1, 64) + formatSuffixes[exp]
}

// ParseSize converts a formatted size such as "2M", "512KB" or "1024" back to
// bytes. Only the leading digits are used, so "1.5K" is read as 1K.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, errors.Annotatef(ErrInvalidSize, "%q", s)
	}
	number, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, errors.Annotatef(ErrInvalidSize, "%q", s)
	}

	var suffix strings.Builder
	for _, r := range s[end:] {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') {
			suffix.WriteRune(r)
		}
	}
	if suffix.Len() == 0 {
		return number, nil
	}

	exp, ok := unitExponent(strings.ToUpper(suffix.String()))
	if !ok {
		return 0, errors.Annotatef(ErrUnknownUnit, "%q", s)
	}
	for i := 0; i < exp; i++ {
		if number > math.MaxInt64/1024 {
			return 0, errors.Annotatef(ErrInvalidSize, "%q overflows", s)
		}
		number *= 1024
	}
	return number, nil
}

// unitExponent accepts both the short ("M") and the long ("MB") form.
func unitExponent(suffix string) (int, bool) {
	for i, u := range parseUnits {
		if suffix == u || (i > 0 && suffix == u+"B") {
			return i, true
		}
	}
	return 0, false
}
