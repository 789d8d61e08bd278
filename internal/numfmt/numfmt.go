// Package numfmt renders coordinates as fixed-point decimal text.
package numfmt

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNotFinite        = errors.New("coordinate is not a finite number")
	ErrNegativeDecimals = errors.New("decimals must not be negative")
)

// Round rounds v half to even at the given number of fractional digits.
// A negative count returns v unchanged.
func Round(v float64, decimals int) float64 {
	if decimals < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', decimals, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// Format renders v with exactly decimals fractional digits. The value is
// rounded half to even, printed in its shortest form and right-padded with
// zeros. Exponent notation is never produced and the sign of v is kept.
func Format(v float64, decimals int) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", errors.Wrapf(ErrNotFinite, "%v", v)
	}
	if decimals < 0 {
		return "", errors.Wrapf(ErrNegativeDecimals, "%d", decimals)
	}
	if decimals == 0 {
		return strconv.FormatFloat(v, 'f', 0, 64), nil
	}

	r := Round(v, decimals)
	s := strconv.FormatFloat(r, 'f', -1, 64)

	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s + "." + strings.Repeat("0", decimals), nil
	}

	frac := len(s) - dot - 1
	if frac > decimals {
		return strconv.FormatFloat(r, 'f', decimals, 64), nil
	}
	return s + strings.Repeat("0", decimals-frac), nil
}

// Append is like Format but appends to dst.
func Append(dst []byte, v float64, decimals int) ([]byte, error) {
	s, err := Format(v, decimals)
	if err != nil {
		return dst, err
	}
	return append(dst, s...), nil
}
