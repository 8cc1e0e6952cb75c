package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// largeMagnitude is where fixed ten-decimal rendering stops being exact.
const largeMagnitude = 1e15

// FormatNumber renders a float without trailing zeros, rounding away
// binary noise past ten decimal places. Integral values print as integers.
// Magnitudes from 1e15 up, and non-finite values, use the shortest
// exponent form.
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= largeMagnitude {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	r := math.Round(v*1e10) / 1e10
	if r == 0 {
		return "0"
	}
	s := fmt.Sprintf("%.10f", r)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
