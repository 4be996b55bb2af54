package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

var sixty = decimal.NewFromInt(60)

// FormatDDM renders a signed decimal degree as degrees and decimal minutes with a
// hemisphere letter, e.g. 88.3639 -> 88°21.8340'E. Minutes are (abs-degrees)*60
// in float64, rounded to four digits.
func FormatDDM(value float64, isLatitude bool) string {
	var hemisphere string
	switch {
	case isLatitude && value >= 0:
		hemisphere = "N"
	case isLatitude:
		hemisphere = "S"
	case value >= 0:
		hemisphere = "E"
	default:
		hemisphere = "W"
	}

	abs := math.Abs(value)
	degrees := math.Trunc(abs)
	minutes := (abs - degrees) * 60

	return fmt.Sprintf("%d°%s'%s", int64(degrees), strconv.FormatFloat(minutes, 'f', 4, 64), hemisphere)
}

var ddmPattern = regexp.MustCompile(`^(\d+)°(\d+(?:\.\d+)?)'([NSEW])$`)

// ParseDDM reverses FormatDDM. The result is signed by hemisphere.
func ParseDDM(s string) (float64, error) {
	m := ddmPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("not a degrees-minutes value: %q", s)
	}
	degrees, err := decimal.NewFromString(m[1])
	if err != nil {
		return 0, fmt.Errorf("degrees: %w", err)
	}
	minutes, err := decimal.NewFromString(m[2])
	if err != nil {
		return 0, fmt.Errorf("minutes: %w", err)
	}
	v := degrees.Add(minutes.Div(sixty)).InexactFloat64()
	if m[3] == "S" || m[3] == "W" {
		v = -v
	}
	return v, nil
}
