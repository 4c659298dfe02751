package threshold

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/consol-monitoring/check_file/pkg/convert"
)

// Range contains a parsed warning or critical threshold:
// https://www.monitoring-plugins.org/doc/guidelines.html#THRESHOLDFORMAT
//
// A missing lower bound means unbounded below, a missing upper bound unbounded above.
// Exclusive ranges alert when the value is outside of the bounds, inclusive
// ranges (prefixed with @) alert when the value is inside.
type Range struct {
	raw       string
	lower     float64
	hasLower  bool
	upper     float64
	hasUpper  bool
	inclusive bool
}

var (
	regexDigit = regexp.MustCompile(`^[-+]?\d+(\.\d+)?$`)

	// ErrInvalidRangeSyntax is returned for threshold definitions which cannot be parsed.
	ErrInvalidRangeSyntax = errors.New("invalid range syntax")

	// ErrFirstBiggerThanSecond is returned when the lower bound is bigger than the upper bound.
	ErrFirstBiggerThanSecond = errors.New("first argument is bigger than second")
)

// String returns the threshold exactly as it was given.
func (r *Range) String() string {
	return r.raw
}

// Lower returns the lower bound and false if there is none.
func (r *Range) Lower() (float64, bool) {
	return r.lower, r.hasLower
}

// Upper returns the upper bound and false if there is none.
func (r *Range) Upper() (float64, bool) {
	return r.upper, r.hasUpper
}

// Inclusive returns true if values inside the range raise an alert.
func (r *Range) Inclusive() bool {
	return r.inclusive
}

// Parse constructs a Range from a threshold definition like "10", "10:",
// "~:10", "10:20" or "@10:20". Invalid definitions result in an error
// wrapping ErrInvalidRangeSyntax or ErrFirstBiggerThanSecond.
func Parse(def string) (*Range, error) {
	rng := &Range{raw: def}

	def = strings.TrimSpace(def)
	if def == "" {
		return nil, fmt.Errorf("%w: empty threshold given", ErrInvalidRangeSyntax)
	}

	if strings.HasPrefix(def, "@") {
		rng.inclusive = true
		def = strings.TrimPrefix(def, "@")
	}
	if strings.Contains(def, "@") {
		return nil, fmt.Errorf("%w: '@' is only allowed as prefix: %s", ErrInvalidRangeSyntax, rng.raw)
	}

	start, end, found := strings.Cut(def, ":")
	switch {
	case !found:
		// "N" is short for "0:N"
		upper, err := parseBound(def)
		if err != nil {
			return nil, err
		}
		rng.lower, rng.hasLower = 0, true
		rng.upper, rng.hasUpper = upper, true
	case strings.Contains(end, ":"):
		return nil, fmt.Errorf("%w: too many ':' in %s", ErrInvalidRangeSyntax, rng.raw)
	default:
		if start != "~" {
			lower, err := parseBound(start)
			if err != nil {
				return nil, err
			}
			rng.lower, rng.hasLower = lower, true
		}

		if end != "" {
			upper, err := parseBound(end)
			if err != nil {
				return nil, err
			}
			rng.upper, rng.hasUpper = upper, true
		}
	}

	if rng.hasLower && rng.hasUpper && rng.lower > rng.upper {
		return nil, fmt.Errorf("%w: %s", ErrFirstBiggerThanSecond, rng.raw)
	}

	return rng, nil
}

// ParseLenient constructs a Range the way the classic plugins did: it never
// fails, bounds which are not numeric degrade to their leading integer or 0
// and inverted bounds are accepted as they are.
func ParseLenient(def string) *Range {
	rng := &Range{raw: def}

	if strings.Contains(def, "@") {
		rng.inclusive = true
		def = strings.ReplaceAll(def, "@", "")
	}

	if !strings.Contains(def, ":") {
		rng.lower, rng.hasLower = 0, true
		rng.upper, rng.hasUpper = float64(convert.LeadingInt64(def)), true

		return rng
	}

	// trailing empty fields are dropped, so "10:" has no upper bound while "1::3" has 0
	parts := strings.Split(def, ":")
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}

	start := ""
	if len(parts) > 0 {
		start = parts[0]
	}
	if start != "~" {
		rng.lower, rng.hasLower = float64(convert.LeadingInt64(start)), true
	}
	if len(parts) > 1 {
		rng.upper, rng.hasUpper = float64(convert.LeadingInt64(parts[1])), true
	}

	return rng
}

func parseBound(str string) (float64, error) {
	if !regexDigit.MatchString(str) {
		return 0, fmt.Errorf("%w: not a number: '%s'", ErrInvalidRangeSyntax, str)
	}
	num, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidRangeSyntax, err.Error())
	}

	return num, nil
}

// Alerts returns true if the value lies in the alert zone of the range.
func (r *Range) Alerts(value float64) bool {
	if r.inclusive {
		if r.hasLower && value < r.lower {
			return false
		}
		if r.hasUpper && value > r.upper {
			return false
		}

		return true
	}

	if r.hasLower && value < r.lower {
		return true
	}
	if r.hasUpper && value > r.upper {
		return true
	}

	return false
}
