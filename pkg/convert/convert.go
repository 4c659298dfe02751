package convert

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Float64 converts anything into a float64
// errors will fall back to 0
func Float64(raw interface{}) float64 {
	val, _ := Float64E(raw)

	return val
}

// Float64E converts anything into a float64
// errors will be returned
func Float64E(raw interface{}) (float64, error) {
	switch val := raw.(type) {
	case float64:
		return val, nil
	case int64:
		return float64(val), nil
	case int:
		return float64(val), nil
	default:
		num, err := strconv.ParseFloat(fmt.Sprintf("%v", val), 64)
		if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
			return 0, fmt.Errorf("cannot parse float64 value from %v (%T)", raw, raw)
		}

		return num, nil
	}
}

// LeadingInt64 parses the leading integer of a string and ignores everything
// after it. Leading whitespace and a single sign are allowed, underscores
// between digits are skipped. Strings without leading digits result in 0.
// Values exceeding the int64 range are clamped.
func LeadingInt64(str string) int64 {
	str = strings.TrimLeftFunc(str, unicode.IsSpace)

	negative := false
	switch {
	case strings.HasPrefix(str, "-"):
		negative = true
		str = str[1:]
	case strings.HasPrefix(str, "+"):
		str = str[1:]
	}

	var num uint64
	lastDigit := false
	for i, c := range str {
		switch {
		case c >= '0' && c <= '9':
			if num > (math.MaxInt64+1-uint64(c-'0'))/10 {
				num = math.MaxInt64 + 1
			} else {
				num = num*10 + uint64(c-'0')
			}
			lastDigit = true

			continue
		case c == '_' && lastDigit && i+1 < len(str) && str[i+1] >= '0' && str[i+1] <= '9':
			lastDigit = false

			continue
		}

		break
	}

	if negative {
		if num > math.MaxInt64 {
			return math.MinInt64
		}

		return -int64(num)
	}
	if num > math.MaxInt64 {
		return math.MaxInt64
	}

	return int64(num)
}

// Num2String converts any number into a string
// errors will fall back to empty string
func Num2String(raw interface{}) string {
	s, _ := Num2StringE(raw)

	return s
}

// Num2StringE converts any number into a string
// errors will be returned
func Num2StringE(raw interface{}) (string, error) {
	switch num := raw.(type) {
	case float64:
		if strconv.FormatFloat(num, 'f', -1, 64) != fmt.Sprintf("%d", int64(num)) {
			return strconv.FormatFloat(num, 'f', -1, 64), nil
		}

		return fmt.Sprintf("%d", int64(num)), nil
	case int64:
		return fmt.Sprintf("%d", num), nil
	default:
		fNum, err := strconv.ParseFloat(fmt.Sprintf("%v", raw), 64)
		if err != nil {
			return "", fmt.Errorf("cannot convert %v (%T) into string", raw, raw)
		}

		return Num2StringE(fNum)
	}
}
