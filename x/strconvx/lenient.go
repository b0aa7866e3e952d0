// Package strconvx parses operator input the forgiving way a serial console
// does: the longest numeric prefix counts, anything else yields 0.
package strconvx

import "strconv"

// LeadingInt parses an optional sign and the digits that follow it.
// "", "-", "abc" and out-of-range input all yield 0.
func LeadingInt(s string) int {
	i := sign(s)
	j := digits(s, i)
	if j == i {
		return 0
	}
	v, err := strconv.Atoi(s[:j])
	if err != nil {
		return 0
	}
	return v
}

// LeadingFloat parses an optional sign, digits, and an optional fraction.
// At least one digit must be present, otherwise the result is 0.
func LeadingFloat(s string) float64 {
	i := sign(s)
	j := digits(s, i)
	n := j - i
	if j < len(s) && s[j] == '.' {
		k := digits(s, j+1)
		n += k - j - 1
		if k > j+1 {
			j = k
		}
	}
	if n == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(s[:j], 64)
	if err != nil {
		return 0
	}
	return v
}

func sign(s string) int {
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		return 1
	}
	return 0
}

func digits(s string, i int) int {
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}
