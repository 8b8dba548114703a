// Package taxid validates Brazilian individual taxpayer numbers (CPF).
package taxid

import "strings"

const length = 11

// Clean strips every non-digit character from raw.
func Clean(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Validate reports whether raw is a well-formed taxpayer number once
// punctuation is removed: exactly 11 digits, not a single repeated digit,
// and both check digits matching.
func Validate(raw string) bool {
	cleaned := Clean(raw)
	if len(cleaned) != length || repeated(cleaned) {
		return false
	}

	digits := make([]int, length)
	for i := range cleaned {
		digits[i] = int(cleaned[i] - '0')
	}

	if checkDigit(digits[:9], 10) != digits[9] {
		return false
	}
	return checkDigit(digits[:10], 11) == digits[10]
}

// checkDigit weights digits from firstWeight down to 2.
func checkDigit(digits []int, firstWeight int) int {
	sum := 0
	for i, d := range digits {
		sum += d * (firstWeight - i)
	}
	d := 11 - sum%11
	if d > 9 {
		return 0
	}
	return d
}

func repeated(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
