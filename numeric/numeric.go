// Package numeric parses and formats non-negative integers in a
// configurable base, the way every bank/register/address token in the
// grammar is encoded.
package numeric

import (
	"fmt"
	"strings"
)

const digits = "0123456789abcdefghijklmnopqrstuvwxyz"

// Parse reads s as a non-negative integer in base, 2 <= base <= 36.
// Digits are 0-9 and case-insensitive a-z. Empty input or any digit
// outside the base is an error.
func Parse(s string, base int) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("numeric: empty input")
	}
	if base < 2 || base > 36 {
		return 0, fmt.Errorf("numeric: base out of range: %d", base)
	}

	var n uint64
	for _, r := range s {
		d := digitValue(r)
		if d < 0 || d >= base {
			return 0, fmt.Errorf("numeric: invalid digit %q in %q", r, s)
		}
		n = n*uint64(base) + uint64(d)
	}
	return n, nil
}

func digitValue(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'z':
		return int(r-'a') + 10
	case r >= 'A' && r <= 'Z':
		return int(r-'A') + 10
	default:
		return -1
	}
}

// Format renders n in the given base using the minimum number of
// lowercase digits, then left-pads with '0' to width. Formatting zero
// yields max(1, width) zeros.
func Format(n uint64, base int, width int) string {
	if base < 2 || base > 36 {
		base = 10
	}

	var b strings.Builder
	if n == 0 {
		b.WriteByte('0')
	} else {
		var tmp [64]byte
		i := len(tmp)
		for n > 0 {
			i--
			tmp[i] = digits[n%uint64(base)]
			n /= uint64(base)
		}
		b.Write(tmp[i:])
	}

	s := b.String()
	if width < 1 {
		width = 1
	}
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
