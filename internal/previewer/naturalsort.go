package previewer

import (
	"strings"
	"unicode"
)

// CompareVersions compares two version strings naturally: runs of digits
// compare numerically, everything else compares lexically. "3.9.0" sorts
// before "3.10.1" where a plain string compare would not.
func CompareVersions(a, b string) int {
	as, bs := splitNatural(a), splitNatural(b)
	for i := 0; i < len(as) && i < len(bs); i++ {
		x, y := as[i], bs[i]
		xNum, yNum := isDigits(x), isDigits(y)
		switch {
		case xNum && yNum:
			// Compare numerically without parsing: longer digit run (after
			// leading zeros) is larger, equal lengths compare lexically.
			xt, yt := strings.TrimLeft(x, "0"), strings.TrimLeft(y, "0")
			if len(xt) != len(yt) {
				if len(xt) < len(yt) {
					return -1
				}
				return 1
			}
			if c := strings.Compare(xt, yt); c != 0 {
				return c
			}
		default:
			if c := strings.Compare(x, y); c != 0 {
				return c
			}
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}

func splitNatural(s string) []string {
	var parts []string
	start := 0
	for i := 1; i <= len(s); i++ {
		if i == len(s) || isDigitByte(s[i]) != isDigitByte(s[start]) {
			parts = append(parts, s[start:i])
			start = i
		}
	}
	return parts
}

func isDigitByte(c byte) bool { return c >= '0' && c <= '9' }

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
