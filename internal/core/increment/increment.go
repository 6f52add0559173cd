// Package increment provides successor arithmetic for issued identifier
// values. Numeric values are zero-padded decimal strings, letter values are
// bijective base-26 numerals (A..Z, AA..). All functions are pure.
package increment

import (
	"fmt"
	"strings"
)

// Kind selects the value representation.
type Kind string

const (
	KindNumber Kind = "number"
	KindLetter Kind = "letter"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindNumber || k == KindLetter
}

// ValidValue reports whether v is a well-formed value of kind k.
func ValidValue(v string, k Kind) bool {
	switch k {
	case KindNumber:
		return ValidNumber(v)
	case KindLetter:
		return ValidLetter(v)
	}
	return false
}

// ValidNumber reports whether v is a non-empty string of decimal digits.
func ValidNumber(v string) bool {
	if v == "" {
		return false
	}
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
	}
	return true
}

// ValidLetter reports whether v is a non-empty string of uppercase A-Z.
func ValidLetter(v string) bool {
	if v == "" {
		return false
	}
	for i := 0; i < len(v); i++ {
		if v[i] < 'A' || v[i] > 'Z' {
			return false
		}
	}
	return true
}

// Number returns the decimal successor of v, preserving the input width via
// leading zeros. Width grows when the carry overflows the leftmost digit:
// "0099" -> "0100", "99" -> "100".
func Number(v string) (string, error) {
	if !ValidNumber(v) {
		return "", fmt.Errorf("not a decimal value: %q", v)
	}

	digits := []byte(v)
	for i := len(digits) - 1; i >= 0; i-- {
		if digits[i] < '9' {
			digits[i]++
			return string(digits), nil
		}
		digits[i] = '0'
	}
	// every digit carried
	return "1" + string(digits), nil
}

// Letter returns the bijective base-26 successor of v: "A" -> "B",
// "Z" -> "AA", "AZ" -> "BA", "ZZ" -> "AAA".
func Letter(v string) (string, error) {
	if !ValidLetter(v) {
		return "", fmt.Errorf("not a letter value: %q", v)
	}

	letters := []byte(v)
	for i := len(letters) - 1; i >= 0; i-- {
		if letters[i] < 'Z' {
			letters[i]++
			return string(letters), nil
		}
		letters[i] = 'A'
	}
	// every position rolled over, a new order of magnitude
	return "A" + string(letters), nil
}

// Next returns the successor of v under kind k.
func Next(v string, k Kind) (string, error) {
	switch k {
	case KindNumber:
		return Number(v)
	case KindLetter:
		return Letter(v)
	}
	return "", fmt.Errorf("unknown value kind: %q", k)
}

// Compare orders two raw values consistently with increment order, returning
// -1, 0 or 1. Numbers compare by magnitude regardless of padding width.
// Letters compare by length first, then lexicographically: "Z" < "AA" even
// though "AA" sorts before "Z" as a plain string.
func Compare(a, b string, k Kind) int {
	switch k {
	case KindNumber:
		return compareMagnitude(trimZeros(a), trimZeros(b))
	case KindLetter:
		return compareMagnitude(a, b)
	}
	return strings.Compare(a, b)
}

func trimZeros(v string) string {
	trimmed := strings.TrimLeft(v, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// compareMagnitude compares equal-base positional strings: a longer string
// is always greater, equal lengths fall back to lexicographic order.
func compareMagnitude(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
