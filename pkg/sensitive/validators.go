package sensitive

import (
	"strconv"
	"strings"
)

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// validLuhn checks the Luhn checksum over the digits of a candidate card
// number and requires a realistic card length.
func validLuhn(s string) bool {
	digits := digitsOf(s)
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// validPhone requires 8-15 digits and rejects year-like tokens (19xx/20xx
// runs with few digits read as dates, not numbers).
func validPhone(s string) bool {
	digits := digitsOf(s)
	if len(digits) < 8 || len(digits) > 15 {
		return false
	}
	trimmed := strings.TrimSpace(s)
	if len(digits) == 8 && (strings.HasPrefix(trimmed, "19") || strings.HasPrefix(trimmed, "20")) {
		// Two adjacent years ("1998 2004") are not a phone number.
		if yearPair(trimmed) {
			return false
		}
	}
	return true
}

func yearPair(s string) bool {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '.' || r == '/'
	})
	if len(fields) != 2 {
		return false
	}
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1900 || n > 2099 {
			return false
		}
	}
	return true
}

// validIBAN checks the structural shape beyond the regex: plausible total
// length for the country field and no lowercase leakage.
func validIBAN(s string) bool {
	if len(s) < 15 || len(s) > 34 {
		return false
	}
	// Country code must be alphabetic uppercase, check digits numeric.
	if s[0] < 'A' || s[0] > 'Z' || s[1] < 'A' || s[1] > 'Z' {
		return false
	}
	return s[2] >= '0' && s[2] <= '9' && s[3] >= '0' && s[3] <= '9'
}

// validFrenchSSN checks the 13-digit INSEE structure: sex digit, birth year,
// birth month (01-12 or special codes), then department/commune/order.
func validFrenchSSN(s string) bool {
	if len(s) != 13 {
		return false
	}
	if s[0] != '1' && s[0] != '2' {
		return false
	}
	month, err := strconv.Atoi(s[3:5])
	if err != nil {
		return false
	}
	// 20+ covers the special INSEE month codes for foreign-born persons.
	return (month >= 1 && month <= 12) || (month >= 20 && month <= 42)
}

// validIP rejects reserved prefixes that are noise rather than leakage.
func validIP(s string) bool {
	if strings.HasPrefix(s, "0.") || strings.HasPrefix(s, "127.") {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		n, err := strconv.Atoi(part)
		if err != nil || n > 255 {
			return false
		}
	}
	return true
}
