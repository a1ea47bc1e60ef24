package sensitive

import "strings"

// maskEmail keeps the first two characters of the local part and the domain:
// "john.doe@corp.com" -> "jo***@corp.com".
func maskEmail(s string) string {
	at := strings.IndexByte(s, '@')
	if at < 0 {
		return maskGeneric(s)
	}
	local := s[:at]
	if len(local) > 2 {
		local = local[:2]
	}
	return local + "***" + s[at:]
}

// maskPhone replaces every digit except the last two with '*'.
func maskPhone(s string) string {
	total := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			total++
		}
	}
	var b strings.Builder
	seen := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			seen++
			if seen > total-2 {
				b.WriteRune(r)
			} else {
				b.WriteRune('*')
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// maskIBAN keeps the first and last four characters:
// "DE89370400440532013000" -> "DE89 **** **** 3000".
func maskIBAN(s string) string {
	compact := strings.ReplaceAll(s, " ", "")
	if len(compact) < 8 {
		return maskGeneric(s)
	}
	return compact[:4] + " **** **** " + compact[len(compact)-4:]
}

// maskCard keeps only the last four digits: "**** **** **** 1111".
func maskCard(s string) string {
	digits := digitsOf(s)
	if len(digits) < 4 {
		return maskGeneric(s)
	}
	return "**** **** **** " + digits[len(digits)-4:]
}

// maskGeneric keeps the first three characters.
func maskGeneric(s string) string {
	r := []rune(s)
	if len(r) <= 3 {
		return string(r) + "***"
	}
	return string(r[:3]) + "***"
}
