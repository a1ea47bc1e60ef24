package proof

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/qualion/clean/pkg/models"
)

// prefilterCap bounds the number of issues a single document can
// produce from the deterministic stage.
const prefilterCap = 250

const contextWindow = 40

var (
	splitWordRe = regexp.MustCompile(`([A-Za-z]{1,3})([ \t]{1,3})([A-Za-z]{1,3})`)
	punctWordRe = regexp.MustCompile(`([A-Za-z]{2,})([,.;:'-])([A-Za-z]{2,})`)
	camelRe     = regexp.MustCompile(`([a-z]{2,})([A-Z][a-z]+)`)
	tokenRe     = regexp.MustCompile(`[A-Za-z]{5,30}`)
	multiSpace  = regexp.MustCompile(`[^\S\n]{2,}`)
)

// issueID derives a stable identifier for a spelling issue.
func issueID(err, correction, before string) string {
	h := xxhash.New()
	_, _ = h.WriteString(err)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(correction)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(before)
	return fmt.Sprintf("spell-%016x", h.Sum64())
}

// Prefilter runs the deterministic detection rules over the projection
// text. It never calls out and always produces the same issues for the
// same input.
func Prefilter(text string) []models.SpellingIssue {
	var issues []models.SpellingIssue
	add := func(iss models.SpellingIssue) bool {
		issues = append(issues, iss)
		return len(issues) < prefilterCap
	}

	if !splitWords(text, add) {
		return issues
	}
	if !punctuationInWords(text, add) {
		return issues
	}
	if !stuckCamelWords(text, add) {
		return issues
	}
	if !stuckConnectors(text, add) {
		return issues
	}
	multipleSpaces(text, add)
	return issues
}

func makeIssue(text string, start, end int, correction, typ, message string) models.SpellingIssue {
	s, e := start, end
	before := text[max(0, start-contextWindow):start]
	after := text[end:min(len(text), end+contextWindow)]
	errText := text[start:end]
	return models.SpellingIssue{
		ID:            issueID(errText, correction, before),
		Error:         errText,
		Correction:    correction,
		Type:          typ,
		Severity:      models.SeverityLow,
		Message:       message,
		ContextBefore: before,
		ContextAfter:  after,
		StartIndex:    &s,
		EndIndex:      &e,
	}
}

// wordBoundary reports whether the byte at i-1 (lookBefore) or i
// (lookAfter) is a letter, which would mean the match sits inside a
// larger token.
func letterAt(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return false
	}
	c := text[i]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// splitWords finds short letter fragments separated by stray spaces
// whose joined form is a known word, as in "soc ial" for "social".
func splitWords(text string, add func(models.SpellingIssue) bool) bool {
	for _, m := range splitWordRe.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		if letterAt(text, start-1) || letterAt(text, end) {
			continue
		}
		left := text[m[2]:m[3]]
		right := text[m[6]:m[7]]
		joined := left + right
		if !isRealWord(joined) || bothRealWords(left, right) {
			continue
		}
		iss := makeIssue(text, start, end, joined, models.SpellingTypeSplitWord,
			"Word split by stray whitespace")
		if !add(iss) {
			return false
		}
	}
	return true
}

// punctuationInWords finds punctuation lodged inside a word, as in
// "deliv,ery".
func punctuationInWords(text string, add func(models.SpellingIssue) bool) bool {
	for _, m := range punctWordRe.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		if letterAt(text, start-1) || letterAt(text, end) {
			continue
		}
		left := text[m[2]:m[3]]
		right := text[m[6]:m[7]]
		joined := left + right
		if !isRealWord(joined) || bothRealWords(left, right) {
			continue
		}
		iss := makeIssue(text, start, end, joined, models.SpellingTypePunctInWord,
			"Punctuation inside a word")
		if !add(iss) {
			return false
		}
	}
	return true
}

// stuckCamelWords finds two words glued with a case change, as in
// "deliveryThe".
func stuckCamelWords(text string, add func(models.SpellingIssue) bool) bool {
	for _, m := range camelRe.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		if letterAt(text, start-1) || letterAt(text, end) {
			continue
		}
		whole := text[start:end]
		if _, stop := splitStoplist[strings.ToLower(whole)]; stop {
			continue
		}
		left := text[m[2]:m[3]]
		right := text[m[4]:m[5]]
		if !isRealWord(left) || !isRealWord(right) {
			continue
		}
		iss := makeIssue(text, start, end, left+" "+right, models.SpellingTypeStuckWords,
			"Two words run together")
		if !add(iss) {
			return false
		}
	}
	return true
}

// stuckConnectors splits tokens that swallowed a short connector, as
// in "asneeded" or "endofyear". Both halves must be at least three
// letters unless the right half is a single capital letter.
func stuckConnectors(text string, add func(models.SpellingIssue) bool) bool {
	for _, m := range tokenRe.FindAllStringIndex(text, -1) {
		start, end := m[0], m[1]
		if letterAt(text, start-1) || letterAt(text, end) {
			continue
		}
		token := text[start:end]
		lower := strings.ToLower(token)
		if _, stop := splitStoplist[lower]; stop || isRealWord(token) {
			continue
		}
		left, right, ok := connectorSplit(token)
		if !ok {
			continue
		}
		iss := makeIssue(text, start, end, left+" "+right, models.SpellingTypeStuckWords,
			"Connector stuck to a neighbouring word")
		if !add(iss) {
			return false
		}
	}
	return true
}

// connectorSplit tries to cut a token in two around a leading or
// trailing connector. Returns the split only when both halves check
// out as words.
func connectorSplit(token string) (left, right string, ok bool) {
	lower := strings.ToLower(token)
	for _, c := range connectors {
		if strings.HasPrefix(lower, c) {
			l, r := token[:len(c)], token[len(c):]
			if splitHalvesValid(l, r) {
				return l, r, true
			}
		}
		if strings.HasSuffix(lower, c) {
			l, r := token[:len(token)-len(c)], token[len(token)-len(c):]
			if splitHalvesValid(l, r) {
				return l, r, true
			}
		}
	}
	return "", "", false
}

func splitHalvesValid(left, right string) bool {
	if len(right) == 1 && unicode.IsUpper(rune(right[0])) {
		return len(left) >= 3 && isRealWord(left)
	}
	if len(left) < 3 || len(right) < 3 {
		return false
	}
	return isRealWord(left) && isRealWord(right)
}

// multipleSpaces normalizes runs of horizontal whitespace between
// words.
func multipleSpaces(text string, add func(models.SpellingIssue) bool) {
	for _, m := range multiSpace.FindAllStringIndex(text, -1) {
		start, end := m[0], m[1]
		if !letterAt(text, start-1) || !letterAt(text, end) {
			continue
		}
		iss := makeIssue(text, start, end, " ", models.SpellingTypeMultipleSpace,
			"Multiple spaces between words")
		if !add(iss) {
			return
		}
	}
}
