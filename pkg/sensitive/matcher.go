package sensitive

import (
	"sort"

	"github.com/qualion/clean/pkg/models"
)

// contextWindow is the number of characters captured on each side of a match.
const contextWindow = 50

// Match is one validated sensitive token occurrence.
type Match struct {
	Type         string
	Value        string // raw matched text
	Masked       string
	Severity     models.Severity
	GDPRRelevant bool
	Start        int
	End          int
	Context      string
}

// Scan runs the full rule table over text. Overlapping claims are resolved
// in table order, so an IBAN is never re-reported as a phone number.
// Deterministic for a given input.
func Scan(text string) []Match {
	var matches []Match
	claimed := make([]span, 0, 16)

	for _, rule := range Rules {
		for _, loc := range rule.Pattern.FindAllStringIndex(text, -1) {
			value := text[loc[0]:loc[1]]
			if rule.Validate != nil && !rule.Validate(value) {
				continue
			}
			if overlaps(claimed, loc[0], loc[1]) {
				continue
			}
			claimed = append(claimed, span{loc[0], loc[1]})
			matches = append(matches, Match{
				Type:         rule.Type,
				Value:        value,
				Masked:       rule.Mask(value),
				Severity:     rule.Severity,
				GDPRRelevant: rule.GDPRRelevant,
				Start:        loc[0],
				End:          loc[1],
				Context:      contextAround(text, loc[0], loc[1]),
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Start < matches[j].Start })
	return matches
}

type span struct{ start, end int }

func overlaps(spans []span, start, end int) bool {
	for _, s := range spans {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}

func contextAround(text string, start, end int) string {
	lo := start - contextWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + contextWindow
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}
