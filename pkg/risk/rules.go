package risk

import "regexp"

// Rule patterns are data, compiled once at package load. Each group
// feeds one category's combine logic.
var (
	pricingRe = regexp.MustCompile(`(?i)\b(rates?|costs?|margins?|markups?|discounts?|pricing)\b`)

	engagementRe = regexp.MustCompile(`(?i)\b(we will|we commit|we guarantee|we ensure|deliver by|commitments?)\b`)
	openEndedRe  = regexp.MustCompile(`(?i)\b(as needed|unlimited|ongoing|continuous|support until|full ownership|end.to.end)\b`)
	fixedPriceRe = regexp.MustCompile(`(?i)\b(fixed.price|flat.fee|all.inclusive|turnkey)\b`)
	deadlineRe   = regexp.MustCompile(`(?i)\b(by (monday|tuesday|wednesday|thursday|friday|saturday|sunday)|by end of (day|week|month|quarter|year)|no later than)\b`)
	dependencyRe = regexp.MustCompile(`(?i)\b(subject to|assuming|dependent on|client to provide|prerequisites?)\b`)

	assumptionRe  = regexp.MustCompile(`(?i)\b(we assume|our assumption|internal estimate|internal assumption|for internal use)\b`)
	optionRe      = regexp.MustCompile(`(?i)\boption [abc]\b`)
	clientPendRe  = regexp.MustCompile(`(?i)\b(client to (confirm|decide|validate)|pending client|awaiting client)\b`)
	benchmarkRe   = regexp.MustCompile(`(?i)\b(benchmarks?|target rates?|walk.away|reservation price|margin targets?)\b`)

	confidentialMarkerRe = regexp.MustCompile(`(?i)\b(confidential|do not (distribute|share|forward)|internal (use )?only|nda)\b`)
	projectCodeRe        = regexp.MustCompile(`\b[A-Z]{2,5}-\d{2,6}\b`)
	rawEmailRe           = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

func countHits(re *regexp.Regexp, text string) int {
	return len(re.FindAllString(text, -1))
}

// firstHit returns a short evidence sample for a flag, empty when the
// pattern did not match.
func firstHit(re *regexp.Regexp, text string) string {
	return re.FindString(text)
}
