// Package risk derives the business-risk judgement from detector
// findings and the text projection. Every rule is deterministic; the
// same document always produces the same flags.
package risk

import (
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/qualion/clean/pkg/models"
)

// pricingHitThreshold is the number of pricing keyword hits that alone
// raise margin risk to medium.
const pricingHitThreshold = 6

// Engine evaluates the five business-risk categories.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Evaluate runs all category rules. The text argument is the
// normalized projection; spellingCount feeds credibility.
func (e *Engine) Evaluate(findings []models.Finding, spellingCount int, text string) models.BusinessRisk {
	byCategory := models.GroupByCategory(findings)

	risk := models.BusinessRisk{
		Levels: make(map[models.BusinessCategory]models.BusinessLevel, len(models.BusinessCategories)),
	}
	for _, cat := range models.BusinessCategories {
		risk.Levels[cat] = models.LevelNone
	}

	raise := func(f models.BusinessFlag) {
		f.ID = flagID(f)
		risk.Flags = append(risk.Flags, f)
		risk.Levels[f.Category] = models.MaxLevel(risk.Levels[f.Category], f.Level)
	}

	e.evalMargin(byCategory, text, raise)
	e.evalDelivery(text, raise)
	e.evalNegotiation(byCategory, text, raise)
	e.evalCompliance(byCategory, text, raise)
	e.evalCredibility(byCategory, spellingCount, raise)

	// Compliance is a gate, not a score component.
	sum := 0
	for _, cat := range []models.BusinessCategory{
		models.BusinessMargin, models.BusinessDelivery,
		models.BusinessNegotiation, models.BusinessCredibility,
	} {
		sum += risk.Levels[cat].Score()
	}
	risk.Score = int(math.Round(0.25 * float64(sum)))

	risk.ClientReady = "YES"
	for _, level := range risk.Levels {
		if level.Rank() >= models.LevelHigh.Rank() {
			risk.ClientReady = "NO"
		}
	}
	for _, f := range risk.Flags {
		if f.Level == models.LevelCritical {
			risk.ClientReady = "NO"
		}
	}
	return risk
}

func flagID(f models.BusinessFlag) string {
	h := xxhash.New()
	_, _ = h.WriteString(f.RuleID)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(f.Location)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(f.Evidence)
	return fmt.Sprintf("brisk-%016x", h.Sum64())
}

// evalMargin reacts to spreadsheet structure that hides numbers and to
// dense pricing language.
func (e *Engine) evalMargin(byCat map[models.Category][]models.Finding, text string, raise func(models.BusinessFlag)) {
	if hidden := byCat[models.CategoryHiddenSheets]; len(hidden) > 0 {
		raise(models.BusinessFlag{
			Category: models.BusinessMargin,
			Level:    models.LevelHigh,
			RuleID:   "MAR-HIDDEN-SHEETS",
			Reason:   "Hidden worksheets can carry internal pricing",
			Location: hidden[0].Location,
			Evidence: hidden[0].Value,
		})
	}
	structural := len(byCat[models.CategorySensitiveFormulas]) +
		len(byCat[models.CategoryExcelHiddenData]) +
		len(byCat[models.CategoryHiddenColumns])
	if structural > 0 {
		raise(models.BusinessFlag{
			Category: models.BusinessMargin,
			Level:    models.LevelMedium,
			RuleID:   "MAR-STRUCTURAL",
			Reason:   fmt.Sprintf("%d structural signals hide workbook data", structural),
			Location: "workbook",
		})
	}
	if hits := countHits(pricingRe, text); hits >= pricingHitThreshold {
		raise(models.BusinessFlag{
			Category: models.BusinessMargin,
			Level:    models.LevelMedium,
			RuleID:   "MAR-PRICING-LANGUAGE",
			Reason:   fmt.Sprintf("%d pricing keyword hits", hits),
			Location: "text",
			Evidence: firstHit(pricingRe, text),
		})
	}
}

// evalDelivery weighs engagement strength against dependency markers.
// Strong commitments with no stated dependencies are the high-risk
// combination.
func (e *Engine) evalDelivery(text string, raise func(models.BusinessFlag)) {
	engagement := countHits(engagementRe, text)
	openEnded := countHits(openEndedRe, text)
	fixed := countHits(fixedPriceRe, text)
	deadlines := countHits(deadlineRe, text)
	dependencies := countHits(dependencyRe, text)

	combined := engagement + openEnded + fixed + deadlines + dependencies
	if combined == 0 {
		return
	}

	level := models.LevelLow
	reason := "Some delivery language present"
	switch {
	case dependencies == 0 && engagement+fixed+deadlines > 0:
		level = models.LevelHigh
		reason = "Unconditional commitments with no dependency markers"
	case combined >= 4:
		level = models.LevelMedium
		reason = fmt.Sprintf("%d delivery-risk phrases", combined)
	}
	raise(models.BusinessFlag{
		Category: models.BusinessDelivery,
		Level:    level,
		RuleID:   "DEL-COMMITMENT",
		Reason:   reason,
		Location: "text",
		Evidence: firstHit(engagementRe, text),
	})
}

// evalNegotiation looks for internal positioning that weakens the
// negotiating stance if shared, elevated when metadata or hidden
// content would let the client see revision history.
func (e *Engine) evalNegotiation(byCat map[models.Category][]models.Finding, text string, raise func(models.BusinessFlag)) {
	if benchmarks := countHits(benchmarkRe, text); benchmarks > 0 {
		raise(models.BusinessFlag{
			Category: models.BusinessNegotiation,
			Level:    models.LevelHigh,
			RuleID:   "NEG-BENCHMARKS",
			Reason:   "Internal benchmarks or walk-away positions in text",
			Location: "text",
			Evidence: firstHit(benchmarkRe, text),
		})
	}

	hits := countHits(assumptionRe, text) + countHits(optionRe, text) + countHits(clientPendRe, text)
	if hits == 0 {
		return
	}
	level := models.LevelLow
	if hits >= 3 {
		level = models.LevelMedium
	}
	if len(byCat[models.CategoryMetadata]) > 0 && len(byCat[models.CategoryHiddenContent]) > 0 {
		level = models.MaxLevel(level, models.LevelMedium)
	}
	raise(models.BusinessFlag{
		Category: models.BusinessNegotiation,
		Level:    level,
		RuleID:   "NEG-INTERNAL-POSITION",
		Reason:   fmt.Sprintf("%d internal-positioning phrases", hits),
		Location: "text",
		Evidence: firstHit(assumptionRe, text),
	})
}

// evalCompliance gates on critical sensitive findings and otherwise
// weighs confidentiality markers, project codes and raw addresses.
func (e *Engine) evalCompliance(byCat map[models.Category][]models.Finding, text string, raise func(models.BusinessFlag)) {
	sensitive := append([]models.Finding{}, byCat[models.CategorySensitiveData]...)
	sensitive = append(sensitive, byCat[models.CategoryComplianceRisks]...)
	for _, f := range sensitive {
		if f.Severity == models.SeverityCritical {
			raise(models.BusinessFlag{
				Category: models.BusinessCompliance,
				Level:    models.LevelCritical,
				RuleID:   "CMP-CRITICAL-DATA",
				Reason:   "Critical sensitive data present",
				Location: f.Location,
				Evidence: f.Value,
			})
			return
		}
	}

	hits := countHits(confidentialMarkerRe, text) +
		countHits(projectCodeRe, text) +
		countHits(rawEmailRe, text)
	if len(sensitive) > 0 || hits > 0 {
		level := models.LevelMedium
		if hits >= 5 {
			level = models.LevelHigh
		}
		raise(models.BusinessFlag{
			Category: models.BusinessCompliance,
			Level:    level,
			RuleID:   "CMP-MARKERS",
			Reason:   fmt.Sprintf("%d compliance-relevant markers", hits+len(sensitive)),
			Location: "text",
			Evidence: firstHit(confidentialMarkerRe, text),
		})
	}
}

// evalCredibility sums the artifacts a client would notice: comments,
// revision history, typos, dead links and leftover fragments. Typos
// enter through spellingCount only; callers that mirror spelling
// issues into the findings list would otherwise count each one twice.
func (e *Engine) evalCredibility(byCat map[models.Category][]models.Finding, spellingCount int, raise func(models.BusinessFlag)) {
	n := spellingCount
	for _, cat := range []models.Category{
		models.CategoryComments, models.CategoryTrackChanges,
		models.CategoryOrphanData,
		models.CategoryBrokenLinks, models.CategoryHiddenContent,
	} {
		n += len(byCat[cat])
	}
	if n == 0 {
		return
	}
	level := models.LevelLow
	switch {
	case n > 5:
		level = models.LevelHigh
	case n > 2:
		level = models.LevelMedium
	}
	raise(models.BusinessFlag{
		Category: models.BusinessCredibility,
		Level:    level,
		RuleID:   "CRD-POLISH",
		Reason:   fmt.Sprintf("%d credibility artifacts", n),
		Location: "document",
	})
}
