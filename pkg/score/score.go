// Package score computes the technical risk score. The model is two
// tables, severity weights and per-category caps, reduced over the
// findings; no branching logic beyond the tables.
package score

import "github.com/qualion/clean/pkg/models"

var severityWeights = map[models.Severity]int{
	models.SeverityCritical: 25,
	models.SeverityHigh:     10,
	models.SeverityMedium:   5,
	models.SeverityLow:      2,
}

// bucket groups finding categories under one breakdown key with a
// per-finding penalty and a cap.
type bucket struct {
	key        string
	categories []models.Category
	perFinding int
	cap        int
}

var buckets = []bucket{
	{"sensitiveData", []models.Category{models.CategorySensitiveData}, 25, 50},
	{"macros", []models.Category{models.CategoryMacros}, 15, 30},
	{"hidden", []models.Category{
		models.CategoryHiddenContent, models.CategoryHiddenSheets,
		models.CategoryHiddenColumns, models.CategoryExcelHiddenData,
	}, 8, 24},
	{"comments", []models.Category{models.CategoryComments}, 3, 15},
	{"trackChanges", []models.Category{models.CategoryTrackChanges}, 3, 15},
	{"metadata", []models.Category{models.CategoryMetadata}, 2, 10},
	{"embeddedObjects", []models.Category{models.CategoryEmbeddedObjects}, 5, 15},
	{"spelling", []models.Category{models.CategorySpellingErrors}, 1, 10},
	{"brokenLinks", []models.Category{models.CategoryBrokenLinks}, 4, 12},
	{"compliance", []models.Category{models.CategoryComplianceRisks}, 12, 36},
}

// volumeThreshold is the finding count above which each further issue
// costs volumePenalty points.
const (
	volumeThreshold = 10
	volumePenalty   = 2
)

// Score reduces findings to a summary with the technical risk score
// and its per-penalty breakdown.
func Score(findings []models.Finding) models.Summary {
	s := models.NewSummary(findings)
	byCat := models.GroupByCategory(findings)

	penalty := s.Critical*severityWeights[models.SeverityCritical] +
		s.High*severityWeights[models.SeverityHigh] +
		s.Medium*severityWeights[models.SeverityMedium] +
		s.Low*severityWeights[models.SeverityLow]
	s.RiskBreakdown["severity"] = penalty

	for _, b := range buckets {
		n := 0
		for _, cat := range b.categories {
			n += len(byCat[cat])
		}
		if n == 0 {
			continue
		}
		p := min(b.perFinding*n, b.cap)
		s.RiskBreakdown[b.key] = p
		penalty += p
	}

	if s.TotalIssues > volumeThreshold {
		p := (s.TotalIssues - volumeThreshold) * volumePenalty
		s.RiskBreakdown["volume"] = p
		penalty += p
	}

	s.RiskScore = clamp(100 - penalty)
	s.RiskLevel = models.RiskLevelForScore(s.RiskScore)
	return s
}

// AfterScore estimates the post-cleaning score from removal counts
// when re-analysis of the cleaned bytes is not possible. Each category
// improvement is bounded by that category's original penalty, so
// cleaning can never reclaim more than the category cost.
func AfterScore(before models.Summary, clean models.CleaningStats, corr models.CorrectionStats) int {
	bd := before.RiskBreakdown
	improvement := 0
	improvement += min(clean.MetadataRemoved*2, bd["metadata"])
	improvement += min(clean.CommentsRemoved*3, bd["comments"])
	improvement += min(clean.TrackChangesAccepted*3, bd["trackChanges"])
	improvement += min((clean.HiddenContentRemoved+clean.HiddenSheetsRemoved)*8, bd["hidden"])
	improvement += min(clean.EmbeddedRemoved*5, bd["embeddedObjects"])
	improvement += min(clean.MacrosRemoved*15, bd["macros"])
	improvement += min(clean.SensitiveRedacted*25, bd["sensitiveData"])
	improvement += min(corr.Applied, bd["spelling"])
	return clamp(before.RiskScore + improvement)
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
