package models

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Category is the closed set of finding categories.
type Category string

const (
	CategoryMetadata          Category = "metadata"
	CategoryComments          Category = "comments"
	CategoryTrackChanges      Category = "trackChanges"
	CategoryHiddenContent     Category = "hiddenContent"
	CategoryHiddenSheets      Category = "hiddenSheets"
	CategoryHiddenColumns     Category = "hiddenColumns"
	CategorySensitiveFormulas Category = "sensitiveFormulas"
	CategoryEmbeddedObjects   Category = "embeddedObjects"
	CategoryMacros            Category = "macros"
	CategorySensitiveData     Category = "sensitiveData"
	CategorySpellingErrors    Category = "spellingErrors"
	CategoryVisualObjects     Category = "visualObjects"
	CategoryOrphanData        Category = "orphanData"
	CategoryBrokenLinks       Category = "brokenLinks"
	CategoryComplianceRisks   Category = "complianceRisks"
	CategoryExcelHiddenData   Category = "excelHiddenData"
)

// AllCategories lists every finding category in report order.
var AllCategories = []Category{
	CategoryMetadata, CategoryComments, CategoryTrackChanges,
	CategoryHiddenContent, CategoryHiddenSheets, CategoryHiddenColumns,
	CategorySensitiveFormulas, CategoryEmbeddedObjects, CategoryMacros,
	CategorySensitiveData, CategorySpellingErrors, CategoryVisualObjects,
	CategoryOrphanData, CategoryBrokenLinks, CategoryComplianceRisks,
	CategoryExcelHiddenData,
}

// Finding is a detector-emitted description of a potential risk artifact.
// Findings are immutable once created; the cleaner consumes them by ID.
type Finding struct {
	ID           string   `json:"id"`
	Category     Category `json:"category"`
	Type         string   `json:"type"`
	Severity     Severity `json:"severity"`
	Location     string   `json:"location"`
	Value        string   `json:"value,omitempty"`
	Context      string   `json:"context,omitempty"`
	GDPRRelevant bool     `json:"gdprRelevant,omitempty"`
	Evidence     string   `json:"evidence,omitempty"`
}

// FindingID derives a stable identifier from the dedupe tuple. The same
// bytes analyzed twice must yield identical IDs.
func FindingID(category Category, location, value string) string {
	h := xxhash.New()
	_, _ = h.WriteString(string(category))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(location)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(value)
	return fmt.Sprintf("%s-%016x", category, h.Sum64())
}

// DedupeKey identifies duplicate findings across detectors.
func (f Finding) DedupeKey() string {
	return string(f.Category) + "|" + f.Location + "|" + f.Value
}

// SortFindings orders findings by severity descending, then location, then type.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Severity.Weight() != findings[j].Severity.Weight() {
			return findings[i].Severity.Weight() > findings[j].Severity.Weight()
		}
		if findings[i].Location != findings[j].Location {
			return findings[i].Location < findings[j].Location
		}
		return findings[i].Type < findings[j].Type
	})
}

// CountBySeverity tallies findings per severity bucket.
func CountBySeverity(findings []Finding) map[Severity]int {
	counts := make(map[Severity]int, 4)
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}

// GroupByCategory splits findings into per-category slices, preserving order.
func GroupByCategory(findings []Finding) map[Category][]Finding {
	groups := make(map[Category][]Finding)
	for _, f := range findings {
		groups[f.Category] = append(groups[f.Category], f)
	}
	return groups
}
