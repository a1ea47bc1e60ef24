// Package report assembles the JSON and HTML outputs and the final
// archive. The JSON schema is stable: category arrays are always
// present and finding ids are preserved verbatim.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/qualion/clean/pkg/container"
	"github.com/qualion/clean/pkg/models"
)

const (
	reportVersion = "qualion-clean-v1"
	engineVersion = "1.2.0"
)

// Input carries everything the assembler needs for one document.
type Input struct {
	Doc         *container.Document
	Findings    []models.Finding
	Spelling    []models.SpellingIssue
	Summary     models.Summary
	Business    models.BusinessRisk
	Stats       models.DocumentStats
	StatsAfter  *models.DocumentStats
	Cleaning    *models.CleaningStats
	Correction  *models.CorrectionStats
	ScoreAfter  *int
	LLMDegraded bool
	Started     time.Time
}

// Build assembles the full report structure.
func Build(in Input) models.Report {
	detections := models.AllDetections(in.Findings)
	return models.Report{
		Meta: models.ReportMeta{
			DocumentID:     in.Doc.ID,
			OriginalName:   in.Doc.OriginalName,
			Format:         in.Doc.Format,
			Fingerprint:    in.Doc.Fingerprint(),
			AnalyzedAt:     in.Started.UTC(),
			ProcessingTime: time.Since(in.Started).Round(time.Millisecond).String(),
			EngineVersion:  engineVersion,
			LLMDegraded:    in.LLMDegraded,
		},
		QualionCleanV1: models.QualionCleanV1{
			Version:         reportVersion,
			FileTypeContext: fileTypeContext(in.Doc.Format),
			Part1: models.TechnicalReport{
				Checklist: buildChecklist(in.Findings),
				Findings:  detections,
				Summary:   in.Summary,
			},
			Part2: models.BusinessReport{
				Risk:        in.Business,
				ClientReady: in.Business.ClientReady,
			},
		},
		Detections:      detections,
		SpellingIssues:  in.Spelling,
		Summary:         in.Summary,
		BusinessRisk:    in.Business,
		DocumentStats:   in.Stats,
		StatsAfter:      in.StatsAfter,
		CleaningStats:   in.Cleaning,
		CorrectionStats: in.Correction,
		ScoreBefore:     in.Summary.RiskScore,
		ScoreAfter:      in.ScoreAfter,
	}
}

// WriteJSON renders the report as stable, indented UTF-8 JSON.
func WriteJSON(r models.Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return data, nil
}

func fileTypeContext(format models.Format) string {
	switch format {
	case models.FormatDOCX:
		return "Word document: review focuses on authorship metadata, comments, tracked changes and hidden text."
	case models.FormatPPTX:
		return "Presentation: review focuses on speaker notes, hidden slides, off-slide shapes and embedded media."
	case models.FormatXLSX:
		return "Workbook: review focuses on hidden sheets, external formulas, embedded objects and macros."
	case models.FormatPDF:
		return "PDF: review covers the info dictionary, annotations and attachments; content streams pass through."
	default:
		return ""
	}
}

// checklistChecks maps the fixed part1 checklist rows to the
// categories they cover.
var checklistChecks = []struct {
	name       string
	categories []models.Category
}{
	{"Document metadata", []models.Category{models.CategoryMetadata}},
	{"Comments and notes", []models.Category{models.CategoryComments}},
	{"Tracked changes", []models.Category{models.CategoryTrackChanges}},
	{"Hidden content", []models.Category{
		models.CategoryHiddenContent, models.CategoryHiddenSheets,
		models.CategoryHiddenColumns, models.CategoryExcelHiddenData,
	}},
	{"Embedded objects", []models.Category{models.CategoryEmbeddedObjects}},
	{"Macros", []models.Category{models.CategoryMacros}},
	{"Sensitive data", []models.Category{models.CategorySensitiveData, models.CategoryComplianceRisks}},
	{"Formulas", []models.Category{models.CategorySensitiveFormulas}},
	{"Spelling", []models.Category{models.CategorySpellingErrors}},
	{"Links and leftovers", []models.Category{
		models.CategoryBrokenLinks, models.CategoryOrphanData, models.CategoryVisualObjects,
	}},
}

func buildChecklist(findings []models.Finding) []models.ChecklistItem {
	byCat := models.GroupByCategory(findings)
	items := make([]models.ChecklistItem, 0, len(checklistChecks))
	for _, check := range checklistChecks {
		var matched []models.Finding
		for _, cat := range check.categories {
			matched = append(matched, byCat[cat]...)
		}
		item := models.ChecklistItem{Check: check.name, Status: "ok", Count: len(matched)}
		if len(matched) > 0 {
			worst := matched[0].Severity
			for _, f := range matched[1:] {
				if f.Severity.Weight() > worst.Weight() {
					worst = f.Severity
				}
			}
			item.Severity = worst
			item.Status = "warning"
			if worst == models.SeverityHigh || worst == models.SeverityCritical {
				item.Status = "fail"
			}
			item.Detail = matched[0].Value
		}
		items = append(items, item)
	}
	return items
}
