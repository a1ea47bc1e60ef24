package models

import "time"

// ReportMeta identifies the analyzed document and run.
type ReportMeta struct {
	DocumentID     string    `json:"documentId"`
	OriginalName   string    `json:"originalName"`
	Format         Format    `json:"format"`
	Fingerprint    string    `json:"fingerprint"`
	AnalyzedAt     time.Time `json:"analyzedAt"`
	ProcessingTime string    `json:"processingTime"`
	EngineVersion  string    `json:"engineVersion"`
	LLMDegraded    bool      `json:"llmDegraded,omitempty"`
}

// ChecklistItem is one row of the part1 technical checklist.
type ChecklistItem struct {
	Check    string   `json:"check"`
	Status   string   `json:"status"` // ok, warning, fail
	Count    int      `json:"count"`
	Severity Severity `json:"severity,omitempty"`
	Detail   string   `json:"detail,omitempty"`
}

// TechnicalReport is part1 of the Qualion Clean V1 block.
type TechnicalReport struct {
	Checklist []ChecklistItem      `json:"checklist"`
	Findings  map[string][]Finding `json:"findings"` // keyed by category, arrays always present
	Summary   Summary              `json:"summary"`
}

// BusinessReport is part2 of the Qualion Clean V1 block.
type BusinessReport struct {
	Risk        BusinessRisk `json:"risk"`
	ClientReady string       `json:"clientReady"`
}

// QualionCleanV1 is the versioned report envelope.
type QualionCleanV1 struct {
	Version         string          `json:"version"`
	FileTypeContext string          `json:"fileTypeContext"`
	Part1           TechnicalReport `json:"part1"`
	Part2           BusinessReport  `json:"part2"`
}

// Report is the complete analysis/cleaning result for one document.
type Report struct {
	Meta            ReportMeta       `json:"meta"`
	QualionCleanV1  QualionCleanV1   `json:"qualionCleanV1"`
	Detections      map[string][]Finding `json:"detections"`
	SpellingIssues  []SpellingIssue  `json:"spellingIssues"`
	Summary         Summary          `json:"summary"`
	BusinessRisk    BusinessRisk     `json:"businessRisk"`
	DocumentStats   DocumentStats    `json:"documentStats"`
	StatsAfter      *DocumentStats   `json:"documentStatsAfter,omitempty"`
	CleaningStats   *CleaningStats   `json:"cleaningStats,omitempty"`
	CorrectionStats *CorrectionStats `json:"correctionStats,omitempty"`
	ScoreBefore     int              `json:"scoreBefore"`
	ScoreAfter      *int             `json:"scoreAfter,omitempty"`
}

// AllDetections returns the per-category detection map with every category
// present, empty slices included, so the JSON schema stays stable.
func AllDetections(findings []Finding) map[string][]Finding {
	grouped := GroupByCategory(findings)
	out := make(map[string][]Finding, len(AllCategories))
	for _, c := range AllCategories {
		fs := grouped[c]
		if fs == nil {
			fs = []Finding{}
		}
		out[string(c)] = fs
	}
	return out
}
