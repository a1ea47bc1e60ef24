package models

// DocumentStats summarizes the size and shape of a document's text content.
type DocumentStats struct {
	Words      int `json:"words"`
	Characters int `json:"characters"`
	Paragraphs int `json:"paragraphs"`
	Parts      int `json:"parts"`
	Slides     int `json:"slides,omitempty"`
	Sheets     int `json:"sheets,omitempty"`
	Pages      int `json:"pages,omitempty"`
}

// CleaningStats records what the cleaner removed, for scoring improvement.
type CleaningStats struct {
	MetadataRemoved       int             `json:"metadataRemoved"`
	CommentsRemoved       int             `json:"commentsRemoved"`
	TrackChangesAccepted  int             `json:"trackChangesAccepted"`
	HiddenContentRemoved  int             `json:"hiddenContentRemoved"`
	HiddenSheetsRemoved   int             `json:"hiddenSheetsRemoved"`
	EmbeddedRemoved       int             `json:"embeddedObjectsRemoved"`
	MacrosRemoved         int             `json:"macrosRemoved"`
	SensitiveRedacted     int             `json:"sensitiveDataRedacted"`
	FormulasConverted     int             `json:"formulasConverted"`
	DrawingsRemoved       int             `json:"drawingsRemoved"`
	VisualObjectsRemoved  int             `json:"visualObjectsRemoved"`
	RedactionExamples     []ChangeExample `json:"redactionExamples"`
	PartsRemoved          []string        `json:"partsRemoved"`
	AnnotationsCleared    int             `json:"annotationsCleared,omitempty"`
	AttachmentsRemoved    int             `json:"attachmentsRemoved,omitempty"`
	InfoEntriesCleared    int             `json:"infoEntriesCleared,omitempty"`
	SkippedParts          []string        `json:"skippedParts,omitempty"`
}

// CorrectionStats records what the applier changed.
type CorrectionStats struct {
	Requested    int             `json:"requested"`
	Applied      int             `json:"applied"`
	Skipped      int             `json:"skipped"`
	NodesVisited int             `json:"nodesVisited"`
	NodesChanged int             `json:"nodesChanged"`
	Examples     []ChangeExample `json:"examples"`
}

// ChangeExample is a truncated before/after pair for the report.
type ChangeExample struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

// Summary aggregates finding counts and the technical risk score.
type Summary struct {
	Critical      int            `json:"critical"`
	High          int            `json:"high"`
	Medium        int            `json:"medium"`
	Low           int            `json:"low"`
	TotalIssues   int            `json:"totalIssues"`
	RiskScore     int            `json:"riskScore"`
	RiskLevel     RiskLevel      `json:"riskLevel"`
	RiskBreakdown map[string]int `json:"riskBreakdown"`
}

// NewSummary tallies findings into a summary without scoring.
func NewSummary(findings []Finding) Summary {
	s := Summary{RiskBreakdown: make(map[string]int)}
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			s.Critical++
		case SeverityHigh:
			s.High++
		case SeverityMedium:
			s.Medium++
		case SeverityLow:
			s.Low++
		}
		s.TotalIssues++
	}
	return s
}
