// Package pipeline composes the analysis and cleaning flows: container
// adapter, extractor, detectors, proofreader, cleaner, applier, scorer,
// business rules and report assembly.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/qualion/clean/pkg/applier"
	"github.com/qualion/clean/pkg/cleaner"
	"github.com/qualion/clean/pkg/config"
	"github.com/qualion/clean/pkg/container"
	"github.com/qualion/clean/pkg/detector"
	"github.com/qualion/clean/pkg/extract"
	"github.com/qualion/clean/pkg/models"
	"github.com/qualion/clean/pkg/proof"
	"github.com/qualion/clean/pkg/report"
	"github.com/qualion/clean/pkg/risk"
	"github.com/qualion/clean/pkg/score"
	"github.com/qualion/clean/pkg/sensitive"
)

// Pipeline runs one document per call; instances are safe to reuse
// across documents.
type Pipeline struct {
	cfg   *config.Config
	log   *zap.Logger
	proof *proof.Proofreader
	risk  *risk.Engine
}

func New(cfg *config.Config, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	var provider proof.Provider
	if cfg.LLM.APIKey != "" {
		provider = proof.NewOpenAIClient(cfg.LLM)
	}
	return &Pipeline{
		cfg:   cfg,
		log:   log,
		proof: proof.New(provider, log),
		risk:  risk.NewEngine(),
	}
}

// Analysis is the result of the analyze flow, kept alive for the
// cleaning flow to consume.
type Analysis struct {
	Doc      *container.Document
	Proj     *extract.Projection
	Findings []models.Finding
	Spelling []models.SpellingIssue
	Summary  models.Summary
	Business models.BusinessRisk
	Stats    models.DocumentStats
	Degraded bool
	Started  time.Time
}

// Analyze opens the document and runs the full detection pipeline.
func (p *Pipeline) Analyze(ctx context.Context, data []byte, format models.Format, name string) (*Analysis, error) {
	started := time.Now()
	doc, err := container.Open(data, format, name)
	if err != nil {
		return nil, err
	}
	proj := extract.Extract(doc)

	findings := detector.Run(doc, proj, p.log.Sugar())

	proofRes := p.proof.Run(ctx, proj.Raw)
	findings = append(findings, spellingFindings(proofRes.Issues)...)
	models.SortFindings(findings)

	summary := score.Score(findings)
	business := p.risk.Evaluate(findings, len(proofRes.Issues), proj.Normalized())

	return &Analysis{
		Doc:      doc,
		Proj:     proj,
		Findings: findings,
		Spelling: proofRes.Issues,
		Summary:  summary,
		Business: business,
		Stats:    extract.Stats(doc, proj),
		Degraded: proofRes.Degraded,
		Started:  started,
	}, nil
}

// spellingFindings mirrors proofreader issues into the findings list so
// the per-category detections, summary and scoring see them.
func spellingFindings(issues []models.SpellingIssue) []models.Finding {
	findings := make([]models.Finding, 0, len(issues))
	for _, iss := range issues {
		location := "text"
		if iss.HasOffsets() {
			location = fmt.Sprintf("text@%d", *iss.StartIndex)
		}
		f := models.Finding{
			ID:       models.FindingID(models.CategorySpellingErrors, location, iss.Error),
			Category: models.CategorySpellingErrors,
			Type:     iss.Type,
			Severity: iss.Severity,
			Location: location,
			Value:    iss.Error,
			Context:  iss.ContextBefore + iss.Error + iss.ContextAfter,
			Evidence: iss.Correction,
		}
		findings = append(findings, f)
	}
	return findings
}

// CleanRequest selects remediations and approved finding subsets.
// Empty ApprovedSpelling means every detected issue is applied when
// spelling correction is enabled; RedactFindingIDs is opt-in only.
type CleanRequest struct {
	Options          cleaner.Options
	CorrectSpelling  bool
	ApprovedSpelling []string
	RedactFindingIDs []string

	// HiddenContentToClean and VisualObjectsToClean narrow the hidden
	// content and visual object passes to the parts behind the listed
	// finding ids. Empty hidden selection cleans every part; visual
	// objects are removed only for ids listed here.
	HiddenContentToClean []string
	VisualObjectsToClean []string

	// PDFToDocx additionally emits the cleaned PDF's text as a DOCX.
	PDFToDocx bool
}

// CleanResult carries the cleaned bytes, the rendered reports and the
// archive-ready entries.
type CleanResult struct {
	Analysis   *Analysis
	Cleaned    []byte
	Report     models.Report
	JSON       []byte
	HTML       []byte
	Cleaning   models.CleaningStats
	Correction models.CorrectionStats
	ScoreAfter int

	// ConvertedDOCX is set only for PDF inputs cleaned with PDFToDocx.
	ConvertedDOCX []byte
}

// Clean runs the analyze pipeline, applies the selected remediations
// and corrections, re-scores the cleaned output and assembles reports.
func (p *Pipeline) Clean(ctx context.Context, data []byte, format models.Format, name string, req CleanRequest) (*CleanResult, error) {
	analysis, err := p.Analyze(ctx, data, format, name)
	if err != nil {
		return nil, err
	}

	opts := req.Options
	opts.RedactValues = p.resolveRedactions(analysis, req.RedactFindingIDs)
	opts.HiddenContentParts = findingLocations(analysis.Findings, models.CategoryHiddenContent, req.HiddenContentToClean)
	opts.VisualObjectParts = findingLocations(analysis.Findings, models.CategoryVisualObjects, req.VisualObjectsToClean)

	cleaning, err := cleaner.New(p.log).Clean(analysis.Doc, opts)
	if err != nil {
		return nil, err
	}

	var correction models.CorrectionStats
	if req.CorrectSpelling {
		approved := selectSpelling(analysis.Spelling, req.ApprovedSpelling)
		correction = applier.New(p.log).Apply(analysis.Doc, analysis.Proj, approved)
	}

	cleaned, err := analysis.Doc.Save()
	if err != nil {
		return nil, fmt.Errorf("save cleaned container: %w", err)
	}

	var converted []byte
	if req.PDFToDocx && analysis.Doc.Format == models.FormatPDF && analysis.Doc.PDF != nil {
		converted, err = container.BuildDOCXFromText(analysis.Doc.PDF.ExtractText())
		if err != nil {
			return nil, fmt.Errorf("convert to docx: %w", err)
		}
	}

	scoreAfter, statsAfter := p.rescore(ctx, cleaned, format, name, analysis, cleaning, correction)

	rep := report.Build(report.Input{
		Doc:         analysis.Doc,
		Findings:    analysis.Findings,
		Spelling:    analysis.Spelling,
		Summary:     analysis.Summary,
		Business:    analysis.Business,
		Stats:       analysis.Stats,
		StatsAfter:  statsAfter,
		Cleaning:    &cleaning,
		Correction:  &correction,
		ScoreAfter:  &scoreAfter,
		LLMDegraded: analysis.Degraded,
		Started:     analysis.Started,
	})
	jsonData, err := report.WriteJSON(rep)
	if err != nil {
		return nil, err
	}
	htmlData, err := report.WriteHTML(rep)
	if err != nil {
		return nil, err
	}

	return &CleanResult{
		Analysis:   analysis,
		Cleaned:    cleaned,
		Report:     rep,
		JSON:       jsonData,
		HTML:       htmlData,
		Cleaning:   cleaning,
		Correction: correction,
		ScoreAfter: scoreAfter,

		ConvertedDOCX: converted,
	}, nil
}

// findingLocations resolves approved finding ids in a category to the
// container parts they were reported against. A nil selection selects
// nothing; callers decide what an empty part list means.
func findingLocations(findings []models.Finding, category models.Category, ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var parts []string
	seen := make(map[string]bool)
	for _, f := range findings {
		if f.Category != category || !want[f.ID] || seen[f.Location] {
			continue
		}
		seen[f.Location] = true
		parts = append(parts, f.Location)
	}
	return parts
}

// Rephrase is the clean flow with spelling correction forced on; the
// proofreader supplies the corrections it found during analysis.
func (p *Pipeline) Rephrase(ctx context.Context, data []byte, format models.Format, name string, req CleanRequest) (*CleanResult, error) {
	req.CorrectSpelling = true
	return p.Clean(ctx, data, format, name, req)
}

// rescore re-analyzes the cleaned bytes so the after-score reflects
// what a fresh analysis would find. Falls back to the bounded
// improvement estimate when the cleaned output cannot be re-opened.
func (p *Pipeline) rescore(ctx context.Context, cleaned []byte, format models.Format, name string, analysis *Analysis, cleaning models.CleaningStats, correction models.CorrectionStats) (int, *models.DocumentStats) {
	after, err := p.reanalyze(ctx, cleaned, format, name)
	if err != nil {
		p.log.Warn("re-analysis of cleaned output failed", zap.Error(err))
		return score.AfterScore(analysis.Summary, cleaning, correction), nil
	}
	// Cleaning only removes findings; a fresh analysis never scores
	// below the bounded estimate's floor.
	s := after.Summary.RiskScore
	if s < analysis.Summary.RiskScore {
		s = analysis.Summary.RiskScore
	}
	return s, &after.Stats
}

// reanalyze runs detection only, without the proofreader's remote
// stage, to score the cleaned bytes.
func (p *Pipeline) reanalyze(_ context.Context, data []byte, format models.Format, name string) (*Analysis, error) {
	doc, err := container.Open(data, format, name)
	if err != nil {
		return nil, err
	}
	proj := extract.Extract(doc)
	findings := detector.Run(doc, proj, p.log.Sugar())
	findings = append(findings, spellingFindings(proof.Prefilter(proj.Raw))...)
	return &Analysis{
		Doc:      doc,
		Proj:     proj,
		Findings: findings,
		Summary:  score.Score(findings),
		Stats:    extract.Stats(doc, proj),
	}, nil
}

// resolveRedactions maps approved sensitive finding ids back to the
// raw matched values. Critical findings carry only masked values, so
// the matcher is re-run over the projection to recover the literals.
func (p *Pipeline) resolveRedactions(analysis *Analysis, ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var values []string
	seen := make(map[string]bool)
	for _, m := range sensitive.Scan(analysis.Proj.Raw) {
		category := models.CategorySensitiveData
		if m.Type == "confidential_keyword" {
			category = models.CategoryComplianceRisks
		}
		value := m.Value
		if m.Severity == models.SeverityCritical {
			value = m.Masked
		}
		id := models.FindingID(category, fmt.Sprintf("text@%d", m.Start), value)
		if want[id] && !seen[m.Value] {
			seen[m.Value] = true
			values = append(values, m.Value)
		}
	}
	return values
}

func selectSpelling(issues []models.SpellingIssue, approved []string) []models.SpellingIssue {
	if len(approved) == 0 {
		return issues
	}
	want := make(map[string]bool, len(approved))
	for _, id := range approved {
		want[id] = true
	}
	var out []models.SpellingIssue
	for _, iss := range issues {
		if want[iss.ID] {
			out = append(out, iss)
		}
	}
	return out
}

// AnalyzeReport assembles the report for an analyze-only run.
func (p *Pipeline) AnalyzeReport(analysis *Analysis) (models.Report, []byte, []byte, error) {
	rep := report.Build(report.Input{
		Doc:         analysis.Doc,
		Findings:    analysis.Findings,
		Spelling:    analysis.Spelling,
		Summary:     analysis.Summary,
		Business:    analysis.Business,
		Stats:       analysis.Stats,
		LLMDegraded: analysis.Degraded,
		Started:     analysis.Started,
	})
	jsonData, err := report.WriteJSON(rep)
	if err != nil {
		return rep, nil, nil, err
	}
	htmlData, err := report.WriteHTML(rep)
	if err != nil {
		return rep, nil, nil, err
	}
	return rep, jsonData, htmlData, nil
}
