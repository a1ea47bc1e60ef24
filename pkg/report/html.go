package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/qualion/clean/pkg/models"
)

// WriteHTML renders the self-contained HTML report. No external
// assets; styling is inlined so the file can be opened from the output
// archive directly.
func WriteHTML(r models.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, newHTMLView(r)); err != nil {
		return nil, fmt.Errorf("render html report: %w", err)
	}
	return buf.Bytes(), nil
}

type htmlView struct {
	Report     models.Report
	ScoreClass string
	Categories []htmlCategory
	ScoreAfter string
}

type htmlCategory struct {
	Name     string
	Findings []models.Finding
}

func newHTMLView(r models.Report) htmlView {
	v := htmlView{Report: r, ScoreClass: scoreClass(r.Summary.RiskScore)}
	for _, cat := range models.AllCategories {
		fs := r.Detections[string(cat)]
		if len(fs) == 0 {
			continue
		}
		v.Categories = append(v.Categories, htmlCategory{Name: categoryTitle(string(cat)), Findings: fs})
	}
	if r.ScoreAfter != nil {
		v.ScoreAfter = fmt.Sprintf("%d", *r.ScoreAfter)
	}
	return v
}

func scoreClass(score int) string {
	switch {
	case score >= 90:
		return "safe"
	case score >= 70:
		return "low"
	case score >= 50:
		return "medium"
	case score >= 25:
		return "high"
	default:
		return "critical"
	}
}

// categoryTitle turns "hiddenSheets" into "Hidden Sheets".
func categoryTitle(cat string) string {
	var b strings.Builder
	for i, r := range cat {
		if i == 0 {
			b.WriteRune(r - 'a' + 'A')
			continue
		}
		if r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var htmlTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Qualion Clean Report - {{.Report.Meta.OriginalName}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 2rem auto; max-width: 900px; color: #1c1e21; }
h1 { font-size: 1.5rem; } h2 { font-size: 1.15rem; margin-top: 2rem; border-bottom: 1px solid #ddd; padding-bottom: .3rem; }
table { border-collapse: collapse; width: 100%; margin-top: .5rem; }
th, td { text-align: left; padding: .35rem .6rem; border-bottom: 1px solid #eee; font-size: .9rem; }
.score { font-size: 2.4rem; font-weight: 700; }
.badge { display: inline-block; padding: .15rem .5rem; border-radius: .4rem; font-size: .8rem; color: #fff; }
.safe { background: #2e7d32; } .low { background: #558b2f; } .medium { background: #f9a825; }
.high { background: #ef6c00; } .critical { background: #c62828; }
.sev-critical { color: #c62828; font-weight: 600; } .sev-high { color: #ef6c00; font-weight: 600; }
.sev-medium { color: #f9a825; } .sev-low { color: #777; }
.meta { color: #666; font-size: .85rem; }
code { background: #f4f4f4; padding: .1rem .3rem; border-radius: .25rem; font-size: .85em; }
</style>
</head>
<body>
<h1>Qualion Clean Report</h1>
<p class="meta">{{.Report.Meta.OriginalName}} ({{.Report.Meta.Format}}) &middot; analyzed {{.Report.Meta.AnalyzedAt.Format "2006-01-02 15:04 MST"}} &middot; engine {{.Report.Meta.EngineVersion}}{{if .Report.Meta.LLMDegraded}} &middot; remote proofreading unavailable{{end}}</p>

<p><span class="score">{{.Report.Summary.RiskScore}}</span>/100
<span class="badge {{.ScoreClass}}">{{.Report.Summary.RiskLevel}}</span>
{{if .ScoreAfter}}&rarr; after cleaning: <strong>{{.ScoreAfter}}</strong>/100{{end}}</p>

<h2>Technical checklist</h2>
<table>
<tr><th>Check</th><th>Status</th><th>Count</th><th>Detail</th></tr>
{{range .Report.QualionCleanV1.Part1.Checklist}}
<tr><td>{{.Check}}</td><td>{{.Status}}</td><td>{{.Count}}</td><td>{{.Detail}}</td></tr>
{{end}}
</table>

<h2>Business risk</h2>
<p>Score <strong>{{.Report.BusinessRisk.Score}}</strong>/100 &middot; client ready: <strong>{{.Report.BusinessRisk.ClientReady}}</strong></p>
{{if .Report.BusinessRisk.Flags}}
<table>
<tr><th>Category</th><th>Level</th><th>Reason</th><th>Evidence</th></tr>
{{range .Report.BusinessRisk.Flags}}
<tr><td>{{.Category}}</td><td>{{.Level}}</td><td>{{.Reason}}</td><td><code>{{.Evidence}}</code></td></tr>
{{end}}
</table>
{{end}}

{{range .Categories}}
<h2>{{.Name}}</h2>
<table>
<tr><th>Severity</th><th>Type</th><th>Location</th><th>Value</th></tr>
{{range .Findings}}
<tr><td class="sev-{{.Severity}}">{{.Severity}}</td><td>{{.Type}}</td><td>{{.Location}}</td><td>{{.Value}}</td></tr>
{{end}}
</table>
{{end}}

{{if .Report.SpellingIssues}}
<h2>Spelling</h2>
<table>
<tr><th>Error</th><th>Correction</th><th>Type</th></tr>
{{range .Report.SpellingIssues}}
<tr><td><code>{{.Error}}</code></td><td><code>{{.Correction}}</code></td><td>{{.Type}}</td></tr>
{{end}}
</table>
{{end}}

{{if .Report.CleaningStats}}
<h2>Cleaning</h2>
<table>
<tr><td>Metadata entries removed</td><td>{{.Report.CleaningStats.MetadataRemoved}}</td></tr>
<tr><td>Comments removed</td><td>{{.Report.CleaningStats.CommentsRemoved}}</td></tr>
<tr><td>Tracked changes accepted</td><td>{{.Report.CleaningStats.TrackChangesAccepted}}</td></tr>
<tr><td>Hidden sheets removed</td><td>{{.Report.CleaningStats.HiddenSheetsRemoved}}</td></tr>
<tr><td>Embedded objects removed</td><td>{{.Report.CleaningStats.EmbeddedRemoved}}</td></tr>
<tr><td>Macros removed</td><td>{{.Report.CleaningStats.MacrosRemoved}}</td></tr>
<tr><td>Sensitive values redacted</td><td>{{.Report.CleaningStats.SensitiveRedacted}}</td></tr>
</table>
{{end}}

<p class="meta">Document {{.Report.Meta.DocumentID}} &middot; fingerprint <code>{{.Report.Meta.Fingerprint}}</code> &middot; {{.Report.Meta.ProcessingTime}}</p>
</body>
</html>
`))
