package report

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualion/clean/pkg/container"
	"github.com/qualion/clean/pkg/models"
)

func testInput(t *testing.T) Input {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<Types/>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	doc, err := container.Open(buf.Bytes(), models.FormatDOCX, "proposal.docx")
	require.NoError(t, err)

	findings := []models.Finding{
		{
			ID:       models.FindingID(models.CategoryMetadata, "docProps/core.xml", "Jane"),
			Category: models.CategoryMetadata, Type: "author",
			Severity: models.SeverityHigh, Location: "docProps/core.xml", Value: "Jane",
		},
	}
	return Input{
		Doc:      doc,
		Findings: findings,
		Summary:  models.Summary{High: 1, TotalIssues: 1, RiskScore: 88, RiskLevel: models.RiskSafe, RiskBreakdown: map[string]int{}},
		Business: models.BusinessRisk{
			Levels:      map[models.BusinessCategory]models.BusinessLevel{models.BusinessMargin: models.LevelNone},
			Score:       100,
			ClientReady: "YES",
		},
		Started: time.Now(),
	}
}

func TestBuildReport(t *testing.T) {
	in := testInput(t)
	rep := Build(in)

	assert.Equal(t, "qualion-clean-v1", rep.QualionCleanV1.Version)
	assert.Equal(t, "proposal.docx", rep.Meta.OriginalName)
	assert.Equal(t, models.FormatDOCX, rep.Meta.Format)
	assert.NotEmpty(t, rep.Meta.Fingerprint)
	assert.NotEmpty(t, rep.Meta.EngineVersion)
	assert.Equal(t, 88, rep.ScoreBefore)
	assert.Nil(t, rep.ScoreAfter)

	require.Len(t, rep.Detections, len(models.AllCategories), "every category array is present")
	assert.Len(t, rep.Detections[string(models.CategoryMetadata)], 1)
	assert.Empty(t, rep.Detections[string(models.CategoryMacros)])
	assert.Equal(t, rep.Detections, rep.QualionCleanV1.Part1.Findings)
}

func TestBuildChecklist(t *testing.T) {
	in := testInput(t)
	rep := Build(in)

	checklist := rep.QualionCleanV1.Part1.Checklist
	require.Len(t, checklist, 10)

	byName := make(map[string]models.ChecklistItem)
	for _, item := range checklist {
		byName[item.Check] = item
	}
	md := byName["Document metadata"]
	assert.Equal(t, "fail", md.Status, "high severity marks the row failed")
	assert.Equal(t, 1, md.Count)
	assert.Equal(t, models.SeverityHigh, md.Severity)
	assert.Equal(t, "Jane", md.Detail)

	assert.Equal(t, "ok", byName["Macros"].Status)
	assert.Zero(t, byName["Macros"].Count)
}

func TestWriteJSONRoundtrip(t *testing.T) {
	rep := Build(testInput(t))
	data, err := WriteJSON(rep)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "qualionCleanV1")
	assert.Contains(t, decoded, "scoreBefore")
	assert.NotContains(t, decoded, "scoreAfter", "omitted when cleaning has not run")
}

func TestWriteHTML(t *testing.T) {
	in := testInput(t)
	after := 95
	in.ScoreAfter = &after
	in.Cleaning = &models.CleaningStats{MetadataRemoved: 3}
	rep := Build(in)

	html, err := WriteHTML(rep)
	require.NoError(t, err)
	body := string(html)
	assert.Contains(t, body, "proposal.docx")
	assert.Contains(t, body, "Qualion Clean Report")
	assert.Contains(t, body, "after cleaning: <strong>95</strong>")
	assert.Contains(t, body, "Metadata entries removed")
	assert.Contains(t, body, "docProps/core.xml")
}

func TestBuildArchiveRoundtrip(t *testing.T) {
	entries := []Entry{
		{Name: "cleaned.docx", Data: []byte("docx bytes")},
		{Name: "report.json", Data: []byte(`{"ok":true}`)},
	}
	data, err := BuildArchive(entries)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	got := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		got[f.Name] = string(content)
	}
	assert.Equal(t, "docx bytes", got["cleaned.docx"])
	assert.Equal(t, `{"ok":true}`, got["report.json"])
}

func TestOutputNames(t *testing.T) {
	cleaned, htmlName, jsonName := OutputNames("proposal.docx", "docx", false)
	assert.Equal(t, "cleaned.docx", cleaned)
	assert.Equal(t, "report.html", htmlName)
	assert.Equal(t, "report.json", jsonName)

	cleaned, htmlName, jsonName = OutputNames("Q3 budget.xlsx", "xlsx", true)
	assert.Equal(t, "Q3 budget_cleaned.xlsx", cleaned)
	assert.Equal(t, "Q3 budget_report.html", htmlName)
	assert.Equal(t, "Q3 budget_report.json", jsonName)
}

func TestCategoryTitle(t *testing.T) {
	assert.Equal(t, "Hidden Sheets", categoryTitle("hiddenSheets"))
	assert.Equal(t, "Metadata", categoryTitle("metadata"))
}
