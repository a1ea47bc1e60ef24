package detector

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualion/clean/pkg/container"
	"github.com/qualion/clean/pkg/extract"
	"github.com/qualion/clean/pkg/models"
)

func openFixture(t *testing.T, format models.Format, parts map[string]string) *container.Document {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	ct, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = ct.Write([]byte(`<Types/>`))
	require.NoError(t, err)
	for name, content := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	doc, err := container.Open(buf.Bytes(), format, "fixture."+string(format))
	require.NoError(t, err)
	return doc
}

func categoriesOf(findings []models.Finding) map[models.Category]int {
	out := make(map[models.Category]int)
	for _, f := range findings {
		out[f.Category]++
	}
	return out
}

const riskyDocxBody = `<w:document xmlns:w="ns"><w:body>
<w:p><w:r><w:t>Quarterly proposal</w:t></w:r></w:p>
<w:p><w:ins w:author="Jane" w:date="2024-03-01T10:00:00Z"><w:r><w:t>added text</w:t></w:r></w:ins></w:p>
<w:p><w:del w:author="Jane"><w:r><w:delText>removed text</w:delText></w:r></w:del></w:p>
<w:p><w:r><w:rPr><w:vanish/></w:rPr><w:t>internal pricing floor</w:t></w:r></w:p>
<w:p><w:r><w:commentReference w:id="0"/></w:r></w:p>
</w:body></w:document>`

func riskyDocx(t *testing.T) *container.Document {
	t.Helper()
	return openFixture(t, models.FormatDOCX, map[string]string{
		"word/document.xml": riskyDocxBody,
		"docProps/core.xml": `<cp:coreProperties xmlns:dc="ns" xmlns:cp="ns2">` +
			`<dc:creator>Jane Smith</dc:creator><dc:title>Proposal</dc:title></cp:coreProperties>`,
		"docProps/app.xml": `<Properties><Company>Qualion GmbH</Company><TotalTime>95</TotalTime></Properties>`,
		"word/comments.xml": `<w:comments xmlns:w="ns">` +
			`<w:comment w:id="0" w:author="Bob" w:date="2024-03-02T09:00:00Z"><w:p><w:r><w:t>this is confidential, remove</w:t></w:r></w:p></w:comment>` +
			`<w:comment w:id="1" w:author="Bob"><w:p><w:r><w:t>typo here</w:t></w:r></w:p></w:comment>` +
			`</w:comments>`,
	})
}

func TestRunDOCX(t *testing.T) {
	doc := riskyDocx(t)
	proj := extract.Extract(doc)
	findings := Run(doc, proj, nil)
	require.NotEmpty(t, findings)

	cats := categoriesOf(findings)
	assert.GreaterOrEqual(t, cats[models.CategoryMetadata], 4, "creator, title, company, editing time")
	assert.Equal(t, 2, cats[models.CategoryComments])
	assert.Equal(t, 2, cats[models.CategoryTrackChanges])
	assert.GreaterOrEqual(t, cats[models.CategoryHiddenContent], 1)

	for i := 1; i < len(findings); i++ {
		assert.GreaterOrEqual(t, findings[i-1].Severity.Weight(), findings[i].Severity.Weight(),
			"findings ordered by severity descending")
	}

	ids := make(map[string]bool)
	for _, f := range findings {
		assert.False(t, ids[f.ID], "duplicate finding id %s", f.ID)
		ids[f.ID] = true
	}
}

func TestMetadataSeverities(t *testing.T) {
	doc := riskyDocx(t)
	findings, err := (&MetadataDetector{}).Detect(doc, nil)
	require.NoError(t, err)

	bySeverity := make(map[string]models.Severity)
	for _, f := range findings {
		bySeverity[f.Type] = f.Severity
	}
	assert.Equal(t, models.SeverityHigh, bySeverity["author"])
	assert.Equal(t, models.SeverityHigh, bySeverity["company"])
	assert.Equal(t, models.SeverityMedium, bySeverity["editingTime"])
	assert.Equal(t, models.SeverityLow, bySeverity["title"])
}

func TestCustomProperties(t *testing.T) {
	doc := openFixture(t, models.FormatDOCX, map[string]string{
		"docProps/custom.xml": `<Properties><property name="ClientCode"><vt:lpwstr>ACME</vt:lpwstr></property></Properties>`,
	})
	findings, err := (&MetadataDetector{}).Detect(doc, nil)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "customProperty", findings[0].Type)
	assert.Equal(t, "docProps/custom.xml:ClientCode", findings[0].Location)
	assert.Equal(t, "ACME", findings[0].Value)
}

func TestCommentSeverityKeywords(t *testing.T) {
	doc := riskyDocx(t)
	findings, err := (&CommentsDetector{}).Detect(doc, nil)
	require.NoError(t, err)
	require.Len(t, findings, 2)

	bySeverity := make(map[string]models.Severity)
	for _, f := range findings {
		bySeverity[f.Value] = f.Severity
		assert.Equal(t, "Bob", f.Evidence)
	}
	assert.Equal(t, models.SeverityHigh, bySeverity["this is confidential, remove"])
	assert.Equal(t, models.SeverityLow, bySeverity["typo here"])
}

func TestCommentReferenceFallback(t *testing.T) {
	doc := openFixture(t, models.FormatDOCX, map[string]string{
		"word/document.xml": `<w:document xmlns:w="ns"><w:body><w:p><w:r><w:commentReference w:id="3"/></w:r></w:p></w:body></w:document>`,
	})
	findings, err := (&CommentsDetector{}).Detect(doc, nil)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "commentReference", findings[0].Type)
	assert.Equal(t, models.SeverityLow, findings[0].Severity)
}

func TestTrackChanges(t *testing.T) {
	doc := riskyDocx(t)
	findings, err := (&TrackChangesDetector{}).Detect(doc, nil)
	require.NoError(t, err)
	require.Len(t, findings, 2)

	assert.Equal(t, "insertion", findings[0].Type)
	assert.Equal(t, "added text", findings[0].Value)
	assert.Equal(t, "Jane", findings[0].Evidence)
	assert.Equal(t, "deletion", findings[1].Type)
	assert.Equal(t, "removed text", findings[1].Value)
	for _, f := range findings {
		assert.Equal(t, models.SeverityMedium, f.Severity)
	}
}

func TestTrackChangesFormattingOnly(t *testing.T) {
	doc := openFixture(t, models.FormatDOCX, map[string]string{
		"word/document.xml": `<w:document xmlns:w="ns"><w:body><w:p><w:ins w:author="Jane"><w:r><w:rPr/></w:r></w:ins></w:p></w:body></w:document>`,
	})
	findings, err := (&TrackChangesDetector{}).Detect(doc, nil)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "(formatting change)", findings[0].Value)
}

func TestHiddenContentDOCX(t *testing.T) {
	doc := riskyDocx(t)
	findings, err := (&HiddenContentDetector{}).Detect(doc, nil)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "vanished_text", findings[0].Type)
	assert.Equal(t, models.SeverityHigh, findings[0].Severity)
	assert.Contains(t, findings[0].Value, "1 hidden text runs")
}

func TestExcelHiddenSheets(t *testing.T) {
	doc := openFixture(t, models.FormatXLSX, map[string]string{
		"xl/workbook.xml": `<workbook><sheets>` +
			`<sheet name="Public" sheetId="1" r:id="rId1"/>` +
			`<sheet name="Margins" sheetId="2" r:id="rId2" state="hidden"/>` +
			`<sheet name="Costs" sheetId="3" r:id="rId3" state="veryHidden"/>` +
			`</sheets></workbook>`,
		"xl/worksheets/sheet1.xml": `<worksheet><cols><col min="3" max="3" hidden="1"/></cols>` +
			`<sheetData><row r="2" hidden="true"><c r="A2"/></row></sheetData></worksheet>`,
	})
	findings, err := (&ExcelHiddenDetector{}).Detect(doc, nil)
	require.NoError(t, err)

	cats := categoriesOf(findings)
	assert.Equal(t, 2, cats[models.CategoryHiddenSheets])
	assert.Equal(t, 1, cats[models.CategoryHiddenColumns])
	assert.Equal(t, 1, cats[models.CategoryExcelHiddenData])

	sheets, err := ParseSheets(doc.Archive)
	require.NoError(t, err)
	require.Len(t, sheets, 3)
	assert.Equal(t, "visible", sheets[0].State)
	assert.Equal(t, "hidden", sheets[1].State)
	assert.Equal(t, "veryHidden", sheets[2].State)
}

func TestFormulaClassification(t *testing.T) {
	doc := openFixture(t, models.FormatXLSX, map[string]string{
		"xl/workbook.xml": `<workbook><sheets><sheet name="S" sheetId="1"/></sheets></workbook>`,
		"xl/worksheets/sheet1.xml": `<worksheet><sheetData>` +
			`<row><c r="A1"><f>SUM([Budget.xlsx]Sheet1!A1:A9)</f></c></row>` +
			`<row><c r="B1"><f>WEBSERVICE("http://rates.example/latest")</f></c></row>` +
			`<row><c r="C1"><f>INDIRECT(D1)</f></c></row>` +
			`<row><c r="D1"><f>SUM(A1:A9)</f></c></row>` +
			`</sheetData></worksheet>`,
	})
	findings, err := (&FormulasDetector{}).Detect(doc, nil)
	require.NoError(t, err)
	require.Len(t, findings, 3, "plain local formulas are not reported")

	byCell := make(map[string]models.Finding)
	for _, f := range findings {
		byCell[f.Location] = f
	}
	assert.Equal(t, "external_reference", byCell["xl/worksheets/sheet1.xml!A1"].Type)
	assert.Equal(t, models.SeverityHigh, byCell["xl/worksheets/sheet1.xml!A1"].Severity)
	assert.Equal(t, "web_call", byCell["xl/worksheets/sheet1.xml!B1"].Type)
	assert.Equal(t, "dynamic_reference", byCell["xl/worksheets/sheet1.xml!C1"].Type)
	assert.Equal(t, models.SeverityLow, byCell["xl/worksheets/sheet1.xml!C1"].Severity)
}
