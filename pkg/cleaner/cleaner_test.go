package cleaner

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualion/clean/pkg/container"
	"github.com/qualion/clean/pkg/models"
)

func openFixture(t *testing.T, format models.Format, parts map[string]string) *container.Document {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, ok := parts["[Content_Types].xml"]; !ok {
		ct, err := zw.Create("[Content_Types].xml")
		require.NoError(t, err)
		_, err = ct.Write([]byte(`<Types/>`))
		require.NoError(t, err)
	}
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

func partString(t *testing.T, doc *container.Document, name string) string {
	t.Helper()
	data, err := doc.ReadPart(name)
	require.NoError(t, err)
	return string(data)
}

func TestCleanDOCXMetadata(t *testing.T) {
	doc := openFixture(t, models.FormatDOCX, map[string]string{
		"[Content_Types].xml": `<Types>` +
			`<Override PartName="/docProps/core.xml" ContentType="application/vnd.core"/>` +
			`<Override PartName="/docProps/app.xml" ContentType="application/vnd.app"/>` +
			`<Override PartName="/word/document.xml" ContentType="application/vnd.document"/>` +
			`</Types>`,
		"_rels/.rels": `<Relationships>` +
			`<Relationship Id="rId1" Type="t1" Target="word/document.xml"/>` +
			`<Relationship Id="rId2" Type="t2" Target="docProps/core.xml"/>` +
			`<Relationship Id="rId3" Type="t3" Target="docProps/app.xml"/>` +
			`</Relationships>`,
		"word/document.xml": `<w:document xmlns:w="ns"><w:body/></w:document>`,
		"docProps/core.xml": `<cp:coreProperties><dc:creator>Jane Smith</dc:creator><dc:title>Plan</dc:title></cp:coreProperties>`,
		"docProps/app.xml":  `<Properties><Company>Qualion GmbH</Company><TotalTime>95</TotalTime></Properties>`,
	})

	stats, err := New(nil).Clean(doc, Options{RemoveMetadata: true})
	require.NoError(t, err)

	assert.Equal(t, 4, stats.MetadataRemoved, "creator, title, company, editing time")
	assert.Contains(t, stats.PartsRemoved, "docProps/core.xml")
	assert.Contains(t, stats.PartsRemoved, "docProps/app.xml")
	assert.False(t, doc.Archive.HasPart("docProps/core.xml"))
	assert.False(t, doc.Archive.HasPart("docProps/app.xml"))

	ct := partString(t, doc, "[Content_Types].xml")
	assert.NotContains(t, ct, "docProps/core.xml")
	assert.Contains(t, ct, "word/document.xml", "unrelated overrides stay")

	rels := partString(t, doc, "_rels/.rels")
	assert.NotContains(t, rels, "docProps")
	assert.Contains(t, rels, `Id="rId1"`)
}

func TestCleanDOCXComments(t *testing.T) {
	doc := openFixture(t, models.FormatDOCX, map[string]string{
		"word/document.xml": `<w:document xmlns:w="ns"><w:body>` +
			`<w:p><w:commentRangeStart w:id="0"/><w:r><w:t>text</w:t></w:r>` +
			`<w:commentRangeEnd w:id="0"/><w:r><w:commentReference w:id="0"/></w:r></w:p>` +
			`</w:body></w:document>`,
		"word/comments.xml": `<w:comments xmlns:w="ns">` +
			`<w:comment w:id="0" w:author="Bob"><w:p><w:r><w:t>fix this</w:t></w:r></w:p></w:comment>` +
			`<w:comment w:id="1" w:author="Bob"><w:p><w:r><w:t>and this</w:t></w:r></w:p></w:comment>` +
			`</w:comments>`,
	})

	stats, err := New(nil).Clean(doc, Options{RemoveComments: true})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.CommentsRemoved)
	assert.False(t, doc.Archive.HasPart("word/comments.xml"))
	body := partString(t, doc, "word/document.xml")
	assert.NotContains(t, body, "commentRange")
	assert.NotContains(t, body, "commentReference")
	assert.Contains(t, body, "<w:t>text</w:t>", "body text untouched")
}

func TestCleanDOCXAcceptTrackChanges(t *testing.T) {
	doc := openFixture(t, models.FormatDOCX, map[string]string{
		"word/document.xml": `<w:document xmlns:w="ns"><w:body>` +
			`<w:p><w:ins w:id="1" w:author="Jane"><w:r><w:t>kept insertion</w:t></w:r></w:ins></w:p>` +
			`<w:p><w:del w:id="2" w:author="Jane"><w:r><w:delText>dropped deletion</w:delText></w:r></w:del></w:p>` +
			`</w:body></w:document>`,
	})

	stats, err := New(nil).Clean(doc, Options{AcceptTrackChanges: true})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TrackChangesAccepted)
	body := partString(t, doc, "word/document.xml")
	assert.Contains(t, body, "kept insertion", "insertions are accepted into the body")
	assert.NotContains(t, body, "dropped deletion")
	assert.NotContains(t, body, "<w:ins")
	assert.NotContains(t, body, "<w:del")
}

func TestCleanDOCXHiddenRuns(t *testing.T) {
	doc := openFixture(t, models.FormatDOCX, map[string]string{
		"word/document.xml": `<w:document xmlns:w="ns"><w:body>` +
			`<w:p><w:r><w:rPr><w:vanish/></w:rPr><w:t>internal floor price</w:t></w:r>` +
			`<w:r><w:t>public text</w:t></w:r></w:p>` +
			`</w:body></w:document>`,
	})

	stats, err := New(nil).Clean(doc, Options{RemoveHiddenContent: true})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.HiddenContentRemoved)
	body := partString(t, doc, "word/document.xml")
	assert.NotContains(t, body, "internal floor price")
	assert.Contains(t, body, "public text")
}

func TestCleanDOCXHiddenRunsSelectedParts(t *testing.T) {
	hidden := `<w:p><w:r><w:rPr><w:vanish/></w:rPr><w:t>draft note</w:t></w:r></w:p>`
	doc := openFixture(t, models.FormatDOCX, map[string]string{
		"word/document.xml": `<w:document xmlns:w="ns"><w:body>` + hidden + `</w:body></w:document>`,
		"word/header1.xml":  `<w:hdr xmlns:w="ns">` + hidden + `</w:hdr>`,
	})

	stats, err := New(nil).Clean(doc, Options{
		RemoveHiddenContent: true,
		HiddenContentParts:  []string{"word/document.xml"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.HiddenContentRemoved, "only the selected part is cleaned")
	assert.NotContains(t, partString(t, doc, "word/document.xml"), "draft note")
	assert.Contains(t, partString(t, doc, "word/header1.xml"), "draft note")
}

func TestCleanDOCXMacros(t *testing.T) {
	doc := openFixture(t, models.FormatDOCX, map[string]string{
		"word/document.xml":   `<w:document xmlns:w="ns"><w:body/></w:document>`,
		"word/vbaProject.bin": "binary blob",
	})

	stats, err := New(nil).Clean(doc, Options{RemoveMacros: true})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.MacrosRemoved)
	assert.False(t, doc.Archive.HasPart("word/vbaProject.bin"))
}

func TestCleanDOCXEmbeddings(t *testing.T) {
	doc := openFixture(t, models.FormatDOCX, map[string]string{
		"word/document.xml":              `<w:document xmlns:w="ns"><w:body/></w:document>`,
		"word/embeddings/oleObject1.bin": "ole",
	})

	stats, err := New(nil).Clean(doc, Options{RemoveEmbeddedObjects: true})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.EmbeddedRemoved)
	assert.False(t, doc.Archive.HasPart("word/embeddings/oleObject1.bin"))
}

func TestCleanDOCXRedaction(t *testing.T) {
	doc := openFixture(t, models.FormatDOCX, map[string]string{
		"word/document.xml": `<w:document xmlns:w="ns"><w:body>` +
			`<w:p><w:r><w:t>wire to DE89370400440532013000 now</w:t></w:r></w:p>` +
			`<w:p><w:r><w:t>terms: A &amp; B pricing</w:t></w:r></w:p>` +
			`</w:body></w:document>`,
	})

	stats, err := New(nil).Clean(doc, Options{
		RedactValues: []string{"DE89370400440532013000", "A & B pricing"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.SensitiveRedacted)
	require.Len(t, stats.RedactionExamples, 2)
	assert.Equal(t, "[REDACTED]", stats.RedactionExamples[0].After)

	body := partString(t, doc, "word/document.xml")
	assert.NotContains(t, body, "DE89370400440532013000")
	assert.NotContains(t, body, "A &amp; B pricing", "escaped needles are matched too")
	assert.Contains(t, body, "wire to [REDACTED] now")
}

func TestCleanDOCXDrawPolicy(t *testing.T) {
	body := `<w:document xmlns:w="ns"><w:body>` +
		`<w:p><w:r><w:pict><v:shape/></w:pict></w:r></w:p>` +
		`<w:p><w:r><w:drawing><wp:inline/></w:drawing></w:r></w:p>` +
		`</w:body></w:document>`

	auto := openFixture(t, models.FormatDOCX, map[string]string{"word/document.xml": body})
	stats, err := New(nil).Clean(auto, Options{DrawPolicy: DrawAuto})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DrawingsRemoved, "auto strips legacy pictures only")
	out := partString(t, auto, "word/document.xml")
	assert.NotContains(t, out, "<w:pict>")
	assert.Contains(t, out, "<w:drawing>")

	all := openFixture(t, models.FormatDOCX, map[string]string{"word/document.xml": body})
	stats, err = New(nil).Clean(all, Options{DrawPolicy: DrawAll})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.DrawingsRemoved)
	assert.NotContains(t, partString(t, all, "word/document.xml"), "<w:drawing>")
}

func TestCleanDOCXVisualObjects(t *testing.T) {
	mask := `<wp:anchor behindDoc="0"><a:solidFill><a:srgbClr val="FFFFFF"/></a:solidFill></wp:anchor>`
	labeled := `<wp:anchor behindDoc="0"><a:solidFill><a:srgbClr val="FF0000"/></a:solidFill><a:t>Figure 1</a:t></wp:anchor>`
	body := `<w:document xmlns:w="ns"><w:body><w:p>` + mask + labeled + `</w:p></w:body></w:document>`

	unselected := openFixture(t, models.FormatDOCX, map[string]string{"word/document.xml": body})
	stats, err := New(nil).Clean(unselected, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.VisualObjectsRemoved, "nothing is removed without a selection")
	assert.Contains(t, partString(t, unselected, "word/document.xml"), `val="FFFFFF"`)

	selected := openFixture(t, models.FormatDOCX, map[string]string{"word/document.xml": body})
	stats, err = New(nil).Clean(selected, Options{
		VisualObjectParts: []string{"word/document.xml"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.VisualObjectsRemoved)
	out := partString(t, selected, "word/document.xml")
	assert.NotContains(t, out, `val="FFFFFF"`, "the masking shape is gone")
	assert.Contains(t, out, "Figure 1", "shapes carrying text stay")
}

func TestCleanPPTXVisualObjectsSelectedSlides(t *testing.T) {
	mask := `<p:sp><p:spPr><a:solidFill><a:srgbClr val="FFFFFF"/></a:solidFill></p:spPr></p:sp>`
	title := `<p:sp><p:txBody><a:p><a:r><a:t>Roadmap</a:t></a:r></a:p></p:txBody></p:sp>`
	doc := openFixture(t, models.FormatPPTX, map[string]string{
		"ppt/slides/slide1.xml": `<p:sld>` + mask + title + `</p:sld>`,
		"ppt/slides/slide2.xml": `<p:sld>` + mask + `</p:sld>`,
	})

	stats, err := New(nil).Clean(doc, Options{
		VisualObjectParts: []string{"ppt/slides/slide1.xml"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.VisualObjectsRemoved)
	slide1 := partString(t, doc, "ppt/slides/slide1.xml")
	assert.NotContains(t, slide1, "solidFill")
	assert.Contains(t, slide1, "Roadmap")
	assert.Contains(t, partString(t, doc, "ppt/slides/slide2.xml"), "solidFill", "unselected slides keep their shapes")
}

func TestCleanXLSXMetadataClearedInPlace(t *testing.T) {
	doc := openFixture(t, models.FormatXLSX, map[string]string{
		"docProps/core.xml": `<cp:coreProperties><dc:creator>Jane</dc:creator><dc:title>Budget</dc:title></cp:coreProperties>`,
		"docProps/app.xml":  `<Properties><Company>Qualion</Company></Properties>`,
		"xl/workbook.xml":   `<workbook><sheets><sheet name="S" sheetId="1" r:id="rId1"/></sheets></workbook>`,
	})

	stats, err := New(nil).Clean(doc, Options{RemoveMetadata: true})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.MetadataRemoved)
	core := partString(t, doc, "docProps/core.xml")
	assert.Contains(t, core, "<dc:creator></dc:creator>", "fields are emptied, parts kept")
	assert.NotContains(t, core, "Jane")
	assert.True(t, doc.Archive.HasPart("docProps/app.xml"))
}

func TestCleanXLSXHiddenSheets(t *testing.T) {
	doc := openFixture(t, models.FormatXLSX, map[string]string{
		"xl/workbook.xml": `<workbook><sheets>` +
			`<sheet name="Public" sheetId="1" r:id="rId1"/>` +
			`<sheet name="Margins" sheetId="2" r:id="rId2" state="hidden"/>` +
			`</sheets></workbook>`,
		"xl/_rels/workbook.xml.rels": `<Relationships>` +
			`<Relationship Id="rId1" Type="ws" Target="worksheets/sheet1.xml"/>` +
			`<Relationship Id="rId2" Type="ws" Target="worksheets/sheet2.xml"/>` +
			`</Relationships>`,
		"xl/worksheets/sheet1.xml": `<worksheet><sheetData/></worksheet>`,
		"xl/worksheets/sheet2.xml": `<worksheet><sheetData><row><c r="A1"><v>42</v></c></row></sheetData></worksheet>`,
	})

	stats, err := New(nil).Clean(doc, Options{RemoveHiddenContent: true})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.HiddenSheetsRemoved)
	assert.Contains(t, stats.PartsRemoved, "xl/worksheets/sheet2.xml")
	assert.False(t, doc.Archive.HasPart("xl/worksheets/sheet2.xml"))
	assert.True(t, doc.Archive.HasPart("xl/worksheets/sheet1.xml"))

	wb := partString(t, doc, "xl/workbook.xml")
	assert.NotContains(t, wb, "Margins")
	assert.Contains(t, wb, "Public")
	assert.NotContains(t, partString(t, doc, "xl/_rels/workbook.xml.rels"), `Id="rId2"`)
}

func TestCleanXLSXFormulasToValues(t *testing.T) {
	doc := openFixture(t, models.FormatXLSX, map[string]string{
		"xl/workbook.xml": `<workbook><sheets><sheet name="S" sheetId="1" r:id="rId1"/></sheets></workbook>`,
		"xl/worksheets/sheet1.xml": `<worksheet><sheetData>` +
			`<row><c r="A1"><f>SUM(B1:B9)</f><v>42</v></c></row>` +
			`<row><c r="A2"><f aca="true"/><v>7</v></c></row>` +
			`</sheetData></worksheet>`,
	})

	stats, err := New(nil).Clean(doc, Options{FormulasToValues: true})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FormulasConverted)
	sheet := partString(t, doc, "xl/worksheets/sheet1.xml")
	assert.NotContains(t, sheet, "<f")
	assert.Contains(t, sheet, "<v>42</v>", "cached values remain")
}

const pdfFixture = `%PDF-1.4
1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj
2 0 obj << /Type /Pages /Kids [3 0 R] /Count 1 >> endobj
3 0 obj << /Type /Page /Parent 2 0 R /Annots [5 0 R] >> endobj
4 0 obj << /Title (Margin Model) /Author (Jane Smith) >> endobj
5 0 obj << /Type /Annot /Subtype /Text /Contents (internal note) >> endobj
trailer
<< /Root 1 0 R /Info 4 0 R >>
startxref
0
%%EOF
`

func TestCleanPDFTextOnlyMode(t *testing.T) {
	doc, err := container.Open([]byte(pdfFixture), models.FormatPDF, "deck.pdf")
	require.NoError(t, err)

	// Sanitize mode respects the individual switches.
	stats, err := New(nil).Clean(doc, Options{PDFMode: PDFModeSanitize})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.MetadataRemoved)
	assert.Equal(t, 0, stats.CommentsRemoved)

	// Text-only forces metadata, annotations and attachments off even
	// when no switch is set.
	stats, err = New(nil).Clean(doc, Options{PDFMode: PDFModeTextOnly})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.MetadataRemoved, "title and author")
	assert.Equal(t, 1, stats.CommentsRemoved)
	assert.Equal(t, 0, stats.AttachmentsRemoved)
	assert.Empty(t, doc.PDF.Info())
	assert.Equal(t, 0, doc.PDF.AnnotCount())
}

func TestCleanUnsupportedFormat(t *testing.T) {
	doc := &container.Document{Format: models.Format("doc")}
	_, err := New(nil).Clean(doc, Options{})
	assert.ErrorIs(t, err, container.ErrUnsupportedFormat)
}

func TestClearElement(t *testing.T) {
	out, n := clearElement(`<a><dc:creator>Jane</dc:creator><dc:creator></dc:creator></a>`, "dc:creator")
	assert.Equal(t, 1, n, "already-empty bodies are not counted")
	assert.Equal(t, `<a><dc:creator></dc:creator><dc:creator></dc:creator></a>`, out)
}

func TestResolveTarget(t *testing.T) {
	assert.Equal(t, "docProps/core.xml", resolveTarget("", "docProps/core.xml"))
	assert.Equal(t, "word/comments.xml", resolveTarget("word", "comments.xml"))
	assert.Equal(t, "docProps/core.xml", resolveTarget("word", "../docProps/core.xml"))
}
