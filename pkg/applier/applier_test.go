package applier

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualion/clean/pkg/container"
	"github.com/qualion/clean/pkg/extract"
	"github.com/qualion/clean/pkg/models"
)

func docxWithBody(t *testing.T, body string) *container.Document {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   `<w:document xmlns:w="ns"><w:body>` + body + `</w:body></w:document>`,
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	doc, err := container.Open(buf.Bytes(), models.FormatDOCX, "fixture.docx")
	require.NoError(t, err)
	return doc
}

func offsetIssue(err, correction string, start, end int) models.SpellingIssue {
	return models.SpellingIssue{
		Error:      err,
		Correction: correction,
		Type:       models.SpellingTypeSpelling,
		Severity:   models.SeverityLow,
		StartIndex: &start,
		EndIndex:   &end,
	}
}

func bodyXML(t *testing.T, doc *container.Document) string {
	t.Helper()
	data, err := doc.ReadPart("word/document.xml")
	require.NoError(t, err)
	return string(data)
}

func TestApplyOffsetAnchoredEdit(t *testing.T) {
	doc := docxWithBody(t, `<w:p><w:r><w:t xml:space="preserve">We wil deliver</w:t></w:r></w:p>`)
	proj := extract.Extract(doc)
	require.Equal(t, "We wil deliver\n", proj.Raw)

	stats := New(nil).Apply(doc, proj, []models.SpellingIssue{
		offsetIssue("wil", "will", 3, 6),
	})

	assert.Equal(t, 1, stats.Requested)
	assert.Equal(t, 1, stats.Applied)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 1, stats.NodesVisited)
	assert.Equal(t, 1, stats.NodesChanged)
	require.Len(t, stats.Examples, 1)
	assert.Contains(t, stats.Examples[0].After, "We will deliver")

	xml := bodyXML(t, doc)
	assert.Contains(t, xml, `<w:t xml:space="preserve">We will deliver</w:t>`,
		"attributes survive the rewrite")
}

func TestApplyFragmentedWord(t *testing.T) {
	doc := docxWithBody(t, `<w:p><w:r><w:rPr/><w:t>deli</w:t></w:r><w:r><w:t>vry</w:t></w:r></w:p>`)
	proj := extract.Extract(doc)
	require.Equal(t, "delivry\n", proj.Raw)

	stats := New(nil).Apply(doc, proj, []models.SpellingIssue{
		offsetIssue("delivry", "delivery", 0, 7),
	})
	assert.Equal(t, 1, stats.Applied)
	assert.Equal(t, 2, stats.NodesChanged)

	xml := bodyXML(t, doc)
	assert.Contains(t, xml, `<w:t>deli</w:t>`, "first segment keeps its original length")
	assert.Contains(t, xml, `<w:t>very</w:t>`, "last segment absorbs the difference")
	assert.Equal(t, 2, strings.Count(xml, "<w:r>"), "run structure untouched")

	reproj := extract.Extract(doc)
	assert.Equal(t, "delivery\n", reproj.Raw)
}

func TestApplyContextAnchoredEdit(t *testing.T) {
	doc := docxWithBody(t, `<w:p><w:r><w:t>please fix teh report</w:t></w:r></w:p>`)
	proj := extract.Extract(doc)

	iss := models.SpellingIssue{
		Error:         "teh",
		Correction:    "the",
		ContextBefore: "please fix",
		ContextAfter:  "report",
	}
	stats := New(nil).Apply(doc, proj, []models.SpellingIssue{iss})
	assert.Equal(t, 1, stats.Applied)
	assert.Contains(t, bodyXML(t, doc), "please fix the report")
}

func TestApplyRejectsAmbiguousContext(t *testing.T) {
	doc := docxWithBody(t, `<w:p><w:r><w:t>a reteh plan</w:t></w:r></w:p>`)
	proj := extract.Extract(doc)

	// The only candidate is case-folded, mid-word and contradicts the
	// declared context, so it must not be touched.
	iss := models.SpellingIssue{
		Error:         "Teh",
		Correction:    "The",
		ContextBefore: "nothing like this",
		ContextAfter:  "appears anywhere",
	}
	stats := New(nil).Apply(doc, proj, []models.SpellingIssue{iss})
	assert.Equal(t, 0, stats.Applied)
	assert.Equal(t, 1, stats.Skipped)
	assert.Contains(t, bodyXML(t, doc), "a reteh plan")
}

func TestApplyOverlappingEditsClaimOnce(t *testing.T) {
	doc := docxWithBody(t, `<w:p><w:r><w:t>We wil deliver</w:t></w:r></w:p>`)
	proj := extract.Extract(doc)

	stats := New(nil).Apply(doc, proj, []models.SpellingIssue{
		offsetIssue("wil", "will", 3, 6),
		offsetIssue("wil", "shall", 3, 6),
	})
	assert.Equal(t, 1, stats.Applied)
	assert.Equal(t, 1, stats.Skipped)
	assert.Contains(t, bodyXML(t, doc), "We will deliver")
}

func TestApplySkipsNoopAndEmptyIssues(t *testing.T) {
	doc := docxWithBody(t, `<w:p><w:r><w:t>fine text</w:t></w:r></w:p>`)
	proj := extract.Extract(doc)

	stats := New(nil).Apply(doc, proj, []models.SpellingIssue{
		{Error: "", Correction: "x"},
		{Error: "fine", Correction: "fine"},
	})
	assert.Equal(t, 2, stats.Requested)
	assert.Equal(t, 0, stats.Applied)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 0, stats.NodesChanged)
}

func TestApplyUnanchorableIssueSkipped(t *testing.T) {
	doc := docxWithBody(t, `<w:p><w:r><w:t>nothing to see</w:t></w:r></w:p>`)
	proj := extract.Extract(doc)

	stats := New(nil).Apply(doc, proj, []models.SpellingIssue{
		{Error: "absent", Correction: "present"},
	})
	assert.Equal(t, 0, stats.Applied)
	assert.Equal(t, 1, stats.Skipped)
}

func TestApplyEscapesSpecialCharacters(t *testing.T) {
	doc := docxWithBody(t, `<w:p><w:r><w:t>terms and conditions</w:t></w:r></w:p>`)
	proj := extract.Extract(doc)

	stats := New(nil).Apply(doc, proj, []models.SpellingIssue{
		offsetIssue("and", "&", 6, 9),
	})
	assert.Equal(t, 1, stats.Applied)
	assert.Contains(t, bodyXML(t, doc), `<w:t>terms &amp; conditions</w:t>`)
}

func TestEnumerateSegmentsCountsEmptyElements(t *testing.T) {
	segs := enumerateSegments(`<w:p><w:t>a</w:t><w:t/><w:t>b</w:t></w:p>`)
	require.Len(t, segs, 3)
	assert.Equal(t, "a", segs[0].decoded)
	assert.Equal(t, "", segs[1].decoded)
	assert.True(t, segs[1].selfClosing)
	assert.Equal(t, "b", segs[2].decoded)
	assert.Equal(t, 1, segs[2].start, "empty segments contribute no text offsets")
}

func TestDecodeEntities(t *testing.T) {
	assert.Equal(t, `a & b <c> "d"`, decodeEntities(`a &amp; b &lt;c&gt; &quot;d&quot;`))
	assert.Equal(t, "é", decodeEntities("&#233;"))
}
