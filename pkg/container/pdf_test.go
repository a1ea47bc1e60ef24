package container

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualion/clean/pkg/models"
)

const pdfWithText = `%PDF-1.4
1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj
2 0 obj << /Type /Pages /Kids [3 0 R] /Count 1 >> endobj
3 0 obj << /Type /Page /Parent 2 0 R /Contents 4 0 R /Annots [6 0 R] >> endobj
4 0 obj << /Length 52 >>
stream
BT /F1 12 Tf (Hello ) Tj [(brave ) (world)] TJ ET
endstream
endobj
5 0 obj << /Title (Quarterly Plan) /Author (Jane) /ModDate (D:20240101120000Z) >> endobj
6 0 obj << /Type /Annot /Subtype /Text /Contents (fix this) >> endobj
trailer
<< /Root 1 0 R /Info 5 0 R >>
startxref
0
%%EOF
`

func TestOpenPDF(t *testing.T) {
	p, err := OpenPDF([]byte(pdfWithText))
	require.NoError(t, err)

	assert.Equal(t, 1, p.PageCount())
	assert.Equal(t, 1, p.AnnotCount())
	info := p.Info()
	assert.Equal(t, "Quarterly Plan", info["Title"])
	assert.Equal(t, "Jane", info["Author"])
}

func TestPDFExtractText(t *testing.T) {
	p, err := OpenPDF([]byte(pdfWithText))
	require.NoError(t, err)
	assert.Equal(t, "Hello brave world", p.ExtractText())
}

func TestPDFExtractTextSkipsFilteredStreams(t *testing.T) {
	compressed := strings.Replace(pdfWithText,
		"<< /Length 52 >>", "<< /Length 52 /Filter /FlateDecode >>", 1)
	p, err := OpenPDF([]byte(compressed))
	require.NoError(t, err)
	assert.Empty(t, p.ExtractText())
}

func TestBuildDOCXFromText(t *testing.T) {
	data, err := BuildDOCXFromText("Hello world\nSecond line & more")
	require.NoError(t, err)

	ar, err := OpenArchive(data, models.FormatDOCX)
	require.NoError(t, err)
	require.True(t, ar.HasPart("word/document.xml"))
	require.True(t, ar.HasPart("_rels/.rels"))

	body, err := ar.ReadPart("word/document.xml")
	require.NoError(t, err)
	assert.Contains(t, string(body), `<w:t xml:space="preserve">Hello world</w:t>`)
	assert.Contains(t, string(body), "Second line &amp; more", "text is XML-escaped")
}
