package extract

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/qualion/clean/pkg/container"
	"github.com/qualion/clean/pkg/models"
)

// Extract builds the text projection for a document. Parts that fail to
// parse are skipped; PDF has no XML parts and yields an empty projection
// (detectors tolerate empty projections).
func Extract(doc *container.Document) *Projection {
	b := newBuilder()
	switch doc.Format {
	case models.FormatDOCX:
		for _, part := range docxTextParts(doc.Archive) {
			walkPart(doc.Archive, part, b, docxRules)
		}
	case models.FormatPPTX:
		for _, part := range pptxTextParts(doc.Archive) {
			walkPart(doc.Archive, part, b, pptxRules)
		}
	case models.FormatXLSX:
		walkPart(doc.Archive, "xl/sharedStrings.xml", b, xlsxRules)
	}
	return b.projection()
}

// docxTextParts returns the body, headers, footers and notes in a stable order.
func docxTextParts(ar *container.Archive) []string {
	parts := []string{"word/document.xml"}
	headers := ar.ListParts("word/header*.xml")
	container.SortNumeric(headers)
	footers := ar.ListParts("word/footer*.xml")
	container.SortNumeric(footers)
	parts = append(parts, headers...)
	parts = append(parts, footers...)
	for _, extra := range []string{"word/footnotes.xml", "word/endnotes.xml"} {
		if ar.HasPart(extra) {
			parts = append(parts, extra)
		}
	}
	return parts
}

// pptxTextParts returns slides sorted by numeric suffix, then notes slides.
func pptxTextParts(ar *container.Archive) []string {
	slides := ar.ListParts("ppt/slides/slide*.xml")
	container.SortNumeric(slides)
	notes := ar.ListParts("ppt/notesSlides/notesSlide*.xml")
	container.SortNumeric(notes)
	return append(slides, notes...)
}

// walkRules maps element names to projection actions for one format.
type walkRules struct {
	// separatorOnEnd emits a separator when the named element closes.
	separatorOnEnd map[string]string
	// separatorOnStart emits a separator when the named element opens
	// (self-closing markers like w:tab and w:br).
	separatorOnStart map[string]string
}

var docxRules = walkRules{
	separatorOnEnd:   map[string]string{"p": "\n", "tc": "\t"},
	separatorOnStart: map[string]string{"tab": "\t", "br": "\n"},
}

var pptxRules = walkRules{
	separatorOnEnd:   map[string]string{"p": "\n"},
	separatorOnStart: map[string]string{"br": "\n"},
}

var xlsxRules = walkRules{
	separatorOnEnd: map[string]string{"si": "\n"},
}

// walkPart tokenizes one XML part and feeds text segments into the builder.
// Every <t> element counts as a segment, empty ones included, so segment
// indices stay aligned with the applier's enumeration. Unknown tags are
// elided without inserting whitespace: injecting spaces between tags would
// fragment words across styling runs.
func walkPart(ar *container.Archive, partPath string, b *builder, rules walkRules) {
	data, err := ar.ReadPart(partPath)
	if err != nil {
		return
	}
	dec := xml.NewDecoder(bytes.NewReader(data))

	var inText bool
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
				text.Reset()
				continue
			}
			if sep, ok := rules.separatorOnStart[t.Name.Local]; ok {
				b.addSeparator(sep)
			}
		case xml.CharData:
			if inText {
				text.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
				b.addSegment(partPath, text.String())
				continue
			}
			if sep, ok := rules.separatorOnEnd[t.Name.Local]; ok {
				b.addSeparator(sep)
			}
		}
	}
}
