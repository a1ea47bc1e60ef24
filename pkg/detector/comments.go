package detector

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/qualion/clean/pkg/container"
	"github.com/qualion/clean/pkg/extract"
	"github.com/qualion/clean/pkg/models"
)

// commentSeverityKeywords classify comment bodies. Matching is
// case-insensitive; the highest bucket wins.
var commentSeverityKeywords = map[models.Severity][]string{
	models.SeverityHigh:   {"confidential", "urgent", "password"},
	models.SeverityMedium: {"draft", "internal", "review"},
}

func commentSeverity(text string) models.Severity {
	lower := strings.ToLower(text)
	for _, kw := range commentSeverityKeywords[models.SeverityHigh] {
		if strings.Contains(lower, kw) {
			return models.SeverityHigh
		}
	}
	for _, kw := range commentSeverityKeywords[models.SeverityMedium] {
		if strings.Contains(lower, kw) {
			return models.SeverityMedium
		}
	}
	return models.SeverityLow
}

// CommentsDetector reports review comments and speaker notes.
type CommentsDetector struct{}

func (d *CommentsDetector) Name() string { return "comments" }

func (d *CommentsDetector) Detect(doc *container.Document, _ *extract.Projection) ([]models.Finding, error) {
	switch doc.Format {
	case models.FormatDOCX:
		return d.detectDOCX(doc.Archive)
	case models.FormatPPTX:
		return d.detectPPTX(doc.Archive)
	case models.FormatXLSX:
		return d.detectXLSX(doc.Archive)
	}
	return nil, nil
}

type wordComment struct {
	Author string
	Date   string
	Text   string
}

func (d *CommentsDetector) detectDOCX(ar *container.Archive) ([]models.Finding, error) {
	var findings []models.Finding
	for _, part := range ar.ListParts("word/comments*.xml") {
		data, err := ar.ReadPart(part)
		if err != nil {
			continue
		}
		comments, err := parseWordComments(data)
		if err != nil {
			return findings, fmt.Errorf("%w: %s: %v", container.ErrPartParse, part, err)
		}
		for i, c := range comments {
			f := newFinding(models.CategoryComments, "comment", commentSeverity(c.Text),
				fmt.Sprintf("%s#%d", part, i+1), c.Text)
			f.Evidence = c.Author
			if c.Date != "" {
				f.Context = c.Date
			}
			findings = append(findings, f)
		}
	}

	// Inline markers without a backing comments part still leak review
	// structure.
	if body, err := ar.ReadPart("word/document.xml"); err == nil {
		refs := bytes.Count(body, []byte("<w:commentReference"))
		if refs > 0 && len(findings) == 0 {
			findings = append(findings, newFinding(models.CategoryComments, "commentReference",
				models.SeverityLow, "word/document.xml", fmt.Sprintf("%d inline comment markers", refs)))
		}
	}
	return findings, nil
}

func parseWordComments(data []byte) ([]wordComment, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var comments []wordComment
	var current *wordComment
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "comment" {
				current = &wordComment{}
				text.Reset()
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "author":
						current.Author = attr.Value
					case "date":
						current.Date = attr.Value
					}
				}
			}
		case xml.CharData:
			if current != nil {
				text.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "comment" && current != nil {
				current.Text = strings.TrimSpace(text.String())
				comments = append(comments, *current)
				current = nil
			}
		}
	}
	return comments, nil
}

func (d *CommentsDetector) detectPPTX(ar *container.Archive) ([]models.Finding, error) {
	var findings []models.Finding
	authors := parseCommentAuthors(ar)

	commentParts := ar.ListParts("ppt/comments/comment*.xml")
	commentParts = append(commentParts, ar.ListParts("ppt/modernComments/*.xml")...)
	container.SortNumeric(commentParts)
	for _, part := range commentParts {
		data, err := ar.ReadPart(part)
		if err != nil {
			continue
		}
		for i, text := range extractElementTexts(data, "text") {
			if strings.TrimSpace(text) == "" {
				continue
			}
			f := newFinding(models.CategoryComments, "comment", commentSeverity(text),
				fmt.Sprintf("%s#%d", part, i+1), strings.TrimSpace(text))
			if len(authors) > 0 {
				f.Evidence = strings.Join(authors, ", ")
			}
			findings = append(findings, f)
		}
	}

	// Speaker notes carry presenter-only remarks.
	notes := ar.ListParts("ppt/notesSlides/notesSlide*.xml")
	container.SortNumeric(notes)
	for _, part := range notes {
		data, err := ar.ReadPart(part)
		if err != nil {
			continue
		}
		text := strings.TrimSpace(strings.Join(extractElementTexts(data, "t"), " "))
		if len(text) < 3 {
			continue
		}
		findings = append(findings, newFinding(models.CategoryComments, "speaker_note",
			commentSeverity(text), part, text))
	}
	return findings, nil
}

func parseCommentAuthors(ar *container.Archive) []string {
	data, err := ar.ReadPart("ppt/commentAuthors.xml")
	if err != nil {
		return nil
	}
	var authors []string
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "cmAuthor" {
			for _, attr := range se.Attr {
				if attr.Name.Local == "name" && attr.Value != "" {
					authors = append(authors, attr.Value)
				}
			}
		}
	}
	return authors
}

func (d *CommentsDetector) detectXLSX(ar *container.Archive) ([]models.Finding, error) {
	var findings []models.Finding
	for _, part := range ar.ListParts("xl/comments*.xml") {
		data, err := ar.ReadPart(part)
		if err != nil {
			continue
		}
		dec := xml.NewDecoder(bytes.NewReader(data))
		var cellRef string
		var inComment bool
		var text strings.Builder
		for {
			tok, err := dec.Token()
			if err != nil {
				break
			}
			switch t := tok.(type) {
			case xml.StartElement:
				if t.Name.Local == "comment" {
					inComment = true
					text.Reset()
					for _, attr := range t.Attr {
						if attr.Name.Local == "ref" {
							cellRef = attr.Value
						}
					}
				}
			case xml.CharData:
				if inComment {
					text.Write(t)
				}
			case xml.EndElement:
				if t.Name.Local == "comment" && inComment {
					inComment = false
					body := strings.TrimSpace(text.String())
					if body == "" {
						continue
					}
					findings = append(findings, newFinding(models.CategoryComments, "comment",
						commentSeverity(body), fmt.Sprintf("%s!%s", part, cellRef), body))
				}
			}
		}
	}
	return findings, nil
}

// extractElementTexts returns the character data of every element with the
// given local name, in document order.
func extractElementTexts(data []byte, local string) []string {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var depth int
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == local {
				depth++
				text.Reset()
			}
		case xml.CharData:
			if depth > 0 {
				text.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == local && depth > 0 {
				depth--
				out = append(out, text.String())
			}
		}
	}
	return out
}
