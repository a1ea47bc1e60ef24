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

// TrackChangesDetector reports tracked insertions and deletions in DOCX
// bodies. Adjacent insert/delete pairs stay separate findings.
type TrackChangesDetector struct{}

func (d *TrackChangesDetector) Name() string { return "trackChanges" }

type trackedChange struct {
	Kind   string // insertion or deletion
	Author string
	Date   string
	Text   string
}

func (d *TrackChangesDetector) Detect(doc *container.Document, _ *extract.Projection) ([]models.Finding, error) {
	data, err := doc.Archive.ReadPart("word/document.xml")
	if err != nil {
		return nil, nil
	}
	changes, err := parseTrackedChanges(data)
	if err != nil {
		return nil, fmt.Errorf("%w: word/document.xml: %v", container.ErrPartParse, err)
	}

	var findings []models.Finding
	for i, c := range changes {
		value := c.Text
		if value == "" {
			value = "(formatting change)"
		}
		f := newFinding(models.CategoryTrackChanges, c.Kind, models.SeverityMedium,
			fmt.Sprintf("word/document.xml#change%d", i+1), value)
		f.Evidence = c.Author
		f.Context = c.Date
		findings = append(findings, f)
	}
	return findings, nil
}

// parseTrackedChanges walks w:ins and w:del blocks, collecting the nested
// run text. Deleted text lives in w:delText nodes, inserted text in w:t.
func parseTrackedChanges(data []byte) ([]trackedChange, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var changes []trackedChange
	var stack []*trackedChange
	var text *strings.Builder

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
			switch t.Name.Local {
			case "ins", "del":
				kind := "insertion"
				if t.Name.Local == "del" {
					kind = "deletion"
				}
				c := &trackedChange{Kind: kind}
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "author":
						c.Author = attr.Value
					case "date":
						c.Date = attr.Value
					}
				}
				stack = append(stack, c)
			case "t", "delText":
				if len(stack) > 0 {
					text = &strings.Builder{}
				}
			}
		case xml.CharData:
			if text != nil {
				text.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "ins", "del":
				if len(stack) > 0 {
					c := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					changes = append(changes, *c)
				}
			case "t", "delText":
				if text != nil && len(stack) > 0 {
					stack[len(stack)-1].Text += text.String()
				}
				text = nil
			}
		}
	}
	return changes, nil
}
