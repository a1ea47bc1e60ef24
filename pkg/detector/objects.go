package detector

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/qualion/clean/pkg/container"
	"github.com/qualion/clean/pkg/extract"
	"github.com/qualion/clean/pkg/models"
)

// EmbeddedObjectsDetector reports embedded OLE objects and spreadsheets.
type EmbeddedObjectsDetector struct{}

func (d *EmbeddedObjectsDetector) Name() string { return "embeddedObjects" }

func (d *EmbeddedObjectsDetector) Detect(doc *container.Document, _ *extract.Projection) ([]models.Finding, error) {
	var findings []models.Finding
	for _, part := range doc.Archive.ListParts("*/embeddings/*") {
		findings = append(findings, newFinding(models.CategoryEmbeddedObjects, "embedded_object",
			models.SeverityHigh, part, path.Base(part)))
	}
	return findings, nil
}

// MacrosDetector reports VBA project blobs. Presence alone is critical:
// macros execute on open and routinely carry credentials or network calls.
type MacrosDetector struct{}

func (d *MacrosDetector) Name() string { return "macros" }

func (d *MacrosDetector) Detect(doc *container.Document, _ *extract.Projection) ([]models.Finding, error) {
	for _, name := range doc.Archive.PartNames() {
		base := strings.ToLower(path.Base(name))
		if strings.HasPrefix(base, "vbaproject") || (strings.HasSuffix(base, ".bin") && strings.Contains(base, "vba")) {
			f := newFinding(models.CategoryMacros, "vba_project", models.SeverityCritical,
				name, "VBA macro project present")
			return []models.Finding{f}, nil
		}
	}
	return nil, nil
}

// Minimum shape size treated as a masking rectangle, in EMU.
const (
	visualMinWidthEMU  = 2000000
	visualMinHeightEMU = 500000
)

var (
	shapeRe    = regexp.MustCompile(`(?s)<p:sp>.*?</p:sp>`)
	extentRe   = regexp.MustCompile(`<a:ext\s+cx="(\d+)"\s+cy="(\d+)"\s*/?>`)
	solidRe    = regexp.MustCompile(`<a:solidFill>`)
	drawTextRe = regexp.MustCompile(`<a:t>[^<]+</a:t>`)
	docDrawRe  = regexp.MustCompile(`(?s)<wp:anchor\b.*?</wp:anchor>`)
)

// VisualObjectsDetector reports large solid-fill shapes without text, the
// usual trick for covering content instead of deleting it.
type VisualObjectsDetector struct{}

func (d *VisualObjectsDetector) Name() string { return "visualObjects" }

func (d *VisualObjectsDetector) Detect(doc *container.Document, _ *extract.Projection) ([]models.Finding, error) {
	switch doc.Format {
	case models.FormatPPTX:
		return d.detectPPTX(doc.Archive), nil
	case models.FormatDOCX:
		return d.detectDOCX(doc.Archive), nil
	}
	return nil, nil
}

func (d *VisualObjectsDetector) detectPPTX(ar *container.Archive) []models.Finding {
	var findings []models.Finding
	slides := ar.ListParts("ppt/slides/slide*.xml")
	container.SortNumeric(slides)
	for i, part := range slides {
		data, err := ar.ReadPart(part)
		if err != nil {
			continue
		}
		masked := 0
		for _, shape := range shapeRe.FindAll(data, -1) {
			if !solidRe.Match(shape) || drawTextRe.Match(shape) {
				continue
			}
			m := extentRe.FindSubmatch(shape)
			if m == nil {
				continue
			}
			cx, _ := strconv.Atoi(string(m[1]))
			cy, _ := strconv.Atoi(string(m[2]))
			if cx >= visualMinWidthEMU && cy >= visualMinHeightEMU {
				masked++
			}
		}
		if masked > 0 {
			findings = append(findings, newFinding(models.CategoryVisualObjects, "masking_shape",
				models.SeverityMedium, part, fmt.Sprintf("%d large filled shapes without text on slide %d", masked, i+1)))
		}
	}
	return findings
}

func (d *VisualObjectsDetector) detectDOCX(ar *container.Archive) []models.Finding {
	data, err := ar.ReadPart("word/document.xml")
	if err != nil {
		return nil
	}
	masked := 0
	for _, anchor := range docDrawRe.FindAll(data, -1) {
		if solidRe.Match(anchor) && !drawTextRe.Match(anchor) {
			masked++
		}
	}
	if masked == 0 {
		return nil
	}
	return []models.Finding{newFinding(models.CategoryVisualObjects, "masking_shape",
		models.SeverityMedium, "word/document.xml", fmt.Sprintf("%d anchored filled drawings without text", masked))}
}
