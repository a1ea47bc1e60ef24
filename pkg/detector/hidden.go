package detector

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/qualion/clean/pkg/container"
	"github.com/qualion/clean/pkg/extract"
	"github.com/qualion/clean/pkg/models"
)

// Approximate slide canvas in EMU (16:9 default).
const (
	slideWidthEMU  = 9144000
	slideHeightEMU = 6858000
)

var (
	vanishRe    = regexp.MustCompile(`<w:vanish\s*/?>`)
	whiteRe     = regexp.MustCompile(`w:val="FFFFFF"`)
	smallSzRe   = regexp.MustCompile(`<w:sz\s+w:val="([1-9])"\s*/?>`)
	slideShowRe = regexp.MustCompile(`<p:sldId\b[^>]*\bshow="0"|<p:sld\b[^>]*\bshow="0"`)
	whiteFillRe = regexp.MustCompile(`val="FFFFFF"`)
	offsetRe    = regexp.MustCompile(`<a:off\s+x="(-?\d+)"\s+y="(-?\d+)"\s*/?>`)
)

// HiddenContentDetector reports text hidden by formatting in DOCX and
// hidden or off-canvas content in PPTX. Per category it emits at most one
// aggregate finding with a count.
type HiddenContentDetector struct{}

func (d *HiddenContentDetector) Name() string { return "hiddenContent" }

func (d *HiddenContentDetector) Detect(doc *container.Document, _ *extract.Projection) ([]models.Finding, error) {
	switch doc.Format {
	case models.FormatDOCX:
		return d.detectDOCX(doc.Archive), nil
	case models.FormatPPTX:
		return d.detectPPTX(doc.Archive), nil
	}
	return nil, nil
}

func (d *HiddenContentDetector) detectDOCX(ar *container.Archive) []models.Finding {
	parts := []string{"word/document.xml"}
	parts = append(parts, ar.ListParts("word/header*.xml")...)
	parts = append(parts, ar.ListParts("word/footer*.xml")...)

	vanished, white, tiny := 0, 0, 0
	for _, part := range parts {
		data, err := ar.ReadPart(part)
		if err != nil {
			continue
		}
		vanished += len(vanishRe.FindAll(data, -1))
		white += len(whiteRe.FindAll(data, -1))
		tiny += len(smallSzRe.FindAll(data, -1))
	}

	var findings []models.Finding
	if vanished > 0 {
		findings = append(findings, newFinding(models.CategoryHiddenContent, "vanished_text",
			models.SeverityHigh, "word/document.xml", fmt.Sprintf("%d hidden text runs", vanished)))
	}
	if white > 0 {
		findings = append(findings, newFinding(models.CategoryHiddenContent, "white_text",
			models.SeverityMedium, "word/document.xml", fmt.Sprintf("%d white-on-white runs", white)))
	}
	if tiny > 0 {
		findings = append(findings, newFinding(models.CategoryHiddenContent, "tiny_font",
			models.SeverityMedium, "word/document.xml", fmt.Sprintf("%d sub-5pt runs", tiny)))
	}
	return findings
}

func (d *HiddenContentDetector) detectPPTX(ar *container.Archive) []models.Finding {
	var findings []models.Finding

	if data, err := ar.ReadPart("ppt/presentation.xml"); err == nil {
		if n := len(slideShowRe.FindAll(data, -1)); n > 0 {
			findings = append(findings, newFinding(models.CategoryHiddenContent, "hidden_slide",
				models.SeverityHigh, "ppt/presentation.xml", fmt.Sprintf("%d hidden slides", n)))
		}
	}

	slides := ar.ListParts("ppt/slides/slide*.xml")
	container.SortNumeric(slides)
	for i, part := range slides {
		data, err := ar.ReadPart(part)
		if err != nil {
			continue
		}
		if slideShowRe.Match(data) {
			findings = append(findings, newFinding(models.CategoryHiddenContent, "hidden_slide",
				models.SeverityHigh, part, fmt.Sprintf("slide %d marked hidden", i+1)))
		}
		if white := len(whiteFillRe.FindAll(data, -1)); white > 2 {
			findings = append(findings, newFinding(models.CategoryHiddenContent, "white_text",
				models.SeverityMedium, part, fmt.Sprintf("%d white fills on slide %d", white, i+1)))
		}
		if off := countOffSlide(data); off > 0 {
			findings = append(findings, newFinding(models.CategoryHiddenContent, "offslide_shape",
				models.SeverityMedium, part, fmt.Sprintf("%d shapes outside slide bounds", off)))
		}
	}
	return findings
}

func countOffSlide(data []byte) int {
	count := 0
	for _, m := range offsetRe.FindAllSubmatch(data, -1) {
		x, _ := strconv.Atoi(string(m[1]))
		y, _ := strconv.Atoi(string(m[2]))
		if x < 0 || y < 0 || x > slideWidthEMU || y > slideHeightEMU {
			count++
		}
	}
	return count
}

// PDFStructureDetector reports annotations and attachments in PDF files.
// Both survive casual review and routinely carry names and notes.
type PDFStructureDetector struct{}

func (d *PDFStructureDetector) Name() string { return "pdfStructure" }

func (d *PDFStructureDetector) Detect(doc *container.Document, _ *extract.Projection) ([]models.Finding, error) {
	var findings []models.Finding
	if n := doc.PDF.AnnotCount(); n > 0 {
		findings = append(findings, newFinding(models.CategoryComments, "annotation",
			models.SeverityMedium, "pages", fmt.Sprintf("%d annotations", n)))
	}
	for _, name := range doc.PDF.EmbeddedFileNames() {
		findings = append(findings, newFinding(models.CategoryEmbeddedObjects, "attachment",
			models.SeverityHigh, "names:EmbeddedFiles", name))
	}
	return findings, nil
}
