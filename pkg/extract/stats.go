package extract

import (
	"strings"

	"github.com/qualion/clean/pkg/container"
	"github.com/qualion/clean/pkg/models"
)

// Stats computes the document shape statistics for the report.
func Stats(doc *container.Document, proj *Projection) models.DocumentStats {
	text := proj.Normalized()
	stats := models.DocumentStats{
		Words:      len(strings.Fields(text)),
		Characters: len([]rune(text)),
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			stats.Paragraphs++
		}
	}

	switch doc.Format {
	case models.FormatPPTX:
		stats.Parts = doc.Archive.PartCount()
		stats.Slides = len(doc.Archive.ListParts("ppt/slides/slide*.xml"))
	case models.FormatXLSX:
		stats.Parts = doc.Archive.PartCount()
		stats.Sheets = len(doc.Archive.ListParts("xl/worksheets/sheet*.xml"))
	case models.FormatDOCX:
		stats.Parts = doc.Archive.PartCount()
	case models.FormatPDF:
		stats.Pages = doc.PDF.PageCount()
	}
	return stats
}
