package cleaner

import (
	"regexp"

	"go.uber.org/zap"

	"github.com/qualion/clean/pkg/container"
	"github.com/qualion/clean/pkg/detector"
	"github.com/qualion/clean/pkg/models"
)

var (
	xlsxCommentCountRe = regexp.MustCompile(`<comment\s`)
	formulaRe          = regexp.MustCompile(`(?s)<f(?:\s[^>]*)?>.*?</f>|<f(?:\s[^>]*)?/>`)
)

// coreFields and appFields are emptied in place rather than dropping
// the docProps parts, so the workbook keeps a valid property set.
var (
	xlsxCoreFields = []string{"dc:creator", "dc:title", "dc:subject", "cp:keywords", "cp:lastModifiedBy", "cp:revision"}
	xlsxAppFields  = []string{"Company", "Manager", "Application"}
)

func (c *Cleaner) cleanXLSX(ar *container.Archive, opts Options, stats *models.CleaningStats) {
	if opts.RemoveMetadata {
		c.rewritePart(ar, "docProps/core.xml", func(xml string) string {
			for _, field := range xlsxCoreFields {
				var n int
				xml, n = clearElement(xml, field)
				stats.MetadataRemoved += n
			}
			return xml
		})
		c.rewritePart(ar, "docProps/app.xml", func(xml string) string {
			for _, field := range xlsxAppFields {
				var n int
				xml, n = clearElement(xml, field)
				stats.MetadataRemoved += n
			}
			return xml
		})
	}

	if opts.RemoveComments {
		for _, part := range ar.ListParts("xl/comments*.xml") {
			if data, err := ar.ReadPart(part); err == nil {
				stats.CommentsRemoved += len(xlsxCommentCountRe.FindAll(data, -1))
			}
			if c.removePartAndRefs(ar, part) {
				stats.PartsRemoved = append(stats.PartsRemoved, part)
			}
		}
	}

	if opts.RemoveHiddenContent {
		c.removeHiddenSheets(ar, stats)
	}

	if opts.RemoveEmbeddedObjects {
		for _, part := range ar.ListParts("xl/embeddings/*") {
			if c.removePartAndRefs(ar, part) {
				stats.EmbeddedRemoved++
				stats.PartsRemoved = append(stats.PartsRemoved, part)
			}
		}
	}

	if opts.RemoveMacros {
		c.removeMacroParts(ar, stats)
	}

	if opts.FormulasToValues {
		c.formulasToValues(ar, stats)
	}

	c.redactTextNodes(ar, []string{"xl/sharedStrings.xml"}, "t", opts, stats)
}

// removeHiddenSheets drops hidden and veryHidden worksheets: the sheet
// entry in workbook.xml, the workbook relationship, and the worksheet
// part itself. A relationship whose sheet part is already missing is
// still cleaned up.
func (c *Cleaner) removeHiddenSheets(ar *container.Archive, stats *models.CleaningStats) {
	sheets, err := detector.ParseSheets(ar)
	if err != nil {
		c.log.Warn("workbook parse failed, hidden sheets kept", zap.Error(err))
		return
	}

	for _, sheet := range sheets {
		if sheet.State != "hidden" && sheet.State != "veryHidden" {
			continue
		}

		target := workbookRelTarget(ar, sheet.RelID)
		c.rewritePart(ar, "xl/workbook.xml", func(xml string) string {
			entryRe := regexp.MustCompile(`<sheet\s[^>]*r:id="` + regexp.QuoteMeta(sheet.RelID) + `"[^>]*/>`)
			return entryRe.ReplaceAllString(xml, "")
		})
		c.rewritePart(ar, "xl/_rels/workbook.xml.rels", func(xml string) string {
			relRe := regexp.MustCompile(`<Relationship\s[^>]*Id="` + regexp.QuoteMeta(sheet.RelID) + `"[^>]*/>`)
			return relRe.ReplaceAllString(xml, "")
		})
		if target != "" {
			part := resolveTarget("xl", target)
			if ar.HasPart(part) {
				ar.RemovePart(part)
				stats.PartsRemoved = append(stats.PartsRemoved, part)
			}
		}
		stats.HiddenSheetsRemoved++
		c.log.Info("removed hidden sheet",
			zap.String("name", sheet.Name), zap.String("state", sheet.State))
	}
}

func workbookRelTarget(ar *container.Archive, relID string) string {
	data, err := ar.ReadPart("xl/_rels/workbook.xml.rels")
	if err != nil {
		return ""
	}
	re := regexp.MustCompile(`<Relationship\s[^>]*Id="` + regexp.QuoteMeta(relID) + `"[^>]*?Target="([^"]*)"[^>]*/>`)
	m := re.FindSubmatch(data)
	if m == nil {
		// Attribute order is not fixed; retry with Target first.
		re = regexp.MustCompile(`<Relationship\s[^>]*Target="([^"]*)"[^>]*Id="` + regexp.QuoteMeta(relID) + `"[^>]*/>`)
		m = re.FindSubmatch(data)
	}
	if m == nil {
		return ""
	}
	return string(m[1])
}

// formulasToValues strips every <f> element so only cached <v> values
// remain.
func (c *Cleaner) formulasToValues(ar *container.Archive, stats *models.CleaningStats) {
	worksheets := ar.ListParts("xl/worksheets/sheet*.xml")
	container.SortNumeric(worksheets)
	for _, part := range worksheets {
		c.rewritePart(ar, part, func(xml string) string {
			n := len(formulaRe.FindAllString(xml, -1))
			if n == 0 {
				return xml
			}
			stats.FormulasConverted += n
			return formulaRe.ReplaceAllString(xml, "")
		})
	}
}
