package cleaner

import (
	"regexp"

	"github.com/qualion/clean/pkg/container"
	"github.com/qualion/clean/pkg/models"
)

var (
	pptCommentCountRe = regexp.MustCompile(`<p:cm\s|<cm\s`)
	picRe             = regexp.MustCompile(`(?s)<p:pic(?:\s[^>]*)?>.*?</p:pic>`)
)

func (c *Cleaner) cleanPPTX(ar *container.Archive, opts Options, stats *models.CleaningStats) {
	slides := ar.ListParts("ppt/slides/slide*.xml")
	container.SortNumeric(slides)

	if opts.RemoveMetadata {
		stats.MetadataRemoved = countMetadataEntries(ar,
			"docProps/core.xml", "docProps/app.xml", "docProps/custom.xml")
		for _, part := range []string{"docProps/core.xml", "docProps/app.xml", "docProps/custom.xml"} {
			if c.removePartAndRefs(ar, part) {
				stats.PartsRemoved = append(stats.PartsRemoved, part)
			}
		}
	}

	if opts.RemoveComments {
		commentParts := ar.ListParts("ppt/comments/*")
		commentParts = append(commentParts, ar.ListParts("ppt/modernComments/*")...)
		if ar.HasPart("ppt/commentAuthors.xml") {
			commentParts = append(commentParts, "ppt/commentAuthors.xml")
		}
		for _, part := range commentParts {
			if data, err := ar.ReadPart(part); err == nil {
				stats.CommentsRemoved += len(pptCommentCountRe.FindAll(data, -1))
			}
			if c.removePartAndRefs(ar, part) {
				stats.PartsRemoved = append(stats.PartsRemoved, part)
			}
		}
	}

	if opts.RemoveEmbeddedObjects {
		for _, part := range ar.ListParts("*/embeddings/*") {
			if c.removePartAndRefs(ar, part) {
				stats.EmbeddedRemoved++
				stats.PartsRemoved = append(stats.PartsRemoved, part)
			}
		}
	}

	if opts.RemoveMacros {
		c.removeMacroParts(ar, stats)
	}

	c.applyDrawPolicyPPTX(ar, slides, opts.DrawPolicy, stats)
	c.removeVisualObjects(ar, slides, maskShapeRe, opts, stats)

	notes := ar.ListParts("ppt/notesSlides/notesSlide*.xml")
	container.SortNumeric(notes)
	c.redactTextNodes(ar, append(slides, notes...), "a:t", opts, stats)
}

// applyDrawPolicyPPTX strips ink annotations under auto and whole
// pictures plus the media folder under all.
func (c *Cleaner) applyDrawPolicyPPTX(ar *container.Archive, slides []string, policy string, stats *models.CleaningStats) {
	if policy == DrawNone {
		return
	}
	for _, part := range slides {
		c.rewritePart(ar, part, func(xml string) string {
			stats.DrawingsRemoved += len(inkRe.FindAllString(xml, -1))
			xml = inkRe.ReplaceAllString(xml, "")
			if policy == DrawAll {
				stats.DrawingsRemoved += len(picRe.FindAllString(xml, -1))
				xml = picRe.ReplaceAllString(xml, "")
			}
			return xml
		})
	}
	if policy == DrawAll {
		for _, media := range ar.ListParts("ppt/media/*") {
			if c.removePartAndRefs(ar, media) {
				stats.PartsRemoved = append(stats.PartsRemoved, media)
			}
		}
	}
}
