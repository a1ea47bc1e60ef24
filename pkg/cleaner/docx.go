package cleaner

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/qualion/clean/pkg/container"
	"github.com/qualion/clean/pkg/models"
)

var (
	commentCountRe  = regexp.MustCompile(`<w:comment\s`)
	commentMarkRe   = regexp.MustCompile(`<w:commentRange(?:Start|End)\s[^>]*/>|<w:commentReference\s[^>]*/>`)
	delBlockRe      = regexp.MustCompile(`(?s)<w:del\s[^>]*>.*?</w:del>|<w:del\s[^>]*/>`)
	insOpenRe       = regexp.MustCompile(`<w:ins\s[^>]*>`)
	insCloseRe      = regexp.MustCompile(`</w:ins>`)
	runRe           = regexp.MustCompile(`(?s)<w:r(?:\s[^>]*)?>.*?</w:r>`)
	vanishMarkRe    = regexp.MustCompile(`<w:vanish\s*/>`)
	pictRe          = regexp.MustCompile(`(?s)<w:pict(?:\s[^>]*)?>.*?</w:pict>`)
	inkRe           = regexp.MustCompile(`(?s)<a14:ink(?:\s[^>]*)?(?:/>|>.*?</a14:ink>)`)
	drawingRe       = regexp.MustCompile(`(?s)<w:drawing(?:\s[^>]*)?>.*?</w:drawing>`)
	customPropCount = regexp.MustCompile(`<property\s`)
)

// metadataEntryRes counts the recognized non-empty properties in
// docProps parts before they are dropped, so score improvement can be
// bounded by what was actually removed.
var metadataEntryRes = []*regexp.Regexp{
	regexp.MustCompile(`<dc:creator>[^<]+</dc:creator>`),
	regexp.MustCompile(`<cp:lastModifiedBy>[^<]+</cp:lastModifiedBy>`),
	regexp.MustCompile(`<dc:title>[^<]+</dc:title>`),
	regexp.MustCompile(`<dc:subject>[^<]+</dc:subject>`),
	regexp.MustCompile(`<cp:keywords>[^<]+</cp:keywords>`),
	regexp.MustCompile(`<Company>[^<]+</Company>`),
	regexp.MustCompile(`<Manager>[^<]+</Manager>`),
	regexp.MustCompile(`<Application>[^<]+</Application>`),
	regexp.MustCompile(`<TotalTime>[^<]+</TotalTime>`),
	regexp.MustCompile(`<dcterms:created[^>]*>[^<]+</dcterms:created>`),
	regexp.MustCompile(`<dcterms:modified[^>]*>[^<]+</dcterms:modified>`),
}

func countMetadataEntries(ar *container.Archive, parts ...string) int {
	total := 0
	for _, part := range parts {
		data, err := ar.ReadPart(part)
		if err != nil {
			continue
		}
		if strings.HasSuffix(part, "custom.xml") {
			total += len(customPropCount.FindAll(data, -1))
			continue
		}
		for _, re := range metadataEntryRes {
			total += len(re.FindAll(data, -1))
		}
	}
	return total
}

func (c *Cleaner) cleanDOCX(ar *container.Archive, opts Options, stats *models.CleaningStats) {
	bodyParts := docxBodyParts(ar)

	if opts.RemoveMetadata {
		stats.MetadataRemoved = countMetadataEntries(ar,
			"docProps/core.xml", "docProps/app.xml", "docProps/custom.xml")
		for _, part := range []string{"docProps/core.xml", "docProps/app.xml", "docProps/custom.xml"} {
			if c.removePartAndRefs(ar, part) {
				stats.PartsRemoved = append(stats.PartsRemoved, part)
			}
		}
		for _, part := range ar.ListParts("customXml/*") {
			if c.removePartAndRefs(ar, part) {
				stats.PartsRemoved = append(stats.PartsRemoved, part)
			}
		}
	}

	if opts.RemoveComments {
		for _, part := range ar.ListParts("word/comments*.xml") {
			if data, err := ar.ReadPart(part); err == nil {
				stats.CommentsRemoved += len(commentCountRe.FindAll(data, -1))
			}
			if c.removePartAndRefs(ar, part) {
				stats.PartsRemoved = append(stats.PartsRemoved, part)
			}
		}
		for _, part := range bodyParts {
			c.rewritePart(ar, part, func(xml string) string {
				return commentMarkRe.ReplaceAllString(xml, "")
			})
		}
	}

	if opts.AcceptTrackChanges {
		for _, part := range bodyParts {
			c.rewritePart(ar, part, func(xml string) string {
				deletions := len(delBlockRe.FindAllString(xml, -1))
				insertions := len(insOpenRe.FindAllString(xml, -1))
				stats.TrackChangesAccepted += deletions + insertions
				xml = delBlockRe.ReplaceAllString(xml, "")
				xml = insOpenRe.ReplaceAllString(xml, "")
				return insCloseRe.ReplaceAllString(xml, "")
			})
		}
	}

	if opts.RemoveHiddenContent {
		for _, part := range selectParts(bodyParts, opts.HiddenContentParts) {
			c.rewritePart(ar, part, func(xml string) string {
				return runRe.ReplaceAllStringFunc(xml, func(run string) string {
					if !vanishMarkRe.MatchString(run) {
						return run
					}
					stats.HiddenContentRemoved++
					return ""
				})
			})
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

	c.applyDrawPolicyDOCX(ar, bodyParts, opts.DrawPolicy, stats)
	c.removeVisualObjects(ar, bodyParts, maskAnchorRe, opts, stats)

	redactParts := append([]string{}, bodyParts...)
	for _, extra := range []string{"word/footnotes.xml", "word/endnotes.xml"} {
		if ar.HasPart(extra) {
			redactParts = append(redactParts, extra)
		}
	}
	c.redactTextNodes(ar, redactParts, "w:t", opts, stats)
}

func docxBodyParts(ar *container.Archive) []string {
	parts := []string{"word/document.xml"}
	parts = append(parts, ar.ListParts("word/header*.xml")...)
	parts = append(parts, ar.ListParts("word/footer*.xml")...)
	return parts
}

// removeMacroParts drops VBA blobs for any OOXML format.
func (c *Cleaner) removeMacroParts(ar *container.Archive, stats *models.CleaningStats) {
	for _, name := range ar.PartNames() {
		base := strings.ToLower(name)
		if strings.Contains(base, "vbaproject") || strings.Contains(base, "vbadata") {
			if c.removePartAndRefs(ar, name) {
				stats.MacrosRemoved++
				stats.PartsRemoved = append(stats.PartsRemoved, name)
				c.log.Info("removed macro part", zap.String("part", name))
			}
		}
	}
}

// applyDrawPolicyDOCX removes drawings per policy: auto strips ink and
// legacy VML pictures, all additionally strips modern drawings and the
// media folder.
func (c *Cleaner) applyDrawPolicyDOCX(ar *container.Archive, bodyParts []string, policy string, stats *models.CleaningStats) {
	if policy == DrawNone {
		return
	}
	for _, part := range bodyParts {
		c.rewritePart(ar, part, func(xml string) string {
			stats.DrawingsRemoved += len(inkRe.FindAllString(xml, -1))
			xml = inkRe.ReplaceAllString(xml, "")
			stats.DrawingsRemoved += len(pictRe.FindAllString(xml, -1))
			xml = pictRe.ReplaceAllString(xml, "")
			if policy == DrawAll {
				stats.DrawingsRemoved += len(drawingRe.FindAllString(xml, -1))
				xml = drawingRe.ReplaceAllString(xml, "")
			}
			return xml
		})
	}
	if policy == DrawAll {
		for _, media := range ar.ListParts("word/media/*") {
			if c.removePartAndRefs(ar, media) {
				stats.PartsRemoved = append(stats.PartsRemoved, media)
			}
		}
	}
}
