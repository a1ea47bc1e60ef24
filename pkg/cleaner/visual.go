package cleaner

import (
	"regexp"

	"github.com/qualion/clean/pkg/container"
	"github.com/qualion/clean/pkg/models"
)

var (
	maskAnchorRe = regexp.MustCompile(`(?s)<wp:anchor\b.*?</wp:anchor>`)
	maskShapeRe  = regexp.MustCompile(`(?s)<p:sp>.*?</p:sp>`)
	maskSolidRe  = regexp.MustCompile(`<a:solidFill>`)
	maskTextRe   = regexp.MustCompile(`<a:t>[^<]+</a:t>`)
)

// removeVisualObjects strips masking shapes, the solid-fill drawings
// without text that cover content instead of deleting it, from the
// selected parts. Selection is explicit: nothing is removed unless the
// caller names the parts, so ordinary decorative drawings survive a
// default clean.
func (c *Cleaner) removeVisualObjects(ar *container.Archive, parts []string, shapeRe *regexp.Regexp, opts Options, stats *models.CleaningStats) {
	if len(opts.VisualObjectParts) == 0 {
		return
	}
	for _, part := range selectParts(parts, opts.VisualObjectParts) {
		c.rewritePart(ar, part, func(xml string) string {
			return shapeRe.ReplaceAllStringFunc(xml, func(shape string) string {
				if !maskSolidRe.MatchString(shape) || maskTextRe.MatchString(shape) {
					return shape
				}
				stats.VisualObjectsRemoved++
				return ""
			})
		})
	}
}
