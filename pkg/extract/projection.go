// Package extract builds a normalized plain-text projection of a document.
// The projection is the ordered concatenation of decoded text segments with
// paragraph separators between block boundaries, and carries a mapping from
// projection offset back to the owning part and segment. It is invalidated
// by any edit and must be rebuilt.
package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SegmentRef locates a projection offset inside a part's text segments.
type SegmentRef struct {
	PartPath        string
	SegmentIndex    int
	OffsetInSegment int
}

// span is one projection range contributed by a single text segment.
// Separator characters inserted between blocks have no span.
type span struct {
	projStart int
	projEnd   int
	partPath  string
	segIndex  int
}

// Projection is the text view of a document.
type Projection struct {
	// Raw is the exact decoded text, whitespace preserved. Detectors that
	// inspect spacing (orphan data, the spelling prefilter) and the
	// proofreader anchor against Raw.
	Raw string

	// Parts lists the contributing part paths in document order.
	Parts []string

	spans []span

	normalized string
}

// Locate maps a Raw offset to its owning segment. Offsets that fall on
// inserted separators return ok=false.
func (p *Projection) Locate(offset int) (SegmentRef, bool) {
	for _, s := range p.spans {
		if offset >= s.projStart && offset < s.projEnd {
			return SegmentRef{
				PartPath:        s.partPath,
				SegmentIndex:    s.segIndex,
				OffsetInSegment: offset - s.projStart,
			}, true
		}
	}
	return SegmentRef{}, false
}

var (
	horizontalRunRe = regexp.MustCompile(`[ \t]{2,}`)
	newlineRunRe    = regexp.MustCompile(`\n{3,}`)
)

// Normalized returns the NFC- and whitespace-normalized text: horizontal
// runs collapsed, \n and \t preserved, three or more newlines collapsed
// to two. Deterministic for a given input.
func (p *Projection) Normalized() string {
	if p.normalized == "" && p.Raw != "" {
		text := norm.NFC.String(p.Raw)
		text = horizontalRunRe.ReplaceAllString(text, " ")
		text = newlineRunRe.ReplaceAllString(text, "\n\n")
		p.normalized = strings.TrimSpace(text)
	}
	return p.normalized
}

// builder accumulates projection text and segment spans.
type builder struct {
	sb    strings.Builder
	spans []span
	parts []string
	seen  map[string]bool

	segIndex map[string]int
}

func newBuilder() *builder {
	return &builder{seen: make(map[string]bool), segIndex: make(map[string]int)}
}

// addSegment appends one decoded text node from a part.
func (b *builder) addSegment(partPath, text string) {
	if !b.seen[partPath] {
		b.seen[partPath] = true
		b.parts = append(b.parts, partPath)
	}
	idx := b.segIndex[partPath]
	b.segIndex[partPath] = idx + 1
	if text == "" {
		return
	}
	start := b.sb.Len()
	b.sb.WriteString(text)
	b.spans = append(b.spans, span{
		projStart: start,
		projEnd:   b.sb.Len(),
		partPath:  partPath,
		segIndex:  idx,
	})
}

// addSeparator appends separator text with no segment mapping.
func (b *builder) addSeparator(sep string) {
	b.sb.WriteString(sep)
}

func (b *builder) projection() *Projection {
	return &Projection{Raw: b.sb.String(), Parts: b.parts, spans: b.spans}
}
