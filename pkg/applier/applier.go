// Package applier rewrites document text in place. Text in OOXML parts
// is fragmented across styling runs, so an edit targeting a semantic
// string may straddle several <t> nodes. The applier resolves each edit
// to a span of the part-local text, rewrites only the node inner text,
// and leaves every tag and attribute where it was.
package applier

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/qualion/clean/pkg/container"
	"github.com/qualion/clean/pkg/extract"
	"github.com/qualion/clean/pkg/models"
)

const (
	maxExamples    = 10
	exampleWindow  = 30
	maxExampleLen  = 140
)

// Applier applies approved spelling corrections to a document.
type Applier struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Applier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Applier{log: log}
}

// partState holds one part's segments and its local text concatenation,
// built without any inserted separators.
type partState struct {
	path    string
	xml     string
	segs    []segment
	text    string
	claimed []interval
	dirty   bool
}

type interval struct{ start, end int }

func (ps *partState) overlaps(start, end int) bool {
	for _, iv := range ps.claimed {
		if start < iv.end && iv.start < end {
			return true
		}
	}
	return false
}

// target is an edit resolved to a concrete span of one part.
type target struct {
	issue models.SpellingIssue
	part  *partState
	start int
	end   int
}

// Apply rewrites the approved issues into the document's parts and
// returns correction statistics. Edits that cannot be anchored are
// skipped, never guessed. The projection is stale afterwards and must
// be rebuilt by the caller.
func (a *Applier) Apply(doc *container.Document, proj *extract.Projection, issues []models.SpellingIssue) models.CorrectionStats {
	stats := models.CorrectionStats{Requested: len(issues)}
	if doc.Archive == nil || len(issues) == 0 {
		stats.Skipped = len(issues)
		return stats
	}

	states, order := a.loadParts(doc, proj)
	for _, ps := range states {
		stats.NodesVisited += len(ps.segs)
	}

	var withOffsets, withoutOffsets []models.SpellingIssue
	for _, iss := range issues {
		if iss.Error == "" || iss.Error == iss.Correction {
			stats.Skipped++
			continue
		}
		if iss.HasOffsets() {
			withOffsets = append(withOffsets, iss)
		} else {
			withoutOffsets = append(withoutOffsets, iss)
		}
	}

	// Offset-anchored edits claim spans earliest first; the rest go
	// longest error first so specific spans win over their substrings.
	sort.SliceStable(withOffsets, func(i, j int) bool {
		return *withOffsets[i].StartIndex < *withOffsets[j].StartIndex
	})
	sort.SliceStable(withoutOffsets, func(i, j int) bool {
		return len(withoutOffsets[i].Error) > len(withoutOffsets[j].Error)
	})

	var targets []target
	claim := func(iss models.SpellingIssue) {
		t, ok := a.resolve(iss, proj, states, order)
		if !ok || t.part.overlaps(t.start, t.end) {
			stats.Skipped++
			return
		}
		t.part.claimed = append(t.part.claimed, interval{t.start, t.end})
		targets = append(targets, t)
	}
	for _, iss := range withOffsets {
		claim(iss)
	}
	for _, iss := range withoutOffsets {
		claim(iss)
	}

	// Apply per part in descending start order so original span
	// coordinates stay valid while earlier spans are untouched.
	sort.SliceStable(targets, func(i, j int) bool {
		if targets[i].part != targets[j].part {
			return targets[i].part.path < targets[j].part.path
		}
		return targets[i].start > targets[j].start
	})
	for _, t := range targets {
		if len(stats.Examples) < maxExamples {
			stats.Examples = append(stats.Examples, changeExample(t))
		}
		applyEdit(t)
		stats.Applied++
	}

	for _, path := range order {
		ps := states[path]
		if !ps.dirty {
			continue
		}
		changed := 0
		for i := range ps.segs {
			if ps.segs[i].dirty {
				changed++
			}
		}
		stats.NodesChanged += changed
		doc.Archive.WritePart(path, []byte(rebuild(ps.xml, ps.segs)))
		a.log.Debug("rewrote part", zap.String("part", path), zap.Int("nodesChanged", changed))
	}
	return stats
}

func (a *Applier) loadParts(doc *container.Document, proj *extract.Projection) (map[string]*partState, []string) {
	states := make(map[string]*partState, len(proj.Parts))
	var order []string
	for _, path := range proj.Parts {
		data, err := doc.Archive.ReadPart(path)
		if err != nil {
			continue
		}
		ps := &partState{path: path, xml: string(data)}
		ps.segs = enumerateSegments(ps.xml)
		var b strings.Builder
		for _, seg := range ps.segs {
			b.WriteString(seg.decoded)
		}
		ps.text = b.String()
		states[path] = ps
		order = append(order, path)
	}
	return states, order
}

// resolve anchors one issue. Explicit offsets are mapped through the
// projection and verified against the literal error text; anything else
// falls back to context-scored search.
func (a *Applier) resolve(iss models.SpellingIssue, proj *extract.Projection, states map[string]*partState, order []string) (target, bool) {
	if iss.HasOffsets() {
		if t, ok := resolveByOffsets(iss, proj, states); ok {
			return t, true
		}
	}
	return resolveByContext(iss, states, order)
}

func resolveByOffsets(iss models.SpellingIssue, proj *extract.Projection, states map[string]*partState) (target, bool) {
	ref, ok := proj.Locate(*iss.StartIndex)
	endRef, ok2 := proj.Locate(*iss.EndIndex - 1)
	if !ok || !ok2 || ref.PartPath != endRef.PartPath {
		return target{}, false
	}
	ps := states[ref.PartPath]
	if ps == nil || ref.SegmentIndex >= len(ps.segs) || endRef.SegmentIndex >= len(ps.segs) {
		return target{}, false
	}
	start := ps.segs[ref.SegmentIndex].start + ref.OffsetInSegment
	end := ps.segs[endRef.SegmentIndex].start + endRef.OffsetInSegment + 1
	if start >= end || end > len(ps.text) {
		return target{}, false
	}
	if !strings.EqualFold(ps.text[start:end], iss.Error) {
		return target{}, false
	}
	return target{issue: iss, part: ps, start: start, end: end}, true
}

// resolveByContext scans every part for occurrences of the error text
// and scores them against the issue's context windows.
func resolveByContext(iss models.SpellingIssue, states map[string]*partState, order []string) (target, bool) {
	type candidate struct {
		ps    *partState
		start int
		score int
	}
	var candidates []candidate
	collect := func(fold bool) {
		for _, path := range order {
			ps := states[path]
			for _, pos := range findAll(ps.text, iss.Error, fold) {
				candidates = append(candidates, candidate{
					ps:    ps,
					start: pos,
					score: scoreOccurrence(ps.text, pos, pos+len(iss.Error), iss),
				})
			}
		}
	}
	collect(false)
	if len(candidates) == 0 {
		collect(true)
	}
	if len(candidates) == 0 {
		return target{}, false
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.score > best.score {
			best = c
		}
	}
	hasContext := strings.TrimSpace(iss.ContextBefore) != "" || strings.TrimSpace(iss.ContextAfter) != ""
	if hasContext && best.score <= 0 {
		return target{}, false
	}
	return target{issue: iss, part: best.ps, start: best.start, end: best.start + len(iss.Error)}, true
}

func findAll(text, needle string, fold bool) []int {
	if needle == "" {
		return nil
	}
	haystack := text
	if fold {
		haystack = strings.ToLower(text)
		needle = strings.ToLower(needle)
	}
	var out []int
	for from := 0; ; {
		i := strings.Index(haystack[from:], needle)
		if i < 0 {
			return out
		}
		out = append(out, from+i)
		from += i + 1
	}
}

// scoreOccurrence rates one occurrence against the declared context:
// matching before/after windows are worth 5 each, an exact-case match 3
// and word-ish boundaries 1.
func scoreOccurrence(text string, start, end int, iss models.SpellingIssue) int {
	score := 0
	before := strings.TrimSpace(iss.ContextBefore)
	after := strings.TrimSpace(iss.ContextAfter)
	if before != "" && strings.HasSuffix(strings.ToLower(strings.TrimSpace(text[:start])), strings.ToLower(before)) {
		score += 5
	}
	if after != "" && strings.HasPrefix(strings.ToLower(strings.TrimSpace(text[end:])), strings.ToLower(after)) {
		score += 5
	}
	if text[start:end] == iss.Error {
		score += 3
	}
	if !letterAt(text, start-1) && !letterAt(text, end) {
		score++
	}
	return score
}

func letterAt(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return false
	}
	c := text[i]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// applyEdit splices the correction into the overlapped segments. A
// multi-segment span is replaced on the concatenation and redistributed
// so every segment but the last keeps its original length; the last
// absorbs the size difference.
func applyEdit(t target) {
	ps := t.part
	ps.dirty = true

	i := segmentAt(ps.segs, t.start)
	j := segmentAt(ps.segs, t.end-1)

	if i == j {
		seg := &ps.segs[i]
		s := t.start - seg.start
		e := t.end - seg.start
		seg.decoded = seg.decoded[:s] + t.issue.Correction + seg.decoded[e:]
		seg.dirty = true
		return
	}

	prefix := ps.segs[i].decoded[:t.start-ps.segs[i].start]
	suffix := ps.segs[j].decoded[t.end-ps.segs[j].start:]
	combined := prefix + t.issue.Correction + suffix
	for k := i; k < j; k++ {
		seg := &ps.segs[k]
		n := min(seg.origLen, len(combined))
		seg.decoded = combined[:n]
		combined = combined[n:]
		seg.dirty = true
	}
	ps.segs[j].decoded = combined
	ps.segs[j].dirty = true
}

// segmentAt finds the segment whose span covers the offset. Empty
// segments never cover anything and are skipped naturally.
func segmentAt(segs []segment, offset int) int {
	for i := range segs {
		if offset >= segs[i].start && offset < segs[i].end {
			return i
		}
	}
	return len(segs) - 1
}

func changeExample(t target) models.ChangeExample {
	text := t.part.text
	cs := max(0, t.start-exampleWindow)
	ce := min(len(text), t.end+exampleWindow)
	return models.ChangeExample{
		Before: clip(text[cs:ce]),
		After:  clip(text[cs:t.start] + t.issue.Correction + text[t.end:ce]),
	}
}

func clip(s string) string {
	if len(s) <= maxExampleLen {
		return s
	}
	return s[:maxExampleLen]
}
