// Package proof finds spelling and typography issues in extracted
// document text. A deterministic prefilter always runs; a remote
// completion stage refines the candidate list when a provider is
// configured. Remote failures never fail an analysis.
package proof

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/qualion/clean/internal/docproc"
	"github.com/qualion/clean/pkg/models"
)

// maxChunkWorkers bounds concurrent outbound provider calls per
// document.
const maxChunkWorkers = 3

// Result carries the issues plus a flag telling report consumers the
// remote stage was skipped or gave up.
type Result struct {
	Issues   []models.SpellingIssue
	Degraded bool
}

// Proofreader runs the two-stage spelling pipeline. A nil provider
// disables the remote stage entirely.
type Proofreader struct {
	provider Provider
	log      *zap.Logger
}

// New builds a proofreader. Pass nil as provider to run deterministic
// rules only.
func New(provider Provider, log *zap.Logger) *Proofreader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Proofreader{provider: provider, log: log}
}

// Run proofs the projection text and returns anchored issues sorted by
// position.
func (p *Proofreader) Run(ctx context.Context, text string) Result {
	issues := Prefilter(text)

	var degraded bool
	if p.provider != nil && strings.TrimSpace(text) != "" {
		remote, failed := p.remoteStage(ctx, text, issues)
		issues = append(issues, remote...)
		degraded = failed
	}

	issues = dedupeIssues(issues)
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.HasOffsets() && b.HasOffsets() {
			return *a.StartIndex < *b.StartIndex
		}
		return a.HasOffsets()
	})
	return Result{Issues: issues, Degraded: degraded}
}

// remoteStage masks noise, chunks the text and fans the chunks out to
// the provider. Returns the verified issues and whether any chunk
// exhausted its retries.
func (p *Proofreader) remoteStage(ctx context.Context, text string, candidates []models.SpellingIssue) ([]models.SpellingIssue, bool) {
	masked := maskNoise(text)
	chunks := chunkText(masked)

	var degraded bool
	onError := func(_ string, err error) {
		degraded = true
		p.log.Warn("proofreader chunk failed", zap.Error(err))
	}

	results, ok := docproc.MapOrdered(ctx, chunks, maxChunkWorkers,
		func(ctx context.Context, _ int, c chunk) ([]models.SpellingIssue, error) {
			return p.proofChunk(ctx, c, text, candidates)
		}, onError)

	var issues []models.SpellingIssue
	for i, res := range results {
		if ok[i] {
			issues = append(issues, res...)
		}
	}
	return issues, degraded
}

// proofChunk sends one chunk to the provider and verifies every
// returned item against the original text.
func (p *Proofreader) proofChunk(ctx context.Context, c chunk, original string, candidates []models.SpellingIssue) ([]models.SpellingIssue, error) {
	prompt := buildPrompt(c, candidates)
	raw, err := p.provider.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	items, err := parseItems(raw)
	if err != nil {
		return nil, fmt.Errorf("parse completion: %w", err)
	}

	var issues []models.SpellingIssue
	for _, item := range items {
		iss, ok := p.verifyItem(item, c, original)
		if !ok {
			continue
		}
		issues = append(issues, iss)
	}
	return issues, nil
}

const promptHeader = `You are a proofreader for business documents. Find spelling and
grammar errors in the text below. Respond with a JSON array only, each
element {"error": "<exact substring>", "correction": "<replacement>",
"type": "spelling"|"grammar", "message": "<short explanation>",
"startIndex": <offset of error in text>, "endIndex": <offset past end>}.
Preserve whitespace exactly in both error and correction. Do not
rephrase for style. Return [] when the text is clean.`

func buildPrompt(c chunk, candidates []models.SpellingIssue) string {
	var b strings.Builder
	b.WriteString(promptHeader)

	var suspects []string
	end := c.start + len(c.text)
	for _, iss := range candidates {
		if iss.HasOffsets() && *iss.StartIndex >= c.start && *iss.EndIndex <= end {
			suspects = append(suspects, iss.Error)
		}
	}
	if len(suspects) > 0 {
		b.WriteString("\n\nAlready-flagged suspects (verify, do not repeat verbatim): ")
		b.WriteString(strings.Join(suspects, ", "))
	}

	b.WriteString("\n\nText:\n")
	b.WriteString(c.text)
	return b.String()
}

// remoteItem is one element of the provider's JSON array response.
type remoteItem struct {
	Error      string `json:"error"`
	Correction string `json:"correction"`
	Type       string `json:"type"`
	Message    string `json:"message"`
	StartIndex *int   `json:"startIndex"`
	EndIndex   *int   `json:"endIndex"`
}

// parseItems tolerates markdown code fences around the JSON array.
func parseItems(raw string) ([]remoteItem, error) {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "["); i >= 0 {
		if j := strings.LastIndex(s, "]"); j > i {
			s = s[i : j+1]
		}
	}
	var items []remoteItem
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// verifyItem anchors a returned item in the chunk, relocating by unique
// substring search when the offsets are wrong, then remaps to global
// offsets and applies the word-level rejection rules.
func (p *Proofreader) verifyItem(item remoteItem, c chunk, original string) (models.SpellingIssue, bool) {
	if item.Error == "" || item.Error == item.Correction {
		return models.SpellingIssue{}, false
	}

	local := -1
	if item.StartIndex != nil && item.EndIndex != nil {
		s, e := *item.StartIndex, *item.EndIndex
		if s >= 0 && e <= len(c.text) && s < e && c.text[s:e] == item.Error {
			local = s
		}
	}
	if local < 0 {
		first := strings.Index(c.text, item.Error)
		if first < 0 || strings.Index(c.text[first+1:], item.Error) >= 0 {
			// Absent or ambiguous anchor.
			return models.SpellingIssue{}, false
		}
		local = first
	}

	start := c.start + local
	end := start + len(item.Error)
	// Masking preserves length, so offsets carry over. An error that
	// overlaps a masked token will not match the original and is
	// dropped here.
	if original[start:end] != item.Error {
		return models.SpellingIssue{}, false
	}
	if rejectCorrection(item.Error, item.Correction) {
		return models.SpellingIssue{}, false
	}

	typ := item.Type
	if typ != models.SpellingTypeGrammar {
		typ = models.SpellingTypeSpelling
	}
	iss := makeIssue(original, start, end, item.Correction, typ, item.Message)
	if typ == models.SpellingTypeGrammar {
		iss.Severity = models.SeverityMedium
	}
	return iss, true
}

// rejectCorrection applies the postfilter rules: no invented words, no
// merging of two valid words, no collapsing whitespace between valid
// words.
func rejectCorrection(errText, correction string) bool {
	corrTokens := strings.Fields(correction)
	if len(corrTokens) == 1 && isAlphabetic(corrTokens[0]) && !isRealWord(corrTokens[0]) {
		return true
	}

	errTokens := strings.FieldsFunc(errText, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == ',' || r == '.' || r == ';' || r == ':' || r == '-'
	})
	if len(errTokens) == 2 && bothRealWords(errTokens[0], errTokens[1]) {
		joined := strings.ToLower(errTokens[0] + errTokens[1])
		if len(corrTokens) == 1 && strings.ToLower(corrTokens[0]) == joined {
			return true
		}
		if correction == errTokens[0]+" "+errTokens[1] && strings.ContainsAny(errText, " \t") {
			return true
		}
	}
	return false
}

func isAlphabetic(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return s != ""
}

// dedupeIssues drops repeats of the same correction in the same
// neighbourhood.
func dedupeIssues(issues []models.SpellingIssue) []models.SpellingIssue {
	seen := make(map[string]struct{}, len(issues))
	out := issues[:0]
	for _, iss := range issues {
		key := iss.Error + "|" + iss.Correction + "|" +
			normalizeContext(iss.ContextBefore) + "|" + normalizeContext(iss.ContextAfter)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, iss)
	}
	return out
}

func normalizeContext(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
