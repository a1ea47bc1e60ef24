package proof

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualion/clean/pkg/models"
)

type stubProvider struct {
	resp string
	err  error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(context.Context, string) (string, error) {
	return s.resp, s.err
}

func TestPrefilterSplitWord(t *testing.T) {
	issues := Prefilter("soc ial budget for the year")
	require.Len(t, issues, 1)
	iss := issues[0]
	assert.Equal(t, "soc ial", iss.Error)
	assert.Equal(t, "social", iss.Correction)
	assert.Equal(t, models.SpellingTypeSplitWord, iss.Type)
	assert.Equal(t, models.SeverityLow, iss.Severity)
	require.True(t, iss.HasOffsets())
	assert.Equal(t, 0, *iss.StartIndex)
	assert.Equal(t, 7, *iss.EndIndex)
}

func TestPrefilterPunctuationInWord(t *testing.T) {
	issues := Prefilter("deliv,ery due friday")
	require.Len(t, issues, 1)
	assert.Equal(t, "deliv,ery", issues[0].Error)
	assert.Equal(t, "delivery", issues[0].Correction)
	assert.Equal(t, models.SpellingTypePunctInWord, issues[0].Type)
}

func TestPrefilterStuckConnector(t *testing.T) {
	issues := Prefilter("contact theteam tomorrow")
	require.Len(t, issues, 1)
	assert.Equal(t, "theteam", issues[0].Error)
	assert.Equal(t, "the team", issues[0].Correction)
	assert.Equal(t, models.SpellingTypeStuckWords, issues[0].Type)
}

func TestPrefilterMultipleSpaces(t *testing.T) {
	issues := Prefilter("total  cost")
	require.Len(t, issues, 1)
	assert.Equal(t, "  ", issues[0].Error)
	assert.Equal(t, " ", issues[0].Correction)
	assert.Equal(t, models.SpellingTypeMultipleSpace, issues[0].Type)
}

func TestPrefilterLeavesCleanTextAlone(t *testing.T) {
	assert.Empty(t, Prefilter("the project plan covers budget and delivery"))
}

func TestPrefilterRespectsStoplist(t *testing.T) {
	assert.Empty(t, Prefilter("report therefore approved"),
		"stoplist words must not be split around their embedded connector")
}

func TestRunDedupesCamelAndConnectorHits(t *testing.T) {
	// "deliveryThe" trips both the case-change rule and the trailing
	// connector rule; the run must report it once.
	p := New(nil, nil)
	res := p.Run(context.Background(), "deliveryThe plan")
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "deliveryThe", res.Issues[0].Error)
	assert.Equal(t, "delivery The", res.Issues[0].Correction)
	assert.False(t, res.Degraded)
}

func TestRunNilProviderNeverDegrades(t *testing.T) {
	p := New(nil, nil)
	res := p.Run(context.Background(), "clean text here")
	assert.False(t, res.Degraded)
}

func TestRunRemoteIssueVerified(t *testing.T) {
	resp := "```json\n" +
		`[{"error": "wil", "correction": "will", "type": "spelling", "message": "typo", "startIndex": 3, "endIndex": 6}]` +
		"\n```"
	p := New(&stubProvider{resp: resp}, nil)
	res := p.Run(context.Background(), "We wil deliver the report")
	assert.False(t, res.Degraded)
	require.Len(t, res.Issues, 1)
	iss := res.Issues[0]
	assert.Equal(t, "wil", iss.Error)
	assert.Equal(t, "will", iss.Correction)
	assert.Equal(t, models.SpellingTypeSpelling, iss.Type)
	require.True(t, iss.HasOffsets())
	assert.Equal(t, 3, *iss.StartIndex)
	assert.Equal(t, 6, *iss.EndIndex)
}

func TestRunRemoteGrammarSeverity(t *testing.T) {
	resp := `[{"error": "need", "correction": "needs", "type": "grammar", "message": "agreement", "startIndex": 9, "endIndex": 13}]`
	p := New(&stubProvider{resp: resp}, nil)
	res := p.Run(context.Background(), "the team need a plan")
	require.Len(t, res.Issues, 1)
	assert.Equal(t, models.SpellingTypeGrammar, res.Issues[0].Type)
	assert.Equal(t, models.SeverityMedium, res.Issues[0].Severity)
}

func TestRunRemoteFailureDegrades(t *testing.T) {
	p := New(&stubProvider{err: errors.New("boom")}, nil)
	res := p.Run(context.Background(), "soc ial budget plan")
	assert.True(t, res.Degraded)
	require.Len(t, res.Issues, 1, "prefilter results survive remote failure")
	assert.Equal(t, "social", res.Issues[0].Correction)
}

func TestVerifyItemRejectsAmbiguousAnchor(t *testing.T) {
	p := New(nil, nil)
	c := chunk{start: 0, text: "the plan and the budget"}
	_, ok := p.verifyItem(remoteItem{Error: "the", Correction: "The"}, c, c.text)
	assert.False(t, ok, "an error substring appearing twice cannot be anchored")
}

func TestVerifyItemRelocatesBadOffsets(t *testing.T) {
	p := New(nil, nil)
	c := chunk{start: 0, text: "we wil deliver"}
	bad := 99
	iss, ok := p.verifyItem(remoteItem{
		Error: "wil", Correction: "will", StartIndex: &bad, EndIndex: &bad,
	}, c, c.text)
	require.True(t, ok)
	assert.Equal(t, 3, *iss.StartIndex)
}

func TestRejectCorrection(t *testing.T) {
	assert.True(t, rejectCorrection("teh", "tehh"), "invented words are rejected")
	assert.False(t, rejectCorrection("teh", "the"))
	assert.True(t, rejectCorrection("the team", "theteam"), "merging two valid words is rejected")
	assert.True(t, rejectCorrection("the  team", "the team"), "whitespace collapse between valid words is rejected")
}

func TestMaskNoisePreservesLength(t *testing.T) {
	in := "ref ABC1234X total 1234567 due"
	out := maskNoise(in)
	assert.Len(t, out, len(in))
	assert.NotContains(t, out, "ABC1234X")
	assert.NotContains(t, out, "1234567")
	assert.Contains(t, out, "ref")
}

func TestChunkTextCoversInput(t *testing.T) {
	var b strings.Builder
	for b.Len() < 3*chunkSize {
		b.WriteString("the quarterly delivery plan needs review before approval\n")
	}
	text := b.String()

	chunks := chunkText(text)
	require.Greater(t, len(chunks), 1)
	var joined strings.Builder
	offset := 0
	for _, c := range chunks {
		assert.Equal(t, offset, c.start)
		joined.WriteString(c.text)
		offset += len(c.text)
	}
	assert.Equal(t, text, joined.String(), "chunks reassemble the input exactly")
}

func TestChunkTextShortInput(t *testing.T) {
	chunks := chunkText("short text")
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].start)
	assert.Equal(t, "short text", chunks[0].text)
}
