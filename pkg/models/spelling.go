package models

// SpellingIssue is an anchored correction produced by the proofreader.
// Error and Correction are exact substrings with whitespace preserved;
// when offsets are absent the applier locates the issue by context scoring.
type SpellingIssue struct {
	ID            string   `json:"id"`
	Error         string   `json:"error"`
	Correction    string   `json:"correction"`
	Type          string   `json:"type"`
	Severity      Severity `json:"severity"`
	Message       string   `json:"message"`
	ContextBefore string   `json:"contextBefore"`
	ContextAfter  string   `json:"contextAfter"`
	StartIndex    *int     `json:"startIndex,omitempty"`
	EndIndex      *int     `json:"endIndex,omitempty"`
}

// HasOffsets reports whether the issue carries explicit projection offsets.
func (s SpellingIssue) HasOffsets() bool {
	return s.StartIndex != nil && s.EndIndex != nil
}

// Spelling issue types emitted by the prefilter and the LLM stage.
const (
	SpellingTypeSplitWord     = "split_word"
	SpellingTypePunctInWord   = "punctuation_in_word"
	SpellingTypeStuckWords    = "stuck_words"
	SpellingTypeMultipleSpace = "multiple_space"
	SpellingTypeSpelling      = "spelling"
	SpellingTypeGrammar       = "grammar"
)
