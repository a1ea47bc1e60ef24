package proof

import "regexp"

var (
	digitRunRe  = regexp.MustCompile(`\d{4,}`)
	codeTokenRe = regexp.MustCompile(`\b[A-Za-z]+\d[A-Za-z0-9]{3,}\b|\b\d+[A-Za-z][A-Za-z0-9]{3,}\b`)
)

// maskNoise replaces long digit runs and code-like tokens with zeros of
// the same length before text is sent to the remote stage. Offsets in
// the response map straight back because lengths never change.
func maskNoise(text string) string {
	masked := digitRunRe.ReplaceAllStringFunc(text, zeros)
	return codeTokenRe.ReplaceAllStringFunc(masked, zeros)
}

func zeros(s string) string {
	b := make([]byte, len(s))
	for i := range b {
		b[i] = '0'
	}
	return string(b)
}
