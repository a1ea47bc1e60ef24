package proof

import "strings"

// chunkSize is the target length of one remote proofreading request.
const chunkSize = 5000

// chunk is a non-overlapping slice of the projection text with its
// global start offset.
type chunk struct {
	start int
	text  string
}

// chunkText splits text into pieces of roughly chunkSize characters,
// preferring to cut at a newline and falling back to a space so words
// are never severed mid-token.
func chunkText(text string) []chunk {
	var chunks []chunk
	for start := 0; start < len(text); {
		end := start + chunkSize
		if end >= len(text) {
			chunks = append(chunks, chunk{start: start, text: text[start:]})
			break
		}
		cut := strings.LastIndexByte(text[start:end], '\n')
		if cut < chunkSize/2 {
			cut = strings.LastIndexByte(text[start:end], ' ')
		}
		if cut < chunkSize/2 {
			cut = chunkSize
		}
		chunks = append(chunks, chunk{start: start, text: text[start : start+cut]})
		start += cut
	}
	return chunks
}
