package container

import (
	"bytes"
	"regexp"
	"strings"
)

var (
	tjRe      = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*Tj`)
	tjArrayRe = regexp.MustCompile(`\[[^\[\]]*\]\s*TJ`)
)

// ExtractText pulls the literal strings shown by uncompressed content
// streams, one line per page. Filtered streams are skipped, so
// compressed documents yield empty text.
func (p *PDF) ExtractText() string {
	var lines []string
	for _, page := range p.pageObjects() {
		ref := refAfterKey(page.body, "/Contents")
		if ref == 0 {
			continue
		}
		obj := p.objects[ref]
		if obj == nil {
			continue
		}
		stream, ok := streamPayload(obj.body)
		if !ok {
			continue
		}
		var b strings.Builder
		for _, m := range tjRe.FindAllSubmatch(stream, -1) {
			b.WriteString(unescapePDFString(string(m[1])))
		}
		for _, arr := range tjArrayRe.FindAll(stream, -1) {
			for _, m := range nameStrRe.FindAllSubmatch(arr, -1) {
				b.WriteString(unescapePDFString(string(m[1])))
			}
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n")
}

// streamPayload returns the bytes between stream and endstream when the
// dictionary names no filter.
func streamPayload(body []byte) ([]byte, bool) {
	i := bytes.Index(body, []byte("stream"))
	if i < 0 {
		return nil, false
	}
	if bytes.Contains(body[:i], []byte("/Filter")) {
		return nil, false
	}
	j := bytes.Index(body[i:], []byte("endstream"))
	if j < 0 {
		return nil, false
	}
	payload := body[i+len("stream") : i+j]
	return bytes.TrimLeft(payload, "\r\n"), true
}
