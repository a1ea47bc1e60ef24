package applier

import (
	"regexp"
	"strconv"
	"strings"
)

// segment is one text element occurrence in a part, with enough of the
// surrounding XML recorded to rewrite it in place.
type segment struct {
	xmlStart    int    // offset of '<' of the opening tag
	xmlEnd      int    // offset past the closing tag (or past '/>')
	name        string // w:t, a:t or t
	attrs       string // raw attribute text including leading space
	rawInner    string
	selfClosing bool

	decoded string // current text, mutated by edits
	origLen int    // decoded length before any edit
	start   int    // offsets into the part-local concatenation
	end     int
	dirty   bool
}

// Any namespaced or bare <t> element. Matching on the local name keeps
// the enumeration aligned with the streaming extraction pass, which
// also sees w:t, a:t and m:t as "t".
var openTagRe = regexp.MustCompile(`<([A-Za-z0-9]+:t|t)(\s[^>]*?)?(/?)>`)

// enumerateSegments walks a part's raw XML and lists every text element
// in document order. Every occurrence counts, empty or not, so segment
// indices line up with the extraction pass.
func enumerateSegments(xml string) []segment {
	var segs []segment
	offset := 0
	pos := 0
	for {
		loc := openTagRe.FindStringSubmatchIndex(xml[pos:])
		if loc == nil {
			break
		}
		start := pos + loc[0]
		openEnd := pos + loc[1]
		name := xml[pos+loc[2] : pos+loc[3]]
		attrs := ""
		if loc[4] >= 0 {
			attrs = xml[pos+loc[4] : pos+loc[5]]
		}
		selfClosing := loc[6] < loc[7]

		seg := segment{
			xmlStart:    start,
			name:        name,
			attrs:       attrs,
			selfClosing: selfClosing,
		}
		if selfClosing {
			seg.xmlEnd = openEnd
			pos = openEnd
		} else {
			closeTag := "</" + name + ">"
			rel := strings.Index(xml[openEnd:], closeTag)
			if rel < 0 {
				// Unbalanced part; stop rather than corrupt it.
				return segs
			}
			seg.rawInner = xml[openEnd : openEnd+rel]
			seg.xmlEnd = openEnd + rel + len(closeTag)
			pos = seg.xmlEnd
		}

		seg.decoded = decodeEntities(seg.rawInner)
		seg.origLen = len(seg.decoded)
		seg.start = offset
		seg.end = offset + seg.origLen
		offset = seg.end
		segs = append(segs, seg)
	}
	return segs
}

// rebuild writes the part back with dirty segments re-encoded and
// everything else byte-identical.
func rebuild(xml string, segs []segment) string {
	var b strings.Builder
	b.Grow(len(xml))
	prev := 0
	for i := range segs {
		seg := &segs[i]
		b.WriteString(xml[prev:seg.xmlStart])
		prev = seg.xmlEnd
		if !seg.dirty {
			b.WriteString(xml[seg.xmlStart:seg.xmlEnd])
			continue
		}
		if seg.decoded == "" && seg.selfClosing {
			b.WriteString("<" + seg.name + seg.attrs + "/>")
			continue
		}
		b.WriteString("<" + seg.name + seg.attrs + ">")
		b.WriteString(escapeText(seg.decoded))
		b.WriteString("</" + seg.name + ">")
	}
	b.WriteString(xml[prev:])
	return b.String()
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

// decodeEntities resolves the five XML entities plus numeric character
// references, mirroring what a streaming decoder produces for the same
// bytes.
func decodeEntities(s string) string {
	if !strings.ContainsRune(s, '&') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		if c != '&' {
			b.WriteByte(c)
			i++
			continue
		}
		semi := strings.IndexByte(s[i:], ';')
		if semi < 0 || semi > 10 {
			b.WriteByte(c)
			i++
			continue
		}
		entity := s[i+1 : i+semi]
		switch entity {
		case "amp":
			b.WriteByte('&')
		case "lt":
			b.WriteByte('<')
		case "gt":
			b.WriteByte('>')
		case "quot":
			b.WriteByte('"')
		case "apos":
			b.WriteByte('\'')
		default:
			r, ok := decodeCharRef(entity)
			if !ok {
				b.WriteByte(c)
				i++
				continue
			}
			b.WriteRune(r)
		}
		i += semi + 1
	}
	return b.String()
}

func decodeCharRef(entity string) (rune, bool) {
	if len(entity) < 2 || entity[0] != '#' {
		return 0, false
	}
	var n int64
	var err error
	if entity[1] == 'x' || entity[1] == 'X' {
		n, err = strconv.ParseInt(entity[2:], 16, 32)
	} else {
		n, err = strconv.ParseInt(entity[1:], 10, 32)
	}
	if err != nil || n < 0 {
		return 0, false
	}
	return rune(n), true
}
