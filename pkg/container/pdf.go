package container

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// PDF is a minimal object-level model of a PDF file. It exposes the info
// dictionary, per-page annotation arrays, and the embedded-files name tree;
// all other content passes through Save unchanged. Content streams are
// never rewritten.
type PDF struct {
	objects map[int]*pdfObject
	rootRef int
	infoRef int
}

type pdfObject struct {
	num  int
	gen  int
	body []byte
}

var (
	objHeaderRe = regexp.MustCompile(`(\d+)\s+(\d+)\s+obj`)
	refRe       = regexp.MustCompile(`(\d+)\s+\d+\s+R`)
	annotsRe    = regexp.MustCompile(`/Annots\s*(?:\d+\s+\d+\s+R|\[[^\]]*\])`)
	embFilesRe  = regexp.MustCompile(`/EmbeddedFiles\s*(?:\d+\s+\d+\s+R|<<)`)
	nameStrRe   = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)`)
)

// infoKeys are the document information entries the cleaner touches.
var infoKeys = []string{"Title", "Author", "Subject", "Keywords", "Creator", "Producer"}

// OpenPDF parses the object table of a PDF file.
func OpenPDF(data []byte) (*PDF, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, fmt.Errorf("%w: not a PDF", ErrInvalidContainer)
	}

	p := &PDF{objects: make(map[int]*pdfObject)}
	if err := p.scanObjects(data); err != nil {
		return nil, err
	}
	if len(p.objects) == 0 {
		return nil, fmt.Errorf("%w: no objects", ErrInvalidContainer)
	}
	p.resolveTrailer(data)
	if p.rootRef == 0 {
		// No classic trailer; fall back to the catalog object.
		for num, obj := range p.objects {
			if bytes.Contains(obj.body, []byte("/Catalog")) {
				p.rootRef = num
				break
			}
		}
	}
	if p.rootRef == 0 {
		return nil, fmt.Errorf("%w: no document catalog", ErrInvalidContainer)
	}
	return p, nil
}

// scanObjects walks "N G obj ... endobj" spans, skipping over stream data
// so binary content cannot truncate an object body.
func (p *PDF) scanObjects(data []byte) error {
	pos := 0
	for {
		loc := objHeaderRe.FindIndex(data[pos:])
		if loc == nil {
			return nil
		}
		m := objHeaderRe.FindSubmatch(data[pos:][loc[0]:loc[1]])
		num, _ := strconv.Atoi(string(m[1]))
		gen, _ := strconv.Atoi(string(m[2]))

		bodyStart := pos + loc[1]
		end := bodyStart
		for {
			endIdx := bytes.Index(data[end:], []byte("endobj"))
			if endIdx < 0 {
				return fmt.Errorf("%w: unterminated object %d", ErrInvalidContainer, num)
			}
			streamIdx := bytes.Index(data[end:end+endIdx], []byte("stream"))
			if streamIdx < 0 {
				end += endIdx
				break
			}
			// Jump past the stream payload before looking for endobj again.
			esIdx := bytes.Index(data[end+streamIdx:], []byte("endstream"))
			if esIdx < 0 {
				return fmt.Errorf("%w: unterminated stream in object %d", ErrInvalidContainer, num)
			}
			end += streamIdx + esIdx + len("endstream")
		}

		p.objects[num] = &pdfObject{num: num, gen: gen, body: data[bodyStart:end]}
		pos = end + len("endobj")
	}
}

// resolveTrailer extracts /Root and /Info references from the last trailer.
func (p *PDF) resolveTrailer(data []byte) {
	idx := bytes.LastIndex(data, []byte("trailer"))
	if idx < 0 {
		return
	}
	section := data[idx:]
	if end := bytes.Index(section, []byte("startxref")); end > 0 {
		section = section[:end]
	}
	p.rootRef = refAfterKey(section, "/Root")
	p.infoRef = refAfterKey(section, "/Info")
}

func refAfterKey(data []byte, key string) int {
	idx := bytes.Index(data, []byte(key))
	if idx < 0 {
		return 0
	}
	m := refRe.FindSubmatch(data[idx:])
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(string(m[1]))
	return n
}

// Info returns the document information entries that are present and
// non-empty, keyed by their PDF names plus CreationDate/ModDate.
func (p *PDF) Info() map[string]string {
	out := make(map[string]string)
	obj := p.infoObject()
	if obj == nil {
		return out
	}
	for _, key := range append(append([]string{}, infoKeys...), "CreationDate", "ModDate") {
		if v := dictString(obj.body, key); v != "" {
			out[key] = v
		}
	}
	return out
}

func (p *PDF) infoObject() *pdfObject {
	if p.infoRef == 0 {
		return nil
	}
	return p.objects[p.infoRef]
}

// dictString reads the literal-string value following /Key.
func dictString(body []byte, key string) string {
	idx := bytes.Index(body, []byte("/"+key))
	if idx < 0 {
		return ""
	}
	rest := body[idx+len(key)+1:]
	m := nameStrRe.FindSubmatch(rest)
	if m == nil {
		return ""
	}
	return unescapePDFString(string(m[1]))
}

func unescapePDFString(s string) string {
	var b bytes.Buffer
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// ClearInfo blanks the string info entries and the creation date, and sets
// the modification date to now. Returns the number of entries cleared.
func (p *PDF) ClearInfo(now time.Time) int {
	obj := p.infoObject()
	if obj == nil {
		return 0
	}
	cleared := 0
	for _, key := range append(append([]string{}, infoKeys...), "CreationDate") {
		if dictString(obj.body, key) == "" {
			continue
		}
		obj.body = setDictString(obj.body, key, "")
		cleared++
	}
	modDate := now.UTC().Format("D:20060102150405Z")
	if dictString(obj.body, "ModDate") != "" {
		obj.body = setDictString(obj.body, "ModDate", modDate)
	}
	return cleared
}

func setDictString(body []byte, key, value string) []byte {
	idx := bytes.Index(body, []byte("/"+key))
	if idx < 0 {
		return body
	}
	rest := body[idx+len(key)+1:]
	loc := nameStrRe.FindIndex(rest)
	if loc == nil {
		return body
	}
	var out bytes.Buffer
	out.Write(body[:idx+len(key)+1+loc[0]])
	out.WriteString("(" + value + ")")
	out.Write(rest[loc[1]:])
	return out.Bytes()
}

// pageObjects returns page dictionaries in object-number order.
func (p *PDF) pageObjects() []*pdfObject {
	var pages []*pdfObject
	for _, obj := range p.objects {
		if bytes.Contains(obj.body, []byte("/Page")) &&
			!bytes.Contains(obj.body, []byte("/Pages")) &&
			bytes.Contains(obj.body, []byte("/Type")) {
			pages = append(pages, obj)
		}
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].num < pages[j].num })
	return pages
}

// PageCount returns the number of page objects.
func (p *PDF) PageCount() int {
	return len(p.pageObjects())
}

// AnnotCount returns the total number of annotation references across pages.
func (p *PDF) AnnotCount() int {
	total := 0
	for _, page := range p.pageObjects() {
		m := annotsRe.Find(page.body)
		if m == nil {
			continue
		}
		if bytes.Contains(m, []byte("[")) {
			total += len(refRe.FindAll(m, -1))
			continue
		}
		// Indirect array
		if ref := refAfterKey(m, "/Annots"); ref != 0 {
			if arr := p.objects[ref]; arr != nil {
				total += len(refRe.FindAll(arr.body, -1))
			}
		}
	}
	return total
}

// ClearAnnots empties every page's /Annots entry. Returns the number of
// pages whose annotation array was replaced.
func (p *PDF) ClearAnnots() int {
	cleared := 0
	for _, page := range p.pageObjects() {
		if !annotsRe.Match(page.body) {
			continue
		}
		page.body = annotsRe.ReplaceAll(page.body, []byte("/Annots []"))
		cleared++
	}
	return cleared
}

// EmbeddedFileNames returns the display names in the EmbeddedFiles name tree.
func (p *PDF) EmbeddedFileNames() []string {
	var names []string
	for _, obj := range p.objects {
		idx := bytes.Index(obj.body, []byte("/EmbeddedFiles"))
		if idx < 0 {
			continue
		}
		tree := obj.body[idx:]
		if ref := refAfterKey(tree, "/EmbeddedFiles"); ref != 0 {
			if t := p.objects[ref]; t != nil {
				tree = t.body
			}
		}
		for _, m := range nameStrRe.FindAllSubmatch(tree, -1) {
			names = append(names, unescapePDFString(string(m[1])))
		}
		break
	}
	return names
}

// ClearEmbeddedFiles empties the EmbeddedFiles name tree. Returns the number
// of attachment names removed.
func (p *PDF) ClearEmbeddedFiles() int {
	removed := len(p.EmbeddedFileNames())
	if removed == 0 {
		return 0
	}
	for _, obj := range p.objects {
		loc := embFilesRe.FindIndex(obj.body)
		if loc == nil {
			continue
		}
		span := embFilesEntryLen(obj.body[loc[0]:])
		if ref := refAfterKey(obj.body[loc[0]:loc[0]+span], "/EmbeddedFiles"); ref != 0 {
			if t := p.objects[ref]; t != nil {
				t.body = []byte(" << /Names [] >> ")
			}
		}
		var out bytes.Buffer
		out.Write(obj.body[:loc[0]])
		out.WriteString("/EmbeddedFiles << /Names [] >>")
		out.Write(obj.body[loc[0]+span:])
		obj.body = out.Bytes()
		break
	}
	return removed
}

// embFilesEntryLen measures the original "/EmbeddedFiles <value>" span so the
// rewrite can splice it out. Indirect references span to the R token; inline
// dictionaries span to the matching >>.
func embFilesEntryLen(tail []byte) int {
	m := embFilesRe.Find(tail)
	if m == nil {
		return len("/EmbeddedFiles")
	}
	if !bytes.HasSuffix(m, []byte("<<")) {
		return len(m)
	}
	depth := 0
	for i := len(m) - 2; i < len(tail)-1; i++ {
		if tail[i] == '<' && tail[i+1] == '<' {
			depth++
			i++
		} else if tail[i] == '>' && tail[i+1] == '>' {
			depth--
			i++
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(m)
}

// Save rewrites the PDF with a regenerated cross-reference table.
func (p *PDF) Save() ([]byte, error) {
	nums := make([]int, 0, len(p.objects))
	maxNum := 0
	for num := range p.objects {
		nums = append(nums, num)
		if num > maxNum {
			maxNum = num
		}
	}
	sort.Ints(nums)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")

	offsets := make(map[int]int, len(nums))
	for _, num := range nums {
		obj := p.objects[num]
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d %d obj", num, obj.gen)
		buf.Write(obj.body)
		buf.WriteString("endobj\n")
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", maxNum+1)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num <= maxNum; num++ {
		if off, ok := offsets[num]; ok {
			fmt.Fprintf(&buf, "%010d 00000 n \n", off)
		} else {
			buf.WriteString("0000000000 65535 f \n")
		}
	}

	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R", maxNum+1, p.rootRef)
	if p.infoRef != 0 {
		fmt.Fprintf(&buf, " /Info %d 0 R", p.infoRef)
	}
	fmt.Fprintf(&buf, " >>\nstartxref\n%d\n%%%%EOF\n", xrefStart)
	return buf.Bytes(), nil
}
