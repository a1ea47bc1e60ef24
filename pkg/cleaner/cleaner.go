// Package cleaner removes risk artifacts from documents. Removal is
// selective per the caller's options, best-effort per part, and always
// rewrites the container from the in-memory part table so the output
// is either complete or absent.
package cleaner

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/qualion/clean/pkg/container"
	"github.com/qualion/clean/pkg/models"
)

// Draw policies for embedded drawings and ink annotations.
const (
	DrawNone = "none"
	DrawAuto = "auto"
	DrawAll  = "all"
)

// PDF cleaning modes. Sanitize clears the selected artifact classes;
// text-only additionally forces metadata, annotations and attachments
// off so only the content streams survive.
const (
	PDFModeSanitize = "sanitize"
	PDFModeTextOnly = "text-only"
)

// Options selects which remediations run. RedactValues carries the
// literal sensitive strings the caller approved for redaction; the
// pipeline resolves finding ids to values before calling Clean.
// HiddenContentParts narrows hidden-content removal to the listed
// parts (empty means every part); VisualObjectParts lists the parts
// whose masking shapes should be stripped (empty means none).
type Options struct {
	RemoveMetadata        bool
	RemoveComments        bool
	AcceptTrackChanges    bool
	RemoveHiddenContent   bool
	RemoveEmbeddedObjects bool
	RemoveMacros          bool
	FormulasToValues      bool
	DrawPolicy            string
	PDFMode               string
	RedactValues          []string
	HiddenContentParts    []string
	VisualObjectParts     []string
}

const redactionPlaceholder = "[REDACTED]"

const maxRedactionExamples = 5

// Cleaner applies per-format removals and records counts for scoring.
type Cleaner struct {
	log *zap.Logger
	now func() time.Time
}

func New(log *zap.Logger) *Cleaner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cleaner{log: log, now: time.Now}
}

// Clean runs the selected remediations against the document in place.
// Per-part failures are logged and skipped; only an unsupported format
// is an error.
func (c *Cleaner) Clean(doc *container.Document, opts Options) (models.CleaningStats, error) {
	var stats models.CleaningStats
	if opts.DrawPolicy == "" {
		opts.DrawPolicy = DrawNone
	}

	switch doc.Format {
	case models.FormatDOCX:
		c.cleanDOCX(doc.Archive, opts, &stats)
	case models.FormatPPTX:
		c.cleanPPTX(doc.Archive, opts, &stats)
	case models.FormatXLSX:
		c.cleanXLSX(doc.Archive, opts, &stats)
	case models.FormatPDF:
		c.cleanPDF(doc.PDF, opts, &stats)
	default:
		return stats, fmt.Errorf("%w: %s", container.ErrUnsupportedFormat, doc.Format)
	}
	return stats, nil
}

// removePartAndRefs drops a part and every reference to it: the
// [Content_Types].xml override and any relationship entry whose target
// resolves to the part. Relationship files must point only at existing
// parts after cleaning.
func (c *Cleaner) removePartAndRefs(ar *container.Archive, part string) bool {
	if !ar.HasPart(part) {
		return false
	}
	ar.RemovePart(part)
	stripContentTypesOverride(ar, part)
	stripRelationshipsTo(ar, part)
	return true
}

func stripContentTypesOverride(ar *container.Archive, part string) {
	data, err := ar.ReadPart("[Content_Types].xml")
	if err != nil {
		return
	}
	re := regexp.MustCompile(`<Override[^>]*PartName="/` + regexp.QuoteMeta(part) + `"[^>]*/>`)
	cleaned := re.ReplaceAll(data, nil)
	if len(cleaned) != len(data) {
		ar.WritePart("[Content_Types].xml", cleaned)
	}
}

var relEntryRe = regexp.MustCompile(`<Relationship\s[^>]*/>|<Relationship\s[^>]*></Relationship>`)

var relTargetRe = regexp.MustCompile(`Target="([^"]*)"`)

// stripRelationshipsTo removes relationship entries targeting the given
// part from every .rels file, resolving targets relative to the rels
// file's owner directory.
func stripRelationshipsTo(ar *container.Archive, part string) {
	for _, rels := range ar.PartNames() {
		if !strings.HasSuffix(rels, ".rels") {
			continue
		}
		data, err := ar.ReadPart(rels)
		if err != nil {
			continue
		}
		baseDir := relsOwnerDir(rels)
		cleaned := relEntryRe.ReplaceAllFunc(data, func(entry []byte) []byte {
			m := relTargetRe.FindSubmatch(entry)
			if m == nil {
				return entry
			}
			if resolveTarget(baseDir, string(m[1])) == part {
				return nil
			}
			return entry
		})
		if len(cleaned) != len(data) {
			ar.WritePart(rels, cleaned)
		}
	}
}

// relsOwnerDir maps "word/_rels/document.xml.rels" to "word" and the
// package-level "_rels/.rels" to "".
func relsOwnerDir(rels string) string {
	i := strings.Index(rels, "_rels/")
	if i <= 0 {
		return ""
	}
	return strings.TrimSuffix(rels[:i], "/")
}

func resolveTarget(baseDir, target string) string {
	target = strings.TrimPrefix(target, "/")
	for strings.HasPrefix(target, "../") {
		target = target[3:]
		if j := strings.LastIndex(baseDir, "/"); j >= 0 {
			baseDir = baseDir[:j]
		} else {
			baseDir = ""
		}
	}
	if baseDir == "" {
		return target
	}
	return baseDir + "/" + target
}

// rewritePart applies fn to a part's XML and writes it back when it
// changed. Returns false when the part is absent.
func (c *Cleaner) rewritePart(ar *container.Archive, part string, fn func(string) string) bool {
	data, err := ar.ReadPart(part)
	if err != nil {
		return false
	}
	out := fn(string(data))
	if out != string(data) {
		ar.WritePart(part, []byte(out))
	}
	return true
}

// clearElement empties the body of every occurrence of an XML element,
// keeping the tags. Returns the new XML and how many bodies were
// non-empty.
func clearElement(xml, name string) (string, int) {
	re := regexp.MustCompile(`(?s)(<` + regexp.QuoteMeta(name) + `(?:\s[^>]*)?>)(.*?)(</` + regexp.QuoteMeta(name) + `>)`)
	cleared := 0
	out := re.ReplaceAllStringFunc(xml, func(m string) string {
		sub := re.FindStringSubmatch(m)
		if strings.TrimSpace(sub[2]) != "" {
			cleared++
		}
		return sub[1] + sub[3]
	})
	return out, cleared
}

// redactTextNodes replaces each approved value with the redaction
// placeholder inside the bodies of the given text element, across all
// listed parts. The match is exact and applies to XML-escaped bodies
// too.
func (c *Cleaner) redactTextNodes(ar *container.Archive, parts []string, tag string, opts Options, stats *models.CleaningStats) {
	if len(opts.RedactValues) == 0 {
		return
	}
	bodyRe := regexp.MustCompile(`(?s)(<` + tag + `(?:\s[^>]*)?>)(.*?)(</` + tag + `>)`)
	for _, part := range parts {
		c.rewritePart(ar, part, func(xml string) string {
			return bodyRe.ReplaceAllStringFunc(xml, func(m string) string {
				sub := bodyRe.FindStringSubmatch(m)
				body := sub[2]
				for _, value := range opts.RedactValues {
					for _, needle := range []string{value, escapeXMLText(value)} {
						if needle == "" || !strings.Contains(body, needle) {
							continue
						}
						n := strings.Count(body, needle)
						body = strings.ReplaceAll(body, needle, redactionPlaceholder)
						stats.SensitiveRedacted += n
						if len(stats.RedactionExamples) < maxRedactionExamples {
							stats.RedactionExamples = append(stats.RedactionExamples, models.ChangeExample{
								Before: clipExample(value),
								After:  redactionPlaceholder,
							})
						}
						break
					}
				}
				return sub[1] + body + sub[3]
			})
		})
	}
}

var xmlTextEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeXMLText(s string) string {
	return xmlTextEscaper.Replace(s)
}

func clipExample(s string) string {
	const maxLen = 60
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// selectParts narrows parts to the caller's selection. An empty
// selection keeps every part.
func selectParts(parts, selection []string) []string {
	if len(selection) == 0 {
		return parts
	}
	want := make(map[string]bool, len(selection))
	for _, s := range selection {
		want[s] = true
	}
	var out []string
	for _, p := range parts {
		if want[p] {
			out = append(out, p)
		}
	}
	return out
}

// cleanPDF clears the info dictionary, annotations and attachments.
// PDF content streams are passed through untouched.
func (c *Cleaner) cleanPDF(pdf *container.PDF, opts Options, stats *models.CleaningStats) {
	if pdf == nil {
		return
	}
	if opts.PDFMode == PDFModeTextOnly {
		opts.RemoveMetadata = true
		opts.RemoveComments = true
		opts.RemoveEmbeddedObjects = true
	}
	if opts.RemoveMetadata {
		stats.InfoEntriesCleared = pdf.ClearInfo(c.now())
		stats.MetadataRemoved = stats.InfoEntriesCleared
	}
	if opts.RemoveComments {
		stats.AnnotationsCleared = pdf.ClearAnnots()
		stats.CommentsRemoved = stats.AnnotationsCleared
	}
	if opts.RemoveEmbeddedObjects {
		stats.AttachmentsRemoved = pdf.ClearEmbeddedFiles()
		stats.EmbeddedRemoved = stats.AttachmentsRemoved
	}
}
