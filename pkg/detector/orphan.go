package detector

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"

	"github.com/qualion/clean/pkg/container"
	"github.com/qualion/clean/pkg/extract"
	"github.com/qualion/clean/pkg/models"
)

var (
	localTargetRe  = regexp.MustCompile(`(?i)^file:|^[a-z]:\\|^\\\\`)
	sharepointRe   = regexp.MustCompile(`(?i)sharepoint\.com|/sites/`)
	whitespaceRuns = regexp.MustCompile(`\s{3,}`)
)

// OrphanDataDetector reports leftovers that point at nothing useful:
// links into someone's filesystem or SharePoint, near-empty slides, and
// whitespace craters left by deleted content.
type OrphanDataDetector struct{}

func (d *OrphanDataDetector) Name() string { return "orphanData" }

func (d *OrphanDataDetector) Detect(doc *container.Document, proj *extract.Projection) ([]models.Finding, error) {
	var findings []models.Finding
	if doc.Archive != nil {
		findings = append(findings, d.detectLinks(doc.Archive)...)
	}
	if doc.Format == models.FormatPPTX {
		findings = append(findings, d.detectEmptySlides(doc.Archive)...)
	}

	if runs := whitespaceRuns.FindAllString(proj.Raw, -1); len(runs) >= 5 {
		findings = append(findings, newFinding(models.CategoryOrphanData, "whitespace_gaps",
			models.SeverityLow, "text", fmt.Sprintf("%d large whitespace gaps", len(runs))))
	}
	return findings, nil
}

func (d *OrphanDataDetector) detectLinks(ar *container.Archive) []models.Finding {
	var findings []models.Finding
	for _, part := range ar.PartNames() {
		if !strings.Contains(part, "_rels/") || !strings.HasSuffix(part, ".rels") {
			continue
		}
		data, err := ar.ReadPart(part)
		if err != nil {
			continue
		}
		for _, target := range relationshipTargets(data) {
			switch {
			case localTargetRe.MatchString(target):
				findings = append(findings, newFinding(models.CategoryBrokenLinks, "local_file_link",
					models.SeverityMedium, part, target))
			case sharepointRe.MatchString(target):
				findings = append(findings, newFinding(models.CategoryBrokenLinks, "sharepoint_link",
					models.SeverityMedium, part, target))
			}
		}
	}
	return findings
}

func relationshipTargets(data []byte) []string {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var targets []string
	for {
		tok, err := dec.Token()
		if err != nil {
			return targets
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		for _, attr := range se.Attr {
			if attr.Name.Local == "Target" && attr.Value != "" {
				targets = append(targets, attr.Value)
			}
		}
	}
}

func (d *OrphanDataDetector) detectEmptySlides(ar *container.Archive) []models.Finding {
	var findings []models.Finding
	slides := ar.ListParts("ppt/slides/slide*.xml")
	container.SortNumeric(slides)
	for i, part := range slides {
		data, err := ar.ReadPart(part)
		if err != nil {
			continue
		}
		text := strings.TrimSpace(strings.Join(extractElementTexts(data, "t"), ""))
		if len(text) < 10 {
			findings = append(findings, newFinding(models.CategoryOrphanData, "empty_slide",
				models.SeverityLow, part, fmt.Sprintf("slide %d has almost no text", i+1)))
		}
	}
	return findings
}
