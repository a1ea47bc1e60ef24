package detector

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/qualion/clean/pkg/container"
	"github.com/qualion/clean/pkg/extract"
	"github.com/qualion/clean/pkg/models"
)

// metadataSeverity ranks the leakage value of each recognized property.
// Identity fields expose people and organizations; timestamps expose
// process; the rest is low-grade.
var metadataSeverity = map[string]models.Severity{
	"author":         models.SeverityHigh,
	"lastModifiedBy": models.SeverityHigh,
	"company":        models.SeverityHigh,
	"manager":        models.SeverityHigh,
	"editingTime":    models.SeverityMedium,
	"created":        models.SeverityMedium,
	"modified":       models.SeverityMedium,
	"title":          models.SeverityLow,
	"subject":        models.SeverityLow,
	"keywords":       models.SeverityLow,
	"application":    models.SeverityLow,
}

// coreElementNames maps OOXML docProps element names to property keys.
var coreElementNames = map[string]string{
	"creator":        "author",
	"lastModifiedBy": "lastModifiedBy",
	"title":          "title",
	"subject":        "subject",
	"keywords":       "keywords",
	"created":        "created",
	"modified":       "modified",
	"Company":        "company",
	"Manager":        "manager",
	"Application":    "application",
	"TotalTime":      "editingTime",
}

// pdfInfoNames maps PDF info dictionary keys to property keys.
var pdfInfoNames = map[string]string{
	"Author":       "author",
	"Title":        "title",
	"Subject":      "subject",
	"Keywords":     "keywords",
	"Creator":      "application",
	"Producer":     "application",
	"CreationDate": "created",
	"ModDate":      "modified",
}

// MetadataDetector reports every non-empty recognized document property.
type MetadataDetector struct{}

func (d *MetadataDetector) Name() string { return "metadata" }

func (d *MetadataDetector) Detect(doc *container.Document, _ *extract.Projection) ([]models.Finding, error) {
	if doc.Format == models.FormatPDF {
		return d.detectPDF(doc), nil
	}
	var findings []models.Finding
	for _, part := range []string{"docProps/core.xml", "docProps/app.xml"} {
		data, err := doc.Archive.ReadPart(part)
		if err != nil {
			continue
		}
		props, err := parseProps(data)
		if err != nil {
			return findings, fmt.Errorf("%w: %s: %v", container.ErrPartParse, part, err)
		}
		for key, value := range props {
			findings = append(findings, metadataFinding(key, value, part))
		}
	}
	findings = append(findings, d.detectCustom(doc)...)
	return findings, nil
}

func (d *MetadataDetector) detectPDF(doc *container.Document) []models.Finding {
	var findings []models.Finding
	for pdfKey, key := range pdfInfoNames {
		value := doc.PDF.Info()[pdfKey]
		if strings.TrimSpace(value) == "" {
			continue
		}
		findings = append(findings, metadataFinding(key, value, "info:"+pdfKey))
	}
	return findings
}

// detectCustom emits one finding per custom document property.
func (d *MetadataDetector) detectCustom(doc *container.Document) []models.Finding {
	data, err := doc.Archive.ReadPart("docProps/custom.xml")
	if err != nil {
		return nil
	}
	var findings []models.Finding
	dec := xml.NewDecoder(bytes.NewReader(data))
	var propName string
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "property" {
				for _, attr := range t.Attr {
					if attr.Name.Local == "name" {
						propName = attr.Value
					}
				}
			}
		case xml.CharData:
			value := strings.TrimSpace(string(t))
			if propName != "" && value != "" {
				f := newFinding(models.CategoryMetadata, "customProperty", models.SeverityLow,
					"docProps/custom.xml:"+propName, value)
				findings = append(findings, f)
				propName = ""
			}
		}
	}
	return findings
}

func metadataFinding(key, value, location string) models.Finding {
	severity, ok := metadataSeverity[key]
	if !ok {
		severity = models.SeverityLow
	}
	return newFinding(models.CategoryMetadata, key, severity, location, value)
}

// parseProps flattens a docProps part into recognized key/value pairs.
func parseProps(data []byte) (map[string]string, error) {
	props := make(map[string]string)
	dec := xml.NewDecoder(bytes.NewReader(data))
	var current string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if key, ok := coreElementNames[t.Name.Local]; ok {
				current = key
			} else {
				current = ""
			}
		case xml.CharData:
			if current != "" {
				if value := strings.TrimSpace(string(t)); value != "" {
					props[current] = value
				}
			}
		case xml.EndElement:
			current = ""
		}
	}
	return props, nil
}
