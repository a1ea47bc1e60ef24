// Package detector runs the fixed set of risk detectors against a document
// and its text projection. Detectors are pure and independent; the framework
// executes them concurrently, recovers per-detector failures to empty
// results, deduplicates findings and orders them for presentation.
package detector

import (
	"github.com/qualion/clean/internal/docproc"
	"github.com/qualion/clean/pkg/container"
	"github.com/qualion/clean/pkg/extract"
	"github.com/qualion/clean/pkg/models"
	"go.uber.org/zap"
)

// Detector inspects one concern of a document.
type Detector interface {
	Name() string
	Detect(doc *container.Document, proj *extract.Projection) ([]models.Finding, error)
}

// ForFormat returns the detector set for a container format. The list is
// fixed at program start; detectors skip parts their format does not carry.
func ForFormat(format models.Format) []Detector {
	switch format {
	case models.FormatDOCX:
		return []Detector{
			&MetadataDetector{}, &CommentsDetector{}, &TrackChangesDetector{},
			&HiddenContentDetector{}, &EmbeddedObjectsDetector{}, &MacrosDetector{},
			&VisualObjectsDetector{}, &OrphanDataDetector{}, &SensitiveDataDetector{},
		}
	case models.FormatPPTX:
		return []Detector{
			&MetadataDetector{}, &CommentsDetector{}, &HiddenContentDetector{},
			&EmbeddedObjectsDetector{}, &MacrosDetector{}, &VisualObjectsDetector{},
			&OrphanDataDetector{}, &SensitiveDataDetector{},
		}
	case models.FormatXLSX:
		return []Detector{
			&MetadataDetector{}, &CommentsDetector{}, &ExcelHiddenDetector{},
			&FormulasDetector{}, &EmbeddedObjectsDetector{}, &MacrosDetector{},
			&OrphanDataDetector{}, &SensitiveDataDetector{},
		}
	case models.FormatPDF:
		return []Detector{
			&MetadataDetector{}, &PDFStructureDetector{}, &SensitiveDataDetector{},
		}
	default:
		return nil
	}
}

// Run executes all detectors for the document's format in parallel and
// returns deduplicated findings ordered by severity descending then
// location. A detector error yields empty results for that detector; the
// run itself never fails.
func Run(doc *container.Document, proj *extract.Projection, log *zap.SugaredLogger) []models.Finding {
	detectors := ForFormat(doc.Format)

	batches := docproc.Map(detectors, len(detectors),
		func(d Detector) string { return d.Name() },
		func(d Detector) ([]models.Finding, error) {
			return d.Detect(doc, proj)
		},
		func(name string, err error) {
			if log != nil {
				log.Warnw("detector failed, skipping", "detector", name, "error", err)
			}
		})

	var all []models.Finding
	for _, batch := range batches {
		all = append(all, batch...)
	}
	all = dedupe(all)
	models.SortFindings(all)
	return all
}

// dedupe drops findings sharing a (category, location, value) tuple.
func dedupe(findings []models.Finding) []models.Finding {
	seen := make(map[string]bool, len(findings))
	out := findings[:0]
	for _, f := range findings {
		key := f.DedupeKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}

// newFinding builds a finding with its stable identifier.
func newFinding(category models.Category, typ string, severity models.Severity, location, value string) models.Finding {
	return models.Finding{
		ID:       models.FindingID(category, location, value),
		Category: category,
		Type:     typ,
		Severity: severity,
		Location: location,
		Value:    value,
	}
}
