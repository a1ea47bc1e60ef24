package detector

import (
	"fmt"
	"strings"

	"github.com/qualion/clean/pkg/container"
	"github.com/qualion/clean/pkg/extract"
	"github.com/qualion/clean/pkg/models"
	"github.com/qualion/clean/pkg/sensitive"
)

// SensitiveDataDetector runs the pattern library over the text projection.
// Confidentiality markers land in complianceRisks; everything else in
// sensitiveData. Critical financial values are never reported unmasked.
type SensitiveDataDetector struct{}

func (d *SensitiveDataDetector) Name() string { return "sensitiveData" }

func (d *SensitiveDataDetector) Detect(_ *container.Document, proj *extract.Projection) ([]models.Finding, error) {
	var findings []models.Finding
	for _, m := range sensitive.Scan(proj.Raw) {
		category := models.CategorySensitiveData
		if m.Type == "confidential_keyword" {
			category = models.CategoryComplianceRisks
		}

		value := m.Value
		context := m.Context
		if m.Severity == models.SeverityCritical {
			value = m.Masked
			context = strings.ReplaceAll(context, m.Value, m.Masked)
		}

		f := newFinding(category, m.Type, m.Severity,
			fmt.Sprintf("text@%d", m.Start), value)
		f.Context = context
		f.GDPRRelevant = m.GDPRRelevant
		f.Evidence = m.Masked
		findings = append(findings, f)
	}
	return findings, nil
}
