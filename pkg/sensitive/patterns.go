// Package sensitive matches PII, financial and confidentiality tokens in
// document text. The rule table is fixed and compiled once at program start;
// matches carry a 50-character context window and a masked rendering so raw
// secrets never reach the report for critical types.
package sensitive

import (
	"regexp"

	"github.com/qualion/clean/pkg/models"
)

// Rule is one entry of the closed pattern set.
type Rule struct {
	Type         string
	Pattern      *regexp.Regexp
	Validate     func(string) bool
	Mask         func(string) string
	Severity     models.Severity
	GDPRRelevant bool
}

// Rules is the fixed pattern table, ordered by specificity: structured
// financial identifiers first so a card number is not half-claimed by the
// phone rule.
var Rules = []Rule{
	{
		Type:         "iban",
		Pattern:      regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{4}\d{7,18}\b`),
		Validate:     validIBAN,
		Mask:         maskIBAN,
		Severity:     models.SeverityCritical,
		GDPRRelevant: false,
	},
	{
		Type:         "credit_card",
		Pattern:      regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`),
		Validate:     validLuhn,
		Mask:         maskCard,
		Severity:     models.SeverityCritical,
		GDPRRelevant: true,
	},
	{
		Type:         "ssn",
		Pattern:      regexp.MustCompile(`\b[12]\d{12}\b`),
		Validate:     validFrenchSSN,
		Mask:         maskGeneric,
		Severity:     models.SeverityCritical,
		GDPRRelevant: true,
	},
	{
		Type:         "email",
		Pattern:      regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`),
		Mask:         maskEmail,
		Severity:     models.SeverityMedium,
		GDPRRelevant: true,
	},
	{
		Type:         "internal_url",
		Pattern:      regexp.MustCompile(`\bhttps?://(?:[a-z0-9\-]+\.)*(?:intranet|internal|dev|staging|local|localhost)(?:\.[a-z0-9\-.]+)?(?::\d+)?(?:/\S*)?|\bhttps?://(?:10\.\d{1,3}\.\d{1,3}\.\d{1,3}|172\.(?:1[6-9]|2\d|3[01])\.\d{1,3}\.\d{1,3}|192\.168\.\d{1,3}\.\d{1,3})(?::\d+)?(?:/\S*)?`),
		Mask:         maskGeneric,
		Severity:     models.SeverityHigh,
		GDPRRelevant: false,
	},
	{
		Type:         "file_path",
		Pattern:      regexp.MustCompile(`(?:[A-Za-z]:\\|\\\\)[\w\-. $]+(?:\\[\w\-. $]+)+|/(?:home|Users|usr|etc|var|opt|srv)/[\w\-./]+`),
		Mask:         maskGeneric,
		Severity:     models.SeverityHigh,
		GDPRRelevant: false,
	},
	{
		Type:         "ip_address",
		Pattern:      regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`),
		Validate:     validIP,
		Mask:         maskGeneric,
		Severity:     models.SeverityMedium,
		GDPRRelevant: false,
	},
	{
		Type:         "phone",
		Pattern:      regexp.MustCompile(`(?:\+\d{1,3}[ .\-]?)?(?:\(\d{1,4}\)[ .\-]?)?\d{2,4}(?:[ .\-]?\d{2,4}){2,4}`),
		Validate:     validPhone,
		Mask:         maskPhone,
		Severity:     models.SeverityMedium,
		GDPRRelevant: true,
	},
	{
		Type:         "price",
		Pattern:      regexp.MustCompile(`(?:[$€£]\s?\d{1,3}(?:[ ,.]\d{3})+(?:[.,]\d{2})?|[$€£]\s?\d{4,}(?:[.,]\d{2})?|\d{1,3}(?:[ ,.]\d{3})+(?:[.,]\d{2})?\s?(?:EUR|USD|GBP|CHF)|\d{4,}(?:[.,]\d{2})?\s?(?:EUR|USD|GBP|CHF))`),
		Mask:         maskGeneric,
		Severity:     models.SeverityMedium,
		GDPRRelevant: false,
	},
	{
		Type:         "project_code",
		Pattern:      regexp.MustCompile(`\b[A-Z]{2,5}-\d{2,6}\b`),
		Mask:         maskGeneric,
		Severity:     models.SeverityMedium,
		GDPRRelevant: false,
	},
	{
		Type:         "confidential_keyword",
		Pattern:      regexp.MustCompile(`(?i)\b(strictly\s+confidential|confidential|do\s+not\s+(?:distribute|share|forward)|internal\s+(?:use\s+)?only|not\s+for\s+distribution|vertraulich|streng\s+vertraulich|nur\s+für\s+den\s+internen\s+gebrauch|confidentiel|diffusion\s+restreinte|usage\s+interne|riservato|confidencial|uso\s+interno)\b`),
		Mask:         maskGeneric,
		Severity:     models.SeverityHigh,
		GDPRRelevant: false,
	},
}
