package models

// Severity represents how urgent a finding is to remediate before sharing.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Weight returns a numeric weight for ordering findings.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// RiskLevel classifies a technical risk score.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "safe"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskLevelForScore maps a 0-100 score to its ordinal level.
func RiskLevelForScore(score int) RiskLevel {
	switch {
	case score >= 90:
		return RiskSafe
	case score >= 70:
		return RiskLow
	case score >= 50:
		return RiskMedium
	case score >= 25:
		return RiskHigh
	default:
		return RiskCritical
	}
}
