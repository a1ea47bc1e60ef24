package models

// BusinessCategory is one of the five business-risk dimensions.
type BusinessCategory string

const (
	BusinessMargin      BusinessCategory = "margin"
	BusinessDelivery    BusinessCategory = "delivery"
	BusinessNegotiation BusinessCategory = "negotiation"
	BusinessCompliance  BusinessCategory = "compliance"
	BusinessCredibility BusinessCategory = "credibility"
)

// BusinessCategories lists the categories in scoring order.
var BusinessCategories = []BusinessCategory{
	BusinessMargin, BusinessDelivery, BusinessNegotiation,
	BusinessCompliance, BusinessCredibility,
}

// BusinessLevel is the ordinal risk level for a business category.
type BusinessLevel string

const (
	LevelNone     BusinessLevel = "None"
	LevelLow      BusinessLevel = "Low"
	LevelMedium   BusinessLevel = "Medium"
	LevelHigh     BusinessLevel = "High"
	LevelCritical BusinessLevel = "Critical"
)

// Score maps a level to its numeric contribution.
func (l BusinessLevel) Score() int {
	switch l {
	case LevelNone:
		return 100
	case LevelLow:
		return 85
	case LevelMedium:
		return 60
	case LevelHigh:
		return 25
	case LevelCritical:
		return 0
	default:
		return 100
	}
}

// Rank returns an ordinal for comparing levels.
func (l BusinessLevel) Rank() int {
	switch l {
	case LevelCritical:
		return 4
	case LevelHigh:
		return 3
	case LevelMedium:
		return 2
	case LevelLow:
		return 1
	default:
		return 0
	}
}

// MaxLevel returns the higher of two levels.
func MaxLevel(a, b BusinessLevel) BusinessLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// BusinessFlag is a deterministic-rule classification; no LLM involvement.
type BusinessFlag struct {
	ID       string           `json:"id"`
	Category BusinessCategory `json:"category"`
	Level    BusinessLevel    `json:"level"`
	RuleID   string           `json:"ruleId"`
	Reason   string           `json:"reason"`
	Location string           `json:"location"`
	Evidence string           `json:"evidence,omitempty"`
}

// BusinessRisk is the aggregated business-risk judgement for a document.
type BusinessRisk struct {
	Flags       []BusinessFlag                     `json:"flags"`
	Levels      map[BusinessCategory]BusinessLevel `json:"levels"`
	Score       int                                `json:"businessRiskScore"`
	ClientReady string                             `json:"clientReady"` // YES or NO
}
