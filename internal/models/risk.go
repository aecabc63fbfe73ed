package models

import "strings"

// RiskLevel classifies how dangerous an upgrade finding is
type RiskLevel string

const (
	RiskNone    RiskLevel = ""
	RiskSlight  RiskLevel = "slight"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskExtreme RiskLevel = "extreme"
)

var riskRanks = map[RiskLevel]int{
	RiskSlight:  1,
	RiskMedium:  2,
	RiskHigh:    3,
	RiskExtreme: 4,
}

// ParseRiskLevel normalizes a risk level string. Unknown levels are kept
// as-is and rank below slight.
func ParseRiskLevel(s string) RiskLevel {
	return RiskLevel(strings.ToLower(strings.TrimSpace(s)))
}

// Rank returns the ordering weight of the level, 0 for unknown
func (r RiskLevel) Rank() int {
	return riskRanks[r]
}

// Higher returns whichever of r and other ranks higher
func (r RiskLevel) Higher(other RiskLevel) RiskLevel {
	if other.Rank() > r.Rank() {
		return other
	}
	return r
}

// Risk is a risk statement attached to a test result
type Risk struct {
	Level   RiskLevel `json:"level" cbor:"level"`
	Message string    `json:"message" cbor:"message"`
}
