package model

import "fmt"

// Intent is the closed classification of a user request.
type Intent string

const (
	IntentTechSupport Intent = "tech_support"
	IntentSales       Intent = "sales"
	IntentComplaint   Intent = "complaint"
	IntentGeneral     Intent = "general"
)

// ParseIntent converts a raw category string into an Intent.
func ParseIntent(s string) (Intent, error) {
	switch Intent(s) {
	case IntentTechSupport, IntentSales, IntentComplaint, IntentGeneral:
		return Intent(s), nil
	}
	return "", fmt.Errorf("unknown intent %q", s)
}

// Priority is the urgency level of a session.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)
