package models

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Plan struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
	DailyLimit       int     `json:"daily_limit"`
	PlanCode         string  `json:"plan_code,omitempty"`
	SubscriptionPage string  `json:"subscription_page"`
}

// UserSubscription keeps the backend's exported field names.
type UserSubscription struct {
	ID     string  `json:"ID,omitempty"`
	UserID string  `json:"UserID,omitempty"`
	PlanID *string `json:"PlanID"`
	Status string  `json:"Status"`
}

// FreeSubscription is what callers fall back to when the subscription lookup fails.
func FreeSubscription() UserSubscription {
	return UserSubscription{Status: "free"}
}

type CreatePlanRequest struct {
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	DailyLimit int     `json:"daily_limit"`
}

type PlanPageRequest struct {
	PlanID           string `json:"plan_id"`
	SubscriptionPage string `json:"subscription_page"`
}

// SortPlans orders plans by price, free tier first.
func SortPlans(plans []Plan) []Plan {
	sorted := append([]Plan(nil), plans...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Amount < sorted[j].Amount })
	return sorted
}

// IsCurrentPlan matches a plan by id, or the zero-priced plan for free/unset subscriptions.
// It does not interpret cancelled paid subscriptions; Status is passed through as-is.
func IsCurrentPlan(sub *UserSubscription, plan Plan) bool {
	if sub == nil {
		return false
	}
	if sub.PlanID != nil && *sub.PlanID == plan.ID {
		return true
	}
	return (sub.PlanID == nil || sub.Status == "free") && plan.Amount == 0
}

func (p Plan) IsPopular() bool {
	name := strings.ToLower(p.Name)
	return strings.Contains(name, "pro") || strings.Contains(name, "premium")
}

var pricePrinter = message.NewPrinter(language.English)

// DisplayPrice renders "Free" or the naira amount with thousands separators.
func (p Plan) DisplayPrice() string {
	if p.Amount == 0 {
		return "Free"
	}
	if p.Amount == math.Trunc(p.Amount) {
		return pricePrinter.Sprintf("₦%d", int64(p.Amount))
	}
	return pricePrinter.Sprintf("₦%.2f", p.Amount)
}

func (p Plan) Features() []string {
	scans := pricePrinter.Sprintf("%d AI Scans Daily", p.DailyLimit)
	name := strings.ToLower(p.Name)
	switch {
	case strings.Contains(name, "free"):
		return []string{scans, "Basic Resume Analysis", "Standard Support"}
	case p.IsPopular():
		return []string{scans, "Advanced Job Matching", "Detailed Insights", "Priority Support", "History Access"}
	default:
		return []string{scans, "All Pro Features", "Dedicated Manager", "API Access", "Custom Reports"}
	}
}
