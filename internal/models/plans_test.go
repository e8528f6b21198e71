package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestSortPlans(t *testing.T) {
	plans := []Plan{
		{ID: "b", Name: "Pro", Amount: 5000},
		{ID: "a", Name: "Free", Amount: 0},
		{ID: "c", Name: "Business", Amount: 20000},
	}
	sorted := SortPlans(plans)
	require.Len(t, sorted, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{sorted[0].ID, sorted[1].ID, sorted[2].ID})
	assert.Equal(t, "b", plans[0].ID, "input must not be reordered")
}

func TestIsCurrentPlan(t *testing.T) {
	free := Plan{ID: "free", Name: "Free", Amount: 0}
	pro := Plan{ID: "pro", Name: "Pro", Amount: 5000}

	tests := []struct {
		name     string
		sub      *UserSubscription
		plan     Plan
		expected bool
	}{
		{"nil subscription", nil, free, false},
		{"plan id match", &UserSubscription{PlanID: strPtr("pro"), Status: "active"}, pro, true},
		{"plan id mismatch", &UserSubscription{PlanID: strPtr("pro"), Status: "active"}, free, false},
		{"no plan id means free tier", &UserSubscription{Status: "pending"}, free, true},
		{"free status", &UserSubscription{PlanID: strPtr("pro"), Status: "free"}, free, true},
		{"free status never matches paid", &UserSubscription{Status: "free"}, pro, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsCurrentPlan(tt.sub, tt.plan))
		})
	}
}

func TestDisplayPriceAndFeatures(t *testing.T) {
	assert.Equal(t, "Free", Plan{Amount: 0}.DisplayPrice())
	assert.Equal(t, "₦5,000", Plan{Amount: 5000}.DisplayPrice())
	assert.Equal(t, "₦1,250.50", Plan{Amount: 1250.5}.DisplayPrice())

	free := Plan{Name: "Free", DailyLimit: 3}.Features()
	assert.Equal(t, "3 AI Scans Daily", free[0])
	assert.Contains(t, free, "Basic Resume Analysis")

	pro := Plan{Name: "Premium", DailyLimit: 50}
	assert.True(t, pro.IsPopular())
	assert.Contains(t, pro.Features(), "Priority Support")

	assert.Contains(t, Plan{Name: "Enterprise", DailyLimit: 1000}.Features(), "1,000 AI Scans Daily")
}
