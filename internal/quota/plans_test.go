package quota

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"codeberg.org/thecookflow/server/cookflow/entitlements"
)

func TestForPlan_Free(t *testing.T) {
	q := ForPlan(entitlements.PlanFree)

	assert.Equal(t, 1, q.DailyMenuLimit)
	assert.Equal(t, 0, q.WeeklyMenuLimit)
	assert.Equal(t, 2, q.MaxServings)
	assert.Equal(t, 5, q.MaxDays)
	assert.Equal(t, 3, q.MealsPerDay)
	assert.Equal(t, 2, q.AdUnlocksPerDay)
}

func TestForPlan_Trial(t *testing.T) {
	q := ForPlan(entitlements.PlanTrial)

	assert.Equal(t, Unlimited, q.DailyMenuLimit)
	assert.Equal(t, 0, q.WeeklyMenuLimit)
	assert.Equal(t, 10, q.MaxServings)
	assert.Equal(t, 7, q.MaxDays)
	assert.Equal(t, 5, q.MealsPerDay)
	assert.Equal(t, 0, q.AdUnlocksPerDay, "trial users should not need ad unlocks")
}

func TestForPlan_Pro(t *testing.T) {
	q := ForPlan(entitlements.PlanPro)

	assert.Equal(t, Unlimited, q.DailyMenuLimit)
	assert.Equal(t, 5, q.WeeklyMenuLimit)
	assert.Equal(t, 10, q.MaxServings)
	assert.Equal(t, 7, q.MaxDays)
	assert.Equal(t, 5, q.MealsPerDay)
	assert.Equal(t, 0, q.AdUnlocksPerDay)
}

func TestForPlan_UnknownFallsBackToFree(t *testing.T) {
	q := ForPlan(entitlements.Plan("platinum"))

	assert.Equal(t, ForPlan(entitlements.PlanFree), q, "unknown plans must not widen access")
}
