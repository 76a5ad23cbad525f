package quota

import (
	"codeberg.org/thecookflow/server/cookflow/entitlements"
)

// sentinel for plans without a practical daily cap
const Unlimited = 999

// per-plan limits for menu generation and menu shape. This table is the
// single source of truth for quota values; marketing copy that disagrees
// with it is a product bug, not an input.
type Quota struct {
	DailyMenuLimit  int // generations per day before ad unlocks
	WeeklyMenuLimit int // 0 means no weekly cap
	MaxServings     int
	MaxDays         int
	MealsPerDay     int
	AdUnlocksPerDay int // rewarded-ad grants accepted per day
}

// returns the quota table entry for a plan. Unknown values resolve to
// the free quota so a corrupt plan never widens access.
func ForPlan(plan entitlements.Plan) Quota {
	switch plan {
	case entitlements.PlanTrial:
		return Quota{
			DailyMenuLimit:  Unlimited,
			WeeklyMenuLimit: 0,
			MaxServings:     10,
			MaxDays:         7,
			MealsPerDay:     5,
			AdUnlocksPerDay: 0,
		}
	case entitlements.PlanPro:
		return Quota{
			DailyMenuLimit:  Unlimited,
			WeeklyMenuLimit: 5,
			MaxServings:     10,
			MaxDays:         7,
			MealsPerDay:     5,
			AdUnlocksPerDay: 0,
		}
	case entitlements.PlanFree:
		fallthrough
	default:
		return Quota{
			DailyMenuLimit:  1,
			WeeklyMenuLimit: 0,
			MaxServings:     2,
			MaxDays:         5,
			MealsPerDay:     3,
			AdUnlocksPerDay: 2,
		}
	}
}
