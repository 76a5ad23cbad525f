package quota

import (
	"context"
	"time"

	"codeberg.org/thecookflow/server/cookflow/entitlements"
	"codeberg.org/thecookflow/server/cookflow/usage"
)

// denial and grant reasons, mirrored into API responses
const (
	ReasonFirstMenuFree     = "first_menu_free"
	ReasonAfterAd           = "after_ad"
	ReasonTrialUnlimited    = "trial_unlimited"
	ReasonProUnlimited      = "pro_unlimited"
	ReasonNeedAd            = "need_ad"
	ReasonDailyLimitReached = "daily_limit_reached"
	ReasonWeeklyLimit       = "weekly_limit_reached"
)

// storage operations the enforcer needs; implemented by usage.Repository
type Counters interface {
	Today(ctx context.Context, userID, day string) (*usage.Counter, error)
	ConsumeGeneration(ctx context.Context, userID, day, weekStart string, dailyLimit, weeklyLimit int) (*usage.ConsumeResult, error)
	RefundGeneration(ctx context.Context, userID, day string) error
	GrantAdUnlock(ctx context.Context, userID, day string, maxPerDay int) (*usage.Counter, bool, error)
	WeekTotal(ctx context.Context, userID, weekStart string) (int, error)
}

// gates rate-limited actions against the plan quota table. All
// atomicity lives in the counter storage; the enforcer only derives
// limits and interprets results. It never unlocks on its own: a denied
// caller chooses between the ad unlock and the paywall.
type Enforcer struct {
	counters Counters
	now      func() time.Time
}

// outcome of a consume attempt
type Decision struct {
	Allowed            bool   `json:"allowed"`
	Reason             string `json:"reason"`
	Remaining          int    `json:"remaining"`
	Used               int    `json:"used"`
	AdUnlocksAvailable int    `json:"ad_unlocks_available"`
}

// snapshot of today's usage against the plan quota
type LimitStatus struct {
	DailyMenusUsed     int  `json:"dailyMenusUsed"`
	DailyMenusLimit    int  `json:"dailyMenusLimit"`
	AdUnlocksUsed      int  `json:"adUnlocksUsed"`
	AdUnlocksAvailable int  `json:"adUnlocksAvailable"`
	CanGenerateMenu    bool `json:"canGenerateMenu"`
}

// creates a new usage-limit enforcer
func NewEnforcer(counters Counters) *Enforcer {
	return &Enforcer{
		counters: counters,
		now:      time.Now,
	}
}

// consumes one generation unit for the user if the plan quota allows it.
// Quota exhaustion is a normal result, not an error.
func (e *Enforcer) CheckAndConsume(ctx context.Context, userID string, plan entitlements.Plan) (*Decision, error) {
	q := ForPlan(plan)
	now := e.now().UTC()

	result, err := e.counters.ConsumeGeneration(
		ctx,
		userID,
		dayKey(now),
		dayKey(weekStartUTC(now)),
		q.DailyMenuLimit,
		q.WeeklyMenuLimit,
	)
	if err != nil {
		return nil, err
	}

	decision := &Decision{
		Allowed:            result.Allowed,
		Used:               result.GenerationCount,
		AdUnlocksAvailable: max(0, q.AdUnlocksPerDay-result.AdUnlockCount),
	}

	allowance := q.DailyMenuLimit + result.AdUnlockCount
	decision.Remaining = max(0, allowance-result.GenerationCount)

	if q.WeeklyMenuLimit > 0 {
		weekRemaining := max(0, q.WeeklyMenuLimit-result.WeekCount)
		if weekRemaining < decision.Remaining {
			decision.Remaining = weekRemaining
		}
	}

	decision.Reason = e.reason(plan, q, result)

	return decision, nil
}

// returns a consumed generation unit when the action it paid for failed
// downstream, so the user does not lose quota over an outage
func (e *Enforcer) Refund(ctx context.Context, userID string) error {
	return e.counters.RefundGeneration(ctx, userID, dayKey(e.now().UTC()))
}

// grants one extra generation for today after a completed rewarded ad.
// The caller vouches for the ad completion; this only enforces the
// per-day grant cap.
func (e *Enforcer) GrantAdUnlock(ctx context.Context, userID string, plan entitlements.Plan) (bool, error) {
	q := ForPlan(plan)
	if q.AdUnlocksPerDay == 0 {
		return false, nil
	}

	day := dayKey(e.now().UTC())

	_, granted, err := e.counters.GrantAdUnlock(ctx, userID, day, q.AdUnlocksPerDay)
	if err != nil {
		return false, err
	}

	return granted, nil
}

// reports today's usage without consuming anything
func (e *Enforcer) Status(ctx context.Context, userID string, plan entitlements.Plan) (*LimitStatus, error) {
	q := ForPlan(plan)
	now := e.now().UTC()

	counter, err := e.counters.Today(ctx, userID, dayKey(now))
	if err != nil {
		return nil, err
	}

	canGenerate := counter.GenerationCount < q.DailyMenuLimit+counter.AdUnlockCount

	if canGenerate && q.WeeklyMenuLimit > 0 {
		weekCount, err := e.counters.WeekTotal(ctx, userID, dayKey(weekStartUTC(now)))
		if err != nil {
			return nil, err
		}

		canGenerate = weekCount < q.WeeklyMenuLimit
	}

	return &LimitStatus{
		DailyMenusUsed:     counter.GenerationCount,
		DailyMenusLimit:    q.DailyMenuLimit,
		AdUnlocksUsed:      counter.AdUnlockCount,
		AdUnlocksAvailable: max(0, q.AdUnlocksPerDay-counter.AdUnlockCount),
		CanGenerateMenu:    canGenerate,
	}, nil
}

func (e *Enforcer) reason(plan entitlements.Plan, q Quota, result *usage.ConsumeResult) string {
	if result.Allowed {
		switch plan {
		case entitlements.PlanTrial:
			return ReasonTrialUnlimited
		case entitlements.PlanPro:
			return ReasonProUnlimited
		default:
			if result.GenerationCount <= q.DailyMenuLimit {
				return ReasonFirstMenuFree
			}

			return ReasonAfterAd
		}
	}

	if q.WeeklyMenuLimit > 0 && result.WeekCount >= q.WeeklyMenuLimit {
		return ReasonWeeklyLimit
	}

	if q.AdUnlocksPerDay > result.AdUnlockCount {
		return ReasonNeedAd
	}

	return ReasonDailyLimitReached
}

// formats a time as a calendar-day key
func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// returns midnight UTC of the Monday of t's week
func weekStartUTC(t time.Time) time.Time {
	t = t.UTC()

	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}

	start := t.AddDate(0, 0, -(weekday - 1))

	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
}
