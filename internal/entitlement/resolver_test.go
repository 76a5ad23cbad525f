package entitlement

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/thecookflow/server/cookflow/entitlements"
)

// in-memory Store mirroring the conditional-update guards of the
// Postgres repository, including pgx.ErrNoRows on unmatched guards
type fakeStore struct {
	rows map[string]*entitlements.Entitlement

	startTrialCalls int
	convertCalls    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]*entitlements.Entitlement)}
}

func (s *fakeStore) FindByUser(ctx context.Context, userID string) (*entitlements.Entitlement, error) {
	ent, ok := s.rows[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}

	copied := *ent

	return &copied, nil
}

func (s *fakeStore) CreateFree(ctx context.Context, userID string) (*entitlements.Entitlement, error) {
	if ent, ok := s.rows[userID]; ok {
		copied := *ent
		return &copied, nil
	}

	ent := &entitlements.Entitlement{UserID: userID, Plan: entitlements.PlanFree}
	s.rows[userID] = ent
	copied := *ent

	return &copied, nil
}

func (s *fakeStore) StartTrial(
	ctx context.Context,
	userID string,
	startedAt, endsAt time.Time,
	autoConvert bool,
) (*entitlements.Entitlement, error) {
	s.startTrialCalls++

	ent, ok := s.rows[userID]
	if !ok || ent.TrialStartedAt != nil || ent.Plan != entitlements.PlanFree {
		return nil, pgx.ErrNoRows
	}

	ent.Plan = entitlements.PlanTrial
	ent.TrialStartedAt = &startedAt
	ent.TrialEndsAt = &endsAt
	ent.AutoConvertToPro = autoConvert
	copied := *ent

	return &copied, nil
}

func (s *fakeStore) ConvertTrialToPro(
	ctx context.Context,
	userID string,
	now, subscriptionEndsAt time.Time,
) (*entitlements.Entitlement, error) {
	s.convertCalls++

	ent, ok := s.rows[userID]
	if !ok || ent.Plan != entitlements.PlanTrial || !ent.AutoConvertToPro ||
		ent.TrialEndsAt == nil || ent.TrialEndsAt.After(now) {
		return nil, pgx.ErrNoRows
	}

	ent.Plan = entitlements.PlanPro
	ent.SubscriptionEndsAt = &subscriptionEndsAt
	ent.AutoRenewing = true
	copied := *ent

	return &copied, nil
}

func (s *fakeStore) ExpireTrialToFree(ctx context.Context, userID string, now time.Time) (*entitlements.Entitlement, error) {
	ent, ok := s.rows[userID]
	if !ok || ent.Plan != entitlements.PlanTrial || ent.AutoConvertToPro ||
		ent.TrialEndsAt == nil || ent.TrialEndsAt.After(now) {
		return nil, pgx.ErrNoRows
	}

	ent.Plan = entitlements.PlanFree
	copied := *ent

	return &copied, nil
}

func (s *fakeStore) ExpireSubscriptionToFree(ctx context.Context, userID string, now time.Time) (*entitlements.Entitlement, error) {
	ent, ok := s.rows[userID]
	if !ok || ent.Plan != entitlements.PlanPro || ent.AutoRenewing ||
		ent.SubscriptionEndsAt == nil || ent.SubscriptionEndsAt.After(now) {
		return nil, pgx.ErrNoRows
	}

	ent.Plan = entitlements.PlanFree
	copied := *ent

	return &copied, nil
}

func (s *fakeStore) Cancel(ctx context.Context, userID string, at time.Time) (*entitlements.Entitlement, error) {
	ent, ok := s.rows[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}

	ent.Plan = entitlements.PlanFree
	ent.AutoRenewing = false
	ent.AutoConvertToPro = false

	if ent.TrialEndsAt != nil && ent.TrialEndsAt.After(at) {
		clamped := at
		ent.TrialEndsAt = &clamped
	}

	ent.SubscriptionEndsAt = &at
	ent.CanceledAt = &at
	copied := *ent

	return &copied, nil
}

func newTestResolver(at time.Time) (*Resolver, *fakeStore) {
	store := newFakeStore()
	resolver := NewResolver(store)
	resolver.now = func() time.Time { return at }

	return resolver, store
}

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestResolve_MissingUserID(t *testing.T) {
	resolver, _ := newTestResolver(testTime)

	_, err := resolver.Resolve(context.Background(), "")

	assert.ErrorIs(t, err, ErrMissingUserID)
}

func TestResolve_UnknownUserInitializedAsFree(t *testing.T) {
	resolver, store := newTestResolver(testTime)

	status, err := resolver.Resolve(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, entitlements.PlanFree, status.Plan)
	assert.False(t, status.IsPremium)
	assert.Contains(t, store.rows, "user-1", "a free row should be persisted")
}

func TestResolve_Idempotent(t *testing.T) {
	resolver, _ := newTestResolver(testTime)
	ctx := context.Background()

	first, err := resolver.Resolve(ctx, "user-1")
	require.NoError(t, err)

	second, err := resolver.Resolve(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, first.Plan, second.Plan)
	assert.Equal(t, first.IsPremium, second.IsPremium)
}

func TestStartTrial_ActivatesSevenDayWindow(t *testing.T) {
	resolver, _ := newTestResolver(testTime)

	status, err := resolver.StartTrial(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, entitlements.PlanTrial, status.Plan)
	assert.True(t, status.IsPremium)
	assert.True(t, status.TrialActive)
	assert.Equal(t, 7, status.TrialDaysLeft)
	require.NotNil(t, status.Entitlement.TrialEndsAt)
	assert.Equal(t, testTime.Add(7*24*time.Hour), *status.Entitlement.TrialEndsAt)
	assert.False(t, status.Entitlement.AutoConvertToPro, "conversion to pro needs a verified purchase")
}

func TestStartTrial_OneShot(t *testing.T) {
	resolver, _ := newTestResolver(testTime)
	ctx := context.Background()

	_, err := resolver.StartTrial(ctx, "user-1")
	require.NoError(t, err)

	_, err = resolver.StartTrial(ctx, "user-1")

	assert.ErrorIs(t, err, ErrTrialAlreadyUsed)
}

func TestStartTrial_ConsumedTrialNeverRestarts(t *testing.T) {
	resolver, store := newTestResolver(testTime)
	ctx := context.Background()

	_, err := resolver.StartTrial(ctx, "user-1")
	require.NoError(t, err)

	// let the trial lapse back to free, then try again
	resolver.now = func() time.Time { return testTime.Add(8 * 24 * time.Hour) }

	status, err := resolver.Resolve(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, entitlements.PlanFree, status.Plan)

	_, err = resolver.StartTrial(ctx, "user-1")

	assert.ErrorIs(t, err, ErrTrialAlreadyUsed)
	assert.Equal(t, 2, store.startTrialCalls)
}

func TestResolve_TrialStillActive(t *testing.T) {
	resolver, _ := newTestResolver(testTime)
	ctx := context.Background()

	_, err := resolver.StartTrial(ctx, "user-1")
	require.NoError(t, err)

	resolver.now = func() time.Time { return testTime.Add(3*24*time.Hour + time.Hour) }

	status, err := resolver.Resolve(ctx, "user-1")

	require.NoError(t, err)
	assert.Equal(t, entitlements.PlanTrial, status.Plan)
	assert.True(t, status.TrialActive)
	assert.Equal(t, 4, status.TrialDaysLeft, "partial days round up")
}

func TestResolve_ExpiredTrialRevertsToFree(t *testing.T) {
	resolver, _ := newTestResolver(testTime)
	ctx := context.Background()

	_, err := resolver.StartTrial(ctx, "user-1")
	require.NoError(t, err)

	resolver.now = func() time.Time { return testTime.Add(7 * 24 * time.Hour) }

	status, err := resolver.Resolve(ctx, "user-1")

	require.NoError(t, err)
	assert.Equal(t, entitlements.PlanFree, status.Plan)
	assert.False(t, status.IsPremium)
	assert.False(t, status.TrialActive)
	assert.Equal(t, 0, status.TrialDaysLeft)
}

func TestResolve_ExpiredTrialAutoConverts(t *testing.T) {
	resolver, store := newTestResolver(testTime)
	ctx := context.Background()

	trialEnd := testTime.Add(7 * 24 * time.Hour)
	store.rows["user-1"] = &entitlements.Entitlement{
		UserID:           "user-1",
		Plan:             entitlements.PlanTrial,
		TrialStartedAt:   &testTime,
		TrialEndsAt:      &trialEnd,
		AutoConvertToPro: true,
	}

	resolver.now = func() time.Time { return trialEnd.Add(time.Minute) }

	status, err := resolver.Resolve(ctx, "user-1")

	require.NoError(t, err)
	assert.Equal(t, entitlements.PlanPro, status.Plan)
	assert.True(t, status.IsPremium)
	assert.True(t, status.AutoRenewing)
}

func TestResolve_ExpiredSubscriptionRevertsToFree(t *testing.T) {
	resolver, store := newTestResolver(testTime)

	subEnd := testTime.Add(-time.Hour)
	store.rows["user-1"] = &entitlements.Entitlement{
		UserID:             "user-1",
		Plan:               entitlements.PlanPro,
		SubscriptionEndsAt: &subEnd,
		AutoRenewing:       false,
	}

	status, err := resolver.Resolve(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, entitlements.PlanFree, status.Plan)
	assert.False(t, status.IsPremium)
}

func TestResolve_RenewingSubscriptionStaysPro(t *testing.T) {
	resolver, store := newTestResolver(testTime)

	// expiry in the past but still renewing: the store shows the last
	// verified period, renewal confirmation arrives with the next verify
	subEnd := testTime.Add(-time.Hour)
	store.rows["user-1"] = &entitlements.Entitlement{
		UserID:             "user-1",
		Plan:               entitlements.PlanPro,
		SubscriptionEndsAt: &subEnd,
		AutoRenewing:       true,
	}

	status, err := resolver.Resolve(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, entitlements.PlanPro, status.Plan)
	assert.True(t, status.IsPremium)
	assert.True(t, status.AutoRenewing)
}

func TestResolve_TransitionRaceLoserReloads(t *testing.T) {
	resolver, store := newTestResolver(testTime)
	ctx := context.Background()

	trialEnd := testTime.Add(-time.Minute)
	started := testTime.Add(-7 * 24 * time.Hour)
	store.rows["user-1"] = &entitlements.Entitlement{
		UserID:           "user-1",
		Plan:             entitlements.PlanTrial,
		TrialStartedAt:   &started,
		TrialEndsAt:      &trialEnd,
		AutoConvertToPro: true,
	}

	// winner applies the conversion first
	_, err := resolver.Resolve(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 1, store.convertCalls)

	// loser's guard no longer matches; it must settle on the stored state
	status, err := resolver.Resolve(ctx, "user-1")

	require.NoError(t, err)
	assert.Equal(t, entitlements.PlanPro, status.Plan)
	assert.Equal(t, 1, store.convertCalls, "the conversion must not double-apply")
}

func TestCancel_RevertsToFree(t *testing.T) {
	resolver, _ := newTestResolver(testTime)
	ctx := context.Background()

	_, err := resolver.StartTrial(ctx, "user-1")
	require.NoError(t, err)

	status, err := resolver.Cancel(ctx, "user-1")

	require.NoError(t, err)
	assert.Equal(t, entitlements.PlanFree, status.Plan)
	assert.False(t, status.IsPremium)
	require.NotNil(t, status.Entitlement.CanceledAt)
	assert.Equal(t, testTime, *status.Entitlement.CanceledAt)
}

func TestCancel_UnknownUserEndsUpFree(t *testing.T) {
	resolver, _ := newTestResolver(testTime)

	status, err := resolver.Cancel(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, entitlements.PlanFree, status.Plan)
}

func TestStartTrial_ActiveSubscriptionBlocked(t *testing.T) {
	resolver, store := newTestResolver(testTime)
	ctx := context.Background()

	subEnd := testTime.Add(30 * 24 * time.Hour)
	store.rows["user-1"] = &entitlements.Entitlement{
		UserID:             "user-1",
		Plan:               entitlements.PlanPro,
		SubscriptionEndsAt: &subEnd,
		AutoRenewing:       true,
	}

	_, err := resolver.StartTrial(ctx, "user-1")

	assert.ErrorIs(t, err, ErrSubscriptionActive)
	assert.Equal(t, 0, store.startTrialCalls, "the store must never see a trial start for a subscriber")

	// the subscription must survive untouched, also past the trial term
	resolver.now = func() time.Time { return testTime.Add(8 * 24 * time.Hour) }

	status, err := resolver.Resolve(ctx, "user-1")

	require.NoError(t, err)
	assert.Equal(t, entitlements.PlanPro, status.Plan)
	assert.True(t, status.IsPremium)
}

func TestStartTrial_LapsedSubscriberMayStartUnusedTrial(t *testing.T) {
	resolver, store := newTestResolver(testTime)

	subEnd := testTime.Add(-time.Hour)
	store.rows["user-1"] = &entitlements.Entitlement{
		UserID:             "user-1",
		Plan:               entitlements.PlanPro,
		SubscriptionEndsAt: &subEnd,
		AutoRenewing:       false,
	}

	status, err := resolver.StartTrial(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, entitlements.PlanTrial, status.Plan)
}

func TestCancel_DuringTrialClampsTrialWindow(t *testing.T) {
	resolver, _ := newTestResolver(testTime)
	ctx := context.Background()

	_, err := resolver.StartTrial(ctx, "user-1")
	require.NoError(t, err)

	status, err := resolver.Cancel(ctx, "user-1")

	require.NoError(t, err)
	assert.Equal(t, entitlements.PlanFree, status.Plan)
	assert.False(t, status.TrialActive)
	require.NotNil(t, status.Entitlement.TrialEndsAt)
	assert.False(t, status.Entitlement.TrialEndsAt.After(testTime),
		"a free row must not keep a running trial window")
}
