// Package entitlement resolves a user's effective plan, applying any
// pending expiry transitions before answering. There are only three
// linear transitions: free -> trial -> pro, and trial/pro -> free on
// expiry or cancellation; no cycles.
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeberg.org/thecookflow/server/cookflow/entitlements"
	"github.com/jackc/pgx/v5"
)

const (
	trialDuration = 7 * 24 * time.Hour

	// billing period applied when an expired trial auto-converts;
	// the real renewal date arrives with the next verified purchase
	autoConvertTerm = 30 * 24 * time.Hour
)

var (
	ErrMissingUserID = errors.New("entitlement: user id is required")

	// the trial is one-shot: once consumed it can never restart
	ErrTrialAlreadyUsed = errors.New("entitlement: trial already used")

	// starting a trial must never replace a paid subscription
	ErrSubscriptionActive = errors.New("entitlement: a subscription is already active")
)

// storage operations the resolver needs; implemented by entitlements.Repository
type Store interface {
	FindByUser(ctx context.Context, userID string) (*entitlements.Entitlement, error)
	CreateFree(ctx context.Context, userID string) (*entitlements.Entitlement, error)
	StartTrial(ctx context.Context, userID string, startedAt, endsAt time.Time, autoConvert bool) (*entitlements.Entitlement, error)
	ConvertTrialToPro(ctx context.Context, userID string, now, subscriptionEndsAt time.Time) (*entitlements.Entitlement, error)
	ExpireTrialToFree(ctx context.Context, userID string, now time.Time) (*entitlements.Entitlement, error)
	ExpireSubscriptionToFree(ctx context.Context, userID string, now time.Time) (*entitlements.Entitlement, error)
	Cancel(ctx context.Context, userID string, at time.Time) (*entitlements.Entitlement, error)
}

// resolves effective plans and owns the trial lifecycle
type Resolver struct {
	store Store
	now   func() time.Time
}

// a user's effective plan and derived feature access
type Status struct {
	Plan          entitlements.Plan `json:"plan"`
	IsPremium     bool              `json:"isPremium"`
	TrialActive   bool              `json:"trialActive"`
	TrialDaysLeft int               `json:"trialDaysLeft"`
	AutoRenewing  bool              `json:"autoRenewing"`

	Entitlement *entitlements.Entitlement `json:"-"`
}

// creates a new entitlement resolver
func NewResolver(store Store) *Resolver {
	return &Resolver{
		store: store,
		now:   time.Now,
	}
}

// returns the user's current effective plan, persisting any expiry
// transition before answering so a concurrent reader never observes a
// plan that is already logically expired. Unknown users are initialized
// as free, never an error. Resolving twice on the same state yields the
// same plan.
func (r *Resolver) Resolve(ctx context.Context, userID string) (*Status, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	ent, err := r.store.FindByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("load entitlement: %w", err)
		}

		ent, err = r.store.CreateFree(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("initialize entitlement: %w", err)
		}
	}

	ent, err = r.applyExpiry(ctx, ent)
	if err != nil {
		return nil, err
	}

	return r.status(ent), nil
}

// begins the 7-day trial. A consumed trial never restarts; starting a
// second time returns ErrTrialAlreadyUsed, and a user with an active
// subscription gets ErrSubscriptionActive instead of losing it. The
// trial does not auto-convert: conversion to pro always needs a
// verified purchase.
func (r *Resolver) StartTrial(ctx context.Context, userID string) (*Status, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	// resolve first so the row exists and pending expiries are applied
	current, err := r.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch current.Plan {
	case entitlements.PlanPro:
		return nil, ErrSubscriptionActive
	case entitlements.PlanTrial:
		return nil, ErrTrialAlreadyUsed
	}

	now := r.now()

	ent, err := r.store.StartTrial(ctx, userID, now, now.Add(trialDuration), false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrialAlreadyUsed
		}

		return nil, fmt.Errorf("start trial: %w", err)
	}

	return r.status(ent), nil
}

// cancels any active plan immediately, reverting the user to free
func (r *Resolver) Cancel(ctx context.Context, userID string) (*Status, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	// ensure the row exists for users who never touched billing
	if _, err := r.Resolve(ctx, userID); err != nil {
		return nil, err
	}

	ent, err := r.store.Cancel(ctx, userID, r.now())
	if err != nil {
		return nil, fmt.Errorf("cancel subscription: %w", err)
	}

	return r.status(ent), nil
}

// applies pending expiry transitions. Each transition is a conditional
// update guarded on the current plan and expiry timestamp, so two
// concurrent resolutions cannot double-apply one; the loser of the race
// re-reads the terminal state.
func (r *Resolver) applyExpiry(ctx context.Context, ent *entitlements.Entitlement) (*entitlements.Entitlement, error) {
	now := r.now()

	switch {
	case ent.Plan == entitlements.PlanTrial && ent.TrialEndsAt != nil && !now.Before(*ent.TrialEndsAt):
		if ent.AutoConvertToPro {
			updated, err := r.store.ConvertTrialToPro(ctx, ent.UserID, now, now.Add(autoConvertTerm))
			return r.afterTransition(ctx, ent.UserID, updated, err)
		}

		updated, err := r.store.ExpireTrialToFree(ctx, ent.UserID, now)
		return r.afterTransition(ctx, ent.UserID, updated, err)

	case ent.Plan == entitlements.PlanPro && !ent.AutoRenewing &&
		ent.SubscriptionEndsAt != nil && !now.Before(*ent.SubscriptionEndsAt):
		updated, err := r.store.ExpireSubscriptionToFree(ctx, ent.UserID, now)
		return r.afterTransition(ctx, ent.UserID, updated, err)
	}

	return ent, nil
}

// a transition that matched no row lost a race with a concurrent
// resolver; the stored state is already terminal, so read it back
func (r *Resolver) afterTransition(
	ctx context.Context,
	userID string,
	updated *entitlements.Entitlement,
	err error,
) (*entitlements.Entitlement, error) {
	if err == nil {
		return updated, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("apply entitlement transition: %w", err)
	}

	current, err := r.store.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reload entitlement: %w", err)
	}

	return current, nil
}

func (r *Resolver) status(ent *entitlements.Entitlement) *Status {
	now := r.now()

	trialActive := ent.Plan == entitlements.PlanTrial &&
		ent.TrialEndsAt != nil && now.Before(*ent.TrialEndsAt)

	trialDaysLeft := 0
	if trialActive {
		remaining := ent.TrialEndsAt.Sub(now)
		trialDaysLeft = int((remaining + 24*time.Hour - time.Nanosecond) / (24 * time.Hour))
	}

	return &Status{
		Plan:          ent.Plan,
		IsPremium:     ent.Plan == entitlements.PlanPro || trialActive,
		TrialActive:   trialActive,
		TrialDaysLeft: trialDaysLeft,
		AutoRenewing:  ent.Plan == entitlements.PlanPro && ent.AutoRenewing,
		Entitlement:   ent,
	}
}
