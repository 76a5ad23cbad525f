package entitlements

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// creates a new entitlement repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// finds a user's entitlement row; returns pgx.ErrNoRows when absent
func (r *Repository) FindByUser(ctx context.Context, userID string) (*Entitlement, error) {
	return r.scanRow(r.db.QueryRow(ctx, queryFindByUser, userID))
}

// creates a free entitlement for the user, returning the existing row
// if one was created concurrently
func (r *Repository) CreateFree(ctx context.Context, userID string) (*Entitlement, error) {
	return r.scanRow(r.db.QueryRow(ctx, queryCreateFree, userID))
}

// moves the user onto a trial; returns pgx.ErrNoRows when the trial
// was already consumed
func (r *Repository) StartTrial(
	ctx context.Context,
	userID string,
	startedAt, endsAt time.Time,
	autoConvert bool,
) (*Entitlement, error) {
	return r.scanRow(r.db.QueryRow(ctx, queryStartTrial, userID, startedAt, endsAt, autoConvert))
}

// converts an expired trial to pro; the WHERE guard makes the transition
// apply exactly once under concurrent resolution
func (r *Repository) ConvertTrialToPro(
	ctx context.Context,
	userID string,
	now, subscriptionEndsAt time.Time,
) (*Entitlement, error) {
	return r.scanRow(r.db.QueryRow(ctx, queryConvertTrialToPro, userID, now, subscriptionEndsAt))
}

// reverts an expired trial to free when auto-conversion is off
func (r *Repository) ExpireTrialToFree(ctx context.Context, userID string, now time.Time) (*Entitlement, error) {
	return r.scanRow(r.db.QueryRow(ctx, queryExpireTrialToFree, userID, now))
}

// reverts an expired non-renewing subscription to free
func (r *Repository) ExpireSubscriptionToFree(ctx context.Context, userID string, now time.Time) (*Entitlement, error) {
	return r.scanRow(r.db.QueryRow(ctx, queryExpireSubscriptionToFree, userID, now))
}

// cancels any active plan immediately
func (r *Repository) Cancel(ctx context.Context, userID string, at time.Time) (*Entitlement, error) {
	return r.scanRow(r.db.QueryRow(ctx, queryCancel, userID, at))
}

// activates a pro subscription from a verified purchase
func (r *Repository) ActivatePro(
	ctx context.Context,
	userID string,
	subscriptionEndsAt time.Time,
	autoRenewing bool,
	purchaseToken string,
) (*Entitlement, error) {
	return r.scanRow(r.db.QueryRow(ctx, queryActivatePro, userID, subscriptionEndsAt, autoRenewing, purchaseToken))
}

type row interface {
	Scan(dest ...any) error
}

func (r *Repository) scanRow(rw row) (*Entitlement, error) {
	var e Entitlement

	err := rw.Scan(
		&e.UserID,
		&e.Plan,
		&e.TrialStartedAt,
		&e.TrialEndsAt,
		&e.AutoConvertToPro,
		&e.SubscriptionEndsAt,
		&e.AutoRenewing,
		&e.PurchaseToken,
		&e.CanceledAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return &e, nil
}
