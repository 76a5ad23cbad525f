package usage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// creates a new usage counter repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// returns today's counter for the user, creating a zeroed row if absent
func (r *Repository) Today(ctx context.Context, userID, day string) (*Counter, error) {
	if _, err := r.db.Exec(ctx, queryEnsureCounter, userID, day); err != nil {
		return nil, fmt.Errorf("ensure usage counter: %w", err)
	}

	return r.find(ctx, userID, day)
}

// atomically consumes one generation unit against the daily allowance
// (daily limit plus ad unlocks) and the optional weekly cap. The day row
// is locked for the duration of the check and increment, so of two
// concurrent calls racing for the last unit exactly one succeeds.
// A weeklyLimit of 0 means no weekly cap.
func (r *Repository) ConsumeGeneration(
	ctx context.Context,
	userID, day, weekStart string,
	dailyLimit, weeklyLimit int,
) (*ConsumeResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin consume tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, queryEnsureCounter, userID, day); err != nil {
		return nil, fmt.Errorf("ensure usage counter: %w", err)
	}

	var generationCount, adUnlockCount int
	if err := tx.QueryRow(ctx, queryLockCounter, userID, day).Scan(&generationCount, &adUnlockCount); err != nil {
		return nil, fmt.Errorf("lock usage counter: %w", err)
	}

	var weekCount int
	if err := tx.QueryRow(ctx, queryWeekTotal, userID, weekStart).Scan(&weekCount); err != nil {
		return nil, fmt.Errorf("sum weekly usage: %w", err)
	}

	result := &ConsumeResult{
		GenerationCount: generationCount,
		AdUnlockCount:   adUnlockCount,
		WeekCount:       weekCount,
	}

	// strict comparisons: a zero allowance always denies
	if generationCount >= dailyLimit+adUnlockCount {
		return result, tx.Commit(ctx)
	}

	if weeklyLimit > 0 && weekCount >= weeklyLimit {
		return result, tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, queryIncrementGeneration, userID, day); err != nil {
		return nil, fmt.Errorf("increment generation count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit consume tx: %w", err)
	}

	result.Allowed = true
	result.GenerationCount = generationCount + 1
	result.WeekCount = weekCount + 1

	return result, nil
}

// returns one generation unit to the day's counter after the consumed
// action failed downstream; a zeroed counter stays at zero
func (r *Repository) RefundGeneration(ctx context.Context, userID, day string) error {
	if _, err := r.db.Exec(ctx, queryRefundGeneration, userID, day); err != nil {
		return fmt.Errorf("refund generation count: %w", err)
	}

	return nil
}

// grants one ad unlock for the day, bounded by maxPerDay;
// returns nil, false when the daily ad cap is already reached
func (r *Repository) GrantAdUnlock(ctx context.Context, userID, day string, maxPerDay int) (*Counter, bool, error) {
	if _, err := r.db.Exec(ctx, queryEnsureCounter, userID, day); err != nil {
		return nil, false, fmt.Errorf("ensure usage counter: %w", err)
	}

	counter, err := r.scanCounter(r.db.QueryRow(ctx, queryGrantAdUnlock, userID, day, maxPerDay))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// cap reached, nothing was granted
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("grant ad unlock: %w", err)
	}

	return counter, true, nil
}

// returns the total generations recorded since weekStart (inclusive)
func (r *Repository) WeekTotal(ctx context.Context, userID, weekStart string) (int, error) {
	var total int
	if err := r.db.QueryRow(ctx, queryWeekTotal, userID, weekStart).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum weekly usage: %w", err)
	}

	return total, nil
}

// deletes counter rows older than the cutoff day, returning rows removed
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoffDay string) (int64, error) {
	tag, err := r.db.Exec(ctx, queryDeleteOlderThan, cutoffDay)
	if err != nil {
		return 0, fmt.Errorf("delete stale counters: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *Repository) find(ctx context.Context, userID, day string) (*Counter, error) {
	return r.scanCounter(r.db.QueryRow(ctx, queryFindCounter, userID, day))
}

type row interface {
	Scan(dest ...any) error
}

func (r *Repository) scanCounter(rw row) (*Counter, error) {
	var c Counter

	err := rw.Scan(
		&c.UserID,
		&c.Day,
		&c.GenerationCount,
		&c.AdUnlockCount,
		&c.LastAdViewedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return &c, nil
}
