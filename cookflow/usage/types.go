package usage

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// handles daily usage counter database operations
type Repository struct {
	db *pgxpool.Pool
}

// per-user, per-day generation counters. Rows are created lazily on the
// first action of a day; a new day key is an implicit reset.
type Counter struct {
	UserID          string     `json:"user_id"`
	Day             string     `json:"day"` // calendar date, "2006-01-02", UTC
	GenerationCount int        `json:"generation_count"`
	AdUnlockCount   int        `json:"ad_unlock_count"`
	LastAdViewedAt  *time.Time `json:"last_ad_viewed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// outcome of a consume attempt, with the counter values after the attempt
type ConsumeResult struct {
	Allowed         bool
	GenerationCount int
	AdUnlockCount   int
	WeekCount       int
}
