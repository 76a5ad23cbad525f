package entitlements

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// handles entitlement database operations
type Repository struct {
	db *pgxpool.Pool
}

// subscription plan level
type Plan string

const (
	PlanFree  Plan = "free"
	PlanTrial Plan = "trial"
	PlanPro   Plan = "pro"
)

// represents a user's current plan and billing state.
// At most one of the trial window and the subscription window is active;
// plan "free" means both are absent or expired.
type Entitlement struct {
	UserID             string     `json:"user_id"`
	Plan               Plan       `json:"plan"`
	TrialStartedAt     *time.Time `json:"trial_started_at,omitempty"`
	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty"`
	AutoConvertToPro   bool       `json:"auto_convert_to_pro"`
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at,omitempty"`
	AutoRenewing       bool       `json:"auto_renewing"`
	PurchaseToken      *string    `json:"-"`
	CanceledAt         *time.Time `json:"canceled_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
