package purchases

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// handles Google Play purchase record database operations
type Repository struct {
	db *pgxpool.Pool
}

// a verified Google Play purchase. The purchase token is unique, which
// makes replayed verification calls resolve to the same record.
type Purchase struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	PurchaseToken string    `json:"-"`
	ProductID     string    `json:"product_id"`
	OrderID       string    `json:"order_id"`
	PackageName   string    `json:"package_name"`
	PurchaseState int       `json:"purchase_state"`
	Acknowledged  bool      `json:"acknowledged"`
	AutoRenewing  bool      `json:"auto_renewing"`
	ExpiryTime    time.Time `json:"expiry_time"`
	VerifiedAt    time.Time `json:"verified_at"`
	CreatedAt     time.Time `json:"created_at"`
}
