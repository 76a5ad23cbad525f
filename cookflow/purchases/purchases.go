package purchases

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// creates a new purchase repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// finds a purchase record by its token; returns pgx.ErrNoRows when absent
func (r *Repository) FindByToken(ctx context.Context, purchaseToken string) (*Purchase, error) {
	return r.scanRow(r.db.QueryRow(ctx, queryFindByToken, purchaseToken))
}

// records a verified purchase, refreshing the existing record when the
// token was seen before
func (r *Repository) Record(ctx context.Context, p *Purchase) (*Purchase, error) {
	return r.scanRow(r.db.QueryRow(
		ctx,
		queryUpsertByToken,
		p.UserID,
		p.PurchaseToken,
		p.ProductID,
		p.OrderID,
		p.PackageName,
		p.PurchaseState,
		p.Acknowledged,
		p.AutoRenewing,
		p.ExpiryTime,
	))
}

// lists a user's purchase records, newest first
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Purchase, error) {
	rows, err := r.db.Query(ctx, queryListByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Purchase

	for rows.Next() {
		var p Purchase

		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.PurchaseToken,
			&p.ProductID,
			&p.OrderID,
			&p.PackageName,
			&p.PurchaseState,
			&p.Acknowledged,
			&p.AutoRenewing,
			&p.ExpiryTime,
			&p.VerifiedAt,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}

		out = append(out, p)
	}

	return out, rows.Err()
}

type row interface {
	Scan(dest ...any) error
}

func (r *Repository) scanRow(rw row) (*Purchase, error) {
	var p Purchase

	err := rw.Scan(
		&p.ID,
		&p.UserID,
		&p.PurchaseToken,
		&p.ProductID,
		&p.OrderID,
		&p.PackageName,
		&p.PurchaseState,
		&p.Acknowledged,
		&p.AutoRenewing,
		&p.ExpiryTime,
		&p.VerifiedAt,
		&p.CreatedAt,
	)

	if err != nil {
		return nil, err
	}

	return &p, nil
}
