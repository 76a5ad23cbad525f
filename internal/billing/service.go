package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeberg.org/thecookflow/server/cookflow/entitlements"
	"codeberg.org/thecookflow/server/cookflow/purchases"
	"codeberg.org/thecookflow/server/internal/logger"
	"github.com/jackc/pgx/v5"
)

const (
	// product sold through Google Play when the client does not say otherwise
	defaultProductID = "premium_monthly"

	// outer bound on one verification round-trip
	verifyTimeout = 10 * time.Second
)

var (
	ErrMissingUserID  = errors.New("billing: user id is required")
	ErrEmptyToken     = errors.New("billing: purchase token is required")
	ErrTokenOwnership = errors.New("billing: purchase token belongs to another user")
	ErrUnknownToken   = errors.New("billing: purchase token was never verified")
)

// entitlement mutations the verifier applies; implemented by entitlements.Repository
type EntitlementStore interface {
	ActivatePro(ctx context.Context, userID string, subscriptionEndsAt time.Time, autoRenewing bool, purchaseToken string) (*entitlements.Entitlement, error)
	Cancel(ctx context.Context, userID string, at time.Time) (*entitlements.Entitlement, error)
}

// purchase record storage; implemented by purchases.Repository
type PurchaseStore interface {
	FindByToken(ctx context.Context, purchaseToken string) (*purchases.Purchase, error)
	Record(ctx context.Context, p *purchases.Purchase) (*purchases.Purchase, error)
}

// validates purchase tokens against Google Play and applies the
// resulting entitlement. Never grants pro on an uncertain path: any
// failure leaves the stored entitlement untouched.
type Service struct {
	verifier     Verifier
	purchaseRepo PurchaseStore
	entitlements EntitlementStore
	packageName  string
	now          func() time.Time
}

// outcome of a purchase verification
type Result struct {
	Success      bool              `json:"success"`
	Plan         entitlements.Plan `json:"plan"`
	ExpiryTime   *time.Time        `json:"expiryTime,omitempty"`
	AutoRenewing bool              `json:"autoRenewing"`
}

// creates a new billing verification service
func NewService(
	verifier Verifier,
	purchaseRepo PurchaseStore,
	entitlementStore EntitlementStore,
	packageName string,
) *Service {
	return &Service{
		verifier:     verifier,
		purchaseRepo: purchaseRepo,
		entitlements: entitlementStore,
		packageName:  packageName,
		now:          time.Now,
	}
}

// verifies a client-reported purchase token and, when Google Play
// confirms an active subscription, moves the user to pro. A token that
// was already verified short-circuits to the recorded outcome without a
// second provider call, so webhook and client replays are harmless.
// A completed provider "no" yields {Success:false} with a nil error;
// ErrVerificationUnavailable means the answer is unknown and the caller
// should retry.
func (s *Service) VerifyPurchase(ctx context.Context, userID, purchaseToken, productID string) (*Result, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	if purchaseToken == "" {
		return nil, ErrEmptyToken
	}

	if productID == "" {
		productID = defaultProductID
	}

	// idempotency: a recorded token was verified before
	existing, err := s.purchaseRepo.FindByToken(ctx, purchaseToken)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("look up purchase token: %w", err)
	}

	if existing != nil {
		if existing.UserID != userID {
			return nil, ErrTokenOwnership
		}

		expiry := existing.ExpiryTime

		return &Result{
			Success:      true,
			Plan:         entitlements.PlanPro,
			ExpiryTime:   &expiry,
			AutoRenewing: existing.AutoRenewing,
		}, nil
	}

	verifyCtx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	purchase, err := s.verifier.VerifySubscription(verifyCtx, productID, purchaseToken)
	if err != nil {
		if errors.Is(err, ErrVerificationRejected) {
			return &Result{Success: false}, nil
		}

		// includes timeouts: unknown outcome, entitlement unchanged
		return nil, err
	}

	now := s.now()

	if !purchase.Active(now) {
		return &Result{Success: false}, nil
	}

	expiry, err := purchase.Expiry()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVerificationUnavailable, err)
	}

	if _, err := s.purchaseRepo.Record(ctx, &purchases.Purchase{
		UserID:        userID,
		PurchaseToken: purchaseToken,
		ProductID:     productID,
		OrderID:       purchase.OrderID,
		PackageName:   s.packageName,
		PurchaseState: 0,
		Acknowledged:  purchase.AcknowledgementState == acknowledgementDone,
		AutoRenewing:  purchase.AutoRenewing,
		ExpiryTime:    expiry,
	}); err != nil {
		return nil, fmt.Errorf("record purchase: %w", err)
	}

	if _, err := s.entitlements.ActivatePro(ctx, userID, expiry, purchase.AutoRenewing, purchaseToken); err != nil {
		return nil, fmt.Errorf("activate pro entitlement: %w", err)
	}

	// best effort: an unacknowledged purchase is refunded by Google Play
	// after three days, so retrying on the next verification is fine
	if purchase.AcknowledgementState != acknowledgementDone {
		if err := s.verifier.AcknowledgeSubscription(ctx, productID, purchaseToken); err != nil {
			logger.ErrorErr(err, "failed to acknowledge purchase", "user_id", userID)
		}
	}

	return &Result{
		Success:      true,
		Plan:         entitlements.PlanPro,
		ExpiryTime:   &expiry,
		AutoRenewing: purchase.AutoRenewing,
	}, nil
}

// cancels the subscription behind a previously verified token: stops the
// renewal with Google Play first, then reverts the stored entitlement.
// The provider call must succeed before local state changes, otherwise
// Google keeps billing a user the store already considers free.
func (s *Service) CancelSubscription(ctx context.Context, userID, purchaseToken string) error {
	if userID == "" {
		return ErrMissingUserID
	}

	if purchaseToken == "" {
		return ErrEmptyToken
	}

	existing, err := s.purchaseRepo.FindByToken(ctx, purchaseToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUnknownToken
		}

		return fmt.Errorf("look up purchase token: %w", err)
	}

	if existing.UserID != userID {
		return ErrTokenOwnership
	}

	cancelCtx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	if err := s.verifier.CancelSubscription(cancelCtx, existing.ProductID, purchaseToken); err != nil {
		// an already-dead token cannot renew, safe to revert locally
		if !errors.Is(err, ErrVerificationRejected) {
			return err
		}

		logger.Warn("provider rejected cancel for recorded token", "user_id", userID)
	}

	if _, err := s.entitlements.Cancel(ctx, userID, s.now()); err != nil {
		return fmt.Errorf("cancel entitlement: %w", err)
	}

	return nil
}
