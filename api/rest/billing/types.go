package billing

import (
	"time"

	"codeberg.org/thecookflow/server/cookflow/entitlements"
	"codeberg.org/thecookflow/server/cookflow/purchases"
)

type VerifyPurchaseRequest struct {
	PurchaseToken string `json:"purchaseToken" binding:"required"`
	ProductID     string `json:"productId"`
}

type VerifyPurchaseResponse struct {
	Success      bool              `json:"success"`
	Plan         entitlements.Plan `json:"plan"`
	ExpiryTime   *time.Time        `json:"expiryTime,omitempty"`
	AutoRenewing bool              `json:"autoRenewing"`
}

type PurchasesResponse struct {
	Purchases []purchases.Purchase `json:"purchases"`
}

type CancelSubscriptionRequest struct {
	PurchaseToken string `json:"purchaseToken" binding:"required"`
}

type CancelSubscriptionResponse struct {
	Success bool              `json:"success"`
	Plan    entitlements.Plan `json:"plan"`
}
