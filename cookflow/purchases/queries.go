package purchases

const purchaseColumns = `id, user_id, purchase_token, product_id, order_id, package_name,
		purchase_state, acknowledged, auto_renewing, expiry_time, verified_at, created_at`

const (
	queryFindByToken = `
		SELECT ` + purchaseColumns + `
		FROM google_play_purchases
		WHERE purchase_token = $1
	`

	queryUpsertByToken = `
		INSERT INTO google_play_purchases
			(user_id, purchase_token, product_id, order_id, package_name,
			 purchase_state, acknowledged, auto_renewing, expiry_time, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (purchase_token)
		DO UPDATE SET
			product_id = EXCLUDED.product_id,
			order_id = EXCLUDED.order_id,
			purchase_state = EXCLUDED.purchase_state,
			acknowledged = EXCLUDED.acknowledged,
			auto_renewing = EXCLUDED.auto_renewing,
			expiry_time = EXCLUDED.expiry_time,
			verified_at = NOW()
		RETURNING ` + purchaseColumns + `
	`

	queryListByUser = `
		SELECT ` + purchaseColumns + `
		FROM google_play_purchases
		WHERE user_id = $1
		ORDER BY verified_at DESC
	`
)
