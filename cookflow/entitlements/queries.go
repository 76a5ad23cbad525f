package entitlements

const entitlementColumns = `user_id, plan, trial_started_at, trial_ends_at, auto_convert_to_pro,
		subscription_ends_at, auto_renewing, purchase_token, canceled_at, created_at, updated_at`

const (
	queryFindByUser = `
		SELECT ` + entitlementColumns + `
		FROM entitlements
		WHERE user_id = $1
	`

	queryCreateFree = `
		INSERT INTO entitlements (user_id, plan)
		VALUES ($1, 'free')
		ON CONFLICT (user_id)
		DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING ` + entitlementColumns + `
	`

	// one-shot: a row whose trial_started_at is already set never matches
	// again. The plan guard keeps a direct pro purchaser (trial never
	// consumed) from trading an active subscription for a trial window.
	queryStartTrial = `
		UPDATE entitlements
		SET plan = 'trial',
			trial_started_at = $2,
			trial_ends_at = $3,
			auto_convert_to_pro = $4,
			updated_at = NOW()
		WHERE user_id = $1
		  AND trial_started_at IS NULL
		  AND plan = 'free'
		RETURNING ` + entitlementColumns + `
	`

	// guarded on plan and expiry so two concurrent resolvers cannot both apply it
	queryConvertTrialToPro = `
		UPDATE entitlements
		SET plan = 'pro',
			subscription_ends_at = $3,
			auto_renewing = TRUE,
			updated_at = NOW()
		WHERE user_id = $1
		  AND plan = 'trial'
		  AND auto_convert_to_pro
		  AND trial_ends_at <= $2
		RETURNING ` + entitlementColumns + `
	`

	queryExpireTrialToFree = `
		UPDATE entitlements
		SET plan = 'free',
			updated_at = NOW()
		WHERE user_id = $1
		  AND plan = 'trial'
		  AND NOT auto_convert_to_pro
		  AND trial_ends_at <= $2
		RETURNING ` + entitlementColumns + `
	`

	queryExpireSubscriptionToFree = `
		UPDATE entitlements
		SET plan = 'free',
			updated_at = NOW()
		WHERE user_id = $1
		  AND plan = 'pro'
		  AND NOT auto_renewing
		  AND subscription_ends_at <= $2
		RETURNING ` + entitlementColumns + `
	`

	// plan 'free' implies both windows are absent or expired, so a trial
	// window still running at cancel time is clamped to the cancel instant
	queryCancel = `
		UPDATE entitlements
		SET plan = 'free',
			auto_renewing = FALSE,
			auto_convert_to_pro = FALSE,
			trial_ends_at = CASE WHEN trial_ends_at > $2 THEN $2 ELSE trial_ends_at END,
			subscription_ends_at = $2,
			canceled_at = $2,
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + entitlementColumns + `
	`

	queryActivatePro = `
		INSERT INTO entitlements (user_id, plan, subscription_ends_at, auto_renewing, purchase_token)
		VALUES ($1, 'pro', $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET
			plan = 'pro',
			subscription_ends_at = EXCLUDED.subscription_ends_at,
			auto_renewing = EXCLUDED.auto_renewing,
			purchase_token = EXCLUDED.purchase_token,
			canceled_at = NULL,
			updated_at = NOW()
		RETURNING ` + entitlementColumns + `
	`
)
