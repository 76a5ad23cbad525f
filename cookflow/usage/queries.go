package usage

const counterColumns = `user_id, day, generation_count, ad_unlock_count, last_ad_viewed_at, created_at, updated_at`

const (
	queryEnsureCounter = `
		INSERT INTO usage_counters (user_id, day)
		VALUES ($1, $2)
		ON CONFLICT (user_id, day) DO NOTHING
	`

	// the row lock serializes concurrent check-then-increment attempts
	// for the same user and day
	queryLockCounter = `
		SELECT generation_count, ad_unlock_count
		FROM usage_counters
		WHERE user_id = $1 AND day = $2
		FOR UPDATE
	`

	queryWeekTotal = `
		SELECT COALESCE(SUM(generation_count), 0)
		FROM usage_counters
		WHERE user_id = $1 AND day >= $2
	`

	queryIncrementGeneration = `
		UPDATE usage_counters
		SET generation_count = generation_count + 1,
			updated_at = NOW()
		WHERE user_id = $1 AND day = $2
	`

	queryRefundGeneration = `
		UPDATE usage_counters
		SET generation_count = generation_count - 1,
			updated_at = NOW()
		WHERE user_id = $1 AND day = $2
		  AND generation_count > 0
	`

	queryGrantAdUnlock = `
		UPDATE usage_counters
		SET ad_unlock_count = ad_unlock_count + 1,
			last_ad_viewed_at = NOW(),
			updated_at = NOW()
		WHERE user_id = $1 AND day = $2
		  AND ad_unlock_count < $3
		RETURNING ` + counterColumns + `
	`

	queryFindCounter = `
		SELECT ` + counterColumns + `
		FROM usage_counters
		WHERE user_id = $1 AND day = $2
	`

	queryDeleteOlderThan = `
		DELETE FROM usage_counters
		WHERE day < $1
	`
)
