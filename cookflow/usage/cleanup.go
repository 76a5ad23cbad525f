package usage

import (
	"context"
	"time"

	"codeberg.org/thecookflow/server/internal/logger"
)

// removes stale usage counter rows in the background. Counters key by
// calendar day so they never need an explicit daily reset; old rows are
// only kept for the retention window.
type CleanupService struct {
	repo          *Repository
	checkInterval time.Duration
	retention     time.Duration
}

// creates a new cleanup service
func NewCleanupService(repo *Repository, checkInterval, retention time.Duration) *CleanupService {
	return &CleanupService{
		repo:          repo,
		checkInterval: checkInterval,
		retention:     retention,
	}
}

// begins the cleanup background loop
func (s *CleanupService) Start(ctx context.Context) {
	logger.Info("starting usage counter cleanup service",
		"check_interval", s.checkInterval,
		"retention", s.retention,
	)

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("usage counter cleanup service stopped")
			return
		case <-ticker.C:
			s.deleteStaleCounters(ctx)
		}
	}
}

// deletes counter rows older than the retention window
func (s *CleanupService) deleteStaleCounters(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.retention).Format("2006-01-02")

	removed, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		logger.ErrorErr(err, "failed to delete stale usage counters", "cutoff", cutoff)
		return
	}

	if removed > 0 {
		logger.Info("deleted stale usage counters", "count", removed, "cutoff", cutoff)
	}
}
