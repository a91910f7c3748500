// internal/service/offering_closer.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dangerclosesec/pathway/internal/repository"
	"github.com/google/uuid"
)

// OfferingCloser periodically closes active offerings whose deadline passed.
type OfferingCloser struct {
	repo         repository.OfferingRepositoryIface
	cacheService *CacheService
	interval     time.Duration
	batchSize    int
	dryRun       bool // If true, don't make changes, just log
	logger       *slog.Logger
	now          func() time.Time
	stopChan     chan struct{}
	stoppedChan  chan struct{}
}

func NewOfferingCloser(
	repo repository.OfferingRepositoryIface,
	cacheService *CacheService,
	interval time.Duration,
	logger *slog.Logger,
) *OfferingCloser {
	if interval == 0 {
		interval = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OfferingCloser{
		repo:         repo,
		cacheService: cacheService,
		interval:     interval,
		batchSize:    100,
		logger:       logger,
		now:          time.Now,
		stopChan:     make(chan struct{}),
		stoppedChan:  make(chan struct{}),
	}
}

// SetBatchSize sets the number of offerings closed per query
func (c *OfferingCloser) SetBatchSize(size int) {
	if size > 0 {
		c.batchSize = size
	}
}

// SetDryRun sets whether to actually make changes or just log what would be done
func (c *OfferingCloser) SetDryRun(dryRun bool) {
	c.dryRun = dryRun
}

// Start begins closing expired offerings every interval
func (c *OfferingCloser) Start() {
	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		defer close(c.stoppedChan)

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if _, err := c.CloseExpired(ctx); err != nil {
					c.logger.Error("closing expired offerings failed", "error", err)
				}
				cancel()
			case <-c.stopChan:
				return
			}
		}
	}()
}

// Stop halts the loop and waits for a running pass to finish
func (c *OfferingCloser) Stop() {
	close(c.stopChan)
	<-c.stoppedChan
}

// CloseExpired runs one pass and returns how many offerings were closed, or
// in dry-run mode how many would be.
func (c *OfferingCloser) CloseExpired(ctx context.Context) (int, error) {
	now := c.now().UTC()
	total := 0

	for {
		expired, err := c.repo.FindExpired(ctx, now, c.batchSize)
		if err != nil {
			return total, fmt.Errorf("finding expired offerings: %w", err)
		}
		if len(expired) == 0 {
			break
		}

		ids := make([]uuid.UUID, 0, len(expired))
		for _, o := range expired {
			ids = append(ids, o.ID)
			if c.dryRun {
				c.logger.Info("would close offering (dry run)",
					"offering_id", o.ID, "title", o.Title, "deadline", o.Deadline)
			}
		}

		if c.dryRun {
			// Nothing changes, so the next query would return the same rows.
			total += len(ids)
			break
		}

		closed, err := c.repo.Close(ctx, ids)
		if err != nil {
			return total, fmt.Errorf("closing offerings: %w", err)
		}
		total += int(closed)
		for _, id := range ids {
			if c.cacheService != nil {
				c.cacheService.Delete(ctx, offeringCacheKey(id))
			}
		}
		c.logger.Info("closed expired offerings", "count", closed)

		if len(expired) < c.batchSize {
			break
		}
	}

	return total, nil
}
