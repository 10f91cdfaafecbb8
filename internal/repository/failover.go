package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/aliceryden/portalen/internal/domain"
	"github.com/aliceryden/portalen/internal/models"

	"github.com/rs/zerolog"
)

type FailoverAvailabilityCache struct {
	primary  domain.AvailabilityCache
	fallback domain.AvailabilityCache
	logger   *zerolog.Logger
	isDown   atomic.Bool
	// lastCheck holds unix nanos; GetDay and SetDay race on it otherwise.
	lastCheck atomic.Int64
}

func NewFailoverAvailabilityCache(primary, fallback domain.AvailabilityCache, logger *zerolog.Logger) *FailoverAvailabilityCache {
	return &FailoverAvailabilityCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (c *FailoverAvailabilityCache) markDown(err error) {
	c.logger.Error().Err(err).Msg("Primary availability cache failed, falling back to memory")
	c.isDown.Store(true)
	c.lastCheck.Store(time.Now().UnixNano())
}

func (c *FailoverAvailabilityCache) sinceLastCheck() time.Duration {
	return time.Since(time.Unix(0, c.lastCheck.Load()))
}

func (c *FailoverAvailabilityCache) GetDay(ctx context.Context, farrierID int64, date string) (*models.DayAvailability, error) {
	if !c.isDown.Load() {
		snapshot, err := c.primary.GetDay(ctx, farrierID, date)
		if err == nil {
			return snapshot, nil
		}
		c.markDown(err)
	}

	// Try to recover after 1 minute
	if c.isDown.Load() && c.sinceLastCheck() > time.Minute {
		snapshot, err := c.primary.GetDay(ctx, farrierID, date)
		if err == nil {
			c.isDown.Store(false)
			return snapshot, nil
		}
		c.lastCheck.Store(time.Now().UnixNano())
	}

	return c.fallback.GetDay(ctx, farrierID, date)
}

func (c *FailoverAvailabilityCache) SetDay(ctx context.Context, snapshot *models.DayAvailability) error {
	if !c.isDown.Load() {
		err := c.primary.SetDay(ctx, snapshot)
		if err == nil {
			return nil
		}
		c.markDown(err)
	}

	return c.fallback.SetDay(ctx, snapshot)
}

func (c *FailoverAvailabilityCache) InvalidateDay(ctx context.Context, farrierID int64, date string) error {
	if !c.isDown.Load() {
		err := c.primary.InvalidateDay(ctx, farrierID, date)
		if err == nil {
			// Keep the fallback coherent too, ignore its result.
			_ = c.fallback.InvalidateDay(ctx, farrierID, date)
			return nil
		}
		c.markDown(err)
	}

	return c.fallback.InvalidateDay(ctx, farrierID, date)
}
