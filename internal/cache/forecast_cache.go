package cache

import (
	"context"
	"fmt"
	"time"

	"admission-workers/internal/common/logger"
	"admission-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

// ForecastEntry is a forecast together with the history it was computed from.
type ForecastEntry struct {
	Forecast models.ForecastResult     `json:"forecast"`
	History  []models.CutoffObservation `json:"history"`
}

// ForecastCache stores cutoff forecasts. Forecasts only change when a new year of
// cutoffs is loaded, so entries live long. A nil *ForecastCache always misses.
type ForecastCache struct {
	store jsonStore
}

func NewForecastCache(client *redis.Client, ttl time.Duration, log logger.Logger) *ForecastCache {
	return &ForecastCache{store: jsonStore{client: client, ttl: ttl, name: "forecast", logger: log}}
}

func forecastKey(courseID, category string, targetYear int) string {
	return fmt.Sprintf("forecast:%s:%s:%d", courseID, category, targetYear)
}

func (c *ForecastCache) Get(ctx context.Context, courseID, category string, targetYear int) (*ForecastEntry, bool) {
	if c == nil {
		return nil, false
	}
	var e ForecastEntry
	if !c.store.get(ctx, forecastKey(courseID, category, targetYear), &e) {
		return nil, false
	}
	return &e, true
}

// Set stores e under the forecast's target year.
func (c *ForecastCache) Set(ctx context.Context, courseID, category string, e ForecastEntry) {
	if c == nil {
		return
	}
	c.store.set(ctx, forecastKey(courseID, category, e.Forecast.TargetYear), e)
}
