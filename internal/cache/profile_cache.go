package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"admission-workers/internal/common/logger"
	"admission-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

// ProfileCache stores materialised college profiles per category and data year.
type ProfileCache struct {
	store jsonStore
}

func NewProfileCache(client *redis.Client, ttl time.Duration, log logger.Logger) *ProfileCache {
	return &ProfileCache{store: jsonStore{client: client, ttl: ttl, name: "profiles", logger: log}}
}

// profileKey is order-insensitive in collegeIDs.
func profileKey(category string, year int, collegeIDs []string) string {
	key := fmt.Sprintf("profiles:%s:%d", category, year)
	if len(collegeIDs) == 0 {
		return key
	}

	ids := append([]string(nil), collegeIDs...)
	sort.Strings(ids)
	sum := sha256.Sum256([]byte(strings.Join(ids, ",")))
	return key + ":" + hex.EncodeToString(sum[:8])
}

func (c *ProfileCache) Get(ctx context.Context, category string, year int, collegeIDs []string) ([]models.CollegeProfile, bool) {
	if c == nil {
		return nil, false
	}
	var profiles []models.CollegeProfile
	if !c.store.get(ctx, profileKey(category, year, collegeIDs), &profiles) {
		return nil, false
	}
	return profiles, true
}

func (c *ProfileCache) Set(ctx context.Context, category string, year int, collegeIDs []string, profiles []models.CollegeProfile) {
	if c == nil {
		return
	}
	c.store.set(ctx, profileKey(category, year, collegeIDs), profiles)
}
