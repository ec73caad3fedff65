package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// LoginChecker validates session tokens against redis.
type LoginChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
	now         func() time.Time
}

func NewLoginChecker(ttl time.Duration, redisClient *redis.Client) *LoginChecker {
	return &LoginChecker{
		ttl:         ttl,
		redisClient: redisClient,
		now:         time.Now,
	}
}

// IsLogged reports whether token belongs to a live session. Redis expires
// sessions with second granularity, so the age is checked here as well.
func (lc *LoginChecker) IsLogged(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	raw, err := lc.redisClient.Get(ctx, sessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	createdAtUnix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, err
	}

	return lc.now().Sub(time.Unix(createdAtUnix, 0)) <= lc.ttl, nil
}
