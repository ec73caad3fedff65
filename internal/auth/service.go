package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/pkg"
)

const (
	DefaultTTL           = 24 * 7 * time.Hour
	DefaultSweepInterval = 8 * time.Hour

	sessionKeyPrefix = "liftlog-session||"
	tokensSetKey     = "liftlog-sessions"
	tokenLength      = 35
)

var (
	ErrWrongUsername = errors.New("wrong username")
	ErrWrongPassword = errors.New("wrong password")
)

// Admin is the single account allowed to change workouts.
type Admin struct {
	Username     string
	PasswordHash string
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Service issues and revokes admin sessions.
//
// A session is a redis key holding its creation unix time, expiring after the TTL.
// Live tokens are also indexed in a set, which the sweeper prunes once their keys expire.
type Service struct {
	admin       *Admin
	redisClient *redis.Client
	ttl         time.Duration
	// RandStringFunc generates session tokens, replaceable in tests.
	RandStringFunc func(n int) (string, error)
}

func NewAuthService(
	admin *Admin,
	ttl time.Duration,
	redisClient *redis.Client,
) *Service {
	return &Service{
		admin:          admin,
		ttl:            ttl,
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

func (as *Service) Login(ctx context.Context, credentials Credentials, createdAt time.Time) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "authService.login")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err, ErrWrongUsername, ErrWrongPassword)
	}()

	if credentials.Username != as.admin.Username {
		return "", ErrWrongUsername
	}
	if !pkg.CheckPasswordHash(credentials.Password, as.admin.PasswordHash) {
		return "", ErrWrongPassword
	}

	token, err := as.RandStringFunc(tokenLength)
	if err != nil {
		return "", err
	}

	if err := as.redisClient.Set(ctx, sessionKeyPrefix+token, createdAt.Unix(), as.ttl).Err(); err != nil {
		return "", err
	}
	if err := as.redisClient.SAdd(ctx, tokensSetKey, token).Err(); err != nil {
		return "", err
	}

	return token, nil
}

// Logout reports whether the token belonged to a live session.
func (as *Service) Logout(ctx context.Context, token string) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "authService.logout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	deleted, err := as.redisClient.Del(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return false, err
	}
	if err := as.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
		return false, err
	}

	return deleted == 1, nil
}

// ScanAndClean drops tokens whose session keys already expired from the index set.
// It returns the number of dropped tokens.
func (as *Service) ScanAndClean(ctx context.Context) int {
	tokens, err := as.redisClient.SMembers(ctx, tokensSetKey).Result()
	if err != nil {
		log.Errorf("auth service, scan sessions: %s", err)
		return 0
	}
	if len(tokens) == 0 {
		log.Debugln("auth service, no sessions to scan")
		return 0
	}

	var expired []interface{}
	for _, token := range tokens {
		exists, err := as.redisClient.Exists(ctx, sessionKeyPrefix+token).Result()
		if err != nil {
			log.Errorf("auth service, check session %s: %s", token, err)
			continue
		}
		if exists == 0 {
			expired = append(expired, token)
		}
	}

	if len(expired) == 0 {
		log.Debugf("auth service, all %d sessions alive", len(tokens))
		return 0
	}
	if err := as.redisClient.SRem(ctx, tokensSetKey, expired...).Err(); err != nil {
		log.Errorf("auth service, drop %d expired sessions: %s", len(expired), err)
		return 0
	}

	log.Debugf("auth service, dropped %d of %d sessions", len(expired), len(tokens))
	return len(expired)
}

// RunSweeper calls ScanAndClean every interval until ctx is done.
func (as *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			as.ScanAndClean(ctx)
		}
	}
}
