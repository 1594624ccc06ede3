package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"grace/internal/auth/models"
	id "grace/pkg/domain"
	"grace/pkg/platform/middleware/requesttime"
	"grace/pkg/platform/sentinel"
)

// sessionKeyPrefix namespaces session records. Keys carry a SHA-256 of the
// token so SCAN output never exposes live tokens.
const sessionKeyPrefix = "session:"

// sessionJSON is the persisted record: {id, user, token, createdAt}.
type sessionJSON struct {
	ID        string `json:"id"`
	UserID    string `json:"user"`
	Token     string `json:"token"`
	CreatedAt int64  `json:"createdAt"` // Unix nano
}

func sessionToJSON(s *models.Session) *sessionJSON {
	return &sessionJSON{
		ID:        s.ID.String(),
		UserID:    s.UserID.String(),
		Token:     s.Token,
		CreatedAt: s.CreatedAt.UnixNano(),
	}
}

func sessionFromJSON(j *sessionJSON) *models.Session {
	return &models.Session{
		ID:        id.SessionID(j.ID),
		UserID:    id.PrincipalID(j.UserID),
		Token:     j.Token,
		CreatedAt: time.Unix(0, j.CreatedAt),
	}
}

// RedisStore persists sessions in Redis. Records expire with the token, so
// the cleanup sweep has nothing to do here.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a Redis-backed session store whose records live for ttl.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) sessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return sessionKeyPrefix + hex.EncodeToString(sum[:])
}

// remainingTTL is how long a record created at createdAt has left, measured
// on the request clock.
func (s *RedisStore) remainingTTL(ctx context.Context, createdAt time.Time) time.Duration {
	return createdAt.Add(s.ttl).Sub(requesttime.Now(ctx))
}

func (s *RedisStore) Create(ctx context.Context, session *models.Session) error {
	if session == nil || session.Token == "" {
		return fmt.Errorf("session token is required")
	}

	data, err := json.Marshal(sessionToJSON(session))
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := s.remainingTTL(ctx, session.CreatedAt)
	if ttl <= 0 {
		return fmt.Errorf("session created at %s is past its lifetime", session.CreatedAt.UTC().Format(time.RFC3339))
	}

	created, err := s.client.SetNX(ctx, s.sessionKey(session.Token), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if !created {
		return fmt.Errorf("session token in use: %w", sentinel.ErrAlreadyUsed)
	}
	return nil
}

func (s *RedisStore) FindByToken(ctx context.Context, token string) (*models.Session, error) {
	data, err := s.client.Get(ctx, s.sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find session by token: %w", err)
	}

	var j sessionJSON
	if err := json.Unmarshal([]byte(data), &j); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return sessionFromJSON(&j), nil
}

func (s *RedisStore) DeleteByToken(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Del(ctx, s.sessionKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("delete session by token: %w", err)
	}
	return n > 0, nil
}

// DeleteCreatedBefore is a no-op: Redis expires records on its own.
func (s *RedisStore) DeleteCreatedBefore(context.Context, time.Time) (int, error) {
	return 0, nil
}
