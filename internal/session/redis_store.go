package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spardha-tech/spardha-backend/internal/config"
)

// RedisStore keeps session state in Redis, keyed per participant per quiz.
// Anchors are stored as Unix milliseconds; budgets as decimal strings.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// GetOrCreateAnchor seeds the anchor atomically with SETNX so two concurrent
// session entries (two tabs, reload race) observe the same instant.
func (s *RedisStore) GetOrCreateAnchor(ctx context.Context, quizID string, participantID int, now time.Time) (time.Time, error) {
	key := config.CacheKey.AttemptAnchorKey(quizID, participantID)

	ok, err := s.rdb.SetNX(ctx, key, now.UnixMilli(), 0).Result()
	if err != nil {
		return time.Time{}, fmt.Errorf("seed anchor: %w", err)
	}
	if ok {
		return now, nil
	}

	val, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		return time.Time{}, fmt.Errorf("read anchor: %w", err)
	}
	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid anchor format in cache: %w", err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

// State loads the full session state. Missing keys map to the initial state.
func (s *RedisStore) State(ctx context.Context, quizID string, participantID int) (State, error) {
	st := State{WarningBudget: InitialWarningBudget}

	anchorVal, err := s.rdb.Get(ctx, config.CacheKey.AttemptAnchorKey(quizID, participantID)).Result()
	switch {
	case err == nil:
		ms, perr := strconv.ParseInt(anchorVal, 10, 64)
		if perr != nil {
			return State{}, fmt.Errorf("invalid anchor format in cache: %w", perr)
		}
		st.Anchor = time.UnixMilli(ms).UTC()
	case errors.Is(err, redis.Nil):
		// Not seeded yet.
	default:
		return State{}, fmt.Errorf("read anchor: %w", err)
	}

	budgetVal, err := s.rdb.Get(ctx, config.CacheKey.WarningBudgetKey(quizID, participantID)).Result()
	switch {
	case err == nil:
		b, perr := strconv.ParseFloat(budgetVal, 64)
		if perr != nil {
			return State{}, fmt.Errorf("invalid budget format in cache: %w", perr)
		}
		st.WarningBudget = b
	case errors.Is(err, redis.Nil):
	default:
		return State{}, fmt.Errorf("read budget: %w", err)
	}

	reloads, err := s.rdb.Get(ctx, config.CacheKey.ReloadCountKey(quizID, participantID)).Result()
	switch {
	case err == nil:
		n, perr := strconv.Atoi(reloads)
		if perr != nil {
			return State{}, fmt.Errorf("invalid reload count in cache: %w", perr)
		}
		st.ReloadCount = n
	case errors.Is(err, redis.Nil):
	default:
		return State{}, fmt.Errorf("read reload count: %w", err)
	}

	return st, nil
}

// SetWarningBudget persists the remaining budget.
func (s *RedisStore) SetWarningBudget(ctx context.Context, quizID string, participantID int, budget float64) error {
	key := config.CacheKey.WarningBudgetKey(quizID, participantID)
	return s.rdb.Set(ctx, key, strconv.FormatFloat(budget, 'f', -1, 64), 0).Err()
}

// IncrementReload bumps the reload counter and returns the new value.
func (s *RedisStore) IncrementReload(ctx context.Context, quizID string, participantID int) (int, error) {
	n, err := s.rdb.Incr(ctx, config.CacheKey.ReloadCountKey(quizID, participantID)).Result()
	return int(n), err
}

// Reset clears everything the attempt left behind: anchor, budget, reload
// counter, autosaved answers, and the last composed mirage document.
func (s *RedisStore) Reset(ctx context.Context, quizID string, participantID int) error {
	return s.rdb.Del(ctx,
		config.CacheKey.AttemptAnchorKey(quizID, participantID),
		config.CacheKey.WarningBudgetKey(quizID, participantID),
		config.CacheKey.ReloadCountKey(quizID, participantID),
		config.CacheKey.ParticipantAnswersKey(quizID, participantID),
		config.CacheKey.MirageDraftKey(quizID, participantID),
	).Err()
}
