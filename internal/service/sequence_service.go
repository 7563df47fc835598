package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/estate-crm-api/internal/models"
	"github.com/noah-isme/estate-crm-api/internal/observability"
	"github.com/noah-isme/estate-crm-api/internal/repository"
)

// SequenceGenerator issues monotonically increasing identifiers per kind.
// Implementations must never hand the same identifier to two callers.
type SequenceGenerator interface {
	Next(ctx context.Context, kind models.SequenceKind) (int64, error)
}

type counterSequence struct {
	repo   repository.SequenceRepository
	logger zerolog.Logger
}

// NewCounterSequence issues identifiers from database counter rows.
func NewCounterSequence(repo repository.SequenceRepository, logger zerolog.Logger) SequenceGenerator {
	return &counterSequence{
		repo:   repo,
		logger: logger.With().Str("component", "counter_sequence").Logger(),
	}
}

func (s *counterSequence) Next(ctx context.Context, kind models.SequenceKind) (int64, error) {
	id, err := s.repo.Next(ctx, kind)
	if err != nil {
		if errors.Is(err, repository.ErrUnsupportedKind) {
			return 0, err
		}
		s.logger.Error().Err(err).Str("kind", string(kind)).Msg("failed to advance sequence")
		return 0, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	observability.SequenceAssignments().WithLabelValues(string(kind), "database").Inc()
	return id, nil
}

type redisSequence struct {
	client *redis.Client
	store  repository.EntityStore
	logger zerolog.Logger
}

// NewRedisSequence issues identifiers with Redis INCR. Counters missing from
// Redis are seeded from the highest identifier in the entity store.
func NewRedisSequence(client *redis.Client, store repository.EntityStore, logger zerolog.Logger) SequenceGenerator {
	return &redisSequence{
		client: client,
		store:  store,
		logger: logger.With().Str("component", "redis_sequence").Logger(),
	}
}

func (s *redisSequence) Next(ctx context.Context, kind models.SequenceKind) (int64, error) {
	base, ok := kind.Base()
	if !ok {
		return 0, fmt.Errorf("%w: %s", repository.ErrUnsupportedKind, kind)
	}

	key := fmt.Sprintf("sequence:%s", kind)
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, s.unavailable(kind, err)
	}

	if exists == 0 {
		current, found, err := s.store.FindMaxID(ctx, kind)
		if err != nil {
			return 0, s.unavailable(kind, err)
		}

		floor := base - 1
		if found && current > floor {
			floor = current
		}

		// Only the first writer seeds; INCR below serializes everyone else.
		if err := s.client.SetNX(ctx, key, floor, 0).Err(); err != nil {
			return 0, s.unavailable(kind, err)
		}
	}

	id, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, s.unavailable(kind, err)
	}

	observability.SequenceAssignments().WithLabelValues(string(kind), "redis").Inc()
	return id, nil
}

func (s *redisSequence) unavailable(kind models.SequenceKind, err error) error {
	s.logger.Error().Err(err).Str("kind", string(kind)).Msg("failed to advance sequence")
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
