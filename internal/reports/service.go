package reports

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const summaryCacheKey = "reports:summary"

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	BuildSummary(ctx context.Context) (Summary, error)
}

// Service serves the dashboard summary through a short-lived cache. Concurrent
// cache misses collapse into one database pass.
type Service struct {
	logger *slog.Logger
	repo   RepositoryPort
	cache  *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewService builds Service. A nil cache disables caching.
func NewService(logger *slog.Logger, repo RepositoryPort, cache *redis.Client, ttl time.Duration) *Service {
	return &Service{logger: logger, repo: repo, cache: cache, ttl: ttl}
}

// Summary returns the current snapshot, cached for the configured TTL.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, summaryCacheKey).Bytes()
		if err == nil {
			var cached Summary
			if unmarshalErr := json.Unmarshal(raw, &cached); unmarshalErr == nil {
				return cached, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn("report cache read failed", slog.Any("error", err))
		}
	}

	result, err, _ := s.group.Do(summaryCacheKey, func() (any, error) {
		summary, err := s.repo.BuildSummary(ctx)
		if err != nil {
			return Summary{}, err
		}
		if s.cache != nil {
			if raw, marshalErr := json.Marshal(summary); marshalErr == nil {
				if setErr := s.cache.Set(ctx, summaryCacheKey, raw, s.ttl).Err(); setErr != nil {
					s.logger.Warn("report cache write failed", slog.Any("error", setErr))
				}
			}
		}
		return summary, nil
	})
	if err != nil {
		return Summary{}, err
	}
	return result.(Summary), nil
}

// Invalidate drops the cached snapshot. Called by the warmup job before a
// rebuild and safe to call when nothing is cached.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, summaryCacheKey).Err(); err != nil {
		s.logger.Warn("report cache invalidate failed", slog.Any("error", err))
	}
}
