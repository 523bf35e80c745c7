package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// NewServer builds the asynq server with sane concurrency for a small shop.
func NewServer(redisAddr string, logger *slog.Logger) *asynq.Server {
	return asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 4,
			Queues:      map[string]int{"default": 1},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", slog.String("type", task.Type()), slog.Any("error", err))
			}),
		},
	)
}

// NewScheduler registers the periodic tasks.
func NewScheduler(redisAddr string) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(asynq.RedisClientOpt{Addr: redisAddr}, nil)
	if _, err := scheduler.Register("@every 6h", NewIntegrityScanTask()); err != nil {
		return nil, err
	}
	if _, err := scheduler.Register("@every 1h", NewIdempotencyCleanupTask()); err != nil {
		return nil, err
	}
	if _, err := scheduler.Register("@every 10m", NewReportWarmupTask()); err != nil {
		return nil, err
	}
	return scheduler, nil
}
