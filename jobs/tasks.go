package jobs

import (
	"time"

	"github.com/hibiken/asynq"
)

// Task type names.
const (
	TypeIntegrityScan      = "stock:integrity-scan"
	TypeIdempotencyCleanup = "idempotency:cleanup"
	TypeReportWarmup       = "reports:warmup"
)

// NewIntegrityScanTask builds the stock integrity scan task.
func NewIntegrityScanTask() *asynq.Task {
	return asynq.NewTask(TypeIntegrityScan, nil, asynq.MaxRetry(2), asynq.Timeout(5*time.Minute))
}

// NewIdempotencyCleanupTask builds the idempotency key cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TypeIdempotencyCleanup, nil, asynq.MaxRetry(1), asynq.Timeout(time.Minute))
}

// NewReportWarmupTask builds the report cache warmup task.
func NewReportWarmupTask() *asynq.Task {
	return asynq.NewTask(TypeReportWarmup, nil, asynq.MaxRetry(1), asynq.Timeout(time.Minute))
}
