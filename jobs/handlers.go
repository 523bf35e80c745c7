package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/deristok/deristok/internal/inventory"
	"github.com/deristok/deristok/internal/reports"
	"github.com/deristok/deristok/internal/shared"
)

// Handlers processes background tasks.
type Handlers struct {
	logger      *slog.Logger
	pool        *pgxpool.Pool
	idempotency *shared.IdempotencyStore
	reports     *reports.Service
	keyMaxAge   time.Duration
}

// NewHandlers constructs Handlers.
func NewHandlers(logger *slog.Logger, pool *pgxpool.Pool, idem *shared.IdempotencyStore, reportsSvc *reports.Service) *Handlers {
	return &Handlers{logger: logger, pool: pool, idempotency: idem, reports: reportsSvc, keyMaxAge: 24 * time.Hour}
}

// Register binds task types onto the mux.
func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeIntegrityScan, h.HandleIntegrityScan)
	mux.HandleFunc(TypeIdempotencyCleanup, h.HandleIdempotencyCleanup)
	mux.HandleFunc(TypeReportWarmup, h.HandleReportWarmup)
}

type stockMismatch struct {
	ItemID   int64
	Name     string
	Stock    float64
	Movement float64
}

// HandleIntegrityScan recomputes each item's stock from its movement log and
// reports disagreements. Concurrent workflow races can produce them (reads of
// the same previous_stock are not serialised), so findings are logged for an
// operator, not auto-corrected.
func (h *Handlers) HandleIntegrityScan(ctx context.Context, _ *asynq.Task) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, kind := range []inventory.ItemKind{inventory.KindProduct, inventory.KindMaterial} {
		g.Go(func() error {
			mismatches, err := h.scanKind(ctx, kind)
			if err != nil {
				return fmt.Errorf("scan %s: %w", kind, err)
			}
			for _, m := range mismatches {
				h.logger.Warn("stock does not match movement log",
					slog.String("kind", string(kind)),
					slog.Int64("item_id", m.ItemID),
					slog.String("name", m.Name),
					slog.Float64("stock", m.Stock),
					slog.Float64("movement_sum", m.Movement))
			}
			h.logger.Info("integrity scan done", slog.String("kind", string(kind)), slog.Int("mismatches", len(mismatches)))
			return nil
		})
	}
	return g.Wait()
}

func (h *Handlers) scanKind(ctx context.Context, kind inventory.ItemKind) ([]stockMismatch, error) {
	query := fmt.Sprintf(`SELECT i.id, i.name, i.stock_quantity,
COALESCE(SUM(CASE WHEN m.kind='in' THEN m.quantity ELSE -m.quantity END), 0) AS movement_sum
FROM %s i LEFT JOIN %s m ON m.%s = i.id
GROUP BY i.id, i.name, i.stock_quantity
HAVING ABS(i.stock_quantity - COALESCE(SUM(CASE WHEN m.kind='in' THEN m.quantity ELSE -m.quantity END), 0)) > 0.0001`,
		inventory.ItemTable(kind), inventory.MovementTable(kind), inventory.MovementItemColumn(kind))
	rows, err := h.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	mismatches := []stockMismatch{}
	for rows.Next() {
		var m stockMismatch
		if err := rows.Scan(&m.ItemID, &m.Name, &m.Stock, &m.Movement); err != nil {
			return nil, err
		}
		mismatches = append(mismatches, m)
	}
	return mismatches, rows.Err()
}

// HandleIdempotencyCleanup drops spent idempotency keys past their window.
func (h *Handlers) HandleIdempotencyCleanup(ctx context.Context, _ *asynq.Task) error {
	if err := h.idempotency.Cleanup(ctx, h.keyMaxAge); err != nil {
		return fmt.Errorf("idempotency cleanup: %w", err)
	}
	return nil
}

// HandleReportWarmup rebuilds the report summary cache.
func (h *Handlers) HandleReportWarmup(ctx context.Context, _ *asynq.Task) error {
	h.reports.Invalidate(ctx)
	if _, err := h.reports.Summary(ctx); err != nil {
		return fmt.Errorf("report warmup: %w", err)
	}
	return nil
}
