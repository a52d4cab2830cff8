package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/clarion-hms/clarion/internal/reports"
)

// StatsWarmer refreshes the cached comprehensive statistics so the dashboard
// never pays the fan-out cost on a cold cache.
type StatsWarmer struct {
	reports *reports.Service
	logger  *slog.Logger
}

// NewStatsWarmer constructs the warmer.
func NewStatsWarmer(svc *reports.Service, logger *slog.Logger) *StatsWarmer {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsWarmer{reports: svc, logger: logger}
}

// Handle processes one TaskStatsWarmup task.
func (s *StatsWarmer) Handle(ctx context.Context, t *asynq.Task) error {
	var payload StatsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if err := s.reports.InvalidateComprehensive(ctx); err != nil {
		return err
	}
	stats, err := s.reports.Comprehensive(ctx, reports.Filter{})
	if err != nil {
		return err
	}
	s.logger.Info("comprehensive stats warmed",
		slog.Time("scheduled_for", payload.ScheduledFor),
		slog.Time("generated_at", stats.GeneratedAt))
	return nil
}
