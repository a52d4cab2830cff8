// Package jobs runs background work on Asynq queues.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue all background jobs run on.
	QueueDefault = "default"
	// TaskLowStockScan flags supply items at or below their threshold.
	TaskLowStockScan = "inventory:lowstock_scan"
	// TaskStatsWarmup refreshes the cached comprehensive statistics.
	TaskStatsWarmup = "reports:snapshot"
)

// LowStockScanPayload carries scheduling metadata for the stock scan.
type LowStockScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLowStockScanTask constructs the nightly low-stock scan task.
func NewLowStockScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(LowStockScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, body, asynq.Queue(QueueDefault)), nil
}

// StatsWarmupPayload carries scheduling metadata for the stats refresh.
type StatsWarmupPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewStatsWarmupTask constructs the comprehensive stats refresh task.
func NewStatsWarmupTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(StatsWarmupPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStatsWarmup, body, asynq.Queue(QueueDefault)), nil
}
