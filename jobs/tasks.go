// Package jobs runs the back office's background tasks on Asynq.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/amsilks/amsilks-erp/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAlertsScan logs cheques and supplier payments due today or tomorrow.
	TaskAlertsScan = "alerts:scan"
	// TaskIdempotencyCleanup purges old order-save idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// AlertsScanPayload is empty today; the scan always covers today and
// tomorrow.
type AlertsScanPayload struct {
	Source string `json:"source,omitempty"`
}

// NewAlertsScanTask constructs an alerts:scan task.
func NewAlertsScanTask(source string) (*asynq.Task, error) {
	data, err := json.Marshal(AlertsScanPayload{Source: source})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAlertsScan, data), nil
}

// IdempotencyCleanupPayload sets how long keys are kept.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// Retention returns the configured window, defaulting to 30 days.
func (p IdempotencyCleanupPayload) Retention() time.Duration {
	if p.RetentionHours <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(p.RetentionHours) * time.Hour
}

// NewIdempotencyCleanupTask constructs an idempotency:cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: int(retention / time.Hour)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
