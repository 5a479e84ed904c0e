package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/amsilks/amsilks-erp/internal/alerts"
	jobmetrics "github.com/amsilks/amsilks-erp/internal/jobs"
)

// AlertScanner builds the due-items digest.
type AlertScanner interface {
	Scan(ctx context.Context) (alerts.Digest, error)
}

// AlertsScanJob logs every cheque and supplier payment due today or
// tomorrow, one warning per item.
type AlertsScanJob struct {
	Scanner AlertScanner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewAlertsScanJob initialises the alerts scan handler.
func NewAlertsScanJob(scanner AlertScanner, logger *slog.Logger, metrics *jobmetrics.Metrics) *AlertsScanJob {
	return &AlertsScanJob{Scanner: scanner, Logger: logger, Metrics: metrics}
}

// Handle executes the scan.
func (j *AlertsScanJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Scanner == nil {
		return errors.New("alerts scan: handler not configured")
	}
	var payload AlertsScanPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.metrics().Track(TaskAlertsScan)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	start := time.Now()
	logger := j.logger()
	digest, err := j.Scanner.Scan(ctx)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	j.report(logger, "today", digest.Today)
	j.report(logger, "tomorrow", digest.Tomorrow)
	logger.Info("completed alerts scan",
		slog.String("source", payload.Source),
		slog.Int("today", len(digest.Today)),
		slog.Int("tomorrow", len(digest.Tomorrow)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *AlertsScanJob) report(logger *slog.Logger, when string, items []alerts.Alert) {
	counts := make(map[alerts.Kind]int)
	for _, a := range items {
		attrs := []any{
			slog.String("when", when),
			slog.String("kind", string(a.Kind)),
			slog.Int64("entry_id", a.EntryID),
			slog.String("counterparty", a.Counterparty),
			slog.String("amount", a.Amount),
		}
		if a.Issue != "" {
			attrs = append(attrs, slog.String("issue", a.Issue))
		}
		logger.Warn(a.Message, attrs...)
		counts[a.Kind]++
	}
	for kind, n := range counts {
		j.metrics().AddDueAlerts(string(kind), when, n)
	}
}

func (j *AlertsScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAlertsScan))
	}
	return slog.Default().With(slog.String("job", TaskAlertsScan))
}

func (j *AlertsScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
