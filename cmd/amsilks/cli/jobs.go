package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hibiken/asynq"

	"github.com/amsilks/amsilks-erp/jobs"
)

// TaskTrigger enqueues a job by type. *jobs.Client satisfies it.
type TaskTrigger interface {
	Trigger(ctx context.Context, taskType string) (*asynq.TaskInfo, error)
}

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	trigger   TaskTrigger
	inspector jobs.QueueInspector
}

// NewJobsCLI builds the helpers around an existing client and inspector.
func NewJobsCLI(trigger TaskTrigger, inspector jobs.QueueInspector) *JobsCLI {
	return &JobsCLI{trigger: trigger, inspector: inspector}
}

// JobsOptions defines the flags shared by the jobs subcommands.
type JobsOptions struct {
	Task       string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

func (o *JobsOptions) defaults() {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}

// TriggerCommand enqueues opts.Task and prints the task id.
func (c *JobsCLI) TriggerCommand(ctx context.Context, opts JobsOptions) int {
	opts.defaults()
	if c == nil || c.trigger == nil {
		_, _ = fmt.Fprintln(opts.Stderr, "jobs trigger: client not configured")
		return 1
	}
	if opts.Task == "" {
		_, _ = fmt.Fprintf(opts.Stderr, "jobs trigger: task is required (%s or %s)\n", jobs.TaskAlertsScan, jobs.TaskIdempotencyCleanup)
		return 1
	}
	info, err := c.trigger.Trigger(ctx, opts.Task)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "jobs trigger: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(opts.Stdout, "enqueued %s as %s on %s\n", opts.Task, info.ID, info.Queue)
	return 0
}

// StatsCommand prints the default queue counters.
func (c *JobsCLI) StatsCommand(ctx context.Context, opts JobsOptions) int {
	opts.defaults()
	if c == nil || c.inspector == nil {
		_, _ = fmt.Fprintln(opts.Stderr, "jobs stats: inspector not configured")
		return 1
	}
	stats, err := jobs.Stats(c.inspector)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "jobs stats: %v\n", err)
		return 1
	}
	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(stats); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "jobs stats: encode json: %v\n", err)
			return 1
		}
		return 0
	}
	_, _ = fmt.Fprintf(opts.Stdout, "queue %s: pending=%d active=%d scheduled=%d retry=%d\n",
		stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	return 0
}
