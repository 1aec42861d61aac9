// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"loan-advisor/internal/common/logger"
)

// JobHandler completes, fails or throws on the job itself. A returned error
// means the handler could not even report the outcome.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

// JobRecorder receives per-job measurements.
type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string)
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

type WorkerOptions struct {
	MaxJobsActive int
	Timeout       time.Duration
	Recorder      JobRecorder
}

func NewWorker(client zbc.Client, taskType string, handler JobHandler, opts WorkerOptions, log logger.Logger) *CamundaWorker {
	builder := client.NewJobWorker().
		JobType(taskType).
		Handler(wrapHandler(taskType, handler, opts.Recorder, log))

	step := builder.MaxJobsActive(maxJobs(opts.MaxJobsActive))
	if opts.Timeout > 0 {
		step = step.Timeout(opts.Timeout)
	}

	log.Info("worker started", map[string]interface{}{"task_type": taskType})
	return &CamundaWorker{
		worker:   step.Open(),
		logger:   log,
		taskType: taskType,
	}
}

func wrapHandler(taskType string, handler JobHandler, recorder JobRecorder, log logger.Logger) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		status := "handled"
		if err := handler.Handle(client, job); err != nil {
			status = "handler_error"
			log.Error("handler returned error", map[string]interface{}{
				"task_type": taskType,
				"job_key":   job.Key,
				"error":     err.Error(),
			})
		}
		if recorder != nil {
			ctx := context.Background()
			recorder.RecordJobProcessed(ctx, taskType, status)
			recorder.RecordJobDuration(ctx, taskType, time.Since(start), status)
		}
	}
}

func maxJobs(n int) int {
	if n <= 0 {
		return 5
	}
	return n
}

// Stop closes the job worker and waits for in-flight jobs. The shared
// client is closed by its owner.
func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{"task_type": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}
