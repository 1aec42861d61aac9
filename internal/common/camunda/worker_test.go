package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"

	"loan-advisor/internal/common/logger"
)

type handlerFunc func(worker.JobClient, entities.Job) error

func (f handlerFunc) Handle(c worker.JobClient, j entities.Job) error { return f(c, j) }

type fakeRecorder struct {
	statuses  []string
	durations int
}

func (r *fakeRecorder) RecordJobProcessed(_ context.Context, _ string, status string) {
	r.statuses = append(r.statuses, status)
}

func (r *fakeRecorder) RecordJobDuration(context.Context, string, time.Duration, string) {
	r.durations++
}

func TestWrapHandler_RecordsOutcome(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus string
	}{
		{name: "handled", wantStatus: "handled"},
		{name: "handler error", err: stderrors.New("complete job: unavailable"), wantStatus: "handler_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecorder{}
			var seen int64
			h := wrapHandler("check-eligibility", handlerFunc(func(_ worker.JobClient, job entities.Job) error {
				seen = job.Key
				return tt.err
			}), rec, logger.NewTestLogger(t))

			h(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 42}})

			assert.Equal(t, int64(42), seen)
			assert.Equal(t, []string{tt.wantStatus}, rec.statuses)
			assert.Equal(t, 1, rec.durations)
		})
	}
}

func TestMaxJobs(t *testing.T) {
	assert.Equal(t, 5, maxJobs(0))
	assert.Equal(t, 12, maxJobs(12))
}
