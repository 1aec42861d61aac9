// internal/workers/advisory/check-eligibility/handler.go
package checkeligibility

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"loan-advisor/internal/advisor/eligibility"
	"loan-advisor/internal/common/config"
	"loan-advisor/internal/common/errors"
	"loan-advisor/internal/common/logger"
	"loan-advisor/internal/common/metrics"
	"loan-advisor/internal/common/validation"
	"loan-advisor/internal/store"
)

const TaskType = "check-eligibility"

type Handler struct {
	config       *Config
	catalog      store.Catalog
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Catalog      store.Catalog
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.CustomConfig
	if cfg == nil {
		cfg = LoadConfig(opts.AppConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Catalog == nil {
		return nil, fmt.Errorf("%s: catalog is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       cfg,
		catalog:      opts.Catalog,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}, nil
}

func (h *Handler) Config() *Config { return h.config }

// Handle completes the job with verdict variables. Verdict errors become fail
// or throw commands; the returned error only reports a failed completion.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err == nil {
		var output *Output
		if output, err = h.Execute(ctx, input); err == nil {
			if err := h.completeJob(ctx, client, job, output); err != nil {
				return err
			}
			metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
			metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
			return nil
		}
	}

	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.AsStandardError(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
	return nil
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("parse job variables: %v", err))
	}
	return ParseVariables(variables)
}

// ParseVariables validates raw job variables and decodes them into Input.
func ParseVariables(variables map[string]interface{}) (*Input, error) {
	if err := validation.ValidateInput(variables, GetInputSchema()).Err(); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(variables)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if input.Criteria == nil && input.LoanID == "" {
		return nil, errors.NewValidationError("either criteria or loanId is required")
	}
	return &input, nil
}

// Execute scores the profile. Criteria come from the input or, failing
// that, from the catalog entry named by LoanID.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	out := &Output{LoanID: input.LoanID}

	criteria := input.Criteria
	if criteria == nil {
		loan, err := h.catalog.GetLoan(ctx, input.LoanID)
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewLoanNotFoundError(input.LoanID)
		}
		if err != nil {
			return nil, errors.NewCatalogUnavailableError(err)
		}
		criteria = &loan.EligibilityCriteria
		out.LoanName = loan.Name.EN
	}

	verdict := eligibility.Evaluate(input.Profile, *criteria)
	metrics.RecordEligibility(verdict.IsEligible)

	out.IsEligible = verdict.IsEligible
	out.EligibilityScore = verdict.Score
	out.EligibilityStatus = verdict.Status
	out.Recommendation = verdict.Recommendation
	out.EligibilityDetails = verdict.Details

	h.logger.Info("eligibility evaluated", map[string]interface{}{
		"loanId":     input.LoanID,
		"isEligible": verdict.IsEligible,
		"score":      verdict.Score,
	})
	return out, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err.Error()})
		return err
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err.Error()})
		return err
	}
	return nil
}
