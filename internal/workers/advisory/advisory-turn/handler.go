// internal/workers/advisory/advisory-turn/handler.go
package advisoryturn

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"loan-advisor/internal/common/config"
	"loan-advisor/internal/common/errors"
	"loan-advisor/internal/common/logger"
	"loan-advisor/internal/common/metrics"
	"loan-advisor/internal/common/validation"
	"loan-advisor/internal/models"
)

const TaskType = "advisory-turn"

// TurnHandler runs one advisory turn.
type TurnHandler interface {
	HandleTurn(ctx context.Context, req models.TurnRequest) (*models.TurnResult, error)
}

type Handler struct {
	config       *Config
	advisor      TurnHandler
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Advisor      TurnHandler
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
	if opts.Advisor == nil {
		return nil, fmt.Errorf("%s: advisor is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       cfg,
		advisor:      opts.Advisor,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}, nil
}

func (h *Handler) Config() *Config { return h.config }

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	var output *Output
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		err = errors.NewValidationError(fmt.Sprintf("parse job variables: %v", err))
	} else {
		var req *models.TurnRequest
		if req, err = ParseVariables(variables); err == nil {
			output, err = h.Execute(ctx, req)
		}
	}

	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.AsStandardError(err).Code)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return nil
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err.Error()})
		return err
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err.Error()})
		return err
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	return nil
}

// ParseVariables validates raw job variables and decodes a TurnRequest.
func ParseVariables(variables map[string]interface{}) (*models.TurnRequest, error) {
	if err := validation.ValidateInput(variables, GetInputSchema()).Err(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(variables)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	var req models.TurnRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	return &req, nil
}

func (h *Handler) Execute(ctx context.Context, req *models.TurnRequest) (*Output, error) {
	result, err := h.advisor.HandleTurn(ctx, *req)
	if err != nil {
		return nil, err
	}
	return newOutput(result), nil
}
