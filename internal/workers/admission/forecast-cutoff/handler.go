package forecastcutoff

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"admission-workers/internal/cache"
	"admission-workers/internal/common/errors"
	"admission-workers/internal/common/logger"
	"admission-workers/internal/common/metrics"
	"admission-workers/internal/common/observability"
	"admission-workers/internal/models"
	"admission-workers/internal/prediction/trend"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "forecast-cutoff"
)

type HistoryStore interface {
	LatestCutoffYear(ctx context.Context, category string) (int, error)
	LoadCutoffHistory(ctx context.Context, courseID, category string) ([]models.CutoffObservation, error)
}

type Handler struct {
	config     *Config
	store      HistoryStore
	forecasts  *cache.ForecastCache
	forecaster *trend.Forecaster
	obs        *observability.Observability
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, store HistoryStore, forecasts *cache.ForecastCache, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		store:      store,
		forecasts:  forecasts,
		forecaster: trend.NewForecaster(),
		obs:        obs,
		errHandler: errors.NewErrorHandler(log),
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()
	ctx, span := h.obs.StartJobSpan(ctx, TaskType, job.Key)

	var output *Output
	input, err := ParseInput([]byte(job.Variables))
	if err == nil {
		output, err = h.execute(ctx, input)
	}
	observability.EndJobSpan(span, err)

	if err != nil {
		stdErr := errors.AsStandardError(err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.obs.RecordJob(ctx, TaskType, "failed", time.Since(start))
		h.errHandler.HandleJobError(context.Background(), client, job, stdErr)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJob(ctx, TaskType, "completed", time.Since(start))
}

func ParseInput(variables []byte) (*Input, error) {
	result, err := inputSchema.Validate(variables)
	if err != nil {
		return nil, errors.NewSchemaValidationError(err.Error())
	}
	if !result.Valid {
		return nil, errors.NewSchemaValidationError(result.Summary())
	}

	var input Input
	if err := json.Unmarshal(variables, &input); err != nil {
		return nil, errors.NewSchemaValidationError(fmt.Sprintf("decode variables: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	category := strings.ToUpper(strings.TrimSpace(input.Category))

	targetYear := input.TargetYear
	if targetYear == 0 {
		dataYear, err := h.store.LatestCutoffYear(ctx, category)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("latest_cutoff_year", err)
		}
		if dataYear == 0 {
			return nil, errors.NewCutoffDataMissingError(category)
		}
		targetYear = dataYear + 1
	}

	if cached, ok := h.forecasts.Get(ctx, input.CourseID, category, targetYear); ok {
		return &Output{
			CourseID:  input.CourseID,
			Category:  category,
			Forecast:  cached.Forecast,
			History:   cached.History,
			FromCache: true,
		}, nil
	}

	history, err := h.store.LoadCutoffHistory(ctx, input.CourseID, category)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("cutoff_history", err)
	}
	if len(history) == 0 {
		return nil, errors.NewCutoffHistoryEmptyError(input.CourseID, category)
	}

	forecast, err := h.forecaster.Forecast(history, targetYear)
	if err != nil {
		// targetYear is the only caller-controlled input the forecaster checks.
		if verr := asTargetYearError(err); verr != nil {
			return nil, errors.NewPredictionInputInvalidError(verr)
		}
		return nil, errors.NewPredictionUnavailableError(err)
	}
	h.forecasts.Set(ctx, input.CourseID, category, cache.ForecastEntry{Forecast: forecast, History: history})

	h.logger.Debug("forecast computed", map[string]interface{}{
		"courseId":   input.CourseID,
		"category":   category,
		"targetYear": targetYear,
		"trend":      forecast.Trend,
		"confidence": forecast.ConfidenceLevel,
	})

	return &Output{
		CourseID: input.CourseID,
		Category: category,
		Forecast: forecast,
		History:  history,
	}, nil
}

func asTargetYearError(err error) *errors.ValidationError {
	if verr, ok := errors.AsValidationError(err); ok && verr.Field == "targetYear" {
		return verr
	}
	return nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
