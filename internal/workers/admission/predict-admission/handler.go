package predictadmission

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
	"admission-workers/internal/prediction"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "predict-admission"
)

// ProfileStore loads the admission data a prediction runs over.
type ProfileStore interface {
	LatestCutoffYear(ctx context.Context, category string) (int, error)
	LoadCollegeProfiles(ctx context.Context, category string, year int, collegeIDs []string) ([]models.CollegeProfile, error)
}

type Handler struct {
	config     *Config
	store      ProfileStore
	profiles   *cache.ProfileCache
	engine     *prediction.Orchestrator
	obs        *observability.Observability
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

// NewHandler wires the worker. profiles and obs may be nil.
func NewHandler(config *Config, store ProfileStore, profiles *cache.ProfileCache, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		store:      store,
		profiles:   profiles,
		engine:     prediction.NewOrchestrator(prediction.WithConcurrency(config.Concurrency)),
		obs:        obs,
		errHandler: errors.NewErrorHandler(log),
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()
	ctx, span := h.obs.StartJobSpan(ctx, TaskType, job.Key)

	output, err := h.process(ctx, job)
	observability.EndJobSpan(span, err)
	if err != nil {
		stdErr := errors.AsStandardError(err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.obs.RecordJob(ctx, TaskType, "failed", time.Since(start))
		h.errHandler.HandleJobError(context.Background(), client, job, stdErr)
		return
	}

	h.completeJob(context.Background(), client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJob(ctx, TaskType, "completed", time.Since(start))
}

func (h *Handler) process(ctx context.Context, job entities.Job) (*Output, error) {
	input, err := ParseInput([]byte(job.Variables))
	if err != nil {
		metrics.PredictionsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return nil, err
	}
	return h.execute(ctx, input)
}

// ParseInput validates raw job variables against the input schema and decodes them.
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
	output, err := h.predict(ctx, input)
	switch {
	case err != nil && errors.IsValidation(err):
		metrics.PredictionsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
	case err != nil:
		metrics.PredictionsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
	case output.CollegeCount == 0:
		metrics.PredictionsTotal.WithLabelValues(metrics.OutcomeNoneEligible).Inc()
	default:
		metrics.PredictionsTotal.WithLabelValues(metrics.OutcomeRanked).Inc()
		metrics.CollegesRanked.Observe(float64(output.CollegeCount))
	}
	return output, err
}

func (h *Handler) predict(ctx context.Context, input *Input) (*Output, error) {
	if input.Rank < 1 || input.Rank > h.config.MaxRank {
		return nil, errors.NewValidationError("rank", input.Rank, fmt.Sprintf("rank must be between 1 and %d", h.config.MaxRank))
	}
	category := strings.ToUpper(strings.TrimSpace(input.Category))
	if category == "" {
		return nil, errors.NewValidationError("category", input.Category, "category is required")
	}
	if h.config.MaxColleges > 0 && len(input.CollegeIDs) > h.config.MaxColleges {
		return nil, errors.NewValidationError("collegeIds", len(input.CollegeIDs), fmt.Sprintf("at most %d colleges per request", h.config.MaxColleges))
	}

	dataYear, err := h.store.LatestCutoffYear(ctx, category)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("latest_cutoff_year", err)
	}
	if dataYear == 0 {
		return nil, errors.NewCutoffDataMissingError(category)
	}

	targetYear := input.TargetYear
	if targetYear == 0 {
		targetYear = dataYear + 1
	}
	if targetYear <= dataYear {
		return nil, errors.NewValidationError("targetYear", targetYear, fmt.Sprintf("target year must be after %d", dataYear))
	}

	colleges, err := h.loadProfiles(ctx, category, dataYear, input.CollegeIDs)
	if err != nil {
		return nil, err
	}

	weights := input.Weights.Resolve(h.config.DefaultWeights)
	results, err := h.engine.Predict(ctx, prediction.Request{
		Rank:              input.Rank,
		Category:          category,
		Colleges:          colleges,
		Weights:           weights,
		PreferredLocation: input.PreferredLocation,
		TargetYear:        targetYear,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewTimeoutError("prediction", err)
		}
		h.logger.Error("prediction engine rejected stored data", map[string]interface{}{
			"category": category,
			"dataYear": dataYear,
			"error":    err,
		})
		return nil, errors.NewPredictionUnavailableError(err)
	}
	if results == nil {
		results = []models.CollegeResult{}
	}

	h.logger.Info("prediction complete", map[string]interface{}{
		"category":        category,
		"dataYear":        dataYear,
		"collegesScanned": len(colleges),
		"collegesRanked":  len(results),
	})

	return &Output{
		PredictionID:   uuid.NewString(),
		Rank:           input.Rank,
		Category:       category,
		DataYear:       dataYear,
		TargetYear:     targetYear,
		AppliedWeights: weights,
		Colleges:       results,
		CollegeCount:   len(results),
		GeneratedAt:    time.Now().UTC(),
	}, nil
}

func (h *Handler) loadProfiles(ctx context.Context, category string, year int, collegeIDs []string) ([]models.CollegeProfile, error) {
	if cached, ok := h.profiles.Get(ctx, category, year, collegeIDs); ok {
		return cached, nil
	}

	colleges, err := h.store.LoadCollegeProfiles(ctx, category, year, collegeIDs)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewQueryTimeoutError("college_profiles")
		}
		return nil, errors.NewQueryExecutionFailedError("college_profiles", err)
	}
	if len(colleges) > 0 {
		h.profiles.Set(ctx, category, year, collegeIDs, colleges)
	}
	return colleges, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return
	}

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":       job.Key,
		"predictionId": output.PredictionID,
		"collegeCount": output.CollegeCount,
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
