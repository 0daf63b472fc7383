package estimateadmissionprobability

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"admission-workers/internal/common/errors"
	"admission-workers/internal/common/logger"
	"admission-workers/internal/common/metrics"
	"admission-workers/internal/common/observability"
	"admission-workers/internal/models"
	"admission-workers/internal/prediction/probability"
	"admission-workers/internal/repository"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "estimate-admission-probability"
)

type CourseStore interface {
	LoadCourse(ctx context.Context, courseID, category string) (*models.CourseEligibility, error)
}

type Handler struct {
	config     *Config
	store      CourseStore
	estimator  *probability.Estimator
	obs        *observability.Observability
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, store CourseStore, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		store:      store,
		estimator:  probability.NewEstimator(),
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
	if input.Rank < 1 || input.Rank > h.config.MaxRank {
		return nil, errors.NewValidationError("rank", input.Rank, fmt.Sprintf("rank must be between 1 and %d", h.config.MaxRank))
	}
	category := strings.ToUpper(strings.TrimSpace(input.Category))

	course, err := h.store.LoadCourse(ctx, input.CourseID, category)
	if err != nil {
		if stderrors.Is(err, repository.ErrCourseNotFound) {
			return nil, errors.NewCourseNotFoundError(input.CourseID, category)
		}
		if repository.IsConnectionError(err) {
			return nil, errors.NewDatabaseConnectionFailedError(err)
		}
		return nil, errors.NewQueryExecutionFailedError("course", err)
	}
	if len(course.HistoricalObservations) == 0 {
		return nil, errors.NewCutoffHistoryEmptyError(input.CourseID, category)
	}

	prob, err := h.estimator.Estimate(input.Rank, course.CurrentCutoff, course.HistoricalRanks())
	if err != nil {
		return nil, errors.NewPredictionUnavailableError(err)
	}

	return &Output{
		CourseID:      course.CourseID,
		CourseName:    course.CourseName,
		Category:      category,
		Rank:          input.Rank,
		CurrentCutoff: course.CurrentCutoff,
		CutoffYear:    course.LatestYear(),
		Eligible:      prob.Eligible(),
		Probability:   prob,
	}, nil
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
