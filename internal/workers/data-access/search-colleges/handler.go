package searchcolleges

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"admission-workers/internal/common/errors"
	"admission-workers/internal/common/logger"
	"admission-workers/internal/common/metrics"
	"admission-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
)

const (
	TaskType = "search-colleges"
)

type Handler struct {
	config     *Config
	client     *elasticsearch.Client
	obs        *observability.Observability
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, client *elasticsearch.Client, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		client:     client,
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
	size := h.config.MaxResults
	if input.Limit > 0 && input.Limit < size {
		size = input.Limit
	}

	body, err := json.Marshal(BuildQuery(input))
	if err != nil {
		return nil, errors.NewInvalidFilterFormatError(err.Error())
	}

	res, err := h.client.Search(
		h.client.Search.WithContext(ctx),
		h.client.Search.WithIndex(h.config.Index),
		h.client.Search.WithBody(bytes.NewReader(body)),
		h.client.Search.WithSize(size),
	)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewSearchTimeoutError("college_name")
		}
		return nil, errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, errors.NewIndexNotFoundError(h.config.Index)
	}
	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError("college_name", fmt.Errorf("search failed: %s", res.String()))
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, errors.NewSearchQueryFailedError("college_name", fmt.Errorf("decode response: %w", err))
	}

	output := &Output{
		CollegeIDs: make([]string, 0, len(r.Hits.Hits)),
		Matches:    make([]CollegeMatch, 0, len(r.Hits.Hits)),
		TotalHits:  r.Hits.Total.Value,
		Took:       r.Took,
	}
	for _, hit := range r.Hits.Hits {
		id := hit.Source.CollegeID
		if id == "" {
			id = hit.ID
		}
		output.CollegeIDs = append(output.CollegeIDs, id)
		output.Matches = append(output.Matches, CollegeMatch{
			CollegeID: id,
			Name:      hit.Source.Name,
			City:      hit.Source.City,
			Score:     hit.Score,
		})
	}

	h.logger.Debug("college search complete", map[string]interface{}{
		"query":     input.Query,
		"totalHits": output.TotalHits,
		"returned":  len(output.Matches),
	})
	return output, nil
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
