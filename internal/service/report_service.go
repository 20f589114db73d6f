package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/AIObjectives/tttc-light-js-sub003/internal/model"
	"github.com/AIObjectives/tttc-light-js-sub003/internal/queue"
)

// ErrJobNotFound is returned when no status record exists for an id.
var ErrJobNotFound = errors.New("job not found")

const jobTTL = 7 * 24 * time.Hour

// defaultModel is used when a submission doesn't pick one.
const defaultModel = "gpt-4o-mini"

// ReportService owns the external status records (the source of truth for
// idempotency) and the enqueue path. Records live in redis under job:%s.
type ReportService struct {
	redis *redis.Client
	queue queue.Queue
}

func NewReportService(redisClient *redis.Client, q queue.Queue) *ReportService {
	return &ReportService{redis: redisClient, queue: q}
}

// CreateReport writes the initial queued record and publishes the job.
func (s *ReportService) CreateReport(ctx context.Context, req *model.CreateReportRequest, requestID string) (*model.CreateReportResponse, error) {
	reportID := uuid.New().String()
	now := time.Now()

	details := req.ReportDetails
	if details.Filename == "" {
		details.Filename = reportID + ".json"
	}
	modelName := req.ModelName
	if modelName == "" {
		modelName = defaultModel
	}

	job := &model.PipelineJob{
		Config: model.JobConfig{
			ReportID:     reportID,
			LLM:          model.LLMConfig{ModelName: modelName},
			Instructions: req.Instructions,
			APIKey:       req.APIKey,
			Options:      model.JobOptions{Cruxes: req.Cruxes},
		},
		Data:          req.Data,
		ReportDetails: details,
	}

	record := &model.Job{
		ID:        reportID,
		Status:    model.StatusQueued,
		Filename:  details.Filename,
		CreatedAt: now,
	}
	if err := s.saveJob(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save job record: %w", err)
	}

	if err := s.queue.Enqueue(ctx, job, &queue.EnqueueOptions{RequestID: requestID}); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	return &model.CreateReportResponse{
		ReportID:  reportID,
		Status:    model.StatusQueued,
		CreatedAt: now,
	}, nil
}

// GetStatusByID looks up a status record. A missing record is (nil, nil):
// per the idempotency rules it means "safe to process", not an error.
func (s *ReportService) GetStatusByID(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.getJob(ctx, id)
	if errors.Is(err, ErrJobNotFound) {
		return nil, nil
	}
	return job, err
}

// GetStatus shapes a record for polling clients; a missing record surfaces
// as the notFound status rather than an error.
func (s *ReportService) GetStatus(ctx context.Context, id string) (*model.StatusResponse, error) {
	job, err := s.getJob(ctx, id)
	if errors.Is(err, ErrJobNotFound) {
		return &model.StatusResponse{ReportID: id, Status: model.StatusNotFound}, nil
	}
	if err != nil {
		return nil, err
	}
	return &model.StatusResponse{
		ReportID:  job.ID,
		Status:    job.Status,
		Error:     job.Error,
		ReportURL: job.ReportURL,
		Stats:     job.Stats,
	}, nil
}

// GetJob returns the raw status record, ErrJobNotFound when missing.
func (s *ReportService) GetJob(ctx context.Context, id string) (*model.Job, error) {
	return s.getJob(ctx, id)
}

// UpdateStatus moves a record to the given status, attaching an error
// message when one is supplied.
func (s *ReportService) UpdateStatus(ctx context.Context, id string, status model.JobStatus, errMsg string) error {
	job, err := s.getJob(ctx, id)
	if err != nil {
		return err
	}

	if job.Status == model.StatusQueued && status.InFlight() {
		now := time.Now()
		job.StartedAt = &now
	}
	if status.Terminal() {
		now := time.Now()
		job.CompletedAt = &now
	}
	if status == model.StatusFailed {
		job.RetryCount++
	}
	job.Status = status
	if errMsg != "" {
		job.Error = &errMsg
	}

	return s.saveJob(ctx, job)
}

// UpdateStats attaches the computed report statistics and the stored
// report's URL to the record.
func (s *ReportService) UpdateStats(ctx context.Context, id, jobID string, stats model.ReportStats, reportURL string) error {
	job, err := s.getJob(ctx, id)
	if err != nil {
		return err
	}

	if jobID != "" && jobID != id {
		log.Printf("Updating stats for job %s (legacy id %s)", id, jobID)
	}
	job.Stats = &stats
	job.ReportURL = reportURL
	return s.saveJob(ctx, job)
}

func (s *ReportService) saveJob(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, fmt.Sprintf("job:%s", job.ID), data, jobTTL).Err()
}

func (s *ReportService) getJob(ctx context.Context, id string) (*model.Job, error) {
	data, err := s.redis.Get(ctx, fmt.Sprintf("job:%s", id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
