package jobs

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "github.com/skillsenselab/scribe/errors"
	"github.com/skillsenselab/scribe/logger"
	"github.com/skillsenselab/scribe/observability"
	"github.com/skillsenselab/scribe/transcription"
	"github.com/skillsenselab/scribe/util"
)

// Config holds job pipeline configuration.
type Config struct {
	// Workers is the transcription worker pool size.
	Workers int `yaml:"workers" mapstructure:"workers"`
	// QueueSize is the dispatcher queue depth.
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size"`
	// MaxFileSize caps the accepted audio payload (e.g. "25MB").
	MaxFileSize string `yaml:"max_file_size" mapstructure:"max_file_size"`
	// Retention is how long terminal jobs stay readable before eviction.
	// Zero disables eviction.
	Retention time.Duration `yaml:"retention" mapstructure:"retention"`
	// SweepInterval is how often the janitor runs.
	SweepInterval time.Duration `yaml:"sweep_interval" mapstructure:"sweep_interval"`
}

const defaultMaxFileSize = 25 * 1024 * 1024

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.QueueSize == 0 {
		c.QueueSize = 256
	}
	if c.MaxFileSize == "" {
		c.MaxFileSize = "25MB"
	}
	if c.Retention == 0 {
		c.Retention = time.Hour
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = time.Minute
	}
}

// SubmitRequest is a decoded submission: audio payload plus credential.
type SubmitRequest struct {
	Audio     []byte
	Filename  string
	MediaType string
	APIKey    string
	Language  string
}

// Service owns the job store, the worker pool, and the janitor. It is the
// single writer for job state after creation.
type Service struct {
	cfg        Config
	store      Store
	provider   transcription.Provider
	dispatcher *Dispatcher
	metrics    *observability.JobMetrics
	log        *logger.Logger

	maxFileSize int64
	now         func() time.Time
	sweepDone   chan struct{}
	sweepStop   chan struct{}
}

// NewService creates the job service. metrics may be nil.
func NewService(cfg Config, store Store, provider transcription.Provider, metrics *observability.JobMetrics, log *logger.Logger) *Service {
	cfg.ApplyDefaults()
	s := &Service{
		cfg:         cfg,
		store:       store,
		provider:    provider,
		metrics:     metrics,
		log:         log.WithComponent("jobs"),
		maxFileSize: util.ParseSize(cfg.MaxFileSize, defaultMaxFileSize),
		now:         time.Now,
		sweepDone:   make(chan struct{}),
		sweepStop:   make(chan struct{}),
	}
	s.dispatcher = NewDispatcher(cfg.Workers, cfg.QueueSize, s.process)
	return s
}

// Name returns the component name.
func (s *Service) Name() string { return "jobs" }

// Start launches the worker pool and the retention janitor.
func (s *Service) Start(ctx context.Context) error {
	if err := s.dispatcher.Start(ctx); err != nil {
		return err
	}
	go s.sweepLoop()

	s.log.Info("Job service started", logger.Fields(
		"workers", s.cfg.Workers,
		"queue_size", s.cfg.QueueSize,
		"retention", s.cfg.Retention.String(),
	))
	return nil
}

// Stop drains in-flight work and stops the janitor.
func (s *Service) Stop(ctx context.Context) error {
	close(s.sweepStop)
	<-s.sweepDone
	return s.dispatcher.Stop(ctx)
}

// Submit validates the request, stores a pending job, and hands it to the
// worker pool. It returns the job id without waiting for transcription: the
// remote call can outlive any reasonable HTTP client timeout, so the caller
// trades one round trip for a submit-then-poll pair.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if len(req.Audio) == 0 {
		return "", apperrors.MissingField("audio")
	}
	if req.APIKey == "" {
		return "", apperrors.MissingField("apiKey")
	}
	if int64(len(req.Audio)) > s.maxFileSize {
		return "", apperrors.InvalidInput("audio", "file exceeds the maximum allowed size").
			WithDetail("max_bytes", s.maxFileSize)
	}

	id, err := NewJobID()
	if err != nil {
		return "", apperrors.Internal(err)
	}

	job := Job{
		Status: StatusPending,
		File: FilePayload{
			Data:      req.Audio,
			Name:      req.Filename,
			MediaType: req.MediaType,
		},
		APIKey:    req.APIKey,
		Language:  req.Language,
		CreatedAt: s.now(),
	}
	if err := s.store.Put(id, job); err != nil {
		return "", apperrors.Internal(err)
	}

	// The record must exist before the id is acknowledged; conversely, a
	// rejected submission must leave no record behind.
	if err := s.dispatcher.Enqueue(id); err != nil {
		s.store.Delete(id)
		if errors.Is(err, ErrQueueFull) {
			return "", apperrors.ServiceUnavailable("transcription queue")
		}
		return "", apperrors.Internal(err)
	}

	s.metrics.RecordSubmitted(ctx)
	s.log.Debug("Job submitted", logger.Fields(
		logger.FieldJobID, id,
		"file", req.Filename,
		"bytes", len(req.Audio),
		"api_key", util.MaskSecret(req.APIKey, 4),
	))
	return id, nil
}

// Status returns the client-visible view of a job.
func (s *Service) Status(id string) (StatusView, error) {
	job, err := s.store.Get(id)
	if err != nil {
		return StatusView{}, apperrors.NotFound("job", id)
	}
	return job.View(), nil
}

// process is the transcription worker body: one attempt, outcome recorded on
// the job, nothing returned to any caller.
func (s *Service) process(ctx context.Context, id string) {
	job, err := s.store.Get(id)
	if err != nil {
		// Evicted or never existed; nothing to do.
		return
	}

	if err := s.transition(id, StatusProcessing); err != nil {
		s.log.Warn("Skipping job in unexpected state", logger.Fields(
			logger.FieldJobID, id, logger.FieldError, err.Error(),
		))
		return
	}

	ctx, span := observability.StartSpan(ctx, "jobs.transcribe")
	span.SetAttributes(attribute.String("job.id", id))
	defer span.End()

	start := s.now()
	resp, callErr := s.provider.Transcribe(ctx, transcription.Request{
		Audio:     job.File.Data,
		Filename:  job.File.Name,
		MediaType: job.File.MediaType,
		APIKey:    job.APIKey,
		Language:  job.Language,
	})
	elapsed := s.now().Sub(start)

	if callErr != nil {
		span.RecordError(callErr)
		span.SetStatus(codes.Error, "transcription failed")
		s.fail(ctx, id, callErr, elapsed)
		return
	}
	s.complete(ctx, id, resp.Text, elapsed)
}

// transition applies a validated status change.
func (s *Service) transition(id string, to Status) error {
	return s.store.Update(id, func(j *Job) {
		if isValidTransition(j.Status, to) {
			j.Status = to
		}
	})
}

func (s *Service) complete(ctx context.Context, id, text string, elapsed time.Duration) {
	now := s.now()
	_ = s.store.Update(id, func(j *Job) {
		if !isValidTransition(j.Status, StatusCompleted) {
			return
		}
		j.Status = StatusCompleted
		j.Result = text
		j.DoneAt = now
	})
	s.metrics.RecordFinished(ctx, string(StatusCompleted), elapsed)
	s.log.Info("Job completed", logger.Fields(
		logger.FieldJobID, id,
		logger.FieldDuration, elapsed.Milliseconds(),
	))
}

func (s *Service) fail(ctx context.Context, id string, cause error, elapsed time.Duration) {
	now := s.now()
	_ = s.store.Update(id, func(j *Job) {
		if !isValidTransition(j.Status, StatusFailed) {
			return
		}
		j.Status = StatusFailed
		j.Error = cause.Error()
		j.DoneAt = now
	})
	s.metrics.RecordFinished(ctx, string(StatusFailed), elapsed)
	s.log.Warn("Job failed", logger.Fields(
		logger.FieldJobID, id,
		logger.FieldError, cause.Error(),
		logger.FieldDuration, elapsed.Milliseconds(),
	))
}

// sweepLoop evicts terminal jobs past their retention window.
func (s *Service) sweepLoop() {
	defer close(s.sweepDone)

	if s.cfg.Retention <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.sweepStop:
			return
		}
	}
}

// sweep runs one eviction pass. Split out from sweepLoop so tests can drive
// it with a fake clock.
func (s *Service) sweep() {
	cutoff := s.now().Add(-s.cfg.Retention)
	if n := s.store.EvictTerminal(cutoff); n > 0 {
		s.log.Debug("Evicted terminal jobs", logger.Fields("count", n))
	}
}
