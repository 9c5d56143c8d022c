// Package api wires the HTTP surface of the transcription service: job
// submission, status polling, the synchronous transcribe endpoint, and the
// liveness probe.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/scribe/jobs"
	"github.com/skillsenselab/scribe/logger"
	"github.com/skillsenselab/scribe/media"
	"github.com/skillsenselab/scribe/transcription"
)

// Handler holds the dependencies of the HTTP handlers. converter may be nil,
// in which case uploads are passed to the provider unconverted.
type Handler struct {
	jobs      *jobs.Service
	provider  transcription.Provider
	converter *media.Converter
	log       *logger.Logger
}

// NewHandler creates the HTTP handler set.
func NewHandler(jobSvc *jobs.Service, provider transcription.Provider, converter *media.Converter, log *logger.Logger) *Handler {
	return &Handler{
		jobs:      jobSvc,
		provider:  provider,
		converter: converter,
		log:       log.WithComponent("api"),
	}
}

// RegisterRoutes attaches all endpoints to the engine.
func (h *Handler) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/health", h.Health)

	group := engine.Group("/api")
	group.POST("/jobs", h.SubmitJob)
	group.GET("/jobs/status", h.JobStatus)
	group.POST("/transcribe", h.Transcribe)
}
