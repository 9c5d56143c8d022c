package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/skillsenselab/scribe/errors"
	"github.com/skillsenselab/scribe/logger"
	"github.com/skillsenselab/scribe/media"
	"github.com/skillsenselab/scribe/server"
	"github.com/skillsenselab/scribe/transcription"
)

// SubmitJob accepts an audio upload, registers a job, and returns its id
// before any transcription work happens.
func (h *Handler) SubmitJob(c *gin.Context) {
	req, err := decodeUpload(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	id, err := h.jobs.Submit(c.Request.Context(), *req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, gin.H{"jobId": id})
}

// JobStatus reports the current state of a job. A missing jobId parameter is
// a client error distinct from an unknown id.
func (h *Handler) JobStatus(c *gin.Context) {
	id := c.Query("jobId")
	if id == "" {
		server.RespondWithError(c, apperrors.MissingField("jobId"))
		return
	}

	view, err := h.jobs.Status(id)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, view)
}

// Transcribe performs the provider call inline and blocks until it finishes.
// Containers the provider rejects are converted to mp3 first.
func (h *Handler) Transcribe(c *gin.Context) {
	req, err := decodeUpload(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	audio, filename, mediaType := req.Audio, req.Filename, req.MediaType

	if h.converter != nil && media.NeedsConversion(filename) {
		start := time.Now()
		converted, convertedName, err := h.converter.ToMP3(ctx, audio, filename)
		if err != nil {
			server.RespondWithError(c, apperrors.Internal(fmt.Errorf("audio conversion: %w", err)))
			return
		}
		audio, filename, mediaType = converted, convertedName, "audio/mpeg"
		h.log.Debug("Converted upload before transcription", logger.Fields(
			"file", req.Filename,
			logger.FieldDuration, time.Since(start).Milliseconds(),
		))
	}

	resp, err := h.provider.Transcribe(ctx, transcription.Request{
		Audio:     audio,
		Filename:  filename,
		MediaType: mediaType,
		APIKey:    req.APIKey,
		Language:  req.Language,
	})
	if err != nil {
		server.RespondWithError(c, apperrors.ExternalServiceError(h.provider.Name(), err))
		return
	}
	server.RespondOK(c, gin.H{"text": resp.Text})
}

// Health is the liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
