package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/skillsenselab/scribe/errors"
	"github.com/skillsenselab/scribe/jobs"
	"github.com/skillsenselab/scribe/validation"
)

// multipartMemoryLimit caps how much of the form is held in memory during
// parsing; larger parts spill to temp files.
const multipartMemoryLimit = 32 << 20

type uploadForm struct {
	APIKey   string `json:"apiKey" validate:"required"`
	Language string `json:"language" validate:"omitempty,bcp47_language_tag"`
}

// decodeUpload parses the multipart submission shared by the job and the
// synchronous endpoint. A body that is not valid multipart is a server-side
// decode failure, not client validation, and maps to 500.
func decodeUpload(c *gin.Context) (*jobs.SubmitRequest, error) {
	if err := c.Request.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperrors.InvalidInput("audio", fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
		}
		return nil, apperrors.Internal(fmt.Errorf("parse multipart form: %w", err))
	}

	form := uploadForm{
		APIKey:   c.PostForm("apiKey"),
		Language: c.PostForm("language"),
	}
	if err := validation.Validate(form); err != nil {
		return nil, err
	}

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		return nil, apperrors.MissingField("audio")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("read audio upload: %w", err))
	}

	return &jobs.SubmitRequest{
		Audio:     data,
		Filename:  header.Filename,
		MediaType: header.Header.Get("Content-Type"),
		APIKey:    form.APIKey,
		Language:  form.Language,
	}, nil
}
