package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tankas-app/tankas-api/internal/dto"
	"github.com/tankas-app/tankas-api/internal/middleware"
	appErrors "github.com/tankas-app/tankas-api/pkg/errors"
)

// DefaultMaxUploadBytes caps multipart picture uploads.
const DefaultMaxUploadBytes int64 = 5 * 1024 * 1024

func requireUsername(c *gin.Context) (string, bool) {
	username := middleware.Username(c)
	if username == "" {
		return "", false
	}
	return username, true
}

// readUpload loads a multipart file fully into memory. A missing field yields nil.
func readUpload(c *gin.Context, field string, maxBytes int64) (*dto.Upload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart form")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if header.Size > maxBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds maximum size of %d bytes", maxBytes))
	}

	file, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read uploaded file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read uploaded file")
	}
	if int64(len(data)) > maxBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds maximum size of %d bytes", maxBytes))
	}

	return &dto.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
