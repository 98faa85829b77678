package summarization

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	v1 "github.com/aevon-lab/metric-oracle/internal/api/v1"
	httperr "github.com/aevon-lab/metric-oracle/internal/core/errors"
	"github.com/aevon-lab/metric-oracle/internal/core/oracle"
	"github.com/aevon-lab/metric-oracle/internal/pipeline"
	"github.com/gin-gonic/gin"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgUnknownKind    = "Unknown aggregation kind"
	msgInvalidInput   = "Invalid oracle input"
	msgSummaryFailed  = "Failed to compute summary"
)

// summarizationError carries the HTTP error shape from a helper back to the handler.
type summarizationError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *summarizationError) Error() string {
	return e.message
}

// SummarizeHandler handles POST /v1/summaries.
func (s *Service) SummarizeHandler(c *gin.Context) {
	var req v1.SummaryRequest
	if err := s.bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	summary, err := s.Summarize(c.Request.Context(), req)
	if err != nil {
		writeError(c, classify(err))
		return
	}

	c.JSON(http.StatusOK, v1.SummaryResponse{Summary: summary})
}

// AnswersHandler handles POST /v1/answers.
func (s *Service) AnswersHandler(c *gin.Context) {
	var req v1.AnswersRequest
	if err := s.bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	answers, err := s.Answers(c.Request.Context(), req)
	if err != nil {
		writeError(c, classify(err))
		return
	}

	lines := make([]string, len(answers))
	for i, a := range answers {
		lines[i] = a.Line()
	}
	slog.Info("Computed answers", "series", len(lines))
	c.JSON(http.StatusOK, v1.AnswersResponse{Answers: lines})
}

// bindJSON reads at most maxBodySizeBytes of the body and decodes it into dst.
func (s *Service) bindJSON(c *gin.Context, dst interface{}) *summarizationError {
	maxBytes := int64(s.maxBodySizeBytes)
	bodyBytes, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBytes+1))
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return &summarizationError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return &summarizationError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	if err := c.ShouldBindJSON(dst); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return &summarizationError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
			details:    err.Error(),
		}
	}
	return nil
}

// classify maps service and oracle errors onto HTTP responses.
func classify(err error) *summarizationError {
	switch {
	case errors.Is(err, oracle.ErrUnknownKind):
		return &summarizationError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpUnknownKindError,
			message:    msgUnknownKind,
			details:    err.Error(),
		}
	case errors.Is(err, oracle.ErrInvalidInput),
		errors.Is(err, ErrInvalidRequest),
		errors.Is(err, pipeline.ErrDuplicateSeries):
		return &summarizationError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidInputError,
			message:    msgInvalidInput,
			details:    err.Error(),
		}
	}

	slog.Error("Failed to compute summary", "error", err)
	return &summarizationError{
		statusCode: http.StatusInternalServerError,
		errorType:  httperr.HttpInternalError,
		message:    msgSummaryFailed,
	}
}

// writeError serializes a summarizationError as the JSON HTTP response.
func writeError(c *gin.Context, err *summarizationError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
