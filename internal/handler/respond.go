package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"go.uber.org/zap"
)

const internalErrorMessage = "Internal server error"

// StatusOf maps an error's kind to the HTTP status it is reported with.
func StatusOf(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeError reports err as {"message": ...}. Server-side failures are
// logged and their details withheld.
func writeError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	status := StatusOf(err)
	msg := domain.MessageOf(err)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		if domain.KindOf(err) != domain.KindDependency || msg == "" {
			msg = internalErrorMessage
		}
	}
	if msg == "" {
		msg = internalErrorMessage
	}
	writeMessage(w, status, msg)
}

var errBadBody = domain.Validation("Invalid request body")

// decodeJSON reads a single JSON value from the body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errBadBody
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domain.Validation("Request body is too large")
		}
		if errors.Is(err, io.EOF) {
			return domain.Validation("Request body is required")
		}
		return errBadBody
	}
	return nil
}
