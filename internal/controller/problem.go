package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/blood-dispatch/internal/errors"
)

// Problem is an RFC 7807 error body.
type Problem struct {
	Type     string              `json:"type,omitempty"`
	Title    string              `json:"title,omitempty"`
	Status   int                 `json:"status,omitempty"`
	Detail   string              `json:"detail,omitempty"`
	Instance string              `json:"instance,omitempty"`
	Errors   map[string][]string `json:"errors,omitempty"`
}

func WriteProblem(w http.ResponseWriter, status int, title, detail string, errs map[string][]string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Title:  title,
		Status: status,
		Detail: detail,
		Errors: errs,
	})
}

// WriteError maps engine errors onto problem responses. Anything unexpected
// is logged and reported as a 500 without internals.
func WriteError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var invalid *appErrors.InvalidArgumentError
	switch {
	case appErrors.IsNotFound(err):
		WriteProblem(w, http.StatusNotFound, "not found", err.Error(), nil)
	case appErrors.IsInvalidStateTransition(err):
		WriteProblem(w, http.StatusConflict, "invalid state transition", err.Error(), nil)
	case errors.As(err, &invalid):
		WriteProblem(w, http.StatusBadRequest, "invalid argument", err.Error(),
			map[string][]string{invalid.Field: {invalid.Reason}})
	default:
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		WriteProblem(w, http.StatusInternalServerError, "internal error", "something went wrong", nil)
	}
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
