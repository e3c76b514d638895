package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/jlrickert/cli-toolkit/mylog"
	"github.com/jlrickert/contammap/pkg/mag"
	"github.com/jlrickert/contammap/pkg/project"
)

// Error codes carried in error responses.
const (
	CodeNotFound   = "not_found"
	CodeExists     = "exists"
	CodeMismatch   = "metadata_mismatch"
	CodeDataLoad   = "data_load"
	CodeBadRequest = "bad_request"
	CodeInternal   = "internal"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// badRequestError marks malformed request bodies and parameters.
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return e.err.Error() }

func (e *badRequestError) Unwrap() error { return e.err }

func badRequest(err error) error { return &badRequestError{err: err} }

// classify maps an error to its status and code.
func classify(err error) (int, string) {
	var br *badRequestError
	switch {
	case errors.As(err, &br), mag.IsInvalidID(err):
		return http.StatusBadRequest, CodeBadRequest
	case project.IsProjectNotFound(err), mag.IsBinNotFound(err):
		return http.StatusNotFound, CodeNotFound
	case project.IsProjectExists(err):
		return http.StatusConflict, CodeExists
	case mag.IsMetadataMismatch(err):
		return http.StatusConflict, CodeMismatch
	case mag.IsInvalidRecord(err),
		mag.IsMotifParse(err),
		mag.IsNoBins(err),
		mag.IsQualityOverlap(err),
		mag.IsContigOverlap(err),
		project.IsInvalidConfig(err),
		errors.Is(err, os.ErrNotExist):
		return http.StatusBadRequest, CodeDataLoad
	}
	return http.StatusInternalServerError, CodeInternal
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	lg := mylog.LoggerFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		lg.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		lg.Info("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, r, status, ErrorResponse{Code: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		mylog.LoggerFromContext(r.Context()).Error("encode response", "path", r.URL.Path, "err", err)
		http.Error(w, `{"code":"internal","message":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}
