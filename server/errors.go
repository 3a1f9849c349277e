package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/poiesic/enrichit/ai"
	"github.com/poiesic/enrichit/core"
	"github.com/poiesic/enrichit/search"
	"github.com/poiesic/enrichit/storage"
)

// ErrServiceRequired is returned by New when no service is given.
var ErrServiceRequired = errors.New("service is required")

const (
	codeBadRequest       = "bad_request"
	codeTooLarge         = "request_too_large"
	codeEmptyInput       = "empty_input"
	codeInvalidOption    = "invalid_option"
	codeDimension        = "dimension_mismatch"
	codeNotFound         = "not_found"
	codeDuplicate        = "duplicate"
	codeCapabilityFailed = "capability_failed"
	codeProviderError    = "provider_error"
	codeTimeout          = "timeout"
	codeInternal         = "internal_error"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Capability string `json:"capability,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(core.ErrEmptyInput, http.StatusBadRequest, codeEmptyInput),
		capabilityHandler,
		sentinelHandler(search.ErrInvalidThreshold, http.StatusBadRequest, codeInvalidOption),
		sentinelHandler(search.ErrInvalidCount, http.StatusBadRequest, codeInvalidOption),
		sentinelHandler(core.ErrInvalidDocumentCount, http.StatusBadRequest, codeInvalidOption),
		sentinelHandler(core.ErrDimensionMismatch, http.StatusBadRequest, codeDimension),
		sentinelHandler(storage.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(storage.ErrDuplicateKey, http.StatusConflict, codeDuplicate),
		sentinelHandler(ai.ErrProvider, http.StatusBadGateway, codeProviderError),
	}
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// capabilityHandler reports a failed capability call as a bad gateway, naming the capability.
func capabilityHandler(w http.ResponseWriter, err error) bool {
	kind, ok := core.KindOf(err)
	if !ok {
		return false
	}
	status, code := http.StatusBadGateway, codeCapabilityFailed
	if errors.Is(err, context.DeadlineExceeded) {
		status, code = http.StatusGatewayTimeout, codeTimeout
	}
	writeJSON(w, status, ErrorResponse{
		Code:       code,
		Message:    capabilityMessage(err),
		Capability: kind.String(),
	})
	return true
}

// capabilityMessage returns the failure class without exposing provider detail.
func capabilityMessage(err error) string {
	for _, sentinel := range []error{
		core.ErrMalformedOutput,
		core.ErrInsufficientOutput,
		core.ErrDimensionMismatch,
		ai.ErrProvider,
		context.DeadlineExceeded,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "capability failed"
}

func (s *Server) handleError(w http.ResponseWriter, err error) {
	s.logger.Warn("request failed", "err", err)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", "err", err)
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}
