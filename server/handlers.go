package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/poiesic/enrichit/core"
	"github.com/poiesic/enrichit/search"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// CreateRecordRequest is the body of POST /v1/records.
type CreateRecordRequest struct {
	Text string `json:"text"`
}

// SearchRequest is the body of POST /v1/search. Exactly one of Query and
// Vector must be set.
type SearchRequest struct {
	Query     string    `json:"query,omitempty"`
	Vector    []float32 `json:"vector,omitempty"`
	Threshold *float64  `json:"threshold,omitempty"`
	Count     *int      `json:"count,omitempty"`
}

// SearchResponse is the reply to POST /v1/search.
type SearchResponse struct {
	Results []*core.SearchResult `json:"results"`
}

// decodeBody reads at most maxBodyBytes of JSON into v and writes the error
// reply itself when that fails.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, codeTooLarge,
			fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		return false
	}
	writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
	return false
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createRecord(w http.ResponseWriter, r *http.Request) {
	var req CreateRecordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	record, err := s.svc.CreateRecord(r.Context(), req.Text)
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	record, err := s.svc.GetRecord(r.Context(), id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	if err := s.svc.DeleteRecord(r.Context(), id); err != nil {
		s.handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reprocessRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	record, err := s.svc.Reprocess(r.Context(), id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if (req.Query == "") == (len(req.Vector) == 0) {
		writeError(w, http.StatusBadRequest, codeBadRequest, "exactly one of query and vector is required")
		return
	}

	var opts []search.QueryOption
	if req.Threshold != nil {
		opts = append(opts, search.WithThreshold(*req.Threshold))
	}
	if req.Count != nil {
		opts = append(opts, search.WithCount(*req.Count))
	}

	var results []*core.SearchResult
	var err error
	if req.Query != "" {
		results, err = s.svc.SearchText(r.Context(), req.Query, opts...)
	} else {
		results, err = s.svc.Search(r.Context(), req.Vector, opts...)
	}
	if err != nil {
		s.handleError(w, err)
		return
	}
	if results == nil {
		results = []*core.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

func (s *Server) estimate(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("documents")
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, fmt.Sprintf("documents must be an integer, got %q", raw))
		return
	}

	est, err := s.svc.EstimateCost(n)
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

func recordID(w http.ResponseWriter, r *http.Request) (core.ID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, fmt.Sprintf("invalid record id %q", raw))
		return 0, false
	}
	return core.ID(id), true
}
