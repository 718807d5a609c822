package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/rustyeddy/riskbench/backtest"
	"github.com/rustyeddy/riskbench/journal"
	"github.com/rustyeddy/riskbench/metrics"
	"github.com/rustyeddy/riskbench/research"
)

const maxBody = 1 << 20

type errorBody struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	// Report is the completed evaluation when only persisting it failed.
	Report *research.Report `json:"report,omitempty"`
}

// BatchRequest is the body of POST /api/v1/backtests/batch.
type BatchRequest struct {
	Requests []research.Request `json:"requests"`
}

// BatchItem is one entry of a batch response.
type BatchItem struct {
	Report *research.Report `json:"report,omitempty"`
	Error  *errorBody       `json:"error,omitempty"`
}

// AssessmentRequest scores either a stored run (RunID) or a metrics report.
type AssessmentRequest struct {
	RunID   string          `json:"run_id,omitempty"`
	Metrics *metrics.Report `json:"metrics,omitempty"`
	Partial bool            `json:"partial"`
	Notes   string          `json:"notes"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	var backends []string
	if s.svc != nil && s.svc.Runner != nil && s.svc.Runner.Registry != nil {
		backends = s.svc.Runner.Registry.Names()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"time":     time.Now().UTC().Format(time.RFC3339),
		"backends": backends,
		"journal":  s.svc != nil && s.svc.Journal != nil,
	})
}

func (s *Server) createBacktest(w http.ResponseWriter, r *http.Request) {
	var req research.Request
	if !s.decode(w, r, &req) {
		return
	}
	s.applyDefaults(&req.Config)

	rep, err := s.svc.Evaluate(r.Context(), req)
	if err != nil {
		code, body := s.classify(r, err)
		if rep.ID != "" {
			body.Report = &rep
		}
		s.respond(w, code, body, err)
		return
	}
	writeJSON(w, http.StatusCreated, rep)
}

func (s *Server) createBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Requests) == 0 {
		s.writeError(w, r, &backtest.ConfigError{Field: "requests", Msg: "at least one request is required"})
		return
	}
	for i := range req.Requests {
		s.applyDefaults(&req.Requests[i].Config)
	}

	items, err := s.svc.EvaluateBatch(r.Context(), req.Requests, s.opts.Workers)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]BatchItem, len(items))
	for i, it := range items {
		if it.Report.ID != "" {
			rep := it.Report
			out[i].Report = &rep
		}
		if it.Err != nil {
			_, body := s.classify(r, it.Err)
			out[i].Error = &body
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (s *Server) listBacktests(w http.ResponseWriter, r *http.Request) {
	f := journal.Filter{Symbol: r.URL.Query().Get("symbol")}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, &backtest.ConfigError{Field: "limit", Msg: fmt.Sprintf("bad limit %q", v)})
			return
		}
		f.Limit = n
	}

	list, err := s.svc.List(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []journal.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": list})
}

func (s *Server) getBacktest(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) createAssessment(w http.ResponseWriter, r *http.Request) {
	var req AssessmentRequest
	if !s.decode(w, r, &req) {
		return
	}

	switch {
	case req.RunID != "":
		rec, err := s.svc.Get(r.Context(), req.RunID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		notes := req.Notes
		if notes == "" {
			notes = rec.Notes
		}
		writeJSON(w, http.StatusOK, s.svc.AssessResult(rec.Result, notes))
	case req.Metrics != nil:
		res := backtest.Result{Metrics: *req.Metrics, Partial: req.Partial}
		writeJSON(w, http.StatusOK, s.svc.AssessResult(res, req.Notes))
	default:
		s.writeError(w, r, &backtest.ConfigError{Field: "metrics", Msg: "run_id or metrics is required"})
	}
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{Error: "not found: " + r.URL.Path, RequestID: RequestID(r.Context())})
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed", RequestID: RequestID(r.Context())})
}

func (s *Server) applyDefaults(c *backtest.Config) {
	d := s.opts.Defaults
	if c.InitialCapital == 0 {
		c.InitialCapital = d.InitialCapital
	}
	if c.Engine == "" {
		c.Engine = d.Engine
	}
	if c.Metrics == (metrics.Options{}) {
		c.Metrics = d.Metrics
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:     "invalid JSON body: " + err.Error(),
			RequestID: RequestID(r.Context()),
		})
		return false
	}
	return true
}

func (s *Server) classify(r *http.Request, err error) (int, errorBody) {
	body := errorBody{Error: err.Error(), RequestID: RequestID(r.Context())}
	var ce *backtest.ConfigError
	switch {
	case errors.As(err, &ce):
		body.Field = ce.Field
		if errors.Is(err, backtest.ErrNoBackend) {
			return http.StatusServiceUnavailable, body
		}
		return http.StatusBadRequest, body
	case errors.Is(err, journal.ErrNotFound):
		return http.StatusNotFound, body
	case errors.Is(err, research.ErrNoJournal):
		return http.StatusServiceUnavailable, body
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, body
	case errors.Is(err, context.Canceled):
		return 499, body
	}
	return http.StatusInternalServerError, body
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, body := s.classify(r, err)
	s.respond(w, code, body, err)
}

func (s *Server) respond(w http.ResponseWriter, code int, body errorBody, err error) {
	if code >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("request_id", body.RequestID).Msg("request failed")
	}
	writeJSON(w, code, body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
