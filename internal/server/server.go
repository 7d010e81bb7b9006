// Package server exposes validation over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/valuagent/valuagent/internal/export"
	"github.com/valuagent/valuagent/internal/extraction"
	"github.com/valuagent/valuagent/internal/id"
	"github.com/valuagent/valuagent/internal/metrics"
	"github.com/valuagent/valuagent/internal/model"
	"github.com/valuagent/valuagent/internal/rules"
	"github.com/valuagent/valuagent/internal/runlog"
	"github.com/valuagent/valuagent/internal/schema"
	"github.com/valuagent/valuagent/internal/statement"
	"github.com/valuagent/valuagent/internal/validation"
)

const maxBodyBytes = 10 << 20

// Options tune a Server.
type Options struct {
	Tolerance int64
	Columns   []model.Column
	History   *runlog.Recorder // nil disables run history
}

// Server serves the validation API.
type Server struct {
	set      *rules.Set
	engine   *validation.Engine
	registry *extraction.Registry
	logger   *log.Logger
	opts     Options
	now      func() time.Time
}

// New constructs a server over an immutable rule set.
func New(set *rules.Set, logger *log.Logger, opts Options) (*Server, error) {
	if set == nil {
		return nil, errors.New("server: nil rule set")
	}
	if opts.Tolerance < 0 {
		return nil, errors.New("server: negative tolerance")
	}
	if logger == nil {
		logger = log.New(log.Writer(), "", log.LstdFlags)
	}
	return &Server{
		set:      set,
		engine:   validation.NewEngine(set),
		registry: extraction.NewJSONRegistry(set),
		logger:   logger,
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /validate", s.handleValidate)
	mux.HandleFunc("GET /schema/{type}", s.handleSchema)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	return loggingMiddleware(mux, s.logger)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	typ, err := model.ParseStatementType(q.Get("type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	tolerance := s.opts.Tolerance
	if v := q.Get("tolerance"); v != "" {
		tolerance, err = strconv.ParseInt(v, 10, 64)
		if err != nil || tolerance < 0 {
			http.Error(w, "tolerance must be a non-negative integer", http.StatusBadRequest)
			return
		}
	}
	year := 0
	if v := q.Get("year"); v != "" {
		year, err = strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid year", http.StatusBadRequest)
			return
		}
	}
	runID := q.Get("run_id")
	if runID != "" && !id.ValidRunID(runID) {
		http.Error(w, "run_id must be a UUID", http.StatusBadRequest)
		return
	}
	format := export.FormatJSON
	if v := q.Get("format"); v != "" {
		format, err = export.ParseFormat(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	doc, err := s.registry.Parse(typ, http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.respondError(w, err)
		return
	}
	if doc.Year == 0 {
		doc.Year = year
	}
	if doc.Source == "" {
		doc.Source = "http"
	}

	start := time.Now()
	report, err := s.engine.ValidateColumns(doc, tolerance, s.opts.Columns)
	metrics.ObserveValidation(string(typ), report, time.Since(start))
	if err != nil {
		s.respondError(w, err)
		return
	}
	if runID == "" {
		runID = id.NewRunID()
	}
	report.RunID = runID
	if failed := report.FailedRules(); len(failed) > 0 {
		s.logger.Printf("validate %s run %s: failed %s", typ, runID, strings.Join(failed, " "))
	}
	if s.opts.History != nil {
		if err := s.opts.History.Record(runlog.FromReport(report, s.now())); err != nil {
			s.logger.Printf("history: %v", err)
		}
	}

	sc, _ := s.set.Schema(typ)
	var buf bytes.Buffer
	err = export.Render(&buf, format, doc, sc, report)
	metrics.IncExport(string(format), err)
	if err != nil {
		s.logger.Printf("export %s: %v", format, err)
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	if format.Binary() {
		w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(typ, doc.Year, format)+`"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	typ, err := model.ParseStatementType(r.PathValue("type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	sc, ok := s.set.Schema(typ)
	if !ok {
		http.Error(w, "no schema loaded for "+string(typ), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(schema.IndexString(sc)))
}

// respondError maps engine and extraction errors to status codes: caller
// mistakes are 400, a catalog that does not fit the tree is 422.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Printf("validate: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	var unknownType *model.UnknownStatementTypeError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, statement.ErrStructural):
		return http.StatusUnprocessableEntity
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, validation.ErrInvalidArgument),
		errors.Is(err, extraction.ErrMalformed),
		errors.As(err, &unknownType):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
