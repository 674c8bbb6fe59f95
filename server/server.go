package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"review_analyzer/analyzer"
	"review_analyzer/review"
)

const (
	requestTimeout = 60 * time.Second
	maxBodyBytes   = 1 << 20
)

type Server struct {
	reviews  *review.Service
	analyzer *analyzer.Analyzer
	log      logrus.FieldLogger
}

func New(reviews *review.Service, an *analyzer.Analyzer, log logrus.FieldLogger) (*Server, error) {
	if reviews == nil || an == nil {
		return nil, errors.New("review service and analyzer required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{reviews: reviews, analyzer: an, log: log}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/reviews", s.handleList)
	mux.HandleFunc("POST /api/reviews", s.handleCreate)
	mux.HandleFunc("GET /api/reviews/search", s.handleSearch)
	mux.HandleFunc("GET /api/reviews/stats", s.handleStats)
	mux.HandleFunc("GET /api/reviews/{product}/suggestions", s.handleSuggestions)
	mux.HandleFunc("GET /api/reviews/{product}/report", s.handleReport)
	return s.logMiddleware(mux)
}

// --- Handlers ---

type analyzeReq struct {
	Text string `json:"text"`
}

type suggestionsResp struct {
	Product     string   `json:"product"`
	Suggestions []string `json:"suggestions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeReq
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, bodyError(err, "body must be a JSON object with a string text field"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	res, err := s.analyzer.Analyze(ctx, req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req review.CreateInput
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, bodyError(err, "body must be a JSON object with product, text and rating"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	rev, err := s.reviews.Create(ctx, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		s.writeError(w, err)
		return
	}
	list, err := s.reviews.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	minRating, err := intParam(r, "minRating")
	if err != nil {
		s.writeError(w, err)
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		s.writeError(w, err)
		return
	}
	mode, ok := review.ParseSearchMode(r.URL.Query().Get("search_type"))
	if !ok {
		s.writeError(w, &review.ValidationError{Field: "search_type", Reason: "must be substring, boolean or ranked"})
		return
	}
	q := review.Query{
		Text:      r.URL.Query().Get("query"),
		Mode:      mode,
		Sentiment: analyzer.Sentiment(strings.ToLower(r.URL.Query().Get("sentiment"))),
		MinRating: minRating,
		Limit:     limit,
	}
	list, err := s.reviews.Search(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.reviews.Stats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	product := r.PathValue("product")
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	suggestions, err := s.reviews.Suggestions(ctx, product)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	writeJSON(w, http.StatusOK, suggestionsResp{Product: product, Suggestions: suggestions})
}

// handleReport serves HTML unless ?format=json is given.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	rep, err := s.reviews.Report(ctx, r.PathValue("product"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "json" {
		writeJSON(w, http.StatusOK, rep)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(rep.HTML))
}

// --- Helpers ---

type errorResp struct {
	Error   string   `json:"error"`
	Details string   `json:"details,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

// writeError maps domain errors to status codes. Raw model output is logged, never returned.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		inv  *analyzer.InvalidInputError
		val  *review.ValidationError
		up   *analyzer.UpstreamError
		mal  *analyzer.MalformedResponseError
		perr *paramError
	)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp{Error: "request body too large"})
	case errors.As(err, &inv):
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid review", Details: inv.Reason})
	case errors.As(err, &val):
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid request", Details: val.Error()})
	case errors.As(err, &perr):
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid request", Details: perr.Error()})
	case errors.Is(err, review.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResp{Error: err.Error()})
	case errors.As(err, &up):
		s.log.WithError(err).Error("upstream failure")
		writeJSON(w, http.StatusBadGateway, errorResp{Error: "analysis service unavailable"})
	case errors.As(err, &mal):
		s.log.WithError(err).WithField("raw_len", len(mal.Raw)).Error("unusable model response")
		writeJSON(w, http.StatusBadGateway, errorResp{Error: "analysis service returned an unusable response", Fields: mal.Fields})
	default:
		s.log.WithError(err).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResp{Error: "internal error"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// bodyError keeps size-limit errors distinct from malformed JSON.
func bodyError(err error, reason string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return &analyzer.InvalidInputError{Reason: reason}
}

type paramError struct {
	name string
}

func (e *paramError) Error() string {
	return e.name + " must be a non-negative integer"
}

func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &paramError{name: name}
	}
	return n, nil
}

func nonNil(list []*review.Review) []*review.Review {
	if list == nil {
		return []*review.Review{}
	}
	return list
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).Round(time.Millisecond),
		}).Info("http request")
	})
}
