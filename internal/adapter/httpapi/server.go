// Package httpapi exposes the assistant over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"byelaws/internal/logger"
)

// Answerer answers a single question.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// ChunkCounter reports how many chunks are indexed.
type ChunkCounter interface {
	Count(ctx context.Context) (int, error)
}

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	Answer string `json:"answer"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	OK         bool   `json:"ok"`
	Collection string `json:"collection"`
	Chunks     int    `json:"chunks"`
}

const maxBodyBytes = 1 << 20

type Server struct {
	answerer       Answerer
	counter        ChunkCounter
	collection     string
	allowedOrigins []string
	limiter        *rate.Limiter
}

func NewServer(answerer Answerer, counter ChunkCounter, collection string, allowedOrigins []string) *Server {
	return &Server{
		answerer:       answerer,
		counter:        counter,
		collection:     collection,
		allowedOrigins: allowedOrigins,
	}
}

// SetRateLimit caps /ask at rps requests per second with the given burst.
// A non-positive rps disables the limit.
func (s *Server) SetRateLimit(rps float64, burst int) {
	if rps <= 0 {
		s.limiter = nil
		return
	}
	if burst <= 0 {
		burst = 1
	}
	s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HandleAsk answers {"question": ...}. A missing or empty question is passed
// through to the pipeline unchanged.
func (s *Server) HandleAsk(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Allow() {
		logger.Warn("[%s] rate limit exceeded", requestID(r))
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "too many requests"})
		return
	}

	var req AskRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("[%s] invalid request body: %v", requestID(r), err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}

	start := time.Now()
	answer, err := s.answerer.Answer(r.Context(), req.Question)
	if err != nil {
		logger.Error("[%s] failed to answer question: %v", requestID(r), err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to answer question"})
		return
	}

	logger.Info("[%s] answered in %s", requestID(r), time.Since(start).Round(time.Millisecond))
	writeJSON(w, http.StatusOK, AskResponse{Answer: answer})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	n, err := s.counter.Count(r.Context())
	if err != nil {
		logger.Error("[%s] health check failed: %v", requestID(r), err)
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{OK: true, Collection: s.collection, Chunks: n})
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ask", s.HandleAsk)
	mux.HandleFunc("GET /health", s.HandleHealth)
	return s.withRequestID(s.withCORS(mux))
}

type ctxKey struct{}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		logger.Debug("[%s] %s %s", id, r.Method, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			switch {
			case slices.Contains(s.allowedOrigins, "*"):
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case slices.Contains(s.allowedOrigins, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down API server")
		return srv.Shutdown(shutdownCtx)
	}
}
