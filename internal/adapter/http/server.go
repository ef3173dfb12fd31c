package http

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cwygoda/audiograb/internal/domain"
)

const (
	maxBodyBytes        = 1 << 20
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Server is the HTTP adapter for the converter.
type Server struct {
	svc            *domain.Service
	mux            *http.ServeMux
	server         *http.Server
	secret         string
	requirePublish bool
	logger         *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithSecret requires signed POST /convert requests.
func WithSecret(secret string) Option {
	return func(s *Server) { s.secret = secret }
}

// WithRequirePublish fails conversions that were not uploaded while an
// uploader is configured.
func WithRequirePublish(v bool) Option {
	return func(s *Server) { s.requirePublish = v }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a new HTTP server.
func NewServer(svc *domain.Service, addr string, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		mux:    http.NewServeMux(),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.routes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.withRequestID(s.mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /convert", s.handleConvert)
	s.mux.HandleFunc("GET /downloads", s.handleDownloads)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// convertRequest is the request body for POST /convert.
type convertRequest struct {
	YouTubeURL string `json:"youtube_url"`
}

// convertResponse is the JSON response for a successful conversion.
type convertResponse struct {
	Success         bool     `json:"success"`
	FilePath        string   `json:"file_path"`
	MP3URL          *string  `json:"mp3_url"`
	Title           string   `json:"title"`
	SourceID        string   `json:"source_id"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
}

// downloadResponse is one entry of GET /downloads.
type downloadResponse struct {
	ID              int64    `json:"id,omitempty"`
	SourceID        string   `json:"source_id"`
	Title           string   `json:"title"`
	FilePath        string   `json:"file_path"`
	PublicURL       *string  `json:"public_url"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	DownloadedAt    string   `json:"downloaded_at"`
}

// errorResponse is the JSON error response.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		s.logger.Debug("request", "request_id", id, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(domain.WithRequestID(r.Context(), id)))
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "YouTube to MP3 Converter API is running",
	})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	log := s.logger.With("request_id", domain.RequestID(r.Context()))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	// Verify signature if secret is configured
	if s.secret != "" {
		if err := s.verifySignature(r, body); err != nil {
			log.Warn("signature verification failed", "error", err)
			s.writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
	}

	var req convertRequest
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	url := strings.TrimSpace(req.YouTubeURL)
	if url == "" {
		s.writeError(w, http.StatusBadRequest, "No YouTube URL provided")
		return
	}

	res, err := s.svc.Convert(r.Context(), domain.DownloadRequest{SourceURL: url})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			s.writeError(w, http.StatusBadRequest, "Invalid YouTube URL")
		case domain.IsProcessingFailure(err):
			s.writeError(w, http.StatusInternalServerError, "Failed to download and convert video")
		default:
			log.Error("convert error", "error", err)
			s.writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	if s.requirePublish && s.svc.HasUploader() && !res.Published() {
		s.writeError(w, http.StatusInternalServerError, "Failed to upload file to storage")
		return
	}

	s.writeJSON(w, http.StatusOK, resultToResponse(res))
}

const maxTimestampSkew = 5 * time.Minute

// verifySignature checks X-Signature = hex(SHA256("${timestamp}\n${body}\n${secret}")).
func (s *Server) verifySignature(r *http.Request, body []byte) error {
	timestamp := r.Header.Get("X-Timestamp")
	if timestamp == "" {
		return fmt.Errorf("missing X-Timestamp header")
	}

	ts, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return fmt.Errorf("invalid X-Timestamp: must be ISO8601/RFC3339 format")
	}

	skew := time.Since(ts)
	if skew < 0 {
		skew = -skew
	}
	if skew > maxTimestampSkew {
		return fmt.Errorf("X-Timestamp too far from current time (skew: %v, max: %v)", skew.Truncate(time.Second), maxTimestampSkew)
	}

	signature := r.Header.Get("X-Signature")
	if signature == "" {
		return fmt.Errorf("missing X-Signature header")
	}

	if subtle.ConstantTimeCompare([]byte(signature), []byte(Sign(timestamp, body, s.secret))) != 1 {
		return fmt.Errorf("invalid signature")
	}
	return nil
}

// Sign computes the request signature clients send in X-Signature.
func Sign(timestamp string, body []byte, secret string) string {
	payload := fmt.Sprintf("%s\n%s\n%s", timestamp, body, secret)
	hash := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(hash[:])
}

func (s *Server) handleDownloads(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := s.svc.History(r.Context(), limit)
	if err != nil {
		if errors.Is(err, domain.ErrNotSupported) {
			s.writeError(w, http.StatusNotFound, "download history not available")
			return
		}
		s.logger.Error("history error", "request_id", domain.RequestID(r.Context()), "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]downloadResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, recordToResponse(rec))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func resultToResponse(res *domain.Result) convertResponse {
	out := convertResponse{
		Success:  true,
		FilePath: res.FilePath,
		MP3URL:   res.PublicURL,
		Title:    res.Title,
		SourceID: res.SourceID,
	}
	if res.Duration > 0 {
		secs := res.Duration.Seconds()
		out.DurationSeconds = &secs
	}
	return out
}

func recordToResponse(rec domain.DownloadRecord) downloadResponse {
	return downloadResponse{
		ID:              rec.ID,
		SourceID:        rec.SourceID,
		Title:           rec.Title,
		FilePath:        rec.LocalFilePath,
		PublicURL:       rec.PublicURL,
		DurationSeconds: rec.DurationSeconds,
		DownloadedAt:    rec.DownloadedAt.UTC().Format(time.RFC3339),
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// ServeHTTP implements http.Handler for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.Handler.ServeHTTP(w, r)
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return s.server.Addr
}
