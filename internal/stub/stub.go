// Package stub is a development stand-in for the document-chat backend.
// It mimes the real API's routes, bodies, and error wording closely enough
// that the client cannot tell the difference, so the TUI can be exercised
// without the real service running.
package stub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const maxUploadBytes = 32 << 20

// Server holds the stub's one piece of state: whether a document is loaded.
type Server struct {
	logger  *zap.Logger
	latency time.Duration

	mu      sync.Mutex
	pdfName string
}

// Config carries Server construction options.
type Config struct {
	// Logger receives one line per request. Nil means no logging.
	Logger *zap.Logger
	// Latency is injected before every response, for exercising client
	// timeouts by hand. Zero means respond immediately.
	Latency time.Duration
}

// NewServer creates a stub with no document loaded.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{logger: logger, latency: cfg.Latency}
}

// Router builds the chi router. Exposed separately so tests can mount it on
// an httptest.Server.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// The real backend serves a browser frontend, so it answers any origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(s.logAndDelay)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Post("/chat/general", s.handleGeneralChat)
	r.Post("/chat/pdf", s.handleDocumentChat)
	r.Post("/upload-pdf", s.handleUpload)
	r.Delete("/pdf", s.handleClear)

	return r
}

// Loaded reports the stub's document state, for tests.
func (s *Server) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pdfName != ""
}

func (s *Server) logAndDelay(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.latency > 0 {
			select {
			case <-time.After(s.latency):
			case <-r.Context().Done():
				return
			}
		}
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", r.Header.Get("X-Request-ID")),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Chatbot API is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	loaded := s.pdfName != ""
	s.mu.Unlock()

	pdfChat := "No PDF loaded"
	if loaded {
		pdfChat = "Available"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"general_chat": "Available",
		"pdf_chat":     pdfChat,
		"pdf_loaded":   loaded,
	})
}

func (s *Server) handleGeneralChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
		History []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"history"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"response": fmt.Sprintf("You said: %q. (stub reply, %d prior turns seen)", req.Message, len(req.History)),
	})
}

func (s *Server) handleDocumentChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	name := s.pdfName
	s.mu.Unlock()

	if name == "" {
		writeDetail(w, http.StatusBadRequest,
			"No PDF loaded. Please upload a PDF first using /upload-pdf endpoint")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"response": fmt.Sprintf("Stub answer about %q from %s.", req.Question, name),
		"sources":  []string{name + ", page 1", name + ", page 2"},
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	if strings.ToLower(filepath.Ext(header.Filename)) != ".pdf" {
		writeDetail(w, http.StatusBadRequest, "Only PDF files are allowed")
		return
	}

	s.mu.Lock()
	s.pdfName = header.Filename
	s.mu.Unlock()

	s.logger.Info("document loaded", zap.String("filename", header.Filename))
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("PDF '%s' uploaded and processed successfully", header.Filename),
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.pdfName = ""
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "PDF cleared successfully"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeDetail writes the FastAPI-style error body the client expects.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
