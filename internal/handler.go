package contact

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

const (
	errInvalidForm      = "Invalid form data"
	errRateLimited      = "Too many submissions. Please try again in 15 minutes."
	errUnexpected       = "An unexpected error occurred. Please try again later."
	errPayloadTooLarge  = "Payload too large"
	errUnsupportedMedia = "Unsupported content type"
	errOriginForbidden  = "Origin not allowed"
)

type contactResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Error   string           `json:"error,omitempty"`
	Details []FieldViolation `json:"details,omitempty"`
}

// Submitter is the part of Relay the HTTP layer depends on.
type Submitter interface {
	Submit(ctx context.Context, clientID string, raw Submission) (Result, error)
}

// Server exposes the relay and the site endpoints over HTTP.
type Server struct {
	cfg    *Config
	relay  Submitter
	static http.Handler
}

func NewServer(cfg *Config, relay Submitter) *Server {
	s := &Server{cfg: cfg, relay: relay}
	if cfg.StaticDir != "" {
		s.static = NewStaticHandler(cfg.StaticDir, cfg.Production())
	}
	return s
}

// Routes registers every endpoint on a fresh mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", HandleHealth)
	mux.HandleFunc("GET /sitemap.xml", s.HandleSitemap)
	mux.HandleFunc("GET /robots.txt", s.HandleRobots)
	mux.HandleFunc("/api/contact", s.HandleContact)
	mux.HandleFunc("/", s.handleFallback)
	return mux
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleFallback(w http.ResponseWriter, r *http.Request) {
	if isAPIPath(r.URL.Path) || s.static == nil {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.static.ServeHTTP(w, r)
}

func (s *Server) HandleContact(w http.ResponseWriter, r *http.Request) {
	if !s.applyCORS(w, r) {
		writeJSON(w, http.StatusForbidden, contactResponse{Error: errOriginForbidden})
		return
	}
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	logger := LoggerFromContext(r.Context())

	maxBytes := s.cfg.MaxBodyBytes()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
	r.Body.Close()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, contactResponse{Error: errInvalidForm})
		return
	}
	if int64(len(body)) > maxBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, contactResponse{Error: errPayloadTooLarge})
		return
	}

	sub, status := s.decodeSubmission(r.Header.Get("Content-Type"), body)
	if status != http.StatusOK {
		msg := errInvalidForm
		if status == http.StatusUnsupportedMediaType {
			msg = errUnsupportedMedia
		}
		writeJSON(w, status, contactResponse{Error: msg})
		return
	}

	ip := ClientIP(r, s.cfg.TrustProxy)
	res, err := s.relay.Submit(r.Context(), ip, sub)

	var verr *ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, contactResponse{Success: true, Message: res.Message})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, contactResponse{Error: errInvalidForm, Details: verr.Violations})
	case errors.Is(err, ErrRateLimited):
		logger.Warn("contact submission rate limited", "client", ip)
		writeJSON(w, http.StatusTooManyRequests, contactResponse{Error: errRateLimited})
	default:
		logger.Error("contact submission failed", "err", err, "client", ip)
		writeJSON(w, http.StatusInternalServerError, contactResponse{Error: errUnexpected})
	}
}

// decodeSubmission returns http.StatusOK on success or the status to reply with.
func (s *Server) decodeSubmission(contentType string, body []byte) (Submission, int) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = ""
	}

	var p Submission
	switch {
	case mediaType == "application/json" && s.cfg.AllowJSON:
		if err := json.Unmarshal(body, &p); err != nil {
			return Submission{}, http.StatusBadRequest
		}
	case mediaType == "application/x-www-form-urlencoded" && s.cfg.AllowForm:
		form, err := url.ParseQuery(string(body))
		if err != nil {
			return Submission{}, http.StatusBadRequest
		}
		p.Name = form.Get("name")
		p.Email = form.Get("email")
		p.Subject = form.Get("subject")
		p.Message = form.Get("message")
	default:
		return Submission{}, http.StatusUnsupportedMediaType
	}
	return p, http.StatusOK
}

// applyCORS sets the CORS response headers for an allowed Origin and reports
// false when the request carries an Origin that is not allowed.
func (s *Server) applyCORS(w http.ResponseWriter, r *http.Request) bool {
	origins := s.cfg.Origins()
	origin := r.Header.Get("Origin")
	if len(origins) == 0 || origin == "" {
		return true
	}
	for _, ao := range origins {
		if ao == "*" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			return true
		}
		if origin == ao {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func isAPIPath(p string) bool {
	return p == "/api" || strings.HasPrefix(p, "/api/")
}
