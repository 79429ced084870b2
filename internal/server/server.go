// Package server is the thin HTTP surface over the library core. It maps
// results and typed errors to responses; the cache itself knows nothing
// about HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"shelfsync/internal/util"
	"shelfsync/pkg/domain"
	"shelfsync/pkg/library"
	"shelfsync/pkg/session"
)

const defaultMaxUploadBytes = 100 * 1024 * 1024

// Config wires required dependencies for the HTTP server.
type Config struct {
	Library        *library.Library
	Sessions       *session.Service
	MaxUploadBytes int64
}

// Server exposes the JSON API.
type Server struct {
	library        *library.Library
	sessions       *session.Service
	mux            *http.ServeMux
	maxUploadBytes int64
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.Library == nil {
		return nil, errors.New("library required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session service required")
	}
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	s := &Server{
		library:        cfg.Library,
		sessions:       cfg.Sessions,
		mux:            http.NewServeMux(),
		maxUploadBytes: maxUploadBytes,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /auth/signup", s.handleSignUp)
	s.mux.HandleFunc("POST /auth/login", s.handleSignIn)
	s.mux.HandleFunc("POST /auth/logout", s.handleSignOut)

	s.mux.Handle("GET /books", s.withUser(s.handleListBooks))
	s.mux.Handle("POST /books", s.withUser(s.handleUploadBook))
	s.mux.Handle("PATCH /books/{id}", s.withUser(s.handleUpdateBook))
	s.mux.Handle("GET /books/{id}/url", s.withUser(s.handleReadURL))

	s.mux.Handle("GET /bookmarks", s.withUser(s.handleListBookmarks))
	s.mux.Handle("PUT /bookmarks/{bookId}", s.withUser(s.handleUpdateBookmark))

	s.mux.Handle("GET /stats", s.withUser(s.handleStats))

	s.mux.Handle("GET /preferences", s.withUser(s.handleGetPreferences))
	s.mux.Handle("PUT /preferences", s.withUser(s.handlePutPreferences))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type userHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) withUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		user, ok, err := s.sessions.UserFromToken(token)
		if err != nil {
			util.LoggerFromContext(r.Context()).Error("resolve session", "err", err)
			writeError(w, http.StatusInternalServerError, "session lookup failed")
			return
		}
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeLibraryError maps the library's error taxonomy onto HTTP statuses.
func writeLibraryError(w http.ResponseWriter, err error) {
	var vErr *library.ValidationError
	var upErr *library.UploadError
	switch {
	case errors.Is(err, library.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, library.ErrInvalidProgress):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, library.ErrBookNotFound):
		writeError(w, http.StatusNotFound, "book not found")
	case errors.As(err, &upErr):
		writeError(w, http.StatusBadGateway, upErr.Error())
	case errors.Is(err, library.ErrRemoteRead), errors.Is(err, library.ErrRemoteWrite), errors.Is(err, library.ErrBlob):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
