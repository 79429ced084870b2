package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"shelfsync/internal/util"
	"shelfsync/pkg/domain"
	"shelfsync/pkg/library"
	"shelfsync/pkg/session"
	"shelfsync/pkg/store"
	"shelfsync/pkg/views"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, token, err := s.sessions.SignUp(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidEmail), errors.Is(err, session.ErrWeakPassword):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, session.ErrEmailTaken):
			writeError(w, http.StatusConflict, err.Error())
		default:
			util.LoggerFromContext(r.Context()).Error("sign up", "err", err)
			writeError(w, http.StatusInternalServerError, "sign up failed")
		}
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, token, err := s.sessions.SignIn(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		util.LoggerFromContext(r.Context()).Error("sign in", "err", err)
		writeError(w, http.StatusInternalServerError, "sign in failed")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := s.sessions.SignOut(token); err != nil {
		util.LoggerFromContext(r.Context()).Error("sign out", "err", err)
		writeError(w, http.StatusInternalServerError, "sign out failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request, user domain.User) {
	var (
		books []domain.Book
		err   error
	)
	if r.URL.Query().Get("refresh") == "true" {
		books, err = s.library.RefreshBooks(r.Context(), user.ID)
	} else {
		books, err = s.library.Books(r.Context(), user.ID)
	}
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	if books == nil {
		books = []domain.Book{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": books})
}

func (s *Server) handleUploadBook(w http.ResponseWriter, r *http.Request, user domain.User) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	book, err := s.library.UploadBook(r.Context(), user.ID, library.UploadRequest{
		File:     file,
		Size:     header.Size,
		Filename: header.Filename,
		Title:    r.FormValue("title"),
		Author:   r.FormValue("author"),
		Series:   r.FormValue("series"),
	})
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

type bookPatchRequest struct {
	Title        *string `json:"title"`
	Author       *string `json:"author"`
	Series       *string `json:"series"`
	SeriesNumber *int    `json:"seriesNumber"`
	Language     *string `json:"language"`
	Status       *string `json:"status"`
	PageCount    *int    `json:"pageCount"`
	CoverURL     *string `json:"coverUrl"`
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req bookPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	update := store.BookUpdate{
		Title:        req.Title,
		Author:       req.Author,
		Series:       req.Series,
		SeriesNumber: req.SeriesNumber,
		PageCount:    req.PageCount,
		CoverURL:     req.CoverURL,
	}
	if req.Language != nil {
		lang := domain.Language(*req.Language)
		update.Language = &lang
	}
	if req.Status != nil {
		status := domain.BookStatus(*req.Status)
		update.Status = &status
	}
	book, err := s.library.UpdateBook(r.Context(), user.ID, r.PathValue("id"), update)
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (s *Server) handleReadURL(w http.ResponseWriter, r *http.Request, user domain.User) {
	url, err := s.library.ReadURL(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request, user domain.User) {
	bookmarks, err := s.library.Bookmarks(r.Context(), user.ID)
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	if bookmarks == nil {
		bookmarks = []domain.Bookmark{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookmarks": bookmarks})
}

type bookmarkRequest struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
}

func (s *Server) handleUpdateBookmark(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req bookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	bookmark, err := s.library.UpdateBookmark(r.Context(), user.ID, r.PathValue("bookId"), req.CurrentPage, req.TotalPages)
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookmark)
}

type statsResponse struct {
	views.Stats
	ReadingTime string `json:"readingTime"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, user domain.User) {
	books, bookmarks, err := s.library.Warm(r.Context(), user.ID)
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	stats := views.Aggregate(books, bookmarks)
	writeJSON(w, http.StatusOK, statsResponse{Stats: stats, ReadingTime: stats.ReadingTime()})
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request, user domain.User) {
	prefs, err := s.library.Preferences(r.Context(), user.ID)
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

type preferencesRequest struct {
	Theme              string `json:"theme"`
	DefaultZoom        int    `json:"defaultZoom"`
	AutoTranslate      bool   `json:"autoTranslate"`
	TranslationService string `json:"translationService"`
}

func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req preferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	prefs, err := s.library.SavePreferences(r.Context(), user.ID, domain.Preferences{
		Theme:              req.Theme,
		DefaultZoom:        req.DefaultZoom,
		AutoTranslate:      req.AutoTranslate,
		TranslationService: req.TranslationService,
	})
	if err != nil {
		writeLibraryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}
