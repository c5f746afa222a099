package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/server/auth"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
)

type noteView struct {
	Filename    string    `json:"filename"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	DriveFileID string    `json:"drive_file_id,omitempty"`
	Pinned      bool      `json:"pinned"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toNoteView(n *models.Note) noteView {
	return noteView{
		Filename:    n.Filename,
		Title:       n.Title,
		Content:     n.Content,
		DriveFileID: n.DriveFileID,
		Pinned:      n.Pinned,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

// authenticate extracts and verifies the bearer token. On failure it writes
// the 401 itself; expired and malformed tokens are indistinguishable to the
// client.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, prefix) {
		WriteError(w, http.StatusUnauthorized, "Missing bearer token")
		return "", false
	}
	userID, err := auth.GetUserIDFromToken(strings.TrimSpace(header[len(prefix):]), s.secret)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
		return "", false
	}
	return userID, true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	_, token, err := s.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			WriteError(w, http.StatusBadRequest, "Invalid email or password")
		case errors.Is(err, common.ErrorAlreadyExists):
			WriteError(w, http.StatusConflict, "Email already registered")
		default:
			s.logger.Error(r.Context(), "registration failed", "error", err)
			WriteError(w, http.StatusInternalServerError, "Registration failed")
		}
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Registration successful",
		"token":   token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	token, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			WriteError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		s.logger.Error(r.Context(), "login failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token":   token,
		"message": "Login successful",
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	profile, err := s.users.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			WriteError(w, http.StatusNotFound, "User not found")
			return
		}
		s.logger.Error(r.Context(), "profile lookup failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "Profile lookup failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"id":           profile.ID,
		"email":        profile.Email,
		"drive_linked": profile.DriveLinked,
	})
}

func (s *Server) handleGoogleStart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	authURL, err := s.coordinator.AuthURL(userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Google OAuth is not configured")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"auth_url":     authURL,
		"redirect_uri": s.coordinator.RedirectURI(),
	})
}

// handleGoogleCallback completes the linking flow. The browser lands here
// from Google, so every outcome is a redirect back to the frontend rather
// than a JSON error.
func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	frontend := s.cfg.FrontendURL
	if frontend == "" {
		frontend = "/"
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		http.Redirect(w, r, frontend+"?google_link_error=1", http.StatusFound)
		return
	}

	if err := s.coordinator.HandleCallback(r.Context(), code, state); err != nil {
		s.logger.Warn(r.Context(), "google link failed", "error", err)
		http.Redirect(w, r, frontend+"?google_link_error=1", http.StatusFound)
		return
	}

	http.Redirect(w, r, frontend+"?google_link_success=1", http.StatusFound)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req struct {
		Filename string `json:"filename"`
		Title    string `json:"title"`
		Content  string `json:"content"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	filename, driveFileID, err := s.notes.Save(r.Context(), userID, req.Filename, req.Title, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			WriteError(w, http.StatusBadRequest, "Title is required")
		case errors.Is(err, common.ErrorNotFound):
			WriteError(w, http.StatusNotFound, "Note not found")
		default:
			s.logger.Error(r.Context(), "save failed", "error", err)
			WriteError(w, http.StatusInternalServerError, "Save failed")
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Note saved",
		"filename":      filename,
		"drive_file_id": driveFileID,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	notes, err := s.notes.History(r.Context(), userID)
	if err != nil {
		s.logger.Error(r.Context(), "history failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "History failed")
		return
	}

	views := make([]noteView, 0, len(notes))
	for _, n := range notes {
		views = append(views, toNoteView(n))
	}

	WriteJSON(w, http.StatusOK, views)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req struct {
		Filenames []string `json:"filenames"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if len(req.Filenames) == 0 {
		WriteError(w, http.StatusBadRequest, "No filenames given")
		return
	}

	deleted, remoteRemoved, err := s.notes.Delete(r.Context(), userID, req.Filenames)
	if err != nil {
		s.logger.Error(r.Context(), "delete failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "Delete failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"deleted":             deleted,
		"drive_files_removed": remoteRemoved,
		"message":             "Notes deleted",
	})
}

func (s *Server) handlePin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req struct {
		Filename string `json:"filename"`
		Pinned   bool   `json:"pinned"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Filename == "" {
		WriteError(w, http.StatusBadRequest, "Filename is required")
		return
	}

	if err := s.notes.SetPinned(r.Context(), userID, req.Filename, req.Pinned); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			WriteError(w, http.StatusNotFound, "Note not found")
			return
		}
		s.logger.Error(r.Context(), "pin failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "Pin failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Note updated",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
