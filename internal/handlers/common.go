package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/darkroom-tools/darkroom/internal/config"
	"github.com/darkroom-tools/darkroom/internal/editor"
	"github.com/darkroom-tools/darkroom/internal/generate"
	"github.com/darkroom-tools/darkroom/internal/session"
	"github.com/darkroom-tools/darkroom/internal/storage"
)

type Handler struct {
	sessionStore *storage.Store
	provider     generate.Provider
	presets      *config.Presets
}

func New(provider generate.Provider, presets *config.Presets) *Handler {
	if presets == nil {
		presets = config.Default()
	}
	return &Handler{
		sessionStore: storage.New(),
		provider:     provider,
		presets:      presets,
	}
}

// Store exposes the session store for shutdown teardown.
func (h *Handler) Store() *storage.Store {
	return h.sessionStore
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// writeOpError maps a domain error to an HTTP status. A result discarded
// because the session was reset mid-call is not an error for the client.
func (h *Handler) writeOpError(w http.ResponseWriter, err error) {
	if errors.Is(err, editor.ErrSessionReset) {
		h.writeJSON(w, map[string]any{"discarded": true})
		return
	}
	h.writeError(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	var genErr *editor.GenerationError
	switch {
	case errors.As(err, &genErr):
		return http.StatusBadGateway
	case errors.Is(err, editor.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, editor.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, errUnknownPreset),
		errors.Is(err, errInvalidJSON),
		errors.Is(err, editor.ErrArchiveFailed),
		errors.Is(err, editor.ErrJobNotReady),
		errors.Is(err, editor.ErrNoTargetSelected),
		errors.Is(err, editor.ErrNoCropSelected),
		errors.Is(err, editor.ErrEmptyPrompt),
		errors.Is(err, editor.ErrEmptyChain),
		errors.Is(err, editor.ErrNoHandoff):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*session.Session, bool) {
	sess, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

// HandlePresets serves the configured filter and adjustment presets.
func (h *Handler) HandlePresets(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, h.presets)
}
