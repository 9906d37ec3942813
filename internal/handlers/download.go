package handlers

import (
	"log/slog"
	"net/http"

	"github.com/darkroom-tools/darkroom/internal/archive"
	"github.com/darkroom-tools/darkroom/internal/session"
)

// serveArchive packages every processed batch result into one zip download.
func (h *Handler) serveArchive(w http.ResponseWriter, sess *session.Session) {
	entries, err := sess.ProcessedArtifacts()
	if err != nil {
		h.writeOpError(w, err)
		return
	}

	blob, err := archive.Build(entries)
	if err != nil {
		h.writeOpError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+sess.ID+`.zip"`)
	if _, err := w.Write(blob); err != nil {
		slog.Error("Unable to write archive response", "err", err)
	}
	slog.Info("Archive downloaded", "session_id", sess.ID, "entries", len(entries))
}
