package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/darkroom-tools/darkroom/internal/editor"
	"github.com/darkroom-tools/darkroom/internal/session"
)

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		sessions := h.sessionStore.GetAll()
		sessionList := make([]session.State, 0, len(sessions))
		for _, sess := range sessions {
			sessionList = append(sessionList, sess.Snapshot())
		}
		h.writeJSON(w, sessionList)
	case "POST":
		// Uploading images to the collection creates a session.
		h.HandleUpload(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSessionDetail routes /api/sessions/{id}[/action...] to the matching
// session operation.
func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/")
	parts := strings.Split(rest, "/")

	sess, ok := h.getSessionOrError(w, parts[0])
	if !ok {
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case "GET":
			h.writeJSON(w, sess.Snapshot())
		case "DELETE":
			h.sessionStore.Delete(sess.ID)
			h.writeJSON(w, map[string]any{"deleted": sess.ID})
		default:
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if parts[1] == "jobs" {
		h.handleJobAction(w, r, sess, parts[2:])
		return
	}

	switch r.Method {
	case "GET":
		switch parts[1] {
		case "image":
			h.serveCurrentImage(w, sess)
		case "download":
			h.serveArchive(w, sess)
		default:
			h.writeError(w, "Unknown action: "+parts[1], http.StatusNotFound)
		}
	case "POST":
		h.handleEditAction(w, r, sess, parts[1])
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleJobAction(w http.ResponseWriter, r *http.Request, sess *session.Session, parts []string) {
	if len(parts) != 2 {
		h.writeError(w, "Expected /jobs/{id}/{action}", http.StatusNotFound)
		return
	}
	jobID, err := strconv.Atoi(parts[0])
	if err != nil {
		h.writeError(w, "Invalid job id: "+parts[0], http.StatusBadRequest)
		return
	}

	switch parts[1] {
	case "image":
		if r.Method != "GET" {
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		artifact, err := sess.JobImage(jobID)
		if err != nil {
			h.writeOpError(w, err)
			return
		}
		h.serveArtifact(w, artifact)
	case "edit":
		if r.Method != "POST" {
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := sess.EditJob(jobID); err != nil {
			h.writeOpError(w, err)
			return
		}
		h.writeJSON(w, sess.Snapshot())
	default:
		h.writeError(w, "Unknown job action: "+parts[1], http.StatusNotFound)
	}
}

func (h *Handler) serveCurrentImage(w http.ResponseWriter, sess *session.Session) {
	artifact, err := sess.CurrentImage()
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	h.serveArtifact(w, artifact)
}

func (h *Handler) serveArtifact(w http.ResponseWriter, artifact *editor.Artifact) {
	w.Header().Set("Content-Type", artifact.MIME)
	w.Header().Set("Content-Disposition", `inline; filename="`+artifact.Name+`"`)
	if _, err := w.Write(artifact.Data); err != nil {
		slog.Error("Unable to write image response", "err", err)
	}
}
