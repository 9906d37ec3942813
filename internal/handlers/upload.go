package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/darkroom-tools/darkroom/internal/editor"
	"github.com/darkroom-tools/darkroom/internal/session"
)

const maxFileSize = 10 * 1024 * 1024

// HandleUpload creates an editing session from one or more image files.
// Exactly one file starts single-image editing, more than one starts batch
// mode.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxFileSize); err != nil {
		h.writeError(w, "Failed to parse upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		if f := r.MultipartForm.File["file"]; len(f) > 0 {
			files = f
		}
	}
	if len(files) == 0 {
		h.writeError(w, "No files uploaded", http.StatusBadRequest)
		return
	}

	uploads := make([]*editor.Artifact, 0, len(files))
	for _, header := range files {
		artifact, err := readUpload(header)
		if err != nil {
			h.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		uploads = append(uploads, artifact)
	}

	// Use the first filename (without extension) as session name, with
	// timestamp for uniqueness.
	baseFilename := strings.TrimSuffix(files[0].Filename, filepath.Ext(files[0].Filename))
	sessionID := fmt.Sprintf("%s_%d", baseFilename, time.Now().Unix())

	sess, err := session.New(sessionID, uploads)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.sessionStore.Set(sessionID, sess)

	h.writeJSON(w, map[string]any{
		"session_id": sessionID,
		"mode":       sess.Mode(),
		"images":     len(uploads),
		"message":    fmt.Sprintf("Successfully uploaded %d image(s)", len(uploads)),
	})
}

func readUpload(header *multipart.FileHeader) (*editor.Artifact, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", header.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxFileSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read file contents: %w", err)
	}
	if len(data) >= maxFileSize {
		return nil, fmt.Errorf("file %s too large (max 10MB)", header.Filename)
	}

	mime := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mime, "image/") {
		mime = mimeFromExt(header.Filename)
	}
	return editor.NewArtifact(header.Filename, mime, data), nil
}

func mimeFromExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
