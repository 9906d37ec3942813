package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/darkroom-tools/darkroom/internal/editor"
	"github.com/darkroom-tools/darkroom/internal/session"
)

var (
	errUnknownPreset = errors.New("unknown preset")
	errInvalidJSON   = errors.New("invalid JSON")
)

type selectRequest struct {
	Point    *editor.Point `json:"point,omitempty"`
	Rect     *editor.Rect  `json:"rect,omitempty"`
	Rendered editor.Size   `json:"rendered"`
}

type promptRequest struct {
	Prompt string `json:"prompt"`
	Preset string `json:"preset,omitempty"`
}

// retouchRequest carries the instruction plus, optionally, an inline hotspot.
// A hotspot selected earlier via the select action is used when none is sent
// inline.
type retouchRequest struct {
	Instruction string        `json:"instruction"`
	Prompt      string        `json:"prompt,omitempty"` // alias for instruction
	Point       *editor.Point `json:"point,omitempty"`
	Rendered    editor.Size   `json:"rendered,omitempty"`
}

// cropRequest optionally carries the rectangle inline; an empty body falls
// back to a selection made earlier via the select action.
type cropRequest struct {
	Rect     *editor.Rect `json:"rect,omitempty"`
	Rendered editor.Size  `json:"rendered,omitempty"`
}

func (h *Handler) handleEditAction(w http.ResponseWriter, r *http.Request, sess *session.Session, action string) {
	var err error
	switch action {
	case "select":
		err = h.applySelection(r, sess)
	case "retouch":
		err = h.applyRetouch(r, sess)
	case "filter":
		err = h.applyPrompted(r, sess, session.BulkFilter)
	case "adjust":
		err = h.applyPrompted(r, sess, session.BulkAdjust)
	case "crop":
		err = h.applyCrop(r, sess)
	case "undo":
		err = sess.Undo()
	case "redo":
		err = sess.Redo()
	case "reset":
		err = sess.ResetHistory()
	case "return":
		err = sess.ReturnToBatch()
	case "discard":
		err = sess.DiscardEdit()
	default:
		h.writeError(w, "Unknown action: "+action, http.StatusNotFound)
		return
	}

	if err != nil {
		h.writeOpError(w, err)
		return
	}
	h.writeJSON(w, sess.Snapshot())
}

func (h *Handler) applyRetouch(r *http.Request, sess *session.Session) error {
	var req retouchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return fmt.Errorf("%w: %v", errInvalidJSON, err)
	}
	if req.Point != nil {
		if err := sess.SelectHotspot(*req.Point, req.Rendered); err != nil {
			return err
		}
	}
	instruction := req.Instruction
	if instruction == "" {
		instruction = req.Prompt
	}
	_, err := sess.Retouch(r.Context(), h.provider, instruction)
	return err
}

func (h *Handler) applyCrop(r *http.Request, sess *session.Session) error {
	var req cropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", errInvalidJSON, err)
	}
	if req.Rect != nil {
		if err := sess.SelectCrop(*req.Rect, req.Rendered); err != nil {
			return err
		}
	}
	_, err := sess.Crop()
	return err
}

func (h *Handler) applySelection(r *http.Request, sess *session.Session) error {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return fmt.Errorf("%w: %v", errInvalidJSON, err)
	}
	if req.Rect != nil {
		return sess.SelectCrop(*req.Rect, req.Rendered)
	}
	if req.Point != nil {
		return sess.SelectHotspot(*req.Point, req.Rendered)
	}
	return editor.ErrNoTargetSelected
}

// applyPrompted runs a filter or adjustment: against the current image in
// single mode, or as a sequential bulk operation over every job's original in
// batch mode.
func (h *Handler) applyPrompted(r *http.Request, sess *session.Session, kind session.BulkKind) error {
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return fmt.Errorf("%w: %v", errInvalidJSON, err)
	}
	prompt := req.Prompt
	if req.Preset != "" {
		preset, ok := h.presets.Find(req.Preset)
		if !ok {
			return fmt.Errorf("%w: %s", errUnknownPreset, req.Preset)
		}
		prompt = preset.Prompt
	}

	if sess.Mode() == session.ModeBatch {
		_, err := sess.RunBulk(r.Context(), h.provider, kind, prompt)
		return err
	}

	var err error
	switch kind {
	case session.BulkFilter:
		_, err = sess.Filter(r.Context(), h.provider, prompt)
	case session.BulkAdjust:
		_, err = sess.Adjust(r.Context(), h.provider, prompt)
	}
	return err
}
