package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/darkroom-tools/darkroom/internal/config"
	"github.com/darkroom-tools/darkroom/internal/editor"
	"github.com/darkroom-tools/darkroom/internal/session"
)

type stubProvider struct {
	fail bool
}

func (s *stubProvider) EditImage(ctx context.Context, img *editor.Artifact, instruction string, hotspot editor.Point) (*editor.Artifact, error) {
	return s.result(img)
}

func (s *stubProvider) FilterImage(ctx context.Context, img *editor.Artifact, prompt string) (*editor.Artifact, error) {
	return s.result(img)
}

func (s *stubProvider) AdjustImage(ctx context.Context, img *editor.Artifact, prompt string) (*editor.Artifact, error) {
	return s.result(img)
}

func (s *stubProvider) result(img *editor.Artifact) (*editor.Artifact, error) {
	if s.fail {
		return nil, &editor.GenerationError{Message: "model refused"}
	}
	return editor.NewArtifact("out-"+img.Name, img.MIME, img.Data), nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, filenames ...string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range filenames {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(pngBytes(t)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func createSession(t *testing.T, h *Handler, filenames ...string) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.HandleUpload(rec, uploadRequest(t, filenames...))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return resp.SessionID
}

func postJSON(h *Handler, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.HandleSessionDetail(rec, req)
	return rec
}

func TestUploadSelectsModeByFileCount(t *testing.T) {
	h := New(&stubProvider{}, nil)

	singleID := createSession(t, h, "one.png")
	sess, _ := h.Store().Get(singleID)
	if sess.Mode() != session.ModeSingle {
		t.Fatalf("one file: mode = %s, want single", sess.Mode())
	}

	batchID := createSession(t, h, "a.png", "b.png", "c.png")
	sess, _ = h.Store().Get(batchID)
	if sess.Mode() != session.ModeBatch {
		t.Fatalf("three files: mode = %s, want batch", sess.Mode())
	}
	if jobs := sess.Jobs(); len(jobs) != 3 {
		t.Fatalf("jobs = %d, want 3", len(jobs))
	}
}

func TestFilterUndoRedoFlow(t *testing.T) {
	h := New(&stubProvider{}, nil)
	id := createSession(t, h, "photo.png")

	rec := postJSON(h, "/api/sessions/"+id+"/filter", `{"prompt":"synthwave"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("filter status = %d: %s", rec.Code, rec.Body.String())
	}
	var state session.State
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.History == nil || state.History.Length != 2 || !state.History.CanUndo {
		t.Fatalf("history = %+v, want length 2 with undo", state.History)
	}

	rec = postJSON(h, "/api/sessions/"+id+"/undo", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("undo status = %d", rec.Code)
	}
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.History.Index != 0 || !state.History.CanRedo {
		t.Fatalf("history after undo = %+v", state.History)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	h := New(&stubProvider{}, nil)
	id := createSession(t, h, "photo.png")

	// Empty prompt is a client error.
	if rec := postJSON(h, "/api/sessions/"+id+"/filter", `{"prompt":"  "}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty prompt status = %d, want 400", rec.Code)
	}

	// Retouch without a selected hotspot is a client error.
	if rec := postJSON(h, "/api/sessions/"+id+"/retouch", `{"prompt":"fix"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("no hotspot status = %d, want 400", rec.Code)
	}

	// A collaborator failure maps to a gateway error.
	failing := New(&stubProvider{fail: true}, nil)
	fid := createSession(t, failing, "photo.png")
	if rec := postJSON(failing, "/api/sessions/"+fid+"/filter", `{"prompt":"x"}`); rec.Code != http.StatusBadGateway {
		t.Fatalf("generation failure status = %d, want 502", rec.Code)
	}

	// Unknown session is not found.
	if rec := postJSON(h, "/api/sessions/nope/undo", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing session status = %d, want 404", rec.Code)
	}

	// A malformed body is a client error, not a server one.
	if rec := postJSON(h, "/api/sessions/"+id+"/filter", `{"prompt":`); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status = %d, want 400", rec.Code)
	}
}

func TestUploadViaSessionsCollection(t *testing.T) {
	h := New(&stubProvider{}, nil)

	req := uploadRequest(t, "photo.png")
	req.URL.Path = "/api/sessions"
	rec := httptest.NewRecorder()
	h.HandleSessions(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if _, ok := h.Store().Get(resp.SessionID); !ok {
		t.Fatalf("session %q was not created", resp.SessionID)
	}
}

func TestRetouchWithInlineSelection(t *testing.T) {
	h := New(&stubProvider{}, nil)
	id := createSession(t, h, "photo.png")

	body := `{"instruction":"remove the lamp post","point":{"x":4,"y":4},"rendered":{"width":8,"height":8}}`
	if rec := postJSON(h, "/api/sessions/"+id+"/retouch", body); rec.Code != http.StatusOK {
		t.Fatalf("inline retouch status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCropWithInlineRect(t *testing.T) {
	h := New(&stubProvider{}, nil)
	id := createSession(t, h, "photo.png")

	body := `{"rect":{"x":0,"y":0,"width":4,"height":4},"rendered":{"width":8,"height":8}}`
	if rec := postJSON(h, "/api/sessions/"+id+"/crop", body); rec.Code != http.StatusOK {
		t.Fatalf("inline crop status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestJobAndArchiveStatuses(t *testing.T) {
	h := New(&stubProvider{}, nil)
	id := createSession(t, h, "a.png", "b.png")

	// A job id that was never part of the batch is not found.
	if rec := postJSON(h, "/api/sessions/"+id+"/jobs/9/edit", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing job status = %d, want 404", rec.Code)
	}

	// Downloading before anything was processed is a client error.
	rec := httptest.NewRecorder()
	h.HandleSessionDetail(rec, httptest.NewRequest("GET", "/api/sessions/"+id+"/download", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("early download status = %d, want 400", rec.Code)
	}
}

func TestBatchRunEditReturnOverHTTP(t *testing.T) {
	h := New(&stubProvider{}, nil)
	id := createSession(t, h, "a.png", "b.png")

	// Promoting before the batch has run must fail without changing state.
	if rec := postJSON(h, "/api/sessions/"+id+"/jobs/0/edit", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("early promote status = %d, want 400", rec.Code)
	}

	if rec := postJSON(h, "/api/sessions/"+id+"/filter", `{"preset":"Lomo"}`); rec.Code != http.StatusOK {
		t.Fatalf("bulk filter status = %d: %s", rec.Code, rec.Body.String())
	}

	rec := postJSON(h, "/api/sessions/"+id+"/jobs/1/edit", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("promote status = %d: %s", rec.Code, rec.Body.String())
	}
	var state session.State
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Mode != session.ModeSingle || state.HandoffJobID == nil || *state.HandoffJobID != 1 {
		t.Fatalf("state after promote = %+v", state)
	}

	if rec := postJSON(h, "/api/sessions/"+id+"/adjust", `{"prompt":"brighter"}`); rec.Code != http.StatusOK {
		t.Fatalf("adjust status = %d", rec.Code)
	}

	rec = postJSON(h, "/api/sessions/"+id+"/return", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("return status = %d: %s", rec.Code, rec.Body.String())
	}
	state = session.State{}
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Mode != session.ModeBatch || state.HandoffJobID != nil {
		t.Fatalf("state after return = %+v", state)
	}

	// The archive contains both processed results.
	arec := httptest.NewRecorder()
	h.HandleSessionDetail(arec, httptest.NewRequest("GET", "/api/sessions/"+id+"/download", nil))
	if arec.Code != http.StatusOK {
		t.Fatalf("download status = %d: %s", arec.Code, arec.Body.String())
	}
	if ct := arec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("download content type = %s", ct)
	}
}

func TestPresetLookup(t *testing.T) {
	h := New(&stubProvider{}, config.Default())
	id := createSession(t, h, "photo.png")

	if rec := postJSON(h, "/api/sessions/"+id+"/filter", `{"preset":"Synthwave"}`); rec.Code != http.StatusOK {
		t.Fatalf("preset filter status = %d", rec.Code)
	}
	if rec := postJSON(h, "/api/sessions/"+id+"/filter", `{"preset":"DoesNotExist"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown preset status = %d, want 400", rec.Code)
	}
}
