package internal

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/berkana/internal/notestore"
)

func TestReadyHandler_ReportsMirrorCount(t *testing.T) {
	cfg := testConfig(t)
	var logs bytes.Buffer
	_, c, err := setup([]Option{WithConfig(cfg), WithLogOutput(&logs)})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.store.Create(notestore.NewNote{ContactID: "ana", AuthorContactID: "me", Content: "see [[Bo]]"}); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	readyHandler(c)(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		Status   string `json:"status"`
		Notes    int    `json:"notes"`
		Topics   int    `json:"topics"`
		Links    int    `json:"links"`
		Mirrored *int   `json:"mirrored"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	// The note and the stub for [[Bo]], one topic, one link.
	if body.Status != "ok" || body.Notes != 2 || body.Topics != 1 || body.Links != 1 {
		t.Errorf("body = %s", w.Body.String())
	}
	if body.Mirrored == nil || *body.Mirrored != 2 {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestReadyHandler_UnavailableWhenMirrorClosed(t *testing.T) {
	cfg := testConfig(t)
	var logs bytes.Buffer
	_, c, err := setup([]Option{WithConfig(cfg), WithLogOutput(&logs)})
	if err != nil {
		t.Fatal(err)
	}
	_ = c.db.Close()

	w := httptest.NewRecorder()
	readyHandler(c)(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestReadyHandler_WithoutMirror(t *testing.T) {
	cfg := testConfig(t)
	cfg.SQLite.Enabled = false
	var logs bytes.Buffer
	_, c, err := setup([]Option{WithConfig(cfg), WithLogOutput(&logs)})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	w := httptest.NewRecorder()
	readyHandler(c)(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusOK || bytes.Contains(w.Body.Bytes(), []byte("mirrored")) {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
}
