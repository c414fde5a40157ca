package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kressler/docproof/internal/app"
	"github.com/kressler/docproof/internal/document"
	"github.com/kressler/docproof/internal/server"
	"github.com/kressler/docproof/internal/testutil"
)

func newTestServer(t *testing.T) (*server.Server, *httptest.Server) {
	t.Helper()

	cfg := app.DefaultConfig()
	cfg.StorageRoot = t.TempDir()

	s, err := server.NewServer(server.Config{
		AppConfig: cfg,
		Logger:    &testutil.DummyLogger{},
		Capturer:  &testutil.DummyCapturer{},
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(s)
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, ts
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func createDocument(t *testing.T, baseURL string) document.Document {
	t.Helper()
	resp := doJSON(t, http.MethodPost, baseURL+"/documents", map[string]any{
		"title": "Service Agreement",
		"sections": []document.Section{{
			Blocks: []document.Block{{
				Kind: document.BlockText,
				HTML: "<p>Initial scope.</p>",
			}},
		}},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	return decode[document.Document](t, resp)
}

func TestDocumentCRUD(t *testing.T) {
	_, ts := newTestServer(t)

	doc := createDocument(t, ts.URL)
	if doc.ID == "" {
		t.Fatal("created document has no ID")
	}

	resp := doJSON(t, http.MethodGet, ts.URL+"/documents/"+doc.ID, nil)
	got := decode[document.Document](t, resp)
	if got.Title != "Service Agreement" {
		t.Fatalf("title = %q", got.Title)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/documents", nil)
	list := decode[[]document.Document](t, resp)
	if len(list) != 1 {
		t.Fatalf("got %d documents, want 1", len(list))
	}

	resp = doJSON(t, http.MethodDelete, ts.URL+"/documents/"+doc.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, ts.URL+"/documents/"+doc.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get deleted status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestGetDocumentNotFound(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/documents/nope", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestUpdateRevisionsAndRevert(t *testing.T) {
	_, ts := newTestServer(t)
	doc := createDocument(t, ts.URL)

	resp := doJSON(t, http.MethodPut, ts.URL+"/documents/"+doc.ID, map[string]any{
		"title": "Service Agreement v2",
		"sections": []document.Section{{
			Blocks: []document.Block{{
				Kind: document.BlockText,
				HTML: "<p>Expanded scope.</p>",
			}},
		}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, ts.URL+"/documents/"+doc.ID+"/revisions", nil)
	revs := decode[[]document.Revision](t, resp)
	if len(revs) != 1 {
		t.Fatalf("got %d revisions, want 1", len(revs))
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/documents/"+doc.ID+"/revert", map[string]any{"steps": 1})
	reverted := decode[document.Document](t, resp)
	if got := reverted.Sections[0].Blocks[0].HTML; got != "<p>Initial scope.</p>" {
		t.Fatalf("reverted content = %q", got)
	}

	// History is consumed; a second revert conflicts.
	resp = doJSON(t, http.MethodPost, ts.URL+"/documents/"+doc.ID+"/revert", map[string]any{"steps": 1})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second revert status = %d, want 409", resp.StatusCode)
	}
}

func waitForJobDone(t *testing.T, baseURL, jobID string) app.Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp := doJSON(t, http.MethodGet, baseURL+"/jobs/"+jobID, nil)
		job := decode[app.Job](t, resp)
		switch job.Status {
		case app.JobDone, app.JobFailed, app.JobCanceled:
			return job
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return app.Job{}
}

func TestExportJobAndDownload(t *testing.T) {
	_, ts := newTestServer(t)
	doc := createDocument(t, ts.URL)

	resp := doJSON(t, http.MethodPost, ts.URL+"/documents/"+doc.ID+"/jobs/export",
		map[string]string{"format": "markdown"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("start job status = %d", resp.StatusCode)
	}
	job := decode[app.Job](t, resp)

	done := waitForJobDone(t, ts.URL, job.ID)
	if done.Status != app.JobDone {
		t.Fatalf("job status = %q (error %q)", done.Status, done.Error)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/exports/"+job.ID+"/download", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download status = %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if !bytes.Contains(data, []byte("Initial scope.")) {
		t.Fatalf("artifact missing document text: %q", data)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, job.ID) {
		t.Fatalf("Content-Disposition = %q", cd)
	}
}

func TestExportJobUnknownFormat(t *testing.T) {
	_, ts := newTestServer(t)
	doc := createDocument(t, ts.URL)

	resp := doJSON(t, http.MethodPost, ts.URL+"/documents/"+doc.ID+"/jobs/export",
		map[string]string{"format": "docx"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestExportJobUnknownDocument(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/documents/nope/jobs/export",
		map[string]string{"format": "markdown"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDownloadBeforeJobFinished(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/exports/nope/download", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestExportWebSocketStreamsEvents(t *testing.T) {
	_, ts := newTestServer(t)
	doc := createDocument(t, ts.URL)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") +
		fmt.Sprintf("/ws/documents/%s/export?format=markdown", doc.ID)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// First frame is the job snapshot.
	var job app.Job
	if err := conn.ReadJSON(&job); err != nil {
		t.Fatalf("read job frame: %v", err)
	}
	if job.DocumentID != doc.ID {
		t.Fatalf("job document = %q, want %q", job.DocumentID, doc.ID)
	}

	// Then status events until the channel closes.
	sawDone := false
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		var ev app.JobEvent
		if err := conn.ReadJSON(&ev); err != nil {
			break
		}
		if ev.Status == app.JobDone {
			sawDone = true
		}
	}
	if !sawDone {
		t.Fatal("never saw a done event")
	}
}

func TestCORSHeaders(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/documents", nil)
	defer resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
}
