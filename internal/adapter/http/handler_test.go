package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cv-studio/internal/adapter/repository"
	"cv-studio/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPDF struct{ err error }

func (s stubPDF) RenderHTMLToPDF(_ context.Context, html string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-1.7 " + html[:15]), nil
}

type testServer struct {
	app    *fiber.App
	store  *repository.SQLiteStore
	editor *usecase.Editor
}

func newTestServer(t *testing.T, pdf usecase.PDFRenderer) *testServer {
	t.Helper()
	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "cv.db"))
	require.NoError(t, err)
	editor := usecase.NewEditor(store, repository.NewDraftCache(nil, time.Minute), nil, usecase.WithWindow(time.Hour))
	t.Cleanup(func() {
		_ = editor.Shutdown(context.Background())
		_ = store.Close()
	})

	app := fiber.New()
	NewHandler(editor, store, pdf, nil, "", nil).RegisterRoutes(app.Group("/api/v1"))
	return &testServer{app: app, store: store, editor: editor}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func decode(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m), string(b))
	return m
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	resp, body := s.do(t, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode(t, body)["status"])
}

func TestInvalidOwnerID(t *testing.T) {
	s := newTestServer(t, nil)
	resp, body := s.do(t, http.MethodGet, "/api/v1/cv/not-a-uuid/draft", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid ownerId", decode(t, body)["error"])
}

func TestProfileRoundTrip(t *testing.T) {
	s := newTestServer(t, nil)
	owner := uuid.New()
	base := "/api/v1/profiles/" + owner.String()

	resp, _ := s.do(t, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPut, base, `{"kind":"robot"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := s.do(t, http.MethodPut, base, `{"kind":"business","display_name":"Acme Studio","title":"Design"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	p := decode(t, body)
	assert.Equal(t, "business", p["kind"])
	assert.Equal(t, "Acme Studio", p["display_name"])
}

func TestEditValidateAndCommitFlow(t *testing.T) {
	s := newTestServer(t, nil)
	owner := uuid.New()
	base := "/api/v1/cv/" + owner.String()

	resp, body := s.do(t, http.MethodGet, base+"/draft", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = s.do(t, http.MethodPatch, base+"/draft", `{"edits":[
		{"op":"set","path":"summary","text":"Backend engineer"},
		{"op":"add","path":"experience"},
		{"op":"set","path":"experience.0.job_title","text":"Engineer"},
		{"op":"set","path":"experience.0.company","text":"Acme"},
		{"op":"set","path":"experience.0.start_date","text":"2020-01"},
		{"op":"set","path":"experience.0.end_date","text":"2019-01"}
	]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	res := decode(t, body)
	assert.Contains(t, res["errors"], "experience.0.end_date")
	assert.Equal(t, "pending", res["status"].(map[string]any)["state"])

	resp, body = s.do(t, http.MethodPost, base+"/commit", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, decode(t, body)["errors"], "experience.0.end_date")

	resp, body = s.do(t, http.MethodPost, base+"/validate", `{"path":"experience.0"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decode(t, body)["valid"])

	resp, _ = s.do(t, http.MethodPatch, base+"/draft", `{"edits":[{"op":"set","path":"experience.0.end_date","text":"2021-01"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = s.do(t, http.MethodPost, base+"/commit", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "Backend engineer", decode(t, body)["cv"].(map[string]any)["summary"])

	_, err := s.store.GetDraft(context.Background(), owner)
	assert.Error(t, err, "the draft is discarded after commit")

	resp, body = s.do(t, http.MethodGet, base+"/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "idle", decode(t, body)["state"])
}

func TestEditRejectsBadPath(t *testing.T) {
	s := newTestServer(t, nil)
	base := "/api/v1/cv/" + uuid.New().String()

	resp, _ := s.do(t, http.MethodPatch, base+"/draft", `{"edits":[{"op":"set","path":"experience.4.company","text":"x"}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPatch, base+"/draft", `{"edits":[{"op":"set","path":"salary","text":"x"}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCloseSessionFlushesDraft(t *testing.T) {
	s := newTestServer(t, nil)
	owner := uuid.New()
	base := "/api/v1/cv/" + owner.String()

	resp, _ := s.do(t, http.MethodPut, base+"/draft", `{"summary":"imported","skills":["Go"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.do(t, http.MethodDelete, base+"/session", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	doc, err := s.store.GetDraft(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, "imported", doc.Summary)

	resp, _ = s.do(t, http.MethodDelete, base+"/session", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPreviewAndDownload(t *testing.T) {
	s := newTestServer(t, stubPDF{})
	owner := uuid.New()
	base := "/api/v1/cv/" + owner.String()

	resp, _ := s.do(t, http.MethodPut, base+"/draft", `{"summary":"<b>bold</b> claims","skills":["Go","Rust"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := s.do(t, http.MethodGet, base+"/preview?template=ats&lang=pt", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "sandbox", resp.Header.Get(fiber.HeaderContentSecurityPolicy))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/html")
	assert.Contains(t, string(body), "Competências")
	assert.Contains(t, string(body), "&lt;b&gt;bold&lt;/b&gt;")
	assert.NotContains(t, string(body), "sidebar")

	resp, _ = s.do(t, http.MethodGet, base+"/preview?template=fancy", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, base+"/download", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "cv.html")

	resp, body = s.do(t, http.MethodGet, base+"/download?format=pdf", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "cv.pdf")
	assert.True(t, strings.HasPrefix(string(body), "%PDF"))

	resp, _ = s.do(t, http.MethodGet, base+"/download?format=docx", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDownloadPDFFailures(t *testing.T) {
	owner := uuid.New().String()

	s := newTestServer(t, nil)
	resp, _ := s.do(t, http.MethodGet, "/api/v1/cv/"+owner+"/download?format=pdf", "")
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)

	s = newTestServer(t, stubPDF{err: errors.New("chrome crashed")})
	resp, _ = s.do(t, http.MethodGet, "/api/v1/cv/"+owner+"/download?format=pdf", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
