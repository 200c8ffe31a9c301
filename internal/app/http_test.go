package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"folio/api/internal/auth"
	"folio/api/internal/doc"
	"folio/api/internal/export"
	"folio/api/internal/preview"
)

const testPassword = "correct horse"

type fakeExporter struct {
	requests []export.Request
}

func (f *fakeExporter) Export(_ context.Context, req export.Request) (*export.Result, error) {
	f.requests = append(f.requests, req)
	return &export.Result{Data: []byte("%PDF-1.7"), Filename: req.Slug + ".pdf", MimeType: "application/pdf"}, nil
}

func newTestServer(t *testing.T, fs *fakeStore) (*HTTPServer, *Service) {
	t.Helper()
	svc, _, _ := newTestService(t, fs)
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	guard, err := auth.NewGuard("admin", hash)
	require.NoError(t, err)
	return NewHTTPServer(svc, guard, "*"), svc
}

func serve(server *HTTPServer, method, target string, body any, admin bool) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if admin {
		req.SetBasicAuth("admin", testPassword)
	}
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response), rr.Body.String())
	return response
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t, newFakeStore())

	rr := serve(server, http.MethodGet, "/api/health", nil, false)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	var response map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if ok, exists := response["ok"]; !exists || ok != true {
		t.Errorf("expected ok=true, got %v", ok)
	}
	if id := rr.Header().Get("X-Request-ID"); !strings.HasPrefix(id, "req_") {
		t.Errorf("expected generated request id, got %q", id)
	}
}

func TestReadyEndpointReportsDatabaseFailure(t *testing.T) {
	fs := newFakeStore()
	fs.pingFn = func(context.Context) error { return errors.New("connection refused") }
	server, _ := newTestServer(t, fs)

	req := httptest.NewRequest(http.MethodGet, "/api/ready", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
	if got := rr.Header().Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("expected request id to be echoed, got %q", got)
	}
	response := decodeResponse(t, rr)
	if response["ok"] != false || response["status"] != "not_ready" {
		t.Errorf("unexpected readiness payload: %v", response)
	}
	checks := response["checks"].(map[string]any)
	if db := checks["database"].(map[string]any); db["status"] != "error" {
		t.Errorf("expected database error, got %v", db)
	}
	if c := checks["cache"].(map[string]any); c["status"] != "ok" {
		t.Errorf("expected cache ok, got %v", c)
	}
}

func TestAdminRequiresCredentials(t *testing.T) {
	server, _ := newTestServer(t, newFakeStore())

	rr := serve(server, http.MethodGet, "/api/admin/posts", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Header().Get("WWW-Authenticate"), "Basic")

	req := httptest.NewRequest(http.MethodGet, "/api/admin/posts", nil)
	req.SetBasicAuth("admin", "wrong")
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(server, http.MethodGet, "/api/admin/posts", nil, true)
	assert.Equal(t, http.StatusOK, rr.Code)

	disabled, err := auth.NewGuard("admin", "")
	require.NoError(t, err)
	server.guard = disabled
	rr = serve(server, http.MethodGet, "/api/admin/posts", nil, true)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "ADMIN_DISABLED", decodeResponse(t, rr)["code"])
}

func TestAdminSaveThenReadPost(t *testing.T) {
	server, _ := newTestServer(t, newFakeStore())
	content := json.RawMessage(docJSON(t,
		doc.Heading(2, doc.Text("Getting Started")),
		doc.Paragraph(doc.Text("Hello world")),
	))

	rr := serve(server, http.MethodPut, "/api/admin/posts/hello", map[string]any{
		"title":     "Hello",
		"published": true,
		"content":   content,
	}, true)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	saved := decodeResponse(t, rr)
	assert.Equal(t, "hello", saved["post"].(map[string]any)["slug"])
	assert.NotNil(t, saved["revision"])

	rr = serve(server, http.MethodGet, "/api/posts/hello", nil, false)
	require.Equal(t, http.StatusOK, rr.Code)
	page := decodeResponse(t, rr)
	assert.Equal(t, "document", page["format"])
	assert.Contains(t, page["html"], "Hello world")

	rr = serve(server, http.MethodGet, "/api/posts/hello/toc", nil, false)
	require.Equal(t, http.StatusOK, rr.Code)
	toc := decodeResponse(t, rr)["toc"].([]any)
	require.Len(t, toc, 1)
	assert.Equal(t, "getting-started", toc[0].(map[string]any)["id"])

	rr = serve(server, http.MethodGet, "/api/posts/hello/history", nil, false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeResponse(t, rr)["revisions"], 1)

	rr = serve(server, http.MethodGet, "/api/posts", nil, false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeResponse(t, rr)["posts"], 1)
}

func TestBlogPageIsMinifiedHTML(t *testing.T) {
	fs := newFakeStore()
	fs.put(samplePost("hello", "Hello", docJSON(t, doc.Paragraph(doc.Text("Hello   world")))))
	server, _ := newTestServer(t, fs)

	rr := serve(server, http.MethodGet, "/blog/hello", nil, false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	body := rr.Body.String()
	assert.Contains(t, body, "Hello")
	assert.NotContains(t, body, "\n\n")

	rr = serve(server, http.MethodGet, "/blog/missing", nil, false)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdminEditReportsFailingOp(t *testing.T) {
	fs := newFakeStore()
	fs.put(samplePost("hello", "Hello", docJSON(t, doc.Paragraph(doc.Text("a")))))
	server, _ := newTestServer(t, fs)

	rr := serve(server, http.MethodPost, "/api/admin/posts/hello/edit", map[string]any{
		"ops": []map[string]any{{"op": "turnInto", "pos": 0, "kind": "poster"}},
	}, true)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	response := decodeResponse(t, rr)
	assert.Equal(t, "INVALID_EDIT", response["code"])
	details := response["details"].(map[string]any)
	assert.Equal(t, float64(0), details["index"])
	assert.Equal(t, "turnInto", details["op"])

	rr = serve(server, http.MethodPost, "/api/admin/posts/hello/edit", map[string]any{
		"ops": []map[string]any{{"op": "duplicate", "pos": 0}},
	}, true)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, []any{"duplicated"}, decodeResponse(t, rr)["outcomes"])
}

func TestRoutingErrors(t *testing.T) {
	server, _ := newTestServer(t, newFakeStore())

	tests := []struct {
		method string
		target string
		status int
		code   string
	}{
		{method: http.MethodGet, target: "/api/posts/missing", status: http.StatusNotFound, code: "NOT_FOUND"},
		{method: http.MethodPost, target: "/api/posts/missing", status: http.StatusMethodNotAllowed, code: "METHOD_NOT_ALLOWED"},
		{method: http.MethodGet, target: "/api/posts/missing/export.svg", status: http.StatusBadRequest, code: "UNSUPPORTED_FORMAT"},
		{method: http.MethodGet, target: "/api/posts/missing/export.pdf?paper=legal", status: http.StatusBadRequest, code: "UNSUPPORTED_PAPER"},
		{method: http.MethodGet, target: "/api/posts/missing?variant=poster", status: http.StatusBadRequest, code: "INVALID_VARIANT"},
		{method: http.MethodGet, target: "/api/search", status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{method: http.MethodGet, target: "/api/nothing", status: http.StatusNotFound, code: "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rr := serve(server, tt.method, tt.target, nil, false)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.code, decodeResponse(t, rr)["code"])
		})
	}
}

func TestSearchAndProjects(t *testing.T) {
	server, _ := newTestServer(t, newFakeStore())

	rr := serve(server, http.MethodGet, "/api/search?q=hello&limit=5", nil, false)
	require.Equal(t, http.StatusOK, rr.Code)
	response := decodeResponse(t, rr)
	assert.Equal(t, "fake", response["engine"])
	assert.Equal(t, "hello", response["query"])

	rr = serve(server, http.MethodGet, "/api/projects", nil, false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []any{}, decodeResponse(t, rr)["projects"])
}

func TestExportPDFDownload(t *testing.T) {
	fs := newFakeStore()
	fs.put(samplePost("hello", "Hello", `"body"`))
	server, svc := newTestServer(t, fs)

	rr := serve(server, http.MethodGet, "/api/posts/hello/export.pdf", nil, false)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	exp := &fakeExporter{}
	svc.export = exp
	rr = serve(server, http.MethodGet, "/api/posts/hello/export.pdf?paper=a4", nil, false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="hello.pdf"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.7", rr.Body.String())
	require.Len(t, exp.requests, 1)
	assert.Equal(t, export.FormatPDF, exp.requests[0].Format)
	assert.Equal(t, export.PaperA4, exp.requests[0].Paper)
}

func TestLinkPreviewUpstreamFailureIsBadGateway(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	server, svc := newTestServer(t, newFakeStore())
	svc.fetcher = preview.NewFetcher(time.Second, zap.NewNop())

	rr := serve(server, http.MethodGet, "/api/admin/link-preview?url="+url.QueryEscape(upstream.URL), nil, true)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, "PREVIEW_FAILED", decodeResponse(t, rr)["code"])
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := newTestServer(t, newFakeStore())

	serve(server, http.MethodGet, "/api/health", nil, false)
	rr := serve(server, http.MethodGet, "/metrics", nil, false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `folio_http_requests_total{code="200",method="GET"} 1`)
}
