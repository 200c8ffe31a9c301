package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tdewolff/minify/v2"
	minhtml "github.com/tdewolff/minify/v2/html"
	"go.uber.org/zap"

	"folio/api/internal/auth"
	"folio/api/internal/export"
	"folio/api/internal/metrics"
	"folio/api/internal/render"
	"folio/api/internal/search"
	"folio/api/internal/util"
)

type HTTPServer struct {
	service    *Service
	guard      *auth.Guard
	metrics    *metrics.Metrics
	logger     *zap.Logger
	minifier   *minify.M
	corsOrigin string
}

func NewHTTPServer(service *Service, guard *auth.Guard, corsOrigin string) *HTTPServer {
	minifier := minify.New()
	minifier.AddFunc("text/html", minhtml.Minify)
	return &HTTPServer{
		service:    service,
		guard:      guard,
		metrics:    service.metrics,
		logger:     service.logger.Named("http"),
		minifier:   minifier,
		corsOrigin: corsOrigin,
	}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		s.handleReady(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/metrics" {
		s.metrics.Handler().ServeHTTP(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/posts" {
		items, err := s.service.ListPosts(r.Context(), false)
		if err != nil {
			s.writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"posts": items})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/about" {
		about, err := s.service.GetAbout(r.Context())
		if err != nil {
			s.writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, about)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/projects" {
		items, err := s.service.ListProjects(r.Context())
		if err != nil {
			s.writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"projects": items})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/search" {
		s.handleSearch(w, r)
		return
	}

	parts := splitPath(r.URL.Path)

	if r.Method == http.MethodGet && len(parts) == 2 && parts[0] == "blog" {
		s.handleBlogPage(w, r, parts[1])
		return
	}

	if len(parts) >= 3 && parts[0] == "api" && parts[1] == "posts" {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
			return
		}
		s.handlePost(w, r, parts[2], parts[3:])
		return
	}

	if len(parts) >= 2 && parts[0] == "api" && parts[1] == "admin" {
		user, ok := s.requireAdmin(w, r)
		if !ok {
			return
		}
		s.handleAdmin(w, r, user, parts[2:])
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"database": map[string]any{"status": "ok"},
	}

	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["database"] = map[string]any{
			"status": "error",
			"error":  err.Error(),
		}
	}

	// A failing cache does not fail readiness.
	switch configured, err := s.service.PingCache(ctx); {
	case !configured:
		checks["cache"] = map[string]any{"status": "disabled"}
	case err != nil:
		checks["cache"] = map[string]any{"status": "error", "error": err.Error()}
	default:
		checks["cache"] = map[string]any{"status": "ok"}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	text := strings.TrimSpace(values.Get("q"))
	if text == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "q is required", nil)
		return
	}
	limit, _ := strconv.Atoi(values.Get("limit"))
	offset, _ := strconv.Atoi(values.Get("offset"))
	writeJSON(w, http.StatusOK, s.service.Search(search.Query{Text: text, Limit: limit, Offset: offset}))
}

func (s *HTTPServer) handlePost(w http.ResponseWriter, r *http.Request, slug string, rest []string) {
	switch {
	case len(rest) == 0:
		variant := render.VariantBlog
		if raw := r.URL.Query().Get("variant"); raw != "" {
			parsed, err := render.ParseVariant(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_VARIANT", err.Error(), nil)
				return
			}
			variant = parsed
		}
		page, err := s.service.GetPostPage(r.Context(), slug, variant)
		if err != nil {
			s.writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)

	case len(rest) == 1 && rest[0] == "toc":
		toc, err := s.service.PostTOC(r.Context(), slug)
		if err != nil {
			s.writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"toc": toc})

	case len(rest) == 1 && rest[0] == "history":
		items, err := s.service.PostHistory(r.Context(), slug)
		if err != nil {
			s.writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"revisions": items})

	case len(rest) == 2 && rest[0] == "history":
		revision, err := s.service.PostRevision(r.Context(), slug, rest[1])
		if err != nil {
			s.writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, revision)

	case len(rest) == 1 && strings.HasPrefix(rest[0], "export."):
		format, err := export.ParseFormat(strings.TrimPrefix(rest[0], "export."))
		if err != nil {
			s.writeMappedError(w, err)
			return
		}
		paper, err := export.ParsePaper(r.URL.Query().Get("paper"))
		if err != nil {
			s.writeMappedError(w, err)
			return
		}
		result, err := s.service.ExportPost(r.Context(), slug, format, paper)
		if err != nil {
			s.writeMappedError(w, err)
			return
		}
		w.Header().Set("Content-Type", result.MimeType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.Data)

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	}
}

func (s *HTTPServer) handleBlogPage(w http.ResponseWriter, r *http.Request, slug string) {
	page, err := s.service.BlogPage(r.Context(), slug)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	body, err := s.minifier.String("text/html", page)
	if err != nil {
		s.logger.Warn("minify blog page", zap.String("slug", slug), zap.Error(err))
		body = page
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *HTTPServer) handleAdmin(w http.ResponseWriter, r *http.Request, user string, parts []string) {
	switch {
	case r.Method == http.MethodGet && len(parts) == 1 && parts[0] == "posts":
		items, err := s.service.ListPosts(r.Context(), true)
		if err != nil {
			s.writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"posts": items})

	case r.Method == http.MethodGet && len(parts) == 2 && parts[0] == "posts":
		post, err := s.service.GetPost(r.Context(), parts[1], true)
		if err != nil {
			s.writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"post": post})

	case r.Method == http.MethodPut && len(parts) == 2 && parts[0] == "posts":
		var body SavePostInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		result, err := s.service.SavePost(r.Context(), parts[1], body, user)
		if err != nil {
			s.writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	case r.Method == http.MethodPost && len(parts) == 3 && parts[0] == "posts" && parts[2] == "edit":
		var body EditPostInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		result, err := s.service.EditPost(r.Context(), parts[1], body, user)
		if err != nil {
			s.writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	case r.Method == http.MethodPut && len(parts) == 1 && parts[0] == "about":
		var body struct {
			Content json.RawMessage `json:"content"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		about, err := s.service.SaveAbout(r.Context(), body.Content)
		if err != nil {
			s.writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, about)

	case r.Method == http.MethodPost && len(parts) == 1 && parts[0] == "render":
		var body RenderInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		result, err := s.service.RenderPreview(r.Context(), body)
		if err != nil {
			s.writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	case r.Method == http.MethodGet && len(parts) == 1 && parts[0] == "link-preview":
		card, cached, err := s.service.LinkPreview(r.Context(), r.URL.Query().Get("url"))
		if err != nil {
			s.writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"card": card, "cached": cached})

	case r.Method == http.MethodPost && len(parts) == 2 && parts[0] == "search" && parts[1] == "reindex":
		if !s.service.Reindex() {
			writeError(w, http.StatusServiceUnavailable, "SEARCH_UNAVAILABLE", "Search is not configured", nil)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	}
}

// requireAdmin checks basic-auth credentials and returns the admin user name.
func (s *HTTPServer) requireAdmin(w http.ResponseWriter, r *http.Request) (string, bool) {
	err := s.guard.Check(r)
	if err == nil {
		user, _, _ := r.BasicAuth()
		return user, true
	}
	if errors.Is(err, auth.ErrUnauthorized) {
		w.Header().Set("WWW-Authenticate", `Basic realm="folio admin"`)
	}
	status, code, message, details := mapError(err)
	writeError(w, status, code, message, details)
	return "", false
}

func (s *HTTPServer) writeMappedError(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("code", code), zap.Error(err))
	}
	writeError(w, status, code, message, details)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = util.NewID("req")
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		elapsed := time.Since(started)
		s.metrics.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(writer.status)).Inc()
		s.metrics.HTTPDuration.WithLabelValues(r.Method).Observe(elapsed.Seconds())
		s.logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", writer.status),
			zap.Int64("duration_ms", elapsed.Milliseconds()),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
