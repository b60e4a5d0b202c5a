package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/text/language"

	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/internal/render"
	"github.com/goliatone/go-storefront/internal/runtimeconfig"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

const (
	previewThemeParam = "preview_theme_id"
	localeParam       = "locale"
	headerTemplate    = "X-Storefront-Template"
	headerDiagnostics = "X-Storefront-Diagnostics"
)

// PageRenderer renders storefront pages.
type PageRenderer interface {
	RenderPage(ctx context.Context, req render.Request) (*render.Page, error)
}

// StoreRouter maps request hosts to stores.
type StoreRouter interface {
	StoreForHost(host string) (runtimeconfig.StoreRoute, bool)
}

// StorefrontOption configures the handler.
type StorefrontOption func(*StorefrontHandler)

// WithLogger sets the request logger.
func WithLogger(logger interfaces.Logger) StorefrontOption {
	return func(h *StorefrontHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithPreview toggles preview_theme_id support.
func WithPreview(enabled bool) StorefrontOption {
	return func(h *StorefrontHandler) {
		h.preview = enabled
	}
}

// WithDiagnosticsHeader exposes the diagnostic count of every page.
func WithDiagnosticsHeader(enabled bool) StorefrontOption {
	return func(h *StorefrontHandler) {
		h.diagnosticsHeader = enabled
	}
}

// StorefrontHandler renders pages for routed stores.
type StorefrontHandler struct {
	renderer          PageRenderer
	stores            StoreRouter
	logger            interfaces.Logger
	preview           bool
	diagnosticsHeader bool
}

// NewStorefrontHandler builds a handler over renderer and stores.
func NewStorefrontHandler(renderer PageRenderer, stores StoreRouter, opts ...StorefrontOption) *StorefrontHandler {
	h := &StorefrontHandler{
		renderer: renderer,
		stores:   stores,
		logger:   logging.NoOp(),
		preview:  true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Router mounts the storefront routes.
func (h *StorefrontHandler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, "ok")
	})
	r.Get("/*", h.RenderPage)
	r.Head("/*", h.RenderPage)
	return r
}

// RenderPage renders the page addressed by the request.
func (h *StorefrontHandler) RenderPage(w http.ResponseWriter, r *http.Request) {
	route, ok := h.stores.StoreForHost(r.Host)
	if !ok {
		writeText(w, http.StatusNotFound, "unknown store")
		return
	}

	query := r.URL.Query()
	themeID := route.ThemeID
	if preview := strings.TrimSpace(query.Get(previewThemeParam)); preview != "" && h.preview {
		themeID = preview
	}

	page, err := h.renderer.RenderPage(r.Context(), render.Request{
		StoreID: route.StoreID,
		ThemeID: themeID,
		Path:    r.URL.Path,
		Query:   query,
		Locale:  requestLocale(r, route.Locale),
		Shop: map[string]any{
			"domain": hostname(r.Host),
		},
	})
	if err != nil {
		h.logger.Error("http.render_failed", "store_id", route.StoreID, "theme_id", themeID, "path", r.URL.Path, "error", err)
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if page.NotFound {
		status = http.StatusNotFound
	}
	w.Header().Set("Content-Type", page.ContentType)
	w.Header().Set(headerTemplate, page.Template)
	if h.diagnosticsHeader {
		w.Header().Set(headerDiagnostics, strconv.Itoa(len(page.Diagnostics)))
	}
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = w.Write([]byte(page.HTML))
	}
}

// requestLocale prefers the locale query parameter, then the first
// Accept-Language tag, then the store route locale.
func requestLocale(r *http.Request, fallback string) string {
	if locale := strings.TrimSpace(r.URL.Query().Get(localeParam)); locale != "" {
		if tag, err := language.Parse(locale); err == nil {
			return tag.String()
		}
	}
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err == nil && len(tags) > 0 && tags[0] != language.Und {
		return tags[0].String()
	}
	return strings.TrimSpace(fallback)
}

func hostname(host string) string {
	if i := strings.LastIndex(host, ":"); i > 0 && !strings.Contains(host[i:], "]") {
		return host[:i]
	}
	return host
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, render.ErrStoreRequired), errors.Is(err, render.ErrThemeRequired):
		writeText(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeText(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		writeText(w, http.StatusInternalServerError, "storefront unavailable")
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger interfaces.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := logging.ContextWithFields(r.Context(), map[string]any{
				"request_id": middleware.GetReqID(r.Context()),
			})
			rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(ctx))
			logger.Info("http.request",
				"method", r.Method,
				"host", r.Host,
				"path", r.URL.Path,
				"status", rw.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
