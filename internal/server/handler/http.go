// Package handler builds the HTTP routing and middleware stack.
package handler

import (
	"net/http"
	"time"

	"github.com/brizzai/social-connect/internal/apidoc"
	"github.com/brizzai/social-connect/internal/auth"
	"github.com/brizzai/social-connect/internal/instagram"
	"github.com/brizzai/social-connect/internal/logger"
	"github.com/brizzai/social-connect/internal/utils"
	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"
)

const (
	HealthPath  = "/healthz"
	OpenAPIPath = "/openapi.json"
)

// Handler manages HTTP request handling and middleware configuration.
type Handler struct {
	auth      *auth.Service
	instagram *instagram.Handler
	openapi   http.Handler
}

// NewHandler creates a new HTTP handler.
func NewHandler(authSvc *auth.Service, ig *instagram.Handler, doc *openapi3.T) (*Handler, error) {
	openapi, err := apidoc.Handler(doc)
	if err != nil {
		return nil, err
	}
	return &Handler{
		auth:      authSvc,
		instagram: ig,
		openapi:   openapi,
	}, nil
}

// CreateHTTPHandler creates an HTTP handler with the appropriate middleware stack.
// A nil mcpHandler leaves the MCP endpoint unmounted.
func (h *Handler) CreateHTTPHandler(mcpHandler http.Handler, mcpPath string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET "+OpenAPIPath, h.openapi)

	h.instagram.RegisterRoutes(mux, h.auth.Authenticate())
	logger.Info("Registered Instagram routes")

	if mcpHandler != nil {
		mux.Handle(mcpPath, h.auth.Authenticate()(mcpHandler))
		logger.Info("Mounted MCP endpoint", zap.String("path", mcpPath))
	}

	return LoggingMiddleware(h.auth.WrapWithCors(mux))
}

// LoggingMiddleware logs information about each incoming request
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		logger.Info("HTTP Request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Int("status", rw.statusCode),
			zap.Duration("duration", time.Since(start)),
			zap.String("user_agent", r.UserAgent()),
		)
	})
}

// responseWriter is a custom ResponseWriter that captures the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

// WriteHeader captures the status code and passes it to the underlying ResponseWriter
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming MCP responses working through the wrapper
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
