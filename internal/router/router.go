package router

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/config"
)

// meteredWriter captures the response status and size for the access log.
// Unwrap lets http.ResponseController reach the underlying writer.
type meteredWriter struct {
	http.ResponseWriter
	status  int
	written int
}

func (mw *meteredWriter) WriteHeader(code int) {
	if mw.status == 0 {
		mw.status = code
	}
	mw.ResponseWriter.WriteHeader(code)
}

func (mw *meteredWriter) Write(b []byte) (int, error) {
	if mw.status == 0 {
		mw.status = http.StatusOK
	}
	n, err := mw.ResponseWriter.Write(b)
	mw.written += n
	return n, err
}

func (mw *meteredWriter) Unwrap() http.ResponseWriter { return mw.ResponseWriter }

// LoggingMiddleware logs every request at debug level and server errors at warn.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			mw := &meteredWriter{ResponseWriter: w}
			next.ServeHTTP(mw, r)
			if mw.status == 0 {
				mw.status = http.StatusOK
			}
			fields := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", mw.status,
				"duration_ms", float64(time.Since(start).Microseconds()) / 1000.0,
				"bytes", mw.written,
			}
			if mw.status >= http.StatusInternalServerError {
				logger.Warnw("http request failed", fields...)
				return
			}
			logger.Debugw("http request", fields...)
		})
	}
}

var securityHeaders = map[string]string{
	"X-Content-Type-Options":            "nosniff",
	"X-Frame-Options":                   "SAMEORIGIN",
	"X-DNS-Prefetch-Control":            "off",
	"X-Download-Options":                "noopen",
	"X-Permitted-Cross-Domain-Policies": "none",
	"X-XSS-Protection":                  "0",
	"Referrer-Policy":                   "no-referrer",
	"Cross-Origin-Opener-Policy":        "same-origin",
	"Cross-Origin-Resource-Policy":      "same-origin",
	"Origin-Agent-Cluster":              "?1",
	"Content-Security-Policy":           "default-src 'self'; base-uri 'self'; frame-ancestors 'self'; object-src 'none'; upgrade-insecure-requests",
}

// SecurityHeadersMiddleware sets the hardening headers on every response.
// HSTS is only sent over TLS.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for k, v := range securityHeaders {
				h.Set(k, v)
			}
			if r.TLS != nil {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware allows every origin in development and only the whitelisted
// ones elsewhere. Requests without an Origin header pass untouched.
func CORSMiddleware(cfg *config.Config, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowOriginFunc: func(origin string) bool {
			if cfg.IsDevelopment() || slices.Contains(cfg.AllowedOrigin, origin) {
				return true
			}
			logger.Warnw("CORS error: origin is not allowed", "origin", origin)
			return false
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler
}

// CompressionMiddleware gzips responses of at least 1 KiB.
func CompressionMiddleware() (func(http.Handler) http.Handler, error) {
	wrap, err := gzhttp.NewWrapper(gzhttp.MinSize(1024))
	if err != nil {
		return nil, fmt.Errorf("gzip wrapper: %w", err)
	}
	return func(next http.Handler) http.Handler { return wrap(next) }, nil
}

// RegisterRoutes mounts the API on an http.ServeMux and wraps it with the
// middleware chain: logging, CORS, compression, security headers, rate limit.
func RegisterRoutes(logger *zap.SugaredLogger, cfg *config.Config, authHandler *auth.Handler, limiter *RateLimiter) (http.Handler, error) {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh-token", authHandler.RefreshToken)
	mux.HandleFunc("POST /api/v1/auth/logout", authHandler.Logout)

	compress, err := CompressionMiddleware()
	if err != nil {
		return nil, err
	}

	var handler http.Handler = mux
	handler = limiter.Middleware(handler)
	handler = SecurityHeadersMiddleware()(handler)
	handler = compress(handler)
	handler = CORSMiddleware(cfg, logger)(handler)
	handler = LoggingMiddleware(logger)(handler)
	return handler, nil
}
