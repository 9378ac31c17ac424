package httpx

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/freelanceflow/api/internal/service/activity"
	"github.com/freelanceflow/api/internal/service/auth"
	"github.com/freelanceflow/api/internal/service/client"
	"github.com/freelanceflow/api/internal/service/invoice"
	"github.com/freelanceflow/api/internal/service/project"
	"github.com/freelanceflow/api/internal/service/timeentry"
	"github.com/freelanceflow/api/pkg/config"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	cfg         config.APIConfig
	auth        auth.Service
	clients     client.Service
	projects    project.Service
	invoices    invoice.Service
	timeEntries timeentry.Service
	activity    activity.Service
	upgrader    websocket.Upgrader
	limiter     RateLimiter
	dbHealth    func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

const (
	rateWindowDefault  = time.Minute
	rateLimitRegister  = 5
	rateLimitLogin     = 12
	rateLimitUserWrite = 60
	rateLimitUserRead  = 120
	rateLimitStream    = 30
	healthCheckTimeout = 2 * time.Second
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, cfg config.APIConfig, authSvc auth.Service, clientSvc client.Service, projectSvc project.Service, invoiceSvc invoice.Service, timeSvc timeentry.Service, activitySvc activity.Service, limiter RateLimiter, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:         http.NewServeMux(),
		logger:      logger,
		cfg:         cfg,
		auth:        authSvc,
		clients:     clientSvc,
		projects:    projectSvc,
		invoices:    invoiceSvc,
		timeEntries: timeSvc,
		activity:    activitySvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:  limiter,
		dbHealth: dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.Handle("/metrics", promhttp.Handler())
	r.mux.HandleFunc("/healthz", r.audit(r.handleHealthz))

	r.mux.HandleFunc("/api/auth/register", r.audit(r.withRateLimit("auth_register", rateLimitRegister, rateWindowDefault, rateLimitKeyIP, r.handleRegister)))
	r.mux.HandleFunc("/api/auth/login", r.audit(r.withRateLimit("auth_login", rateLimitLogin, rateWindowDefault, rateLimitKeyIP, r.handleLogin)))
	r.mux.HandleFunc("/api/auth/logout", r.audit(r.handleLogout))
	r.mux.HandleFunc("/api/auth/me", r.audit(r.withRateLimit("auth_me", rateLimitUserRead, rateWindowDefault, rateLimitKeyIP, r.handleMe)))

	r.mux.HandleFunc("/api/clients", r.audit(r.handlerAuthRate("clients", rateLimitUserWrite, rateWindowDefault, r.handleClients)))
	r.mux.HandleFunc("/api/clients/", r.audit(r.handlerAuthRate("client_by_id", rateLimitUserWrite, rateWindowDefault, r.handleClientByID)))
	r.mux.HandleFunc("/api/projects", r.audit(r.handlerAuthRate("projects", rateLimitUserWrite, rateWindowDefault, r.handleProjects)))
	r.mux.HandleFunc("/api/projects/", r.audit(r.handlerAuthRate("project_by_id", rateLimitUserRead, rateWindowDefault, r.handleProjectByID)))
	r.mux.HandleFunc("/api/invoices", r.audit(r.handlerAuthRate("invoices", rateLimitUserWrite, rateWindowDefault, r.handleInvoices)))
	r.mux.HandleFunc("/api/invoices/", r.audit(r.handlerAuthRate("invoice_by_id", rateLimitUserWrite, rateWindowDefault, r.handleInvoiceByID)))
	r.mux.HandleFunc("/api/time-entries", r.audit(r.handlerAuthRate("time_entries", rateLimitUserWrite, rateWindowDefault, r.handleTimeEntries)))
	r.mux.HandleFunc("/api/time-entries/", r.audit(r.handlerAuthRate("time_entry_by_id", rateLimitUserWrite, rateWindowDefault, r.handleTimeEntryByID)))

	r.mux.HandleFunc("/ws/activity", r.audit(r.handlerAuthRate("activity_ws", rateLimitStream, rateWindowDefault, r.handleActivityWS)))
	r.mux.HandleFunc("/api/events", r.audit(r.handlerAuthRate("activity_sse", rateLimitStream, rateWindowDefault, r.handleActivitySSE)))

	// Everything else is page navigation and goes through the gate.
	r.mux.Handle("/", r.gate(r.pages()))
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		r.recordRequestMetrics(req.Method, req.URL.Path, status, duration)
		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if session, ok := sessionFromContext(ctx); ok {
			actor = "user"
			fields = append(fields, "user_id", session.UserID)
		}
		fields = append(fields, "actor", actor)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func (sr *statusRecorder) Push(target string, opts *http.PushOptions) error {
	if p, ok := sr.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}
	return http.ErrNotSupported
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

// internalError hides failure detail from clients; the cause is logged.
func (r *Router) internalError(w http.ResponseWriter, req *http.Request, err error) {
	r.logger.Error("handler failure", "error", err, "path", req.URL.Path)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}
