// Package health exposes liveness and readiness probes for a long-running
// scan agent, plus checks for the dependencies a scan needs: the target
// model endpoint, the platform API, and the local history store.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/adversalio/sdk/pkg/core"
)

// =============================================================================
// Health Check Interface
// =============================================================================

// Checker is the interface for health checks.
type Checker interface {
	// Name returns the check name.
	Name() string

	// Check performs the health check.
	Check(ctx context.Context) CheckResult
}

// CheckFunc is a function type that implements Checker.
type CheckFunc func(ctx context.Context) CheckResult

func (f CheckFunc) Name() string                          { return "" }
func (f CheckFunc) Check(ctx context.Context) CheckResult { return f(ctx) }

// =============================================================================
// Health Status Types
// =============================================================================

// Status represents the health status.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
	StatusUnknown   Status = "unknown"
)

// CheckResult holds the result of a health check.
type CheckResult struct {
	Status    Status         `json:"status"`
	Message   string         `json:"message,omitempty"`
	Duration  time.Duration  `json:"duration_ms"`
	Timestamp time.Time      `json:"timestamp"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Response is the full health check response.
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Version   string                 `json:"version,omitempty"`
	Uptime    time.Duration          `json:"uptime_seconds,omitempty"`
}

// =============================================================================
// Health Handler
// =============================================================================

// Handler manages health checks and provides HTTP endpoints.
type Handler struct {
	mu sync.RWMutex

	checks map[string]Checker

	version   string
	startTime time.Time
	timeout   time.Duration

	// Readiness flips false while a scan is tearing down or the agent is
	// draining.
	ready bool
}

// HandlerOption configures the health handler.
type HandlerOption func(*Handler)

// WithVersion sets the agent version reported in responses.
func WithVersion(version string) HandlerOption {
	return func(h *Handler) {
		h.version = version
	}
}

// WithTimeout sets the per-Check timeout.
func WithTimeout(timeout time.Duration) HandlerOption {
	return func(h *Handler) {
		h.timeout = timeout
	}
}

// NewHandler creates a new health handler.
func NewHandler(opts ...HandlerOption) *Handler {
	h := &Handler{
		checks:    make(map[string]Checker),
		startTime: time.Now(),
		timeout:   5 * time.Second,
		ready:     true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds a health check.
func (h *Handler) Register(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = checker
}

// RegisterFunc adds a health check function.
func (h *Handler) RegisterFunc(name string, fn func(ctx context.Context) CheckResult) {
	h.Register(name, CheckFunc(fn))
}

// Unregister removes a health check.
func (h *Handler) Unregister(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.checks, name)
}

// SetReady sets the readiness state.
func (h *Handler) SetReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = ready
}

// IsReady returns the readiness state.
func (h *Handler) IsReady() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}

// Check runs all registered health checks concurrently.
func (h *Handler) Check(ctx context.Context) Response {
	h.mu.RLock()
	checks := make(map[string]Checker, len(h.checks))
	for name, checker := range h.checks {
		checks[name] = checker
	}
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	results := make(map[string]CheckResult)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, checker := range checks {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()

			start := time.Now()
			result := checker.Check(ctx)
			result.Duration = time.Since(start)
			result.Timestamp = time.Now()

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, checker)
	}
	wg.Wait()

	overallStatus := StatusHealthy
	for _, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			overallStatus = StatusUnhealthy
		case StatusDegraded:
			if overallStatus != StatusUnhealthy {
				overallStatus = StatusDegraded
			}
		}
	}

	return Response{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    results,
		Version:   h.version,
		Uptime:    time.Since(h.startTime),
	}
}

// =============================================================================
// HTTP Handlers
// =============================================================================

// LivenessHandler returns an HTTP handler for liveness probes.
func (h *Handler) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":    StatusHealthy,
			"timestamp": time.Now(),
		})
	})
}

// ReadinessHandler returns an HTTP handler for readiness probes.
func (h *Handler) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if !h.IsReady() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status":    StatusUnhealthy,
				"message":   "agent not ready",
				"timestamp": time.Now(),
			})
			return
		}

		response := h.Check(r.Context())
		if response.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(response)
	})
}

// HealthHandler returns an HTTP handler with full check details.
func (h *Handler) HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		response := h.Check(r.Context())
		switch response.Status {
		case StatusHealthy, StatusDegraded:
			w.WriteHeader(http.StatusOK)
		case StatusUnhealthy:
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
		_ = json.NewEncoder(w).Encode(response)
	})
}

// RegisterRoutes registers the probe routes on an http.ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/health", h.HealthHandler())
}

// =============================================================================
// Built-in Health Checks
// =============================================================================

// PingCheck is a simple check that always succeeds.
type PingCheck struct{}

func (c *PingCheck) Name() string { return "ping" }
func (c *PingCheck) Check(ctx context.Context) CheckResult {
	return CheckResult{
		Status:    StatusHealthy,
		Message:   "pong",
		Timestamp: time.Now(),
	}
}

// PlatformCheck verifies the platform API is reachable using the configured
// pusher. An unreachable platform is degraded, not unhealthy: scans still run
// locally, only report upload is blocked.
type PlatformCheck struct {
	Pusher core.Pusher
}

func (c *PlatformCheck) Name() string { return "platform" }
func (c *PlatformCheck) Check(ctx context.Context) CheckResult {
	result := CheckResult{Timestamp: time.Now()}

	if c.Pusher == nil {
		result.Status = StatusUnknown
		result.Message = "no pusher configured"
		return result
	}

	if err := c.Pusher.TestConnection(ctx); err != nil {
		result.Status = StatusDegraded
		result.Error = err.Error()
		return result
	}
	result.Status = StatusHealthy
	result.Message = "connected"
	return result
}

// TargetCheck verifies the target model endpoint responds to a minimal
// generation request.
type TargetCheck struct {
	Model core.Model
}

func (c *TargetCheck) Name() string { return "target" }
func (c *TargetCheck) Check(ctx context.Context) CheckResult {
	result := CheckResult{Timestamp: time.Now()}

	if c.Model == nil {
		result.Status = StatusUnknown
		result.Message = "no target model configured"
		return result
	}

	if _, err := c.Model.Generate(ctx, "ping"); err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		return result
	}
	result.Status = StatusHealthy
	result.Message = fmt.Sprintf("target %s responding", c.Model.Name())
	return result
}

// StoreCheck verifies the local history store is usable via a ping function.
type StoreCheck struct {
	PingFunc func(ctx context.Context) error
}

func (c *StoreCheck) Name() string { return "store" }
func (c *StoreCheck) Check(ctx context.Context) CheckResult {
	result := CheckResult{Timestamp: time.Now()}

	if c.PingFunc == nil {
		result.Status = StatusUnknown
		result.Message = "no ping function configured"
		return result
	}

	if err := c.PingFunc(ctx); err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		return result
	}
	result.Status = StatusHealthy
	result.Message = "connected"
	return result
}

// MemoryCheck checks Go runtime memory usage.
type MemoryCheck struct {
	// MaxHeapBytes is the maximum heap size in bytes.
	MaxHeapBytes uint64
}

func (c *MemoryCheck) Name() string { return "memory" }
func (c *MemoryCheck) Check(ctx context.Context) CheckResult {
	result := CheckResult{
		Timestamp: time.Now(),
		Metadata:  make(map[string]any),
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	result.Metadata["heap_alloc_bytes"] = m.HeapAlloc
	result.Metadata["heap_sys_bytes"] = m.HeapSys
	result.Metadata["num_gc"] = m.NumGC
	result.Metadata["goroutines"] = runtime.NumGoroutine()

	if c.MaxHeapBytes > 0 && m.HeapAlloc > c.MaxHeapBytes {
		result.Status = StatusUnhealthy
		result.Error = fmt.Sprintf("heap usage %d bytes exceeds threshold %d bytes", m.HeapAlloc, c.MaxHeapBytes)
		return result
	}

	result.Status = StatusHealthy
	result.Message = fmt.Sprintf("heap: %d MB, goroutines: %d", m.HeapAlloc/1024/1024, runtime.NumGoroutine())
	return result
}

// SystemMemoryCheck is defined in sysinfo_linux.go and sysinfo_other.go.

// =============================================================================
// Interface Compliance
// =============================================================================

var (
	_ Checker = (*PingCheck)(nil)
	_ Checker = (*PlatformCheck)(nil)
	_ Checker = (*TargetCheck)(nil)
	_ Checker = (*StoreCheck)(nil)
	_ Checker = (*MemoryCheck)(nil)
	_ Checker = (*SystemMemoryCheck)(nil)
	_ Checker = CheckFunc(nil)
)
