// internal/handlers/health.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/ammerola/pharmabook-be/internal/core/ports"
	"github.com/ammerola/pharmabook-be/internal/pkg/config"
)

// QueueInspector is the part of *asynq.Inspector the health report reads.
type QueueInspector interface {
	Queues() ([]string, error)
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	Servers() ([]*asynq.ServerInfo, error)
}

// Dependency is one probed collaborator. Billing cannot run without a
// critical dependency; the others only delay receipts or cache reads.
type Dependency struct {
	Name     string
	Checker  ports.HealthChecker
	Critical bool
}

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthHandler reports on the store, the cache and the task queue.
type HealthHandler struct {
	deps      []Dependency
	inspector QueueInspector
	config    *config.Config
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler takes the dependencies to probe. A nil inspector leaves
// the queue out of the report.
func NewHealthHandler(
	deps []Dependency,
	inspector QueueInspector,
	cfg *config.Config,
	logger *slog.Logger,
) *HealthHandler {
	return &HealthHandler{
		deps:      deps,
		inspector: inspector,
		config:    cfg,
		logger:    logger.With(slog.String("handler", "health")),
		startTime: time.Now(),
	}
}

// HealthStatus is the /health body.
type HealthStatus struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version"`
	Environment string                 `json:"environment"`
	Uptime      string                 `json:"uptime"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]ServiceInfo `json:"services"`
	System      SystemInfo             `json:"system"`
}

// ServiceInfo is one dependency in the report.
type ServiceInfo struct {
	Status       string                 `json:"status"`
	Critical     bool                   `json:"critical"`
	Message      string                 `json:"message,omitempty"`
	ResponseTime string                 `json:"response_time,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// SystemInfo is process-level runtime data.
type SystemInfo struct {
	GoVersion      string `json:"go_version"`
	NumGoroutines  int    `json:"num_goroutines"`
	NumCPU         int    `json:"num_cpu"`
	MemoryAllocMB  uint64 `json:"memory_alloc_mb"`
	MemorySysMB    uint64 `json:"memory_sys_mb"`
	GCPauseTotalMs uint64 `json:"gc_pause_total_ms"`
	NumGC          uint32 `json:"num_gc"`
}

// Health handles GET /health with per-dependency detail.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := HealthStatus{
		Status:      statusHealthy,
		Version:     h.config.App.Version,
		Environment: h.config.App.Environment,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:   time.Now(),
		Services:    make(map[string]ServiceInfo),
		System:      h.getSystemInfo(),
	}

	results := h.probe(ctx)
	for i, dep := range h.deps {
		health.Services[dep.Name] = results[i]
		health.Status = worsen(health.Status, results[i].Status, dep.Critical)
	}

	// Receipts and imports wait in the queue; bills do not.
	if h.inspector != nil {
		info := h.checkAsynq(ctx)
		health.Services["asynq"] = info
		health.Status = worsen(health.Status, info.Status, false)
	}

	code := http.StatusOK
	if health.Status == statusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, h.logger, code, health)
}

// probe checks every dependency concurrently; results follow h.deps order.
func (h *HealthHandler) probe(ctx context.Context) []ServiceInfo {
	results := make([]ServiceInfo, len(h.deps))
	var g errgroup.Group
	for i, dep := range h.deps {
		g.Go(func() error {
			results[i] = h.checkDependency(ctx, dep)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Readiness handles GET /ready. It only pings; only critical dependencies
// gate readiness.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ready := true
	details := make(map[string]string, len(h.deps))
	for _, dep := range h.deps {
		if err := dep.Checker.Ping(ctx); err != nil {
			details[dep.Name] = "not ready"
			ready = ready && !dep.Critical
			continue
		}
		details[dep.Name] = "ready"
	}

	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, h.logger, code, map[string]interface{}{"ready": ready, "details": details})
}

func (h *HealthHandler) checkDependency(ctx context.Context, dep Dependency) ServiceInfo {
	start := time.Now()
	info := ServiceInfo{Status: statusHealthy, Critical: dep.Critical}

	if err := dep.Checker.Ping(ctx); err != nil {
		info.Status = statusUnhealthy
		info.Message = err.Error()
		h.logger.ErrorContext(ctx, "health check failed",
			slog.String("dependency", dep.Name),
			slog.Bool("critical", dep.Critical),
			slog.String("error", err.Error()))
		return info
	}

	info.Details = dep.Checker.Health(ctx)
	info.ResponseTime = time.Since(start).String()
	return info
}

// worsen folds one dependency's status into the overall one. A failed
// optional dependency only degrades the service.
func worsen(overall, status string, critical bool) string {
	switch {
	case status == statusHealthy || overall == statusUnhealthy:
		return overall
	case critical:
		return statusUnhealthy
	default:
		return statusDegraded
	}
}

func (h *HealthHandler) checkAsynq(ctx context.Context) ServiceInfo {
	start := time.Now()
	info := ServiceInfo{
		Status:  statusHealthy,
		Details: make(map[string]interface{}),
	}

	queues, err := h.inspector.Queues()
	if err != nil {
		info.Status = statusUnhealthy
		info.Message = err.Error()
		h.logger.ErrorContext(ctx, "asynq health check failed",
			slog.String("error", err.Error()))
		return info
	}

	queueStats := make(map[string]interface{})
	failed := 0
	for _, queue := range queues {
		qInfo, err := h.inspector.GetQueueInfo(queue)
		if err != nil {
			continue
		}
		failed += qInfo.Archived
		queueStats[queue] = map[string]interface{}{
			"pending":   qInfo.Pending,
			"active":    qInfo.Active,
			"scheduled": qInfo.Scheduled,
			"retry":     qInfo.Retry,
			"archived":  qInfo.Archived,
			"paused":    qInfo.Paused,
		}
	}

	// Archived tasks are receipts or imports that exhausted their retries.
	info.Details["failed_tasks"] = failed
	info.Details["queues"] = queueStats

	servers, err := h.inspector.Servers()
	if err == nil {
		active := 0
		for _, srv := range servers {
			active += len(srv.ActiveWorkers)
		}
		info.Details["servers"] = len(servers)
		info.Details["active_workers"] = active
	}

	info.ResponseTime = time.Since(start).String()
	return info
}

func (h *HealthHandler) getSystemInfo() SystemInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return SystemInfo{
		GoVersion:      runtime.Version(),
		NumGoroutines:  runtime.NumGoroutine(),
		NumCPU:         runtime.NumCPU(),
		MemoryAllocMB:  memStats.Alloc / 1024 / 1024,
		MemorySysMB:    memStats.Sys / 1024 / 1024,
		GCPauseTotalMs: memStats.PauseTotalNs / 1000 / 1000,
		NumGC:          memStats.NumGC,
	}
}
