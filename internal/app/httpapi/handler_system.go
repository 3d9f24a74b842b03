package httpapi

import (
	"context"
	"net/http"
	"os"
	goruntime "runtime"
	"sort"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/hackcrew/service_layer/internal/app/core/service"
	"github.com/hackcrew/service_layer/internal/app/metrics"
)

// Probe checks one dependency.
type Probe func(ctx context.Context) error

const probeTimeout = 2 * time.Second

func metricsHandler() http.Handler {
	return metrics.Handler()
}

func (h *handler) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Server running"})
}

type healthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp string            `json:"timestamp"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "healthy", Version: h.version, Timestamp: time.Now().UTC().Format(time.RFC3339)}
	status := http.StatusOK

	if len(h.probes) > 0 {
		names := make([]string, 0, len(h.probes))
		for name := range h.probes {
			names = append(names, name)
		}
		sort.Strings(names)

		resp.Checks = make(map[string]string, len(names))
		for _, name := range names {
			ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
			err := h.probes[name](ctx)
			cancel()
			if err != nil {
				h.log.WithContext(r.Context()).WithError(err).WithField("dependency", name).Warn("health probe failed")
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
	}
	writeJSON(w, status, resp)
}

type processInfo struct {
	PID        int     `json:"pid"`
	RSSBytes   uint64  `json:"rss_bytes,omitempty"`
	CPUPercent float64 `json:"cpu_percent"`
	Goroutines int     `json:"goroutines"`
	UptimeSecs int64   `json:"uptime_seconds"`
	GoVersion  string  `json:"go_version"`
	HostName   string  `json:"host,omitempty"`
	HostOS     string  `json:"os,omitempty"`
	MemTotal   uint64  `json:"memory_total_bytes,omitempty"`
	MemUsedPct float64 `json:"memory_used_percent,omitempty"`
}

type infoResponse struct {
	Name       string               `json:"name"`
	Version    string               `json:"version,omitempty"`
	Services   []service.Descriptor `json:"services"`
	Components []string             `json:"components"`
	Process    processInfo          `json:"process"`
}

func (h *handler) info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{
		Name:       "hackcrew-gateway",
		Version:    h.version,
		Services:   h.app.Descriptors(),
		Components: h.app.Components(),
		Process:    h.processInfo(r.Context()),
	})
}

// processInfo is best effort: stats the platform cannot provide are left
// zero.
func (h *handler) processInfo(ctx context.Context) processInfo {
	pi := processInfo{
		PID:        os.Getpid(),
		Goroutines: goruntime.NumGoroutine(),
		UptimeSecs: int64(time.Since(h.started).Seconds()),
		GoVersion:  goruntime.Version(),
	}

	if p, err := process.NewProcessWithContext(ctx, int32(pi.PID)); err == nil {
		if mi, err := p.MemoryInfoWithContext(ctx); err == nil && mi != nil {
			pi.RSSBytes = mi.RSS
		}
		if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
			pi.CPUPercent = cpu
		}
	}
	if hi, err := host.InfoWithContext(ctx); err == nil && hi != nil {
		pi.HostName, pi.HostOS = hi.Hostname, hi.OS
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm != nil {
		pi.MemTotal, pi.MemUsedPct = vm.Total, vm.UsedPercent
	}
	return pi
}
