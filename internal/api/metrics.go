package api

import (
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// SystemMetrics represents the complete metrics response.
type SystemMetrics struct {
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Runtime       RuntimeMetrics `json:"runtime"`
	Intents       IntentMetrics  `json:"intents"`
	AuditQueue    int            `json:"audit_queue"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// IntentMetrics counts handled intents and per-device failures.
type IntentMetrics struct {
	Sync          uint64 `json:"sync"`
	Query         uint64 `json:"query"`
	Execute       uint64 `json:"execute"`
	Disconnect    uint64 `json:"disconnect"`
	ReportState   uint64 `json:"report_state"`
	DeviceErrors  uint64 `json:"device_errors"`
	CommandsSent  uint64 `json:"commands_sent"`
	RequestErrors uint64 `json:"request_errors"`
}

type intentCounters struct {
	sync          atomic.Uint64
	query         atomic.Uint64
	execute       atomic.Uint64
	disconnect    atomic.Uint64
	reportState   atomic.Uint64
	deviceErrors  atomic.Uint64
	commandsSent  atomic.Uint64
	requestErrors atomic.Uint64
}

func (c *intentCounters) snapshot() IntentMetrics {
	return IntentMetrics{
		Sync:          c.sync.Load(),
		Query:         c.query.Load(),
		Execute:       c.execute.Load(),
		Disconnect:    c.disconnect.Load(),
		ReportState:   c.reportState.Load(),
		DeviceErrors:  c.deviceErrors.Load(),
		CommandsSent:  c.commandsSent.Load(),
		RequestErrors: c.requestErrors.Load(),
	}
}

// handleMetrics returns runtime statistics and intent counters.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	writeJSON(w, http.StatusOK, SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Intents:    s.counters.snapshot(),
		AuditQueue: len(s.auditCh),
	})
}
