package health

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"garment-backend/internal/cache"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Pinger is satisfied by *pgxpool.Pool
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	db    Pinger
	store string
	start time.Time
}

type HealthStatus struct {
	Status   string          `json:"status"`
	Store    string          `json:"store"`
	Database *DatabaseHealth `json:"database,omitempty"`
	Redis    string          `json:"redis"`
}

type DatabaseHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

type SystemHealth struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsed    string  `json:"memory_used"`
	MemoryTotal   string  `json:"memory_total"`
	DiskPercent   float64 `json:"disk_percent"`
	DiskUsed      string  `json:"disk_used"`
	DiskTotal     string  `json:"disk_total"`
	Goroutines    int     `json:"goroutines"`
}

type DetailedStatus struct {
	HealthStatus
	Uptime           string       `json:"uptime"`
	System           SystemHealth `json:"system"`
	WebsocketClients int          `json:"websocket_clients"`
}

// NewHealthChecker takes a nil db when running on the in-memory store
func NewHealthChecker(db Pinger, store string) *HealthChecker {
	return &HealthChecker{db: db, store: store, start: time.Now()}
}

// CheckBasic reports unhealthy only when the database is down. Redis is an
// optional cache and is reported but never fails readiness.
func (h *HealthChecker) CheckBasic() HealthStatus {
	status := HealthStatus{Status: "healthy", Store: h.store, Redis: "unavailable"}
	if cache.IsHealthy() {
		status.Redis = "healthy"
	}
	if h.db != nil {
		dbHealth := h.checkDatabase()
		status.Database = &dbHealth
		if dbHealth.Status != "healthy" {
			status.Status = "unhealthy"
		}
	}
	return status
}

func (h *HealthChecker) CheckDetailed(websocketClients int) DetailedStatus {
	return DetailedStatus{
		HealthStatus:     h.CheckBasic(),
		Uptime:           time.Since(h.start).Round(time.Second).String(),
		System:           collectSystem(),
		WebsocketClients: websocketClients,
	}
}

func (h *HealthChecker) checkDatabase() DatabaseHealth {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return DatabaseHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
		}
	}

	return DatabaseHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}

func collectSystem() SystemHealth {
	s := SystemHealth{Goroutines: runtime.NumGoroutine()}

	if cpuPercents, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(cpuPercents) > 0 {
		s.CPUPercent = cpuPercents[0]
	}
	if memStats, err := mem.VirtualMemory(); err == nil {
		s.MemoryPercent = memStats.UsedPercent
		s.MemoryUsed = formatBytes(memStats.Used)
		s.MemoryTotal = formatBytes(memStats.Total)
	}
	if diskStats, err := disk.Usage("/"); err == nil {
		s.DiskPercent = diskStats.UsedPercent
		s.DiskUsed = formatBytes(diskStats.Used)
		s.DiskTotal = formatBytes(diskStats.Total)
	}
	return s
}

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
