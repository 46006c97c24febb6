package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/riskboard/internal/clientdata"
	"github.com/aristath/riskboard/internal/scheduler"
)

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status         string                `json:"status"`
	UptimeSeconds  int64                 `json:"uptime_seconds"`
	Sessions       int                   `json:"sessions"`
	CacheStatus    string                `json:"cache_status"`
	CachedPrices   *int64                `json:"cached_prices"`
	ArchiveEnabled bool                  `json:"archive_enabled"`
	CPUPercent     float64               `json:"cpu_percent"`
	MemoryPercent  float64               `json:"memory_percent"`
	Goroutines     int                   `json:"goroutines"`
	Jobs           []scheduler.JobStatus `json:"jobs"`
}

// handleSystemStatus handles GET /api/system/status
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := s.getSystemStats()

	resp := SystemStatusResponse{
		Status:         "ok",
		CacheStatus:    "disabled",
		UptimeSeconds:  int64(time.Since(s.startedAt).Seconds()),
		Sessions:       s.sessions.Count(),
		ArchiveEnabled: s.archive != nil && s.archive.Enabled(),
		CPUPercent:     cpuPercent,
		MemoryPercent:  memPercent,
		Goroutines:     runtime.NumGoroutine(),
		Jobs:           []scheduler.JobStatus{},
	}

	if s.jobs != nil {
		resp.Jobs = s.jobs.Jobs()
	}

	if s.cacheDB != nil {
		if err := s.cacheDB.QuickCheck(r.Context()); err != nil {
			s.log.Warn().Err(err).Msg("Cache database check failed")
			resp.Status = "degraded"
			resp.CacheStatus = "error"
		} else {
			resp.CacheStatus = "ok"
		}
	}

	if s.cache != nil {
		if n, err := s.cache.Count(clientdata.TablePriceHistory); err == nil {
			resp.CachedPrices = &n
		} else {
			s.log.Warn().Err(err).Msg("Failed to count cached prices")
		}
	}

	s.writeData(w, http.StatusOK, resp)
}

// getSystemStats calculates CPU and RAM usage percentages
// Uses a short interval (100ms) to avoid blocking the API call for too long
func (s *Server) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
