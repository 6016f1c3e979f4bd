package infrastructure

import (
	"runtime"
	"time"
)

// RuntimeStats is a snapshot of the process runtime reported by health checks
type RuntimeStats struct {
	Goroutines   int     `json:"goroutines"`
	HeapAllocMB  float64 `json:"heap_alloc_mb"`
	SysMB        float64 `json:"sys_mb"`
	NumGC        uint32  `json:"num_gc"`
	UptimeSecond float64 `json:"uptime_seconds"`
	GoVersion    string  `json:"go_version"`
}

// CollectRuntimeStats reads the runtime counters
func CollectRuntimeStats(started time.Time) RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return RuntimeStats{
		Goroutines:   runtime.NumGoroutine(),
		HeapAllocMB:  float64(mem.HeapAlloc) / 1024 / 1024,
		SysMB:        float64(mem.Sys) / 1024 / 1024,
		NumGC:        mem.NumGC,
		UptimeSecond: time.Since(started).Seconds(),
		GoVersion:    runtime.Version(),
	}
}
