// Package observability aggregates runtime telemetry for the debug
// inspector. Counters are atomic; nothing here sits on the send path for
// longer than an increment.
package observability

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

type StatsManager struct {
	log *slog.Logger

	SessionsOpened    atomic.Uint64
	SessionsClosed    atomic.Uint64
	GroupMessages     atomic.Uint64
	DirectMessages    atomic.Uint64
	QueueDrops        atomic.Uint64
	ForcedDisconnects atomic.Uint64

	mu         sync.RWMutex
	processRSS uint64
	processCPU float64
	sampledAt  time.Time
}

func NewStatsManager(log *slog.Logger) *StatsManager {
	return &StatsManager{log: log}
}

// RecordProcess stores the latest self-sample from the health worker.
func (s *StatsManager) RecordProcess(rss uint64, cpu float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processRSS = rss
	s.processCPU = cpu
	s.sampledAt = time.Now().UTC()
}

// Snapshot renders the current counters for the inspector's stats panel.
func (s *StatsManager) Snapshot() map[string]any {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"SessionsOpened":    s.SessionsOpened.Load(),
		"SessionsClosed":    s.SessionsClosed.Load(),
		"SessionsLive":      s.SessionsOpened.Load() - s.SessionsClosed.Load(),
		"GroupMessages":     s.GroupMessages.Load(),
		"DirectMessages":    s.DirectMessages.Load(),
		"QueueDrops":        s.QueueDrops.Load(),
		"ForcedDisconnects": s.ForcedDisconnects.Load(),
		"AllocMemMb":        memStats.Alloc / 1024 / 1024,
		"NumGC":             memStats.NumGC,
		"ProcessRssMb":      s.processRSS / 1024 / 1024,
		"ProcessCpuPct":     s.processCPU,
		"SampledAt":         s.sampledAt.Format(time.RFC822),
	}
}
