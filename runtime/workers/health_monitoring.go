package workers

import (
	"context"
	"log/slog"
	"os"
	goruntime "runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Health is the last sample taken by the HealthMonitoringWorker.
type Health struct {
	PID         int32     `json:"pid"`
	Status      string    `json:"status"`
	CPU         float64   `json:"cpu_percent"`
	RAM         float32   `json:"ram_percent"`
	Goroutines  int       `json:"goroutines"`
	Connections int       `json:"connections"`
	SampledAt   time.Time `json:"sampled_at"`
}

// ConnectionCounter reports how many realtime connections are open.
type ConnectionCounter interface {
	Count() int
}

// HealthMonitoringWorker samples the server process at every metric interval
// and keeps the latest sample for the health endpoint.
type HealthMonitoringWorker struct {
	mu             sync.RWMutex
	log            *slog.Logger
	connections    ConnectionCounter
	metricInterval time.Duration
	pid            int32
	last           Health
}

func NewHealthMonitoringWorker(log *slog.Logger, connections ConnectionCounter, metricInterval time.Duration) *HealthMonitoringWorker {
	return &HealthMonitoringWorker{
		log:            log,
		connections:    connections,
		metricInterval: metricInterval,
		pid:            int32(os.Getpid()),
	}
}

func (w *HealthMonitoringWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(w.pid)
	if err != nil {
		return err
	}
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health monitoring")
			return nil
		case <-ticker.C:
			w.sample(p)
		}
	}
}

func (w *HealthMonitoringWorker) sample(p *process.Process) {
	status, err := p.Status()
	if err != nil {
		w.log.Error("Error while finding process status", "err", err)
		return
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		w.log.Error("Error while finding process cpu usage", "err", err)
		return
	}
	ram, err := p.MemoryPercent()
	if err != nil {
		w.log.Error("Error while finding process ram usage", "err", err)
		return
	}
	health := Health{
		PID:         w.pid,
		Status:      status,
		CPU:         cpu,
		RAM:         ram,
		Goroutines:  goruntime.NumGoroutine(),
		Connections: w.connections.Count(),
		SampledAt:   time.Now().UTC(),
	}
	w.mu.Lock()
	w.last = health
	w.mu.Unlock()
	w.log.Debug("Health sampled", "cpu", cpu, "ram", ram, "goroutines", health.Goroutines, "connections", health.Connections)
}

// Snapshot returns the latest sample, zero until the first tick.
func (w *HealthMonitoringWorker) Snapshot() Health {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.last
}
