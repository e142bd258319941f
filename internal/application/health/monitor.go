package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aescanero/introductions/pkg/ports"
)

// Pinger is the part of the store gateway the monitor needs
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status represents the last observed health of the store
type Status struct {
	Healthy   bool
	LastError string
	CheckedAt time.Time
}

// ChangeListener is notified whenever the store health flips
type ChangeListener func(healthy bool)

// Monitor periodically pings the store
type Monitor struct {
	store    Pinger
	metrics  ports.MetricsCollector
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu        sync.RWMutex
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	status    Status
	checked   bool
	listeners []ChangeListener
}

// NewMonitor creates a new health monitor
func NewMonitor(store Pinger, metrics ports.MetricsCollector, interval, timeout time.Duration, logger *zap.Logger) *Monitor {
	return &Monitor{
		store:    store,
		metrics:  metrics,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

// OnChange registers a listener for health transitions.
// Listeners must be registered before Start.
func (m *Monitor) OnChange(listener ChangeListener) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listeners = append(m.listeners, listener)
}

// Start runs a first check synchronously, then checks every interval
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	m.stopCh = stopCh
	m.doneCh = doneCh
	m.mu.Unlock()

	m.Check(context.Background())
	go m.run(stopCh, doneCh)
}

// Stop stops the health monitor
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	stopCh, doneCh := m.stopCh, m.doneCh
	m.mu.Unlock()

	close(stopCh)
	<-doneCh
}

// run is the main health monitoring loop
func (m *Monitor) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			m.Check(context.Background())
		}
	}
}

// Check pings the store once and records the result
func (m *Monitor) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.store.Ping(ctx)
	status := Status{
		Healthy:   err == nil,
		CheckedAt: time.Now(),
	}
	if err != nil {
		status.LastError = err.Error()
	}

	m.mu.Lock()
	changed := !m.checked || m.status.Healthy != status.Healthy
	m.status = status
	m.checked = true
	listeners := make([]ChangeListener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	m.metrics.SetStoreHealthy(status.Healthy)

	if changed {
		if status.Healthy {
			m.logger.Info("store is healthy")
		} else {
			m.logger.Warn("store is unhealthy", zap.Error(err))
		}
		for _, listener := range listeners {
			listener(status.Healthy)
		}
	} else if !status.Healthy {
		m.logger.Debug("store still unhealthy", zap.Error(err))
	}

	return status
}

// GetStatus returns the last recorded status
func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.status
}

// IsHealthy returns true if the last check succeeded
func (m *Monitor) IsHealthy() bool {
	return m.GetStatus().Healthy
}
