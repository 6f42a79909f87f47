package health

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/GoCodeAlone/modkit"
)

// Monitor runs the aggregator on a cron schedule and logs status changes.
type Monitor struct {
	aggregator *Aggregator
	logger     modkit.Logger

	mu    sync.Mutex
	cron  *cron.Cron
	last  *Report
	onRun func(Report)
}

func NewMonitor(aggregator *Aggregator, logger modkit.Logger) *Monitor {
	if logger == nil {
		logger = modkit.NopLogger{}
	}
	return &Monitor{aggregator: aggregator, logger: logger}
}

// Start schedules checks with a standard cron spec or a descriptor such as
// "@every 30s".
func (m *Monitor) Start(spec string) error {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("parsing health schedule %q: %w", spec, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cron != nil {
		return nil
	}
	m.cron = cron.New()
	m.cron.Schedule(schedule, cron.FuncJob(m.Run))
	m.cron.Start()
	m.logger.Info("Health monitor started", "schedule", spec)
	return nil
}

// Stop cancels the schedule and waits for a running check to finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	m.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// Run checks once, logging when the aggregate status differs from the
// previous run.
func (m *Monitor) Run() {
	report := m.aggregator.CheckAll(context.Background())

	m.mu.Lock()
	previous := m.last
	m.last = &report
	onRun := m.onRun
	m.mu.Unlock()

	if previous == nil || previous.Status != report.Status {
		args := []any{"status", report.Status}
		if previous != nil {
			args = append(args, "previous", previous.Status)
		}
		if report.Status == StatusHealthy {
			m.logger.Info("Health status changed", args...)
		} else {
			m.logger.Warn("Health status changed", args...)
		}
	}
	if onRun != nil {
		onRun(report)
	}
}

// Last returns the report of the most recent run.
func (m *Monitor) Last() (Report, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return Report{}, false
	}
	return *m.last, true
}
