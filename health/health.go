// Package health aggregates component health checks into one report.
package health

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

var (
	ErrCheckerNil       = errors.New("health checker is nil")
	ErrDuplicateChecker = errors.New("health checker already registered")
)

// Status is the state of a single check or of the aggregate.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// severity orders statuses so the aggregate takes the worst one.
func (s Status) severity() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	case StatusUnknown:
		return 2
	default:
		return 3
	}
}

// Checker checks one component. A returned error marks the component
// unhealthy, or degraded when the checker is optional.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Result is the outcome of one check.
type Result struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Optional bool          `json:"optional,omitempty"`
	Duration time.Duration `json:"durationNs"`
}

// Report is the aggregated status of every registered check.
type Report struct {
	Status    Status    `json:"status"`
	CheckedAt time.Time `json:"checkedAt"`
	Checks    []Result  `json:"checks"`
}

type registration struct {
	checker  Checker
	optional bool
}

// Aggregator runs registered checks concurrently, each bounded by a timeout.
type Aggregator struct {
	timeout time.Duration

	mu     sync.RWMutex
	checks []registration
}

// NewAggregator creates an Aggregator. A zero timeout means checks run
// under the caller's context only.
func NewAggregator(timeout time.Duration) *Aggregator {
	return &Aggregator{timeout: timeout}
}

// Register adds a required check.
func (a *Aggregator) Register(c Checker) error { return a.register(c, false) }

// RegisterOptional adds a check whose failure only degrades the aggregate.
func (a *Aggregator) RegisterOptional(c Checker) error { return a.register(c, true) }

func (a *Aggregator) register(c Checker, optional bool) error {
	if c == nil {
		return ErrCheckerNil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if slices.ContainsFunc(a.checks, func(r registration) bool { return r.checker.Name() == c.Name() }) {
		return ErrDuplicateChecker
	}
	a.checks = append(a.checks, registration{checker: c, optional: optional})
	return nil
}

// CheckAll runs every check and reports the worst status. Results keep
// registration order. With no checks registered the aggregate is healthy.
func (a *Aggregator) CheckAll(ctx context.Context) Report {
	a.mu.RLock()
	checks := slices.Clone(a.checks)
	a.mu.RUnlock()

	results := make([]Result, len(checks))
	var wg sync.WaitGroup
	for i, reg := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = a.run(ctx, reg)
		}()
	}
	wg.Wait()

	overall := StatusHealthy
	for _, r := range results {
		if r.Status.severity() > overall.severity() {
			overall = r.Status
		}
	}
	return Report{Status: overall, CheckedAt: time.Now().UTC(), Checks: results}
}

func (a *Aggregator) run(ctx context.Context, reg registration) Result {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	err := reg.checker.Check(ctx)
	result := Result{Name: reg.checker.Name(), Status: StatusHealthy, Optional: reg.optional, Duration: time.Since(start)}
	if err != nil {
		result.Error = err.Error()
		result.Status = StatusUnhealthy
		if reg.optional {
			result.Status = StatusDegraded
		}
	}
	return result
}

// Pinger is implemented by *sql.DB and *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type pingCheck struct {
	name string
	db   Pinger
}

// PingCheck reports a database healthy when it answers a ping.
func PingCheck(name string, db Pinger) Checker { return pingCheck{name: name, db: db} }

func (p pingCheck) Name() string                    { return p.name }
func (p pingCheck) Check(ctx context.Context) error { return p.db.PingContext(ctx) }

// CheckFunc adapts a function to a Checker.
func CheckFunc(name string, fn func(ctx context.Context) error) Checker {
	return funcCheck{name: name, fn: fn}
}

type funcCheck struct {
	name string
	fn   func(ctx context.Context) error
}

func (f funcCheck) Name() string                    { return f.name }
func (f funcCheck) Check(ctx context.Context) error { return f.fn(ctx) }
