// Package health reports readiness of the authentication core's backing services.
package health

import (
	"context"
	"time"
)

// checkTimeout bounds each individual check.
const checkTimeout = 3 * time.Second

// Status values.
const (
	StatusServing    = "SERVING"
	StatusNotServing = "NOT_SERVING"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker is satisfied by the OPA sign-up evaluator.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Report is the outcome of Check. Checks maps a component to "ok" or its error text.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Checker runs readiness checks. Nil dependencies are skipped.
type Checker struct {
	db     Pinger
	policy PolicyChecker
}

// NewChecker returns a Checker for db and policy.
func NewChecker(db Pinger, policy PolicyChecker) *Checker {
	return &Checker{db: db, policy: policy}
}

// Check never returns an error; failures show up as NOT_SERVING in the report.
func (c *Checker) Check(ctx context.Context) Report {
	r := Report{Status: StatusServing, Checks: map[string]string{}}
	if c.db != nil {
		r.record("database", run(ctx, c.db.PingContext))
	}
	if c.policy != nil {
		r.record("policy_engine", run(ctx, c.policy.HealthCheck))
	}
	return r
}

func (r *Report) record(name string, err error) {
	if err != nil {
		r.Status = StatusNotServing
		r.Checks[name] = err.Error()
		return
	}
	r.Checks[name] = "ok"
}

func run(ctx context.Context, check func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return check(ctx)
}
