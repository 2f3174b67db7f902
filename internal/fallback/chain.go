// Package fallback implements ordered provider chains: providers are tried
// in priority order until one succeeds, and every attempt is recorded.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"skyscope/internal/config"
	"skyscope/internal/logging"
)

// Outcome of a single provider attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Attempt records one provider attempt. Attempts live in memory for the
// duration of a run and are mirrored to the audit log.
type Attempt struct {
	Chain    string        `json:"chain"`
	Provider string        `json:"provider"`
	Outcome  Outcome       `json:"outcome"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Provider is one implementation of a capability.
type Provider[I, O any] interface {
	Name() string
	Invoke(ctx context.Context, in I) (O, error)
}

// Func adapts a function to a Provider.
type Func[I, O any] struct {
	ID string
	Fn func(ctx context.Context, in I) (O, error)
}

func (f Func[I, O]) Name() string { return f.ID }

func (f Func[I, O]) Invoke(ctx context.Context, in I) (O, error) { return f.Fn(ctx, in) }

type entry[I, O any] struct {
	provider Provider[I, O]
	status   config.Status
}

// Chain is an ordered list of providers for one capability.
type Chain[I, O any] struct {
	name     string
	entries  []entry[I, O]
	validate func(O) error
	timeout  time.Duration
	audit    *logging.AuditLogger
	recorder *Recorder
}

// New creates an empty chain.
func New[I, O any](name string) *Chain[I, O] {
	return &Chain[I, O]{name: name, audit: logging.Audit()}
}

// WithValidator rejects provider output; a rejected output counts as a
// failed attempt.
func (c *Chain[I, O]) WithValidator(v func(O) error) *Chain[I, O] {
	c.validate = v
	return c
}

// WithTimeout bounds every attempt.
func (c *Chain[I, O]) WithTimeout(d time.Duration) *Chain[I, O] {
	c.timeout = d
	return c
}

// WithAudit sends attempt records to a run-scoped audit logger.
func (c *Chain[I, O]) WithAudit(a *logging.AuditLogger) *Chain[I, O] {
	c.audit = a
	return c
}

// WithRecorder also collects attempt records in r.
func (c *Chain[I, O]) WithRecorder(r *Recorder) *Chain[I, O] {
	c.recorder = r
	return c
}

// Add appends a provider with its availability, which was resolved once at
// startup. Unavailable providers are recorded as skipped and never invoked.
func (c *Chain[I, O]) Add(p Provider[I, O], status config.Status) *Chain[I, O] {
	c.entries = append(c.entries, entry[I, O]{provider: p, status: status})
	return c
}

// Name returns the chain's capability name.
func (c *Chain[I, O]) Name() string { return c.name }

// Providers lists provider names in priority order.
func (c *Chain[I, O]) Providers() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.provider.Name()
	}
	return out
}

// Run tries providers in order and stops at the first success. It never
// returns an error: exhaustion is reported through Result.OK.
func (c *Chain[I, O]) Run(ctx context.Context, in I) Result[O] {
	log := logging.Get(logging.CategoryFallback)
	res := Result[O]{Chain: c.name}

	for _, e := range c.entries {
		id := e.provider.Name()

		if !e.status.Available {
			c.record(&res, Attempt{Chain: c.name, Provider: id, Outcome: OutcomeSkipped, Reason: e.status.Reason})
			log.Debug("[%s] %s skipped: %s", c.name, id, e.status.Reason)
			continue
		}

		start := time.Now()
		out, err := c.invoke(ctx, e.provider, in)
		if err == nil && c.validate != nil {
			err = c.validate(out)
		}
		dur := time.Since(start)

		if err != nil {
			c.record(&res, Attempt{Chain: c.name, Provider: id, Outcome: OutcomeFailed, Reason: err.Error(), Duration: dur})
			log.Warn("[%s] %s failed after %v: %v", c.name, id, dur, err)
			continue
		}

		c.record(&res, Attempt{Chain: c.name, Provider: id, Outcome: OutcomeSuccess, Duration: dur})
		log.Debug("[%s] %s succeeded in %v", c.name, id, dur)
		res.Value = out
		res.Provider = id
		res.OK = true
		return res
	}

	log.Warn("[%s] all providers exhausted: %s", c.name, res.Summary())
	return res
}

func (c *Chain[I, O]) invoke(ctx context.Context, p Provider[I, O], in I) (out O, err error) {
	if err := ctx.Err(); err != nil {
		return out, err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panicked: %v", r)
		}
	}()
	out, err = p.Invoke(ctx, in)
	if errors.Is(err, context.DeadlineExceeded) && c.timeout > 0 {
		err = fmt.Errorf("timed out after %v: %w", c.timeout, err)
	}
	return out, err
}

func (c *Chain[I, O]) record(res *Result[O], a Attempt) {
	res.Attempts = append(res.Attempts, a)
	c.recorder.Record(a)
	if c.audit != nil {
		c.audit.ProviderAttempt(a.Chain, a.Provider, string(a.Outcome), a.Reason, a.Duration)
	}
}

// Result is the outcome of one chain run.
type Result[O any] struct {
	Chain    string
	Value    O
	Provider string // provider that succeeded; empty when !OK
	Attempts []Attempt
	OK       bool
}

// AllSkipped reports whether no provider was even invoked.
func (r Result[O]) AllSkipped() bool {
	for _, a := range r.Attempts {
		if a.Outcome != OutcomeSkipped {
			return false
		}
	}
	return true
}

// Summary renders the attempts as "provider: outcome (reason)" joined by "; ".
func (r Result[O]) Summary() string {
	if len(r.Attempts) == 0 {
		return "no providers configured"
	}
	parts := make([]string, 0, len(r.Attempts))
	for _, a := range r.Attempts {
		if a.Reason != "" {
			parts = append(parts, fmt.Sprintf("%s: %s (%s)", a.Provider, a.Outcome, a.Reason))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", a.Provider, a.Outcome))
		}
	}
	return strings.Join(parts, "; ")
}

// NonEmpty is a validator for text outputs.
func NonEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("empty output")
	}
	return nil
}
