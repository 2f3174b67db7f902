package fallback

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyscope/internal/config"
	"skyscope/internal/logging"
)

type countingProvider struct {
	id    string
	out   string
	err   error
	calls int
}

func (p *countingProvider) Name() string { return p.id }

func (p *countingProvider) Invoke(ctx context.Context, in string) (string, error) {
	p.calls++
	return p.out, p.err
}

func TestChainOrdering(t *testing.T) {
	skipped := &countingProvider{id: "A", out: "never"}
	failing := &countingProvider{id: "B", err: errors.New("connection refused")}
	winning := &countingProvider{id: "C", out: "answer"}
	untouched := &countingProvider{id: "D", out: "unused"}

	res := New[string, string]("completion").
		Add(skipped, config.Unavailable("no api key")).
		Add(failing, config.Ready()).
		Add(winning, config.Ready()).
		Add(untouched, config.Ready()).
		Run(context.Background(), "prompt")

	require.True(t, res.OK)
	assert.Equal(t, "answer", res.Value)
	assert.Equal(t, "C", res.Provider)
	assert.Equal(t, 0, skipped.calls)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 0, untouched.calls)

	want := []Attempt{
		{Chain: "completion", Provider: "A", Outcome: OutcomeSkipped, Reason: "no api key"},
		{Chain: "completion", Provider: "B", Outcome: OutcomeFailed, Reason: "connection refused"},
		{Chain: "completion", Provider: "C", Outcome: OutcomeSuccess},
	}
	if diff := cmp.Diff(want, res.Attempts, cmpopts.IgnoreFields(Attempt{}, "Duration")); diff != "" {
		t.Errorf("attempts mismatch (-want +got):\n%s", diff)
	}
}

func TestChainExhaustionIsNotAnError(t *testing.T) {
	res := New[string, string]("speech").
		Add(&countingProvider{id: "A"}, config.Unavailable("unset")).
		Add(&countingProvider{id: "B", err: errors.New("boom")}, config.Ready()).
		Run(context.Background(), "x")

	assert.False(t, res.OK)
	assert.Empty(t, res.Provider)
	assert.False(t, res.AllSkipped())
	assert.Equal(t, "A: skipped (unset); B: failed (boom)", res.Summary())
}

func TestChainAllSkipped(t *testing.T) {
	res := New[string, string]("completion").
		Add(&countingProvider{id: "A"}, config.Unavailable("a")).
		Add(&countingProvider{id: "B"}, config.Unavailable("b")).
		Run(context.Background(), "x")
	assert.False(t, res.OK)
	assert.True(t, res.AllSkipped())
}

func TestChainEmpty(t *testing.T) {
	res := New[string, string]("empty").Run(context.Background(), "x")
	assert.False(t, res.OK)
	assert.True(t, res.AllSkipped())
	assert.Equal(t, "no providers configured", res.Summary())
}

func TestValidatorRejectsEmptyOutput(t *testing.T) {
	blank := &countingProvider{id: "blank", out: "   "}
	good := &countingProvider{id: "good", out: "text"}
	res := New[string, string]("completion").
		WithValidator(NonEmpty).
		Add(blank, config.Ready()).
		Add(good, config.Ready()).
		Run(context.Background(), "x")

	require.True(t, res.OK)
	assert.Equal(t, "good", res.Provider)
	assert.Equal(t, OutcomeFailed, res.Attempts[0].Outcome)
	assert.Equal(t, "empty output", res.Attempts[0].Reason)
}

func TestTimeoutCountsAsFailure(t *testing.T) {
	slow := Func[string, string]{ID: "slow", Fn: func(ctx context.Context, in string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	fast := Func[string, string]{ID: "fast", Fn: func(ctx context.Context, in string) (string, error) {
		return "ok:" + in, nil
	}}

	res := New[string, string]("completion").
		WithTimeout(20*time.Millisecond).
		Add(slow, config.Ready()).
		Add(fast, config.Ready()).
		Run(context.Background(), "q")

	require.True(t, res.OK)
	assert.Equal(t, "ok:q", res.Value)
	assert.Equal(t, OutcomeFailed, res.Attempts[0].Outcome)
	assert.Contains(t, res.Attempts[0].Reason, "timed out")
}

func TestPanickingProviderIsRecorded(t *testing.T) {
	bad := Func[string, string]{ID: "bad", Fn: func(ctx context.Context, in string) (string, error) {
		panic("nil map")
	}}
	res := New[string, string]("x").Add(bad, config.Ready()).Run(context.Background(), "")
	assert.False(t, res.OK)
	assert.Contains(t, res.Attempts[0].Reason, "provider panicked")
}

func TestCancelledContextFailsRemainingProviders(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &countingProvider{id: "A", out: "x"}
	res := New[string, string]("x").Add(p, config.Ready()).Run(ctx, "")
	assert.False(t, res.OK)
	assert.Equal(t, 0, p.calls)
	assert.Equal(t, OutcomeFailed, res.Attempts[0].Outcome)
}

func TestAttemptsAreAudited(t *testing.T) {
	var buf bytes.Buffer
	logging.SetAuditWriter(&buf)
	t.Cleanup(func() { logging.SetAuditWriter(nil) })

	New[string, string]("completion").
		WithAudit(logging.AuditWithRun("r1")).
		Add(&countingProvider{id: "A"}, config.Unavailable("unset")).
		Add(&countingProvider{id: "B", out: "ok"}, config.Ready()).
		Run(context.Background(), "x")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"event":"provider_attempt"`)
	assert.Contains(t, lines[0], `"run":"r1"`)
	assert.Contains(t, lines[1], `"success":true`)
}

func TestProvidersListsOrder(t *testing.T) {
	c := New[string, string]("x").
		Add(&countingProvider{id: "one"}, config.Ready()).
		Add(&countingProvider{id: "two"}, config.Ready())
	assert.Equal(t, []string{"one", "two"}, c.Providers())
	assert.Equal(t, "x", c.Name())
}

func TestRecorderCollectsAcrossChains(t *testing.T) {
	rec := NewRecorder()
	New[string, string]("completion").WithRecorder(rec).
		Add(&countingProvider{id: "A"}, config.Unavailable("no key")).
		Add(&countingProvider{id: "B", out: "ok"}, config.Ready()).
		Run(context.Background(), "in")
	New[string, string]("speech").WithRecorder(rec).
		Add(&countingProvider{id: "S", out: "wav"}, config.Ready()).
		Run(context.Background(), "in")

	got := rec.Drain()
	require.Len(t, got, 3)
	assert.Equal(t, "completion", got[0].Chain)
	assert.Equal(t, OutcomeSkipped, got[0].Outcome)
	assert.Equal(t, "speech", got[2].Chain)
	assert.Empty(t, rec.Drain())

	var nilRec *Recorder
	assert.NotPanics(t, func() { nilRec.Record(Attempt{}) })
}
