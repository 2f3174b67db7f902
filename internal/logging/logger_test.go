package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCategoryLoggersWriteThroughBackend(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Use(zap.New(core))
	t.Cleanup(func() { Use(zap.NewNop()) })

	Research("gathered %d items", 3)
	ExtractWarn("fetch failed: %s", "timeout")
	Get(CategoryLLM).Debug("model=%s", "x")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "research", entries[0].LoggerName)
	assert.Equal(t, "gathered 3 items", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "llm", entries[2].LoggerName)
}

func TestGetCachesPerCategory(t *testing.T) {
	Use(zap.NewNop())
	a := Get(CategorySpeech)
	b := Get(CategorySpeech)
	assert.Same(t, a, b)
	assert.Equal(t, CategorySpeech, a.Category())
}

func TestDisabledCategoryIsSilent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(Options{
		Level:      "debug",
		Format:     "json",
		Dir:        dir,
		Categories: map[string]bool{"video": false},
	}))
	t.Cleanup(func() {
		Sync()
		Use(zap.NewNop())
	})

	Video("this should not appear")
	Report("this should appear")
	Sync()

	matches, err := filepath.Glob(filepath.Join(dir, "*_skyscope.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "this should appear")
	assert.NotContains(t, string(data), "this should not appear")
}

func TestInitializeRejectsBadLevel(t *testing.T) {
	err := Initialize(Options{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestAuditWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	SetAuditWriter(&buf)
	t.Cleanup(func() { SetAuditWriter(nil) })

	a := AuditWithRun("run-1")
	a.ProviderAttempt("completion", "openrouter", "skipped", "no api key", 0)
	a.StageComplete("plan", true, 1500*time.Millisecond, "")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var ev AuditEvent
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ev))
	assert.Equal(t, AuditProviderAttempt, ev.EventType)
	assert.Equal(t, "run-1", ev.RunID)
	assert.Equal(t, "completion", ev.Target)
	assert.Equal(t, "openrouter", ev.Action)
	assert.False(t, ev.Success)
	assert.Equal(t, "skipped", ev.Fields["outcome"])

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &ev))
	assert.Equal(t, AuditStageComplete, ev.EventType)
	assert.Equal(t, int64(1500), ev.DurationMs)
}

func TestAuditNoSinkIsNoop(t *testing.T) {
	SetAuditWriter(nil)
	assert.NotPanics(t, func() {
		Audit().StageStart("research")
	})
}

func TestBeginRunStampsGlobalEvents(t *testing.T) {
	var buf bytes.Buffer
	SetAuditWriter(&buf)
	t.Cleanup(func() { SetAuditWriter(nil) })

	BeginRun("run-7")
	Audit().ProviderAttempt("speech", "silent", "success", "", 0)
	AuditWithRun("explicit").StageStart("plan")
	EndRun()
	Audit().StageStart("after")

	var ev AuditEvent
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ev))
	assert.Equal(t, "run-7", ev.RunID)
	ev = AuditEvent{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &ev))
	assert.Equal(t, "explicit", ev.RunID)
	ev = AuditEvent{}
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &ev))
	assert.Empty(t, ev.RunID)
}
