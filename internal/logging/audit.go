package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditEventType names a structured audit event.
type AuditEventType string

const (
	AuditProviderAttempt AuditEventType = "provider_attempt"
	AuditStageStart      AuditEventType = "stage_start"
	AuditStageComplete   AuditEventType = "stage_complete"
	AuditArtifactWritten AuditEventType = "artifact_written"
	AuditRunStart        AuditEventType = "run_start"
	AuditRunEnd          AuditEventType = "run_end"
)

// AuditEvent is one JSON line in the audit log.
type AuditEvent struct {
	Timestamp  int64                  `json:"ts"` // Unix milliseconds
	EventType  AuditEventType         `json:"event"`
	Category   string                 `json:"cat,omitempty"`
	RunID      string                 `json:"run,omitempty"`
	Target     string                 `json:"target,omitempty"` // chain, stage or artifact kind
	Action     string                 `json:"action,omitempty"` // provider id or outcome
	Success    bool                   `json:"success"`
	DurationMs int64                  `json:"dur_ms"`
	Error      string                 `json:"error,omitempty"`
	Message    string                 `json:"msg,omitempty"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

var (
	auditMu     sync.Mutex
	auditOut    io.Writer
	auditFile   *os.File
	auditLogger = &AuditLogger{}
	currentRun  string
)

// AuditLogger writes audit events, optionally scoped to a run.
type AuditLogger struct {
	runID string
}

// InitAudit opens <dir>/<date>_audit.log for appending.
func InitAudit(dir string) error {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_audit.log", time.Now().Format("2006-01-02")))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	auditFile = file
	auditOut = file
	return nil
}

// SetAuditWriter redirects audit output. Passing nil disables auditing.
func SetAuditWriter(w io.Writer) {
	auditMu.Lock()
	defer auditMu.Unlock()
	auditOut = w
}

// CloseAudit closes the audit log file, if one is open.
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		auditFile.Close()
		if auditOut == io.Writer(auditFile) {
			auditOut = nil
		}
		auditFile = nil
	}
}

// BeginRun stamps runID on events logged without one until EndRun.
func BeginRun(runID string) {
	auditMu.Lock()
	currentRun = runID
	auditMu.Unlock()
}

// EndRun clears the current run id.
func EndRun() {
	BeginRun("")
}

// Audit returns the global audit logger.
func Audit() *AuditLogger {
	return auditLogger
}

// AuditWithRun returns an audit logger that stamps every event with runID.
func AuditWithRun(runID string) *AuditLogger {
	return &AuditLogger{runID: runID}
}

// Log writes an audit event. No-op when no audit sink is configured.
func (a *AuditLogger) Log(event AuditEvent) {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditOut == nil {
		return
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	if event.RunID == "" {
		event.RunID = a.runID
	}
	if event.RunID == "" {
		event.RunID = currentRun
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	auditOut.Write(append(data, '\n'))
}

// ProviderAttempt records one fallback-chain attempt.
func (a *AuditLogger) ProviderAttempt(chain, provider, outcome, reason string, dur time.Duration) {
	a.Log(AuditEvent{
		EventType:  AuditProviderAttempt,
		Category:   string(CategoryFallback),
		Target:     chain,
		Action:     provider,
		Success:    outcome == "success",
		DurationMs: dur.Milliseconds(),
		Error:      reason,
		Fields:     map[string]interface{}{"outcome": outcome},
	})
}

// StageStart records the start of a pipeline stage.
func (a *AuditLogger) StageStart(stage string) {
	a.Log(AuditEvent{
		EventType: AuditStageStart,
		Category:  string(CategoryPipeline),
		Target:    stage,
		Success:   true,
	})
}

// StageComplete records the end of a pipeline stage.
func (a *AuditLogger) StageComplete(stage string, success bool, dur time.Duration, errMsg string) {
	a.Log(AuditEvent{
		EventType:  AuditStageComplete,
		Category:   string(CategoryPipeline),
		Target:     stage,
		Success:    success,
		DurationMs: dur.Milliseconds(),
		Error:      errMsg,
	})
}

// ArtifactWritten records a published artifact.
func (a *AuditLogger) ArtifactWritten(kind, path string) {
	a.Log(AuditEvent{
		EventType: AuditArtifactWritten,
		Category:  string(CategoryPublish),
		Target:    kind,
		Success:   true,
		Message:   path,
	})
}

// RunStart / RunEnd bracket a whole pipeline run.
func (a *AuditLogger) RunStart(directive string) {
	a.Log(AuditEvent{
		EventType: AuditRunStart,
		Category:  string(CategoryPipeline),
		Success:   true,
		Message:   directive,
	})
}

func (a *AuditLogger) RunEnd(success bool, dur time.Duration, errMsg string) {
	a.Log(AuditEvent{
		EventType:  AuditRunEnd,
		Category:   string(CategoryPipeline),
		Success:    success,
		DurationMs: dur.Milliseconds(),
		Error:      errMsg,
	})
}
