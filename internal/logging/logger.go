// Package logging provides categorized logging for skyscope, backed by zap.
// Every pipeline stage logs through its own category so a run can be
// filtered by subsystem. Until Initialize is called all loggers are no-ops.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/subsystem
type Category string

const (
	CategoryBoot      Category = "boot"      // Startup, config resolution
	CategoryPipeline  Category = "pipeline"  // Orchestrator stage sequencing
	CategoryPlanner   Category = "planner"   // Directive -> blueprint
	CategoryResearch  Category = "research"  // Research aggregation
	CategoryExtract   Category = "extract"   // Web + transcript extraction
	CategoryRetrieval Category = "retrieval" // Vector store ingest/search
	CategoryEmbedding Category = "embedding" // Embedding engines
	CategoryLLM       Category = "llm"       // Completion providers
	CategoryFallback  Category = "fallback"  // Provider chain attempts
	CategorySynthesis Category = "synthesis" // Analyst + simulator
	CategorySpeech    Category = "speech"    // Narration providers
	CategoryReport    Category = "report"    // Document composition/rendering
	CategoryVideo     Category = "video"     // Video rendering
	CategoryPublish   Category = "publish"   // Artifact publication
)

// Options configures the logging backend. It mirrors config.LoggingConfig
// to avoid an import cycle.
type Options struct {
	Level      string          // debug, info, warn, error
	Format     string          // json or console
	Dir        string          // when set, logs are also written to <dir>/<date>_skyscope.log
	Audit      bool            // write provider/stage audit events to <dir>/<date>_audit.log
	Categories map[string]bool // nil = all enabled
}

// Logger is a category-scoped logger.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	baseMu     sync.RWMutex
	base       = zap.NewNop()
	current    Options
	loggers    = make(map[Category]*Logger)
	slowCutoff = 5 * time.Second
)

// Initialize builds the zap backend. Safe to call more than once; the last
// call wins and cached category loggers are rebuilt.
func Initialize(opts Options) error {
	z, err := build(opts)
	if err != nil {
		return err
	}
	baseMu.Lock()
	old := base
	base = z
	current = opts
	loggers = make(map[Category]*Logger)
	baseMu.Unlock()
	_ = old.Sync()

	if opts.Audit && opts.Dir != "" {
		if err := InitAudit(opts.Dir); err != nil {
			return err
		}
	}

	Get(CategoryBoot).Debug("logging initialized: level=%s format=%s dir=%q", opts.Level, opts.Format, opts.Dir)
	return nil
}

// Use installs an existing zap logger as backend. Intended for tests and
// for embedding skyscope into programs that already own a zap logger.
func Use(z *zap.Logger) {
	baseMu.Lock()
	defer baseMu.Unlock()
	base = z
	current = Options{}
	loggers = make(map[Category]*Logger)
}

func build(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(opts.Level))); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	var cfg zap.Config
	if opts.Format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
		name := fmt.Sprintf("%s_skyscope.log", time.Now().Format("2006-01-02"))
		cfg.OutputPaths = append(cfg.OutputPaths, filepath.Join(opts.Dir, name))
	}

	return cfg.Build()
}

// Sync flushes buffered entries and closes the audit file.
func Sync() {
	baseMu.RLock()
	z := base
	baseMu.RUnlock()
	_ = z.Sync()
	CloseAudit()
}

func categoryEnabled(category Category) bool {
	if current.Categories == nil {
		return true
	}
	enabled, ok := current.Categories[string(category)]
	return !ok || enabled
}

// Get returns (or creates) the logger for a category. Disabled categories
// get a no-op logger.
func Get(category Category) *Logger {
	baseMu.RLock()
	if l, ok := loggers[category]; ok {
		baseMu.RUnlock()
		return l
	}
	baseMu.RUnlock()

	baseMu.Lock()
	defer baseMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	z := base
	if !categoryEnabled(category) {
		z = zap.NewNop()
	}
	l := &Logger{
		category: category,
		sugar:    z.Named(string(category)).Sugar(),
	}
	loggers[category] = l
	return l
}

// Category returns the logger's category.
func (l *Logger) Category() Category { return l.category }

func (l *Logger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// With returns a child logger carrying structured key/value context.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// =============================================================================
// TIMERS
// =============================================================================

// Timer measures an operation and logs its duration on Stop.
type Timer struct {
	category  Category
	operation string
	start     time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, operation: operation, start: time.Now()}
}

// Stop logs the elapsed time. Operations slower than the slow cutoff are
// logged at warn level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	l := Get(t.category)
	if elapsed > slowCutoff {
		l.Warn("%s took %v (slow)", t.operation, elapsed)
	} else {
		l.Debug("%s completed in %v", t.operation, elapsed)
	}
	return elapsed
}

// =============================================================================
// CONVENIENCE FUNCTIONS
// =============================================================================

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debug(format, args...) }

func Pipeline(format string, args ...interface{})      { Get(CategoryPipeline).Info(format, args...) }
func PipelineWarn(format string, args ...interface{})  { Get(CategoryPipeline).Warn(format, args...) }
func PipelineError(format string, args ...interface{}) { Get(CategoryPipeline).Error(format, args...) }

func Planner(format string, args ...interface{})      { Get(CategoryPlanner).Info(format, args...) }
func PlannerDebug(format string, args ...interface{}) { Get(CategoryPlanner).Debug(format, args...) }
func PlannerWarn(format string, args ...interface{})  { Get(CategoryPlanner).Warn(format, args...) }

func Research(format string, args ...interface{})      { Get(CategoryResearch).Info(format, args...) }
func ResearchDebug(format string, args ...interface{}) { Get(CategoryResearch).Debug(format, args...) }
func ResearchWarn(format string, args ...interface{})  { Get(CategoryResearch).Warn(format, args...) }

func Extract(format string, args ...interface{})      { Get(CategoryExtract).Info(format, args...) }
func ExtractDebug(format string, args ...interface{}) { Get(CategoryExtract).Debug(format, args...) }
func ExtractWarn(format string, args ...interface{})  { Get(CategoryExtract).Warn(format, args...) }

func Retrieval(format string, args ...interface{}) { Get(CategoryRetrieval).Info(format, args...) }
func RetrievalDebug(format string, args ...interface{}) {
	Get(CategoryRetrieval).Debug(format, args...)
}
func RetrievalWarn(format string, args ...interface{}) { Get(CategoryRetrieval).Warn(format, args...) }

func Embedding(format string, args ...interface{}) { Get(CategoryEmbedding).Info(format, args...) }
func EmbeddingDebug(format string, args ...interface{}) {
	Get(CategoryEmbedding).Debug(format, args...)
}

func LLM(format string, args ...interface{})      { Get(CategoryLLM).Info(format, args...) }
func LLMDebug(format string, args ...interface{}) { Get(CategoryLLM).Debug(format, args...) }
func LLMWarn(format string, args ...interface{})  { Get(CategoryLLM).Warn(format, args...) }
func LLMError(format string, args ...interface{}) { Get(CategoryLLM).Error(format, args...) }

func Synthesis(format string, args ...interface{})     { Get(CategorySynthesis).Info(format, args...) }
func SynthesisWarn(format string, args ...interface{}) { Get(CategorySynthesis).Warn(format, args...) }

func Speech(format string, args ...interface{})     { Get(CategorySpeech).Info(format, args...) }
func SpeechWarn(format string, args ...interface{}) { Get(CategorySpeech).Warn(format, args...) }

func Report(format string, args ...interface{})      { Get(CategoryReport).Info(format, args...) }
func ReportError(format string, args ...interface{}) { Get(CategoryReport).Error(format, args...) }

func Video(format string, args ...interface{})     { Get(CategoryVideo).Info(format, args...) }
func VideoWarn(format string, args ...interface{}) { Get(CategoryVideo).Warn(format, args...) }

func Publish(format string, args ...interface{})     { Get(CategoryPublish).Info(format, args...) }
func PublishWarn(format string, args ...interface{}) { Get(CategoryPublish).Warn(format, args...) }
