// Package publish writes the run's artifacts: the report document (its
// failure fails the run) and, when enabled, a narrated briefing video
// (its failure is logged and the run continues without it).
package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"skyscope/internal/config"
	"skyscope/internal/logging"
	"skyscope/internal/report"
	"skyscope/internal/speech"
	"skyscope/internal/types"
	"skyscope/internal/video"
)

// Narrator turns text into audio. *speech.Chain implements it.
type Narrator interface {
	Synthesize(ctx context.Context, text, outStem string) (speech.Audio, error)
}

// Options configures publication.
type Options struct {
	OutputDir      string
	Identity       report.Identity
	Video          bool
	NarrationChars int
	VideoConfig    config.VideoConfig
}

// Publisher writes artifacts.
type Publisher struct {
	opts     Options
	document report.Renderer
	narrator Narrator
	video    video.Renderer
	now      func() time.Time
	audit    *logging.AuditLogger
}

// New creates a publisher. narrator and videoRenderer may be nil when no
// video is wanted.
func New(opts Options, document report.Renderer, narrator Narrator, videoRenderer video.Renderer) *Publisher {
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.NarrationChars <= 0 {
		opts.NarrationChars = 500
	}
	return &Publisher{
		opts:     opts,
		document: document,
		narrator: narrator,
		video:    videoRenderer,
		now:      time.Now,
		audit:    logging.Audit(),
	}
}

// NewFromConfig wires the configured renderer, speech chain and ffmpeg.
// The video renderer is omitted when ffmpeg is unavailable.
func NewFromConfig(cfg *config.Config, avail config.Availability, narrator Narrator) (*Publisher, error) {
	doc, err := report.NewRenderer(cfg.Report.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrConfigurationMissing, err)
	}

	var vr video.Renderer
	if cfg.Video.Enabled {
		if avail.FFmpeg.Available {
			vr = video.NewFFmpegRendererFromConfig(cfg.Video)
		} else {
			logging.PublishWarn("video requested but %s; briefing video will be skipped", avail.FFmpeg.Reason)
		}
	}

	return New(Options{
		OutputDir:      cfg.Report.OutputDir,
		Identity:       report.Identity{Name: cfg.Report.Preparer, Title: cfg.Report.PreparerTitle},
		Video:          cfg.Video.Enabled,
		NarrationChars: cfg.Video.NarrationChars,
		VideoConfig:    cfg.Video,
	}, doc, narrator, vr), nil
}

// WithClock overrides the time source used for file names and the cover.
func (p *Publisher) WithClock(now func() time.Time) *Publisher {
	p.now = now
	return p
}

// WithAudit scopes artifact events to a run.
func (p *Publisher) WithAudit(a *logging.AuditLogger) *Publisher {
	p.audit = a
	return p
}

// Publish writes the document and, if enabled, the video.
func (p *Publisher) Publish(ctx context.Context, query string, trajectory types.Trajectory, research types.ResearchResult) (types.Artifacts, error) {
	now := p.now()

	doc := report.Compose(query, trajectory, research, now, p.opts.Identity)
	path := report.FilePath(p.opts.OutputDir, p.document, now)
	if err := p.document.Render(doc, path); err != nil {
		logging.ReportError("document render failed: %v", err)
		return types.Artifacts{}, fmt.Errorf("%w: %w", types.ErrRenderFailure, err)
	}
	logging.Publish("report written: %s", path)
	p.audit.ArtifactWritten(string(types.ArtifactDocument), path)

	artifacts := types.Artifacts{
		Document: types.Artifact{Kind: types.ArtifactDocument, Path: path, GeneratedAt: now},
	}

	if p.opts.Video {
		if v := p.publishVideo(ctx, trajectory, now); v != nil {
			artifacts.Video = v
			p.audit.ArtifactWritten(string(types.ArtifactVideo), v.Path)
		}
	}
	return artifacts, nil
}

// publishVideo returns nil on any failure.
func (p *Publisher) publishVideo(ctx context.Context, trajectory types.Trajectory, now time.Time) *types.Artifact {
	if p.narrator == nil || p.video == nil {
		logging.PublishWarn("briefing video skipped: no narrator or video renderer")
		return nil
	}

	script := NarrationExcerpt(string(trajectory), p.opts.NarrationChars)
	if script == "" {
		script = "No trajectory available."
	}

	tmp, err := os.MkdirTemp("", "skyscope-narration-*")
	if err != nil {
		logging.PublishWarn("briefing video skipped: %v", err)
		return nil
	}
	defer os.RemoveAll(tmp)

	audio, err := p.narrator.Synthesize(ctx, script, filepath.Join(tmp, "narration"))
	if err != nil {
		logging.PublishWarn("briefing video skipped: %v", err)
		return nil
	}

	out := filepath.Join(p.opts.OutputDir, fmt.Sprintf("skyscope_briefing_%d.mp4", now.Unix()))
	spec := video.SpecFromConfig(p.opts.VideoConfig, audio.Path, out, audio.Duration)
	if err := p.video.Render(ctx, spec); err != nil {
		logging.PublishWarn("briefing video skipped: %v", err)
		return nil
	}

	logging.Publish("briefing video written: %s (narration by %s)", out, audio.Provider)
	return &types.Artifact{Kind: types.ArtifactVideo, Path: out, GeneratedAt: now}
}

// NarrationExcerpt returns at most max runes of text, cut at a word
// boundary, with heading markers removed and whitespace collapsed.
func NarrationExcerpt(text string, max int) string {
	var words []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			line = strings.Trim(line, "# ")
		}
		words = append(words, strings.Fields(line)...)
	}
	flat := strings.Join(words, " ")

	rs := []rune(flat)
	if max <= 0 || len(rs) <= max {
		return flat
	}
	// the rune right after the cut tells whether the cut split a word
	if rs[max] == ' ' {
		return string(rs[:max])
	}
	cut := string(rs[:max])
	if i := strings.LastIndex(cut, " "); i > 0 {
		return cut[:i]
	}
	return cut
}
