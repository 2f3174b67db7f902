// Package video renders the narrated briefing: a black frame with a
// static title, muxed with the narration audio, via the ffmpeg binary.
package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"skyscope/internal/config"
	"skyscope/internal/logging"
	"skyscope/internal/types"
)

// Spec describes one video.
type Spec struct {
	AudioPath  string
	OutputPath string
	Duration   time.Duration // zero: probe the audio
	Width      int
	Height     int
	FPS        int
	Title      string
}

// Renderer produces a video file from a Spec.
type Renderer interface {
	Render(ctx context.Context, spec Spec) error
}

// FFmpegRenderer shells out to ffmpeg and ffprobe.
type FFmpegRenderer struct {
	ffmpeg  string
	ffprobe string
	runner  Runner
}

// NewFFmpegRenderer creates a renderer. runner may be nil.
func NewFFmpegRenderer(ffmpeg, ffprobe string, runner Runner) *FFmpegRenderer {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &FFmpegRenderer{ffmpeg: ffmpeg, ffprobe: ffprobe, runner: runner}
}

// NewFFmpegRendererFromConfig creates a renderer from the video section.
func NewFFmpegRendererFromConfig(cfg config.VideoConfig) *FFmpegRenderer {
	return NewFFmpegRenderer(cfg.FFmpegPath, cfg.FFprobePath, nil)
}

// SpecFromConfig fills the frame geometry and title from configuration.
func SpecFromConfig(cfg config.VideoConfig, audioPath, outputPath string, duration time.Duration) Spec {
	return Spec{
		AudioPath:  audioPath,
		OutputPath: outputPath,
		Duration:   duration,
		Width:      cfg.Width,
		Height:     cfg.Height,
		FPS:        cfg.FPS,
		Title:      cfg.Title,
	}
}

// Render writes spec.OutputPath. When the title overlay cannot be drawn
// (ffmpeg built without drawtext or without fonts) the video is rendered
// without it.
func (r *FFmpegRenderer) Render(ctx context.Context, spec Spec) error {
	timer := logging.StartTimer(logging.CategoryVideo, "Render")
	defer timer.Stop()

	spec = withDefaults(spec)
	if spec.AudioPath == "" || spec.OutputPath == "" {
		return fmt.Errorf("video spec needs audio and output paths: %w", types.ErrRenderFailure)
	}

	if spec.Duration <= 0 {
		d, err := r.probeDuration(ctx, spec.AudioPath)
		if err != nil {
			return fmt.Errorf("probe %s: %v: %w", filepath.Base(spec.AudioPath), err, types.ErrRenderFailure)
		}
		spec.Duration = d
	}

	if err := os.MkdirAll(filepath.Dir(spec.OutputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	_, err := r.runner.Run(ctx, Command{Binary: r.ffmpeg, Args: ffmpegArgs(spec, true)})
	if err != nil && ctx.Err() == nil && spec.Title != "" {
		logging.VideoWarn("title overlay failed, rendering without it: %v", err)
		_, err = r.runner.Run(ctx, Command{Binary: r.ffmpeg, Args: ffmpegArgs(spec, false)})
	}
	if err != nil {
		os.Remove(spec.OutputPath)
		return fmt.Errorf("ffmpeg: %v: %w", err, types.ErrRenderFailure)
	}

	logging.Video("rendered %s (%dx%d, %d fps, %v)", spec.OutputPath, spec.Width, spec.Height, spec.FPS, spec.Duration)
	return nil
}

func withDefaults(s Spec) Spec {
	if s.Width <= 0 {
		s.Width = 1280
	}
	if s.Height <= 0 {
		s.Height = 720
	}
	if s.FPS <= 0 {
		s.FPS = 24
	}
	return s
}

func (r *FFmpegRenderer) probeDuration(ctx context.Context, audio string) (time.Duration, error) {
	out, err := r.runner.Run(ctx, Command{Binary: r.ffprobe, Args: []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audio,
	}})
	if err != nil {
		return 0, err
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil || secs <= 0 {
		return 0, fmt.Errorf("unusable duration %q", strings.TrimSpace(out))
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func ffmpegArgs(s Spec, withTitle bool) []string {
	dur := seconds(s.Duration)
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=black:s=%dx%d:r=%d:d=%s", s.Width, s.Height, s.FPS, dur),
		"-i", s.AudioPath,
	}
	if withTitle && s.Title != "" {
		args = append(args, "-vf", fmt.Sprintf(
			"drawtext=text='%s':fontcolor=white:fontsize=%d:x=(w-text_w)/2:y=(h-text_h)/2",
			escapeDrawtext(s.Title), s.Height/10))
	}
	return append(args,
		"-map", "0:v:0", "-map", "1:a:0",
		"-c:v", "libx264", "-pix_fmt", "yuv420p", "-r", strconv.Itoa(s.FPS),
		"-c:a", "aac", "-b:a", "192k",
		"-t", dur, "-shortest",
		s.OutputPath,
	)
}

// escapeDrawtext quotes text for a single-quoted drawtext value inside a
// filtergraph.
func escapeDrawtext(s string) string {
	r := strings.NewReplacer(
		`\`, `\\\\`,
		`'`, `'\\\''`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(s)
}
