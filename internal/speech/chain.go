package speech

import (
	"context"
	"errors"
	"fmt"
	"os"

	"skyscope/internal/config"
	"skyscope/internal/fallback"
	"skyscope/internal/logging"
	"skyscope/internal/types"
)

type request struct {
	text    string
	outStem string
}

type provider struct{ s Synthesizer }

func (p provider) Name() string { return p.s.Name() }

func (p provider) Invoke(ctx context.Context, r request) (Audio, error) {
	return p.s.Synthesize(ctx, r.text, r.outStem)
}

// Entry pairs a synthesizer with its startup availability.
type Entry struct {
	Synthesizer Synthesizer
	Status      config.Status
}

// Chain narrates through providers in priority order.
type Chain struct {
	chain *fallback.Chain[request, Audio]
}

// NewChain builds a chain over explicit entries.
func NewChain(entries ...Entry) *Chain {
	c := fallback.New[request, Audio]("speech").WithValidator(validAudio)
	for _, e := range entries {
		c.Add(provider{e.Synthesizer}, e.Status)
	}
	return &Chain{chain: c}
}

// NewChainFromConfig builds kokoro -> elevenlabs -> localai-tts -> silent.
func NewChainFromConfig(cfg *config.Config, avail config.Availability) *Chain {
	timeout := cfg.GetSpeechTimeout()
	s := cfg.Speech
	return NewChain(
		Entry{NewKokoroSynthesizer(s.KokoroURL, s.KokoroVoice, timeout), avail.Kokoro},
		Entry{NewElevenLabsSynthesizer(s.ElevenLabsAPIKey, s.ElevenLabsBaseURL, s.ElevenLabsVoiceID, s.ElevenLabsModel, timeout), avail.ElevenLabs},
		Entry{NewLocalAISynthesizer(s.LocalAITTSURL, s.LocalAITTSModel, s.LocalAITTSVoice, timeout), avail.LocalAITTS},
		Entry{NewSilentSynthesizer(s.SilenceSeconds, s.SampleRate), config.Ready()},
	)
}

// WithRecorder collects attempt records for the run report.
func (c *Chain) WithRecorder(rec *fallback.Recorder) *Chain {
	c.chain.WithRecorder(rec)
	return c
}

// WithAudit scopes attempt records to a run.
func (c *Chain) WithAudit(a *logging.AuditLogger) *Chain {
	c.chain.WithAudit(a)
	return c
}

// Synthesize narrates text. It fails only when every provider, the
// silent track included, failed.
func (c *Chain) Synthesize(ctx context.Context, text, outStem string) (Audio, error) {
	res := c.chain.Run(ctx, request{text: text, outStem: outStem})
	if !res.OK {
		return Audio{}, fmt.Errorf("no narration: %s: %w", res.Summary(), types.ErrProviderUnavailable)
	}
	logging.Speech("narration via %s: %s (%v)", res.Provider, res.Value.Path, res.Value.Duration)
	return res.Value, nil
}

func validAudio(a Audio) error {
	if a.Path == "" {
		return errors.New("no audio path")
	}
	info, err := os.Stat(a.Path)
	if err != nil {
		return fmt.Errorf("audio missing: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("audio file is empty")
	}
	return nil
}
