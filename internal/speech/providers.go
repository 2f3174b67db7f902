package speech

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// KokoroSynthesizer calls a Kokoro server's OpenAI-compatible speech
// endpoint and requests WAV output.
type KokoroSynthesizer struct {
	baseURL string
	voice   string
	client  *http.Client
}

// NewKokoroSynthesizer creates a Kokoro provider.
func NewKokoroSynthesizer(baseURL, voice string, timeout time.Duration) *KokoroSynthesizer {
	if voice == "" {
		voice = "af_bella"
	}
	return &KokoroSynthesizer{
		baseURL: strings.TrimRight(baseURL, "/"),
		voice:   voice,
		client:  &http.Client{Timeout: timeout},
	}
}

func (k *KokoroSynthesizer) Name() string { return "kokoro" }

func (k *KokoroSynthesizer) Synthesize(ctx context.Context, text, outStem string) (Audio, error) {
	path := outStem + ".wav"
	body := map[string]any{
		"model":           "kokoro",
		"input":           text,
		"voice":           k.voice,
		"response_format": "wav",
	}
	if err := postForAudio(ctx, k.client, k.baseURL+"/v1/audio/speech", nil, body, path); err != nil {
		return Audio{}, err
	}
	return audioFor(k.Name(), path), nil
}

// ElevenLabsSynthesizer calls the ElevenLabs text-to-speech API, which
// returns MP3.
type ElevenLabsSynthesizer struct {
	apiKey  string
	baseURL string
	voiceID string
	model   string
	client  *http.Client
}

// NewElevenLabsSynthesizer creates an ElevenLabs provider.
func NewElevenLabsSynthesizer(apiKey, baseURL, voiceID, model string, timeout time.Duration) *ElevenLabsSynthesizer {
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io/v1"
	}
	return &ElevenLabsSynthesizer{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		voiceID: voiceID,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (e *ElevenLabsSynthesizer) Name() string { return "elevenlabs" }

func (e *ElevenLabsSynthesizer) Synthesize(ctx context.Context, text, outStem string) (Audio, error) {
	path := outStem + ".mp3"
	headers := map[string]string{
		"xi-api-key": e.apiKey,
		"Accept":     "audio/mpeg",
	}
	body := map[string]any{"text": text, "model_id": e.model}
	if err := postForAudio(ctx, e.client, e.baseURL+"/text-to-speech/"+e.voiceID, headers, body, path); err != nil {
		return Audio{}, err
	}
	return audioFor(e.Name(), path), nil
}

// LocalAISynthesizer calls LocalAI's /tts endpoint, which returns WAV.
type LocalAISynthesizer struct {
	baseURL string
	model   string
	voice   string
	client  *http.Client
}

// NewLocalAISynthesizer creates a LocalAI TTS provider.
func NewLocalAISynthesizer(baseURL, model, voice string, timeout time.Duration) *LocalAISynthesizer {
	return &LocalAISynthesizer{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		voice:   voice,
		client:  &http.Client{Timeout: timeout},
	}
}

func (l *LocalAISynthesizer) Name() string { return "localai-tts" }

func (l *LocalAISynthesizer) Synthesize(ctx context.Context, text, outStem string) (Audio, error) {
	path := outStem + ".wav"
	body := map[string]any{"model": l.model, "input": text}
	if l.voice != "" {
		body["voice"] = l.voice
	}
	if err := postForAudio(ctx, l.client, l.baseURL+"/tts", nil, body, path); err != nil {
		return Audio{}, err
	}
	return audioFor(l.Name(), path), nil
}
