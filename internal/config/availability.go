package config

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Status is the resolved availability of one provider.
type Status struct {
	Available bool
	Reason    string // why the provider is unavailable; empty when available
}

// Ready is the status of an available provider.
func Ready() Status { return Status{Available: true} }

// Unavailable builds the status of an unavailable provider.
func Unavailable(format string, args ...interface{}) Status {
	return Status{Reason: fmt.Sprintf(format, args...)}
}

// Availability is resolved once at startup. Providers consult it when their
// chain is built and never re-probe afterwards.
type Availability struct {
	OpenRouter Status
	Gemini     Status
	LocalAI    Status

	LocalRecall   Status
	EmbeddedStore Status
	Embeddings    Status
	LocalDocs     Status

	Kokoro     Status
	ElevenLabs Status
	LocalAITTS Status

	Browser Status
	FFmpeg  Status
}

// Row is one line of the availability table.
type Row struct {
	Capability string
	Provider   string
	Status     Status
}

// LookPathFunc resolves an executable; exec.LookPath in production.
type LookPathFunc func(file string) (string, error)

// ResolveAvailability derives provider availability from configuration
// alone, plus an executable lookup for the video toolchain. No network
// probing happens here.
func ResolveAvailability(cfg *Config, lookPath LookPathFunc) Availability {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	var a Availability

	a.OpenRouter = requireValue(cfg.LLM.OpenRouterAPIKey, "no OPENROUTER_API_KEY")
	a.Gemini = requireValue(cfg.LLM.GeminiAPIKey, "no GEMINI_API_KEY")
	a.LocalAI = requireValue(cfg.LLM.LocalAIBaseURL, "no LOCALAI_BASE_URL")

	switch cfg.Retrieval.Backend {
	case BackendNone:
		a.LocalRecall = Unavailable("retrieval disabled")
		a.EmbeddedStore = Unavailable("retrieval disabled")
	case BackendEmbedded:
		a.LocalRecall = Unavailable("backend pinned to embedded")
		a.EmbeddedStore = requireValue(cfg.Retrieval.DatabasePath, "no retrieval.database_path")
	case BackendLocalRecall:
		a.LocalRecall = requireValue(cfg.Retrieval.LocalRecallURL, "no LOCALRECALL_BASE_URL")
		a.EmbeddedStore = Unavailable("backend pinned to localrecall")
	default:
		a.LocalRecall = requireValue(cfg.Retrieval.LocalRecallURL, "no LOCALRECALL_BASE_URL")
		if a.LocalRecall.Available {
			a.EmbeddedStore = Unavailable("localrecall preferred")
		} else {
			a.EmbeddedStore = requireValue(cfg.Retrieval.DatabasePath, "no retrieval.database_path")
		}
	}

	switch cfg.Retrieval.Embedding.Provider {
	case "ollama":
		a.Embeddings = requireValue(cfg.Retrieval.Embedding.OllamaEndpoint, "no OLLAMA_URL")
	case "genai":
		a.Embeddings = requireValue(cfg.Retrieval.Embedding.GeminiAPIKey, "no GEMINI_API_KEY")
	default:
		a.Embeddings = Unavailable("keyword scoring only")
	}

	a.LocalDocs = resolveDocs(cfg.Research.DocsPath)

	a.Kokoro = requireValue(cfg.Speech.KokoroURL, "no KOKORO_URL")
	a.ElevenLabs = requireValue(cfg.Speech.ElevenLabsAPIKey, "no ELEVENLABS_API_KEY")
	a.LocalAITTS = requireValue(cfg.Speech.LocalAITTSURL, "no LOCALAI_TTS_URL")

	if cfg.Research.Browser.Enabled {
		a.Browser = Ready()
	} else {
		a.Browser = Unavailable("research.browser.enabled is false")
	}

	if _, err := lookPath(cfg.Video.FFmpegPath); err != nil {
		a.FFmpeg = Unavailable("%s not found on PATH", cfg.Video.FFmpegPath)
	} else {
		a.FFmpeg = Ready()
	}

	return a
}

func requireValue(v, reason string) Status {
	if strings.TrimSpace(v) == "" {
		return Unavailable("%s", reason)
	}
	return Ready()
}

func resolveDocs(path string) Status {
	if strings.TrimSpace(path) == "" {
		return Unavailable("no documents path")
	}
	info, err := os.Stat(path)
	if err != nil {
		return Unavailable("%s does not exist", path)
	}
	if !info.IsDir() {
		return Unavailable("%s is not a directory", path)
	}
	return Ready()
}

// CompletionAvailable reports whether any completion provider is configured.
func (a Availability) CompletionAvailable() bool {
	return a.OpenRouter.Available || a.Gemini.Available || a.LocalAI.Available
}

// Rows lists every provider in chain order for display.
func (a Availability) Rows() []Row {
	return []Row{
		{"completion", "openrouter", a.OpenRouter},
		{"completion", "gemini", a.Gemini},
		{"completion", "localai", a.LocalAI},
		{"retrieval", "localrecall", a.LocalRecall},
		{"retrieval", "embedded", a.EmbeddedStore},
		{"retrieval", "embeddings", a.Embeddings},
		{"retrieval", "local-docs", a.LocalDocs},
		{"speech", "kokoro", a.Kokoro},
		{"speech", "elevenlabs", a.ElevenLabs},
		{"speech", "localai-tts", a.LocalAITTS},
		{"speech", "silent", Ready()},
		{"extract", "http", Ready()},
		{"extract", "browser", a.Browser},
		{"video", "ffmpeg", a.FFmpeg},
	}
}
