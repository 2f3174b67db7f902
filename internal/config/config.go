package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all skyscope configuration. It is built once at startup and
// passed by pointer to constructors, which must treat it as read-only.
type Config struct {
	Name string `yaml:"name"`

	LLM       LLMConfig       `yaml:"llm"`
	Research  ResearchConfig  `yaml:"research"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Speech    SpeechConfig    `yaml:"speech"`
	Video     VideoConfig     `yaml:"video"`
	Report    ReportConfig    `yaml:"report"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DefaultConfig returns the default configuration. Remote endpoints have no
// defaults: an unset endpoint means the provider is unconfigured.
func DefaultConfig() *Config {
	return &Config{
		Name: "skyscope",

		LLM: LLMConfig{
			OpenRouterBaseURL: "https://openrouter.ai/api/v1",
			Model:             "google/gemini-2.0-flash-001",
			GeminiModel:       "gemini-2.0-flash",
			LocalAIModel:      "gpt-4",
			Temperature:       0.7,
			Timeout:           "60s",
			SiteURL:           "https://github.com/skyscope",
			SiteName:          "Skyscope Sentinel",
		},

		Research: ResearchConfig{
			DocsPath:        "./docs",
			Collection:      "skyscope_intel",
			TopK:            10,
			SnippetChars:    800,
			WebChars:        2000,
			TranscriptChars: 3000,
			FetchTimeout:    "60s",
			UserAgent:       "Mozilla/5.0 (compatible; skyscope/1.0)",
			Browser: BrowserConfig{
				Enabled:           false,
				Headless:          true,
				NavigationTimeout: "30s",
			},
		},

		Retrieval: RetrievalConfig{
			Backend:      BackendAuto,
			DatabasePath: ".skyscope/intel.db",
			Embedding: EmbeddingConfig{
				OllamaModel: "embeddinggemma",
				GeminiModel: "gemini-embedding-001",
				TaskType:    "RETRIEVAL_DOCUMENT",
			},
		},

		Speech: SpeechConfig{
			KokoroVoice:       "af_bella",
			ElevenLabsBaseURL: "https://api.elevenlabs.io/v1",
			ElevenLabsVoiceID: "21m00Tcm4TlvDq8ikWAM",
			ElevenLabsModel:   "eleven_monolingual_v1",
			LocalAITTSModel:   "tts-1",
			LocalAITTSVoice:   "alloy",
			Timeout:           "120s",
			SilenceSeconds:    5,
			SampleRate:        44100,
		},

		Video: VideoConfig{
			Enabled:        false,
			FFmpegPath:     "ffmpeg",
			FFprobePath:    "ffprobe",
			Width:          VideoWidth,
			Height:         VideoHeight,
			FPS:            VideoFPS,
			Title:          "SKYSCOPE CLASSIFIED BRIEFING",
			NarrationChars: 500,
		},

		Report: ReportConfig{
			Format:        ReportPDF,
			OutputDir:     ".",
			Preparer:      "SKYSCOPE SENTINEL INTELLIGENCE",
			PreparerTitle: "Strategic Simulation Division",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load loads configuration from a YAML file and applies environment
// overrides. A missing or empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	setString := func(dst *string, name string) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
		}
	}

	setString(&c.LLM.OpenRouterAPIKey, "OPENROUTER_API_KEY")
	setString(&c.LLM.Model, "SKYSCOPE_MODEL")
	setString(&c.LLM.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.LLM.LocalAIBaseURL, "LOCALAI_BASE_URL")
	setString(&c.LLM.LocalAIModel, "LOCALAI_MODEL")

	setString(&c.Retrieval.LocalRecallURL, "LOCALRECALL_BASE_URL")
	setString(&c.Retrieval.Embedding.OllamaEndpoint, "OLLAMA_URL")
	setString(&c.Research.DocsPath, "SKYSCOPE_DOCS_PATH")

	setString(&c.Speech.ElevenLabsAPIKey, "ELEVENLABS_API_KEY")
	setString(&c.Speech.LocalAITTSURL, "LOCALAI_TTS_URL")
	setString(&c.Speech.KokoroURL, "KOKORO_URL")

	// An empty embedding provider follows whichever backend is configured;
	// "none" pins it off.
	if c.Retrieval.Embedding.Provider == "" {
		switch {
		case c.Retrieval.Embedding.OllamaEndpoint != "":
			c.Retrieval.Embedding.Provider = "ollama"
		case c.LLM.GeminiAPIKey != "":
			c.Retrieval.Embedding.Provider = "genai"
		}
	}
	if c.Retrieval.Embedding.GeminiAPIKey == "" {
		c.Retrieval.Embedding.GeminiAPIKey = c.LLM.GeminiAPIKey
	}
}

// parseDuration returns d parsed, or fallback when d is empty or invalid.
func parseDuration(d string, fallback time.Duration) time.Duration {
	if d == "" {
		return fallback
	}
	v, err := time.ParseDuration(d)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// GetLLMTimeout returns the per-completion timeout.
func (c *Config) GetLLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 60*time.Second)
}

// GetFetchTimeout returns the web fetch timeout.
func (c *Config) GetFetchTimeout() time.Duration {
	return parseDuration(c.Research.FetchTimeout, 60*time.Second)
}

// GetNavigationTimeout returns the headless browser navigation timeout.
func (c *Config) GetNavigationTimeout() time.Duration {
	return parseDuration(c.Research.Browser.NavigationTimeout, 30*time.Second)
}

// GetSpeechTimeout returns the per-request speech synthesis timeout.
func (c *Config) GetSpeechTimeout() time.Duration {
	return parseDuration(c.Speech.Timeout, 120*time.Second)
}

// Validate checks the configuration for values no component can work with.
func (c *Config) Validate() error {
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be within [0, 2], got %v", c.LLM.Temperature)
	}
	switch c.Report.Format {
	case ReportPDF, ReportMarkdown:
	default:
		return fmt.Errorf("report.format must be %q or %q, got %q", ReportPDF, ReportMarkdown, c.Report.Format)
	}
	switch c.Retrieval.Backend {
	case BackendAuto, BackendLocalRecall, BackendEmbedded, BackendNone:
	default:
		return fmt.Errorf("unknown retrieval.backend %q", c.Retrieval.Backend)
	}
	switch c.Retrieval.Embedding.Provider {
	case "", "none", "ollama", "genai":
	default:
		return fmt.Errorf("unknown retrieval.embedding.provider %q", c.Retrieval.Embedding.Provider)
	}
	if c.Video.Width != VideoWidth || c.Video.Height != VideoHeight || c.Video.FPS != VideoFPS {
		return fmt.Errorf("video must be %dx%d at %d fps, got %dx%d at %d fps",
			VideoWidth, VideoHeight, VideoFPS, c.Video.Width, c.Video.Height, c.Video.FPS)
	}
	if strings.TrimSpace(c.Research.Collection) == "" {
		return fmt.Errorf("research.collection is required")
	}
	return nil
}
