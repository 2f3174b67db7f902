package config

// LLMConfig configures the completion providers. Providers are tried in
// the order openrouter, gemini, localai.
type LLMConfig struct {
	OpenRouterAPIKey  string  `yaml:"openrouter_api_key"`
	OpenRouterBaseURL string  `yaml:"openrouter_base_url"`
	Model             string  `yaml:"model"`
	GeminiAPIKey      string  `yaml:"gemini_api_key"`
	GeminiModel       string  `yaml:"gemini_model"`
	LocalAIBaseURL    string  `yaml:"localai_base_url"`
	LocalAIModel      string  `yaml:"localai_model"`
	Temperature       float64 `yaml:"temperature"`
	Timeout           string  `yaml:"timeout"`
	SiteURL           string  `yaml:"site_url"`  // OpenRouter HTTP-Referer
	SiteName          string  `yaml:"site_name"` // OpenRouter X-Title
}

// ResearchConfig configures research aggregation.
type ResearchConfig struct {
	DocsPath        string        `yaml:"docs_path"`
	Collection      string        `yaml:"collection"`
	TopK            int           `yaml:"top_k"`
	SnippetChars    int           `yaml:"snippet_chars"`
	WebChars        int           `yaml:"web_chars"`
	TranscriptChars int           `yaml:"transcript_chars"`
	FetchTimeout    string        `yaml:"fetch_timeout"`
	UserAgent       string        `yaml:"user_agent"`
	Browser         BrowserConfig `yaml:"browser"`
}

// Limits returns top-K and snippet length clamped to the supported ranges
// (5..10 hits, 500..800 characters).
func (r ResearchConfig) Limits() (topK, snippetChars int) {
	return clamp(r.TopK, 5, 10), clamp(r.SnippetChars, 500, 800)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// BrowserConfig configures the headless browser extractor.
type BrowserConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Headless          bool   `yaml:"headless"`
	ControlURL        string `yaml:"control_url"` // attach to an existing browser instead of launching one
	NavigationTimeout string `yaml:"navigation_timeout"`
}

// Retrieval backends.
const (
	BackendAuto        = "auto" // localrecall when configured, else embedded
	BackendLocalRecall = "localrecall"
	BackendEmbedded    = "embedded"
	BackendNone        = "none"
)

// RetrievalConfig configures the vector retrieval store.
type RetrievalConfig struct {
	Backend        string          `yaml:"backend"`
	LocalRecallURL string          `yaml:"localrecall_url"`
	DatabasePath   string          `yaml:"database_path"`
	Embedding      EmbeddingConfig `yaml:"embedding"`
}

// EmbeddingConfig configures the embedded store's embedding engine.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"` // none, ollama, genai
	OllamaEndpoint string `yaml:"ollama_endpoint"`
	OllamaModel    string `yaml:"ollama_model"`
	GeminiAPIKey   string `yaml:"gemini_api_key"`
	GeminiModel    string `yaml:"gemini_model"`
	TaskType       string `yaml:"task_type"`
}

// SpeechConfig configures narration providers. Tried in the order kokoro,
// elevenlabs, localai, with a silent track as the last resort.
type SpeechConfig struct {
	KokoroURL         string `yaml:"kokoro_url"`
	KokoroVoice       string `yaml:"kokoro_voice"`
	ElevenLabsAPIKey  string `yaml:"elevenlabs_api_key"`
	ElevenLabsBaseURL string `yaml:"elevenlabs_base_url"`
	ElevenLabsVoiceID string `yaml:"elevenlabs_voice_id"`
	ElevenLabsModel   string `yaml:"elevenlabs_model"`
	LocalAITTSURL     string `yaml:"localai_tts_url"`
	LocalAITTSModel   string `yaml:"localai_tts_model"`
	LocalAITTSVoice   string `yaml:"localai_tts_voice"`
	Timeout           string `yaml:"timeout"`
	SilenceSeconds    int    `yaml:"silence_seconds"`
	SampleRate        int    `yaml:"sample_rate"`
}

// Briefing video format. Width, height and fps in VideoConfig must match.
const (
	VideoWidth  = 1280
	VideoHeight = 720
	VideoFPS    = 24
)

// VideoConfig configures the briefing video.
type VideoConfig struct {
	Enabled        bool   `yaml:"enabled"`
	FFmpegPath     string `yaml:"ffmpeg_path"`
	FFprobePath    string `yaml:"ffprobe_path"`
	Width          int    `yaml:"width"`
	Height         int    `yaml:"height"`
	FPS            int    `yaml:"fps"`
	Title          string `yaml:"title"`
	NarrationChars int    `yaml:"narration_chars"`
}

// Report formats.
const (
	ReportPDF      = "pdf"
	ReportMarkdown = "md"
)

// ReportConfig configures the document artifact.
type ReportConfig struct {
	Format        string `yaml:"format"`
	OutputDir     string `yaml:"output_dir"`
	Preparer      string `yaml:"preparer"`
	PreparerTitle string `yaml:"preparer_title"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`  // debug, info, warn, error
	Format     string          `yaml:"format"` // json, console
	Dir        string          `yaml:"dir"`    // optional file output directory
	Audit      bool            `yaml:"audit"`  // write provider/stage audit events
	Categories map[string]bool `yaml:"categories"`
}
