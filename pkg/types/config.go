// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

// RequiredSections lists the top-level configuration sections that must be
// present. A config missing any of them is rejected before work begins.
var RequiredSections = []string{
	"api_keys",
	"pubmed",
	"pdf_processing",
	"ai_processing",
	"image_analysis",
	"tts",
	"video_generation",
	"cloud_storage",
	"youtube",
	"pipeline",
	"logging",
}

// ConfigError reports a missing or invalid configuration section or field.
type ConfigError struct {
	Section string
	Field   string
	Msg     string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config: section %s: %s", e.Section, e.Msg)
	}
	return fmt.Sprintf("config: %s.%s: %s", e.Section, e.Field, e.Msg)
}

// Config is the complete, typed medibrief configuration.
type Config struct {
	APIKeys       APIKeysConfig       `json:"api_keys" yaml:"api_keys" mapstructure:"api_keys"`
	PubMed        DiscoveryConfig     `json:"pubmed" yaml:"pubmed" mapstructure:"pubmed"`
	PDFProcessing ExtractionConfig    `json:"pdf_processing" yaml:"pdf_processing" mapstructure:"pdf_processing"`
	AIProcessing  GenerationConfig    `json:"ai_processing" yaml:"ai_processing" mapstructure:"ai_processing"`
	ImageAnalysis ImageAnalysisConfig `json:"image_analysis" yaml:"image_analysis" mapstructure:"image_analysis"`
	TTS           SpeechConfig        `json:"tts" yaml:"tts" mapstructure:"tts"`
	Video         VideoConfig         `json:"video_generation" yaml:"video_generation" mapstructure:"video_generation"`
	Storage       StorageConfig       `json:"cloud_storage" yaml:"cloud_storage" mapstructure:"cloud_storage"`
	YouTube       PublishConfig       `json:"youtube" yaml:"youtube" mapstructure:"youtube"`
	Pipeline      PipelineConfig      `json:"pipeline" yaml:"pipeline" mapstructure:"pipeline"`
	Logging       LoggingConfig       `json:"logging" yaml:"logging" mapstructure:"logging"`

	// Credentials is optional; empty paths fall back to ambient credentials.
	Credentials CredentialsConfig `json:"credentials" yaml:"credentials" mapstructure:"credentials"`

	// OutputDir is the root of the durable per-item layout (default "output").
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`
}

// APIKeysConfig holds service keys and the cloud project identity.
type APIKeysConfig struct {
	GCPProjectID  string `json:"gcp_project_id" yaml:"gcp_project_id" mapstructure:"gcp_project_id"`
	Gemini        string `json:"gemini,omitempty" yaml:"gemini,omitempty" mapstructure:"gemini"`
	PubMed        string `json:"pubmed,omitempty" yaml:"pubmed,omitempty" mapstructure:"pubmed"`
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty" mapstructure:"openalex_email"`
}

// DiscoveryConfig holds document discovery settings.
type DiscoveryConfig struct {
	// Backend selects the discovery source: "pubmed" (default) or "openalex".
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Specialties are the topics processed in order on each run.
	Specialties []string `json:"specialties" yaml:"specialties" mapstructure:"specialties"`

	TimePeriodDays     int `json:"time_period_days" yaml:"time_period_days" mapstructure:"time_period_days"`
	MaxResultsPerQuery int `json:"max_results_per_query" yaml:"max_results_per_query" mapstructure:"max_results_per_query"`

	// RateLimit is the maximum requests per second to the discovery API.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`

	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ExtractionConfig holds PDF acquisition and extraction settings.
type ExtractionConfig struct {
	TempStoragePath string `json:"temp_storage_path" yaml:"temp_storage_path" mapstructure:"temp_storage_path"`

	// Converter selects the PDF text backend: "pdftotext" (default) or "markitdown".
	Converter string `json:"converter" yaml:"converter" mapstructure:"converter"`

	OCR              OCRConfig              `json:"ocr" yaml:"ocr" mapstructure:"ocr"`
	FigureExtraction FigureExtractionConfig `json:"figure_extraction" yaml:"figure_extraction" mapstructure:"figure_extraction"`
}

// OCRConfig holds tesseract parameters.
type OCRConfig struct {
	Language string `json:"language" yaml:"language" mapstructure:"language"`

	// Config is passed to tesseract as extra arguments (e.g. "--psm 3").
	Config string `json:"config" yaml:"config" mapstructure:"config"`
}

// FigureExtractionConfig controls figure detection on rendered pages.
type FigureExtractionConfig struct {
	// MinFigureSize is the minimum width and height in pixels.
	MinFigureSize   int      `json:"min_figure_size" yaml:"min_figure_size" mapstructure:"min_figure_size"`
	CaptionKeywords []string `json:"caption_keywords" yaml:"caption_keywords" mapstructure:"caption_keywords"`
	DPI             int      `json:"dpi" yaml:"dpi" mapstructure:"dpi"`
}

// GenerationConfig holds text generation settings.
type GenerationConfig struct {
	// Backend is "gemini" (API key) or "vertex" (project credentials).
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`

	VertexAI      VertexAIConfig      `json:"vertex_ai" yaml:"vertex_ai" mapstructure:"vertex_ai"`
	Summarization SummarizationConfig `json:"summarization" yaml:"summarization" mapstructure:"summarization"`
	KeyTakeaways  TakeawaysConfig     `json:"key_takeaways" yaml:"key_takeaways" mapstructure:"key_takeaways"`

	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`
}

// VertexAIConfig names the model and its location.
type VertexAIConfig struct {
	ModelName string `json:"model_name" yaml:"model_name" mapstructure:"model_name"`
	Location  string `json:"location" yaml:"location" mapstructure:"location"`
}

// SummarizationConfig bounds summary length (in words) and sampling.
type SummarizationConfig struct {
	MaxLength   int     `json:"max_length" yaml:"max_length" mapstructure:"max_length"`
	MinLength   int     `json:"min_length" yaml:"min_length" mapstructure:"min_length"`
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`
	TopP        float64 `json:"top_p" yaml:"top_p" mapstructure:"top_p"`
}

// TakeawaysConfig sets the target takeaway count and per-item length.
type TakeawaysConfig struct {
	Count         int `json:"count" yaml:"count" mapstructure:"count"`
	MaxLengthEach int `json:"max_length_each" yaml:"max_length_each" mapstructure:"max_length_each"`
}

// ImageAnalysisConfig holds figure analysis and selection settings.
type ImageAnalysisConfig struct {
	VisionAI        VisionConfig          `json:"vision_ai" yaml:"vision_ai" mapstructure:"vision_ai"`
	FigureSelection FigureSelectionConfig `json:"figure_selection" yaml:"figure_selection" mapstructure:"figure_selection"`
	RateLimit       float64               `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`
}

// VisionConfig lists the requested annotation features.
type VisionConfig struct {
	// FeatureTypes are Vision feature names such as LABEL_DETECTION.
	FeatureTypes []string `json:"feature_types" yaml:"feature_types" mapstructure:"feature_types"`
	MaxResults   int      `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// FigureSelectionConfig bounds the final figure selection.
type FigureSelectionConfig struct {
	MaxFigures      int     `json:"max_figures" yaml:"max_figures" mapstructure:"max_figures"`
	MinQualityScore float64 `json:"min_quality_score" yaml:"min_quality_score" mapstructure:"min_quality_score"`
}

// SpeechConfig holds speech synthesis settings.
type SpeechConfig struct {
	Voice          VoiceConfig `json:"voice" yaml:"voice" mapstructure:"voice"`
	Audio          AudioConfig `json:"audio" yaml:"audio" mapstructure:"audio"`
	MaxChunkLength int         `json:"max_chunk_length" yaml:"max_chunk_length" mapstructure:"max_chunk_length"`
	RateLimit      float64     `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`
}

// VoiceConfig selects the synthesis voice.
type VoiceConfig struct {
	LanguageCode string  `json:"language_code" yaml:"language_code" mapstructure:"language_code"`
	Name         string  `json:"name" yaml:"name" mapstructure:"name"`
	SpeakingRate float64 `json:"speaking_rate" yaml:"speaking_rate" mapstructure:"speaking_rate"`
	Pitch        float64 `json:"pitch" yaml:"pitch" mapstructure:"pitch"`
}

// AudioConfig selects the synthesized audio encoding.
type AudioConfig struct {
	// Encoding is a TTS AudioEncoding name such as MP3 or LINEAR16.
	Encoding        string `json:"encoding" yaml:"encoding" mapstructure:"encoding"`
	SampleRateHertz int    `json:"sample_rate_hertz" yaml:"sample_rate_hertz" mapstructure:"sample_rate_hertz"`
}

// VideoConfig holds video assembly settings.
type VideoConfig struct {
	Output VideoOutputConfig `json:"output" yaml:"output" mapstructure:"output"`
	Timing TimingConfig      `json:"timing" yaml:"timing" mapstructure:"timing"`
	Style  StyleConfig       `json:"style" yaml:"style" mapstructure:"style"`
}

// VideoOutputConfig sets the resolution preset, frame rate, and container.
type VideoOutputConfig struct {
	// Resolution is one of 1080p, 720p, 480p. Unknown presets render at 1080p.
	Resolution string `json:"resolution" yaml:"resolution" mapstructure:"resolution"`
	FPS        int    `json:"fps" yaml:"fps" mapstructure:"fps"`
	Format     string `json:"format" yaml:"format" mapstructure:"format"`
}

// TimingConfig holds slide durations in seconds.
type TimingConfig struct {
	IntroDuration      float64 `json:"intro_duration" yaml:"intro_duration" mapstructure:"intro_duration"`
	SlideDuration      float64 `json:"slide_duration" yaml:"slide_duration" mapstructure:"slide_duration"`
	TransitionDuration float64 `json:"transition_duration" yaml:"transition_duration" mapstructure:"transition_duration"`
	OutroDuration      float64 `json:"outro_duration" yaml:"outro_duration" mapstructure:"outro_duration"`
}

// StyleConfig holds slide colors and fonts.
type StyleConfig struct {
	BackgroundColor string `json:"background_color" yaml:"background_color" mapstructure:"background_color"`
	TextColor       string `json:"text_color" yaml:"text_color" mapstructure:"text_color"`
	HighlightColor  string `json:"highlight_color" yaml:"highlight_color" mapstructure:"highlight_color"`

	// Font is a font file path passed to ffmpeg drawtext.
	Font          string `json:"font" yaml:"font" mapstructure:"font"`
	TitleFontSize int    `json:"title_font_size" yaml:"title_font_size" mapstructure:"title_font_size"`
	BodyFontSize  int    `json:"body_font_size" yaml:"body_font_size" mapstructure:"body_font_size"`
}

// StorageConfig holds object storage settings.
type StorageConfig struct {
	Buckets       BucketsConfig `json:"buckets" yaml:"buckets" mapstructure:"buckets"`
	StorageClass  string        `json:"storage_class" yaml:"storage_class" mapstructure:"storage_class"`
	RetentionDays int           `json:"retention_days" yaml:"retention_days" mapstructure:"retention_days"`
	Location      string        `json:"location" yaml:"location" mapstructure:"location"`
}

// BucketsConfig names one bucket per artifact kind.
type BucketsConfig struct {
	Videos string `json:"videos" yaml:"videos" mapstructure:"videos"`
	PDFs   string `json:"pdfs" yaml:"pdfs" mapstructure:"pdfs"`
	Images string `json:"images" yaml:"images" mapstructure:"images"`
	Audio  string `json:"audio" yaml:"audio" mapstructure:"audio"`
}

// PublishConfig holds YouTube publishing settings.
type PublishConfig struct {
	ChannelID string `json:"channel_id" yaml:"channel_id" mapstructure:"channel_id"`

	// DescriptionTemplate is a text/template rendered with the document
	// fields and a bulleted KeyTakeaways string.
	DescriptionTemplate string `json:"description_template" yaml:"description_template" mapstructure:"description_template"`

	// DryRun fabricates a placeholder video ID instead of uploading.
	DryRun bool `json:"dry_run" yaml:"dry_run" mapstructure:"dry_run"`

	Video VideoMetaConfig `json:"video" yaml:"video" mapstructure:"video"`
}

// VideoMetaConfig holds per-video platform metadata.
type VideoMetaConfig struct {
	CategoryID    string   `json:"category_id" yaml:"category_id" mapstructure:"category_id"`
	PrivacyStatus string   `json:"privacy_status" yaml:"privacy_status" mapstructure:"privacy_status"`
	Tags          []string `json:"tags" yaml:"tags" mapstructure:"tags"`
}

// PipelineConfig holds orchestration settings.
type PipelineConfig struct {
	MaxConcurrentPapers int     `json:"max_concurrent_papers" yaml:"max_concurrent_papers" mapstructure:"max_concurrent_papers"`
	MaxRetries          int     `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelaySeconds   float64 `json:"retry_delay_seconds" yaml:"retry_delay_seconds" mapstructure:"retry_delay_seconds"`
}

// RetryDelay returns the adapter base delay.
func (p PipelineConfig) RetryDelay() time.Duration {
	return time.Duration(p.RetryDelaySeconds * float64(time.Second))
}

// LoggingConfig holds log level, destination, and format.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	File   string `json:"file" yaml:"file" mapstructure:"file"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// CredentialsConfig holds credential file paths.
type CredentialsConfig struct {
	// GoogleApplicationCredentials is a service-account JSON path. When
	// empty, Application Default Credentials are used.
	GoogleApplicationCredentials string `json:"google_application_credentials" yaml:"google_application_credentials" mapstructure:"google_application_credentials"`

	YouTubeClientSecrets string `json:"youtube_client_secrets" yaml:"youtube_client_secrets" mapstructure:"youtube_client_secrets"`
	YouTubeTokenFile     string `json:"youtube_token_file" yaml:"youtube_token_file" mapstructure:"youtube_token_file"`
}

// MissingSections returns the required sections absent from a decoded
// top-level config map, in RequiredSections order.
func MissingSections(settings map[string]any) []string {
	var missing []string
	for _, s := range RequiredSections {
		if _, ok := settings[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}

// ParseConfig decodes YAML, rejects missing sections, and validates fields.
func ParseConfig(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Section: "(root)", Msg: fmt.Sprintf("parsing YAML: %v", err)}
	}
	if missing := MissingSections(raw); len(missing) > 0 {
		return nil, &ConfigError{Section: strings.Join(missing, ", "), Msg: "missing required section"}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Section: "(root)", Msg: fmt.Sprintf("decoding: %v", err)}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills optional fields left empty.
func (c *Config) ApplyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.PubMed.Backend == "" {
		c.PubMed.Backend = "pubmed"
	}
	if c.PubMed.UserAgent == "" {
		c.PubMed.UserAgent = "medibrief/0.1"
	}
	if c.PDFProcessing.Converter == "" {
		c.PDFProcessing.Converter = "pdftotext"
	}
	if c.PDFProcessing.FigureExtraction.DPI == 0 {
		c.PDFProcessing.FigureExtraction.DPI = 300
	}
	if c.AIProcessing.Backend == "" {
		c.AIProcessing.Backend = "gemini"
	}
	if c.Video.Output.Format == "" {
		c.Video.Output.Format = "mp4"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks field values. It returns the first *ConfigError found.
func (c *Config) Validate() error {
	checks := []struct {
		ok      bool
		section string
		field   string
		msg     string
	}{
		{len(c.PubMed.Specialties) > 0, "pubmed", "specialties", "at least one topic is required"},
		{c.PubMed.Backend == "pubmed" || c.PubMed.Backend == "openalex", "pubmed", "backend", "must be pubmed or openalex"},
		{c.PubMed.TimePeriodDays > 0, "pubmed", "time_period_days", "must be positive"},
		{c.PubMed.MaxResultsPerQuery > 0, "pubmed", "max_results_per_query", "must be positive"},
		{c.PubMed.RateLimit >= 0, "pubmed", "rate_limit", "must not be negative"},
		{c.PDFProcessing.TempStoragePath != "", "pdf_processing", "temp_storage_path", "is required"},
		{c.PDFProcessing.Converter == "pdftotext" || c.PDFProcessing.Converter == "markitdown", "pdf_processing", "converter", "must be pdftotext or markitdown"},
		{len(c.PDFProcessing.FigureExtraction.CaptionKeywords) > 0, "pdf_processing", "figure_extraction.caption_keywords", "at least one keyword is required"},
		{c.AIProcessing.Backend == "gemini" || c.AIProcessing.Backend == "vertex", "ai_processing", "backend", "must be gemini or vertex"},
		{c.AIProcessing.VertexAI.ModelName != "", "ai_processing", "vertex_ai.model_name", "is required"},
		{c.AIProcessing.Summarization.Temperature >= 0 && c.AIProcessing.Summarization.Temperature <= 2, "ai_processing", "summarization.temperature", "must be within [0, 2]"},
		{c.AIProcessing.Summarization.TopP >= 0 && c.AIProcessing.Summarization.TopP <= 1, "ai_processing", "summarization.top_p", "must be within [0, 1]"},
		{c.AIProcessing.Summarization.MinLength <= c.AIProcessing.Summarization.MaxLength, "ai_processing", "summarization.min_length", "must not exceed max_length"},
		{c.AIProcessing.KeyTakeaways.Count > 0, "ai_processing", "key_takeaways.count", "must be positive"},
		{c.ImageAnalysis.FigureSelection.MaxFigures >= 0, "image_analysis", "figure_selection.max_figures", "must not be negative"},
		{c.ImageAnalysis.FigureSelection.MinQualityScore >= 0 && c.ImageAnalysis.FigureSelection.MinQualityScore <= 1, "image_analysis", "figure_selection.min_quality_score", "must be within [0, 1]"},
		{c.TTS.MaxChunkLength > 0, "tts", "max_chunk_length", "must be positive"},
		{c.TTS.Voice.LanguageCode != "", "tts", "voice.language_code", "is required"},
		{c.Video.Output.FPS > 0, "video_generation", "output.fps", "must be positive"},
		{c.Video.Timing.SlideDuration > 0, "video_generation", "timing.slide_duration", "must be positive"},
		{c.Video.Timing.TransitionDuration >= 0, "video_generation", "timing.transition_duration", "must not be negative"},
		{c.Storage.Buckets.Videos != "", "cloud_storage", "buckets.videos", "is required"},
		{c.Storage.RetentionDays >= 0, "cloud_storage", "retention_days", "must not be negative"},
		{c.YouTube.Video.PrivacyStatus == "" || validPrivacy[c.YouTube.Video.PrivacyStatus], "youtube", "video.privacy_status", "must be public, unlisted, or private"},
		{c.Pipeline.MaxConcurrentPapers > 0, "pipeline", "max_concurrent_papers", "must be positive"},
		{c.Pipeline.MaxRetries >= 0, "pipeline", "max_retries", "must not be negative"},
		{c.Pipeline.RetryDelaySeconds >= 0, "pipeline", "retry_delay_seconds", "must not be negative"},
		{validLevels[strings.ToLower(c.Logging.Level)], "logging", "level", "must be debug, info, warn, or error"},
	}
	for _, ch := range checks {
		if !ch.ok {
			return &ConfigError{Section: ch.section, Field: ch.field, Msg: ch.msg}
		}
	}
	return nil
}

var validPrivacy = map[string]bool{"public": true, "unlisted": true, "private": true}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}

// APIKey returns the key configured for service, falling back to the
// MEDIBRIEF_<SERVICE>_API_KEY environment variable.
func (c *Config) APIKey(service string) (string, error) {
	var v string
	switch service {
	case "gemini":
		v = c.APIKeys.Gemini
	case "pubmed":
		v = c.APIKeys.PubMed
	}
	if v != "" {
		return v, nil
	}
	env := "MEDIBRIEF_" + strings.ToUpper(service) + "_API_KEY"
	if v = os.Getenv(env); v != "" {
		return v, nil
	}
	return "", &ConfigError{Section: "api_keys", Field: service, Msg: "not set in config or " + env}
}

// Topics returns the configured topics in order with duplicates removed.
func (c *Config) Topics() []string {
	seen := make(map[string]bool, len(c.PubMed.Specialties))
	var out []string
	for _, t := range c.PubMed.Specialties {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// DefaultConfig returns a complete configuration with working defaults.
// medibrief init writes it as the starting config file.
func DefaultConfig() Config {
	return Config{
		APIKeys: APIKeysConfig{GCPProjectID: "your-gcp-project"},
		PubMed: DiscoveryConfig{
			Backend:            "pubmed",
			Specialties:        []string{"cardiology", "oncology", "neurology"},
			TimePeriodDays:     7,
			MaxResultsPerQuery: 10,
			RateLimit:          3,
			UserAgent:          "medibrief/0.1",
		},
		PDFProcessing: ExtractionConfig{
			TempStoragePath: "temp",
			Converter:       "pdftotext",
			OCR:             OCRConfig{Language: "eng", Config: "--psm 3"},
			FigureExtraction: FigureExtractionConfig{
				MinFigureSize:   100,
				CaptionKeywords: []string{"Figure", "Fig."},
				DPI:             300,
			},
		},
		AIProcessing: GenerationConfig{
			Backend:  "gemini",
			VertexAI: VertexAIConfig{ModelName: "gemini-2.5-flash", Location: "us-central1"},
			Summarization: SummarizationConfig{
				MaxLength:   250,
				MinLength:   100,
				Temperature: 0.2,
				TopP:        0.8,
			},
			KeyTakeaways: TakeawaysConfig{Count: 5, MaxLengthEach: 100},
			RateLimit:    1,
		},
		ImageAnalysis: ImageAnalysisConfig{
			VisionAI: VisionConfig{
				FeatureTypes: []string{"LABEL_DETECTION", "TEXT_DETECTION", "OBJECT_LOCALIZATION"},
				MaxResults:   10,
			},
			FigureSelection: FigureSelectionConfig{MaxFigures: 3, MinQualityScore: 0.5},
			RateLimit:       5,
		},
		TTS: SpeechConfig{
			Voice:          VoiceConfig{LanguageCode: "en-US", Name: "en-US-Neural2-D", SpeakingRate: 1.0, Pitch: 0},
			Audio:          AudioConfig{Encoding: "MP3", SampleRateHertz: 24000},
			MaxChunkLength: 4500,
			RateLimit:      5,
		},
		Video: VideoConfig{
			Output: VideoOutputConfig{Resolution: "1080p", FPS: 30, Format: "mp4"},
			Timing: TimingConfig{IntroDuration: 5, SlideDuration: 10, TransitionDuration: 1, OutroDuration: 5},
			Style: StyleConfig{
				BackgroundColor: "#FFFFFF",
				TextColor:       "#333333",
				HighlightColor:  "#0066CC",
				Font:            "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
				TitleFontSize:   60,
				BodyFontSize:    40,
			},
		},
		Storage: StorageConfig{
			Buckets: BucketsConfig{
				Videos: "medibrief-videos",
				PDFs:   "medibrief-pdfs",
				Images: "medibrief-images",
				Audio:  "medibrief-audio",
			},
			StorageClass:  "STANDARD",
			RetentionDays: 90,
			Location:      "US",
		},
		YouTube: PublishConfig{
			DescriptionTemplate: DefaultDescriptionTemplate,
			DryRun:              true,
			Video:               VideoMetaConfig{CategoryID: "27", PrivacyStatus: "unlisted", Tags: []string{"medicine", "research", "medibrief"}},
		},
		Pipeline: PipelineConfig{MaxConcurrentPapers: 2, MaxRetries: 3, RetryDelaySeconds: 5},
		Logging:  LoggingConfig{Level: "info", File: "logs/medibrief.log", Format: "text"},
		Credentials: CredentialsConfig{
			YouTubeClientSecrets: "credentials/client_secrets.json",
			YouTubeTokenFile:     "credentials/youtube_token.json",
		},
		OutputDir: "output",
	}
}

// DefaultDescriptionTemplate is the video description used by DefaultConfig.
const DefaultDescriptionTemplate = `{{.Title}}

Authors: {{.Authors}}
Journal: {{.Journal}}
Published: {{.PublicationDate}}
{{if .DOI}}DOI: https://doi.org/{{.DOI}}
{{end}}
Key takeaways:
{{.KeyTakeaways}}

This summary was generated automatically and is not medical advice.`
