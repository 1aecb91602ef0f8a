package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"auto-video-pipeline/types"
)

type Config struct {
	Channels  []types.Channel `yaml:"channels"`
	Daily     DailyConfig     `yaml:"daily_output"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Resources ResourcesConfig `yaml:"resources"`
	Quality   QualityConfig   `yaml:"quality"`
	Idea      IdeaConfig      `yaml:"idea"`
	Script    ScriptConfig    `yaml:"script"`
	Voiceover VoiceoverConfig `yaml:"voiceover"`
	Visuals   VisualsConfig   `yaml:"visuals"`
	Music     MusicConfig     `yaml:"music"`
	Assemble  AssembleConfig  `yaml:"assemble"`
	Upload    UploadConfig    `yaml:"upload"`
	API       APIConfig       `yaml:"api"`
	Paths     PathsConfig     `yaml:"paths"`
}

// DailyConfig is the per-channel daily output cadence.
type DailyConfig struct {
	Long   int `yaml:"long"`
	Shorts int `yaml:"shorts"`
}

type PipelineConfig struct {
	MaxConcurrentJobs int `yaml:"max_concurrent_jobs"`
	MaxStepRetries    int `yaml:"max_step_retries"`
	RetryBackoffSec   int `yaml:"retry_backoff_sec"`
}

type ResourcesConfig struct {
	RAMCeilingPercent float64 `yaml:"ram_ceiling_percent"`
	CPUCeilingPercent float64 `yaml:"cpu_ceiling_percent"`
	SampleIntervalSec int     `yaml:"sample_interval_sec"`
}

type QualityConfig struct {
	Threshold   float64 `yaml:"threshold"`    // 1-10 scale
	MaxAttempts int     `yaml:"max_attempts"` // bounded regeneration count
}

type IdeaConfig struct {
	Model           string   `yaml:"ollama_model"`
	Temperature     float64  `yaml:"temperature"`
	TrendSubreddits []string `yaml:"trend_subreddits"`
	TrendPostLimit  int      `yaml:"trend_post_limit"`
}

type ScriptConfig struct {
	Model          string  `yaml:"ollama_model"`
	Temperature    float64 `yaml:"temperature"`
	WordsPerMinute int     `yaml:"words_per_minute"`
	LongTargetMin  int     `yaml:"long_target_min"`  // minutes
	ShortTargetSec int     `yaml:"short_target_sec"` // seconds
}

type VoiceoverConfig struct {
	Command string `yaml:"command"` // external TTS command; empty → edge-tts
	Voice   string `yaml:"voice"`
	Format  string `yaml:"format"` // mp3 | wav
}

type VisualsConfig struct {
	DiffusionEndpoint string  `yaml:"diffusion_endpoint"` // Stable Diffusion webui base URL
	StockEndpoint     string  `yaml:"stock_endpoint"`     // stock photo source base URL
	CountLong         int     `yaml:"count_long"`
	CountShort        int     `yaml:"count_short"`
	Width             int     `yaml:"width"`
	Height            int     `yaml:"height"`
	FPS               int     `yaml:"fps"`
	KenBurnsZoom      float64 `yaml:"ken_burns_zoom"`
}

type MusicConfig struct {
	LibraryDir           string  `yaml:"library_dir"`
	TagsFile             string  `yaml:"tags_file"`
	VolumeUnderNarration float64 `yaml:"volume_under_narration"`
}

type AssembleConfig struct {
	Languages       []string `yaml:"subtitle_languages"` // first entry is the burn-in language
	SourceLanguage  string   `yaml:"source_language"`
	TranslateURL    string   `yaml:"translate_endpoint"`
	FadeSec         float64  `yaml:"fade_sec"`
	OverlayTitle    bool     `yaml:"overlay_title"`
	InsertFrames    bool     `yaml:"insert_frames"` // single-frame inserts between segments
	FontSize        int      `yaml:"font_size"`
	MarginBottom    int      `yaml:"margin_bottom"`
	MaxCharsPerLine int      `yaml:"max_chars_per_line"`
}

type UploadConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Visibility        string `yaml:"visibility"`
	CategoryID        string `yaml:"category_id"`
	DefaultLanguage   string `yaml:"default_language"`
	NotifySubscribers bool   `yaml:"notify_subscribers"`
	MadeForKids       bool   `yaml:"made_for_kids"`
}

type APIConfig struct {
	Listen string `yaml:"listen"` // empty disables the HTTP API
}

type PathsConfig struct {
	Assets    string `yaml:"assets"` // per-kind subdirectories created under this
	Output    string `yaml:"output"`
	Logs      string `yaml:"logs"`
	ArchiveDB string `yaml:"archive_db"`
}

// Load reads config.yaml, applies defaults and validates the result.
// The returned Config is treated as an immutable snapshot for the run.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Daily.Long == 0 && c.Daily.Shorts == 0 {
		c.Daily = DailyConfig{Long: 1, Shorts: 2}
	}
	if c.Pipeline.MaxConcurrentJobs <= 0 {
		c.Pipeline.MaxConcurrentJobs = 2
	}
	if c.Pipeline.MaxStepRetries <= 0 {
		c.Pipeline.MaxStepRetries = 2
	}
	if c.Pipeline.RetryBackoffSec <= 0 {
		c.Pipeline.RetryBackoffSec = 5
	}
	if c.Resources.RAMCeilingPercent <= 0 {
		c.Resources.RAMCeilingPercent = 80
	}
	if c.Resources.CPUCeilingPercent <= 0 {
		c.Resources.CPUCeilingPercent = 90
	}
	if c.Resources.SampleIntervalSec <= 0 {
		c.Resources.SampleIntervalSec = 10
	}
	if c.Quality.Threshold <= 0 {
		c.Quality.Threshold = 8.0
	}
	if c.Quality.MaxAttempts <= 0 {
		c.Quality.MaxAttempts = 3
	}
	if c.Idea.Model == "" {
		c.Idea.Model = "llama3"
	}
	if c.Idea.TrendPostLimit <= 0 {
		c.Idea.TrendPostLimit = 10
	}
	if c.Script.Model == "" {
		c.Script.Model = c.Idea.Model
	}
	if c.Script.WordsPerMinute <= 0 {
		c.Script.WordsPerMinute = 130
	}
	if c.Script.LongTargetMin <= 0 {
		c.Script.LongTargetMin = 10
	}
	if c.Script.ShortTargetSec <= 0 {
		c.Script.ShortTargetSec = 30
	}
	if c.Voiceover.Voice == "" {
		c.Voiceover.Voice = "en-US-GuyNeural"
	}
	if c.Voiceover.Format == "" {
		c.Voiceover.Format = "mp3"
	}
	if c.Visuals.CountLong <= 0 {
		c.Visuals.CountLong = 6
	}
	if c.Visuals.CountShort <= 0 {
		c.Visuals.CountShort = 3
	}
	if c.Visuals.Width <= 0 || c.Visuals.Height <= 0 {
		c.Visuals.Width, c.Visuals.Height = 1920, 1080
	}
	if c.Visuals.FPS <= 0 {
		c.Visuals.FPS = 30
	}
	if c.Visuals.KenBurnsZoom <= 1.0 {
		c.Visuals.KenBurnsZoom = 1.08
	}
	if c.Music.VolumeUnderNarration <= 0 {
		c.Music.VolumeUnderNarration = 0.15
	}
	if len(c.Assemble.Languages) == 0 {
		c.Assemble.Languages = []string{"en", "es", "fr", "de", "tr"}
	}
	if c.Assemble.SourceLanguage == "" {
		c.Assemble.SourceLanguage = "en"
	}
	if c.Assemble.FadeSec <= 0 {
		c.Assemble.FadeSec = 0.5
	}
	if c.Assemble.FontSize <= 0 {
		c.Assemble.FontSize = 24
	}
	if c.Assemble.MarginBottom <= 0 {
		c.Assemble.MarginBottom = 50
	}
	if c.Assemble.MaxCharsPerLine <= 0 {
		c.Assemble.MaxCharsPerLine = 42
	}
	if c.Upload.Visibility == "" {
		c.Upload.Visibility = "private"
	}
	if c.Upload.CategoryID == "" {
		c.Upload.CategoryID = "27" // Education
	}
	if c.Upload.DefaultLanguage == "" {
		c.Upload.DefaultLanguage = "en"
	}
	if c.Paths.Assets == "" {
		c.Paths.Assets = "assets"
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "output"
	}
	if c.Paths.Logs == "" {
		c.Paths.Logs = "logs"
	}
	if c.Paths.ArchiveDB == "" {
		c.Paths.ArchiveDB = "output/archive.db"
	}
}

func (c *Config) validate() error {
	if len(c.Channels) == 0 {
		return fmt.Errorf("config: at least one channel is required")
	}
	for i, ch := range c.Channels {
		if ch.Name == "" || ch.Topic == "" {
			return fmt.Errorf("config: channel %d needs both name and topic", i)
		}
	}
	if c.Resources.RAMCeilingPercent > 100 || c.Resources.CPUCeilingPercent > 100 {
		return fmt.Errorf("config: resource ceilings are percentages, got ram=%.1f cpu=%.1f",
			c.Resources.RAMCeilingPercent, c.Resources.CPUCeilingPercent)
	}
	if c.Quality.Threshold > 10 {
		return fmt.Errorf("config: quality threshold is on a 1-10 scale, got %.1f", c.Quality.Threshold)
	}
	return nil
}
