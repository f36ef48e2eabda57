// Package config loads the settings that drive a formatting job. Values come
// from defaults, an optional YAML file, TRANSCRIPT_* environment variables and
// the secrets directory, in increasing order of precedence for the API key.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Epistemic-Technology/transcript-mcp/internal/secrets"
	"github.com/Epistemic-Technology/transcript-mcp/models"
)

const (
	envPrefix = "TRANSCRIPT"
	fileName  = "transcript"

	DefaultModel          = "gpt-4o"
	DefaultTemperature    = 0.4
	DefaultChunkTokens    = 4000
	DefaultRequestTimeout = 2 * time.Minute
	DefaultMaxRetries     = 1
	DefaultMaxConcurrency = 4

	MinLineHeight = 15.0
	MaxLineHeight = 18.0
)

// fontCandidates are well-known install locations of Japanese TrueType fonts,
// tried in order when layout.font_path is not set.
var fontCandidates = []string{
	"/usr/share/fonts/opentype/ipaexfont-gothic/ipaexg.ttf",
	"/usr/share/fonts/truetype/ipaexfont-gothic/ipaexg.ttf",
	"/usr/share/fonts/ipa-ex-gothic/ipaexg.ttf",
	"/usr/share/fonts/opentype/ipafont-gothic/ipag.ttf",
	"/usr/share/fonts/truetype/fonts-japanese-gothic.ttf",
	"/Library/Fonts/ipaexg.ttf",
	"C:\\Windows\\Fonts\\ipaexg.ttf",
}

// LayoutConfig holds renderer settings. Lengths are in points.
type LayoutConfig struct {
	// FontPath is a TrueType font covering Japanese, e.g. IPAexGothic.
	// PDF output requires it.
	FontPath     string  `mapstructure:"font_path"`
	BoldFontPath string  `mapstructure:"bold_font_path"`
	FontSize     float64 `mapstructure:"font_size"`
	LineHeight   float64 `mapstructure:"line_height"`
	Margin       float64 `mapstructure:"margin"`
	PageSize     string  `mapstructure:"page_size"`
	// TextPageLines inserts a form feed every N lines in plain text output.
	// Zero disables pagination.
	TextPageLines int `mapstructure:"text_page_lines"`
}

// Config is passed explicitly into the pipeline; nothing reads global state.
type Config struct {
	OpenAIAPIKey string  `mapstructure:"openai_api_key"`
	Model        string  `mapstructure:"model"`
	BaseURL      string  `mapstructure:"base_url"`
	Temperature  float64 `mapstructure:"temperature"`

	ChunkTokens int `mapstructure:"chunk_tokens"`
	// Encoding is the tiktoken encoding name. Empty derives it from Model.
	Encoding string `mapstructure:"encoding"`

	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBaseDelay  time.Duration `mapstructure:"retry_base_delay"`
	MaxConcurrency  int           `mapstructure:"max_concurrency"`
	TokensPerSecond int           `mapstructure:"tokens_per_second"`
	BurstTokens     int           `mapstructure:"burst_tokens"`

	// Zotero credentials, used only when a transcript is fetched by attachment key.
	ZoteroAPIKey    string `mapstructure:"zotero_api_key"`
	ZoteroLibraryID string `mapstructure:"zotero_library_id"`

	Format models.OutputFormat `mapstructure:"format"`
	Layout LayoutConfig        `mapstructure:"layout"`

	SecretsDir string `mapstructure:"secrets_dir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("openai_api_key", "")
	v.SetDefault("model", DefaultModel)
	v.SetDefault("base_url", "")
	v.SetDefault("temperature", DefaultTemperature)
	v.SetDefault("chunk_tokens", DefaultChunkTokens)
	v.SetDefault("encoding", "")
	v.SetDefault("request_timeout", DefaultRequestTimeout)
	v.SetDefault("max_retries", DefaultMaxRetries)
	v.SetDefault("retry_base_delay", time.Second)
	v.SetDefault("max_concurrency", DefaultMaxConcurrency)
	v.SetDefault("tokens_per_second", 30000)
	v.SetDefault("burst_tokens", 60000)
	v.SetDefault("zotero_api_key", "")
	v.SetDefault("zotero_library_id", "")
	v.SetDefault("format", string(models.FormatPDF))
	v.SetDefault("layout.font_path", "")
	v.SetDefault("layout.bold_font_path", "")
	v.SetDefault("layout.font_size", 10.5)
	v.SetDefault("layout.line_height", MinLineHeight)
	v.SetDefault("layout.margin", 50.0)
	v.SetDefault("layout.page_size", "A4")
	v.SetDefault("layout.text_page_lines", 0)
	v.SetDefault("secrets_dir", ".secrets")
}

// Default returns the built-in settings with no file, env or secrets applied.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return cfg
}

// Load reads configuration. When path is empty, transcript.yaml is looked up
// in the working directory and ~/.config/transcript-mcp; a missing file is
// not an error. Load does not validate; call Validate before use.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(fileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "transcript-mcp"))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("openai_api_key", envPrefix+"_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind api key env: %w", err)
	}
	if err := v.BindEnv("zotero_api_key", envPrefix+"_ZOTERO_API_KEY", "ZOTERO_API_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind zotero env: %w", err)
	}
	if err := v.BindEnv("zotero_library_id", envPrefix+"_ZOTERO_LIBRARY_ID", "ZOTERO_LIBRARY_ID"); err != nil {
		return Config{}, fmt.Errorf("bind zotero env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if cfg.OpenAIAPIKey == "" && cfg.SecretsDir != "" {
		s, err := secrets.Load(cfg.SecretsDir)
		if err != nil {
			return Config{}, err
		}
		cfg.OpenAIAPIKey = s[secrets.OpenAIAPIKey]
	}

	if cfg.Layout.FontPath == "" {
		cfg.Layout.FontPath = DiscoverFont(fontCandidates...)
	}

	return cfg, nil
}

// DiscoverFont returns the first candidate that is a readable regular file,
// or "" if none is.
func DiscoverFont(candidates ...string) string {
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return ""
}

// Validate reports the first setting that would make a job fail.
func (c Config) Validate() error {
	if strings.TrimSpace(c.OpenAIAPIKey) == "" {
		return errors.New("openai api key is not configured")
	}
	if c.Model == "" {
		return errors.New("model must not be empty")
	}
	if c.ChunkTokens <= 0 {
		return fmt.Errorf("chunk_tokens must be positive, got %d", c.ChunkTokens)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2], got %v", c.Temperature)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", c.RequestTimeout)
	}
	if err := ValidateFormat(c.Format); err != nil {
		return err
	}
	return c.Layout.ValidateFor(c.Format)
}

// ErrNoFont is returned for PDF output without an embeddable Japanese font.
var ErrNoFont = errors.New("layout.font_path must name a TrueType font covering Japanese (e.g. IPAexGothic ipaexg.ttf) for pdf output")

// ValidateFor checks the layout for the renderer of format f. Only PDF
// output embeds a font, so only PDF needs FontPath.
func (l LayoutConfig) ValidateFor(f models.OutputFormat) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if f == models.FormatPDF && strings.TrimSpace(l.FontPath) == "" {
		return ErrNoFont
	}
	return nil
}

// Validate checks page geometry.
func (l LayoutConfig) Validate() error {
	if l.LineHeight < MinLineHeight || l.LineHeight > MaxLineHeight {
		return fmt.Errorf("layout.line_height must be within [%v, %v], got %v", MinLineHeight, MaxLineHeight, l.LineHeight)
	}
	if l.Margin <= 0 {
		return fmt.Errorf("layout.margin must be positive, got %v", l.Margin)
	}
	if l.FontSize <= 0 {
		return fmt.Errorf("layout.font_size must be positive, got %v", l.FontSize)
	}
	if l.TextPageLines < 0 {
		return fmt.Errorf("layout.text_page_lines must not be negative, got %d", l.TextPageLines)
	}
	return nil
}

// ValidateFormat rejects unknown output formats.
func ValidateFormat(f models.OutputFormat) error {
	switch f {
	case models.FormatPDF, models.FormatDOCX, models.FormatText:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (expected pdf, docx or txt)", f)
	}
}
