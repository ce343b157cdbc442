package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vaultsite/internal/index"
	"github.com/starford/vaultsite/internal/markdown"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Vault    VaultConfig       `yaml:"vault"`
	Site     SiteConfig        `yaml:"site"`
	Markdown MarkdownConfig    `yaml:"markdown"`
	Serve    ServeConfig       `yaml:"serve"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Vault.Validate(); err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	if err := c.Site.Validate(); err != nil {
		return fmt.Errorf("site: %w", err)
	}
	if err := c.Markdown.Validate(); err != nil {
		return fmt.Errorf("markdown: %w", err)
	}
	return c.Serve.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatJSON, LogFormatText)),
	)
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SiteConfig controls the generated output.
type SiteConfig struct {
	Output string `yaml:"output"`
	Title  string `yaml:"title"`
	// Templates is an optional directory overriding the embedded templates.
	Templates string `yaml:"templates"`
	TagPages  bool   `yaml:"tag_pages"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Output, validation.Required),
	)
}

// MarkdownConfig tunes the Markdown renderer.
type MarkdownConfig struct {
	// HighlightStyle is a chroma style name; empty disables highlighting.
	HighlightStyle string `yaml:"highlight_style"`
	HardWraps      bool   `yaml:"hard_wraps"`
}

// Validate validates the markdown configuration.
func (c *MarkdownConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.HighlightStyle, validation.By(func(v any) error {
			name, _ := v.(string)
			if name != "" && !markdown.KnownStyle(name) {
				return fmt.Errorf("unknown highlight style %q", name)
			}
			return nil
		})),
	)
}

// ServeConfig holds the preview server configuration.
type ServeConfig struct {
	HTTP     HTTPConfig    `yaml:"http"`
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce"`
	Auth     AuthConfig    `yaml:"auth"`
}

// Validate validates the serve configuration.
func (c *ServeConfig) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("serve.http: %w", err)
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return c.Auth.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds the search index location. With an empty path the
// build command skips indexing and the long-running commands keep the
// index in memory.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Enabled reports whether builds should be indexed.
func (c *SQLiteConfig) Enabled() bool {
	return c.Path != ""
}

// DSN returns the database to open, falling back to an in-memory one.
func (c *SQLiteConfig) DSN() string {
	if c.Path == "" {
		return index.MemoryDSN
	}
	return c.Path
}

// AuthConfig holds authentication configuration for the preview API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local preview.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatText,
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		Site: SiteConfig{
			Output:   "./public",
			Title:    "Notes",
			TagPages: true,
		},
		Markdown: MarkdownConfig{
			HighlightStyle: "github",
		},
		Serve: ServeConfig{
			HTTP:     HTTPConfig{Port: 8080},
			Watch:    true,
			Debounce: 200 * time.Millisecond,
			Auth:     AuthConfig{Mode: AuthModeDisabled},
		},
		SQLite: SQLiteConfig{
			Path: "",
		},
	}
}
