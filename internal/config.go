package internal

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mdview/internal/settings"
	"github.com/starford/mdview/internal/watch"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app" toml:"app"`
	Storage   StorageConfig     `yaml:"storage" toml:"storage"`
	Display   DisplayConfig     `yaml:"display" toml:"display"`
	Retention RetentionConfig   `yaml:"retention" toml:"retention"`
	Watch     WatchConfig       `yaml:"watch" toml:"watch"`
	Auth      AuthConfig        `yaml:"auth" toml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Display.Validate(); err != nil {
		return err
	}
	if err := c.Retention.Validate(); err != nil {
		return err
	}
	if err := c.Watch.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
	HTTP     HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host string `yaml:"host" toml:"host"`
	Port int    `yaml:"port" toml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig holds the directory the settings files live in.
// A leading "~" is expanded to the home directory.
type StorageConfig struct {
	Dir string `yaml:"dir" toml:"dir"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// DisplayConfig is the size of the primary display, used to centre windows
// of documents without a stored position.
type DisplayConfig struct {
	Width  int `yaml:"width" toml:"width"`
	Height int `yaml:"height" toml:"height"`
}

// Validate validates the display configuration.
func (c *DisplayConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Width, validation.Required, validation.Min(1)),
		validation.Field(&c.Height, validation.Required, validation.Min(1)),
	)
}

// Display returns the display as seen by document settings.
func (c *DisplayConfig) Display() settings.StaticDisplay {
	return settings.StaticDisplay{Width: c.Width, Height: c.Height}
}

// RetentionConfig bounds the per-document settings file. Zero values keep
// every record.
type RetentionConfig struct {
	MaxDocuments int  `yaml:"max_documents" toml:"max_documents"`
	PruneMissing bool `yaml:"prune_missing" toml:"prune_missing"`
}

// Validate validates the retention configuration.
func (c *RetentionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxDocuments, validation.Min(0)),
	)
}

// Policy converts the section to a settings.RetentionPolicy.
func (c *RetentionConfig) Policy() settings.RetentionPolicy {
	return settings.RetentionPolicy{MaxDocuments: c.MaxDocuments, PruneMissing: c.PruneMissing}
}

// WatchConfig controls reloading the current document when it changes on disk.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled" toml:"enabled"`
	DebounceMS int  `yaml:"debounce_ms" toml:"debounce_ms"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DebounceMS, validation.Min(0), validation.Max(10000)),
	)
}

// Debounce returns the debounce interval, falling back to the watcher default.
func (c *WatchConfig) Debounce() time.Duration {
	if c.DebounceMS <= 0 {
		return watch.DefaultDebounce
	}
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" toml:"mode"`
	Token string `yaml:"token" toml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled".
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
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Host: "127.0.0.1",
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Dir: "~/.config/mdview",
		},
		Display: DisplayConfig{
			Width:  1920,
			Height: 1080,
		},
		Watch: WatchConfig{
			Enabled:    true,
			DebounceMS: int(watch.DefaultDebounce / time.Millisecond),
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
