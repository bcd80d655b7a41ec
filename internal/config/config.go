package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"studycal/internal/schedule"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions. Environment overrides live in env.go, validation in
// validate.go.

// SubjectConfig is one subject of a statically configured course.
type SubjectConfig struct {
	Name         string `yaml:"name" json:"name" validate:"required"`
	DurationDays int    `yaml:"duration_days" json:"duration_days" validate:"min=1"`
	Color        string `yaml:"color" json:"color"`
}

// CourseConfig describes a course. Subjects come from the inline list, or
// from the ICS feed at ICSURL when it is set.
type CourseConfig struct {
	ID          string          `yaml:"id" json:"id" validate:"required"`
	Name        string          `yaml:"name" json:"name"`
	Description string          `yaml:"description,omitempty" json:"description,omitempty"`
	ICSURL      string          `yaml:"ics_url,omitempty" json:"ics_url,omitempty" validate:"omitempty,url"`
	Subjects    []SubjectConfig `yaml:"subjects" json:"subjects" validate:"dive"`
}

// CatalogConfig points at a remote course catalog (webhook-style JSON API).
type CatalogConfig struct {
	URL            string `yaml:"url" json:"url" validate:"omitempty,url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// NotifyConfig configures the side effects fired after a successful pin.
type NotifyConfig struct {
	WebhookURL  string `yaml:"webhook_url" json:"webhook_url" validate:"omitempty,url"`
	SNSTopicARN string `yaml:"sns_topic_arn" json:"sns_topic_arn"`
	AWSRegion   string `yaml:"aws_region" json:"aws_region"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// RateLimitConfig limits /api/* requests per client IP.
type RateLimitConfig struct {
	Requests      int `yaml:"requests" json:"requests"`
	WindowSeconds int `yaml:"window_seconds" json:"window_seconds"`
}

// CaptureConfig controls the headless PNG snapshot of the month page.
type CaptureConfig struct {
	Width          int    `yaml:"width" json:"width"`
	Height         int    `yaml:"height" json:"height"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	Output         string `yaml:"output" json:"output"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen" validate:"required"`

	LogLevel  string `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" json:"log_format" validate:"oneof=text json"`

	// Timezone is the IANA zone used only to decide which calendar day
	// "today" is. Schedules themselves are timezone-naive.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart controls which weekday is shown in the first grid column.
	// Supported values:
	//   - "sunday" (default)
	//   - "monday"
	WeekStart string `yaml:"week_start" json:"week_start" validate:"oneof=sunday monday"`

	// RefreshCron is a cron-style schedule string (e.g. "0 */6 * * *") used
	// to reload the course catalog.
	RefreshCron string `yaml:"refresh" json:"refresh" validate:"required"`

	// DefaultAnchor (YYYY-MM-DD) is the anchor every course starts with.
	// Empty means today.
	DefaultAnchor string `yaml:"default_anchor" json:"default_anchor" validate:"omitempty,day"`

	// CacheDir holds the HTTP cache of remote catalog and ICS bodies.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	Catalog CatalogConfig `yaml:"catalog" json:"catalog"`

	// Courses is the list of statically configured courses.
	Courses []CourseConfig `yaml:"courses" json:"courses" validate:"unique=ID,dive"`

	Notify NotifyConfig `yaml:"notify" json:"notify"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// CORSOrigins lists origins allowed to call /api/* from a browser. Empty
	// disables CORS headers.
	CORSOrigins []string `yaml:"cors_origins,omitempty" json:"cors_origins,omitempty"`

	Capture CaptureConfig `yaml:"capture" json:"capture"`
}

const (
	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "UTC"
	defaultRefreshCron = "0 */6 * * *"
	defaultCacheDir    = "/var/lib/studycal/cache"
)

// DefaultConfig returns an in-memory default configuration with the sample
// courses shipped with the application.
func DefaultConfig() *Config {
	return &Config{
		Listen:        defaultListen,
		LogLevel:      "info",
		LogFormat:     "text",
		Timezone:      defaultTimezone,
		WeekStart:     "sunday",
		RefreshCron:   defaultRefreshCron,
		DefaultAnchor: "",
		CacheDir:      defaultCacheDir,
		Catalog: CatalogConfig{
			TimeoutSeconds: 15,
		},
		Courses: []CourseConfig{
			{
				ID:   "prog-2024",
				Name: "Curso de Programación 2024",
				Subjects: []SubjectConfig{
					{Name: "Python Básico", DurationDays: 14, Color: "#22c55e"},
					{Name: "JavaScript Fundamentals", DurationDays: 14, Color: "#f59e0b"},
					{Name: "React Development", DurationDays: 21, Color: "#3b82f6"},
					{Name: "Node.js Backend", DurationDays: 14, Color: "#8b5cf6"},
					{Name: "Proyecto Final", DurationDays: 14, Color: "#ef4444"},
				},
			},
			{
				ID:   "design-2024",
				Name: "Diseño Web 2024",
				Subjects: []SubjectConfig{
					{Name: "Principios de Diseño", DurationDays: 10, Color: "#ec4899"},
					{Name: "Adobe Photoshop", DurationDays: 12, Color: "#06b6d4"},
					{Name: "Figma Avanzado", DurationDays: 8, Color: "#84cc16"},
					{Name: "UX/UI Design", DurationDays: 15, Color: "#f97316"},
				},
			},
			{
				ID:   "data-2024",
				Name: "Ciencia de Datos 2024",
				Subjects: []SubjectConfig{
					{Name: "Estadística", DurationDays: 18, Color: "#6366f1"},
					{Name: "Python para Datos", DurationDays: 16, Color: "#22c55e"},
					{Name: "Machine Learning", DurationDays: 20, Color: "#dc2626"},
					{Name: "Visualización de Datos", DurationDays: 12, Color: "#7c3aed"},
				},
			},
		},
		RateLimit: RateLimitConfig{
			Requests:      120,
			WindowSeconds: 60,
		},
		Capture: CaptureConfig{
			Width:          1200,
			Height:         900,
			TimeoutSeconds: 30,
			Output:         "/var/lib/studycal/preview.png",
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	switch c.WeekStart {
	case "sunday", "monday":
		// ok
	default:
		// Unknown value; fall back to sunday to avoid surprising layouts.
		c.WeekStart = "sunday"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.Catalog.TimeoutSeconds <= 0 {
		c.Catalog.TimeoutSeconds = 15
	}
	if c.Courses == nil {
		c.Courses = []CourseConfig{}
	}
	if c.RateLimit.Requests <= 0 {
		c.RateLimit.Requests = 120
	}
	if c.RateLimit.WindowSeconds <= 0 {
		c.RateLimit.WindowSeconds = 60
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = 1200
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = 900
	}
	if c.Capture.TimeoutSeconds <= 0 {
		c.Capture.TimeoutSeconds = 30
	}
	if c.Capture.Output == "" {
		c.Capture.Output = "/var/lib/studycal/preview.png"
	}
}

// ScheduleSubjects converts the configured subjects to schedule subjects, in order.
func (cc CourseConfig) ScheduleSubjects() []schedule.Subject {
	out := make([]schedule.Subject, 0, len(cc.Subjects))
	for i, s := range cc.Subjects {
		out = append(out, schedule.Subject{
			Name:         s.Name,
			DurationDays: s.DurationDays,
			Color:        s.Color,
			OrderIndex:   i,
		})
	}
	return out
}

// Anchor returns the parsed DefaultAnchor; ok is false when it is unset.
func (c *Config) Anchor() (schedule.Day, bool, error) {
	if c.DefaultAnchor == "" {
		return schedule.Day{}, false, nil
	}
	d, err := schedule.ParseDay(c.DefaultAnchor)
	if err != nil {
		return schedule.Day{}, false, err
	}
	return d, true, nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
//
// Environment overrides and validation are applied by the caller through
// ApplyEnv and Validate.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".studycal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
