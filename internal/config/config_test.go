package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studycal/internal/schedule"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultListen, cfg.Listen)
	assert.Len(t, cfg.Courses, 3)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Courses, again.Courses)
	assert.NoError(t, again.Validate())
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
week_start: tuesday
courses:
  - id: c1
    name: Course One
    subjects:
      - name: A
        duration_days: 3
        color: "#fff"
      - name: B
        duration_days: 2
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sunday", cfg.WeekStart)
	assert.Equal(t, defaultRefreshCron, cfg.RefreshCron)
	assert.Equal(t, 120, cfg.RateLimit.Requests)
	require.NoError(t, cfg.Validate())

	subs := cfg.Courses[0].ScheduleSubjects()
	assert.Equal(t, []schedule.Subject{
		{Name: "A", DurationDays: 3, Color: "#fff", OrderIndex: 0},
		{Name: "B", DurationDays: 2, OrderIndex: 1},
	}, subs)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{
			name:    "zero duration",
			mutate:  func(c *Config) { c.Courses[0].Subjects[1].DurationDays = 0 },
			wantErr: "DurationDays",
		},
		{
			name:    "duplicate course id",
			mutate:  func(c *Config) { c.Courses[1].ID = c.Courses[0].ID },
			wantErr: "Courses",
		},
		{
			name:    "missing course id",
			mutate:  func(c *Config) { c.Courses[2].ID = "" },
			wantErr: "ID",
		},
		{
			name:    "bad anchor",
			mutate:  func(c *Config) { c.DefaultAnchor = "2024-02-30" },
			wantErr: "DefaultAnchor",
		},
		{
			name:    "bad webhook url",
			mutate:  func(c *Config) { c.Notify.WebhookURL = "not a url" },
			wantErr: "WebhookURL",
		},
		{
			name:   "good anchor",
			mutate: func(c *Config) { c.DefaultAnchor = "2024-02-29" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("STUDYCAL_LISTEN", "0.0.0.0:9999")
	t.Setenv("STUDYCAL_CATALOG_URL", "https://catalog.example.com/webhook")
	t.Setenv("STUDYCAL_DEFAULT_ANCHOR", "2024-01-01")

	c := DefaultConfig()
	c.Notify.WebhookURL = "https://hooks.example.com/keep"
	require.NoError(t, ApplyEnv(c))

	assert.Equal(t, "0.0.0.0:9999", c.Listen)
	assert.Equal(t, "https://catalog.example.com/webhook", c.Catalog.URL)
	assert.Equal(t, "https://hooks.example.com/keep", c.Notify.WebhookURL)

	d, ok, err := c.Anchor()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2024-01-01", d.String())
}

func TestAnchorUnset(t *testing.T) {
	_, ok, err := DefaultConfig().Anchor()
	assert.NoError(t, err)
	assert.False(t, ok)
}
