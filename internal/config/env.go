package config

import (
	"fmt"

	"github.com/caarlos0/env"
)

// envOverrides lists the settings that can be overridden from the
// environment. Unset variables leave the file value alone.
type envOverrides struct {
	Listen        string `env:"STUDYCAL_LISTEN"`
	LogLevel      string `env:"STUDYCAL_LOG_LEVEL"`
	CatalogURL    string `env:"STUDYCAL_CATALOG_URL"`
	WebhookURL    string `env:"STUDYCAL_WEBHOOK_URL"`
	SNSTopicARN   string `env:"STUDYCAL_SNS_TOPIC_ARN"`
	AWSRegion     string `env:"STUDYCAL_AWS_REGION"`
	DefaultAnchor string `env:"STUDYCAL_DEFAULT_ANCHOR"`
	CacheDir      string `env:"STUDYCAL_CACHE_DIR"`
}

// ApplyEnv overlays STUDYCAL_* environment variables onto c.
func ApplyEnv(c *Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("config: parse environment: %w", err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Listen, o.Listen)
	set(&c.LogLevel, o.LogLevel)
	set(&c.Catalog.URL, o.CatalogURL)
	set(&c.Notify.WebhookURL, o.WebhookURL)
	set(&c.Notify.SNSTopicARN, o.SNSTopicARN)
	set(&c.Notify.AWSRegion, o.AWSRegion)
	set(&c.DefaultAnchor, o.DefaultAnchor)
	set(&c.CacheDir, o.CacheDir)
	return nil
}
