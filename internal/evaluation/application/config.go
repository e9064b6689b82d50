package application

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines evaluation configuration.
type Config struct {
	Interval      time.Duration
	MaxReadingAge time.Duration
	Farms         []string
	WebhookURL    string
}

type rawConfig struct {
	Interval      string   `yaml:"interval"`
	MaxReadingAge string   `yaml:"max_reading_age"`
	Farms         []string `yaml:"farms"`
	WebhookURL    string   `yaml:"webhook_url"`
}

// LoadConfig loads config from yaml or env. EVALUATION_CONFIG points to
// a yaml file; env vars fill any field the file leaves empty.
func LoadConfig() (Config, error) {
	raw := rawConfig{}
	if path := os.Getenv("EVALUATION_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, err
		}
	}
	if raw.Interval == "" {
		raw.Interval = getenvDefault("EVALUATION_INTERVAL", "5m")
	}
	if raw.MaxReadingAge == "" {
		raw.MaxReadingAge = os.Getenv("EVALUATION_MAX_READING_AGE")
	}
	if len(raw.Farms) == 0 {
		raw.Farms = splitCSV(os.Getenv("EVALUATION_FARMS"))
	}
	if raw.WebhookURL == "" {
		raw.WebhookURL = os.Getenv("ALERT_WEBHOOK_URL")
	}

	cfg := Config{
		Farms:      raw.Farms,
		WebhookURL: raw.WebhookURL,
	}
	interval, err := time.ParseDuration(raw.Interval)
	if err != nil {
		return Config{}, fmt.Errorf("evaluation config: bad interval %q: %w", raw.Interval, err)
	}
	cfg.Interval = interval
	if raw.MaxReadingAge != "" {
		age, err := time.ParseDuration(raw.MaxReadingAge)
		if err != nil {
			return Config{}, fmt.Errorf("evaluation config: bad max_reading_age %q: %w", raw.MaxReadingAge, err)
		}
		cfg.MaxReadingAge = age
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
