package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Scoring struct {
		QuestionsPerSession int     `yaml:"questions_per_session"`
		AnsweredWeight      float64 `yaml:"answered_weight"`
		CorrectWeight       float64 `yaml:"correct_weight"`
		ModeratedLowest     float64 `yaml:"moderated_lowest"`
		ModeratedHighest    float64 `yaml:"moderated_highest"`
		SubmissionBuffer    string  `yaml:"submission_buffer"`
		SessionDuration     string  `yaml:"session_duration"`
	} `yaml:"scoring"`
	Pairing struct {
		Categories         []string `yaml:"categories"`
		Interval           string   `yaml:"interval"`
		ReadinessLookahead string   `yaml:"readiness_lookahead"`
		RepairWindow       string   `yaml:"repair_window"`
		LockTTL            string   `yaml:"lock_ttl"`
		Stake              string   `yaml:"stake"`
		PartialRefundRatio float64  `yaml:"partial_refund_ratio"`
		RefundRatio        float64  `yaml:"refund_ratio"`
		WinRatio           float64  `yaml:"win_ratio"`
	} `yaml:"pairing"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Float returns value unless it is zero, in which case fallback applies.
func Float(value, fallback float64) float64 {
	if value == 0 {
		return fallback
	}
	return value
}

// Int returns value unless it is zero, in which case fallback applies.
func Int(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}
