// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers defaults, an optional YAML file and CFCOACH_* env vars.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"time"

	"github.com/okian/cfcoach/internal/domain/difficulty"
	"github.com/okian/cfcoach/internal/domain/rating"
	"github.com/okian/cfcoach/internal/domain/recommend"
	"github.com/okian/cfcoach/internal/domain/report"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// Handle is the Codeforces user being coached.
	Handle string `koanf:"handle" validate:"required"`

	// DailyAt is the local HH:MM time of the daily run.
	DailyAt string `koanf:"daily_at" validate:"required,datetime=15:04"`

	// TestInterval replaces the daily schedule in test mode.
	TestInterval time.Duration `koanf:"test_interval" validate:"gt=0"`

	// Timezone is the IANA zone DailyAt is interpreted in. Empty means local.
	Timezone string `koanf:"timezone" validate:"omitempty,timezone"`

	// DataDir holds the progress CSV and plot.
	DataDir string `koanf:"data_dir" validate:"required"`

	// DefaultRating is used when the handle has no rating yet.
	DefaultRating int `koanf:"default_rating" validate:"gte=0"`

	// Window is the half-width of the optimal difficulty band.
	Window int `koanf:"window" validate:"gte=0"`

	// MaxRecommendations caps recommendations per run.
	MaxRecommendations int `koanf:"max_recommendations" validate:"gte=1,lte=50"`

	// WeakTopicCount is how many weakest topics drive recommendations.
	WeakTopicCount int `koanf:"weak_topic_count" validate:"gte=1,lte=10"`

	// SubmissionCount limits fetched submissions; 0 fetches the full history.
	SubmissionCount int `koanf:"submission_count" validate:"gte=0"`

	// CodeforcesBaseURL is the API root.
	CodeforcesBaseURL string `koanf:"codeforces_base_url" validate:"required,url"`

	// CodeforcesRPS throttles API calls.
	CodeforcesRPS float64 `koanf:"codeforces_rps" validate:"gt=0"`

	// HTTPTimeout bounds a single upstream request.
	HTTPTimeout time.Duration `koanf:"http_timeout" validate:"gt=0"`

	// SlackWebhookURL enables Slack delivery when set.
	SlackWebhookURL string `koanf:"slack_webhook_url" validate:"omitempty,url"`

	// SlackChannel optionally overrides the webhook's default channel.
	SlackChannel string `koanf:"slack_channel"`

	// SlackBotToken and SlackChannelID enable uploading the plot image to
	// Slack; the webhook only carries text.
	SlackBotToken  string `koanf:"slack_bot_token"`
	SlackChannelID string `koanf:"slack_channel_id" validate:"required_with=SlackBotToken"`

	// TelegramToken and TelegramChatID enable Telegram delivery when both are set.
	TelegramToken  string `koanf:"telegram_token"`
	TelegramChatID int64  `koanf:"telegram_chat_id" validate:"required_with=TelegramToken"`

	// PublicURL is where this service is reachable; notifications link
	// artifacts under it when set.
	PublicURL string `koanf:"public_url" validate:"omitempty,url"`

	// Persist keeps runs on disk (progress CSV, history DB, plot). When false
	// runs are kept in memory for the lifetime of the process.
	Persist bool `koanf:"persist"`

	// HistoryDB is the SQLite run history path; empty disables it.
	HistoryDB string `koanf:"history_db"`

	// Dashboard prints the console tables after each run.
	Dashboard bool `koanf:"dashboard"`

	// Plot renders the accuracy trend PNG after each run.
	Plot bool `koanf:"plot"`
}

// New creates a Config holding the defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		Handle:             "tourist",
		DailyAt:            "08:00",
		TestInterval:       5 * time.Minute,
		DataDir:            "data",
		DefaultRating:      rating.DefaultRating,
		Window:             int(difficulty.DefaultWindow),
		MaxRecommendations: recommend.DefaultLimit,
		WeakTopicCount:     report.DefaultWeakTopicCount,
		SubmissionCount:    0,
		CodeforcesBaseURL:  "https://codeforces.com/api",
		CodeforcesRPS:      0.5,
		HTTPTimeout:        30 * time.Second,
		Persist:            true,
		HistoryDB:          "data/history.db",
		Dashboard:          true,
		Plot:               true,
	}
}

// SlackEnabled reports whether Slack delivery is configured.
func (c *Config) SlackEnabled() bool { return c.SlackWebhookURL != "" }

// SlackUploadEnabled reports whether the plot is uploaded to Slack.
func (c *Config) SlackUploadEnabled() bool {
	return c.SlackEnabled() && c.SlackBotToken != "" && c.SlackChannelID != ""
}

// TelegramEnabled reports whether Telegram delivery is configured.
func (c *Config) TelegramEnabled() bool { return c.TelegramToken != "" && c.TelegramChatID != 0 }

// Location resolves Timezone, falling back to the local zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
