package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/okian/cfcoach/internal/adapters/codeforces"
	"github.com/okian/cfcoach/internal/adapters/console"
	"github.com/okian/cfcoach/internal/adapters/http/api"
	"github.com/okian/cfcoach/internal/adapters/http/site"
	"github.com/okian/cfcoach/internal/adapters/http/swagger"
	"github.com/okian/cfcoach/internal/adapters/notify"
	"github.com/okian/cfcoach/internal/adapters/plot"
	"github.com/okian/cfcoach/internal/adapters/repository"
	"github.com/okian/cfcoach/internal/adapters/scheduler"
	app "github.com/okian/cfcoach/internal/app"
	"github.com/okian/cfcoach/internal/config"
	"github.com/okian/cfcoach/internal/domain/difficulty"
	"github.com/okian/cfcoach/internal/domain/recommend"
	"github.com/okian/cfcoach/pkg/logger"
)

// scheduleSpec returns the cron spec: every test_interval in test mode,
// otherwise daily at daily_at.
func scheduleSpec(cfg *config.Config, test bool) (string, error) {
	if test {
		return scheduler.IntervalSpec(cfg.TestInterval)
	}
	return scheduler.DailySpec(cfg.DailyAt)
}

// buildService assembles the service from cfg. An empty spec disables scheduling.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger, spec string) (*app.Service, error) {
	if cfg.Persist {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	client := codeforces.New(
		codeforces.WithBaseURL(cfg.CodeforcesBaseURL),
		codeforces.WithTimeout(cfg.HTTPTimeout),
		codeforces.WithRateLimit(cfg.CodeforcesRPS),
		codeforces.WithDefaultRating(cfg.DefaultRating),
		codeforces.WithLogger(log.Named("codeforces")),
	)
	store, err := buildStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	window := difficulty.Window(cfg.Window)
	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithHandle(cfg.Handle),
		app.WithClient(client),
		app.WithStore(store),
		app.WithNotifier(buildNotifier(ctx, cfg, log)),
		app.WithSelector(recommend.NewSelector(
			recommend.WithLimit(cfg.MaxRecommendations),
			recommend.WithWindow(window),
		)),
		app.WithSubmissionCount(cfg.SubmissionCount),
		app.WithWeakTopicCount(cfg.WeakTopicCount),
	}
	if cfg.Plot && cfg.Persist {
		opts = append(opts, app.WithPlotter(plot.New(), cfg.DataDir))
	}
	if cfg.Dashboard {
		opts = append(opts, app.WithDashboard(console.New(console.WithWindow(window))))
	}
	if spec != "" {
		sched := scheduler.New(
			scheduler.WithLocation(cfg.Location()),
			scheduler.WithLogger(log.Named("scheduler")),
		)
		opts = append(opts, app.WithSchedule(sched, spec))
	}
	return app.New(opts...), nil
}

// buildStore keeps the CSV progress log; the SQLite history is added in front
// of it when configured so reads keep the rating column. Without persistence
// runs live in memory only.
func buildStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	if !cfg.Persist {
		log.Info(ctx, "persistence disabled; runs are kept in memory")
		return repository.NewMemoryStore(), nil
	}
	csv, err := repository.NewCSVStore(cfg.DataDir, repository.WithCSVLogger(log.Named("csv")))
	if err != nil {
		return nil, fmt.Errorf("open progress log: %w", err)
	}
	if cfg.HistoryDB == "" {
		return csv, nil
	}
	db, err := repository.NewSQLiteStore(ctx, cfg.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	return repository.NewMulti(db, csv), nil
}

// buildNotifier combines every configured channel. A channel that cannot be
// set up is logged and skipped.
func buildNotifier(ctx context.Context, cfg *config.Config, log logger.Logger) notify.Notifier {
	var notifiers []notify.Notifier

	if cfg.SlackEnabled() {
		slackOpts := []notify.SlackOption{
			notify.WithSlackChannel(cfg.SlackChannel),
			notify.WithSlackLogger(log.Named("slack")),
		}
		if cfg.PublicURL != "" {
			slackOpts = append(slackOpts, notify.WithArtifactsURL(strings.TrimRight(cfg.PublicURL, "/")+strings.TrimSuffix(site.ArtifactsPrefix, "/")))
		}
		if cfg.SlackUploadEnabled() {
			up, err := notify.NewSlackUploader(cfg.SlackBotToken, &http.Client{Timeout: cfg.HTTPTimeout})
			if err != nil {
				log.Warn(ctx, "slack plot upload disabled", logger.Error(err))
			} else {
				slackOpts = append(slackOpts, notify.WithSlackUploader(up, cfg.SlackChannelID))
			}
		}
		slack, err := notify.NewSlack(cfg.SlackWebhookURL, slackOpts...)
		if err != nil {
			log.Warn(ctx, "slack disabled", logger.Error(err))
		} else {
			notifiers = append(notifiers, slack)
		}
	}

	if cfg.TelegramEnabled() {
		bot, err := notify.NewTelegramBot(cfg.TelegramToken)
		if err == nil {
			var tg *notify.Telegram
			tg, err = notify.NewTelegram(bot, cfg.TelegramChatID, notify.WithTelegramLogger(log.Named("telegram")))
			if err == nil {
				notifiers = append(notifiers, tg)
			}
		}
		if err != nil {
			log.Warn(ctx, "telegram disabled", logger.Error(err))
		}
	}

	if len(notifiers) == 0 {
		log.Info(ctx, "no notification channel configured; reports stay local")
		return notify.Nop{}
	}
	return notify.NewMulti(notifiers...)
}

// newMux registers the API, docs and artifact routes.
func newMux(ctx context.Context, svc *app.Service, dataDir string) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	site.Register(ctx, mux, dataDir)
	return mux
}
