package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"github.com/okian/cfcoach/internal/domain/report"
	"github.com/okian/cfcoach/pkg/logger"
	"github.com/okian/cfcoach/pkg/metrics"
)

const (
	channelSlack        = "slack"
	defaultSlackTimeout = 10 * time.Second
)

// SlackOption applies a configuration option to the Slack notifier.
type SlackOption func(*Slack)

// WithSlackChannel overrides the webhook's default channel.
func WithSlackChannel(ch string) SlackOption {
	return func(s *Slack) { s.channel = ch }
}

// WithSlackHTTPClient replaces the transport client.
func WithSlackHTTPClient(hc *http.Client) SlackOption {
	return func(s *Slack) {
		if hc != nil {
			s.http = hc
		}
	}
}

// WithArtifactsURL sets the public URL the data dir is served under, so the
// message can link the plot.
func WithArtifactsURL(u string) SlackOption {
	return func(s *Slack) { s.artifactsURL = strings.TrimRight(u, "/") }
}

// FileUploader shares a file into a channel. *slack.Client satisfies it.
type FileUploader interface {
	UploadFileV2Context(ctx context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error)
}

// NewSlackUploader returns a Web API client authenticated with a bot token.
// The bot needs the files:write scope and must be a member of the channel.
func NewSlackUploader(botToken string, hc *http.Client) (*slack.Client, error) {
	if botToken == "" {
		return nil, fmt.Errorf("%w: empty slack bot token", ErrInvalidSetup)
	}
	if hc == nil {
		hc = &http.Client{Timeout: defaultSlackTimeout}
	}
	return slack.New(botToken, slack.OptionHTTPClient(hc)), nil
}

// WithSlackUploader uploads the plot image into channelID after each message.
func WithSlackUploader(up FileUploader, channelID string) SlackOption {
	return func(s *Slack) {
		if up != nil && channelID != "" {
			s.uploader, s.channelID = up, channelID
		}
	}
}

// WithSlackLogger sets the logger.
func WithSlackLogger(l logger.Logger) SlackOption {
	return func(s *Slack) {
		if l != nil {
			s.logger = l
		}
	}
}

// Slack posts reports to an incoming webhook using mrkdwn and optionally
// uploads the plot with a bot token.
type Slack struct {
	webhookURL   string
	channel      string
	artifactsURL string
	uploader     FileUploader
	channelID    string
	http         *http.Client
	logger       logger.Logger
}

// NewSlack creates a Slack notifier for webhookURL.
func NewSlack(webhookURL string, opts ...SlackOption) (*Slack, error) {
	if webhookURL == "" {
		return nil, fmt.Errorf("%w: empty slack webhook url", ErrInvalidSetup)
	}
	s := &Slack{
		webhookURL: webhookURL,
		http:       &http.Client{Timeout: defaultSlackTimeout},
		logger:     logger.Get().Named("slack"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Notify implements Notifier.
func (s *Slack) Notify(ctx context.Context, rep report.Report, plotPath string) error {
	msg := &slack.WebhookMessage{Text: s.Format(rep, plotPath), Channel: s.channel}
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.http, msg); err != nil {
		return s.fail(ctx, fmt.Errorf("%w: slack: %w", ErrDelivery, err))
	}
	if err := s.upload(ctx, plotPath); err != nil {
		return s.fail(ctx, err)
	}

	metrics.RecordNotification(channelSlack, outcomeOK)
	s.logger.Info(ctx, "report delivered", logger.String("handle", rep.Handle))
	return nil
}

// upload shares the plot file when an uploader is configured. A missing file
// is skipped.
func (s *Slack) upload(ctx context.Context, plotPath string) error {
	if s.uploader == nil || plotPath == "" {
		return nil
	}
	f, err := os.Open(plotPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn(ctx, "plot not readable", logger.String("path", plotPath), logger.Error(err))
		}
		return nil
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil || info.Size() == 0 {
		s.logger.Warn(ctx, "plot not readable", logger.String("path", plotPath), logger.Error(err))
		return nil
	}

	sum, err := s.uploader.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Reader:   f,
		FileSize: int(info.Size()),
		Filename: filepath.Base(plotPath),
		Title:    plotCaption,
		Channel:  s.channelID,
	})
	if err != nil {
		return fmt.Errorf("%w: slack upload: %w", ErrDelivery, err)
	}
	if sum != nil {
		s.logger.Debug(ctx, "plot uploaded", logger.String("file", sum.ID))
	}
	return nil
}

func (s *Slack) fail(ctx context.Context, err error) error {
	metrics.RecordNotification(channelSlack, outcomeError)
	s.logger.Error(ctx, "slack delivery failed", logger.Error(err))
	return err
}

// Format renders rep as Slack mrkdwn. Empty sections are omitted.
func (s *Slack) Format(rep report.Report, plotPath string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*🏆 %s*\n", slackEscape(rep.Title()))
	fmt.Fprintf(&sb, "Current Rating: %d (%s)\n", rep.Rating, rep.Tier)
	fmt.Fprintf(&sb, "Next Milestone: %d points to %s\n", rep.PointsToNext, rep.NextTier)

	if weak := rep.Weakest(); len(weak) > 0 {
		sb.WriteString("\n*🔍 Weak Areas:*\n")
		for _, w := range weak {
			fmt.Fprintf(&sb, "- %s (%s)\n", slackEscape(w.Topic), report.FormatAccuracy(w.Accuracy))
		}
	}
	if len(rep.Recommendations) > 0 {
		sb.WriteString("\n*📚 Recommended Problems:*\n")
		for _, p := range rep.Recommendations {
			fmt.Fprintf(&sb, "- <%s|%s> (%d rating)\n", p.URL, slackEscape(p.Name), p.Rating)
		}
	}
	if plotPath != "" && s.artifactsURL != "" {
		fmt.Fprintf(&sb, "\n<%s/%s|📈 Progress Plot>\n", s.artifactsURL, filepath.Base(plotPath))
	}
	return strings.TrimRight(sb.String(), "\n")
}

var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func slackEscape(s string) string { return slackEscaper.Replace(s) }
