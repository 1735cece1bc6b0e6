package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"

	"jobscout/config"
	"jobscout/models"
)

// Email collects the jobs bookmarked during a run and mails them as one
// digest when the run ends
type Email struct {
	cfg      config.SMTPConfig
	password string
	baseURL  string
	logger   *slog.Logger
	saved    []models.ClassificationOutcome

	send func(m *email.Email, addr string, auth smtp.Auth) error
}

// NewEmail creates a digest mailer. password may be empty for servers
// without AUTH.
func NewEmail(cfg config.SMTPConfig, password, baseURL string, logger *slog.Logger) *Email {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &Email{
		cfg:      cfg,
		password: password,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		logger:   logger,
		send: func(m *email.Email, addr string, auth smtp.Auth) error {
			return m.Send(addr, auth)
		},
	}
}

// RecordOutcome queues bookmarked jobs for the digest
func (e *Email) RecordOutcome(_ context.Context, o models.ClassificationOutcome) error {
	if o.FinalAction != models.ActionBookmarked || o.Bookmark == models.BookmarkFailed {
		return nil
	}
	e.saved = append(e.saved, o)
	return nil
}

// SendSummary mails the digest and clears the queue for the next run
func (e *Email) SendSummary(_ context.Context, summary string) error {
	saved := e.saved
	e.saved = nil

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("jobscout <%s>", e.cfg.From)
	mail.To = e.cfg.To
	mail.Subject = fmt.Sprintf("jobscout: %d new bookmarks", len(saved))
	mail.Text = []byte(e.digest(saved, summary))

	addr := fmt.Sprintf("%s:%d", e.cfg.Server, e.cfg.Port)
	var auth smtp.Auth
	if e.password != "" {
		auth = smtp.PlainAuth("", e.cfg.From, e.password, e.cfg.Server)
	}
	err := e.send(mail, addr, auth)
	if err != nil && auth != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = e.send(mail, addr, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to send digest email: %w", err)
	}
	e.logger.Debug("digest email sent", "to", strings.Join(e.cfg.To, ","), "jobs", len(saved))
	return nil
}

func (e *Email) digest(saved []models.ClassificationOutcome, summary string) string {
	var b strings.Builder
	if len(saved) == 0 {
		b.WriteString("No new jobs were bookmarked.\n")
	}
	for _, o := range saved {
		fmt.Fprintf(&b, "- %s\n", jobLink(e.baseURL, o.ID))
		if _, explanation, ok := o.Stage(2); ok && explanation != "" {
			fmt.Fprintf(&b, "  %s\n", truncate(strings.Join(strings.Fields(explanation), " "), maxExplanation))
		}
	}
	fmt.Fprintf(&b, "\n%s\n", summary)
	return b.String()
}
