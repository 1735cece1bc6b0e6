// Package notify reports bookmarked jobs and run summaries to a Telegram chat
// or an email inbox.
package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"jobscout/models"
)

// maxExplanation bounds the explanation quoted in a message
const maxExplanation = 600

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends messages to a single chat
type Telegram struct {
	bot     sender
	chatID  int64
	baseURL string
	logger  *slog.Logger
}

// NewTelegram connects the bot with token. baseURL is the job site used to
// build job links.
func NewTelegram(token string, chatID int64, baseURL string, logger *slog.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("telegram bot authorized", "account", bot.Self.UserName)
	return &Telegram{bot: bot, chatID: chatID, baseURL: strings.TrimSuffix(baseURL, "/"), logger: logger}, nil
}

// RecordOutcome announces jobs that were bookmarked. Other outcomes are
// ignored.
func (t *Telegram) RecordOutcome(_ context.Context, o models.ClassificationOutcome) error {
	if o.FinalAction != models.ActionBookmarked || o.Bookmark == models.BookmarkFailed {
		return nil
	}
	return t.send(t.formatBookmark(o))
}

// SendSummary posts the end-of-run summary
func (t *Telegram) SendSummary(_ context.Context, summary string) error {
	return t.send("<b>Run finished</b>\n" + html.EscapeString(summary))
}

func (t *Telegram) send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

func (t *Telegram) formatBookmark(o models.ClassificationOutcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ <b>Saved job %s</b>\n", html.EscapeString(string(o.ID)))
	fmt.Fprintf(&b, "%s\n", html.EscapeString(jobLink(t.baseURL, o.ID)))
	if _, explanation, ok := o.Stage(2); ok && explanation != "" {
		fmt.Fprintf(&b, "\n%s", html.EscapeString(truncate(explanation, maxExplanation)))
	}
	return b.String()
}

func jobLink(baseURL string, id models.ItemID) string {
	return fmt.Sprintf("%s/job-listing/j?jl=%s", baseURL, id)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
