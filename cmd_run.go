package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"jobscout/browser"
	"jobscout/classifier"
	"jobscout/config"
	"jobscout/db"
	"jobscout/dispatch"
	"jobscout/notify"
	"jobscout/parser"
	"jobscout/ratelimit"
	"jobscout/reasoning"
	"jobscout/scheduler"
	"jobscout/state"
	"jobscout/traversal"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var every time.Duration
	var cronSchedule string
	var maxItems int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Traverse the job listing, classify new jobs and bookmark the accepted ones.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("every") {
				cfg.Traversal.Every = every
				cfg.Traversal.Cron = ""
			}
			if cmd.Flags().Changed("cron") {
				cfg.Traversal.Cron = cronSchedule
				cfg.Traversal.Every = 0
			}
			if cmd.Flags().Changed("max-items") {
				cfg.Traversal.MaxItems = maxItems
			}
			return runScout(cmd.Context(), cfg, opts.logger)
		},
	}
	cmd.Flags().DurationVar(&every, "every", 0, "repeat the run on this interval (0 runs once)")
	cmd.Flags().StringVar(&cronSchedule, "cron", "", "repeat the run on a cron schedule, e.g. \"0 9 * * 1-5\"")
	cmd.Flags().IntVar(&maxItems, "max-items", 0, "stop after processing this many new jobs (0 means no limit)")
	return cmd
}

// scout holds what stays alive across scheduled runs
type scout struct {
	cfg       *config.Config
	logger    *slog.Logger
	cascade   *classifier.Cascade
	detector  *parser.LanguageDetector
	visited   state.VisitedStore
	journal   *state.Journal
	database  *db.DB
	notifiers []notifier
}

// notifier hears about every outcome and gets the run summary at the end
type notifier interface {
	traversal.OutcomeSink
	SendSummary(ctx context.Context, summary string) error
}

func runScout(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	s, cleanup, err := newScout(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	return scheduler.NewScheduler(s.runOnce, cfg.Traversal.Every, cfg.Traversal.Cron, logger).Run(ctx)
}

func newScout(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*scout, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("failed to release resource", "err", err)
			}
		}
	}

	reasoner, err := reasoning.NewGroqClient(reasoning.GroqOptions{
		BaseURL:      cfg.Reasoning.BaseURL,
		APIKey:       cfg.Secrets.ReasoningAPIKey,
		Model:        cfg.Reasoning.Model,
		Temperature:  cfg.Reasoning.Temperature,
		Timeout:      cfg.Reasoning.Timeout,
		Retries:      cfg.Reasoning.Retries,
		MinRetryWait: cfg.Reasoning.MinInterval,
	})
	if err != nil {
		return nil, nil, err
	}
	stages, err := classifier.StagesFromConfig(cfg.Stages)
	if err != nil {
		return nil, nil, err
	}
	// one limiter for every stage and every item of the process
	limiter := ratelimit.New(cfg.Reasoning.MinInterval, logger)
	cascade, err := classifier.NewCascade(reasoner, limiter, stages, cfg.Rubric, logger)
	if err != nil {
		return nil, nil, err
	}

	s := &scout{
		cfg:      cfg,
		logger:   logger,
		cascade:  cascade,
		detector: parser.NewLanguageDetector(),
		journal:  state.NewJournal(cfg.State.ResultsFile, logger),
	}

	switch cfg.State.VisitedBackend {
	case "redis":
		store := state.NewRedisVisitedStore(cfg.State.RedisAddr, cfg.State.RedisKey)
		closers = append(closers, store.Close)
		s.visited = store
	default:
		s.visited = state.NewFileVisitedStore(cfg.State.VisitedFile, logger)
	}

	if cfg.Database.URL != "" {
		database, err := db.NewDB(ctx, cfg.Database.URL, logger)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, database.Close)
		s.database = database
	}

	if cfg.Secrets.TelegramToken != "" && cfg.Telegram.ChatID != 0 {
		telegram, err := notify.NewTelegram(cfg.Secrets.TelegramToken, cfg.Telegram.ChatID, cfg.Site.BaseURL, logger)
		if err != nil {
			// notifications are optional, the run goes on without them
			logger.Warn("telegram notifications disabled", "err", err)
		} else {
			s.notifiers = append(s.notifiers, telegram)
		}
	}
	if cfg.SMTP.Server != "" {
		s.notifiers = append(s.notifiers, notify.NewEmail(cfg.SMTP, cfg.Secrets.SMTPPassword, cfg.Site.BaseURL, logger))
	}

	return s, cleanup, nil
}

// runOnce opens a fresh browser session and traverses the listing once
func (s *scout) runOnce(ctx context.Context) error {
	key := uuid.New()
	logger := s.logger.With("run", key.String())

	b, err := browser.Launch(s.cfg.Browser, logger)
	if err != nil {
		return err
	}
	session, err := browser.NewSession(b, s.cfg, logger)
	if err != nil {
		b.Close()
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("failed to close browser", "err", err)
		}
	}()

	if err := s.prepare(ctx, session); err != nil {
		return err
	}

	listing := session.Listing(s.detector)
	opts := traversal.Options{
		ViewRetries:        s.cfg.Traversal.ViewRetries,
		MaxEmptyReveals:    s.cfg.Traversal.MaxEmptyReveals,
		MaxItems:           s.cfg.Traversal.MaxItems,
		RetryServiceErrors: s.cfg.Traversal.RetryServiceErrors,
		Logger:             logger,
	}

	runID := 0
	if s.database != nil {
		if runID, err = s.database.StartRun(ctx, key); err != nil {
			logger.Warn("failed to record run start", "err", err)
		}
		opts.Sinks = append(opts.Sinks, s.database.Recorder(runID))
	}
	for _, n := range s.notifiers {
		opts.Sinks = append(opts.Sinks, n)
	}

	engine := traversal.NewEngine(listing, listing, s.cascade, dispatch.NewDispatcher(listing, logger), s.visited, s.journal, opts)
	summary, runErr := engine.Run(ctx)
	logger.Info("run finished", "summary", summary.String())

	// the run context may already be cancelled; reporting still happens
	reportCtx := context.WithoutCancel(ctx)
	if s.database != nil && runID != 0 {
		stats := db.RunStats{
			Processed:        summary.Processed,
			Bookmarked:       summary.Bookmarked,
			ExtractionErrors: summary.ExtractionErrors,
			ServiceErrors:    summary.ServiceErrors,
			Interrupted:      summary.Interrupted,
			Reason:           summary.Reason,
		}
		if err := s.database.FinishRun(reportCtx, runID, stats); err != nil {
			logger.Warn("failed to record run end", "err", err)
		}
	}
	for _, n := range s.notifiers {
		if err := n.SendSummary(reportCtx, summary.String()); err != nil {
			logger.Warn("failed to send run summary", "err", err)
		}
	}
	return runErr
}

// prepare logs in and submits the search so the listing is on screen
func (s *scout) prepare(ctx context.Context, session *browser.Session) error {
	if err := session.Open(ctx); err != nil {
		return err
	}
	if s.cfg.Site.Login {
		if s.cfg.Secrets.Email == "" || s.cfg.Secrets.Password == "" {
			s.logger.Warn("login enabled but JOBSCOUT_EMAIL or JOBSCOUT_PASSWORD is empty, continuing without login")
		} else if err := session.Login(ctx, s.cfg.Secrets.Email, s.cfg.Secrets.Password); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
	}
	if err := session.Search(ctx, s.cfg.Site.Keyword, s.cfg.Site.Location, s.cfg.Site.EasyApplyOnly); err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if s.cfg.Browser.PauseAfterSearch {
		if err := session.WaitForOperator(ctx, os.Stdin, os.Stderr); err != nil {
			return err
		}
	}
	return nil
}
