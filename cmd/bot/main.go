package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"github.com/adventhp/ledger-bot/internal/api/handlers"
	"github.com/adventhp/ledger-bot/internal/api/middleware"
	"github.com/adventhp/ledger-bot/internal/budget"
	"github.com/adventhp/ledger-bot/internal/command"
	"github.com/adventhp/ledger-bot/internal/completion"
	"github.com/adventhp/ledger-bot/internal/config"
	"github.com/adventhp/ledger-bot/internal/confirm"
	"github.com/adventhp/ledger-bot/internal/domain"
	"github.com/adventhp/ledger-bot/internal/ledger"
	"github.com/adventhp/ledger-bot/internal/logger"
	"github.com/adventhp/ledger-bot/internal/parser"
	"github.com/adventhp/ledger-bot/internal/report"
	"github.com/adventhp/ledger-bot/internal/schedule"
	"github.com/adventhp/ledger-bot/internal/sheets"
)

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	budgets, err := config.LoadBudgets(cfg.BudgetsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load budget configuration")
	}

	ctx := context.Background()

	var sheetOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		sheetOpts = append(sheetOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	store, err := sheets.New(ctx, cfg.SpreadsheetID, log, sheetOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create sheets client")
	}

	completer, err := completion.NewGemini(ctx, cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create completion client")
	}

	// Alerts and scheduled output go to the notifier; with the HTTP
	// transport that is the process log. A chat transport replaces this
	// with its channel send.
	notifier := schedule.NotifierFunc(func(_ context.Context, text string) error {
		log.Info().Str("notification", text).Msg("Scheduled notification")
		return nil
	})

	alertSink := budget.SinkFunc(func(ctx context.Context, event budget.AlertEvent) error {
		return notifier.Notify(ctx, renderAlert(event))
	})
	dispatcher := budget.NewDispatcher(alertSink, 100, log)

	dispatcherCtx, cancelDispatcher := context.WithCancel(ctx)
	defer cancelDispatcher()
	dispatcher.Start(dispatcherCtx)

	// The HTTP transport has no reaction buttons; commands that reach the
	// server are treated as already confirmed.
	autoConfirm := confirm.PrompterFunc(func(context.Context, domain.Transaction) (<-chan confirm.Signal, error) {
		ch := make(chan confirm.Signal, 1)
		ch <- confirm.SignalConfirm
		return ch, nil
	})

	commands := command.New(
		parser.New(completer),
		ledger.NewService(store, log),
		budget.NewMonitor(budgets),
		dispatcher,
		report.NewGenerator(completer),
		autoConfirm,
		budgets,
		log,
	)

	scheduler := schedule.New(commands, notifier, log)
	if err := scheduler.Register(schedule.Specs{
		Rollover:     cfg.RolloverSpec,
		DailySummary: cfg.DailySummarySpec,
		MonthEnd:     cfg.MonthEndSpec,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to register scheduled jobs")
	}
	scheduler.Start()

	router := mux.NewRouter()
	handlers.NewCommandHandler(commands, log).Register(router)

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(router),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting ledger bot server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := scheduler.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Scheduler shutdown failed")
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Alert dispatcher shutdown failed")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}

func renderAlert(e budget.AlertEvent) string {
	if e.Severity == budget.SeverityOver {
		return fmt.Sprintf("Budget exceeded: %s at %.1f%% (₹%.2f of ₹%.2f)",
			e.Category, e.Percentage, e.Spent, e.Budget)
	}
	return fmt.Sprintf("Budget warning: %s at %.1f%% (₹%.2f of ₹%.2f, ₹%.2f remaining)",
		e.Category, e.Percentage, e.Spent, e.Budget, e.Remaining)
}
