// Package command is the chat-command surface of the bot: it wires the
// parser, confirmation flow, ledger service, budget monitor and report
// generator into the operations a transport exposes to users. Every
// error is converted into a user-facing message at this boundary.
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/adventhp/ledger-bot/internal/budget"
	"github.com/adventhp/ledger-bot/internal/completion"
	"github.com/adventhp/ledger-bot/internal/confirm"
	"github.com/adventhp/ledger-bot/internal/domain"
	"github.com/adventhp/ledger-bot/internal/ledger"
	"github.com/adventhp/ledger-bot/internal/parser"
	"github.com/adventhp/ledger-bot/internal/report"
)

// AlertPublisher decouples the service from alert delivery; publish
// failures are logged, never surfaced, and never unwind a persisted
// transaction.
type AlertPublisher interface {
	Publish(ctx context.Context, event budget.AlertEvent) error
}

// Service handles the bot's commands. Each command runs in its own task;
// the only shared mutable resource is the ledger store behind the ledger
// service.
type Service struct {
	parser   *parser.Parser
	ledger   *ledger.Service
	monitor  *budget.Monitor
	alerts   AlertPublisher
	reports  *report.Generator
	prompter confirm.Prompter
	budgets  domain.Budgets
	timeout  time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// New creates the command service.
func New(
	p *parser.Parser,
	l *ledger.Service,
	m *budget.Monitor,
	alerts AlertPublisher,
	r *report.Generator,
	prompter confirm.Prompter,
	budgets domain.Budgets,
	log zerolog.Logger,
) *Service {
	return &Service{
		parser:   p,
		ledger:   l,
		monitor:  m,
		alerts:   alerts,
		reports:  r,
		prompter: prompter,
		budgets:  budgets,
		timeout:  confirm.DefaultTimeout,
		now:      time.Now,
		log:      log,
	}
}

// WithTimeout overrides the confirmation timeout. Test hook.
func (s *Service) WithTimeout(d time.Duration) *Service {
	s.timeout = d
	return s
}

// WithClock overrides the service clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// LogExpense runs the full expense flow: parse, validate eagerly so the
// confirmation shows canonical values, wait for the user's decision, and
// only then persist and run the budget check. Nothing is written before a
// confirm signal.
func (s *Service) LogExpense(ctx context.Context, raw string) (string, error) {
	log := s.commandLogger("log_expense")
	log.Info().Str("text", raw).Msg("processing expense")

	provisional, err := s.parser.Parse(ctx, raw, domain.TypeExpense)
	if err != nil {
		log.Error().Err(err).Msg("expense parse failed")
		return "", err
	}

	tx, err := s.ledger.Validate(provisional)
	if err != nil {
		log.Warn().Err(err).Msg("expense rejected by validation")
		return "", err
	}

	decision, err := confirm.Await(ctx, s.prompter, tx, s.timeout)
	if err != nil {
		return "", err
	}

	switch decision {
	case confirm.Confirmed:
		// fall through to persistence
	case confirm.EditRequested:
		return "Please enter the expense details again.", nil
	case confirm.TimedOut:
		return "Confirmation timed out, expense discarded.", nil
	default:
		return "Expense cancelled.", nil
	}

	if err := s.ledger.Record(ctx, tx); err != nil {
		log.Error().Err(err).Msg("expense persistence failed")
		return "", err
	}

	s.checkBudget(ctx, log, tx.Category)

	return fmt.Sprintf("Expense logged: ₹%.2f on %s (%s).", tx.Magnitude(), tx.Category, tx.PaymentMode), nil
}

// LogIncome parses, validates and records an income entry. Income needs
// no confirmation and never triggers a budget check.
func (s *Service) LogIncome(ctx context.Context, raw string) (string, error) {
	log := s.commandLogger("log_income")
	log.Info().Str("text", raw).Msg("processing income")

	provisional, err := s.parser.Parse(ctx, raw, domain.TypeIncome)
	if err != nil {
		log.Error().Err(err).Msg("income parse failed")
		return "", err
	}

	tx, err := s.ledger.Validate(provisional)
	if err != nil {
		log.Warn().Err(err).Msg("income rejected by validation")
		return "", err
	}

	if err := s.ledger.Record(ctx, tx); err != nil {
		log.Error().Err(err).Msg("income persistence failed")
		return "", err
	}

	return fmt.Sprintf("Income logged: ₹%.2f (%s).", tx.Magnitude(), tx.Category), nil
}

// Summary renders the structured summary for the current period.
func (s *Service) Summary(ctx context.Context) (string, error) {
	handle, err := s.ledger.CurrentPeriod(ctx)
	if err != nil {
		return "", err
	}
	agg, err := s.ledger.Aggregate(ctx, handle, ledger.Filter{})
	if err != nil {
		return "", err
	}
	return report.StructuredSummary(agg, s.budgets, s.now()).Render(), nil
}

// MonthlyReport generates the narrative report for the current period.
func (s *Service) MonthlyReport(ctx context.Context) (string, error) {
	handle, err := s.ledger.CurrentPeriod(ctx)
	if err != nil {
		return "", err
	}
	rows, err := s.ledger.Rows(ctx, handle)
	if err != nil {
		return "", err
	}
	return s.reports.NarrativeReport(ctx, rows, s.budgets)
}

// Query answers a free-text spending question: the model reads the
// question into a filter, the ledger computes exact figures, the model
// phrases the answer around them.
func (s *Service) Query(ctx context.Context, raw string) (string, error) {
	log := s.commandLogger("query")
	log.Info().Str("text", raw).Msg("processing spending query")

	qf, err := s.parser.ParseQuery(ctx, raw)
	if err != nil {
		return "", err
	}

	handle, err := s.ledger.CurrentPeriod(ctx)
	if err != nil {
		return "", err
	}

	filter := ledger.Filter{
		Since:       qf.Since(s.now()),
		Category:    qf.CategoryFilter(),
		PaymentMode: qf.PaymentModeFilter(),
	}
	agg, err := s.ledger.Aggregate(ctx, handle, filter)
	if err != nil {
		return "", err
	}

	return s.reports.AnswerQuery(ctx, raw, agg, s.budgets)
}

// EnsureCurrentLedger makes sure the current month's ledger exists. The
// scheduler calls this at period rollover; repeated calls for the same
// period are no-ops.
func (s *Service) EnsureCurrentLedger(ctx context.Context) error {
	_, err := s.ledger.CurrentPeriod(ctx)
	return err
}

// checkBudget runs the synchronous budget check for a just-recorded
// expense and hands any alert to the async publisher. Failures here are
// logged and swallowed: the transaction is already persisted.
func (s *Service) checkBudget(ctx context.Context, log zerolog.Logger, category string) {
	spent, err := s.ledger.CategorySpend(ctx, category)
	if err != nil {
		log.Error().Err(err).Msg("budget check skipped: spend lookup failed")
		return
	}

	event := s.monitor.Check(category, ledger.Aggregate{
		ByCategory: map[string]float64{category: spent},
	})
	if event == nil {
		return
	}

	log.Info().
		Str("category", category).
		Float64("percentage", event.Percentage).
		Str("severity", string(event.Severity)).
		Msg("budget threshold crossed")

	if err := s.alerts.Publish(ctx, *event); err != nil {
		log.Error().Err(err).Str("alert_id", event.ID).Msg("alert publish failed")
	}
}

func (s *Service) commandLogger(command string) zerolog.Logger {
	return s.log.With().
		Str("command", command).
		Str("command_id", uuid.NewString()).
		Logger()
}

// UserMessage maps an error from any command onto the message shown to
// the user. Nothing about the internal failure leaks beyond its class.
func UserMessage(err error) string {
	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		return fmt.Sprintf("Could not log that: %s.", verr.Error())
	case errors.Is(err, parser.ErrMalformedCompletion):
		return "Sorry, I could not understand that. Please rephrase and try again."
	case errors.Is(err, completion.ErrCompletionUnavailable):
		return "The language service is unavailable right now. Please try again."
	case errors.Is(err, report.ErrReportFailed):
		return "Report generation failed. Please try again."
	case errors.Is(err, ledger.ErrWriteRejected), errors.Is(err, ledger.ErrStoreUnavailable):
		return "Could not save to the ledger. Please re-submit."
	default:
		return "Sorry, I encountered an error. Please try again."
	}
}
