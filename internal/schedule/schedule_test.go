package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type stubCommands struct {
	ensureCalls  int
	summaryCalls int
	reportCalls  int
	summaryErr   error
}

func (s *stubCommands) EnsureCurrentLedger(context.Context) error {
	s.ensureCalls++
	return nil
}

func (s *stubCommands) Summary(context.Context) (string, error) {
	s.summaryCalls++
	if s.summaryErr != nil {
		return "", s.summaryErr
	}
	return "summary text", nil
}

func (s *stubCommands) MonthlyReport(context.Context) (string, error) {
	s.reportCalls++
	return "report text", nil
}

type captureNotifier struct {
	messages []string
}

func (c *captureNotifier) Notify(_ context.Context, text string) error {
	c.messages = append(c.messages, text)
	return nil
}

func TestIsLastDayOfMonth(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{"mid month", time.Date(2024, time.March, 15, 20, 0, 0, 0, time.UTC), false},
		{"last of march", time.Date(2024, time.March, 31, 20, 0, 0, 0, time.UTC), true},
		{"leap february", time.Date(2024, time.February, 29, 20, 0, 0, 0, time.UTC), true},
		{"feb 28 in leap year", time.Date(2024, time.February, 28, 20, 0, 0, 0, time.UTC), false},
		{"last of april", time.Date(2024, time.April, 30, 20, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isLastDayOfMonth(tt.date); got != tt.want {
				t.Errorf("isLastDayOfMonth(%v) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestRunMonthEnd_SkipsUnlessLastDay(t *testing.T) {
	commands := &stubCommands{}
	notifier := &captureNotifier{}
	s := New(commands, notifier, zerolog.Nop()).WithClock(func() time.Time {
		return time.Date(2024, time.March, 15, 20, 0, 0, 0, time.UTC)
	})

	s.runMonthEnd()

	if commands.reportCalls != 0 {
		t.Errorf("reportCalls = %d, want 0 mid-month", commands.reportCalls)
	}
	if len(notifier.messages) != 0 {
		t.Errorf("messages = %d, want 0", len(notifier.messages))
	}
}

func TestRunMonthEnd_DeliversOnLastDay(t *testing.T) {
	commands := &stubCommands{}
	notifier := &captureNotifier{}
	s := New(commands, notifier, zerolog.Nop()).WithClock(func() time.Time {
		return time.Date(2024, time.March, 31, 20, 0, 0, 0, time.UTC)
	})

	s.runMonthEnd()

	if commands.reportCalls != 1 {
		t.Fatalf("reportCalls = %d, want 1", commands.reportCalls)
	}
	if len(notifier.messages) != 1 || notifier.messages[0] != "report text" {
		t.Errorf("messages = %v, want the report text", notifier.messages)
	}
}

func TestRunDailySummary_DeliversAndSwallowsFailures(t *testing.T) {
	commands := &stubCommands{}
	notifier := &captureNotifier{}
	s := New(commands, notifier, zerolog.Nop())

	s.runDailySummary()
	if len(notifier.messages) != 1 || notifier.messages[0] != "summary text" {
		t.Fatalf("messages = %v, want the summary text", notifier.messages)
	}

	commands.summaryErr = errors.New("store down")
	s.runDailySummary()
	if len(notifier.messages) != 1 {
		t.Errorf("messages = %d, want no delivery on failure", len(notifier.messages))
	}
}

func TestRunRollover_EnsuresLedger(t *testing.T) {
	commands := &stubCommands{}
	s := New(commands, &captureNotifier{}, zerolog.Nop())

	s.runRollover()

	if commands.ensureCalls != 1 {
		t.Errorf("ensureCalls = %d, want 1", commands.ensureCalls)
	}
}

func TestRegister_RejectsBadSpec(t *testing.T) {
	s := New(&stubCommands{}, &captureNotifier{}, zerolog.Nop())

	err := s.Register(Specs{Rollover: "not a cron spec", DailySummary: "0 17 * * *", MonthEnd: "0 20 * * *"})
	if err == nil {
		t.Fatal("Register() with invalid spec succeeded, want error")
	}
}
