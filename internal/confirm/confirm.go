// Package confirm implements the confirm/cancel/edit flow as a single
// suspend-until-signal-or-timeout operation: the provisional transaction
// is presented once and exactly one decision comes back.
package confirm

import (
	"context"
	"fmt"
	"time"

	"github.com/adventhp/ledger-bot/internal/domain"
)

// Signal is one of the external confirmation inputs.
type Signal int

const (
	SignalConfirm Signal = iota
	SignalCancel
	SignalEdit
)

// Decision is the single transition taken for a provisional transaction.
type Decision int

const (
	// Confirmed is the only path that leads to persistence.
	Confirmed Decision = iota
	// Cancelled discards the transaction.
	Cancelled
	// EditRequested discards the transaction; the caller re-submits text.
	EditRequested
	// TimedOut is the implicit cancellation path: no signal arrived
	// within the window.
	TimedOut
)

func (d Decision) String() string {
	switch d {
	case Confirmed:
		return "confirmed"
	case Cancelled:
		return "cancelled"
	case EditRequested:
		return "edit_requested"
	default:
		return "timed_out"
	}
}

// DefaultTimeout is how long a presented transaction waits for a signal.
const DefaultTimeout = 60 * time.Second

// Prompter is the chat-transport collaborator. Present renders the
// transaction for the user and returns a channel that yields the user's
// signals; only the first one matters.
type Prompter interface {
	Present(ctx context.Context, t domain.Transaction) (<-chan Signal, error)
}

// PrompterFunc adapts a function to the Prompter interface.
type PrompterFunc func(ctx context.Context, t domain.Transaction) (<-chan Signal, error)

func (f PrompterFunc) Present(ctx context.Context, t domain.Transaction) (<-chan Signal, error) {
	return f(ctx, t)
}

// Await presents the transaction and blocks until the first signal, the
// timeout, or context cancellation. At most one transition ever occurs:
// later signals on the channel are ignored. A closed channel counts as
// cancellation.
func Await(ctx context.Context, p Prompter, t domain.Transaction, timeout time.Duration) (Decision, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	signals, err := p.Present(ctx, t)
	if err != nil {
		return Cancelled, fmt.Errorf("Await: presenting: %w", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case sig, ok := <-signals:
		if !ok {
			return Cancelled, nil
		}
		switch sig {
		case SignalConfirm:
			return Confirmed, nil
		case SignalEdit:
			return EditRequested, nil
		default:
			return Cancelled, nil
		}
	case <-timer.C:
		return TimedOut, nil
	case <-ctx.Done():
		return Cancelled, ctx.Err()
	}
}
