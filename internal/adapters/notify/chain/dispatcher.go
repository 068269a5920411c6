package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/shiftlog/internal/domain"
	"github.com/bnema/shiftlog/internal/ports"
)

// Dispatcher tries its notifiers in order and stops at the first delivery.
// A direct message that cannot be delivered falls through to the channel.
type Dispatcher struct {
	notifiers []ports.Notifier
}

var _ ports.Notifier = (*Dispatcher)(nil)

var errNoNotifiers = errors.New("dispatcher needs at least one notifier")

func NewDispatcher(notifiers ...ports.Notifier) *Dispatcher {
	dispatcher, err := NewDispatcherChecked(notifiers...)
	if err != nil {
		panic(err)
	}

	return dispatcher
}

func NewDispatcherChecked(notifiers ...ports.Notifier) (*Dispatcher, error) {
	kept := make([]ports.Notifier, 0, len(notifiers))
	for _, notifier := range notifiers {
		if notifier != nil {
			kept = append(kept, notifier)
		}
	}
	if len(kept) == 0 {
		return nil, errNoNotifiers
	}

	return &Dispatcher{notifiers: kept}, nil
}

func (d *Dispatcher) Notify(ctx context.Context, notification domain.Notification) error {
	var errs []error
	for i, notifier := range d.notifiers {
		err := notifier.Notify(ctx, notification)
		if err == nil {
			return nil
		}
		if shouldSkipFallback(err) {
			return err
		}
		errs = append(errs, fmt.Errorf("notifier %d failed: %w", i+1, err))
	}

	return fmt.Errorf("%w: %w", domain.ErrNotification, errors.Join(errs...))
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
