package ports

import (
	"context"

	"github.com/bnema/shiftlog/internal/domain"
)

// Notifier delivers a notification over one channel. Implementations return
// an error when they cannot reach the notification's target.
type Notifier interface {
	Notify(ctx context.Context, notification domain.Notification) error
}
