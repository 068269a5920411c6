package logchan

import (
	"context"

	"go.uber.org/zap"

	"github.com/bnema/shiftlog/internal/domain"
	"github.com/bnema/shiftlog/internal/ports"
)

// Notifier writes notifications to the process log. It is the terminal link
// of the dispatch chain when no chat transport is configured.
type Notifier struct {
	logger *zap.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

func NewNotifier(logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{logger: logger.Named("notify")}
}

func (n *Notifier) Notify(ctx context.Context, notification domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	actions := make([]string, 0, len(notification.Actions))
	for _, action := range notification.Actions {
		actions = append(actions, action.Payload())
	}

	n.logger.Info("notification",
		zap.String("tenant", string(notification.TenantID)),
		zap.String("user", string(notification.UserID)),
		zap.String("channel", notification.Channel),
		zap.String("text", notification.Text),
		zap.Strings("actions", actions),
		zap.Strings("attachments", notification.Attachments),
	)
	return nil
}
