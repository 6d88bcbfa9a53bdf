// Package notify is the best-effort notification boundary. Delivery
// failures are logged, never propagated into settlement.
package notify

import (
	"context"

	"go.uber.org/zap"
)

type Notification struct {
	UserID  string
	Type    string
	Title   string
	Message string
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the service log. It stands in for a
// push/SMS gateway in environments without one configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, msg Notification) error {
	n.log.Info("notification",
		zap.String("user_id", msg.UserID),
		zap.String("type", msg.Type),
		zap.String("title", msg.Title),
		zap.String("message", msg.Message),
	)
	return nil
}
