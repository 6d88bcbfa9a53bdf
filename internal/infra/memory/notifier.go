package memory

import (
	"context"
	"sync"

	"duo-trivia-service/internal/notify"
)

// NotifyRecorder captures notifications for test assertions. An optional
// Fail hook simulates delivery failures.
type NotifyRecorder struct {
	mu   sync.Mutex
	sent []notify.Notification

	Fail func(n notify.Notification) error
}

func NewNotifyRecorder() *NotifyRecorder {
	return &NotifyRecorder{}
}

func (r *NotifyRecorder) Notify(_ context.Context, n notify.Notification) error {
	if r.Fail != nil {
		if err := r.Fail(n); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *NotifyRecorder) Sent() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Notification, len(r.sent))
	copy(out, r.sent)
	return out
}
