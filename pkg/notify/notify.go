// Package notify delivers user-facing failure messages produced by the API
// client. Delivery is fire and forget: a Notifier never reports errors back
// to the request that triggered it.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/milan604/travelplanner-client/pkg/logger"
)

// Notification is one user-visible message.
type Notification struct {
	// Code is the failure class, e.g. "unauthorized" or "business_failure".
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Status    int       `json:"status,omitempty"`
	Method    string    `json:"method,omitempty"`
	Path      string    `json:"path,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Time      time.Time `json:"time"`
}

// Notifier shows a message to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, n Notification)

func (f Func) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Multi fans a notification out to every non-nil notifier in order.
func Multi(notifiers ...Notifier) Notifier {
	out := make(multi, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

type multi []Notifier

func (m multi) Notify(ctx context.Context, n Notification) {
	for _, nt := range m {
		nt.Notify(ctx, n)
	}
}

// Nop drops every notification.
var Nop Notifier = Func(func(context.Context, Notification) {})

// LogNotifier writes notifications to the log at warn level.
type LogNotifier struct {
	log logger.LogManager
}

func NewLogNotifier(log logger.LogManager) *LogNotifier {
	if log == nil {
		log = logger.NewNop()
	}
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) {
	l.log.With("code", n.Code, "status", n.Status, "method", n.Method, "path", n.Path).
		WarnFCtx(ctx, "%s", n.Message)
}

// Recorder keeps every notification it receives. Safe for concurrent use.
type Recorder struct {
	mu  sync.Mutex
	all []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = append(r.all, n)
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.all...)
}

// Messages returns only the message texts, in order.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.all))
	for i, n := range r.all {
		out[i] = n.Message
	}
	return out
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.all) == 0 {
		return Notification{}, false
	}
	return r.all[len(r.all)-1], true
}

// Len reports how many notifications were recorded.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.all)
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = nil
}

var (
	_ Notifier = Func(nil)
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = (*Recorder)(nil)
	_ Notifier = (*KafkaNotifier)(nil)
)
