// Package navigate moves the user to another page, e.g. the login page after
// the session was invalidated.
package navigate

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/milan604/travelplanner-client/pkg/logger"
)

// Navigator sends the user to url.
type Navigator interface {
	Navigate(ctx context.Context, url string)
}

// Func adapts a plain function to Navigator.
type Func func(ctx context.Context, url string)

func (f Func) Navigate(ctx context.Context, url string) { f(ctx, url) }

// Nop ignores every navigation.
var Nop Navigator = Func(func(context.Context, string) {})

// LogNavigator logs every target and, when out is set, prints it there, which
// is how terminal front ends hand the URL to the user.
type LogNavigator struct {
	log logger.LogManager
	mu  sync.Mutex
	out io.Writer
}

func NewLogNavigator(log logger.LogManager, out io.Writer) *LogNavigator {
	if log == nil {
		log = logger.NewNop()
	}
	return &LogNavigator{log: log, out: out}
}

func (l *LogNavigator) Navigate(ctx context.Context, url string) {
	l.log.InfoFCtx(ctx, "navigate: %s", url)
	if l.out == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "-> %s\n", url)
}

// Recorder keeps every navigation target. Safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	urls []string
}

func (r *Recorder) Navigate(_ context.Context, url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, url)
}

// URLs returns the recorded targets in order.
func (r *Recorder) URLs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.urls...)
}

// Last returns the latest target, or "" if nothing was recorded.
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.urls) == 0 {
		return ""
	}
	return r.urls[len(r.urls)-1]
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = nil
}

var (
	_ Navigator = Func(nil)
	_ Navigator = (*LogNavigator)(nil)
	_ Navigator = (*Recorder)(nil)
)
