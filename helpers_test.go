package modkit

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/go-chi/chi/v5"
)

// recordingLogger keeps every message so tests can assert on warnings.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

func (l *recordingLogger) log(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *recordingLogger) Info(msg string, args ...any)  { l.log("info", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.log("error", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.log("warn", msg, args) }
func (l *recordingLogger) Debug(msg string, args ...any) { l.log("debug", msg, args) }

func (l *recordingLogger) messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.entries {
		if e.level == level {
			out = append(out, e.msg)
		}
	}
	return out
}

// recordingObserver collects event types.
type recordingObserver struct {
	mu     sync.Mutex
	events []cloudevents.Event
}

func (o *recordingObserver) OnEvent(_ context.Context, event cloudevents.Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
	return nil
}

func (o *recordingObserver) ObserverID() string { return "recording" }

func (o *recordingObserver) types() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.events))
	for i, e := range o.events {
		out[i] = e.Type()
	}
	return out
}

// Fixture services.

type ServiceA struct{ id int }

type ServiceB struct{ A *ServiceA }

type ServiceC struct{ name string }

func NewServiceA() *ServiceA { return &ServiceA{id: 1} }

func NewServiceB(a *ServiceA) *ServiceB { return &ServiceB{A: a} }

type Ordered struct{ Args []string }

type named string

func NewOrdered(a, b, c named) *Ordered {
	return &Ordered{Args: []string{string(a), string(b), string(c)}}
}

type Broken struct{}

var errBroken = fmt.Errorf("broken constructor")

func NewBroken() (*Broken, error) { return nil, errBroken }

// UserController answers GET / with "users:<id of its ServiceA>".
type UserController struct{ A *ServiceA }

func NewUserController(a *ServiceA) *UserController { return &UserController{A: a} }

func (c *UserController) Mount(r chi.Router) chi.Router {
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, "users:%d", c.A.id)
	})
	return r
}

// OrderController answers GET / and GET /{id}.
type OrderController struct{}

func (c *OrderController) Mount(r chi.Router) chi.Router {
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "orders")
	})
	r.Get("/{id}", func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprintf(w, "order:%s", chi.URLParam(req, "id"))
	})
	return r
}

// NotAController is registered as a controller but cannot mount.
type NotAController struct{}
