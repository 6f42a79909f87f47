package modkit

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// DefaultEventSource is the CloudEvents source of container events.
const DefaultEventSource = "modkit/container"

// Event types emitted during bootstrap. They use reverse domain notation
// as the CloudEvents specification recommends.
const (
	EventTypeServiceRegistered    = "com.modkit.service.registered"
	EventTypeControllerRegistered = "com.modkit.controller.registered"
	EventTypeModuleProcessed      = "com.modkit.module.processed"
	EventTypeImportCycle          = "com.modkit.module.import_cycle"
	EventTypeRouteBound           = "com.modkit.route.bound"
	EventTypeBootstrapCompleted   = "com.modkit.bootstrap.completed"
	EventTypeBootstrapFailed      = "com.modkit.bootstrap.failed"
)

// Observer is notified of container events. Errors are logged and do not
// interrupt bootstrap.
type Observer interface {
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ObserverID identifies the observer in logs.
	ObserverID() string
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, event cloudevents.Event) error

// NewFuncObserver wraps fn as an Observer with the given id.
func NewFuncObserver(id string, fn ObserverFunc) Observer {
	return &funcObserver{id: id, fn: fn}
}

type funcObserver struct {
	id string
	fn ObserverFunc
}

func (o *funcObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return o.fn(ctx, event)
}

func (o *funcObserver) ObserverID() string { return o.id }

// NewCloudEvent creates an event with a time-ordered ID and JSON data.
func NewCloudEvent(eventType, source string, data any) cloudevents.Event {
	event := cloudevents.NewEvent()
	event.SetID(newEventID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)
	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}
	return event
}

func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}
