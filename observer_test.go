package modkit

import (
	"context"
	"errors"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCloudEvent(t *testing.T) {
	event := NewCloudEvent(EventTypeRouteBound, "test.source", map[string]any{"path": "/users"})

	assert.Equal(t, EventTypeRouteBound, event.Type())
	assert.Equal(t, "test.source", event.Source())
	assert.Equal(t, cloudevents.VersionV1, event.SpecVersion())
	assert.NotEmpty(t, event.ID())
	require.NoError(t, event.Validate())

	var data map[string]string
	require.NoError(t, event.DataAs(&data))
	assert.Equal(t, "/users", data["path"])

	other := NewCloudEvent(EventTypeRouteBound, "test.source", nil)
	assert.NotEqual(t, event.ID(), other.ID())
}

func TestObserverFailuresAreLogged(t *testing.T) {
	var seen []string
	ok := NewFuncObserver("ok", func(_ context.Context, event cloudevents.Event) error {
		seen = append(seen, event.Type())
		return nil
	})
	failing := NewFuncObserver("failing", func(context.Context, cloudevents.Event) error {
		return errors.New("sink unavailable")
	})
	assert.Equal(t, "failing", failing.ObserverID())

	logger := &recordingLogger{}
	c, err := NewContainer(WithLogger(logger), WithObservers(failing, ok), WithEventSource("test/app"))
	require.NoError(t, err)

	c.emit(context.Background(), EventTypeModuleProcessed, map[string]any{"module": "Root"})

	assert.Equal(t, []string{EventTypeModuleProcessed}, seen, "a failing observer does not stop delivery")
	assert.Equal(t, []string{"Observer failed to handle event"}, logger.messages("error"))
}
