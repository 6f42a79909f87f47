package modkit

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ErrMetadataNil is returned by WithMetadata(nil).
var ErrMetadataNil = errors.New("metadata is nil")

// Option represents a functional option for configuring a Container.
type Option func(*Container) error

// Container ties a Registry to the Metadata it is populated from and runs
// module processing, route collection and route binding against them.
type Container struct {
	registry  *Registry
	metadata  *Metadata
	logger    Logger
	observers []Observer
	metrics   *Metrics
	eager     bool
	source    string

	mu        sync.Mutex
	processed []reflect.Type
	owners    map[Token]reflect.Type
}

// NewContainer creates a container. Without options it has its own empty
// Metadata, a NopLogger and no metrics.
func NewContainer(opts ...Option) (*Container, error) {
	c := &Container{
		logger: NopLogger{},
		source: DefaultEventSource,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.metadata == nil {
		c.metadata = NewMetadata()
	}

	var registryOpts []RegistryOption
	if c.metrics != nil {
		registryOpts = append(registryOpts, WithResolveHook(c.metrics.observe))
	}
	c.registry = NewRegistry(registryOpts...)
	return c, nil
}

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Container) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// WithMetadata sets the metadata store declarations are read from.
func WithMetadata(meta *Metadata) Option {
	return func(c *Container) error {
		if meta == nil {
			return ErrMetadataNil
		}
		c.metadata = meta
		return nil
	}
}

// WithObservers registers observers notified of container events.
func WithObservers(observers ...Observer) Option {
	return func(c *Container) error {
		c.observers = append(c.observers, observers...)
		return nil
	}
}

// WithEventSource sets the CloudEvents source attribute of emitted events.
func WithEventSource(source string) Option {
	return func(c *Container) error {
		if source != "" {
			c.source = source
		}
		return nil
	}
}

// WithMetrics registers resolution metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Container) error {
		m, err := NewMetrics(reg)
		if err != nil {
			return err
		}
		c.metrics = m
		return nil
	}
}

// WithEagerSingletons makes Bootstrap resolve every singleton before
// binding routes.
func WithEagerSingletons(eager bool) Option {
	return func(c *Container) error {
		c.eager = eager
		return nil
	}
}

// Registry returns the container's registry.
func (c *Container) Registry() *Registry { return c.registry }

// Metadata returns the container's metadata store.
func (c *Container) Metadata() *Metadata { return c.metadata }

// Logger returns the container's logger.
func (c *Container) Logger() Logger { return c.logger }

// Register is shorthand for Registry().Register.
func (c *Container) Register(token Token, factory Factory, lifecycle ...Lifecycle) error {
	return c.registry.Register(token, factory, lifecycle...)
}

// RegisterValue is shorthand for Registry().RegisterValue.
func (c *Container) RegisterValue(token Token, value any) error {
	return c.registry.RegisterValue(token, value)
}

// Resolve is shorthand for Registry().Resolve.
func (c *Container) Resolve(token Token) (any, error) {
	return c.registry.Resolve(token)
}

// Reset clears the registry and forgets processed modules. Metadata is
// kept, so the same declarations can be bootstrapped again.
func (c *Container) Reset() {
	c.registry.Clear()
	c.mu.Lock()
	c.processed = nil
	c.owners = nil
	c.mu.Unlock()
}

// claim records t as the type registered under token. Types that share a
// name across packages share a TypeToken; the second one to claim it
// fails instead of replacing the first.
func (c *Container) claim(token Token, t reflect.Type) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if owner, ok := c.owners[token]; ok && owner != t {
		return fmt.Errorf("%w: %s is registered for %s, not %s", ErrTokenConflict, token, typeName(owner), typeName(t))
	}
	if c.owners == nil {
		c.owners = make(map[Token]reflect.Type)
	}
	c.owners[token] = t
	return nil
}

func (c *Container) emit(ctx context.Context, eventType string, data map[string]any) {
	if len(c.observers) == 0 {
		return
	}
	event := NewCloudEvent(eventType, c.source, data)
	for _, observer := range c.observers {
		if err := observer.OnEvent(ctx, event); err != nil {
			c.logger.Error("Observer failed to handle event", "observer", observer.ObserverID(), "event", eventType, "error", err)
		}
	}
}
