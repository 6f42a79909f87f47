package modkit

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
)

// Factory builds an instance on demand. The resolver lets the factory
// resolve its own dependencies from the same registry; a factory that needs
// nothing simply ignores it.
//
// Dependencies must be resolved through r. A factory that calls back into
// the Registry directly starts an unrelated resolution, so a cycle through
// it blocks instead of failing with ErrCircularDependency.
type Factory func(r Resolver) (any, error)

// Resolver resolves tokens to instances.
type Resolver interface {
	Resolve(token Token) (any, error)
}

// Registration is a stored factory and the lifecycle it was declared with.
type Registration struct {
	Token     Token
	Factory   Factory
	Lifecycle Lifecycle
}

// Resolution outcomes reported to a ResolveHook.
const (
	OutcomeCreated = "created"
	OutcomeCached  = "cached"
	OutcomeFailed  = "failed"
)

// ResolveHook observes every top-level and nested resolution. The duration
// is the time spent inside the factory and is zero for cached results.
type ResolveHook func(token Token, lifecycle Lifecycle, outcome string, took time.Duration)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithResolveHook installs a hook called after each resolution.
func WithResolveHook(hook ResolveHook) RegistryOption {
	return func(r *Registry) {
		r.hook = hook
	}
}

// Registry maps tokens to factories and caches singleton instances.
//
// Registration is expected to happen during startup from a single
// goroutine. Resolve is safe for concurrent use: a singleton factory runs
// once at a time and every caller observes the same instance.
type Registry struct {
	mu      sync.RWMutex
	entries map[Token]*entry
	hook    ResolveHook
}

// entry state is guarded by Registry.mu. While a singleton factory runs,
// builder is the resolution running it and done is closed when it returns.
type entry struct {
	Registration

	resolved bool
	instance any
	builder  *resolution
	done     chan struct{}
}

// resolution is one top-level Resolve call together with the nested
// resolutions its factories make. waiting is the entry it is blocked on,
// if any.
type resolution struct {
	waiting *entry
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: make(map[Token]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register stores a factory under token, replacing any previous
// registration and its cached instance. The factory is not invoked.
// Lifecycle defaults to Singleton.
func (r *Registry) Register(token Token, factory Factory, lifecycle ...Lifecycle) error {
	if token == "" {
		return ErrTokenEmpty
	}
	if factory == nil {
		return fmt.Errorf("%w: %s", ErrFactoryNil, token)
	}
	l := DefaultLifecycle
	if len(lifecycle) > 0 && lifecycle[0] != "" {
		l = lifecycle[0]
	}
	if !l.IsValid() {
		return fmt.Errorf("%w: %s for %s", ErrInvalidLifecycle, l, token)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[token] = &entry{Registration: Registration{Token: token, Factory: factory, Lifecycle: l}}
	return nil
}

// RegisterValue registers an already built instance as a singleton.
func (r *Registry) RegisterValue(token Token, value any) error {
	return r.Register(token, func(Resolver) (any, error) { return value, nil }, Singleton)
}

// Resolve returns the instance for token, running its factory when no
// cached singleton exists. Factory errors are returned unchanged and
// nothing is cached for them.
//
// Concurrent callers of a singleton under construction wait for it. When
// that wait would close a loop between resolutions blocked on each other,
// the caller fails with a CircularDependencyError instead.
func (r *Registry) Resolve(token Token) (any, error) {
	return r.resolve(token, nil, &resolution{})
}

func (r *Registry) resolve(token Token, path []Token, res *resolution) (any, error) {
	chain := append(slices.Clip(path), token)
	if slices.Contains(path, token) {
		return nil, &CircularDependencyError{Chain: chain}
	}
	next := chainResolver{registry: r, path: chain, res: res}

	r.mu.Lock()
	e, ok := r.entries[token]
	for ok && e.Lifecycle == Singleton && !e.resolved && e.builder != nil {
		if r.blockedOn(e.builder, res) {
			r.mu.Unlock()
			return nil, &CircularDependencyError{Chain: chain}
		}
		done := e.done
		res.waiting = e
		r.mu.Unlock()
		<-done
		r.mu.Lock()
		res.waiting = nil
		e, ok = r.entries[token]
	}
	if !ok {
		r.mu.Unlock()
		return nil, &NotRegisteredError{Token: token}
	}
	if e.Lifecycle != Singleton {
		r.mu.Unlock()
		return r.invoke(e, next)
	}
	if e.resolved {
		instance := e.instance
		r.mu.Unlock()
		r.report(e, OutcomeCached, 0)
		return instance, nil
	}
	e.builder = res
	e.done = make(chan struct{})
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		e.builder = nil
		close(e.done)
		r.mu.Unlock()
	}()
	instance, err := r.invoke(e, next)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	e.instance = instance
	e.resolved = true
	r.mu.Unlock()
	return instance, nil
}

// blockedOn reports whether owner is, directly or through the builders it
// waits on, waiting for res. Callers hold r.mu.
func (r *Registry) blockedOn(owner, res *resolution) bool {
	for seen := 0; owner != nil && seen <= len(r.entries); seen++ {
		if owner == res {
			return true
		}
		if owner.waiting == nil {
			return false
		}
		owner = owner.waiting.builder
	}
	return false
}

func (r *Registry) invoke(e *entry, next Resolver) (any, error) {
	start := time.Now()
	instance, err := e.Factory(next)
	if err != nil {
		r.report(e, OutcomeFailed, time.Since(start))
		return nil, err
	}
	r.report(e, OutcomeCreated, time.Since(start))
	return instance, nil
}

func (r *Registry) report(e *entry, outcome string, took time.Duration) {
	if r.hook != nil {
		r.hook(e.Token, e.Lifecycle, outcome, took)
	}
}

// Has reports whether token is registered.
func (r *Registry) Has(token Token) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[token]
	return ok
}

// Lifecycle returns the lifecycle token was registered with.
func (r *Registry) Lifecycle(token Token) (Lifecycle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[token]
	if !ok {
		return "", false
	}
	return e.Lifecycle, true
}

// Tokens returns all registered tokens in sorted order.
func (r *Registry) Tokens() []Token {
	r.mu.RLock()
	tokens := make([]Token, 0, len(r.entries))
	for token := range r.entries {
		tokens = append(tokens, token)
	}
	r.mu.RUnlock()
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })
	return tokens
}

// Preload resolves every singleton registration in token order. Calling it
// once at startup, before traffic, means no request ever runs a singleton
// factory.
func (r *Registry) Preload() error {
	for _, token := range r.Tokens() {
		if l, ok := r.Lifecycle(token); !ok || l != Singleton {
			continue
		}
		if _, err := r.Resolve(token); err != nil {
			return fmt.Errorf("preloading %s: %w", token, err)
		}
	}
	return nil
}

// Clear drops every registration and cached instance. It is meant for
// process reset between tests and must not run while requests are served.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[Token]*entry)
}

// chainResolver carries the tokens currently being resolved so a factory
// that depends on itself fails instead of recursing.
type chainResolver struct {
	registry *Registry
	path     []Token
	res      *resolution
}

func (c chainResolver) Resolve(token Token) (any, error) {
	return c.registry.resolve(token, c.path, c.res)
}

// Resolve resolves token and asserts the instance to T.
func Resolve[T any](r Resolver, token Token) (T, error) {
	var zero T
	instance, err := r.Resolve(token)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T, not %s", ErrDependencyIncompatible, token, instance, TokenFor[T]())
	}
	return typed, nil
}

// MustResolve is Resolve that panics on error. Use it only where a failure
// means the process cannot start.
func MustResolve[T any](r Resolver, token Token) T {
	v, err := Resolve[T](r, token)
	if err != nil {
		panic(err)
	}
	return v
}

func formatChain(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = string(t)
	}
	return strings.Join(parts, " -> ")
}
