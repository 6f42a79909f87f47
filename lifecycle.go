package modkit

import "fmt"

// Lifecycle defines how many instances of a registration exist and how
// long they are cached.
type Lifecycle string

const (
	// Singleton creates one instance on first resolution and returns that
	// same instance for the lifetime of the Registry.
	Singleton Lifecycle = "singleton"

	// Transient runs the factory on every resolution. Nothing is cached.
	Transient Lifecycle = "transient"
)

// DefaultLifecycle is used when a registration or declaration does not name one.
const DefaultLifecycle = Singleton

// String returns the string representation of the lifecycle.
func (l Lifecycle) String() string {
	return string(l)
}

// IsValid returns true if the lifecycle is one of the defined constants.
func (l Lifecycle) IsValid() bool {
	switch l {
	case Singleton, Transient:
		return true
	default:
		return false
	}
}

// IsCacheable reports whether resolved instances are kept in the
// registry's instance cache.
func (l Lifecycle) IsCacheable() bool {
	return l == Singleton
}

// ParseLifecycle parses a string into a Lifecycle. The empty string yields
// DefaultLifecycle.
func ParseLifecycle(s string) (Lifecycle, error) {
	if s == "" {
		return DefaultLifecycle, nil
	}
	l := Lifecycle(s)
	if !l.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidLifecycle, s)
	}
	return l, nil
}
