package modkit

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Container errors
var (
	// Registry errors
	ErrNotRegistered      = errors.New("token not registered")
	ErrCircularDependency = errors.New("circular dependency detected")
	ErrFactoryNil         = errors.New("factory is nil")
	ErrInvalidLifecycle   = errors.New("invalid lifecycle")
	ErrTokenEmpty         = errors.New("token is empty")
	ErrTokenConflict      = errors.New("token claimed by another type")

	// Metadata errors
	ErrMetadataAlreadySet         = errors.New("metadata already set")
	ErrMissingServiceMetadata     = errors.New("type is not declared as a service")
	ErrMalformedInjectionMetadata = errors.New("malformed injection metadata")
	ErrMissingModuleMetadata      = errors.New("type is not declared as a module")
	ErrInvalidConstructor         = errors.New("invalid constructor")
	ErrDependencyIncompatible     = errors.New("resolved dependency cannot be assigned to constructor parameter")

	// Module and routing errors
	ErrCyclicImport  = errors.New("module imports itself")
	ErrNotController = errors.New("resolved instance does not implement Controller")
	ErrRouterNil     = errors.New("router is nil")
)

// NotRegisteredError is returned when a token with no registration is resolved.
type NotRegisteredError struct {
	Token Token
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("%s: %q", ErrNotRegistered, string(e.Token))
}

func (e *NotRegisteredError) Unwrap() error { return ErrNotRegistered }

// CircularDependencyError is returned when resolving a token needs that
// token again. Chain lists the tokens from the first request to the
// repeated one.
type CircularDependencyError struct {
	Chain []Token
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCircularDependency, formatChain(e.Chain))
}

func (e *CircularDependencyError) Unwrap() error { return ErrCircularDependency }

// MissingServiceMetadataError is returned when a type is registered as a
// provider without having been declared through DefineService or
// DefineController.
type MissingServiceMetadataError struct {
	Type reflect.Type
}

func (e *MissingServiceMetadataError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingServiceMetadata, typeName(e.Type))
}

func (e *MissingServiceMetadataError) Unwrap() error { return ErrMissingServiceMetadata }

// MalformedInjectionMetadataError reports a gap, a duplicate or an arity
// mismatch in a constructor's injection descriptor.
type MalformedInjectionMetadataError struct {
	Type   reflect.Type
	Index  int
	Reason string
}

func (e *MalformedInjectionMetadataError) Error() string {
	return fmt.Sprintf("%s: %s parameter %d: %s", ErrMalformedInjectionMetadata, typeName(e.Type), e.Index, e.Reason)
}

func (e *MalformedInjectionMetadataError) Unwrap() error { return ErrMalformedInjectionMetadata }

// CyclicImportError describes an import path that leads back to a module
// already on it. It is reported through the logger and observers, never
// returned from bootstrap.
type CyclicImportError struct {
	Module reflect.Type
	Path   []reflect.Type
}

func (e *CyclicImportError) Error() string {
	names := make([]string, 0, len(e.Path)+1)
	for _, t := range e.Path {
		names = append(names, typeName(t))
	}
	names = append(names, typeName(e.Module))
	return fmt.Sprintf("%s: %s", ErrCyclicImport, strings.Join(names, " -> "))
}

func (e *CyclicImportError) Unwrap() error { return ErrCyclicImport }

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
