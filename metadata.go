package modkit

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// ServiceInfo is what DefineService records about a type.
type ServiceInfo struct {
	Lifecycle Lifecycle
	// Token overrides the canonical TypeToken when set.
	Token Token
}

// Injection records that constructor parameter Index receives the
// instance registered under Token.
type Injection struct {
	Index int
	Token Token
}

// Metadata is the side table of declarations keyed by type identity:
// service info, constructor injections, constructors, controller markers
// and module descriptors.
//
// Entries are written once while the application declares its types and
// read many times afterwards. Injection lists are the exception: each
// Inject call appends to the list of its type.
type Metadata struct {
	mu           sync.RWMutex
	services     map[reflect.Type]ServiceInfo
	injections   map[reflect.Type][]Injection
	constructors map[reflect.Type]reflect.Value
	controllers  map[reflect.Type]struct{}
	modules      map[reflect.Type]ModuleDescriptor
}

// NewMetadata creates an empty metadata store.
func NewMetadata() *Metadata {
	return &Metadata{
		services:     make(map[reflect.Type]ServiceInfo),
		injections:   make(map[reflect.Type][]Injection),
		constructors: make(map[reflect.Type]reflect.Value),
		controllers:  make(map[reflect.Type]struct{}),
		modules:      make(map[reflect.Type]ModuleDescriptor),
	}
}

// SetServiceInfo marks t as a service.
func (m *Metadata) SetServiceInfo(t reflect.Type, info ServiceInfo) error {
	t = baseType(t)
	if info.Lifecycle == "" {
		info.Lifecycle = DefaultLifecycle
	}
	if !info.Lifecycle.IsValid() {
		return fmt.Errorf("%w: %s for %s", ErrInvalidLifecycle, info.Lifecycle, typeName(t))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.services[t]; exists {
		return fmt.Errorf("%w: service info for %s", ErrMetadataAlreadySet, typeName(t))
	}
	m.services[t] = info
	return nil
}

// ServiceInfo returns the service info recorded for t.
func (m *Metadata) ServiceInfo(t reflect.Type) (ServiceInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.services[baseType(t)]
	return info, ok
}

// AppendInjection adds one constructor parameter injection for t.
// Validation of the resulting list happens in RegisterClass.
func (m *Metadata) AppendInjection(t reflect.Type, index int, token Token) {
	t = baseType(t)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.injections[t] = append(m.injections[t], Injection{Index: index, Token: token})
}

// Injections returns a copy of t's injections in the order they were declared.
func (m *Metadata) Injections(t reflect.Type) []Injection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.injections[baseType(t)])
}

// SetConstructor records the function that builds t. The constructor must
// return t or *t, optionally followed by an error.
func (m *Metadata) SetConstructor(t reflect.Type, ctor any) error {
	t = baseType(t)
	fn := reflect.ValueOf(ctor)
	if err := checkConstructor(t, fn); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.constructors[t]; exists {
		return fmt.Errorf("%w: constructor for %s", ErrMetadataAlreadySet, typeName(t))
	}
	m.constructors[t] = fn
	return nil
}

// Constructor returns the constructor recorded for t.
func (m *Metadata) Constructor(t reflect.Type) (reflect.Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn, ok := m.constructors[baseType(t)]
	return fn, ok
}

// SetControllerMarker marks t as a controller.
func (m *Metadata) SetControllerMarker(t reflect.Type) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.controllers[baseType(t)] = struct{}{}
}

// IsController reports whether t carries the controller marker.
func (m *Metadata) IsController(t reflect.Type) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.controllers[baseType(t)]
	return ok
}

// SetModuleDescriptor attaches a module descriptor to t.
func (m *Metadata) SetModuleDescriptor(t reflect.Type, d ModuleDescriptor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.modules[t]; exists {
		return fmt.Errorf("%w: module descriptor for %s", ErrMetadataAlreadySet, typeName(t))
	}
	m.modules[t] = d.clone()
	return nil
}

// ModuleDescriptor returns the descriptor attached to t.
func (m *Metadata) ModuleDescriptor(t reflect.Type) (ModuleDescriptor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.modules[t]
	if !ok {
		return ModuleDescriptor{}, false
	}
	return d.clone(), true
}

// baseType strips pointers so *T and T share metadata.
func baseType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

var errorType = reflect.TypeFor[error]()

func checkConstructor(t reflect.Type, fn reflect.Value) error {
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return fmt.Errorf("%w: %s: constructor must be a non-nil function", ErrInvalidConstructor, typeName(t))
	}
	ft := fn.Type()
	if ft.IsVariadic() {
		return fmt.Errorf("%w: %s: variadic constructors are not supported", ErrInvalidConstructor, typeName(t))
	}
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return fmt.Errorf("%w: %s: second result must be error", ErrInvalidConstructor, typeName(t))
		}
	default:
		return fmt.Errorf("%w: %s: constructor must return the instance and optionally an error", ErrInvalidConstructor, typeName(t))
	}
	if baseType(ft.Out(0)) != t {
		return fmt.Errorf("%w: %s: constructor returns %s", ErrInvalidConstructor, typeName(t), ft.Out(0))
	}
	return nil
}
