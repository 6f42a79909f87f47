package modkit

import (
	"reflect"
)

// ServiceOption configures a service or controller declaration.
type ServiceOption func(*declaration)

type declaration struct {
	info       ServiceInfo
	injections []Injection
}

// WithLifecycle sets the lifecycle. Singleton is the default.
func WithLifecycle(l Lifecycle) ServiceOption {
	return func(d *declaration) {
		d.info.Lifecycle = l
	}
}

// WithToken registers the type under token instead of its TypeToken. Use
// it to bind an implementation to an interface token:
//
//	modkit.DefineService[MemoryRepository](meta, NewMemoryRepository,
//		modkit.WithToken(modkit.TokenFor[Repository]()))
func WithToken(token Token) ServiceOption {
	return func(d *declaration) {
		d.info.Token = token
	}
}

// Inject declares that constructor parameter index receives the instance
// registered under token. Every parameter needs exactly one Inject.
func Inject(index int, token Token) ServiceOption {
	return func(d *declaration) {
		d.injections = append(d.injections, Injection{Index: index, Token: token})
	}
}

// DefineService declares T as injectable. ctor builds T from its injected
// dependencies, in parameter order; a nil ctor means T is built as its zero
// value and may not declare injections.
//
//	modkit.DefineService[Service](meta, NewService,
//		modkit.Inject(0, modkit.TokenFor[Repository]()),
//		modkit.Inject(1, modkit.TokenFor[i18n.Catalog]()))
func DefineService[T any](meta *Metadata, ctor any, opts ...ServiceOption) error {
	return define(meta, reflect.TypeFor[T](), ctor, opts)
}

// DefineController declares T as injectable and marks it as a controller.
func DefineController[T any](meta *Metadata, ctor any, opts ...ServiceOption) error {
	t := reflect.TypeFor[T]()
	if err := define(meta, t, ctor, opts); err != nil {
		return err
	}
	meta.SetControllerMarker(t)
	return nil
}

// DefineModule attaches a module descriptor to T. T is usually an empty
// struct that exists only to name the module.
func DefineModule[T any](meta *Metadata, d ModuleDescriptor) error {
	return meta.SetModuleDescriptor(reflect.TypeFor[T](), d)
}

func define(meta *Metadata, t reflect.Type, ctor any, opts []ServiceOption) error {
	d := &declaration{}
	for _, opt := range opts {
		opt(d)
	}
	if ctor != nil {
		if err := checkConstructor(baseType(t), reflect.ValueOf(ctor)); err != nil {
			return err
		}
	}
	if err := meta.SetServiceInfo(t, d.info); err != nil {
		return err
	}
	if ctor != nil {
		if err := meta.SetConstructor(t, ctor); err != nil {
			return err
		}
	}
	for _, inj := range d.injections {
		meta.AppendInjection(t, inj.Index, inj.Token)
	}
	return nil
}
