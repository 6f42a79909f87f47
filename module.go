// Package modkit is a small dependency injection container with declarative
// modules.
//
// Types are declared once at startup: services and controllers with the
// dependency tokens their constructors take, modules with the providers,
// controllers, routes and imported modules they bundle. Bootstrap then
// registers everything reachable from a root module, flattens the module
// tree into a route table and mounts each controller on a chi sub-router.
//
// Basic usage:
//
//	meta := modkit.NewMetadata()
//	_ = modkit.DefineService[Greeter](meta, NewGreeter)
//	_ = modkit.DefineController[HelloController](meta, NewHelloController,
//		modkit.Inject(0, modkit.TokenFor[Greeter]()))
//	_ = modkit.DefineModule[AppModule](meta, modkit.ModuleDescriptor{
//		Providers:   []reflect.Type{modkit.TypeOf[Greeter]()},
//		Controllers: []reflect.Type{modkit.TypeOf[HelloController]()},
//		Routes:      []modkit.Route{modkit.RouteTo[HelloController]("/hello")},
//	})
//
//	c, _ := modkit.NewContainer(modkit.WithMetadata(meta))
//	router := chi.NewRouter()
//	if _, err := c.Bootstrap(ctx, router, modkit.TypeOf[AppModule]()); err != nil {
//		log.Fatal(err)
//	}
package modkit

import (
	"context"
	"fmt"
	"reflect"
	"slices"
)

// ModuleDescriptor is the declaration attached to a module type.
type ModuleDescriptor struct {
	// Providers are service types registered through RegisterClass.
	Providers []reflect.Type

	// Controllers are registered like providers and are expected to
	// implement Controller.
	Controllers []reflect.Type

	// Routes mount controllers under path prefixes.
	Routes []Route

	// Imports are other module types whose declarations are absorbed.
	Imports []reflect.Type
}

func (d ModuleDescriptor) clone() ModuleDescriptor {
	return ModuleDescriptor{
		Providers:   slices.Clone(d.Providers),
		Controllers: slices.Clone(d.Controllers),
		Routes:      slices.Clone(d.Routes),
		Imports:     slices.Clone(d.Imports),
	}
}

// ProcessModule registers the providers and controllers of module t and,
// recursively, of every module it imports.
//
// A module is processed again each time it is imported; registrations
// overwrite by token so the result is the same. An import that leads back
// to a module already on the current import path is skipped and reported
// as a cyclic import.
func (c *Container) ProcessModule(ctx context.Context, t reflect.Type) error {
	return c.processModule(ctx, t, nil)
}

func (c *Container) processModule(ctx context.Context, t reflect.Type, path []reflect.Type) error {
	d, ok := c.metadata.ModuleDescriptor(t)
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingModuleMetadata, typeName(t))
	}
	c.logger.Debug("Processing module", "module", typeName(t), "providers", len(d.Providers), "controllers", len(d.Controllers))

	for _, provider := range d.Providers {
		info, _ := c.metadata.ServiceInfo(provider)
		token := canonicalToken(baseType(provider), info)
		if err := c.claim(token, baseType(provider)); err != nil {
			return fmt.Errorf("module %s: provider %s: %w", typeName(t), typeName(provider), err)
		}
		if err := RegisterClass(c.registry, c.metadata, provider); err != nil {
			return fmt.Errorf("module %s: provider %s: %w", typeName(t), typeName(provider), err)
		}
		c.logger.Debug("Registered provider", "module", typeName(t), "token", token, "lifecycle", info.Lifecycle)
		c.emit(ctx, EventTypeServiceRegistered, map[string]any{
			"module":    typeName(t),
			"token":     token.String(),
			"lifecycle": info.Lifecycle.String(),
		})
	}

	for _, controller := range d.Controllers {
		token, err := c.registerController(controller)
		if err != nil {
			return fmt.Errorf("module %s: controller %s: %w", typeName(t), typeName(controller), err)
		}
		c.emit(ctx, EventTypeControllerRegistered, map[string]any{
			"module": typeName(t),
			"token":  token.String(),
		})
	}

	path = append(slices.Clip(path), t)
	for _, imported := range d.Imports {
		if slices.Contains(path, imported) {
			c.reportCycle(ctx, &CyclicImportError{Module: imported, Path: path})
			continue
		}
		if err := c.processModule(ctx, imported, path); err != nil {
			return err
		}
	}

	c.markProcessed(t)
	c.emit(ctx, EventTypeModuleProcessed, map[string]any{
		"module":  typeName(t),
		"imports": len(d.Imports),
		"routes":  len(d.Routes),
	})
	return nil
}

// registerController registers a controller type with the same
// injection-aware factory used for providers. Controllers declared without
// DefineController still register but get a warning.
func (c *Container) registerController(t reflect.Type) (Token, error) {
	t = baseType(t)
	if !c.metadata.IsController(t) {
		c.logger.Warn("Controller is not declared with DefineController", "controller", typeName(t))
	}

	info, ok := c.metadata.ServiceInfo(t)
	if !ok {
		info = ServiceInfo{Lifecycle: DefaultLifecycle}
	}
	factory, err := classFactory(c.metadata, t)
	if err != nil {
		return "", err
	}
	token := canonicalToken(t, info)
	if err := c.claim(token, t); err != nil {
		return "", err
	}
	if err := c.registry.Register(token, factory, info.Lifecycle); err != nil {
		return "", err
	}
	c.logger.Debug("Registered controller", "token", token, "lifecycle", info.Lifecycle)
	return token, nil
}

func (c *Container) reportCycle(ctx context.Context, cycle *CyclicImportError) {
	c.logger.Warn("Cyclic module import skipped", "module", typeName(cycle.Module), "error", cycle.Error())
	c.emit(ctx, EventTypeImportCycle, map[string]any{
		"module": typeName(cycle.Module),
		"cycle":  cycle.Error(),
	})
}

func (c *Container) markProcessed(t reflect.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !slices.Contains(c.processed, t) {
		c.processed = append(c.processed, t)
	}
}

// Processed returns the module types processed so far, in the order their
// processing completed.
func (c *Container) Processed() []reflect.Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.processed)
}
