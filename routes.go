package modkit

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Controller is implemented by types that register endpoints on a router
// scope they do not own.
type Controller interface {
	// Mount registers the controller's handlers on r, which is already
	// scoped to the route's path prefix, and returns it.
	Mount(r chi.Router) chi.Router
}

// Route mounts the controller registered under Controller at Path.
//
// Type, when set, names the controller by its Go type instead. It is
// mapped to the token the type was declared with, so routes built with
// RouteTo follow WithToken. Collected routes carry the mapped token and
// no Type.
type Route struct {
	Path       string
	Controller Token
	Type       reflect.Type
}

// RouteTo builds a Route for controller type T.
func RouteTo[T any](path string) Route {
	return Route{Path: path, Controller: TokenFor[T](), Type: TypeOf[T]()}
}

// resolved returns route with Controller set to the declared token of
// route.Type.
func (c *Container) resolved(route Route) Route {
	if route.Type == nil {
		return route
	}
	t := baseType(route.Type)
	info, _ := c.metadata.ServiceInfo(t)
	return Route{Path: route.Path, Controller: canonicalToken(t, info)}
}

// CollectRoutes flattens the routes of modules and their imports into one
// list. Traversal is depth first: a module's own routes come before those
// of its imports, in declaration order. Duplicate prefixes are kept.
//
// An import that leads back to a module on the current path is not
// descended into; its routes were already emitted when it was first
// entered.
func (c *Container) CollectRoutes(ctx context.Context, modules ...reflect.Type) ([]Route, error) {
	var routes []Route
	for _, m := range modules {
		if err := c.collect(ctx, m, nil, &routes); err != nil {
			return nil, err
		}
	}
	return routes, nil
}

func (c *Container) collect(ctx context.Context, t reflect.Type, path []reflect.Type, out *[]Route) error {
	d, ok := c.metadata.ModuleDescriptor(t)
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingModuleMetadata, typeName(t))
	}
	for _, route := range d.Routes {
		*out = append(*out, c.resolved(route))
	}

	path = append(slices.Clip(path), t)
	for _, imported := range d.Imports {
		if slices.Contains(path, imported) {
			c.reportCycle(ctx, &CyclicImportError{Module: imported, Path: path})
			continue
		}
		if err := c.collect(ctx, imported, path, out); err != nil {
			return err
		}
	}
	return nil
}

// BindRoutes resolves the controller of every route and mounts it on a
// sub-router of router scoped to the route's path. Routes sharing a prefix
// share one sub-router; controllers are mounted in route order, so on
// conflicting patterns the router's own precedence rules apply.
//
// All controllers are resolved before anything is mounted. A route whose
// controller was never registered fails with a NotRegisteredError.
func (c *Container) BindRoutes(ctx context.Context, router chi.Router, routes []Route) (chi.Router, error) {
	if router == nil {
		return nil, ErrRouterNil
	}

	type group struct {
		prefix      string
		controllers []Controller
		tokens      []Token
	}
	var groups []*group
	byPrefix := make(map[string]*group)

	for _, route := range routes {
		route = c.resolved(route)
		instance, err := c.registry.Resolve(route.Controller)
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", route.Path, err)
		}
		controller, ok := instance.(Controller)
		if !ok {
			return nil, fmt.Errorf("route %s: %w: %s is %T", route.Path, ErrNotController, route.Controller, instance)
		}

		prefix := normalizePrefix(route.Path)
		g, exists := byPrefix[prefix]
		if !exists {
			g = &group{prefix: prefix}
			byPrefix[prefix] = g
			groups = append(groups, g)
		}
		g.controllers = append(g.controllers, controller)
		g.tokens = append(g.tokens, route.Controller)
	}

	for _, g := range groups {
		router.Route(g.prefix, func(sub chi.Router) {
			for _, controller := range g.controllers {
				controller.Mount(sub)
			}
		})
		for _, token := range g.tokens {
			c.logger.Info("Mounted controller", "path", g.prefix, "controller", token)
			c.emit(ctx, EventTypeRouteBound, map[string]any{
				"path":       g.prefix,
				"controller": token.String(),
			})
		}
	}
	return router, nil
}

func normalizePrefix(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}
