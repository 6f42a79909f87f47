package modkit

import (
	"context"
	"fmt"
	"reflect"

	"github.com/go-chi/chi/v5"
)

// Bootstrap runs the whole startup sequence for the given root modules:
// ProcessModule for each root, Preload when eager singletons are enabled,
// CollectRoutes and BindRoutes onto router. It returns the bound routes.
//
// Any error aborts bootstrap; the router may then hold no routes from this
// call but the registry may be partially populated.
func (c *Container) Bootstrap(ctx context.Context, router chi.Router, roots ...reflect.Type) ([]Route, error) {
	routes, err := c.bootstrap(ctx, router, roots)
	if err != nil {
		c.logger.Error("Bootstrap failed", "error", err)
		c.emit(ctx, EventTypeBootstrapFailed, map[string]any{"error": err.Error()})
		return nil, err
	}
	c.logger.Info("Bootstrap completed", "modules", len(c.Processed()), "routes", len(routes), "tokens", len(c.registry.Tokens()))
	c.emit(ctx, EventTypeBootstrapCompleted, map[string]any{
		"modules": len(c.Processed()),
		"routes":  len(routes),
	})
	return routes, nil
}

func (c *Container) bootstrap(ctx context.Context, router chi.Router, roots []reflect.Type) ([]Route, error) {
	for _, root := range roots {
		if err := c.ProcessModule(ctx, root); err != nil {
			return nil, fmt.Errorf("processing module %s: %w", typeName(root), err)
		}
	}

	if c.eager {
		if err := c.registry.Preload(); err != nil {
			return nil, err
		}
	}

	routes, err := c.CollectRoutes(ctx, roots...)
	if err != nil {
		return nil, fmt.Errorf("collecting routes: %w", err)
	}

	if _, err := c.BindRoutes(ctx, router, routes); err != nil {
		return nil, fmt.Errorf("binding routes: %w", err)
	}
	return routes, nil
}
