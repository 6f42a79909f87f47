package app

import (
	"net/http"
	"reflect"

	"github.com/go-chi/chi/v5"

	"github.com/GoCodeAlone/modkit"
	"github.com/GoCodeAlone/modkit/health"
	"github.com/GoCodeAlone/modkit/internal/apperr"
	"github.com/GoCodeAlone/modkit/modules/user"
)

// Module is the application root. It imports every feature module and
// serves the health report at /health.
type Module struct{}

// HealthController reports the aggregated component health.
type HealthController struct {
	aggregator *health.Aggregator
}

func NewHealthController(aggregator *health.Aggregator) *HealthController {
	return &HealthController{aggregator: aggregator}
}

func (h *HealthController) Mount(r chi.Router) chi.Router {
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		report := h.aggregator.CheckAll(req.Context())
		status := http.StatusOK
		if report.Status == health.StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		apperr.WriteJSON(w, status, report)
	})
	return r
}

// Define declares the application module and every module it imports.
func Define(meta *modkit.Metadata) error {
	if err := user.Define(meta); err != nil {
		return err
	}
	if err := modkit.DefineController[HealthController](meta, NewHealthController,
		modkit.Inject(0, modkit.TokenFor[health.Aggregator]()),
	); err != nil {
		return err
	}
	return modkit.DefineModule[Module](meta, modkit.ModuleDescriptor{
		Controllers: []reflect.Type{modkit.TypeOf[HealthController]()},
		Routes:      []modkit.Route{modkit.RouteTo[HealthController]("/health")},
		Imports:     []reflect.Type{modkit.TypeOf[user.Module]()},
	})
}
