package user

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GoCodeAlone/modkit/config"
	"github.com/GoCodeAlone/modkit/internal/apperr"
	"github.com/GoCodeAlone/modkit/internal/i18n"
)

// maxBodyBytes bounds request bodies read by the controller.
const maxBodyBytes = 1 << 20

// Controller serves the user endpoints.
type Controller struct {
	service    *Service
	catalog    *i18n.Catalog
	production bool
}

func NewController(service *Service, catalog *i18n.Catalog, cfg *config.AppConfig) *Controller {
	return &Controller{service: service, catalog: catalog, production: cfg.Production}
}

// Mount registers GET /, GET /{id}, POST / and PUT /{id} on r.
func (c *Controller) Mount(r chi.Router) chi.Router {
	r.Get("/", c.list)
	r.Get("/{id}", c.get)
	r.Post("/", c.create)
	r.Put("/{id}", c.update)
	return r
}

type response struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
	Count   *int   `json:"count,omitempty"`
}

func (c *Controller) list(w http.ResponseWriter, r *http.Request) {
	lang := c.catalog.FromRequest(r)
	users, err := c.service.FindAll(r.Context())
	if err != nil {
		apperr.Write(w, err, c.production)
		return
	}
	count := len(users)
	apperr.WriteJSON(w, http.StatusOK, response{Message: c.catalog.T("foundAll", lang, nil), Data: users, Count: &count})
}

func (c *Controller) get(w http.ResponseWriter, r *http.Request) {
	lang := c.catalog.FromRequest(r)
	u, err := c.service.FindByID(r.Context(), chi.URLParam(r, "id"), lang)
	if err != nil {
		apperr.Write(w, err, c.production)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, response{Message: c.catalog.T("found", lang, nil), Data: u})
}

func (c *Controller) create(w http.ResponseWriter, r *http.Request) {
	lang := c.catalog.FromRequest(r)
	var in CreateUserInput
	if err := c.decode(w, r, &in, lang); err != nil {
		apperr.Write(w, err, c.production)
		return
	}
	u, err := c.service.Create(r.Context(), in, lang)
	if err != nil {
		apperr.Write(w, err, c.production)
		return
	}
	apperr.WriteJSON(w, http.StatusCreated, response{Message: c.catalog.T("created", lang, nil), Data: u})
}

func (c *Controller) update(w http.ResponseWriter, r *http.Request) {
	lang := c.catalog.FromRequest(r)
	var in UpdateUserInput
	if err := c.decode(w, r, &in, lang); err != nil {
		apperr.Write(w, err, c.production)
		return
	}
	u, err := c.service.Update(r.Context(), chi.URLParam(r, "id"), in, lang)
	if err != nil {
		apperr.Write(w, err, c.production)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, response{Message: c.catalog.T("updated", lang, nil), Data: u})
}

func (c *Controller) decode(w http.ResponseWriter, r *http.Request, v any, lang i18n.Language) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation(c.catalog.T("invalid", lang, nil), nil)
	}
	return nil
}
