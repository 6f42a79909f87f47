package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/GoCodeAlone/modkit"
	"github.com/GoCodeAlone/modkit/config"
	"github.com/GoCodeAlone/modkit/internal/i18n"
)

type envelope struct {
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Count   *int              `json:"count"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

func newUserRouter(t *testing.T) chi.Router {
	t.Helper()
	meta := modkit.NewMetadata()
	require.NoError(t, Define(meta))

	c, err := modkit.NewContainer(modkit.WithMetadata(meta))
	require.NoError(t, err)
	require.NoError(t, c.RegisterValue(RepositoryToken, NewMemoryRepository()))
	require.NoError(t, c.RegisterValue(modkit.TokenFor[i18n.Catalog](), i18n.NewCatalog(i18n.Vietnamese)))
	require.NoError(t, c.RegisterValue(modkit.TokenFor[config.AppConfig](), config.Default()))

	router := chi.NewRouter()
	routes, err := c.Bootstrap(context.Background(), router, modkit.TypeOf[Module]())
	require.NoError(t, err)
	require.Equal(t, []modkit.Route{{Path: "/users", Controller: ControllerToken}}, routes)

	svc, err := modkit.Resolve[*Service](c.Registry(), ServiceToken)
	require.NoError(t, err)
	svc.cost = bcrypt.MinCost
	return router
}

func call(t *testing.T, h http.Handler, method, path, body, lang string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if lang != "" {
		req.Header.Set("Accept-Language", lang)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestController(t *testing.T) {
	router := newUserRouter(t)

	code, env := call(t, router, http.MethodGet, "/users", "", "en")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Users retrieved successfully", env.Message)
	require.NotNil(t, env.Count)
	assert.Equal(t, 0, *env.Count)
	assert.JSONEq(t, `[]`, string(env.Data))

	code, env = call(t, router, http.MethodPost, "/users", `{"email":"a@example.com","name":"Alice","password":"secret1"}`, "en")
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "User created successfully", env.Message)
	var created map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "a@example.com", created["email"])
	assert.NotContains(t, created, "passwordHash")
	assert.NotContains(t, created, "PasswordHash")
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	code, env = call(t, router, http.MethodGet, "/users/"+id, "", "vi")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Tìm thấy người dùng", env.Message)

	code, env = call(t, router, http.MethodPut, "/users/"+id, `{"name":"Alicia"}`, "en-US,en;q=0.9")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "User updated successfully", env.Message)
	assert.Contains(t, string(env.Data), `"Alicia"`)

	code, env = call(t, router, http.MethodGet, "/users", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Lấy danh sách người dùng thành công", env.Message, "catalog default applies without Accept-Language")
	assert.Equal(t, 1, *env.Count)
}

func TestControllerErrors(t *testing.T) {
	router := newUserRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		lang       string
		wantStatus int
		wantCode   string
		wantFields map[string]string
	}{
		{
			name:       "missing_user",
			method:     http.MethodGet,
			path:       "/users/nope",
			lang:       "en",
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "malformed_json",
			method:     http.MethodPost,
			path:       "/users",
			body:       `{"email":`,
			lang:       "en",
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "empty_body_reports_required_fields",
			method:     http.MethodPost,
			path:       "/users",
			lang:       "en",
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
			wantFields: map[string]string{
				"email":    "Field 'Email' is required",
				"password": "Field 'Password' is required",
			},
		},
		{
			name:       "update_missing_user",
			method:     http.MethodPut,
			path:       "/users/nope",
			body:       `{"name":"x"}`,
			lang:       "vi",
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := call(t, router, tt.method, tt.path, tt.body, tt.lang)
			assert.Equal(t, tt.wantStatus, code)
			assert.Equal(t, tt.wantCode, env.Error)
			assert.NotEmpty(t, env.Message)
			if tt.wantFields != nil {
				assert.Equal(t, tt.wantFields, env.Fields)
			}
		})
	}
}
