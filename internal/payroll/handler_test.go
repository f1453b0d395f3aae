package payroll

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"geoattend-backend/internal/platform/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(svc *Service) *gin.Engine {
	r := gin.New()
	g := r.Group("/api/admin", func(c *gin.Context) {
		c.Set(auth.CtxUserIDKey, "A1")
		c.Set(auth.CtxRoleKey, auth.RoleAdmin)
	})
	RegisterAdminRoutes(g, svc, zap.NewNop())
	return r
}

func do(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, &buf))
	return w
}

func TestHandler_Lifecycle(t *testing.T) {
	f := newFixture()
	r := newRouter(f.svc)

	w := do(r, http.MethodPost, "/api/admin/paysheets/generate", map[string]any{
		"periodStart": "2026-02-01", "periodEnd": "2026-02-28",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Paysheet struct {
			ID          string `json:"id"`
			GeneratedBy string `json:"generatedBy"`
			Status      string `json:"status"`
			Entries     []map[string]any
		} `json:"paysheet"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "A1", created.Paysheet.GeneratedBy)
	assert.Equal(t, "draft", created.Paysheet.Status)
	assert.Len(t, created.Paysheet.Entries, 2)
	id := created.Paysheet.ID

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/admin/paysheets/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/admin/paysheets/nope", nil).Code)

	w = do(r, http.MethodGet, "/api/admin/paysheets?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.EqualValues(t, 1, list.Total)
	assert.Equal(t, 5, list.Limit)

	w = do(r, http.MethodPatch, "/api/admin/paysheets/"+id, map[string]string{"status": "processed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"processed"`)

	w = do(r, http.MethodPatch, "/api/admin/paysheets/"+id, map[string]string{"status": "processed"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ALREADY_PROCESSED")
}

func TestHandler_GenerateValidation(t *testing.T) {
	r := newRouter(newFixture().svc)

	w := do(r, http.MethodPost, "/api/admin/paysheets/generate", map[string]any{"periodStart": "2026-02-01"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/admin/paysheets/generate", map[string]any{
		"periodStart": "2026-02-10", "periodEnd": "2026-02-01",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_ARGUMENT")
}

func TestHandler_Export(t *testing.T) {
	f := newFixture()
	r := newRouter(f.svc)
	w := do(r, http.MethodPost, "/api/admin/paysheets/generate", map[string]any{
		"periodStart": "2026-02-01", "periodEnd": "2026-02-28",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodGet, "/api/admin/paysheets/PS-1/export?format=xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "paysheet_2026-02-01_2026-02-28.xlsx")

	w = do(r, http.MethodGet, "/api/admin/paysheets/PS-1/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")

	w = do(r, http.MethodGet, "/api/admin/paysheets/PS-1/export?format=docx", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_FORMAT")
}
