package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/domain"
	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/repository"
	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/repository/memory"
	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixedNow = time.Date(2024, 5, 14, 10, 30, 0, 0, time.UTC)

type stubDispatcher struct{ err error }

func (d stubDispatcher) Dispatch(context.Context, domain.RelancePayload) error { return d.err }
func (d stubDispatcher) Channel() string                                       { return "webhook" }

func newEngine(t *testing.T, dispatchErr error, dueDaysAgo int) (*gin.Engine, repository.Invoice) {
	t.Helper()
	store := memory.New()
	inv := store.PutInvoice(repository.Invoice{
		InvoiceNumber: "FAC-7",
		AccountID:     uuid.New(),
		DueDate:       time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -dueDaysAgo),
	})
	email := "billing@acme.test"
	store.PutRecipient(inv.ID, repository.Recipient{AccountName: "Acme", ContactEmail: &email})

	svc := service.New(store, stubDispatcher{err: dispatchErr}, nil, nil)
	svc.SetClock(func() time.Time { return fixedNow })

	engine := gin.New()
	New(svc).RegisterRoutes(engine.Group("/api/v1/invoices"))
	return engine, inv
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestPreviewRoute(t *testing.T) {
	engine, inv := newEngine(t, nil, 10)

	rec := serve(engine, http.MethodGet, "/api/v1/invoices/"+inv.ID.String()+"/dunning")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 2, body["escalationLevel"])
	assert.EqualValues(t, 10, body["daysOverdue"])
	assert.Equal(t, "2024-05-04", body["dueDate"])
}

func TestRelanceRoute(t *testing.T) {
	engine, inv := newEngine(t, nil, 3)

	rec := serve(engine, http.MethodPost, "/api/v1/invoices/"+inv.ID.String()+"/relance")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body["escalationLevel"])
	assert.Equal(t, "webhook", body["channel"])
}

func TestRelanceRouteErrors(t *testing.T) {
	engine, inv := newEngine(t, errors.New("down"), 3)
	rec := serve(engine, http.MethodPost, "/api/v1/invoices/"+inv.ID.String()+"/relance")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "dispatch_failed")

	engine, inv = newEngine(t, nil, 0)
	rec = serve(engine, http.MethodPost, "/api/v1/invoices/"+inv.ID.String()+"/relance")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_overdue")

	rec = serve(engine, http.MethodPost, "/api/v1/invoices/"+uuid.NewString()+"/relance")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(engine, http.MethodPost, "/api/v1/invoices/not-a-uuid/relance")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
