package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	_ "github.com/qrstock/qrstock/testing"
)

func newTestRouter() (http.Handler, *memoryRepo, *memoryActivity) {
	repo := newMemoryRepo()
	act := &memoryActivity{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(repo, act, NewCodeGenerator("QR")))
	r := chi.NewRouter()
	r.Route("/products", handler.MountRoutes)
	return r, repo, act
}

func TestHandleCreate(t *testing.T) {
	router, _, _ := newTestRouter()

	body := `{"name":"Projector","category":"AV","quantity":4,"unit":"pcs","import_date":"2025-08-15"}`
	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var product Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &product))
	require.Regexp(t, `^QR-\d{8}-\d{6}$`, product.Code)
	require.Equal(t, int64(4), product.Quantity)
}

func TestHandleCreateValidation(t *testing.T) {
	router, _, _ := newTestRouter()

	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"quantity":1}`},
		{"negative quantity", `{"name":"Cable","quantity":-1}`},
		{"bad import date", `{"name":"Cable","import_date":"15/08/2025"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleUpdateRejectsQuantity(t *testing.T) {
	router, repo, _ := newTestRouter()
	created := createViaAPI(t, router, `{"name":"Projector","quantity":10}`)

	// Quantity is not an editable catalog field; the only path that moves
	// stock is the mutation engine.
	body := `{"name":"Projector XD","quantity":999}`
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/products/%d", created.ID), strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, int64(10), repo.products[created.ID].Quantity)
	require.Equal(t, "Projector", repo.products[created.ID].Name)
}

func TestHandleUpdate(t *testing.T) {
	router, _, _ := newTestRouter()
	created := createViaAPI(t, router, `{"name":"Projector"}`)

	body := `{"name":"Projector XD","unit":"pcs"}`
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/products/%d", created.ID), strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var updated Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, "Projector XD", updated.Name)
	require.Equal(t, "pcs", updated.Unit)
}

func TestHandleLookupByCode(t *testing.T) {
	router, _, _ := newTestRouter()
	created := createViaAPI(t, router, `{"name":"Projector"}`)

	req := httptest.NewRequest(http.MethodGet, "/products/lookup?code="+created.Code, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, created.ID, got.ID)
}

func TestHandleLookupUnknownCode(t *testing.T) {
	router, _, _ := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/products/lookup?code=QR-20250901-999999", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleQRCode(t *testing.T) {
	router, _, _ := newTestRouter()
	created := createViaAPI(t, router, `{"name":"Projector"}`)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/products/%d/qrcode", created.ID), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	// PNG signature.
	require.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))
}

func TestHandleDelete(t *testing.T) {
	router, repo, _ := newTestRouter()
	created := createViaAPI(t, router, `{"name":"Projector"}`)

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/products/%d", created.ID), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, repo.products)
}

func createViaAPI(t *testing.T, router http.Handler, body string) Product {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var product Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &product))
	return product
}
