package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/hugohenrick/pdv-sync/internal/adapter/api/dto"
	"github.com/hugohenrick/pdv-sync/internal/domain/product"
	"github.com/hugohenrick/pdv-sync/internal/domain/sale"
	"github.com/hugohenrick/pdv-sync/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(Config{
		BaseURL:              url,
		Token:                "token",
		Timeout:              time.Second,
		MaxRetries:           2,
		RetryInitialInterval: time.Millisecond,
	}, logger.NewNop())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestRecordSale_SendsRequestAndDecodesReceipt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/sales", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		var req dto.RecordSaleRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "chave", req.IdempotencyKey)
		assert.EqualValues(t, 3, req.Quantity)

		writeJSON(w, http.StatusCreated, dto.SaleReceiptResponse{TransactionID: "t1", RemainingStock: 2})
	}))
	defer srv.Close()

	receipt, err := newTestClient(srv.URL).RecordSale(context.Background(), SaleRequest{
		ProductID: "p1", UserID: "u1", Quantity: 3, IdempotencyKey: "chave",
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", receipt.TransactionID)
	assert.EqualValues(t, 2, receipt.RemainingStock)
}

func TestRecordSale_MapsRejectionReason(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusConflict, dto.NewDomainErrorResponse(sale.ErrInsufficientStock))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).RecordSale(context.Background(), SaleRequest{ProductID: "p1", UserID: "u1", Quantity: 1, IdempotencyKey: "k"})
	assert.ErrorIs(t, err, sale.ErrInsufficientStock)
	assert.NotErrorIs(t, err, ErrTransient)
	assert.EqualValues(t, 1, calls.Load())
}

func TestDo_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, []dto.ProductResponse{{ID: "p1", Name: "Leite"}})
	}))
	defer srv.Close()

	products, err := newTestClient(srv.URL).ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Leite", products[0].Name)
	assert.EqualValues(t, 3, calls.Load())
}

func TestDo_GivesUpAsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).DeleteProduct(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrTransient)
}

func TestDo_NetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := newTestClient(url).Ping(context.Background())
	assert.ErrorIs(t, err, ErrTransient)
}

func TestCreateProduct_NotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	name := "Leite"
	_, err := newTestClient(srv.URL).CreateProduct(context.Background(), product.Draft{Name: &name})
	assert.ErrorIs(t, err, ErrTransient)
	assert.EqualValues(t, 1, calls.Load())
}

func TestUnknownReasonIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Dados inválidos", ""))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).UpdateProduct(context.Background(), "p1", product.Draft{})
	assert.ErrorIs(t, err, ErrRejected)
}
