package paystack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domain "github.com/aq2208/goshop-api/internal/entity"
	"github.com/aq2208/goshop-api/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize_SendsKoboAndBearerAuth(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotBody initializeRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{
			"status": true,
			"message": "Authorization URL created",
			"data": {
				"authorization_url": "https://checkout.paystack.com/abc123",
				"access_code": "abc123",
				"reference": "ORDER_ord-1_20250314092653"
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test_xyz", 5*time.Second)
	res, err := c.Initialize(context.Background(), usecase.GatewayInitRequest{
		Amount:      2500,
		Currency:    "NGN",
		Email:       "ada@example.com",
		Reference:   "ORDER_ord-1_20250314092653",
		CallbackURL: "https://shop.example/v1/payments/verify",
	})
	require.NoError(t, err)

	assert.Equal(t, "/transaction/initialize", gotPath)
	assert.Equal(t, "Bearer sk_test_xyz", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, int64(250000), gotBody.Amount, "kobo on the wire")
	assert.Equal(t, "ada@example.com", gotBody.Email)
	assert.Equal(t, "ORDER_ord-1_20250314092653", gotBody.Reference)
	assert.Equal(t, "https://shop.example/v1/payments/verify", gotBody.CallbackURL)

	assert.Equal(t, "https://checkout.paystack.com/abc123", res.AuthorizationURL)
	assert.Equal(t, "abc123", res.AccessCode)
}

func TestVerify_ParsesAndConvertsFromKobo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transaction/verify/ORDER_ord-1_20250314092653", r.URL.Path)
		w.Write([]byte(`{
			"status": true,
			"message": "Verification successful",
			"data": {
				"status": "success",
				"reference": "ORDER_ord-1_20250314092653",
				"amount": 250000,
				"currency": "NGN",
				"transaction_date": "2025-03-14T09:30:00Z"
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test_xyz", 5*time.Second)
	res, err := c.Verify(context.Background(), "ORDER_ord-1_20250314092653")
	require.NoError(t, err)

	assert.Equal(t, "success", res.Status)
	assert.Equal(t, int64(2500), res.Amount, "major units at the port")
	assert.Equal(t, "NGN", res.Currency)
	assert.Equal(t, time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC), res.TransactionDate)
}

func TestDo_NonSuccessStatusBecomesGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":false,"message":"Invalid key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_bad", 5*time.Second)
	_, err := c.Verify(context.Background(), "ORDER_x_20250101000000")

	var gwErr *domain.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusUnauthorized, gwErr.StatusCode)
}

func TestDo_TimeoutIsGatewayErrorCodeZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test_xyz", 20*time.Millisecond)
	_, err := c.Verify(context.Background(), "ORDER_x_20250101000000")

	var gwErr *domain.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, 0, gwErr.StatusCode, "timeout must never read as success")
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/ref", r.URL.Path)
		w.Write([]byte(`{"status":true,"data":{"status":"abandoned"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "sk_test_xyz", 5*time.Second)
	res, err := c.Verify(context.Background(), "ref")
	require.NoError(t, err)
	assert.Equal(t, "abandoned", res.Status)
}
