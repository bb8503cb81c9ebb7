package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	domain "github.com/aq2208/goshop-api/internal/entity"
	"github.com/aq2208/goshop-api/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gatewayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paystack_request_duration_ms",
			Help:    "Duration of Paystack API calls in ms",
			Buckets: []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"op"},
	)
	gatewayErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paystack_errors_total",
			Help: "Total number of failed Paystack API calls",
		},
		[]string{"op"},
	)
)

// Client talks to the Paystack REST API. It is the only place that knows the
// gateway speaks minor currency units (kobo for NGN); callers pass and
// receive major units.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		secretKey:  secretKey,
	}
}

type initializeRequest struct {
	Amount      int64  `json:"amount"`
	Email       string `json:"email"`
	Reference   string `json:"reference"`
	CallbackURL string `json:"callback_url"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status          string    `json:"status"`
		Reference       string    `json:"reference"`
		Amount          int64     `json:"amount"`
		Currency        string    `json:"currency"`
		TransactionDate time.Time `json:"transaction_date"`
	} `json:"data"`
}

func (c *Client) Initialize(ctx context.Context, req usecase.GatewayInitRequest) (*usecase.GatewayInitResult, error) {
	body, err := json.Marshal(initializeRequest{
		Amount:      toMinorUnits(req.Amount),
		Email:       req.Email,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal initialize request: %w", err)
	}

	var out initializeResponse
	if err := c.do(ctx, "initialize", http.MethodPost, "/transaction/initialize", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	return &usecase.GatewayInitResult{
		AuthorizationURL: out.Data.AuthorizationURL,
		AccessCode:       out.Data.AccessCode,
		Reference:        out.Data.Reference,
	}, nil
}

func (c *Client) Verify(ctx context.Context, reference string) (*usecase.GatewayVerifyResult, error) {
	var out verifyResponse
	if err := c.do(ctx, "verify", http.MethodGet, "/transaction/verify/"+reference, nil, &out); err != nil {
		return nil, err
	}
	return &usecase.GatewayVerifyResult{
		Status:          out.Data.Status,
		Reference:       out.Data.Reference,
		Amount:          fromMinorUnits(out.Data.Amount),
		Currency:        out.Data.Currency,
		TransactionDate: out.Data.TransactionDate,
	}, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body *bytes.Reader, out any) error {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	gatewayDuration.WithLabelValues(op).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		gatewayErrors.WithLabelValues(op).Inc()
		// Timeout is a gateway failure, never implicit success.
		return &domain.GatewayError{StatusCode: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gatewayErrors.WithLabelValues(op).Inc()
		return &domain.GatewayError{StatusCode: resp.StatusCode, Message: "Paystack API error"}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

// NGN is quoted in kobo on the wire.
func toMinorUnits(major int64) int64   { return major * 100 }
func fromMinorUnits(minor int64) int64 { return minor / 100 }

var _ usecase.Gateway = (*Client)(nil)
