// Package paystack is the Paystack implementation of the payment gateway.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/felixgeelhaar/jobtrack/internal/billing/domain"
	"github.com/felixgeelhaar/jobtrack/pkg/observability"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "jobtrack/billing/paystack"

// DefaultBaseURL is the public Paystack API.
const DefaultBaseURL = "https://api.paystack.co"

// ErrGatewayUnavailable is returned while the circuit breaker is open.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// APIError is a non-2xx answer or a response with status=false.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paystack: %d %s", e.StatusCode, e.Message)
}

// Config configures the client.
type Config struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
	// FailureThreshold is the number of consecutive upstream failures that
	// opens the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open.
	OpenTimeout time.Duration
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// Client talks to the Paystack transaction API.
type Client struct {
	secretKey string
	baseURL   string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker[[]byte]
	logger    *slog.Logger
}

// NewClient creates a Paystack client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	c := &Client{
		secretKey: cfg.SecretKey,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		http:      cfg.HTTPClient,
		logger:    cfg.Logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "paystack",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// Client errors say nothing about Paystack's health.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return c
}

type initializeRequest struct {
	Amount      int64            `json:"amount"`
	Email       string           `json:"email"`
	Currency    string           `json:"currency,omitempty"`
	CallbackURL string           `json:"callback_url,omitempty"`
	Metadata    checkoutMetadata `json:"metadata"`
}

type checkoutMetadata struct {
	UserID       string               `json:"userId"`
	PlanID       string               `json:"planId"`
	CustomFields []domain.CustomField `json:"custom_fields"`
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// InitializeTransaction starts a hosted checkout. The owner and plan are
// sent as custom fields, which Paystack echoes back on verification.
func (c *Client) InitializeTransaction(ctx context.Context, req domain.CheckoutRequest) (session *domain.CheckoutSession, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "Client.InitializeTransaction",
		attribute.String("plan.id", req.PlanID))
	defer func() { observability.EndSpan(span, err) }()

	body := initializeRequest{
		Amount:      req.AmountMinor,
		Email:       req.Email,
		Currency:    req.Currency,
		CallbackURL: req.CallbackURL,
		Metadata: checkoutMetadata{
			UserID: req.OwnerID,
			PlanID: req.PlanID,
			CustomFields: []domain.CustomField{
				{DisplayName: "User ID", VariableName: domain.FieldUserID, Value: req.OwnerID},
				{DisplayName: "Plan ID", VariableName: domain.FieldPlanID, Value: req.PlanID},
			},
		},
	}

	raw, err := c.do(ctx, http.MethodPost, "/transaction/initialize", body)
	if err != nil {
		return nil, err
	}
	var data initializeData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("paystack: decode initialize data: %w", err)
	}
	if data.AuthorizationURL == "" || data.Reference == "" {
		return nil, fmt.Errorf("paystack: initialize returned no authorization url")
	}
	return &domain.CheckoutSession{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

type verifyData struct {
	ID        int64           `json:"id"`
	Status    string          `json:"status"`
	Reference string          `json:"reference"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	PaidAt    *time.Time      `json:"paid_at"`
	Metadata  json.RawMessage `json:"metadata"`
	Customer  struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// VerifyTransaction fetches the payment record for reference.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (tx *domain.Transaction, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "Client.VerifyTransaction")
	defer func() { observability.EndSpan(span, err) }()

	raw, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, err
	}
	var data verifyData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("paystack: decode verify data: %w", err)
	}
	return &domain.Transaction{
		ID:            data.ID,
		Reference:     data.Reference,
		Status:        data.Status,
		AmountMinor:   data.Amount,
		Currency:      data.Currency,
		PaidAt:        data.PaidAt,
		CustomerEmail: data.Customer.Email,
		CustomFields:  parseCustomFields(data.Metadata),
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return raw, err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paystack: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("paystack: read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		if resp.StatusCode >= 300 {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("paystack: decode response: %w", err)
	}
	if resp.StatusCode >= 300 || !env.Status {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	return env.Data, nil
}

// parseCustomFields reads metadata.custom_fields. Paystack returns the
// metadata either as an object or as a JSON-encoded string, and field
// values may be numbers.
func parseCustomFields(raw json.RawMessage) []domain.CustomField {
	if len(raw) == 0 {
		return nil
	}
	var encoded string
	if json.Unmarshal(raw, &encoded) == nil {
		if encoded == "" {
			return nil
		}
		raw = json.RawMessage(encoded)
	}

	var meta struct {
		CustomFields []struct {
			DisplayName  string          `json:"display_name"`
			VariableName string          `json:"variable_name"`
			Value        json.RawMessage `json:"value"`
		} `json:"custom_fields"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil
	}

	fields := make([]domain.CustomField, 0, len(meta.CustomFields))
	for _, f := range meta.CustomFields {
		fields = append(fields, domain.CustomField{
			DisplayName:  f.DisplayName,
			VariableName: f.VariableName,
			Value:        scalarString(f.Value),
		})
	}
	return fields
}

func scalarString(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}
