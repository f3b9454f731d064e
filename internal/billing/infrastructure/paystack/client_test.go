package paystack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/jobtrack/internal/billing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		SecretKey:        "sk_test_secret",
		BaseURL:          srv.URL,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	})
}

func TestInitializeTransaction(t *testing.T) {
	var got initializeRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"ref_1"}}`))
	})

	session, err := client.InitializeTransaction(context.Background(), domain.CheckoutRequest{
		OwnerID:     "user_1",
		PlanID:      domain.PlanPro,
		Email:       "a@example.com",
		AmountMinor: 500000,
		Currency:    "NGN",
		CallbackURL: "http://localhost:3000/api/subscription/success",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc", session.AuthorizationURL)
	assert.Equal(t, "ref_1", session.Reference)

	assert.Equal(t, int64(500000), got.Amount)
	assert.Equal(t, "a@example.com", got.Email)
	assert.Equal(t, "user_1", got.Metadata.UserID)
	require.Len(t, got.Metadata.CustomFields, 2)
	assert.Equal(t, domain.FieldUserID, got.Metadata.CustomFields[0].VariableName)
	assert.Equal(t, "user_1", got.Metadata.CustomFields[0].Value)
	assert.Equal(t, domain.FieldPlanID, got.Metadata.CustomFields[1].VariableName)
	assert.Equal(t, domain.PlanPro, got.Metadata.CustomFields[1].Value)
}

func TestInitializeTransaction_StatusFalse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":false,"message":"Invalid Email Address Passed"}`))
	})

	_, err := client.InitializeTransaction(context.Background(), domain.CheckoutRequest{OwnerID: "u", PlanID: "pro"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Invalid Email Address Passed", apiErr.Message)
}

func TestVerifyTransaction_ObjectMetadata(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/ref_1", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":true,"message":"Verification successful","data":{
			"id":42,"status":"success","reference":"ref_1","amount":500000,"currency":"NGN",
			"paid_at":"2026-01-02T10:00:00.000Z","customer":{"email":"a@example.com"},
			"metadata":{"custom_fields":[
				{"display_name":"User ID","variable_name":"user_id","value":"user_1"},
				{"display_name":"Plan ID","variable_name":"plan_id","value":"pro"}]}}}`))
	})

	tx, err := client.VerifyTransaction(context.Background(), "ref_1")
	require.NoError(t, err)
	assert.True(t, tx.IsSuccessful())
	assert.Equal(t, int64(42), tx.ID)
	assert.Equal(t, int64(500000), tx.AmountMinor)
	assert.Equal(t, "a@example.com", tx.CustomerEmail)
	assert.Equal(t, "user_1", tx.CustomField(domain.FieldUserID))
	assert.Equal(t, "pro", tx.CustomField(domain.FieldPlanID))
	require.NotNil(t, tx.PaidAt)
	assert.Equal(t, 2026, tx.PaidAt.Year())
}

func TestVerifyTransaction_StringMetadata(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":true,"data":{"status":"abandoned","reference":"ref_2",
			"metadata":"{\"custom_fields\":[{\"variable_name\":\"user_id\",\"value\":123}]}"}}`))
	})

	tx, err := client.VerifyTransaction(context.Background(), "ref_2")
	require.NoError(t, err)
	assert.False(t, tx.IsSuccessful())
	assert.Equal(t, "123", tx.CustomField(domain.FieldUserID))
	assert.Empty(t, tx.CustomField(domain.FieldPlanID))
}

func TestVerifyTransaction_EmptyMetadata(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":true,"data":{"status":"success","reference":"ref_3","metadata":""}}`))
	})

	tx, err := client.VerifyTransaction(context.Background(), "ref_3")
	require.NoError(t, err)
	assert.Empty(t, tx.CustomFields)
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 2; i++ {
		_, err := client.VerifyTransaction(context.Background(), "ref")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
	}

	_, err := client.VerifyTransaction(context.Background(), "ref")
	assert.True(t, errors.Is(err, ErrGatewayUnavailable))
	assert.Equal(t, int32(2), calls.Load())
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
	})

	for i := 0; i < 4; i++ {
		_, err := client.VerifyTransaction(context.Background(), "missing")
		assert.False(t, errors.Is(err, ErrGatewayUnavailable))
	}
	assert.Equal(t, int32(4), calls.Load())
}
