package domain

import (
	"context"
	"time"
)

// Custom field names echoed back by the gateway.
const (
	FieldUserID = "user_id"
	FieldPlanID = "plan_id"
)

// CheckoutRequest describes a hosted checkout to start.
type CheckoutRequest struct {
	OwnerID     string
	PlanID      string
	Email       string
	AmountMinor int64
	Currency    string
	CallbackURL string
}

// CheckoutSession is the gateway's answer to a checkout request.
type CheckoutSession struct {
	AuthorizationURL string `json:"checkoutUrl"`
	AccessCode       string `json:"accessCode,omitempty"`
	Reference        string `json:"reference"`
}

// CustomField is one entry of the metadata round-tripped through the gateway.
type CustomField struct {
	DisplayName  string `json:"display_name"`
	VariableName string `json:"variable_name"`
	Value        string `json:"value"`
}

// Transaction is the gateway's payment record.
type Transaction struct {
	ID            int64
	Reference     string
	Status        string
	AmountMinor   int64
	Currency      string
	PaidAt        *time.Time
	CustomerEmail string
	CustomFields  []CustomField
}

// IsSuccessful reports whether the gateway reported exactly "success".
func (t *Transaction) IsSuccessful() bool {
	return t != nil && t.Status == "success"
}

// CustomField returns the value of the custom field with the given
// variable name, or "" when absent.
func (t *Transaction) CustomField(name string) string {
	if t == nil {
		return ""
	}
	for _, f := range t.CustomFields {
		if f.VariableName == name {
			return f.Value
		}
	}
	return ""
}

// PaymentGateway is the hosted payment provider.
type PaymentGateway interface {
	InitializeTransaction(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	VerifyTransaction(ctx context.Context, reference string) (*Transaction, error)
}
