package adapter

import "context"

// GatewayStatus is the normalized status vocabulary of the mobile-money
// provider. Everything the provider says collapses into these three.
type GatewayStatus string

const (
	GatewayStatusSuccessful GatewayStatus = "SUCCESSFUL"
	GatewayStatusFailed     GatewayStatus = "FAILED"
	GatewayStatusPending    GatewayStatus = "PENDING"
)

// PayoutSplit instructs the gateway to fan a charge out to several wallets.
// Percentages must sum to 100; the adapter rescales when they do not.
type PayoutSplit struct {
	Tel        string `json:"tel"`
	Percentage int    `json:"percentage"`
}

// ChargeRequest carries one wallet debit. Amount is whole RWF and Phone is
// already normalized to the 0XXXXXXXXX form.
type ChargeRequest struct {
	Amount      int64
	Phone       string
	UserID      string
	Description string
	Splits      []PayoutSplit
}

// ChargeResult is the provider's answer to a charge or disburse call.
type ChargeResult struct {
	Success       bool
	ReferenceID   string
	FinTxID       string
	GatewayStatus GatewayStatus
	Message       string
	Retryable     bool // network-class failure; safe to retry the call
}

// DisburseRequest is one wallet credit. ExternalID is the caller-generated
// idempotency handle for the transfer.
type DisburseRequest struct {
	Amount      int64
	Phone       string
	ExternalID  string
	Description string
}

// MomoGateway is the hex port for the mobile-money provider. All three calls
// block on HTTP internally; the orchestrator sees them as synchronous.
type MomoGateway interface {
	Name() string
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	PollStatus(ctx context.Context, referenceID string) (GatewayStatus, error)
	Disburse(ctx context.Context, req DisburseRequest) (*ChargeResult, error)
}
