package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/ports/adapter"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/infra/metrics"
)

var _ adapter.MomoGateway = (*LanariGateway)(nil)

// LanariGateway implements adapter.MomoGateway over the Lanari Pay HTTP API.
// One call per action: charge, poll, disburse. RWF only.
type LanariGateway struct {
	processURL string
	statusURL  string
	payoutURL  string
	apiKey     string
	apiSecret  string
	client     *http.Client
}

func NewLanariGateway(processURL, statusURL, payoutURL, apiKey, apiSecret string) (*LanariGateway, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, domain.ErrMisconfigured
	}
	if processURL == "" || statusURL == "" || payoutURL == "" {
		return nil, domain.ErrMisconfigured
	}
	return &LanariGateway{
		processURL: processURL,
		statusURL:  statusURL,
		payoutURL:  payoutURL,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		client:     &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (g *LanariGateway) Name() string { return "lanari-pay" }

// gatewayReply is the provider envelope. Status nests under
// gateway_response.data; top-level fields cover older API revisions.
type gatewayReply struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	TransactionRef  string `json:"transaction_ref"`
	Status          string `json:"status"`
	PaymentStatus   string `json:"payment_status"`
	GatewayResponse struct {
		Data struct {
			Status    string `json:"status"`
			Message   string `json:"message"`
			RefID     string `json:"ref_id"`
			FinTxID   string `json:"financial_transaction_id"`
			PayStatus string `json:"payment_status"`
		} `json:"data"`
	} `json:"gateway_response"`
}

func (g *LanariGateway) Charge(ctx context.Context, req adapter.ChargeRequest) (*adapter.ChargeResult, error) {
	payload := map[string]any{
		"api_key":        g.apiKey,
		"api_secret":     g.apiSecret,
		"amount":         req.Amount,
		"customer_phone": req.Phone,
		"currency":       "RWF",
		"payment_method": "mobile_money",
		"description":    req.Description,
	}
	if req.UserID != "" {
		payload["user_id"] = req.UserID
	}
	if len(req.Splits) > 0 {
		payload["payout_numbers"] = rescaleSplits(req.Splits)
	}

	start := time.Now()
	reply, status, err := g.post(ctx, g.processURL, payload)
	metrics.ObserveGatewayCall("charge", err == nil && status < 500, time.Since(start))
	if err != nil {
		return &adapter.ChargeResult{Retryable: true}, fmt.Errorf("%w: %v", domain.ErrGatewayUnreachable, err)
	}
	if status >= 500 {
		return &adapter.ChargeResult{Retryable: true}, fmt.Errorf("%w: http %d", domain.ErrGatewayUnreachable, status)
	}

	res := resultFrom(reply)
	return res, nil
}

func (g *LanariGateway) PollStatus(ctx context.Context, referenceID string) (adapter.GatewayStatus, error) {
	url := strings.TrimRight(g.statusURL, "/") + "/" + referenceID
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return adapter.GatewayStatusPending, err
	}
	httpReq.Header.Set("x-api-key", g.apiKey)
	httpReq.Header.Set("x-api-secret", g.apiSecret)

	start := time.Now()
	resp, err := g.client.Do(httpReq)
	metrics.ObserveGatewayCall("poll", err == nil, time.Since(start))
	if err != nil {
		return adapter.GatewayStatusPending, fmt.Errorf("%w: %v", domain.ErrGatewayUnreachable, err)
	}
	defer resp.Body.Close()

	var reply gatewayReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return adapter.GatewayStatusPending, err
	}
	return mapPollStatus(reply), nil
}

func (g *LanariGateway) Disburse(ctx context.Context, req adapter.DisburseRequest) (*adapter.ChargeResult, error) {
	payload := map[string]any{
		"api_key":     g.apiKey,
		"api_secret":  g.apiSecret,
		"amount":      req.Amount,
		"phone":       req.Phone,
		"external_id": req.ExternalID,
		"description": req.Description,
	}

	start := time.Now()
	reply, status, err := g.post(ctx, g.payoutURL, payload)
	metrics.ObserveGatewayCall("disburse", err == nil && status < 500, time.Since(start))
	if err != nil {
		return &adapter.ChargeResult{Retryable: true}, fmt.Errorf("%w: %v", domain.ErrGatewayUnreachable, err)
	}
	if status == http.StatusNotFound {
		return nil, domain.ErrPayoutUnavailable
	}
	if status >= 500 {
		return &adapter.ChargeResult{Retryable: true}, fmt.Errorf("%w: http %d", domain.ErrGatewayUnreachable, status)
	}
	return resultFrom(reply), nil
}

func (g *LanariGateway) post(ctx context.Context, url string, payload map[string]any) (*gatewayReply, int, error) {
	b, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var reply gatewayReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		// Non-5xx bodies we cannot parse count as rejections, not outages.
		if resp.StatusCode < 500 {
			return &gatewayReply{Message: "unparseable gateway reply"}, resp.StatusCode, nil
		}
		return nil, resp.StatusCode, err
	}
	return &reply, resp.StatusCode, nil
}

// resultFrom applies the success predicate: an explicit SUCCESSFUL status, a
// top-level success flag, or a transaction ref with no failure status.
func resultFrom(reply *gatewayReply) *adapter.ChargeResult {
	gwStatus := strings.ToUpper(reply.GatewayResponse.Data.Status)
	failed := gwStatus == "FAILED" || strings.EqualFold(reply.Status, "failed")
	ok := gwStatus == "SUCCESSFUL" || reply.Success || (reply.TransactionRef != "" && !failed)

	ref := reply.TransactionRef
	if ref == "" {
		ref = reply.GatewayResponse.Data.RefID
	}
	msg := reply.GatewayResponse.Data.Message
	if msg == "" {
		msg = reply.Message
	}
	st := adapter.GatewayStatusPending
	switch {
	case gwStatus == "SUCCESSFUL":
		st = adapter.GatewayStatusSuccessful
	case failed:
		st = adapter.GatewayStatusFailed
	}
	return &adapter.ChargeResult{
		Success:       ok,
		ReferenceID:   ref,
		FinTxID:       reply.GatewayResponse.Data.FinTxID,
		GatewayStatus: st,
		Message:       msg,
	}
}

// mapPollStatus folds the provider's status vocabulary into three states.
func mapPollStatus(reply gatewayReply) adapter.GatewayStatus {
	status := strings.ToLower(firstNonEmpty(reply.Status, reply.GatewayResponse.Data.Status))
	payStatus := strings.ToLower(firstNonEmpty(reply.PaymentStatus, reply.GatewayResponse.Data.PayStatus))

	switch {
	case status == "success" || status == "successful" || status == "completed" ||
		payStatus == "success" || payStatus == "completed":
		return adapter.GatewayStatusSuccessful
	case payStatus == "failed" || payStatus == "cancelled" || status == "failed":
		return adapter.GatewayStatusFailed
	default:
		return adapter.GatewayStatusPending
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// rescaleSplits forces split percentages to sum to 100, distributing the
// rounding remainder to the last entry.
func rescaleSplits(splits []adapter.PayoutSplit) []adapter.PayoutSplit {
	total := 0
	for _, s := range splits {
		total += s.Percentage
	}
	if total == 100 || total == 0 {
		return splits
	}
	out := make([]adapter.PayoutSplit, len(splits))
	acc := 0
	for i, s := range splits {
		pct := s.Percentage * 100 / total
		out[i] = adapter.PayoutSplit{Tel: s.Tel, Percentage: pct}
		acc += pct
	}
	out[len(out)-1].Percentage += 100 - acc
	return out
}
