//go:build !integration

package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/ports/adapter"
)

func newTestGateway(t *testing.T, handler http.Handler) (*LanariGateway, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	gw, err := NewLanariGateway(srv.URL+"/process", srv.URL+"/status", srv.URL+"/payout", "key", "secret")
	if err != nil {
		t.Fatalf("NewLanariGateway: %v", err)
	}
	return gw, srv
}

func TestNewLanariGateway_RequiresCredentials(t *testing.T) {
	if _, err := NewLanariGateway("u", "u", "u", "", "secret"); !errors.Is(err, domain.ErrMisconfigured) {
		t.Errorf("err = %v, want ErrMisconfigured", err)
	}
	if _, err := NewLanariGateway("", "u", "u", "key", "secret"); !errors.Is(err, domain.ErrMisconfigured) {
		t.Errorf("err = %v, want ErrMisconfigured", err)
	}
}

func TestCharge_Success(t *testing.T) {
	var got map[string]any
	gw, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{
			"success":         true,
			"transaction_ref": "txn-1",
			"gateway_response": map[string]any{
				"data": map[string]any{
					"status":                   "SUCCESSFUL",
					"financial_transaction_id": "fin-1",
				},
			},
		})
	}))

	res, err := gw.Charge(context.Background(), adapter.ChargeRequest{
		Amount:      1000,
		Phone:       "0790000000",
		Description: "Movie watch payment",
	})
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if !res.Success || res.GatewayStatus != adapter.GatewayStatusSuccessful {
		t.Errorf("result = %+v, want successful", res)
	}
	if res.ReferenceID != "txn-1" || res.FinTxID != "fin-1" {
		t.Errorf("ids = %q/%q", res.ReferenceID, res.FinTxID)
	}

	if got["api_key"] != "key" || got["api_secret"] != "secret" {
		t.Error("credentials missing from payload")
	}
	if got["currency"] != "RWF" || got["payment_method"] != "mobile_money" {
		t.Errorf("payload = %v", got)
	}
}

func TestCharge_PendingWithRef(t *testing.T) {
	gw, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"transaction_ref": "txn-2",
			"message":         "processing",
		})
	}))

	res, err := gw.Charge(context.Background(), adapter.ChargeRequest{Amount: 1000, Phone: "0790000000"})
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	// a ref with no failure marker is an accepted, still-pending charge
	if !res.Success || res.GatewayStatus != adapter.GatewayStatusPending {
		t.Errorf("result = %+v, want pending success", res)
	}
}

func TestCharge_Rejected(t *testing.T) {
	gw, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"status":  "failed",
			"message": "Transaction failed. Check users Balance",
		})
	}))

	res, err := gw.Charge(context.Background(), adapter.ChargeRequest{Amount: 1000, Phone: "0790000000"})
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if res.Success || res.GatewayStatus != adapter.GatewayStatusFailed {
		t.Errorf("result = %+v, want failed", res)
	}
	if res.Message != "Transaction failed. Check users Balance" {
		t.Errorf("message = %q", res.Message)
	}
}

func TestCharge_ServerErrorIsRetryable(t *testing.T) {
	gw, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))

	res, err := gw.Charge(context.Background(), adapter.ChargeRequest{Amount: 1000, Phone: "0790000000"})
	if !errors.Is(err, domain.ErrGatewayUnreachable) {
		t.Fatalf("err = %v, want ErrGatewayUnreachable", err)
	}
	if !res.Retryable {
		t.Error("5xx must be retryable")
	}
}

func TestCharge_UnparseableBodyIsRejection(t *testing.T) {
	gw, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte("<html>not json</html>"))
	}))

	res, err := gw.Charge(context.Background(), adapter.ChargeRequest{Amount: 1000, Phone: "0790000000"})
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if res.Success || res.Retryable {
		t.Errorf("result = %+v, want non-retryable rejection", res)
	}
}

func TestPollStatus(t *testing.T) {
	cases := []struct {
		name string
		body map[string]any
		want adapter.GatewayStatus
	}{
		{"nested successful", map[string]any{
			"gateway_response": map[string]any{"data": map[string]any{"status": "SUCCESSFUL"}},
		}, adapter.GatewayStatusSuccessful},
		{"top-level completed", map[string]any{"status": "completed"}, adapter.GatewayStatusSuccessful},
		{"payment_status failed", map[string]any{"payment_status": "FAILED"}, adapter.GatewayStatusFailed},
		{"still pending", map[string]any{"status": "pending"}, adapter.GatewayStatusPending},
		{"empty body", map[string]any{}, adapter.GatewayStatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotPath string
			gw, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				if r.Header.Get("x-api-key") != "key" {
					t.Error("x-api-key header missing")
				}
				json.NewEncoder(w).Encode(tc.body)
			}))
			st, err := gw.PollStatus(context.Background(), "txn-1")
			if err != nil {
				t.Fatalf("PollStatus: %v", err)
			}
			if st != tc.want {
				t.Errorf("status = %s, want %s", st, tc.want)
			}
			if gotPath != "/status/txn-1" {
				t.Errorf("path = %s", gotPath)
			}
		})
	}
}

func TestDisburse_NotFound(t *testing.T) {
	gw, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := gw.Disburse(context.Background(), adapter.DisburseRequest{
		Amount: 700, Phone: "0781111111", ExternalID: "ext-1",
	})
	if !errors.Is(err, domain.ErrPayoutUnavailable) {
		t.Errorf("err = %v, want ErrPayoutUnavailable", err)
	}
}

func TestDisburse_Success(t *testing.T) {
	var got map[string]any
	gw, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{"success": true, "transaction_ref": "payout-1"})
	}))

	res, err := gw.Disburse(context.Background(), adapter.DisburseRequest{
		Amount: 700, Phone: "0781111111", ExternalID: "ext-1", Description: "filmmaker_earning payout",
	})
	if err != nil {
		t.Fatalf("Disburse: %v", err)
	}
	if !res.Success || res.ReferenceID != "payout-1" {
		t.Errorf("result = %+v", res)
	}
	if got["external_id"] != "ext-1" {
		t.Errorf("payload = %v, external_id must be forwarded", got)
	}
}

func TestRescaleSplits(t *testing.T) {
	out := rescaleSplits([]adapter.PayoutSplit{
		{Tel: "0781111111", Percentage: 70},
		{Tel: "0788888888", Percentage: 30},
	})
	if out[0].Percentage != 70 || out[1].Percentage != 30 {
		t.Errorf("exact splits rescaled: %+v", out)
	}

	out = rescaleSplits([]adapter.PayoutSplit{
		{Tel: "a", Percentage: 1},
		{Tel: "b", Percentage: 1},
		{Tel: "c", Percentage: 1},
	})
	total := 0
	for _, s := range out {
		total += s.Percentage
	}
	if total != 100 {
		t.Errorf("splits sum to %d, want 100", total)
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"transaction_id":"txn-1","payment_status":"completed"}`)
	h := hmac.New(sha256.New, []byte("secret"))
	h.Write(body)
	sig := hex.EncodeToString(h.Sum(nil))

	if !VerifyWebhookSignature("secret", body, sig) {
		t.Error("valid signature rejected")
	}
	if !VerifyWebhookSignature("secret", body, strings.ToUpper(sig)) {
		t.Error("uppercase hex signature rejected")
	}
	if VerifyWebhookSignature("secret", body, "deadbeef") {
		t.Error("bad signature accepted")
	}
	if VerifyWebhookSignature("secret", body, "not-hex-at-all") {
		t.Error("malformed signature accepted")
	}
	if VerifyWebhookSignature("other", body, sig) {
		t.Error("wrong key accepted")
	}
}
