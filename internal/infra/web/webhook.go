package web

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/infra/adapters/payment"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/infra/metrics"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/infra/redis"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/usecase"
)

const (
	webhookRateLimit  = 60
	webhookRateWindow = time.Minute
	webhookMaxBody    = 64 << 10
)

// webhookBody tolerates the gateway's field-name drift across versions.
type webhookBody struct {
	TransactionID  string `json:"transaction_id"`
	ReferenceID    string `json:"reference_id"`
	PaymentStatus  string `json:"payment_status"`
	Status         string `json:"status"`
	FinancialTxnID string `json:"financial_transaction_id"`
	Message        string `json:"message"`
}

func (b webhookBody) reference() string {
	if b.TransactionID != "" {
		return b.TransactionID
	}
	return b.ReferenceID
}

// handleWebhook receives gateway notifications. It is unauthenticated, so it
// is rate limited per source IP and, when a secret is configured, requires a
// valid x-lanari-signature over the raw body.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.limiter != nil {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		allowed, err := s.limiter.Allow(ctx, redis.WebhookKey(ip), webhookRateLimit, webhookRateWindow)
		if err != nil {
			// Redis down must not drop gateway notifications.
			s.log.Warn().Err(err).Msg("webhook rate limiter unavailable")
		} else if !allowed {
			metrics.IncWebhookDelivery("rate_limited")
			writeError(w, http.StatusTooManyRequests, "too many requests", nil)
			return
		}
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, webhookMaxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body", err)
		return
	}

	if s.hookSecret != "" {
		sig := r.Header.Get("x-lanari-signature")
		if !payment.VerifyWebhookSignature(s.hookSecret, raw, sig) {
			metrics.IncWebhookDelivery("bad_signature")
			writeError(w, http.StatusUnauthorized, "invalid signature", nil)
			return
		}
	}

	var body webhookBody
	if err := json.Unmarshal(raw, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook body", err)
		return
	}
	if body.reference() == "" {
		writeError(w, http.StatusBadRequest, "missing transaction id", nil)
		return
	}

	p, err := s.paymentUC.HandleWebhook(ctx, usecase.WebhookNotice{
		ReferenceID:   body.reference(),
		PaymentStatus: body.PaymentStatus,
		Status:        body.Status,
		FinTxID:       body.FinancialTxnID,
		Reason:        body.Message,
	})
	if err != nil {
		if errors.Is(err, domain.ErrPaymentMissing) {
			metrics.IncWebhookDelivery("unknown_reference")
			writeError(w, http.StatusNotFound, "payment not found", err)
			return
		}
		metrics.IncWebhookDelivery("error")
		s.log.Error().Err(err).Str("reference_id", body.reference()).Msg("webhook processing failed")
		writeError(w, http.StatusInternalServerError, "internal error", err)
		return
	}

	metrics.IncWebhookDelivery("ok")
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"paymentId": p.ID,
		"status":    p.Status,
	})
}
