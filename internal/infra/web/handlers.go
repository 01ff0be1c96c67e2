package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/model"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/usecase"
)

var validate = validator.New()

// chargeRequest is the shared purchase body. Field names follow the public
// API contract, not Go convention.
type chargeRequest struct {
	Amount       float64 `json:"amount" validate:"required,gt=0"`
	PhoneNumber  string  `json:"phoneNumber" validate:"required"`
	UserID       string  `json:"userId" validate:"required"`
	MovieID      string  `json:"movieId"`
	SeriesID     string  `json:"seriesId"`
	Currency     string  `json:"currency" validate:"required"`
	Type         string  `json:"type"`
	AccessPeriod string  `json:"accessPeriod"`
	Plan         string  `json:"plan"`
	Description  string  `json:"description"`
}

type withdrawalRequest struct {
	UserID      string `json:"userId" validate:"required"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
}

func (s *Server) handleMomoCharge(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCharge(w, r)
	if !ok {
		return
	}
	class := model.PaymentClass(req.Type)
	if class != model.PaymentClassWatch && class != model.PaymentClassDownload {
		writeError(w, http.StatusBadRequest, "type must be watch or download", domain.ErrInvalidArgument)
		return
	}
	s.initiate(w, r, req, class, false)
}

func (s *Server) handleSeriesCharge(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCharge(w, r)
	if !ok {
		return
	}
	s.initiate(w, r, req, model.PaymentClassSeriesAccess, false)
}

func (s *Server) handleSubscriptionCharge(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCharge(w, r)
	if !ok {
		return
	}
	class := model.PaymentClass(req.Type)
	if !class.IsSubscription() {
		writeError(w, http.StatusBadRequest, "type must be subscription_upgrade or subscription_renewal", domain.ErrInvalidArgument)
		return
	}
	s.initiate(w, r, req, class, false)
}

func (s *Server) handleStripeCharge(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCharge(w, r)
	if !ok {
		return
	}
	class := model.PaymentClass(req.Type)
	if !class.Valid() {
		writeError(w, http.StatusBadRequest, "unknown payment type", domain.ErrInvalidArgument)
		return
	}
	s.initiate(w, r, req, class, true)
}

func (s *Server) decodeCharge(w http.ResponseWriter, r *http.Request) (chargeRequest, bool) {
	var req chargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return req, false
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "missing or invalid fields", err)
		return req, false
	}
	return req, true
}

func (s *Server) initiate(w http.ResponseWriter, r *http.Request, req chargeRequest, class model.PaymentClass, stripe bool) {
	in := usecase.ChargeInput{
		UserID:       req.UserID,
		MovieID:      req.MovieID,
		SeriesID:     req.SeriesID,
		Plan:         req.Plan,
		Class:        class,
		AccessPeriod: model.AccessPeriod(req.AccessPeriod),
		Amount:       req.Amount,
		Currency:     req.Currency,
		Phone:        req.PhoneNumber,
		Description:  req.Description,
	}

	var (
		p   *model.Payment
		err error
	)
	if stripe {
		p, err = s.paymentUC.InitiateStripe(r.Context(), in)
	} else {
		p, err = s.paymentUC.InitiateMomo(r.Context(), in)
	}
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg, err)
		return
	}

	code := http.StatusOK
	if p.Status == model.PaymentStatusPending {
		code = http.StatusAccepted
	}
	writeSuccess(w, code, map[string]interface{}{"payment": paymentView(p)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "paymentId")
	st, err := s.paymentUC.Status(r.Context(), id)
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"paymentId": id, "status": st})
}

func (s *Server) handlePollStatus(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "transactionId")
	p, err := s.paymentUC.PollAndResolve(r.Context(), ref)
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"payment": paymentView(p)})
}

type confirmRequest struct {
	Succeeded bool   `json:"succeeded"`
	Reason    string `json:"reason"`
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "paymentId")
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	p, err := s.paymentUC.ConfirmManual(r.Context(), id, req.Succeeded, req.Reason)
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"payment": paymentView(p)})
}

func (s *Server) handleUserPayments(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	offset, limit := pagination(r)
	payments, err := s.paymentUC.ListByUser(r.Context(), userID, offset, limit)
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg, err)
		return
	}
	views := make([]map[string]interface{}, 0, len(payments))
	for _, p := range payments {
		views = append(views, paymentView(p))
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"payments": views,
		"offset":   offset,
		"limit":    limit,
	})
}

func (s *Server) handleSeriesPricing(w http.ResponseWriter, r *http.Request) {
	seriesID := chi.URLParam(r, "seriesId")
	tiers, err := s.paymentUC.SeriesPricing(r.Context(), seriesID)
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg, err)
		return
	}
	out := make([]map[string]interface{}, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, map[string]interface{}{
			"accessPeriod": t.Period,
			"price":        t.PriceRWF,
			"currency":     "RWF",
		})
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"seriesId": seriesID, "pricing": out})
}

func (s *Server) handleSeriesAccess(w http.ResponseWriter, r *http.Request) {
	seriesID := chi.URLParam(r, "seriesId")
	userID := chi.URLParam(r, "userId")
	ok, expiresAt, err := s.accessUC.HasSeriesAccess(r.Context(), userID, seriesID)
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg, err)
		return
	}
	payload := map[string]interface{}{"hasAccess": ok}
	if expiresAt != nil {
		payload["expiresAt"] = expiresAt.Format(time.RFC3339)
	}
	writeSuccess(w, http.StatusOK, payload)
}

func (s *Server) handleWithdrawalRequest(w http.ResponseWriter, r *http.Request) {
	var req withdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "missing or invalid fields", err)
		return
	}
	wd, err := s.withdrawalUC.RequestManual(r.Context(), req.UserID, req.Amount, req.PhoneNumber)
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"withdrawal": withdrawalView(wd)})
}

func (s *Server) handleUserWithdrawals(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	offset, limit := pagination(r)
	list, err := s.withdrawalUC.ListByUser(r.Context(), userID, offset, limit)
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg, err)
		return
	}
	views := make([]map[string]interface{}, 0, len(list))
	for _, wd := range list {
		views = append(views, withdrawalView(wd))
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"withdrawals": views,
		"offset":      offset,
		"limit":       limit,
	})
}

func (s *Server) handleWithdrawal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	wd, err := s.withdrawalUC.Get(r.Context(), id)
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"withdrawal": withdrawalView(wd)})
}

func pagination(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}

func paymentView(p *model.Payment) map[string]interface{} {
	v := map[string]interface{}{
		"id":               p.ID,
		"userId":           p.UserID,
		"type":             p.Class,
		"status":           p.Status,
		"amount":           p.AmountRWF,
		"currency":         "RWF",
		"originalAmount":   p.OriginalAmount,
		"originalCurrency": p.OriginalCurrency,
		"exchangeRate":     p.ExchangeRate,
		"filmmakerShare":   p.FilmmakerShare,
		"platformShare":    p.PlatformShare,
		"referenceId":      p.ReferenceID,
		"createdAt":        p.CreatedAt.Format(time.RFC3339),
	}
	if p.MovieID != "" {
		v["movieId"] = p.MovieID
	}
	if p.SeriesID != "" {
		v["seriesId"] = p.SeriesID
	}
	if p.AccessPeriod != "" {
		v["accessPeriod"] = p.AccessPeriod
	}
	if p.SubscriptionPlan != "" {
		v["plan"] = p.SubscriptionPlan
	}
	if p.ExpiresAt != nil {
		v["expiresAt"] = p.ExpiresAt.Format(time.RFC3339)
	}
	if p.PaidAt != nil {
		v["paidAt"] = p.PaidAt.Format(time.RFC3339)
	}
	if p.FailureReason != "" {
		v["failureReason"] = p.FailureReason
	}
	if len(p.Meta) > 0 {
		v["meta"] = p.Meta
	}
	return v
}

func withdrawalView(wd *model.Withdrawal) map[string]interface{} {
	v := map[string]interface{}{
		"id":        wd.ID,
		"userId":    wd.UserID,
		"amount":    wd.AmountRWF,
		"currency":  wd.Currency,
		"status":    wd.Status,
		"type":      wd.Type,
		"createdAt": wd.CreatedAt.Format(time.RFC3339),
	}
	if wd.PaymentID != nil {
		v["paymentId"] = *wd.PaymentID
	}
	if wd.ReferenceID != "" {
		v["referenceId"] = wd.ReferenceID
	}
	if wd.FailureReason != "" {
		v["failureReason"] = wd.FailureReason
	}
	return v
}

func writeSuccess(w http.ResponseWriter, code int, payload map[string]interface{}) {
	body := map[string]interface{}{"success": true}
	for k, val := range payload {
		body[k] = val
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, message string, err error) {
	body := map[string]interface{}{
		"success": false,
		"message": message,
	}
	if err != nil {
		body["error"] = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

// statusFor maps domain errors onto HTTP status codes and user-safe messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidPhone):
		return http.StatusBadRequest, "invalid phone number"
	case errors.Is(err, domain.ErrUnsupportedCurrency):
		return http.StatusBadRequest, "unsupported currency"
	case errors.Is(err, domain.ErrAmountTooLow):
		return http.StatusBadRequest, "amount is below the minimum charge"
	case errors.Is(err, domain.ErrMinWithdrawal):
		return http.StatusBadRequest, "amount is below the minimum withdrawal"
	case errors.Is(err, domain.ErrMissingField), errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "missing or invalid fields"
	case errors.Is(err, domain.ErrGatewayRejected):
		return http.StatusBadRequest, rejectionReason(err)
	case errors.Is(err, domain.ErrContentMissing):
		return http.StatusNotFound, "content not found"
	case errors.Is(err, domain.ErrPaymentMissing):
		return http.StatusNotFound, "payment not found"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrAlreadyTerminal):
		return http.StatusConflict, "payment is already resolved"
	case errors.Is(err, domain.ErrNegativeBalance):
		return http.StatusBadRequest, "insufficient available balance"
	case errors.Is(err, domain.ErrGatewayUnreachable):
		return http.StatusBadGateway, "payment gateway is unreachable"
	case errors.Is(err, domain.ErrPayoutUnavailable):
		return http.StatusBadGateway, "payout service is unavailable"
	case errors.Is(err, domain.ErrMisconfigured):
		return http.StatusInternalServerError, "payment gateway is not configured"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// rejectionReason returns the localized decline reason attached to a gateway
// rejection, without the sentinel prefix. Clients display this verbatim.
func rejectionReason(err error) string {
	msg := err.Error()
	if stripped := strings.TrimPrefix(msg, domain.ErrGatewayRejected.Error()+": "); stripped != msg {
		return stripped
	}
	return "payment was declined by the gateway"
}
