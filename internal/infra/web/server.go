package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/usecase"
)

// webhookLimiter guards the unauthenticated webhook endpoint.
type webhookLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type Server struct {
	paymentUC    usecase.PaymentUseCase
	accessUC     *usecase.AccessUseCase
	withdrawalUC *usecase.WithdrawalUseCase
	limiter      webhookLimiter
	hookSecret   string // empty disables signature verification
	adminKey     string
	log          *zerolog.Logger
}

func NewServer(
	paymentUC usecase.PaymentUseCase,
	accessUC *usecase.AccessUseCase,
	withdrawalUC *usecase.WithdrawalUseCase,
	limiter webhookLimiter,
	hookSecret string,
	adminKey string,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "Web").Logger()
	return &Server{
		paymentUC:    paymentUC,
		accessUC:     accessUC,
		withdrawalUC: withdrawalUC,
		limiter:      limiter,
		hookSecret:   hookSecret,
		adminKey:     adminKey,
		log:          &l,
	}
}

// Routes builds the public API router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/payments", func(r chi.Router) {
		r.Post("/momo", s.handleMomoCharge)
		r.Post("/series/momo", s.handleSeriesCharge)
		r.Post("/subscription/momo", s.handleSubscriptionCharge)
		r.Post("/stripe", s.handleStripeCharge)
		r.Post("/webhook/lanari-pay", s.handleWebhook)
		r.Get("/status/{paymentId}", s.handleStatus)
		r.Get("/momo/status/{transactionId}", s.handlePollStatus)
		r.With(s.adminAuth).Patch("/{paymentId}/confirm", s.handleConfirm)
		r.Get("/user/{userId}", s.handleUserPayments)
		r.Get("/series/{seriesId}/pricing", s.handleSeriesPricing)
		r.Get("/series/{seriesId}/access/{userId}", s.handleSeriesAccess)
	})

	r.Route("/withdrawals", func(r chi.Router) {
		r.Post("/request", s.handleWithdrawalRequest)
		r.Get("/user/{userId}", s.handleUserWithdrawals)
		r.Get("/{id}", s.handleWithdrawal)
	})

	return r
}

// adminAuth is a Bearer token check for the manual confirmation override.
func (s *Server) adminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminKey == "" {
			s.log.Error().Msg("admin API key is not configured")
			writeError(w, http.StatusForbidden, "forbidden", nil)
			return
		}

		authHeader := r.Header.Get("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			writeError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		if parts[1] != s.adminKey {
			writeError(w, http.StatusForbidden, "forbidden", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}
