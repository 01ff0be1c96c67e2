package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/infra/redis"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/usecase"
)

const reconcilerLockKey = "lock:payment_reconciler"

// PaymentReconciler periodically polls the gateway for stale pending payments
// and finalizes the ones that resolved while we were not looking. This covers
// lost webhooks and crashes between charge and confirmation.
type PaymentReconciler struct {
	uc         usecase.PaymentUseCase
	locker     redis.Locker
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending payment must be to poll
	batchSize  int
	log        *zerolog.Logger
}

func NewPaymentReconciler(uc usecase.PaymentUseCase, locker redis.Locker, interval, staleAfter time.Duration, logger *zerolog.Logger) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	l := logger.With().Str("component", "PaymentReconciler").Logger()
	return &PaymentReconciler{
		uc:         uc,
		locker:     locker,
		interval:   interval,
		staleAfter: staleAfter,
		batchSize:  200,
		log:        &l,
	}
}

func (w *PaymentReconciler) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting payment reconciler")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping payment reconciler")
			return ctx.Err()
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReconciler) tick(ctx context.Context) {
	// One scan at a time across replicas.
	if w.locker != nil {
		token, err := w.locker.TryLock(ctx, reconcilerLockKey, w.interval)
		if err != nil {
			if !errors.Is(err, domain.ErrAlreadyExists) {
				w.log.Warn().Err(err).Msg("reconciler lock unavailable")
			}
			return
		}
		defer func() {
			if err := w.locker.Unlock(ctx, reconcilerLockKey, token); err != nil {
				w.log.Warn().Err(err).Msg("reconciler unlock failed")
			}
		}()
	}

	cutoff := time.Now().Add(-w.staleAfter)
	resolved, err := w.uc.ReconcileStale(ctx, cutoff, w.batchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("reconcile scan failed")
		return
	}
	if resolved > 0 {
		w.log.Info().Int("resolved", resolved).Msg("stale payments reconciled")
	}
}
