package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/infra/metrics"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/usecase"
)

// ExpiryWorker periodically purges expired entitlement rows.
type ExpiryWorker struct {
	interval time.Duration
	accessUC *usecase.AccessUseCase
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, accessUC *usecase.AccessUseCase, logger *zerolog.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	l := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{interval: interval, accessUC: accessUC, log: &l}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.accessUC.PurgeExpired(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("entitlement purge failed")
				continue
			}
			if n > 0 {
				metrics.AddEntitlementsExpired(n)
				w.log.Info().Int64("count", n).Msg("expired entitlements purged")
			}
		}
	}
}
