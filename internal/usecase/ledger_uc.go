package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/model"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/ports/repository"
)

// LedgerUseCase applies the monetary deltas of a succeeded payment: content
// revenue counters and the filmmaker's pending balance. It runs inside the
// terminal-transition transaction; the payment row's ledger_applied flag
// makes re-application a no-op.
type LedgerUseCase struct {
	payments repository.PaymentRepository
	contents repository.ContentRepository
	finance  repository.FinanceRepository
	log      *zerolog.Logger
}

func NewLedgerUseCase(
	payments repository.PaymentRepository,
	contents repository.ContentRepository,
	finance repository.FinanceRepository,
	logger *zerolog.Logger,
) *LedgerUseCase {
	l := logger.With().Str("component", "LedgerUC").Logger()
	return &LedgerUseCase{payments: payments, contents: contents, finance: finance, log: &l}
}

// Apply credits the content and filmmaker ledgers for p. Subscription
// revenue stays with the platform and touches no ledger.
func (uc *LedgerUseCase) Apply(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if p.LedgerApplied {
		uc.log.Debug().Str("payment_id", p.ID).Msg("ledger already applied")
		return nil
	}
	if p.Class.IsSubscription() {
		return uc.payments.MarkLedgerApplied(ctx, tx, p.ID)
	}

	target := p.MovieID
	if p.Class == model.PaymentClassSeriesAccess {
		target = p.SeriesID
	}
	if err := uc.contents.AddRevenue(ctx, tx, target, p.AmountRWF, 1); err != nil {
		return err
	}

	if p.FilmmakerShare > 0 {
		content, err := uc.contents.FindByID(ctx, tx, target)
		if err != nil {
			return err
		}
		if err := uc.finance.CreditPending(ctx, tx, content.FilmmakerID, p.FilmmakerShare); err != nil {
			return err
		}
	}

	return uc.payments.MarkLedgerApplied(ctx, tx, p.ID)
}
