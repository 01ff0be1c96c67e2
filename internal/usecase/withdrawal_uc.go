package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/model"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/money"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/ports/adapter"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/ports/repository"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/infra/metrics"
)

// MinManualWithdrawalRWF is the floor for filmmaker-initiated withdrawals.
const MinManualWithdrawalRWF int64 = 1000

// WithdrawalUseCase records one row per outbound transfer and drives the
// gateway disbursement. The row is written in `processing` before the HTTP
// call so a crash mid-transfer leaves an auditable trace.
type WithdrawalUseCase struct {
	withdrawals repository.WithdrawalRepository
	finance     repository.FinanceRepository
	gateway     adapter.MomoGateway
	tm          repository.TransactionManager
	log         *zerolog.Logger
}

func NewWithdrawalUseCase(
	withdrawals repository.WithdrawalRepository,
	finance repository.FinanceRepository,
	gateway adapter.MomoGateway,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *WithdrawalUseCase {
	l := logger.With().Str("component", "WithdrawalUC").Logger()
	return &WithdrawalUseCase{withdrawals: withdrawals, finance: finance, gateway: gateway, tm: tm, log: &l}
}

// Payout transfers one beneficiary's share of a succeeded payment.
// maxShare caps the cumulative transfers per (payment, type); exceeding it
// would violate the share ceiling and aborts before any row is written.
func (uc *WithdrawalUseCase) Payout(ctx context.Context, p *model.Payment, wt model.WithdrawalType, beneficiaryID string, amount int64, phone string) (*model.Withdrawal, error) {
	maxShare := p.PlatformShare
	if wt == model.WithdrawalTypeFilmmakerEarning {
		maxShare = p.FilmmakerShare
	}
	already, err := uc.withdrawals.SumByPaymentAndType(ctx, nil, p.ID, wt)
	if err != nil {
		return nil, err
	}
	if already+amount > maxShare {
		return nil, domain.ErrSplitMismatch
	}

	w, err := model.NewWithdrawal(beneficiaryID, amount, phone, wt, &p.ID)
	if err != nil {
		return nil, err
	}
	w.Status = model.WithdrawalStatusProcessing
	w.ExternalID = ulid.Make().String()
	now := time.Now()
	w.ProcessedAt = &now
	if err := uc.withdrawals.Save(ctx, nil, w); err != nil {
		return nil, err
	}

	res, err := uc.gateway.Disburse(ctx, adapter.DisburseRequest{
		Amount:      amount,
		Phone:       phone,
		ExternalID:  w.ExternalID,
		Description: fmt.Sprintf("%s payout for payment %s", wt, p.ID),
	})
	if err != nil || !res.Success {
		reason := "gateway rejected transfer"
		if err != nil {
			reason = err.Error()
		} else if res.Message != "" {
			reason = res.Message
		}
		w.Status = model.WithdrawalStatusFailed
		w.FailureReason = reason
		_ = uc.withdrawals.UpdateStatus(ctx, nil, w.ID, w.Status, "", reason)
		metrics.IncWithdrawal(string(w.Status), string(wt))
		uc.log.Warn().Str("withdrawal_id", w.ID).Str("payment_id", p.ID).Str("reason", reason).Msg("disburse failed")
		return w, err
	}

	w.Status = model.WithdrawalStatusCompleted
	w.ReferenceID = res.ReferenceID
	if err := uc.withdrawals.UpdateStatus(ctx, nil, w.ID, w.Status, res.ReferenceID, ""); err != nil {
		return w, err
	}

	// A completed filmmaker transfer moves the credit from pending to
	// available, serialized on the finance row lock.
	if wt == model.WithdrawalTypeFilmmakerEarning {
		err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			if _, err := uc.finance.FindForUpdate(ctx, tx, beneficiaryID); err != nil {
				return err
			}
			return uc.finance.MovePendingToAvailable(ctx, tx, beneficiaryID, amount)
		})
		if err != nil {
			uc.log.Error().Err(err).Str("withdrawal_id", w.ID).Msg("balance move failed after completed transfer")
			return w, err
		}
	}

	metrics.IncWithdrawal(string(w.Status), string(wt))
	metrics.AddWithdrawalAmount(string(wt), amount)
	return w, nil
}

// RequestManual lets a filmmaker pull funds out of available_balance.
func (uc *WithdrawalUseCase) RequestManual(ctx context.Context, userID string, amount int64, rawPhone string) (*model.Withdrawal, error) {
	if amount < MinManualWithdrawalRWF {
		return nil, domain.ErrMinWithdrawal
	}
	phone, err := money.ValidatePhoneRW(rawPhone)
	if err != nil {
		return nil, err
	}

	w, err := model.NewWithdrawal(userID, amount, phone, model.WithdrawalTypeManual, nil)
	if err != nil {
		return nil, err
	}
	w.Status = model.WithdrawalStatusProcessing
	w.ExternalID = ulid.Make().String()
	now := time.Now()
	w.ProcessedAt = &now
	if err := uc.withdrawals.Save(ctx, nil, w); err != nil {
		return nil, err
	}

	res, err := uc.gateway.Disburse(ctx, adapter.DisburseRequest{
		Amount:      amount,
		Phone:       phone,
		ExternalID:  w.ExternalID,
		Description: "manual withdrawal",
	})
	if err != nil || !res.Success {
		reason := "gateway rejected transfer"
		if err != nil {
			reason = err.Error()
		}
		_ = uc.withdrawals.UpdateStatus(ctx, nil, w.ID, model.WithdrawalStatusFailed, "", reason)
		w.Status = model.WithdrawalStatusFailed
		w.FailureReason = reason
		metrics.IncWithdrawal(string(w.Status), string(w.Type))
		return w, err
	}

	// Debit only after the transfer went through; the guarded UPDATE
	// rejects the withdrawal when it would underflow the balance.
	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := uc.finance.FindForUpdate(ctx, tx, userID); err != nil {
			return err
		}
		return uc.finance.DebitAvailable(ctx, tx, userID, amount)
	})
	if err != nil {
		_ = uc.withdrawals.UpdateStatus(ctx, nil, w.ID, model.WithdrawalStatusFailed, res.ReferenceID, err.Error())
		w.Status = model.WithdrawalStatusFailed
		w.FailureReason = err.Error()
		return w, err
	}

	if err := uc.withdrawals.UpdateStatus(ctx, nil, w.ID, model.WithdrawalStatusCompleted, res.ReferenceID, ""); err != nil {
		return w, err
	}
	w.Status = model.WithdrawalStatusCompleted
	w.ReferenceID = res.ReferenceID
	metrics.IncWithdrawal(string(w.Status), string(w.Type))
	metrics.AddWithdrawalAmount(string(w.Type), amount)
	return w, nil
}

func (uc *WithdrawalUseCase) Get(ctx context.Context, id string) (*model.Withdrawal, error) {
	return uc.withdrawals.FindByID(ctx, nil, id)
}

func (uc *WithdrawalUseCase) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Withdrawal, error) {
	return uc.withdrawals.ListByUser(ctx, nil, userID, offset, limit)
}
