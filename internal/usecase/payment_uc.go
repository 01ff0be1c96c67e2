package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/model"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/money"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/ports/adapter"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/ports/repository"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/infra/metrics"
)

// StatusCache answers terminal payment status without a database read.
type StatusCache interface {
	Get(ctx context.Context, paymentID string) (string, bool)
	Put(ctx context.Context, paymentID, status string)
}

// Translator localizes user-facing failure messages.
type Translator interface {
	T(key string, args ...interface{}) string
}

// BalanceDetector reports whether a gateway message is about wallet balance.
type BalanceDetector func(gatewayMessage string) bool

// ShareConfig fixes the revenue split and the platform payout destination.
type ShareConfig struct {
	FilmmakerPct int
	AdminPhone   string
}

// ChargeInput is one purchase request after transport-level validation.
// Amount is in the client's currency; the use case normalizes to RWF.
type ChargeInput struct {
	UserID       string
	MovieID      string
	SeriesID     string
	Plan         string
	Class        model.PaymentClass
	AccessPeriod model.AccessPeriod
	Amount       float64
	Currency     string
	Phone        string
	Description  string
}

// WebhookNotice is one gateway notification after body parsing.
type WebhookNotice struct {
	ReferenceID   string
	PaymentStatus string
	Status        string
	FinTxID       string
	Reason        string
}

// PaymentUseCase drives one payment through charge, confirmation, access
// grant, ledger update and payout fan-out. Every terminal transition funnels
// through a single locked routine, whichever path triggered it.
type PaymentUseCase interface {
	InitiateMomo(ctx context.Context, in ChargeInput) (*model.Payment, error)
	InitiateStripe(ctx context.Context, in ChargeInput) (*model.Payment, error)
	ConfirmManual(ctx context.Context, paymentID string, succeeded bool, reason string) (*model.Payment, error)
	Status(ctx context.Context, paymentID string) (model.PaymentStatus, error)
	PollAndResolve(ctx context.Context, referenceID string) (*model.Payment, error)
	HandleWebhook(ctx context.Context, n WebhookNotice) (*model.Payment, error)
	ReconcileStale(ctx context.Context, olderThan time.Time, limit int) (int, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Payment, error)
	SeriesPricing(ctx context.Context, seriesID string) ([]*model.SeriesTier, error)
}

type paymentUC struct {
	payments    repository.PaymentRepository
	events      repository.PaymentEventRepository
	contents    repository.ContentRepository
	finance     repository.FinanceRepository
	tm          repository.TransactionManager
	gateway     adapter.MomoGateway
	access      *AccessUseCase
	ledger      *LedgerUseCase
	withdrawals *WithdrawalUseCase
	signer      adapter.URLSigner
	cache       StatusCache
	tr          Translator
	balanceHint BalanceDetector
	shares      ShareConfig
	log         *zerolog.Logger
}

var _ PaymentUseCase = (*paymentUC)(nil)

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	events repository.PaymentEventRepository,
	contents repository.ContentRepository,
	finance repository.FinanceRepository,
	tm repository.TransactionManager,
	gateway adapter.MomoGateway,
	access *AccessUseCase,
	ledger *LedgerUseCase,
	withdrawals *WithdrawalUseCase,
	signer adapter.URLSigner,
	cache StatusCache,
	tr Translator,
	balanceHint BalanceDetector,
	shares ShareConfig,
	logger *zerolog.Logger,
) PaymentUseCase {
	l := logger.With().Str("component", "PaymentUC").Logger()
	return &paymentUC{
		payments: payments, events: events, contents: contents, finance: finance,
		tm: tm, gateway: gateway, access: access, ledger: ledger,
		withdrawals: withdrawals, signer: signer, cache: cache, tr: tr,
		balanceHint: balanceHint, shares: shares, log: &l,
	}
}

// InitiateMomo charges the viewer's mobile-money wallet. Once the charge is
// issued the rest of the flow runs on a detached context so a client
// disconnect cannot orphan collected money.
func (uc *paymentUC) InitiateMomo(ctx context.Context, in ChargeInput) (*model.Payment, error) {
	p, err := uc.buildPayment(ctx, in)
	if err != nil {
		return nil, err
	}
	p.Provider = "lanari-pay"
	if err := uc.payments.Save(ctx, nil, p); err != nil {
		return nil, err
	}

	detached := context.WithoutCancel(ctx)
	res, err := uc.gateway.Charge(detached, adapter.ChargeRequest{
		Amount:      p.AmountRWF,
		Phone:       p.Phone,
		UserID:      p.UserID,
		Description: chargeDescription(in),
	})
	if err != nil {
		_, ferr := uc.applyTerminal(detached, p.ID, model.PaymentStatusFailed, "charge", "", "gateway unreachable")
		if ferr != nil {
			uc.log.Error().Err(ferr).Str("payment_id", p.ID).Msg("failed to record charge failure")
		}
		return p, err
	}

	p.ReferenceID = res.ReferenceID
	p.FinTxID = res.FinTxID
	if err := uc.payments.Save(detached, nil, p); err != nil {
		return p, err
	}

	if !res.Success || res.GatewayStatus == adapter.GatewayStatusFailed {
		reason := res.Message
		if uc.balanceHint != nil && uc.balanceHint(reason) {
			reason = uc.tr.T("insufficient_funds")
		}
		if reason == "" {
			reason = "charge rejected"
		}
		out, ferr := uc.applyTerminal(detached, p.ID, model.PaymentStatusFailed, "charge", res.FinTxID, reason)
		if ferr != nil {
			uc.log.Error().Err(ferr).Str("payment_id", p.ID).Msg("failed to record charge rejection")
		}
		if out != nil {
			p = out
		}
		return p, fmt.Errorf("%w: %s", domain.ErrGatewayRejected, reason)
	}

	if res.GatewayStatus == adapter.GatewayStatusSuccessful {
		out, err := uc.applyTerminal(detached, p.ID, model.PaymentStatusSucceeded, "charge", res.FinTxID, "")
		if err != nil && !errors.Is(err, domain.ErrAlreadyTerminal) {
			uc.log.Error().Err(err).Str("payment_id", p.ID).Msg("post-charge resolution failed")
			return p, err
		}
		if out != nil {
			return out, nil
		}
	}
	// Gateway answered PENDING; webhook or polling resolves it later.
	return p, nil
}

// InitiateStripe records a card payment in pending state. The card flow
// confirms out of band and lands on ConfirmManual, sharing the same split
// and side-effect pipeline as mobile money.
func (uc *paymentUC) InitiateStripe(ctx context.Context, in ChargeInput) (*model.Payment, error) {
	p, err := uc.buildPayment(ctx, in)
	if err != nil {
		return nil, err
	}
	p.Provider = "stripe"
	p.ReferenceID = "stripe-" + p.ID
	if err := uc.payments.Save(ctx, nil, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ConfirmManual is the admin/stripe override. It drives the same transition
// routine as the gateway paths.
func (uc *paymentUC) ConfirmManual(ctx context.Context, paymentID string, succeeded bool, reason string) (*model.Payment, error) {
	outcome := model.PaymentStatusFailed
	if succeeded {
		outcome = model.PaymentStatusSucceeded
	}
	return uc.applyTerminal(ctx, paymentID, outcome, "admin", "", reason)
}

// Status serves the public status endpoint. Terminal statuses come from the
// cache when possible; pending always hits the database.
func (uc *paymentUC) Status(ctx context.Context, paymentID string) (model.PaymentStatus, error) {
	if s, ok := uc.cache.Get(ctx, paymentID); ok {
		return model.PaymentStatus(s), nil
	}
	p, err := uc.payments.FindByID(ctx, nil, paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrPaymentMissing
		}
		return "", err
	}
	if p.Status.IsTerminal() {
		uc.cache.Put(ctx, p.ID, string(p.Status))
	}
	return p.Status, nil
}

// PollAndResolve forces a gateway status check for a pending payment,
// identified by the gateway reference the client received at charge time.
func (uc *paymentUC) PollAndResolve(ctx context.Context, referenceID string) (*model.Payment, error) {
	return uc.pollAs(ctx, referenceID, "poll")
}

func (uc *paymentUC) pollAs(ctx context.Context, referenceID, actor string) (*model.Payment, error) {
	p, err := uc.payments.FindByReference(ctx, nil, referenceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrPaymentMissing
		}
		return nil, err
	}
	if p.Status.IsTerminal() {
		return p, nil
	}

	st, err := uc.gateway.PollStatus(ctx, referenceID)
	if err != nil {
		return p, err
	}
	var outcome model.PaymentStatus
	switch st {
	case adapter.GatewayStatusSuccessful:
		outcome = model.PaymentStatusSucceeded
	case adapter.GatewayStatusFailed:
		outcome = model.PaymentStatusFailed
	default:
		return p, nil
	}

	out, err := uc.applyTerminal(context.WithoutCancel(ctx), p.ID, outcome, actor, "", "")
	if errors.Is(err, domain.ErrAlreadyTerminal) {
		return out, nil
	}
	if err != nil {
		return p, err
	}
	return out, nil
}

// HandleWebhook applies a gateway notification. Redelivery of a terminal
// event is a no-op, never an error; unknown references are.
func (uc *paymentUC) HandleWebhook(ctx context.Context, n WebhookNotice) (*model.Payment, error) {
	outcome, terminal := mapWebhookStatus(n.PaymentStatus, n.Status)
	p, err := uc.payments.FindByReference(ctx, nil, n.ReferenceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrPaymentMissing
		}
		return nil, err
	}
	if !terminal {
		return p, nil
	}

	out, err := uc.applyTerminal(context.WithoutCancel(ctx), p.ID, outcome, "webhook", n.FinTxID, n.Reason)
	if errors.Is(err, domain.ErrAlreadyTerminal) {
		// stale delivery for a resolved transaction
		return out, nil
	}
	if err != nil {
		return p, err
	}
	return out, nil
}

// unreferencedGrace is how long a pending payment may sit without a gateway
// reference before the reconciler fails it. A charge that never produced a
// reference cannot be polled and will never receive a webhook.
const unreferencedGrace = 24 * time.Hour

// ReconcileStale polls every pending payment older than the cutoff. Payments
// without a gateway reference cannot be polled; once they outlive the grace
// window they are failed so they do not stay pending forever.
func (uc *paymentUC) ReconcileStale(ctx context.Context, olderThan time.Time, limit int) (int, error) {
	stale, err := uc.payments.ListPendingOlderThan(ctx, nil, olderThan, limit)
	if err != nil {
		return 0, err
	}
	resolved := 0
	for _, p := range stale {
		if p.ReferenceID == "" {
			if time.Since(p.CreatedAt) < unreferencedGrace {
				continue
			}
			out, err := uc.applyTerminal(ctx, p.ID, model.PaymentStatusFailed, "reconciler", "", "no gateway reference")
			if err != nil && !errors.Is(err, domain.ErrAlreadyTerminal) {
				uc.log.Warn().Err(err).Str("payment_id", p.ID).Msg("reconcile of unreferenced payment failed")
				continue
			}
			if out != nil && out.Status.IsTerminal() {
				metrics.IncReconciled(string(out.Status))
				resolved++
			}
			continue
		}
		out, err := uc.pollAs(ctx, p.ReferenceID, "reconciler")
		if err != nil {
			uc.log.Warn().Err(err).Str("payment_id", p.ID).Msg("reconcile poll failed")
			continue
		}
		if out != nil && out.Status.IsTerminal() {
			metrics.IncReconciled(string(out.Status))
			resolved++
		}
	}
	return resolved, nil
}

func (uc *paymentUC) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Payment, error) {
	return uc.payments.ListByUser(ctx, nil, userID, offset, limit)
}

func (uc *paymentUC) SeriesPricing(ctx context.Context, seriesID string) ([]*model.SeriesTier, error) {
	return uc.contents.ListTiers(ctx, nil, seriesID)
}

// buildPayment validates the request and resolves the authoritative RWF
// amount and split. No row is written here.
func (uc *paymentUC) buildPayment(ctx context.Context, in ChargeInput) (*model.Payment, error) {
	phone, err := money.ValidatePhoneRW(in.Phone)
	if err != nil {
		return nil, err
	}
	if in.Amount <= 0 {
		return nil, domain.ErrMissingField
	}
	if in.AccessPeriod != "" && !in.AccessPeriod.Valid() {
		return nil, domain.ErrInvalidArgument
	}

	p, err := model.NewPayment(in.UserID, in.Class, in.MovieID, in.SeriesID, in.Plan)
	if err != nil {
		return nil, err
	}
	p.AccessPeriod = in.AccessPeriod
	p.Phone = phone

	amountRWF, rate, err := money.NormalizeToRWF(in.Amount, in.Currency)
	if err != nil {
		return nil, err
	}

	switch in.Class {
	case model.PaymentClassWatch, model.PaymentClassDownload:
		if _, err := uc.contents.FindByID(ctx, nil, in.MovieID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrContentMissing
			}
			return nil, err
		}
	case model.PaymentClassSeriesAccess:
		if in.AccessPeriod == "" {
			return nil, domain.ErrMissingField
		}
		tier, err := uc.contents.FindTier(ctx, nil, in.SeriesID, in.AccessPeriod)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrContentMissing
			}
			return nil, err
		}
		// The published tier is the source of truth for the price.
		if tier.PriceRWF != amountRWF {
			uc.log.Warn().
				Str("series_id", in.SeriesID).
				Int64("client_amount_rwf", amountRWF).
				Int64("tier_price_rwf", tier.PriceRWF).
				Msg("client amount differs from published tier, using tier price")
			amountRWF = tier.PriceRWF
		}
	}

	if amountRWF < money.MinimumAmountRWF {
		return nil, domain.ErrAmountTooLow
	}

	p.AmountRWF = amountRWF
	p.OriginalAmount = in.Amount
	p.OriginalCurrency = strings.ToUpper(strings.TrimSpace(in.Currency))
	p.ExchangeRate = rate
	p.FilmmakerShare, p.PlatformShare = money.Split(amountRWF, in.Class, uc.shares.FilmmakerPct)
	return p, nil
}

// applyTerminal is the single transition routine. It locks the payment row,
// flips it exactly once, grants access and applies the ledger inside the
// same transaction, then fans payouts out after commit.
func (uc *paymentUC) applyTerminal(ctx context.Context, paymentID string, outcome model.PaymentStatus, actor, finTxID, reason string) (*model.Payment, error) {
	if !outcome.IsTerminal() {
		return nil, domain.ErrInvalidArgument
	}

	var p *model.Payment
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		cur, err := uc.payments.FindByID(ctx, tx, paymentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrPaymentMissing
			}
			return err
		}
		if cur.Status.IsTerminal() {
			p = cur
			return domain.ErrAlreadyTerminal
		}
		if outcome == model.PaymentStatusSucceeded {
			if err := cur.CheckSplit(); err != nil {
				uc.log.Error().
					Str("payment_id", cur.ID).
					Int64("amount", cur.AmountRWF).
					Int64("filmmaker_share", cur.FilmmakerShare).
					Int64("platform_share", cur.PlatformShare).
					Msg("split invariant violated")
				return err
			}
		}

		now := time.Now()
		var paidAt *time.Time
		if outcome == model.PaymentStatusSucceeded {
			paidAt = &now
		}
		ok, err := uc.payments.UpdateStatusIfPending(ctx, tx, cur.ID, outcome, finTxID, reason, paidAt)
		if err != nil {
			return err
		}
		if !ok {
			p = cur
			return domain.ErrAlreadyTerminal
		}

		from := cur.Status
		cur.Status = outcome
		if finTxID != "" {
			cur.FinTxID = finTxID
		}
		cur.FailureReason = reason
		cur.PaidAt = paidAt
		if err := uc.events.Append(ctx, tx, model.NewPaymentEvent(cur.ID, actor, from, outcome, reason)); err != nil {
			return err
		}

		if outcome == model.PaymentStatusSucceeded {
			exp, err := uc.access.Grant(ctx, tx, cur)
			if err != nil {
				return err
			}
			cur.ExpiresAt = exp
			if err := uc.attachSignedURLs(cur); err != nil {
				return err
			}
			// Save persists the expiry snapshot and the signed URLs.
			if err := uc.payments.Save(ctx, tx, cur); err != nil {
				return err
			}
			if err := uc.ledger.Apply(ctx, tx, cur); err != nil {
				return err
			}
		}
		p = cur
		return nil
	})
	if err != nil {
		return p, err
	}

	uc.cache.Put(ctx, p.ID, string(p.Status))
	metrics.IncPayment(string(p.Status), string(p.Class))
	uc.log.Info().
		Str("payment_id", p.ID).
		Str("actor", actor).
		Str("status", string(p.Status)).
		Msg("payment resolved")

	if p.Status == model.PaymentStatusSucceeded {
		metrics.AddPaymentRevenue(string(p.Class), p.AmountRWF)
		uc.payoutFanOut(ctx, p)
	}
	return p, nil
}

// attachSignedURLs mints stream/download URLs for direct content purchases
// and stores them on the payment for the client to pick up.
func (uc *paymentUC) attachSignedURLs(p *model.Payment) error {
	var ops []adapter.SignedOp
	switch p.Class {
	case model.PaymentClassWatch:
		ops = []adapter.SignedOp{adapter.OpStream, adapter.OpHLSStream}
	case model.PaymentClassDownload:
		ops = []adapter.SignedOp{adapter.OpDownload}
	default:
		return nil
	}

	if p.Meta == nil {
		p.Meta = map[string]interface{}{}
	}
	for _, op := range ops {
		u, err := uc.signer.SignedURL(p, op)
		if err != nil {
			return err
		}
		key := strings.ReplaceAll(string(op), "-", "_") + "_url"
		p.Meta[key] = u
	}
	return nil
}

// payoutFanOut disburses the shares of a succeeded payment. A payout failure
// never unwinds the payment; money was collected and service is owed.
func (uc *paymentUC) payoutFanOut(ctx context.Context, p *model.Payment) {
	if p.FilmmakerShare > 0 {
		uc.payFilmmaker(ctx, p)
	}
	if p.PlatformShare > 0 {
		if uc.shares.AdminPhone == "" {
			uc.log.Warn().Str("payment_id", p.ID).Msg("no admin momo number configured, platform fee not transferred")
		} else if _, err := uc.withdrawals.Payout(ctx, p, adminFeeType(p.Class), "", p.PlatformShare, uc.shares.AdminPhone); err != nil {
			uc.log.Warn().Err(err).Str("payment_id", p.ID).Msg("platform fee transfer failed")
		}
	}
}

func (uc *paymentUC) payFilmmaker(ctx context.Context, p *model.Payment) {
	contentID := p.MovieID
	if contentID == "" {
		contentID = p.SeriesID
	}
	content, err := uc.contents.FindByID(ctx, nil, contentID)
	if err != nil {
		uc.log.Error().Err(err).Str("payment_id", p.ID).Str("content_id", contentID).Msg("cannot resolve filmmaker for payout")
		return
	}

	phone := ""
	if fin, err := uc.finance.Find(ctx, nil, content.FilmmakerID); err == nil {
		phone = fin.PayoutPhone
	}
	if phone == "" {
		// Credit stays in pending_balance until a payout phone is set.
		uc.log.Warn().Str("payment_id", p.ID).Str("filmmaker_id", content.FilmmakerID).Msg("filmmaker has no payout phone, transfer skipped")
		return
	}
	if _, err := uc.withdrawals.Payout(ctx, p, model.WithdrawalTypeFilmmakerEarning, content.FilmmakerID, p.FilmmakerShare, phone); err != nil {
		uc.log.Warn().Err(err).Str("payment_id", p.ID).Str("filmmaker_id", content.FilmmakerID).Msg("filmmaker transfer failed")
	}
}

func adminFeeType(class model.PaymentClass) model.WithdrawalType {
	switch {
	case class == model.PaymentClassSeriesAccess:
		return model.WithdrawalTypeSeriesAccessAdminFee
	case class.IsSubscription():
		return model.WithdrawalTypeSubscriptionAdminFee
	default:
		return model.WithdrawalTypeAdminFee
	}
}

// mapWebhookStatus collapses the gateway's notification vocabulary onto the
// two terminal states. Anything unrecognized is treated as still pending.
func mapWebhookStatus(paymentStatus, status string) (model.PaymentStatus, bool) {
	switch strings.ToLower(paymentStatus) {
	case "success", "completed", "paid":
		return model.PaymentStatusSucceeded, true
	case "failed", "cancelled", "rejected":
		return model.PaymentStatusFailed, true
	}
	switch strings.ToLower(status) {
	case "success", "successful", "completed":
		return model.PaymentStatusSucceeded, true
	case "failed", "cancelled":
		return model.PaymentStatusFailed, true
	}
	return "", false
}

func chargeDescription(in ChargeInput) string {
	desc := in.Description
	if desc == "" {
		switch in.Class {
		case model.PaymentClassWatch:
			desc = "Movie watch payment"
		case model.PaymentClassDownload:
			desc = "Movie download payment"
		case model.PaymentClassSeriesAccess:
			desc = "Series access payment"
		default:
			desc = "Subscription payment"
		}
	}
	return money.SanitizeDescription(desc)
}
