package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain"
)

type WithdrawalStatus string

const (
	WithdrawalStatusPending    WithdrawalStatus = "pending"
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
	WithdrawalStatusFailed     WithdrawalStatus = "failed"
	WithdrawalStatusCancelled  WithdrawalStatus = "cancelled"
	WithdrawalStatusRejected   WithdrawalStatus = "rejected"
)

func (s WithdrawalStatus) IsTerminal() bool {
	switch s {
	case WithdrawalStatusCompleted, WithdrawalStatusFailed, WithdrawalStatusCancelled, WithdrawalStatusRejected:
		return true
	}
	return false
}

type WithdrawalType string

const (
	WithdrawalTypeFilmmakerEarning     WithdrawalType = "filmmaker_earning"
	WithdrawalTypeAdminFee             WithdrawalType = "admin_fee"
	WithdrawalTypeSubscriptionAdminFee WithdrawalType = "subscription_admin_fee"
	WithdrawalTypeSeriesAccessAdminFee WithdrawalType = "series_access_admin_fee"
	WithdrawalTypeManual               WithdrawalType = "manual_withdrawal"
	WithdrawalTypeAutomaticPayout      WithdrawalType = "automatic_payout"
)

// Withdrawal is one outbound transfer attempt. A payment-triggered withdrawal
// keeps a weak link to its payment (SET NULL on payment delete).
type Withdrawal struct {
	ID            string
	UserID        string // beneficiary; empty for platform fee transfers
	AmountRWF     int64
	Currency      string
	Phone         string // destination, normalized 0XXXXXXXXX
	Status        WithdrawalStatus
	PaymentID     *string
	Type          WithdrawalType
	ExternalID    string // ULID handed to the gateway; idempotency handle
	ReferenceID   string // gateway reference after transfer
	FailureReason string
	CreatedAt     time.Time
	ProcessedAt   *time.Time
	CompletedAt   *time.Time
}

func NewWithdrawal(userID string, amount int64, phone string, wt WithdrawalType, paymentID *string) (*Withdrawal, error) {
	if amount <= 0 || phone == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Withdrawal{
		ID:        uuid.NewString(),
		UserID:    userID,
		AmountRWF: amount,
		Currency:  "RWF",
		Phone:     phone,
		Status:    WithdrawalStatusPending,
		PaymentID: paymentID,
		Type:      wt,
		CreatedAt: time.Now(),
	}, nil
}
