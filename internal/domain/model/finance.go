package model

import "time"

// FilmmakerFinance is one balance record per filmmaker. Concurrent
// orchestrations serialize on this row; see the repository's FOR UPDATE read.
type FilmmakerFinance struct {
	UserID           string
	PendingBalance   int64 // credited on succeeded sales, not yet transferred
	AvailableBalance int64 // transferred to the filmmaker's wallet
	WithdrawnBalance int64 // manually withdrawn
	TotalEarned      int64
	PayoutMethod     string // "mobile_money"
	PayoutPhone      string
	UpdatedAt        time.Time
}
