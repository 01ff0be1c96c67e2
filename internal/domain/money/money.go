// Package money holds the pure arithmetic of the payment core: currency
// normalization, share splitting and gateway input hygiene. No I/O.
package money

import (
	"math"
	"regexp"
	"strings"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/model"
)

// MinimumAmountRWF is the smallest charge the gateway accepts.
const MinimumAmountRWF int64 = 5

// DefaultFilmmakerPct is the filmmaker cut on direct content sales.
const DefaultFilmmakerPct = 70

// rwfPerUnit is the fixed conversion table. RWF has no minor unit, so
// converted amounts round to the nearest whole franc.
var rwfPerUnit = map[string]int64{
	"RWF": 1,
	"USD": 1200,
	"EUR": 1300,
	"GBP": 1500,
}

// ShareFor returns (filmmakerPct, platformPct) for a payment class.
// Series access and subscriptions are platform revenue in full.
func ShareFor(class model.PaymentClass, filmmakerPct int) (int, int) {
	if filmmakerPct <= 0 || filmmakerPct > 100 {
		filmmakerPct = DefaultFilmmakerPct
	}
	switch class {
	case model.PaymentClassWatch, model.PaymentClassDownload:
		return filmmakerPct, 100 - filmmakerPct
	default:
		return 0, 100
	}
}

// Split divides amount between filmmaker and platform. The platform side is
// rounded half-up and the filmmaker side computed by subtraction so the two
// always sum back to amount exactly.
func Split(amount int64, class model.PaymentClass, filmmakerPct int) (filmmaker, platform int64) {
	_, platformPct := ShareFor(class, filmmakerPct)
	platform = (amount*int64(platformPct) + 50) / 100
	return amount - platform, platform
}

// NormalizeToRWF converts amount in currency to whole RWF using the fixed
// table. It also returns the rate applied (RWF per unit).
func NormalizeToRWF(amount float64, currency string) (int64, int64, error) {
	rate, ok := rwfPerUnit[strings.ToUpper(strings.TrimSpace(currency))]
	if !ok {
		return 0, 0, domain.ErrUnsupportedCurrency
	}
	return int64(math.Round(amount * float64(rate))), rate, nil
}

var (
	nonDigit = regexp.MustCompile(`\D`)
	phoneRW  = regexp.MustCompile(`^0(78|79)\d{7}$`)
)

// ValidatePhoneRW normalizes a raw phone input to the 0XXXXXXXXX form the
// gateway requires. It strips punctuation and whitespace, maps the 250
// country prefix to a leading zero, and prepends the zero when missing.
func ValidatePhoneRW(raw string) (string, error) {
	s := nonDigit.ReplaceAllString(raw, "")
	if strings.HasPrefix(s, "250") {
		s = "0" + s[3:]
	}
	if s != "" && !strings.HasPrefix(s, "0") {
		s = "0" + s
	}
	if !phoneRW.MatchString(s) {
		return "", domain.ErrInvalidPhone
	}
	return s, nil
}

var descAllowed = regexp.MustCompile(`[^A-Za-z0-9 ]+`)

// SanitizeDescription keeps [A-Za-z0-9 ] and collapses whitespace runs.
// The gateway rejects anything else.
func SanitizeDescription(s string) string {
	s = descAllowed.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
