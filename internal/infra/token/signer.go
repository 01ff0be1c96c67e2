package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/model"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/ports/adapter"
)

const (
	streamTokenTTL   = 48 * time.Hour
	downloadTokenTTL = 24 * time.Hour
)

// EntitlementClaims travel inside the signed stream/download URLs. The
// streaming service verifies them; this side only mints.
type EntitlementClaims struct {
	PaymentID    string `json:"payment_id"`
	UserID       string `json:"user_id"`
	MovieID      string `json:"movie_id"`
	Op           string `json:"op"`
	ContentType  string `json:"content_type"`
	SeriesID     string `json:"series_id,omitempty"`
	AccessPeriod string `json:"access_period,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"` // entitlement expiry, not token expiry
	jwt.RegisteredClaims
}

// Signer mints short-lived signed URLs for stream and download access.
// It holds no state beyond the secret and the public API base URL.
type Signer struct {
	secret []byte
	apiURL string
}

var _ adapter.URLSigner = (*Signer)(nil)

func NewSigner(secret, apiURL string) *Signer {
	return &Signer{secret: []byte(secret), apiURL: apiURL}
}

// SignedURL returns {API_URL}/movies/{op}/{paymentID}?token={JWT}.
// Stream and HLS tokens live 48h, download tokens 24h.
func (s *Signer) SignedURL(p *model.Payment, op adapter.SignedOp) (string, error) {
	ttl := streamTokenTTL
	if op == adapter.OpDownload {
		ttl = downloadTokenTTL
	}

	now := time.Now()
	claims := EntitlementClaims{
		PaymentID:    p.ID,
		UserID:       p.UserID,
		MovieID:      p.MovieID,
		Op:           string(op),
		ContentType:  contentTypeOf(p),
		SeriesID:     p.SeriesID,
		AccessPeriod: string(p.AccessPeriod),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   p.UserID,
		},
	}
	if p.ExpiresAt != nil {
		// entitlement expiry rides along for the streaming service;
		// the registered exp above bounds the token itself
		claims.ExpiresAt = p.ExpiresAt.Unix()
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/movies/%s/%s?token=%s", s.apiURL, op, p.ID, signed), nil
}

func contentTypeOf(p *model.Payment) string {
	if p.SeriesID != "" && p.MovieID != "" {
		return "episode"
	}
	if p.SeriesID != "" {
		return "series"
	}
	return "movie"
}
