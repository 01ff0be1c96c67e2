package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyWebhookSignature checks the x-lanari-signature header: a hex-encoded
// HMAC-SHA256 of the raw webhook body keyed with the API secret. Comparison
// runs in constant time over the decoded MAC.
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	sig, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(h.Sum(nil), sig)
}
