package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// SignatureHeader is the gateway's webhook signature header.
const SignatureHeader = "myfatoorah-signature"

// Sign computes the base64 HMAC-SHA256 of body under secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature against the raw request body.
// Some signer versions strip base64 padding, so the received value is
// compared (in constant time) against both the padded digest and its
// padding-stripped form.
func VerifySignature(body []byte, secret, received string) bool {
	if received == "" {
		return false
	}
	expected := Sign(body, secret)
	if hmac.Equal([]byte(received), []byte(expected)) {
		return true
	}
	stripped := strings.TrimRight(expected, "=")
	return hmac.Equal([]byte(received), []byte(stripped))
}
