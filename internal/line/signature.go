// Package line implements the LINE Messaging API surface Kotori needs:
// webhook signature verification, event decoding, and the reply endpoint.
package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignatureHeader is the request header carrying the webhook signature.
const SignatureHeader = "X-Line-Signature"

// VerifySignature checks a webhook payload against the channel secret.
// The digest is an HMAC-SHA256 over the exact raw body bytes, base64-encoded.
// Verification must run on the raw body; re-serializing parsed JSON changes
// the bytes and breaks it. The comparison is constant-time.
func VerifySignature(rawBody []byte, channelSecret, signature string) bool {
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(rawBody)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
