// Package signature verifies the HMAC that Genuka attaches to signed
// callback requests and webhook deliveries.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"time"
)

// CanonicalMessage serialises params into the exact string Genuka signs:
// keys sorted lexicographically, then form-encoded. Values that arrive
// percent-encoded get encoded again. That double-encoding matches the
// provider's own construction: decoding before signing breaks
// interoperability.
func CanonicalMessage(params url.Values) string {
	return params.Encode()
}

// Sign computes the hex HMAC-SHA256 of the canonical message.
func Sign(params url.Values, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(CanonicalMessage(params)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether provided matches the expected signature for params.
// The comparison is constant time. Verify never fails with an error; the
// caller decides what a mismatch means.
func Verify(params url.Values, provided, secret string) bool {
	expected := Sign(params, secret)
	return hmac.Equal([]byte(expected), []byte(provided))
}

// SignPayload computes the hex HMAC-SHA256 of a raw body, as used for
// webhook deliveries.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPayload constant-time-compares a raw-body signature.
func VerifyPayload(payload []byte, provided, secret string) bool {
	expected := SignPayload(payload, secret)
	return hmac.Equal([]byte(expected), []byte(provided))
}

// FreshTimestamp reports whether a unix timestamp string is within the
// replay window of now, in either direction. Exactly at the window edge is
// still fresh. Malformed timestamps are never fresh.
func FreshTimestamp(timestamp string, now time.Time, window time.Duration) bool {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	diff := now.Unix() - ts
	if diff < 0 {
		diff = -diff
	}
	return diff <= int64(window.Seconds())
}
