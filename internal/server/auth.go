package server

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"
)

func parseSkew() time.Duration {
	defaultSkew := 5 * time.Minute
	val := os.Getenv("ALLOWED_SKEW_MINUTES")
	minutes, err := strconv.Atoi(val)
	if err != nil {
		return defaultSkew
	}

	if minutes <= 0 {
		return 0 // disabled in local dev
	}

	return time.Duration(minutes) * time.Minute
}

// Sign returns the signature for a request body sent at ts: hex HMAC-SHA256
// over "<ts>\n<hex sha256 of body>".
func Sign(secret []byte, ts string, body []byte) string {
	sum := sha256.Sum256(body)
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(ts + "\n" + hex.EncodeToString(sum[:])))
	return hex.EncodeToString(mac.Sum(nil))
}

func verifyHMAC(r *http.Request, secret []byte) bool {
	sig := r.Header.Get("X-Signature")
	ts := r.Header.Get("X-Timestamp")

	tsInt, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}

	if allowedSkew := parseSkew(); allowedSkew != 0 {
		t := time.Unix(tsInt, 0)
		now := time.Now()
		if t.Before(now.Add(-allowedSkew)) || t.After(now.Add(allowedSkew)) {
			return false // stale or future request
		}
	}

	// The body is consumed here, so hand the handler a fresh reader.
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBatchBytes+1))
	if err != nil {
		return false
	}
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	return hmac.Equal([]byte(sig), []byte(Sign(secret, ts, body)))
}

/*
Middleware factory is used to pass in the secret auth keys
*/
func AuthMiddleware(secrets map[string][]byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			keyID := r.Header.Get("X-Key-ID")
			secret, ok := secrets[keyID]
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !verifyHMAC(r, secret) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
