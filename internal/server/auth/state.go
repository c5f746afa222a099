package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
)

// StateTTL is how long a minted link state stays verifiable. The window is
// short enough that no replay cache is kept.
const StateTTL = 600 * time.Second

// NewLinkState mints a signed, time-boxed state value binding a pending
// OAuth authorization request to userID. The value is
// base64url(userID:unixTS:hexHMAC) where the HMAC-SHA256 covers
// "userID:unixTS" under the server secret.
func NewLinkState(userID string, secret []byte) string {
	return newLinkStateAt(userID, secret, time.Now())
}

func newLinkStateAt(userID string, secret []byte, now time.Time) string {
	ts := strconv.FormatInt(now.Unix(), 10)
	msg := userID + ":" + ts
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(msg))
	sig := hex.EncodeToString(mac.Sum(nil))
	raw := msg + ":" + sig
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// VerifyLinkState checks the signature (constant time) and the age of the
// state and returns the bound user id. Tampered values yield
// common.ErrStateInvalid, stale ones common.ErrStateExpired.
func VerifyLinkState(state string, secret []byte, maxAge time.Duration) (string, error) {
	return verifyLinkStateAt(state, secret, maxAge, time.Now())
}

func verifyLinkStateAt(state string, secret []byte, maxAge time.Duration, now time.Time) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(state)
	if err != nil {
		return "", common.ErrStateInvalid
	}

	parts := strings.Split(string(raw), ":")
	if len(parts) != 3 {
		return "", common.ErrStateInvalid
	}
	userID, ts, sig := parts[0], parts[1], parts[2]

	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%s:%s", userID, ts)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return "", common.ErrStateInvalid
	}

	issued, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", common.ErrStateInvalid
	}
	age := now.Unix() - issued
	if age < 0 {
		age = -age
	}
	if time.Duration(age)*time.Second > maxAge {
		return "", common.ErrStateExpired
	}

	return userID, nil
}
