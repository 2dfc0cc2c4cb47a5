// Package token defines the persisted token record for an authenticated
// account session: the access/refresh token pair, the shared session key
// issued by the identity backend, and the access-token expiry.
package token

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record holds the credential state of one account session.
type Record struct {
	// AccessToken is the bearer credential for API calls. Empty means "not
	// logged in" for proactive refresh purposes, but not for refresh
	// capability.
	AccessToken string

	// RefreshToken is the long-lived renewal credential. Empty means truly
	// unauthenticated.
	RefreshToken string

	// SharedSessionKey is an opaque correlation key issued by the identity
	// backend and persisted alongside the tokens.
	SharedSessionKey string

	// ExpiresAt is the epoch second after which the access token is stale.
	ExpiresAt int64
}

// HasRefresh reports whether the record carries refresh capability. A
// non-empty refresh token makes a silent login attempt valid even when the
// access token is empty or expired.
func (r Record) HasRefresh() bool {
	return r.RefreshToken != ""
}

// Empty reports whether the record carries no credentials at all.
func (r *Record) Empty() bool {
	return r.AccessToken == "" && r.RefreshToken == ""
}

// RemainingSeconds returns the seconds until the access token expires at
// now. Zero or negative means already stale.
func (r *Record) RemainingSeconds(now time.Time) int64 {
	return r.ExpiresAt - now.Unix()
}

// Clear blanks every field.
func (r *Record) Clear() {
	*r = Record{}
}

// Serialize renders the persisted pipe-joined form
// "<access>|<refresh>|<expiry-epoch-seconds>". A record with no credentials
// serializes to the empty string so logout persists an empty value.
func (r *Record) Serialize() string {
	if r.Empty() {
		return ""
	}
	return r.AccessToken + "|" + r.RefreshToken + "|" + strconv.FormatInt(r.ExpiresAt, 10)
}

// Parse decodes the pipe-joined persisted form. An empty value yields an
// empty record. Short forms are tolerated: missing fields stay blank, a
// malformed expiry parses as zero (already stale).
func Parse(value string) (Record, error) {
	var rec Record
	if value == "" {
		return rec, nil
	}
	parts := strings.Split(value, "|")
	if len(parts) > 3 {
		return rec, fmt.Errorf("token: malformed record with %d fields", len(parts))
	}
	if len(parts) > 0 {
		rec.AccessToken = parts[0]
	}
	if len(parts) > 1 {
		rec.RefreshToken = parts[1]
	}
	if len(parts) > 2 && parts[2] != "" {
		expiry, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return rec, fmt.Errorf("token: malformed expiry %q: %w", parts[2], err)
		}
		rec.ExpiresAt = expiry
	}
	return rec, nil
}
