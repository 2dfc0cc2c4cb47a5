package secretstore

import (
	log "github.com/sirupsen/logrus"

	"github.com/printforge/accountlink/internal/token"
)

// Keys under which credentials are persisted. TokensKey holds the current
// pipe-joined triple; the remaining three are the legacy separated layout
// older installations may still carry.
const (
	TokensKey = "tokens"

	legacyAccessKey  = "access_token"
	legacyRefreshKey = "refresh_token"
	legacyTimeoutKey = "access_token_timeout"
)

// LoadTokenRecord restores a token record from the store, accepting either
// the pipe-joined form or the legacy three-key layout. An unusable store or
// a missing entry yields an empty (unauthenticated) record, never an error
// surfaced to the caller.
func LoadTokenRecord(s Store) token.Record {
	var rec token.Record
	if s == nil || !s.Ok() {
		log.Warn("secretstore: no usable secret store, starting unauthenticated")
		return rec
	}

	if user, secret, err := s.Load(TokensKey); err == nil {
		parsed, errParse := token.Parse(secret)
		if errParse != nil {
			log.Errorf("secretstore: stored tokens unreadable: %v", errParse)
			return rec
		}
		parsed.SharedSessionKey = user
		return parsed
	}

	// Legacy layout: three separate entries keyed by the shared session key.
	keyAccess, access, errAccess := s.Load(legacyAccessKey)
	keyRefresh, refresh, errRefresh := s.Load(legacyRefreshKey)
	_, timeout, _ := s.Load(legacyTimeoutKey)
	if errAccess != nil && errRefresh != nil {
		return rec
	}
	if keyAccess != keyRefresh {
		log.Warnf("secretstore: legacy entries disagree on session key (%q vs %q)", keyAccess, keyRefresh)
	}
	parsed, err := token.Parse(access + "|" + refresh + "|" + timeout)
	if err != nil {
		log.Errorf("secretstore: legacy tokens unreadable: %v", err)
		return rec
	}
	parsed.SharedSessionKey = keyAccess
	return parsed
}

// SaveTokenRecord persists rec under TokensKey when remember is true, and an
// empty value otherwise, effectively forgetting the tokens while leaving the
// in-memory session untouched. An unusable store degrades to a logged no-op.
func SaveTokenRecord(s Store, rec token.Record, remember bool) {
	if s == nil || !s.Ok() {
		log.Warn("secretstore: no usable secret store, tokens will not be persisted")
		return
	}
	value := ""
	if remember {
		value = rec.Serialize()
	}
	if err := s.Save(TokensKey, rec.SharedSessionKey, value); err != nil {
		log.Errorf("secretstore: saving tokens failed: %v", err)
	}
}
