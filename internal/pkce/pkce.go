// Package pkce generates PKCE code verifier and challenge pairs following
// RFC 7636 for the OAuth 2.0 authorization-code flow. The challenge binds an
// authorization code to the client-held verifier so an intercepted code
// cannot be exchanged by anyone else.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	log "github.com/sirupsen/logrus"
)

const (
	// VerifierLength is the length of the generated code verifier.
	VerifierLength = 40

	// verifierCharset is the alphabet the verifier is drawn from.
	verifierCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// DigestFunc produces a fixed-length binary digest from input bytes.
type DigestFunc func(data []byte) ([]byte, error)

// Generator produces verifier/challenge pairs. The zero value uses SHA-256;
// the digest function is injectable so failure handling stays testable.
type Generator struct {
	// Digest overrides the hash used for the challenge. Nil means SHA-256.
	Digest DigestFunc
}

// Codes holds a generated verifier and its derived challenge.
type Codes struct {
	// Verifier is the client-held secret, kept in memory only for the
	// duration of the authorization round-trip.
	Verifier string
	// Challenge is the base64url-without-padding digest of the verifier,
	// sent with the authorization request.
	Challenge string
}

// GenerateVerifier produces a random string of VerifierLength characters
// drawn uniformly from [A-Za-z0-9].
func (g *Generator) GenerateVerifier() string {
	return g.generateVerifier(VerifierLength)
}

func (g *Generator) generateVerifier(length int) string {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// zeroed buffer mapped through the charset rather than aborting the
		// login flow.
		log.Errorf("pkce: random source failed: %v", err)
	}
	charset := []byte(verifierCharset)
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// GenerateChallenge computes the S256 code challenge for verifier:
// base64url(SHA256(verifier)) with trailing padding stripped. A digest
// failure is logged and yields an empty string; callers must treat an empty
// challenge as a hard failure and never proceed to the authorization
// redirect with it.
func (g *Generator) GenerateChallenge(verifier string) string {
	digest := g.Digest
	if digest == nil {
		digest = sha256Digest
	}
	sum, err := digest([]byte(verifier))
	if err != nil {
		log.Errorf("pkce: challenge digest failed: %v", err)
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(sum)
}

// GenerateCodes produces a fresh verifier/challenge pair. Challenge is empty
// when the digest step fails.
func (g *Generator) GenerateCodes() Codes {
	verifier := g.GenerateVerifier()
	return Codes{
		Verifier:  verifier,
		Challenge: g.GenerateChallenge(verifier),
	}
}

func sha256Digest(data []byte) ([]byte, error) {
	sum := sha256.Sum256(data)
	return sum[:], nil
}
