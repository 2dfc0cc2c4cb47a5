package pkce

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerateVerifierLengthAndCharset(t *testing.T) {
	g := &Generator{}
	for i := 0; i < 50; i++ {
		v := g.GenerateVerifier()
		if len(v) != VerifierLength {
			t.Fatalf("verifier length = %d, want %d", len(v), VerifierLength)
		}
		for _, c := range v {
			if !strings.ContainsRune(verifierCharset, c) {
				t.Fatalf("verifier contains %q outside [A-Za-z0-9]", c)
			}
		}
	}
}

func TestGenerateVerifierCustomLength(t *testing.T) {
	g := &Generator{}
	for _, length := range []int{1, 16, 40, 128} {
		v := g.generateVerifier(length)
		if len(v) != length {
			t.Fatalf("generateVerifier(%d) length = %d", length, len(v))
		}
	}
}

func TestGenerateChallengeDeterministic(t *testing.T) {
	g := &Generator{}
	// SHA256("test") base64url-encoded without padding.
	const want = "n4bQgYhMfWWaL-qgxVrQFaO_TxsrC4Is0V1sFbDwCgg"
	got := g.GenerateChallenge("test")
	if got != want {
		t.Fatalf("GenerateChallenge(\"test\") = %q, want %q", got, want)
	}
	if again := g.GenerateChallenge("test"); again != got {
		t.Fatalf("challenge not deterministic: %q != %q", again, got)
	}
}

func TestGenerateChallengeURLSafe(t *testing.T) {
	g := &Generator{}
	for i := 0; i < 50; i++ {
		challenge := g.GenerateChallenge(g.GenerateVerifier())
		if strings.ContainsAny(challenge, "+/=") {
			t.Fatalf("challenge %q contains reserved base64 characters", challenge)
		}
	}
}

func TestGenerateChallengeDigestFailure(t *testing.T) {
	g := &Generator{Digest: func([]byte) ([]byte, error) {
		return nil, errors.New("hash backend unavailable")
	}}
	if got := g.GenerateChallenge("whatever"); got != "" {
		t.Fatalf("expected empty challenge on digest failure, got %q", got)
	}
}

func TestGenerateCodesPair(t *testing.T) {
	g := &Generator{}
	codes := g.GenerateCodes()
	if codes.Verifier == "" || codes.Challenge == "" {
		t.Fatalf("expected non-empty pair, got %+v", codes)
	}
	if codes.Challenge != g.GenerateChallenge(codes.Verifier) {
		t.Fatal("challenge does not match verifier digest")
	}
}
