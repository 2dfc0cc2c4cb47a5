package token

import (
	"testing"
	"time"
)

func TestSerializeRoundTrip(t *testing.T) {
	rec := Record{
		AccessToken:      "acc-123",
		RefreshToken:     "ref-456",
		SharedSessionKey: "ssk",
		ExpiresAt:        1700000000,
	}
	got, err := Parse(rec.Serialize())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.AccessToken != rec.AccessToken || got.RefreshToken != rec.RefreshToken || got.ExpiresAt != rec.ExpiresAt {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestSerializeEmptyRecord(t *testing.T) {
	var rec Record
	if s := rec.Serialize(); s != "" {
		t.Fatalf("empty record serialized to %q, want empty", s)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    Record
		wantErr bool
	}{
		{name: "empty", value: "", want: Record{}},
		{name: "full", value: "a|r|100", want: Record{AccessToken: "a", RefreshToken: "r", ExpiresAt: 100}},
		{name: "refresh only", value: "|r|100", want: Record{RefreshToken: "r", ExpiresAt: 100}},
		{name: "missing expiry", value: "a|r", want: Record{AccessToken: "a", RefreshToken: "r"}},
		{name: "blank expiry", value: "a|r|", want: Record{AccessToken: "a", RefreshToken: "r"}},
		{name: "bad expiry", value: "a|r|soon", wantErr: true},
		{name: "too many fields", value: "a|r|1|x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.value, err)
			}
			if got != tt.want {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.value, got, tt.want)
			}
		})
	}
}

func TestHasRefreshWithExpiredAccess(t *testing.T) {
	rec := Record{RefreshToken: "r", ExpiresAt: time.Now().Add(-time.Hour).Unix()}
	if !rec.HasRefresh() {
		t.Fatal("refresh capability must survive access-token expiry")
	}
	if rec.RemainingSeconds(time.Now()) > 0 {
		t.Fatal("expected stale access token")
	}
}

func TestClear(t *testing.T) {
	rec := Record{AccessToken: "a", RefreshToken: "r", SharedSessionKey: "k", ExpiresAt: 5}
	rec.Clear()
	if !rec.Empty() || rec.SharedSessionKey != "" || rec.ExpiresAt != 0 {
		t.Fatalf("Clear left state behind: %+v", rec)
	}
}
