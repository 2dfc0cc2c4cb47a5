package comm

import "testing"

func TestExtractLoginCode(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{
			name:    "code between parameters",
			payload: "prusaslicer://login?state=xyz&code=AbC123&scope=basic_info",
			want:    "AbC123",
		},
		{
			name:    "code at end",
			payload: "prusaslicer://login?code=XyZ789",
			want:    "XyZ789",
		},
		{
			name:    "no code parameter",
			payload: "prusaslicer://login?state=xyz",
			want:    "",
		},
		{
			name:    "empty code",
			payload: "prusaslicer://login?code=&state=xyz",
			want:    "",
		},
		{
			name:    "code truncated by fragment",
			payload: "prusaslicer://login?code=Ab12#rest",
			want:    "Ab12",
		},
		{
			name:    "empty payload",
			payload: "",
			want:    "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractLoginCode(tt.payload); got != tt.want {
				t.Fatalf("ExtractLoginCode(%q) = %q, want %q", tt.payload, got, tt.want)
			}
		})
	}
}
