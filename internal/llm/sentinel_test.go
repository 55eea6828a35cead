package llm

import "testing"

func TestSentinel(t *testing.T) {
	t.Parallel()

	got := Sentinel("  connection reset  ")
	if got != "Error-BDIA: connection reset" {
		t.Fatalf("Sentinel: got %q", got)
	}

	tests := []struct {
		in   string
		want bool
	}{
		{Sentinel("boom"), true},
		{"  Error-BDIA: timeout", true},
		{UnsupportedFileMessage, false},
		{"Paris", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsSentinel(tt.in); got != tt.want {
			t.Fatalf("IsSentinel(%q): got %v want %v", tt.in, got, tt.want)
		}
	}
}
