package main

import "testing"

func TestOverlayURL(t *testing.T) {
	tests := []struct {
		listen string
		want   string
	}{
		{":8080", "http://localhost:8080/"},
		{"0.0.0.0:9000", "http://localhost:9000/"},
		{"127.0.0.1:8080", "http://127.0.0.1:8080/"},
		{"[::]:8080", "http://localhost:8080/"},
		{"example.local", "http://example.local/"},
	}

	for _, tt := range tests {
		t.Run(tt.listen, func(t *testing.T) {
			if got := overlayURL(tt.listen); got != tt.want {
				t.Errorf("overlayURL(%q) = %q, want %q", tt.listen, got, tt.want)
			}
		})
	}
}
