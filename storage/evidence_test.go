package storage

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestEvidenceKey(t *testing.T) {
	key := EvidenceKey(12, 5, "Screenshot.PNG")
	if !strings.HasPrefix(key, EvidencePrefix(12, 5)) {
		t.Errorf("key %q does not start with %q", key, EvidencePrefix(12, 5))
	}
	if !strings.HasSuffix(key, ".png") {
		t.Errorf("key %q should keep a lower-cased extension", key)
	}
	if EvidenceKey(12, 5, "a.png") == EvidenceKey(12, 5, "a.png") {
		t.Error("keys for repeated uploads must differ")
	}
}

func TestGetPublicURL(t *testing.T) {
	tests := []struct {
		base string
		key  string
		want string
	}{
		{"https://cdn.example.com", "evidence/a.png", "https://cdn.example.com/evidence/a.png"},
		{"https://cdn.example.com/files/", "/evidence/a.png", "https://cdn.example.com/files/evidence/a.png"},
		{"https://cdn.example.com/files", "evidence/a.png", "https://cdn.example.com/files/evidence/a.png"},
		{"", "evidence/a.png", ""},
		{"https://cdn.example.com", "", ""},
	}

	for _, tt := range tests {
		s := &cloudflareR2Store{publicBaseURL: tt.base, logger: zap.NewNop()}
		if got := s.GetPublicURL(tt.key); got != tt.want {
			t.Errorf("GetPublicURL(%q, %q) = %q, want %q", tt.base, tt.key, got, tt.want)
		}
	}
}
