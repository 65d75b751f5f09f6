package id

import (
	"encoding/hex"
	"testing"
)

func TestShortIsEightHexChars(t *testing.T) {
	seen := make(map[string]struct{}, 256)
	for i := 0; i < 256; i++ {
		s := Short()
		if len(s) != 8 {
			t.Fatalf("expected 8 chars, got %q", s)
		}
		if _, err := hex.DecodeString(s); err != nil {
			t.Fatalf("expected hex token, got %q: %v", s, err)
		}
		if _, dup := seen[s]; dup {
			t.Fatalf("duplicate token %q", s)
		}
		seen[s] = struct{}{}
	}
}
