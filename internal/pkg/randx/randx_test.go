package randx

import (
	"testing"

	"github.com/google/uuid"
)

func TestSessionID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for n := 0; n < 100; n++ {
		id := SessionID()
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("SessionID %q does not parse: %v", id, err)
		}
		if seen[id] {
			t.Fatalf("duplicate session id %q", id)
		}
		seen[id] = true
	}
}
