package uid

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDGenerate(t *testing.T) {
	// Arrange
	gen := NewUUID()

	// Act
	first := gen.Generate()
	second := gen.Generate()

	// Assert
	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("expected valid uuid, got %q: %v", first, err)
	}
	if first == second {
		t.Fatalf("expected unique ids, got %q twice", first)
	}
}
