package mcp

import (
	"context"
	"testing"
)

// TestTrainerIDFromContextDefault verifies the default trainer ID (1)
// when no value is set in the context.
func TestTrainerIDFromContextDefault(t *testing.T) {
	ctx := context.Background()
	if id := TrainerIDFromContext(ctx); id != 1 {
		t.Errorf("TrainerIDFromContext(empty) = %d, want 1", id)
	}
}

// TestTrainerIDFromContextSet verifies the trainer ID is extracted from
// context after being set by WithTrainerID.
func TestTrainerIDFromContextSet(t *testing.T) {
	ctx := WithTrainerID(context.Background(), 42)
	if id := TrainerIDFromContext(ctx); id != 42 {
		t.Errorf("TrainerIDFromContext = %d, want 42", id)
	}
}
