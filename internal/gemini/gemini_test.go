package gemini

import (
	"context"
	"testing"
)

func TestNewClient_RequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), "", ""); err == nil {
		t.Error("expected error for empty api key")
	}
}
