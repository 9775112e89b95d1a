// internal/providers/provider_test.go
package providers

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsProviderError(t *testing.T) {
	pe := &ProviderError{Provider: "openai", Op: "generate", Err: errors.New("rate limited")}

	if !IsProviderError(pe) {
		t.Fatal("direct ProviderError not detected")
	}
	if !IsProviderError(fmt.Errorf("trial failed: %w", pe)) {
		t.Fatal("wrapped ProviderError not detected")
	}
	if IsProviderError(errors.New("dimension mismatch")) {
		t.Fatal("plain error misclassified as provider error")
	}
	if IsProviderError(nil) {
		t.Fatal("nil misclassified as provider error")
	}
}
