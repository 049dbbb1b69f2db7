//go:build integration

package update

import (
	"context"
	"testing"
)

func TestCheckIntegration(t *testing.T) {
	rel, err := Check(context.Background(), "0.0.1", Repo)
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if rel == nil {
		t.Skip("no release published yet")
	}
	if rel.Version == "" {
		t.Error("release version is empty")
	}
}
