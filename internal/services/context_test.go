package services_test

import (
	"context"
	"testing"

	"packmule/internal/services"
)

func TestContextRoundTrips(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if _, ok := services.UserIDFromContext(ctx); ok {
		t.Fatal("expected no user id on empty context")
	}

	ctx = services.WithUserID(ctx, 42)
	ctx = services.WithPack(ctx, "animals_by_bot")
	ctx = services.WithRequestID(ctx, "abc-123")

	if id, ok := services.UserIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("user id round trip failed: %d %v", id, ok)
	}
	if pack, ok := services.PackFromContext(ctx); !ok || pack != "animals_by_bot" {
		t.Fatalf("pack round trip failed: %q %v", pack, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "abc-123" {
		t.Fatalf("request id round trip failed: %q %v", rid, ok)
	}
}

func TestEmptyAnnotationsAreNoOps(t *testing.T) {
	t.Parallel()

	ctx := services.WithPack(context.Background(), "")
	if _, ok := services.PackFromContext(ctx); ok {
		t.Fatal("empty pack should not annotate")
	}
	ctx = services.WithRequestID(ctx, "")
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("empty request id should not annotate")
	}
}
