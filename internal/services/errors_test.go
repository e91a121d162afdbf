package services_test

import (
	"errors"
	"strings"
	"testing"

	"packmule/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := services.Wrap(services.ErrResolution, "fetch", "resolve", "file_123", cause)

	if !errors.Is(err, services.ErrResolution) {
		t.Fatalf("expected ErrResolution, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "fetch: resolve: file_123") {
		t.Fatalf("unexpected detail: %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	t.Parallel()

	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
}

func TestUserMessageNeverLeaksDetail(t *testing.T) {
	t.Parallel()

	err := services.Wrap(services.ErrUpload, "republish", "upload", "secret-host", errors.New("401"))
	msg := services.UserMessage(err)
	if strings.Contains(msg, "secret-host") || strings.Contains(msg, "401") {
		t.Fatalf("detail leaked into user message: %q", msg)
	}
	if msg == "" {
		t.Fatal("expected non-empty message")
	}
}

func TestUserMessageDistinguishesNotInPack(t *testing.T) {
	t.Parallel()

	generic := services.UserMessage(services.Wrap(services.ErrTransient, "", "", "", nil))
	notInPack := services.UserMessage(services.Wrap(services.ErrNotInPack, "assemble", "lookup", "", nil))
	if generic == notInPack {
		t.Fatal("NotInPack must have its own user-facing message")
	}
}
