package logging_test

import (
	"context"
	"strings"
	"testing"

	"packmule/internal/logging"
	"packmule/internal/services"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewComponentLoggerToleratesNilBase(t *testing.T) {
	t.Parallel()

	logger := logging.NewComponentLogger(nil, "fetch")
	logger.Info("should not panic")
}

func TestWithContextAddsFields(t *testing.T) {
	t.Parallel()

	ctx := services.WithUserID(context.Background(), 7)
	ctx = services.WithPack(ctx, "animals")
	ctx = services.WithRequestID(ctx, "req-1")

	fields := logging.ContextFields(ctx)
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	joined := strings.Join(keys, ",")
	for _, want := range []string{logging.FieldUserID, logging.FieldPack, logging.FieldCorrelationID} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing field %q in %q", want, joined)
		}
	}
}
