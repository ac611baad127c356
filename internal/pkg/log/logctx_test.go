package log

// Тесты logctx:
//  - From без логгера в контексте возвращает slog.Default();
//  - Into/From — round-trip;
//  - With дополняет логгер атрибутами, не затирая исходный контекст.

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrom_Default(t *testing.T) {
	t.Parallel()

	require.Same(t, slog.Default(), From(context.Background()))
}

func TestInto_From_RoundTrip(t *testing.T) {
	t.Parallel()

	l := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := Into(context.Background(), l)

	require.Same(t, l, From(ctx))
}

func TestWith_AddsAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := Into(context.Background(), l)
	ctx = With(ctx, "op", "test/With")

	From(ctx).Info("hello")
	require.Contains(t, buf.String(), "op=test/With")

	// Исходный логгер без атрибута.
	buf.Reset()
	l.Info("plain")
	require.NotContains(t, buf.String(), "op=test/With")
}
