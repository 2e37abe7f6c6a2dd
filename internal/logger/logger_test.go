package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Str("component", "ledger").Msg("row appended")

	out := buf.String()
	if out == "" {
		t.Fatal("expected log output, got empty string")
	}
	if !strings.Contains(out, "row appended") || !strings.Contains(out, "ledger") {
		t.Errorf("unexpected log output: %s", out)
	}
}

func TestFromContext_RoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)
	ctx := WithContext(context.Background(), log)

	ctxLog := FromContext(ctx)
	ctxLog.Info().Msg("via context")

	if buf.Len() == 0 {
		t.Error("expected output from logger retrieved via context")
	}
}

func TestFromContext_Default(t *testing.T) {
	log := FromContext(context.Background())
	if log.GetLevel() == zerolog.Disabled {
		t.Error("expected default logger to be enabled")
	}
}
