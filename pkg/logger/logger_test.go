package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFatalWritesBeforeHook(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := &Logger{Logger: zap.New(core, zap.WithFatalHook(zapcore.WriteThenPanic))}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected the fatal hook to run")
		}
		entries := logs.FilterMessage("cannot start").All()
		if len(entries) != 1 || entries[0].Level != zapcore.FatalLevel {
			t.Fatalf("expected one fatal entry, got %+v", entries)
		}
	}()
	l.Fatal("cannot start", zap.String("component", "db"))
}

func TestCtxAttachesRequestAndUserIDs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := &Logger{Logger: zap.New(core)}

	ctx := WithUserID(WithRequestID(context.Background(), "req-1"), "user-9")
	l.Ctx(ctx).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "req-1" || fields["user_id"] != "user-9" {
		t.Fatalf("unexpected fields %v", fields)
	}
	if RequestID(ctx) != "req-1" {
		t.Fatalf("RequestID = %q", RequestID(ctx))
	}
}
