package httpapi

import (
	"context"
	"testing"
	"time"
)

func TestJoinContexts_CancelsOnEither(t *testing.T) {
	a, cancelA := context.WithCancel(context.Background())
	b := context.Background()
	ctx, cancel := joinContexts(a, b)
	defer cancel()
	cancelA()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatalf("joined context not canceled when a is done")
	}

	a2 := context.Background()
	b2, cancelB := context.WithCancel(context.Background())
	ctx2, cancel2 := joinContexts(a2, b2)
	defer cancel2()
	cancelB()
	select {
	case <-ctx2.Done():
	case <-time.After(time.Second):
		t.Fatalf("joined context not canceled when b is done")
	}
}

func TestSetBaseContextNilResets(t *testing.T) {
	SetBaseContext(nil)
	if serverBaseCtx != context.Background() {
		t.Fatalf("expected background context")
	}
}
