package middleware

import (
	"context"
	"testing"
)

func TestTokenBucketExhaustion(t *testing.T) {
	tb := NewTokenBucket(3, 1)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !tb.Allow(ctx) {
			t.Fatalf("request %d should pass within capacity", i+1)
		}
	}
	if tb.Allow(ctx) {
		t.Fatalf("expected bucket exhausted")
	}
}
