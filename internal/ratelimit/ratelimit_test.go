package ratelimit

import (
	"context"
	"testing"
)

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	l := New(nil, 1, 0)
	for i := 0; i < 100; i++ {
		if !l.Allow(context.Background(), "login:1.2.3.4") {
			t.Fatal("a limiter without redis must never block")
		}
	}
}

func TestNilLimiterAllows(t *testing.T) {
	var l *Limiter
	if !l.Allow(context.Background(), "anything") {
		t.Fatal("nil limiter must allow")
	}
}
