package api

import (
	"testing"
	"time"
)

func TestLoginRateLimiterWindow(t *testing.T) {
	l := newLoginRateLimiter(3, time.Minute)
	now := time.Now()
	for i := 0; i < 3; i++ {
		if !l.allow("10.0.0.1", now) {
			t.Fatalf("attempt %d should pass", i+1)
		}
	}
	if l.allow("10.0.0.1", now) {
		t.Fatal("fourth attempt in window should be blocked")
	}
	if !l.allow("10.0.0.2", now) {
		t.Fatal("other address should not be affected")
	}
	if !l.allow("10.0.0.1", now.Add(2*time.Minute)) {
		t.Fatal("attempt after window should pass again")
	}
}
