package resilience

import (
	"testing"
	"time"
)

func TestProfilesReflectCallCost(t *testing.T) {
	oracle := OracleConfig()
	llm := LLMConfig()
	queue := QueueConfig()

	if llm.RetryMaxAttempts >= oracle.RetryMaxAttempts {
		t.Fatalf("expensive llm calls must retry less than cheap oracle checks: %d vs %d",
			llm.RetryMaxAttempts, oracle.RetryMaxAttempts)
	}
	if llm.RetryInitialBackoff <= oracle.RetryInitialBackoff {
		t.Fatalf("llm backoff should exceed oracle backoff: %v vs %v",
			llm.RetryInitialBackoff, oracle.RetryInitialBackoff)
	}
	if llm.BreakerOpenTimeout <= oracle.BreakerOpenTimeout {
		t.Fatalf("llm breaker should stay open longer than the oracle's: %v vs %v",
			llm.BreakerOpenTimeout, oracle.BreakerOpenTimeout)
	}
	if llm.BreakerMinRequests >= oracle.BreakerMinRequests {
		t.Fatalf("llm breaker needs a smaller sample to trip: %d vs %d",
			llm.BreakerMinRequests, oracle.BreakerMinRequests)
	}
	if queue.RetryMaxAttempts <= llm.RetryMaxAttempts {
		t.Fatalf("queue publishes should retry hardest: %d vs %d",
			queue.RetryMaxAttempts, llm.RetryMaxAttempts)
	}

	for name, cfg := range map[string]Config{"oracle": oracle, "llm": llm, "queue": queue} {
		if !cfg.BreakerEnabled {
			t.Fatalf("%s profile must ship with the breaker enabled", name)
		}
	}
}

func TestNormalizeFillsZeroValues(t *testing.T) {
	got := Config{}.normalize()
	want := DefaultConfig()
	want.BreakerEnabled = false // normalize never flips the enable switch

	if got != want {
		t.Fatalf("normalize mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestNormalizeKeepsBackoffOrdering(t *testing.T) {
	out := Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Second,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     2,
	}.normalize()

	if out.RetryMaxBackoff < out.RetryInitialBackoff {
		t.Fatalf("max backoff below initial after normalize: %+v", out)
	}
}
