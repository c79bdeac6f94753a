package budget

import (
	"testing"
	"time"
)

func TestTracker_QuotaExhaustion(t *testing.T) {
	tr := NewTracker(3)

	for i := 0; i < 3; i++ {
		if !tr.CanMakeCall() {
			t.Fatalf("call %d should be allowed", i)
		}
		tr.RecordCall("records.query", 1)
	}

	if tr.CanMakeCall() {
		t.Error("quota exhausted, call should be denied")
	}
	if d := tr.GetThrottleDelay(); d <= 0 {
		t.Errorf("throttle delay = %v, want positive at exhaustion", d)
	}
}

func TestTracker_OperationCost(t *testing.T) {
	tr := NewTracker(10)

	tr.RecordCall("records.batch_search", 5)
	if got := tr.GetUsage().TotalCalls; got != 5 {
		t.Errorf("TotalCalls = %d, want 5", got)
	}

	// Zero or negative cost still counts as one attempt.
	tr.RecordCall("records.query", 0)
	tr.RecordCall("records.query", -3)
	if got := tr.GetUsage().TotalCalls; got != 7 {
		t.Errorf("TotalCalls = %d, want 7", got)
	}
}

func TestTracker_UnlimitedWhenZero(t *testing.T) {
	tr := NewTracker(0)

	for i := 0; i < 1000; i++ {
		tr.RecordCall("records.query", 1)
	}
	if !tr.CanMakeCall() {
		t.Error("zero daily limit should mean unlimited")
	}
	if d := tr.GetThrottleDelay(); d != 0 {
		t.Errorf("throttle delay = %v, want 0", d)
	}
}

func TestTracker_UsageStats(t *testing.T) {
	tr := NewTracker(100)

	for i := 0; i < 40; i++ {
		tr.RecordCall("records.create", 1)
	}

	usage := tr.GetUsage()
	if usage.TotalCalls != 40 || usage.RemainingCalls != 60 {
		t.Errorf("usage = %+v", usage)
	}
	if usage.UsagePercentage != 40.0 {
		t.Errorf("usage percentage = %.1f, want 40.0", usage.UsagePercentage)
	}
	if !usage.NextResetAt.After(time.Now()) {
		t.Error("next reset should be in the future")
	}
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker(10)
	for i := 0; i < 10; i++ {
		tr.RecordCall("records.query", 1)
	}
	if tr.CanMakeCall() {
		t.Fatal("quota should be exhausted")
	}

	tr.Reset()
	if !tr.CanMakeCall() {
		t.Error("reset should restore quota")
	}
	if tr.GetUsage().TotalCalls != 0 {
		t.Error("reset should zero counters")
	}
}
