package ai

import (
	"sync"
	"testing"
)

func TestMeterAccumulatesConcurrently(t *testing.T) {
	var m Meter
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Record(ModelMetrics{InputTokens: 3, OutputTokens: 2, TotalTokens: 5, DurationMs: 100})
		}()
	}
	wg.Wait()

	got := m.GetMetrics()
	if got.TotalTokens != 50 || got.DurationMs != 1000 {
		t.Fatalf("metrics = %+v", got)
	}
	if got.TokenPerSecond != 50 {
		t.Errorf("tokens per second = %v, want 50", got.TokenPerSecond)
	}

	m.ResetMetrics()
	if got := m.GetMetrics(); got != (ModelMetrics{}) {
		t.Errorf("after reset = %+v", got)
	}
}
