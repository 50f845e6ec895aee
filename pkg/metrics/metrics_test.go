package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTimingMetricRecord(t *testing.T) {
	m := newTimingMetric("test")

	m.Record(2 * time.Millisecond)
	m.Record(4 * time.Millisecond)

	s := m.Stats()
	if s.Count != 2 {
		t.Errorf("expected count 2, got %d", s.Count)
	}
	if s.MaxMs != 4 {
		t.Errorf("expected max 4ms, got %v", s.MaxMs)
	}
	if s.MinMs != 2 {
		t.Errorf("expected min 2ms, got %v", s.MinMs)
	}
	if s.AvgMs != 3 {
		t.Errorf("expected avg 3ms, got %v", s.AvgMs)
	}
}

func TestTimingMetricConcurrent(t *testing.T) {
	m := newTimingMetric("concurrent")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Record(time.Microsecond)
		}()
	}
	wg.Wait()

	if m.Count() != 50 {
		t.Errorf("expected 50 samples, got %d", m.Count())
	}
}

func TestDisabledIsNoop(t *testing.T) {
	SetEnabled(false)
	defer SetEnabled(true)

	m := newTimingMetric("off")
	Timer(m)()
	m.Record(time.Second)
	c := newCacheMetric("off")
	c.Hit()
	c.Miss()

	if m.Count() != 0 {
		t.Errorf("expected no samples while disabled, got %d", m.Count())
	}
	if s := c.Stats(); s.Hits != 0 || s.Misses != 0 {
		t.Errorf("expected no cache counts while disabled, got %+v", s)
	}
}

func TestCacheMetricRatio(t *testing.T) {
	c := newCacheMetric("ratio")
	c.Hit()
	c.Hit()
	c.Hit()
	c.Miss()

	s := c.Stats()
	if s.Hits != 3 || s.Misses != 1 {
		t.Errorf("expected 3 hits and 1 miss, got %+v", s)
	}
	if s.HitRatio != 0.75 {
		t.Errorf("expected hit ratio 0.75, got %v", s.HitRatio)
	}

	c.Reset()
	if s := c.Stats(); s.HitRatio != 0 {
		t.Errorf("expected zero ratio after reset, got %v", s.HitRatio)
	}
}

func TestResetAllAndReport(t *testing.T) {
	ResetAll()
	FlattenRebuild.Record(time.Millisecond)
	FlattenCache.Miss()

	stats := AllTimingStats()
	if len(stats) != 1 || stats[0].Name != "flatten_rebuild" {
		t.Fatalf("expected only flatten_rebuild to have samples, got %+v", stats)
	}

	data, err := MarshalReport()
	if err != nil {
		t.Fatalf("MarshalReport: %v", err)
	}
	if !strings.Contains(string(data), `"flatten_rebuild"`) {
		t.Errorf("expected report to mention flatten_rebuild, got %s", data)
	}

	ResetAll()
	if len(AllTimingStats()) != 0 {
		t.Errorf("expected no stats after ResetAll")
	}
}
