package realtime

import "testing"

func TestPublishSubscribe(t *testing.T) {
	t.Parallel()

	b := NewBroker()
	ch, cancel := b.Subscribe()

	b.Publish(Event{Type: TypeJobDead, JobName: "backup"})
	b.Publish(Event{Type: TypeJobRecovered, JobName: "backup"})

	first := <-ch
	second := <-ch
	if first.Type != TypeJobDead || first.ID != 1 || first.At.IsZero() {
		t.Fatalf("unexpected first event %+v", first)
	}
	if second.Type != TypeJobRecovered || second.ID != 2 {
		t.Fatalf("unexpected second event %+v", second)
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed after cancel")
	}
	if b.Subscribers() != 0 {
		t.Fatalf("expected no subscribers, got %d", b.Subscribers())
	}
	cancel()
}

func TestPublishDropsForSlowSubscribers(t *testing.T) {
	t.Parallel()

	b := NewBroker()
	ch, cancel := b.Subscribe()
	defer cancel()

	for i := 0; i < 100; i++ {
		b.Publish(Event{Type: TypeScanCompleted, Scan: &ScanSummary{Total: i}})
	}
	if got := len(ch); got != 32 {
		t.Fatalf("expected a full buffer of 32, got %d", got)
	}
}
