package events

import (
	"context"
	"testing"
	"time"
)

func TestPublishAssignsSequence(t *testing.T) {
	bus := NewBus(8)
	bus.Publish(DownloadFinished("g1"))
	bus.Publish(DownloadFinished("g2"))

	evts, next, err := bus.Fetch(context.Background(), 0, 10, false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(evts) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evts))
	}
	if evts[0].Sequence != 1 || evts[1].Sequence != 2 {
		t.Fatalf("unexpected sequences %d, %d", evts[0].Sequence, evts[1].Sequence)
	}
	if next != 2 {
		t.Fatalf("expected cursor 2, got %d", next)
	}
	if evts[0].Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}
}

func TestFetchSince(t *testing.T) {
	bus := NewBus(8)
	for i := 0; i < 5; i++ {
		bus.Publish(DownloadProgress("g1", i+1, 5))
	}

	evts, _, err := bus.Fetch(context.Background(), 3, 10, false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(evts) != 2 {
		t.Fatalf("expected 2 events after seq 3, got %d", len(evts))
	}
	if evts[0].Sequence != 4 {
		t.Fatalf("expected first sequence 4, got %d", evts[0].Sequence)
	}
}

func TestRingDropsOldest(t *testing.T) {
	bus := NewBus(3)
	for i := 0; i < 5; i++ {
		bus.Publish(DownloadProgress("g1", i+1, 5))
	}

	evts, _, err := bus.Fetch(context.Background(), 0, 10, false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(evts) != 3 {
		t.Fatalf("expected 3 buffered events, got %d", len(evts))
	}
	if evts[0].Sequence != 3 {
		t.Fatalf("expected oldest surviving sequence 3, got %d", evts[0].Sequence)
	}
}

func TestFetchWaitWakesOnPublish(t *testing.T) {
	bus := NewBus(8)
	done := make(chan struct{})

	go func() {
		defer close(done)
		evts, _, err := bus.Fetch(context.Background(), 0, 10, true)
		if err != nil {
			t.Errorf("Fetch: %v", err)
			return
		}
		if len(evts) != 1 || evts[0].Type != TypeDownloadFinished {
			t.Errorf("unexpected events %+v", evts)
		}
	}()

	time.Sleep(20 * time.Millisecond)
	bus.Publish(DownloadFinished("g1"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("waiting fetch did not wake")
	}
}

func TestFetchWaitHonorsContext(t *testing.T) {
	bus := NewBus(8)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := bus.Fetch(ctx, 0, 10, true)
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestTail(t *testing.T) {
	bus := NewBus(8)
	for i := 0; i < 4; i++ {
		bus.Publish(DownloadProgress("g1", i+1, 4))
	}

	evts, next := bus.Tail(2)
	if len(evts) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evts))
	}
	if evts[1].Sequence != 4 || next != 4 {
		t.Fatalf("unexpected tail state seq=%d next=%d", evts[1].Sequence, next)
	}
}
