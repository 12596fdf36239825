package events

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestMemoryBusDeliversToSubscribers(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()

	var got []string
	unsub := b.Subscribe(TopicSettingsInvalidated, func(payload string) {
		got = append(got, payload)
	})
	defer unsub()

	if err := b.Publish(context.Background(), TopicSettingsInvalidated, "labs"); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(got) != 1 || got[0] != "labs" {
		t.Fatalf("got %v, want [labs]", got)
	}
}

func TestMemoryBusPublishIsSynchronous(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()

	seen := false
	b.Subscribe("topic", func(string) { seen = true })

	if err := b.Publish(context.Background(), "topic", "x"); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !seen {
		t.Fatal("handler not invoked before Publish returned")
	}
}

func TestMemoryBusUnsubscribeStopsDelivery(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()

	count := 0
	unsub := b.Subscribe("topic", func(string) { count++ })

	_ = b.Publish(context.Background(), "topic", "one")
	unsub()
	_ = b.Publish(context.Background(), "topic", "two")

	if count != 1 {
		t.Fatalf("deliveries = %d, want 1", count)
	}
}

func TestMemoryBusIgnoresUnknownTopics(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()

	b.Subscribe("topic-a", func(string) { t.Fatal("wrong topic delivered") })
	if err := b.Publish(context.Background(), "topic-b", "x"); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}

func TestRedisBusRoundtrip(t *testing.T) {
	addr := os.Getenv("WISP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("WISP_TEST_REDIS_ADDR not set; skipping redis bus test")
	}

	b, err := NewRedisBus(addr, "", 0, nil)
	if err != nil {
		t.Fatalf("NewRedisBus: %v", err)
	}
	defer b.Close()

	got := make(chan string, 1)
	unsub := b.Subscribe(TopicSettingsInvalidated, func(payload string) {
		got <- payload
	})
	defer unsub()

	// Subscription setup races the publish; give redis a moment.
	time.Sleep(100 * time.Millisecond)

	if err := b.Publish(context.Background(), TopicSettingsInvalidated, "labs"); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case payload := <-got:
		if payload != "labs" {
			t.Fatalf("payload = %q, want labs", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for redis delivery")
	}
}
