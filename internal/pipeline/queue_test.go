package pipeline

import (
	"context"
	"testing"
	"time"

	"gonetsentry/internal/models"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	for i := 1; i <= 3000; i++ {
		if !q.Enqueue(models.Packet{Length: i}) {
			t.Fatalf("enqueue %d refused", i)
		}
	}
	if q.Len() != 3000 {
		t.Fatalf("Len = %d", q.Len())
	}
	ctx := context.Background()
	for i := 1; i <= 3000; i++ {
		pkt, ok := q.Dequeue(ctx)
		if !ok || pkt.Length != i {
			t.Fatalf("dequeue %d: got %d ok=%v", i, pkt.Length, ok)
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len = %d after draining", q.Len())
	}
}

func TestQueueCloseDrains(t *testing.T) {
	q := NewQueue()
	q.Enqueue(models.Packet{Length: 1})
	q.Enqueue(models.Packet{Length: 2})
	q.Close()

	if q.Enqueue(models.Packet{Length: 3}) {
		t.Error("closed queue accepted a packet")
	}
	ctx := context.Background()
	for want := 1; want <= 2; want++ {
		if pkt, ok := q.Dequeue(ctx); !ok || pkt.Length != want {
			t.Fatalf("got %d ok=%v, want %d", pkt.Length, ok, want)
		}
	}
	if _, ok := q.Dequeue(ctx); ok {
		t.Error("drained closed queue returned a packet")
	}
}

func TestQueueCancelLeavesPackets(t *testing.T) {
	q := NewQueue()
	q.Enqueue(models.Packet{Length: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := q.Dequeue(ctx); ok {
		t.Fatal("dequeue succeeded on a cancelled context")
	}
	if q.Len() != 1 {
		t.Errorf("Len = %d, want 1", q.Len())
	}
}

func TestQueueDequeueWakes(t *testing.T) {
	q := NewQueue()
	got := make(chan int, 1)
	go func() {
		pkt, ok := q.Dequeue(context.Background())
		if !ok {
			got <- -1
			return
		}
		got <- pkt.Length
	}()

	time.Sleep(10 * time.Millisecond)
	q.Enqueue(models.Packet{Length: 42})
	select {
	case n := <-got:
		if n != 42 {
			t.Fatalf("got %d, want 42", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("blocked Dequeue never woke up")
	}
}

func TestQueueDequeueWakesOnClose(t *testing.T) {
	q := NewQueue()
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Dequeue(context.Background())
		done <- ok
	}()
	time.Sleep(10 * time.Millisecond)
	q.Close()
	select {
	case ok := <-done:
		if ok {
			t.Fatal("Dequeue returned a packet from an empty closed queue")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not wake Dequeue")
	}
}
