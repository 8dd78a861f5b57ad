package viewmodel

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestQueue_RunsOnCaller(t *testing.T) {
	q := NewQueue(4)
	ran := make([]int, 0, 3)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= 3; i++ {
			i := i
			q.Post(func() { ran = append(ran, i) })
		}
	}()
	<-done

	if len(ran) != 0 {
		t.Fatalf("posted functions ran before Drain")
	}
	if n := q.Drain(); n != 3 {
		t.Fatalf("Drain() = %d, want 3", n)
	}
	if ran[0] != 1 || ran[1] != 2 || ran[2] != 3 {
		t.Errorf("ran = %v", ran)
	}
	if n := q.Drain(); n != 0 {
		t.Errorf("second Drain() = %d", n)
	}
}

func TestQueue_NextHonorsContext(t *testing.T) {
	q := NewQueue(0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := q.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Next() = %v, want deadline exceeded", err)
	}
}

func TestQueue_Close(t *testing.T) {
	q := NewQueue(0)

	posted := make(chan struct{})
	go func() {
		q.Post(func() { t.Errorf("dropped function should not run") })
		close(posted)
	}()

	q.Close()
	q.Close() // idempotent
	select {
	case <-posted:
	case <-time.After(time.Second):
		t.Fatalf("Post blocked after Close")
	}
	if err := q.Next(context.Background()); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Next() after Close = %v", err)
	}
}
