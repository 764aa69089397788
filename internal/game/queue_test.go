package game

import (
	"testing"
	"time"

	"trio_table/internal/domain"
)

func TestMoveQueueFIFO(t *testing.T) {
	q := newMoveQueue(3)
	for _, slot := range []domain.SlotID{4, 1, 2} {
		if !q.Put(slot) {
			t.Fatalf("put %d failed on open queue", slot)
		}
	}
	for _, want := range []domain.SlotID{4, 1, 2} {
		slot, ok := q.Take()
		if !ok || slot != want {
			t.Fatalf("Take = (%d, %t), want (%d, true)", slot, ok, want)
		}
	}
}

func TestMoveQueuePutBlocksWhenFull(t *testing.T) {
	q := newMoveQueue(1)
	if !q.Put(0) {
		t.Fatalf("first put failed")
	}

	done := make(chan struct{})
	go func() {
		q.Put(1)
		close(done)
	}()

	select {
	case <-done:
		t.Fatalf("put into full queue did not block")
	case <-time.After(20 * time.Millisecond):
	}

	if slot, ok := q.Take(); !ok || slot != 0 {
		t.Fatalf("Take = (%d, %t), want (0, true)", slot, ok)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("blocked put was not released by take")
	}
}

func TestMoveQueueTakeBlocksUntilPut(t *testing.T) {
	q := newMoveQueue(2)
	results := make(chan domain.SlotID, 1)
	go func() {
		slot, ok := q.Take()
		if !ok {
			slot = -1
		}
		results <- slot
	}()

	select {
	case slot := <-results:
		t.Fatalf("take on empty queue returned %d early", slot)
	case <-time.After(20 * time.Millisecond):
	}

	q.Put(7)
	select {
	case slot := <-results:
		if slot != 7 {
			t.Fatalf("take returned %d, want 7", slot)
		}
	case <-time.After(time.Second):
		t.Fatalf("blocked take was not released by put")
	}
}

func TestMoveQueuePurge(t *testing.T) {
	q := newMoveQueue(4)
	for _, slot := range []domain.SlotID{1, 2, 1, 3} {
		q.Put(slot)
	}
	q.Purge(1)
	if got := q.Len(); got != 2 {
		t.Fatalf("Len() = %d after purge, want 2", got)
	}
	for _, want := range []domain.SlotID{2, 3} {
		slot, ok := q.Take()
		if !ok || slot != want {
			t.Fatalf("Take = (%d, %t), want (%d, true)", slot, ok, want)
		}
	}
}

func TestMoveQueuePurgeReleasesProducer(t *testing.T) {
	q := newMoveQueue(1)
	q.Put(5)

	done := make(chan struct{})
	go func() {
		q.Put(6)
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)

	q.Purge(5)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("purge did not release the blocked producer")
	}
}

func TestMoveQueueCloseWakesWaiters(t *testing.T) {
	q := newMoveQueue(1)
	takeDone := make(chan bool, 1)
	go func() {
		_, ok := q.Take()
		takeDone <- ok
	}()
	time.Sleep(10 * time.Millisecond)

	q.Close()
	select {
	case ok := <-takeDone:
		if ok {
			t.Fatalf("take on closed queue reported ok")
		}
	case <-time.After(time.Second):
		t.Fatalf("close did not wake the blocked consumer")
	}

	if q.Put(1) {
		t.Fatalf("put on closed queue reported ok")
	}
}

func TestMoveQueueClear(t *testing.T) {
	q := newMoveQueue(3)
	q.Put(1)
	q.Put(2)
	q.Clear()
	if got := q.Len(); got != 0 {
		t.Fatalf("Len() = %d after clear, want 0", got)
	}
}

func TestTokenSet(t *testing.T) {
	s := newTokenSet(2)
	if !s.Add(3) || !s.Add(1) {
		t.Fatalf("adds below capacity failed")
	}
	if s.Add(5) {
		t.Fatalf("add beyond capacity succeeded")
	}
	if !s.Contains(3) || s.Contains(5) {
		t.Fatalf("membership wrong after adds")
	}
	snap := s.Snapshot()
	if len(snap) != 2 || snap[0] != 1 || snap[1] != 3 {
		t.Fatalf("Snapshot() = %v, want [1 3]", snap)
	}
	if !s.Remove(3) || s.Remove(3) {
		t.Fatalf("remove semantics wrong")
	}
	s.Clear()
	if s.Count() != 0 {
		t.Fatalf("Count() = %d after clear, want 0", s.Count())
	}
}
