package claims

import (
	"testing"
	"time"

	"trio_table/internal/domain"
)

func TestSubmitAndTryNextFIFO(t *testing.T) {
	r := NewRegistry()
	r.Submit(2)
	r.Submit(0)
	r.Submit(1)

	for _, want := range []domain.PlayerID{2, 0, 1} {
		player, ok := r.TryNext()
		if !ok {
			t.Fatalf("TryNext returned no claim, want player %d", want)
		}
		if player != want {
			t.Fatalf("TryNext returned player %d, want %d", player, want)
		}
	}
	if _, ok := r.TryNext(); ok {
		t.Fatalf("TryNext returned a claim from an empty registry")
	}
}

func TestDuplicateSubmitSharesTicket(t *testing.T) {
	r := NewRegistry()
	first := r.Submit(3)
	second := r.Submit(3)
	if first != second {
		t.Fatalf("duplicate submit returned a fresh ticket")
	}
	if _, ok := r.TryNext(); !ok {
		t.Fatalf("expected one dequeued claim")
	}
	if _, ok := r.TryNext(); ok {
		t.Fatalf("duplicate submit enqueued twice")
	}
}

func TestResolveWakesWaiter(t *testing.T) {
	r := NewRegistry()
	ticket := r.Submit(1)

	verdicts := make(chan domain.Verdict, 1)
	go func() {
		verdicts <- ticket.Wait(nil)
	}()

	if player, ok := r.TryNext(); !ok || player != 1 {
		t.Fatalf("TryNext = (%d, %t), want (1, true)", player, ok)
	}
	if !r.Resolve(1, domain.VerdictValid) {
		t.Fatalf("resolve of dequeued claim reported false")
	}

	select {
	case v := <-verdicts:
		if v != domain.VerdictValid {
			t.Fatalf("waiter got %s, want %s", v, domain.VerdictValid)
		}
	case <-time.After(time.Second):
		t.Fatalf("waiter was not woken")
	}
}

func TestWithdrawWakesWaiterUnset(t *testing.T) {
	r := NewRegistry()
	ticket := r.Submit(4)

	verdicts := make(chan domain.Verdict, 1)
	go func() {
		verdicts <- ticket.Wait(nil)
	}()

	if !r.Withdraw(4) {
		t.Fatalf("withdraw of pending claim reported false")
	}
	select {
	case v := <-verdicts:
		if v != domain.VerdictUnset {
			t.Fatalf("withdrawn waiter got %s, want %s", v, domain.VerdictUnset)
		}
	case <-time.After(time.Second):
		t.Fatalf("withdrawn waiter was not woken")
	}

	// The withdrawn entry is skipped on dequeue.
	if _, ok := r.TryNext(); ok {
		t.Fatalf("withdrawn claim was dequeued")
	}
}

func TestWaitStop(t *testing.T) {
	r := NewRegistry()
	ticket := r.Submit(0)

	stop := make(chan struct{})
	verdicts := make(chan domain.Verdict, 1)
	go func() {
		verdicts <- ticket.Wait(stop)
	}()
	close(stop)

	select {
	case v := <-verdicts:
		if v != domain.VerdictUnset {
			t.Fatalf("stopped waiter got %s, want %s", v, domain.VerdictUnset)
		}
	case <-time.After(time.Second):
		t.Fatalf("stopped waiter was not woken")
	}
}

func TestNextTimesOut(t *testing.T) {
	r := NewRegistry()
	start := time.Now()
	if _, ok := r.Next(20*time.Millisecond, nil); ok {
		t.Fatalf("Next returned a claim from an empty registry")
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("Next returned after %s, before the timeout", elapsed)
	}
}

func TestNextWakesOnSubmit(t *testing.T) {
	r := NewRegistry()
	results := make(chan domain.PlayerID, 1)
	go func() {
		player, ok := r.Next(5*time.Second, nil)
		if !ok {
			player = -1
		}
		results <- player
	}()

	time.Sleep(10 * time.Millisecond)
	r.Submit(6)

	select {
	case player := <-results:
		if player != 6 {
			t.Fatalf("Next returned player %d, want 6", player)
		}
	case <-time.After(time.Second):
		t.Fatalf("Next did not wake on submit")
	}
}

func TestNextStop(t *testing.T) {
	r := NewRegistry()
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, ok := r.Next(5*time.Second, stop); ok {
			t.Errorf("stopped Next returned a claim")
		}
	}()
	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Next did not return on stop")
	}
}

func TestArrivalSignalRearmed(t *testing.T) {
	r := NewRegistry()
	r.Submit(0)
	r.Submit(1)

	// Both claims must be reachable through bounded waits even though the
	// wake channel holds a single token.
	for _, want := range []domain.PlayerID{0, 1} {
		player, ok := r.Next(time.Second, nil)
		if !ok || player != want {
			t.Fatalf("Next = (%d, %t), want (%d, true)", player, ok, want)
		}
	}
}

func TestPendingOrder(t *testing.T) {
	r := NewRegistry()
	r.Submit(5)
	r.Submit(2)
	r.Submit(9)
	r.Withdraw(2)

	pending := r.Pending()
	if len(pending) != 2 || pending[0] != 5 || pending[1] != 9 {
		t.Fatalf("Pending() = %v, want [5 9]", pending)
	}
}
