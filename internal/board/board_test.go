package board

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"trio_table/internal/domain"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) record(format string, args ...any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, fmt.Sprintf(format, args...))
}

func (n *recordingNotifier) CardPlaced(card domain.CardID, slot domain.SlotID) {
	n.record("card+ %d@%d", card, slot)
}

func (n *recordingNotifier) CardRemoved(slot domain.SlotID) {
	n.record("card- @%d", slot)
}

func (n *recordingNotifier) TokenPlaced(player domain.PlayerID, slot domain.SlotID) {
	n.record("token+ %d@%d", player, slot)
}

func (n *recordingNotifier) TokenRemoved(player domain.PlayerID, slot domain.SlotID) {
	n.record("token- %d@%d", player, slot)
}

func (n *recordingNotifier) snapshot() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

func TestPlaceAndRemoveCard(t *testing.T) {
	notifier := &recordingNotifier{}
	b := New(4, notifier)

	if err := b.PlaceCard(7, 2); err != nil {
		t.Fatalf("place card: %v", err)
	}
	if card, ok := b.CardAt(2); !ok || card != 7 {
		t.Fatalf("CardAt(2) = (%d, %t), want (7, true)", card, ok)
	}
	if slot, ok := b.SlotOf(7); !ok || slot != 2 {
		t.Fatalf("SlotOf(7) = (%d, %t), want (2, true)", slot, ok)
	}
	if got := b.CountCards(); got != 1 {
		t.Fatalf("CountCards() = %d, want 1", got)
	}

	if err := b.PlaceCard(8, 2); !errors.Is(err, ErrSlotOccupied) {
		t.Fatalf("placing into occupied slot: got %v, want ErrSlotOccupied", err)
	}

	card, err := b.RemoveCard(2)
	if err != nil {
		t.Fatalf("remove card: %v", err)
	}
	if card != 7 {
		t.Fatalf("removed card %d, want 7", card)
	}
	if _, ok := b.SlotOf(7); ok {
		t.Fatalf("SlotOf(7) still resolves after removal")
	}
	if _, err := b.RemoveCard(2); !errors.Is(err, ErrSlotEmpty) {
		t.Fatalf("removing from empty slot: got %v, want ErrSlotEmpty", err)
	}

	want := []string{"card+ 7@2", "card- @2"}
	got := notifier.snapshot()
	if len(got) != len(want) {
		t.Fatalf("notifications = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("notification %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSlotRangeErrors(t *testing.T) {
	b := New(2, nil)
	if err := b.PlaceCard(1, 5); !errors.Is(err, ErrSlotOutOfRange) {
		t.Fatalf("out of range place: got %v", err)
	}
	if err := b.WithSlot(-1, func(*SlotView) {}); !errors.Is(err, ErrSlotOutOfRange) {
		t.Fatalf("out of range WithSlot: got %v", err)
	}
	if _, ok := b.CardAt(9); ok {
		t.Fatalf("CardAt out of range reported a card")
	}
}

func TestTokens(t *testing.T) {
	b := New(3, nil)
	if err := b.PlaceCard(1, 0); err != nil {
		t.Fatalf("place card: %v", err)
	}

	err := b.WithSlot(0, func(v *SlotView) {
		if v.HasToken(0) {
			t.Fatalf("fresh slot reports a token")
		}
		v.PlaceToken(0)
		v.PlaceToken(1)
		if !v.HasToken(0) || !v.HasToken(1) {
			t.Fatalf("placed tokens missing")
		}
		if got := len(v.TokenHolders()); got != 2 {
			t.Fatalf("TokenHolders() = %d holders, want 2", got)
		}
		if !v.RemoveToken(0) {
			t.Fatalf("removing present token reported false")
		}
		if v.RemoveToken(0) {
			t.Fatalf("removing absent token reported true")
		}
	})
	if err != nil {
		t.Fatalf("WithSlot: %v", err)
	}
}

func TestInteractiveFlag(t *testing.T) {
	b := New(1, nil)
	if b.Interactive() {
		t.Fatalf("new board is interactive")
	}
	b.SetInteractive(true)
	if !b.Interactive() {
		t.Fatalf("board not interactive after SetInteractive(true)")
	}
	b.SetInteractive(false)
	if b.Interactive() {
		t.Fatalf("board interactive after SetInteractive(false)")
	}
}

func TestSnapshot(t *testing.T) {
	b := New(4, nil)
	for i := 0; i < 3; i++ {
		if err := b.PlaceCard(domain.CardID(10+i), domain.SlotID(i)); err != nil {
			t.Fatalf("place card %d: %v", i, err)
		}
	}
	snap := b.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("Snapshot() has %d cards, want 3", len(snap))
	}
	seen := make(map[domain.CardID]bool)
	for _, card := range snap {
		seen[card] = true
	}
	for i := 0; i < 3; i++ {
		if !seen[domain.CardID(10+i)] {
			t.Fatalf("card %d missing from snapshot", 10+i)
		}
	}
}

func TestConcurrentSlotAccess(t *testing.T) {
	b := New(1, nil)
	if err := b.PlaceCard(0, 0); err != nil {
		t.Fatalf("place card: %v", err)
	}

	const workers = 8
	const iterations = 200
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(player domain.PlayerID) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				_ = b.WithSlot(0, func(v *SlotView) {
					if v.HasToken(player) {
						v.RemoveToken(player)
					} else {
						v.PlaceToken(player)
					}
				})
			}
		}(domain.PlayerID(w))
	}
	wg.Wait()

	// iterations is even, so every worker ends with its token removed.
	_ = b.WithSlot(0, func(v *SlotView) {
		if got := len(v.TokenHolders()); got != 0 {
			t.Fatalf("expected no tokens after balanced toggling, got %d", got)
		}
	})
}
