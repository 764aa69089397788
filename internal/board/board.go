// Package board implements the shared slot board: a fixed array of slots,
// each holding at most one card plus the set of player tokens placed on
// it. Every read or mutation of a single slot's (card, tokens) pair runs
// under that slot's own lock; distinct slots never contend.
package board

import (
	"errors"
	"sync"
	"sync/atomic"

	"trio_table/internal/domain"
)

var (
	ErrSlotOutOfRange = errors.New("slot index out of range")
	ErrSlotOccupied   = errors.New("slot already holds a card")
	ErrSlotEmpty      = errors.New("slot holds no card")
)

// Notifier receives board change notifications. Implementations must not
// block; the engine calls these from inside slot-locked sections.
type Notifier interface {
	CardPlaced(card domain.CardID, slot domain.SlotID)
	CardRemoved(slot domain.SlotID)
	TokenPlaced(player domain.PlayerID, slot domain.SlotID)
	TokenRemoved(player domain.PlayerID, slot domain.SlotID)
}

type slotCell struct {
	mu      sync.Mutex
	card    domain.CardID
	hasCard bool
	tokens  map[domain.PlayerID]struct{}
}

type Board struct {
	slots    []slotCell
	notifier Notifier

	// indexMu guards the card->slot index; per-slot state is guarded by
	// the slot's own mutex.
	indexMu   sync.RWMutex
	cardSlots map[domain.CardID]domain.SlotID

	interactive atomic.Bool
}

func New(size int, notifier Notifier) *Board {
	b := &Board{
		slots:     make([]slotCell, size),
		notifier:  notifier,
		cardSlots: make(map[domain.CardID]domain.SlotID),
	}
	for i := range b.slots {
		b.slots[i].tokens = make(map[domain.PlayerID]struct{})
	}
	return b
}

func (b *Board) Size() int { return len(b.slots) }

// SetInteractive opens or closes the board for player moves. The flag is
// read by every player at each loop iteration.
func (b *Board) SetInteractive(open bool) { b.interactive.Store(open) }

func (b *Board) Interactive() bool { return b.interactive.Load() }

// SlotView exposes one slot's state to a function running under the
// slot's lock. It must not be retained past the WithSlot call.
type SlotView struct {
	board *Board
	slot  domain.SlotID
	cell  *slotCell
}

// WithSlot runs fn with exclusive access to the slot.
func (b *Board) WithSlot(slot domain.SlotID, fn func(*SlotView)) error {
	if int(slot) < 0 || int(slot) >= len(b.slots) {
		return ErrSlotOutOfRange
	}
	cell := &b.slots[slot]
	cell.mu.Lock()
	defer cell.mu.Unlock()
	fn(&SlotView{board: b, slot: slot, cell: cell})
	return nil
}

func (v *SlotView) Card() (domain.CardID, bool) {
	return v.cell.card, v.cell.hasCard
}

func (v *SlotView) PlaceCard(card domain.CardID) error {
	if v.cell.hasCard {
		return ErrSlotOccupied
	}
	v.cell.card = card
	v.cell.hasCard = true
	v.board.indexMu.Lock()
	v.board.cardSlots[card] = v.slot
	v.board.indexMu.Unlock()
	if v.board.notifier != nil {
		v.board.notifier.CardPlaced(card, v.slot)
	}
	return nil
}

func (v *SlotView) RemoveCard() (domain.CardID, error) {
	if !v.cell.hasCard {
		return 0, ErrSlotEmpty
	}
	card := v.cell.card
	v.cell.hasCard = false
	v.board.indexMu.Lock()
	delete(v.board.cardSlots, card)
	v.board.indexMu.Unlock()
	if v.board.notifier != nil {
		v.board.notifier.CardRemoved(v.slot)
	}
	return card, nil
}

func (v *SlotView) HasToken(player domain.PlayerID) bool {
	_, ok := v.cell.tokens[player]
	return ok
}

func (v *SlotView) PlaceToken(player domain.PlayerID) {
	v.cell.tokens[player] = struct{}{}
	if v.board.notifier != nil {
		v.board.notifier.TokenPlaced(player, v.slot)
	}
}

func (v *SlotView) RemoveToken(player domain.PlayerID) bool {
	if _, ok := v.cell.tokens[player]; !ok {
		return false
	}
	delete(v.cell.tokens, player)
	if v.board.notifier != nil {
		v.board.notifier.TokenRemoved(player, v.slot)
	}
	return true
}

func (v *SlotView) TokenHolders() []domain.PlayerID {
	holders := make([]domain.PlayerID, 0, len(v.cell.tokens))
	for p := range v.cell.tokens {
		holders = append(holders, p)
	}
	return holders
}

// PlaceCard places a card into an empty slot.
func (b *Board) PlaceCard(card domain.CardID, slot domain.SlotID) error {
	var placeErr error
	if err := b.WithSlot(slot, func(v *SlotView) {
		placeErr = v.PlaceCard(card)
	}); err != nil {
		return err
	}
	return placeErr
}

// RemoveCard clears a slot and returns the card it held.
func (b *Board) RemoveCard(slot domain.SlotID) (domain.CardID, error) {
	var card domain.CardID
	var removeErr error
	if err := b.WithSlot(slot, func(v *SlotView) {
		card, removeErr = v.RemoveCard()
	}); err != nil {
		return 0, err
	}
	return card, removeErr
}

// CardAt reports the card currently in the slot, if any.
func (b *Board) CardAt(slot domain.SlotID) (domain.CardID, bool) {
	if int(slot) < 0 || int(slot) >= len(b.slots) {
		return 0, false
	}
	cell := &b.slots[slot]
	cell.mu.Lock()
	defer cell.mu.Unlock()
	return cell.card, cell.hasCard
}

// SlotOf reports the slot currently holding the card, if any.
func (b *Board) SlotOf(card domain.CardID) (domain.SlotID, bool) {
	b.indexMu.RLock()
	defer b.indexMu.RUnlock()
	slot, ok := b.cardSlots[card]
	return slot, ok
}

// CountCards returns the number of occupied slots.
func (b *Board) CountCards() int {
	b.indexMu.RLock()
	defer b.indexMu.RUnlock()
	return len(b.cardSlots)
}

// Snapshot returns the cards currently on the board, in no particular
// order.
func (b *Board) Snapshot() []domain.CardID {
	b.indexMu.RLock()
	defer b.indexMu.RUnlock()
	cards := make([]domain.CardID, 0, len(b.cardSlots))
	for card := range b.cardSlots {
		cards = append(cards, card)
	}
	return cards
}
