// Package game is the coordination engine: one dealer goroutine
// arbitrates claims over a shared board while player goroutines toggle
// tokens concurrently, under a round countdown that forces a full
// reshuffle when it lapses.
package game

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"trio_table/internal/board"
	"trio_table/internal/cards"
	"trio_table/internal/claims"
	"trio_table/internal/display"
	"trio_table/internal/domain"
)

// Rules is the matching predicate collaborator. Implementations are pure
// functions over card ids.
type Rules interface {
	IsTrio(cards []domain.CardID) bool
	FindTrios(pool []domain.CardID, max int) [][]domain.CardID
}

// Journal records game events. A nil journal disables recording.
type Journal interface {
	LogEvent(ctx context.Context, ev domain.GameEvent) error
}

type Config struct {
	FeatureSize        int
	DeckSize           int
	TableSize          int
	TurnTimeout        time.Duration
	TurnTimeoutWarning time.Duration
	PointFreeze        time.Duration
	PenaltyFreeze      time.Duration

	// KeepCountdownOnMatch leaves the round deadline untouched when a
	// valid claim is honored; by default a match resets the countdown.
	KeepCountdownOnMatch bool
	Hints                bool
	Seed                 int64
}

func (c Config) withDefaults() Config {
	if c.FeatureSize <= 0 {
		c.FeatureSize = 3
	}
	if c.DeckSize <= 0 {
		c.DeckSize = 81
	}
	if c.TableSize <= 0 {
		c.TableSize = 12
	}
	if c.TurnTimeout <= 0 {
		c.TurnTimeout = 60 * time.Second
	}
	if c.TurnTimeoutWarning < 0 {
		c.TurnTimeoutWarning = 0
	}
	if c.PointFreeze < 0 {
		c.PointFreeze = 0
	}
	if c.PenaltyFreeze < 0 {
		c.PenaltyFreeze = 0
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	return c
}

// Dealer owns the deck, the countdown deadline and the claims registry.
// It is the only goroutine that places or removes cards; players only
// ever touch tokens.
type Dealer struct {
	cfg     Config
	rules   Rules
	board   *board.Board
	display display.Display
	journal Journal
	logger  *log.Logger
	gameID  string

	players  []*Player
	registry *claims.Registry

	deck        []domain.CardID
	rng         *rand.Rand
	reshuffleAt time.Time

	rounds  atomic.Int64
	winners []domain.PlayerID

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewDealer(
	cfg Config,
	rules Rules,
	b *board.Board,
	disp display.Display,
	journal Journal,
	logger *log.Logger,
	gameID string,
) *Dealer {
	cfg = cfg.withDefaults()
	if disp == nil {
		disp = display.Nop{}
	}
	if logger == nil {
		logger = log.Default()
	}
	d := &Dealer{
		cfg:      cfg,
		rules:    rules,
		board:    b,
		display:  disp,
		journal:  journal,
		logger:   logger,
		gameID:   gameID,
		registry: claims.NewRegistry(),
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	d.deck = cards.NewDeck(cfg.DeckSize)
	d.shuffleDeck()
	return d
}

// AddPlayer registers a player before Run is called. IDs follow
// registration order.
func (d *Dealer) AddPlayer(name string, human bool) *Player {
	p := newPlayer(d, domain.PlayerID(len(d.players)), name, human)
	d.players = append(d.players, p)
	return p
}

func (d *Dealer) Players() []*Player { return d.players }

func (d *Dealer) Rounds() int { return int(d.rounds.Load()) }

// Winners is valid once Run has returned.
func (d *Dealer) Winners() []domain.PlayerID { return d.winners }

// Run is the dealer's master loop: deal, run a timed round servicing
// claims, sweep, reshuffle; when the game ends, announce winners and
// terminate every player in reverse registration order, joining each.
func (d *Dealer) Run() {
	defer close(d.done)
	d.logger.Printf("dealer starting game=%s players=%d", d.gameID, len(d.players))
	d.logEvent("dealer", domain.ActionGameStarted, "game starting", map[string]any{
		"players":   len(d.players),
		"deck_size": len(d.deck),
	})
	for _, p := range d.players {
		go p.Run()
	}

	for !d.shouldFinish() {
		d.startRound()
		d.timerLoop()
		d.resetCountdown()
		d.board.SetInteractive(false)
		d.sweepRound()
		d.shuffleDeck()
	}

	d.announceWinners()
	for i := len(d.players) - 1; i >= 0; i-- {
		d.players[i].Terminate()
	}
	d.logger.Printf("dealer terminated game=%s", d.gameID)
}

// Terminate requests shutdown. It wakes the dealer's bounded wait; the
// dealer itself then terminates the players.
func (d *Dealer) Terminate() {
	d.stopOnce.Do(func() {
		close(d.stop)
	})
}

// Wait blocks until the dealer loop has fully exited.
func (d *Dealer) Wait() { <-d.done }

func (d *Dealer) stopped() bool {
	select {
	case <-d.stop:
		return true
	default:
		return false
	}
}

// shouldFinish is evaluated once per outer cycle: the game ends on
// termination or when no valid combination remains across deck and
// board.
func (d *Dealer) shouldFinish() bool {
	if d.stopped() {
		return true
	}
	pool := make([]domain.CardID, 0, len(d.deck)+d.board.CountCards())
	pool = append(pool, d.deck...)
	pool = append(pool, d.board.Snapshot()...)
	return len(d.rules.FindTrios(pool, 1)) == 0
}

func (d *Dealer) startRound() {
	round := d.rounds.Add(1)
	d.dealCards()
	d.board.SetInteractive(true)
	if d.cfg.Hints {
		d.publishHints()
	}
	d.resetCountdown()
	d.logEvent("dealer", domain.ActionRoundStarted, "board dealt and opened", map[string]any{
		"round":          round,
		"cards_on_board": d.board.CountCards(),
		"deck_remaining": len(d.deck),
	})
}

// timerLoop services claims until the countdown lapses or termination is
// requested: one bounded wait, one countdown refresh, at most one claim
// resolution and a refill per pass.
func (d *Dealer) timerLoop() {
	for !d.stopped() && time.Now().Before(d.reshuffleAt) {
		claimant, ok := d.nextClaim()
		d.refreshCountdown()
		if ok {
			d.resolveClaim(claimant)
		}
		d.dealCards()
	}
}

// nextClaim waits for a claim, bounded by the time remaining in the
// round. Above the warning threshold it blocks until the next whole
// second boundary so the countdown display ticks; below it, it degrades
// to a non-blocking poll so the display updates continuously.
func (d *Dealer) nextClaim() (domain.PlayerID, bool) {
	remaining := time.Until(d.reshuffleAt)
	if remaining <= 0 {
		return 0, false
	}
	if remaining >= d.cfg.TurnTimeoutWarning {
		return d.registry.Next(remaining%time.Second, d.stop)
	}
	return d.registry.TryNext()
}

// resolveClaim rules on one dequeued claim. Only the dealer mutates the
// board here, but players concurrently toggle tokens elsewhere, so every
// cross-player mutation runs under the slot's lock.
func (d *Dealer) resolveClaim(claimant domain.PlayerID) {
	p := d.players[claimant]
	slots := p.tokens.Snapshot()
	held := make([]domain.CardID, 0, len(slots))
	for _, slot := range slots {
		if card, ok := d.board.CardAt(slot); ok {
			held = append(held, card)
		}
	}
	if len(held) != d.cfg.FeatureSize {
		// The claim lost a token between submission and dequeue.
		d.registry.Resolve(claimant, domain.VerdictUnset)
		d.logEvent("dealer", domain.ActionClaimStale, "claim no longer complete at resolution", map[string]any{
			"player": p.Name,
		})
		return
	}

	if !d.rules.IsTrio(held) {
		d.registry.Resolve(claimant, domain.VerdictInvalid)
		d.logEvent("dealer", domain.ActionClaimInvalid, "cards do not form a valid combination", map[string]any{
			"player": p.Name,
			"cards":  held,
		})
		return
	}

	for _, card := range held {
		slot, ok := d.board.SlotOf(card)
		if !ok {
			continue
		}
		_ = d.board.WithSlot(slot, func(v *board.SlotView) {
			for _, q := range d.players {
				if q.tokens.Remove(slot) {
					v.RemoveToken(q.ID)
				}
				q.moves.Purge(slot)
			}
			// A removed token may have broken another pending claim;
			// wake its owner instead of leaving it waiting forever.
			for _, waiting := range d.registry.Pending() {
				if waiting == claimant {
					continue
				}
				if d.players[waiting].tokens.Count() < d.cfg.FeatureSize {
					if d.registry.Withdraw(waiting) {
						d.logEvent("dealer", domain.ActionClaimStale, "pending claim invalidated by match", map[string]any{
							"player": d.players[waiting].Name,
						})
					}
				}
			}
			_, _ = v.RemoveCard()
		})
	}

	if d.cfg.Hints {
		d.publishHints()
	}
	if d.cfg.KeepCountdownOnMatch {
		d.refreshCountdown()
	} else {
		d.resetCountdown()
	}
	d.registry.Resolve(claimant, domain.VerdictValid)
	d.logEvent("dealer", domain.ActionClaimValid, "matched cards removed from board", map[string]any{
		"player": p.Name,
		"cards":  held,
	})
}

// dealCards fills every empty slot from the front of the deck.
func (d *Dealer) dealCards() {
	placed := 0
	for i := 0; i < d.board.Size() && len(d.deck) > 0; i++ {
		slot := domain.SlotID(i)
		if _, ok := d.board.CardAt(slot); ok {
			continue
		}
		card := d.deck[0]
		d.deck = d.deck[1:]
		if err := d.board.PlaceCard(card, slot); err != nil {
			d.logger.Printf("place card %d on slot %d: %v", card, slot, err)
			continue
		}
		placed++
	}
	if placed > 0 {
		d.logEvent("dealer", domain.ActionCardsDealt, "empty slots refilled", map[string]any{
			"placed":         placed,
			"deck_remaining": len(d.deck),
		})
	}
}

// sweepRound ends the round: wake any still-pending claims as stale,
// discard every player's queued moves and tokens, and return all board
// cards to the deck under their slot locks.
func (d *Dealer) sweepRound() {
	for _, waiting := range d.registry.Pending() {
		if d.registry.Withdraw(waiting) {
			d.logEvent("dealer", domain.ActionClaimStale, "round ended before resolution", map[string]any{
				"player": d.players[waiting].Name,
			})
		}
	}
	for _, p := range d.players {
		p.moves.Clear()
		p.tokens.Clear()
	}

	returned := 0
	for i := 0; i < d.board.Size(); i++ {
		_ = d.board.WithSlot(domain.SlotID(i), func(v *board.SlotView) {
			for _, holder := range v.TokenHolders() {
				v.RemoveToken(holder)
			}
			if _, ok := v.Card(); ok {
				card, _ := v.RemoveCard()
				d.deck = append(d.deck, card)
				returned++
			}
		})
	}
	d.logEvent("dealer", domain.ActionRoundSwept, "board swept and cards returned to deck", map[string]any{
		"returned":       returned,
		"deck_remaining": len(d.deck),
	})
}

func (d *Dealer) shuffleDeck() {
	cards.Shuffle(d.rng, d.deck)
}

// announceWinners declares every player holding the maximal score a
// joint winner.
func (d *Dealer) announceWinners() {
	maxScore := 0
	winners := make([]domain.PlayerID, 0, len(d.players))
	for _, p := range d.players {
		switch score := p.Score(); {
		case score > maxScore:
			maxScore = score
			winners = winners[:0]
			winners = append(winners, p.ID)
		case score == maxScore:
			winners = append(winners, p.ID)
		}
	}
	d.winners = winners
	d.display.AnnounceWinners(winners)
	d.logEvent("dealer", domain.ActionWinnersAnnounced, "game over", map[string]any{
		"winners": winners,
		"score":   maxScore,
	})
}

func (d *Dealer) resetCountdown() {
	d.reshuffleAt = time.Now().Add(d.cfg.TurnTimeout)
	d.display.SetCountdown(d.cfg.TurnTimeout, false)
}

func (d *Dealer) refreshCountdown() {
	remaining := time.Until(d.reshuffleAt)
	if remaining < 0 {
		remaining = 0
	}
	d.display.SetCountdown(remaining, remaining < d.cfg.TurnTimeoutWarning)
}

// publishHints pushes the slots of every remaining valid combination to
// the display, replacing the previous batch.
func (d *Dealer) publishHints() {
	trios := d.rules.FindTrios(d.board.Snapshot(), 0)
	hints := make([][]domain.SlotID, 0, len(trios))
	for _, trio := range trios {
		slots := make([]domain.SlotID, 0, len(trio))
		for _, card := range trio {
			if slot, ok := d.board.SlotOf(card); ok {
				slots = append(slots, slot)
			}
		}
		hints = append(hints, slots)
	}
	d.display.SetHints(hints)
}

func (d *Dealer) logEvent(actor, action, reason string, payload any) {
	if d.journal == nil {
		return
	}
	raw := []byte("{}")
	if payload != nil {
		raw = mustJSON(payload)
	}
	_ = d.journal.LogEvent(context.Background(), domain.GameEvent{
		ID:        uuid.NewString(),
		GameID:    d.gameID,
		Actor:     actor,
		Action:    action,
		Reason:    reason,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	})
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
