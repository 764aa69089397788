package game

import (
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"trio_table/internal/board"
	"trio_table/internal/domain"
)

// freezeTick is the display refresh step used while sitting out a
// reward or penalty freeze.
const freezeTick = 500 * time.Millisecond

// Player runs one agent's control loop: consume move requests, toggle
// tokens under the slot lock, and hand a completed set to the dealer for
// a verdict. Autonomous players additionally run a generator goroutine
// that feeds random slots through the same KeyPressed entry point.
type Player struct {
	ID    domain.PlayerID
	Name  string
	Human bool

	dealer *Dealer
	moves  *moveQueue
	tokens *tokenSet
	logger *log.Logger

	frozen atomic.Bool
	score  atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	genWG    sync.WaitGroup
}

func newPlayer(dealer *Dealer, id domain.PlayerID, name string, human bool) *Player {
	return &Player{
		ID:     id,
		Name:   name,
		Human:  human,
		dealer: dealer,
		moves:  newMoveQueue(dealer.cfg.FeatureSize),
		tokens: newTokenSet(dealer.cfg.FeatureSize),
		logger: dealer.logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Run is the player's control loop. It returns only after the generator
// goroutine, if any, has fully stopped.
func (p *Player) Run() {
	defer close(p.done)
	p.logger.Printf("player %s starting", p.Name)
	if !p.Human {
		p.genWG.Add(1)
		go p.generateMoves()
	}

	for {
		slot, ok := p.moves.Take()
		if !ok {
			break
		}
		if !p.toggle(slot) {
			continue
		}
		if p.tokens.Count() != p.dealer.cfg.FeatureSize || !p.dealer.board.Interactive() {
			continue
		}

		p.frozen.Store(true)
		ticket := p.dealer.registry.Submit(p.ID)
		switch ticket.Wait(p.stop) {
		case domain.VerdictValid:
			p.point()
		case domain.VerdictInvalid:
			p.clearOwnTokens()
			p.penalty()
		default:
			// Stale claim or shutdown: no scoring, back to idle.
			p.frozen.Store(false)
		}
	}

	p.genWG.Wait()
	p.logger.Printf("player %s terminated", p.Name)
}

// Terminate signals the player to stop, wakes it at every suspension
// point, and blocks until its control loop has fully exited.
func (p *Player) Terminate() {
	p.stopOnce.Do(func() {
		close(p.stop)
		p.moves.Close()
	})
	<-p.done
}

// KeyPressed is the external move-request entry point. Requests are
// dropped while the slot is empty, the player is frozen, or the round is
// closed; otherwise the bounded queue provides backpressure.
func (p *Player) KeyPressed(slot domain.SlotID) {
	if _, ok := p.dealer.board.CardAt(slot); !ok {
		return
	}
	if p.Frozen() || !p.dealer.board.Interactive() {
		return
	}
	p.moves.Put(slot)
}

func (p *Player) Score() int { return int(p.score.Load()) }

func (p *Player) Frozen() bool { return p.frozen.Load() }

// toggle flips the player's token on the slot under the slot's lock and
// reports whether the move could have completed a set: adding a token,
// or removing one while below the full set size. Removing a token from a
// full set is allowed but never terminal, and adds beyond the set size
// are no-ops.
func (p *Player) toggle(slot domain.SlotID) bool {
	terminal := false
	_ = p.dealer.board.WithSlot(slot, func(v *board.SlotView) {
		if p.tokens.Count() < p.dealer.cfg.FeatureSize {
			if p.tokens.Contains(slot) {
				p.tokens.Remove(slot)
				v.RemoveToken(p.ID)
				terminal = true
			} else if _, ok := v.Card(); ok && p.tokens.Add(slot) {
				v.PlaceToken(p.ID)
				terminal = true
			}
		} else if p.tokens.Contains(slot) {
			p.tokens.Remove(slot)
			v.RemoveToken(p.ID)
		}
	})
	return terminal
}

func (p *Player) point() {
	score := int(p.score.Add(1))
	p.dealer.display.SetScore(p.ID, score)
	p.dealer.logEvent(p.Name, domain.ActionPointAwarded, "claim ruled valid", map[string]any{
		"score": score,
	})
	p.holdFreeze(p.dealer.cfg.PointFreeze)
}

func (p *Player) penalty() {
	p.dealer.logEvent(p.Name, domain.ActionPenaltyServed, "claim ruled invalid", map[string]any{
		"freeze_ms": p.dealer.cfg.PenaltyFreeze.Milliseconds(),
	})
	p.holdFreeze(p.dealer.cfg.PenaltyFreeze)
}

// holdFreeze sits out the full freeze duration in display ticks. The
// round timer never cuts a freeze short; only the termination signal
// ends it early.
func (p *Player) holdFreeze(total time.Duration) {
	p.frozen.Store(true)
	remaining := total
	for remaining > 0 {
		p.dealer.display.SetFreeze(p.ID, remaining)
		tick := freezeTick
		if remaining < tick {
			tick = remaining
		}
		timer := time.NewTimer(tick)
		select {
		case <-timer.C:
			remaining -= tick
		case <-p.stop:
			timer.Stop()
			remaining = 0
		}
	}
	p.dealer.display.SetFreeze(p.ID, 0)
	p.frozen.Store(false)
}

// clearOwnTokens removes the player's tokens from the board after an
// invalid claim so the same wrong set cannot be resubmitted unchanged.
func (p *Player) clearOwnTokens() {
	for _, slot := range p.tokens.Snapshot() {
		_ = p.dealer.board.WithSlot(slot, func(v *board.SlotView) {
			if p.tokens.Remove(slot) {
				v.RemoveToken(p.ID)
			}
		})
	}
}

// generateMoves synthesizes uniformly-random slot presses until
// termination. It is throttled only by the move queue's backpressure.
func (p *Player) generateMoves() {
	defer p.genWG.Done()
	p.logger.Printf("generator for player %s starting", p.Name)
	rng := rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(p.ID)<<32))
	size := p.dealer.board.Size()
	for {
		select {
		case <-p.stop:
			p.logger.Printf("generator for player %s terminated", p.Name)
			return
		default:
		}
		p.KeyPressed(domain.SlotID(rng.Intn(size)))
	}
}
