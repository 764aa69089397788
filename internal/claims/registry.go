// Package claims implements the handoff between players and the dealer:
// a pending-claims registry keyed by player, with a per-claim ticket as
// the wake mechanism. Players submit themselves after completing a full
// token set and block on their ticket; the dealer dequeues at most one
// claim per wake, rules on it, and may withdraw claims that a resolution
// invalidated so their owners are woken instead of left waiting.
package claims

import (
	"sync"
	"time"

	"trio_table/internal/domain"
)

// Ticket is one player's pending claim. The verdict channel is buffered
// so resolving never blocks the dealer.
type Ticket struct {
	player  domain.PlayerID
	verdict chan domain.Verdict
}

// Wait blocks until the dealer rules on the claim or stop is closed.
// A stop wake yields VerdictUnset; the caller re-checks its own
// termination state, it never busy-polls.
func (t *Ticket) Wait(stop <-chan struct{}) domain.Verdict {
	select {
	case v := <-t.verdict:
		return v
	case <-stop:
		return domain.VerdictUnset
	}
}

type Registry struct {
	mu      sync.Mutex
	order   []domain.PlayerID
	tickets map[domain.PlayerID]*Ticket

	// arrived carries at most one wake for the single consumer; TryNext
	// re-arms it while claims remain queued.
	arrived chan struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		tickets: make(map[domain.PlayerID]*Ticket),
		arrived: make(chan struct{}, 1),
	}
}

// Submit registers the player's claim and returns its ticket. A player
// submits at most once per completed set; a duplicate submit returns the
// already-pending ticket.
func (r *Registry) Submit(player domain.PlayerID) *Ticket {
	r.mu.Lock()
	if t, ok := r.tickets[player]; ok {
		r.mu.Unlock()
		return t
	}
	t := &Ticket{player: player, verdict: make(chan domain.Verdict, 1)}
	r.tickets[player] = t
	r.order = append(r.order, player)
	r.mu.Unlock()

	select {
	case r.arrived <- struct{}{}:
	default:
	}
	return t
}

// TryNext dequeues the oldest pending claim without blocking. Withdrawn
// entries are skipped. Arrival order under the registry mutex is the
// only tie-break between near-simultaneous submissions.
func (r *Registry) TryNext() (domain.PlayerID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.order) > 0 {
		player := r.order[0]
		r.order = r.order[1:]
		if _, ok := r.tickets[player]; !ok {
			continue
		}
		if len(r.order) > 0 {
			select {
			case r.arrived <- struct{}{}:
			default:
			}
		}
		return player, true
	}
	return 0, false
}

// Next waits up to timeout for a claim to dequeue. It returns early when
// stop is closed. A non-positive timeout degrades to TryNext.
func (r *Registry) Next(timeout time.Duration, stop <-chan struct{}) (domain.PlayerID, bool) {
	if player, ok := r.TryNext(); ok {
		return player, true
	}
	if timeout <= 0 {
		return 0, false
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-r.arrived:
		return r.TryNext()
	case <-timer.C:
		return 0, false
	case <-stop:
		return 0, false
	}
}

// Resolve assigns the verdict to a dequeued claim and wakes its owner.
func (r *Registry) Resolve(player domain.PlayerID, verdict domain.Verdict) bool {
	r.mu.Lock()
	t, ok := r.tickets[player]
	if ok {
		delete(r.tickets, player)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	t.verdict <- verdict
	return true
}

// Withdraw removes a still-pending claim and wakes its owner with
// VerdictUnset so it can recheck instead of waiting on a claim that is
// no longer complete.
func (r *Registry) Withdraw(player domain.PlayerID) bool {
	return r.Resolve(player, domain.VerdictUnset)
}

// Pending lists the players whose claims are registered and not yet
// dequeued, in arrival order.
func (r *Registry) Pending() []domain.PlayerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	pending := make([]domain.PlayerID, 0, len(r.order))
	for _, player := range r.order {
		if _, ok := r.tickets[player]; ok {
			pending = append(pending, player)
		}
	}
	return pending
}
