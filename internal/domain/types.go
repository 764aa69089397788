package domain

import (
	"encoding/json"
	"time"
)

// CardID identifies a card in the deck. IDs are dense: 0..deckSize-1.
type CardID int

// SlotID identifies a fixed board position.
type SlotID int

// PlayerID identifies a player, starting from 0 in registration order.
type PlayerID int

// Verdict is the dealer's ruling on a submitted claim. VerdictUnset is
// both the initial state and the outcome of a claim that was invalidated
// before the dealer could rule on it.
type Verdict int

const (
	VerdictUnset Verdict = iota
	VerdictValid
	VerdictInvalid
)

func (v Verdict) String() string {
	switch v {
	case VerdictValid:
		return "valid"
	case VerdictInvalid:
		return "invalid"
	default:
		return "unset"
	}
}

// Journal event actions.
const (
	ActionGameStarted      = "game_started"
	ActionRoundStarted     = "round_started"
	ActionCardsDealt       = "cards_dealt"
	ActionClaimValid       = "claim_valid"
	ActionClaimInvalid     = "claim_invalid"
	ActionClaimStale       = "claim_stale"
	ActionPointAwarded     = "point_awarded"
	ActionPenaltyServed    = "penalty_served"
	ActionRoundSwept       = "round_swept"
	ActionWinnersAnnounced = "winners_announced"
)

// GameEvent is one journal entry describing a dealer or player action.
type GameEvent struct {
	ID        string          `json:"id"`
	GameID    string          `json:"game_id"`
	Actor     string          `json:"actor"`
	Action    string          `json:"action"`
	Reason    string          `json:"reason"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// GameRecord is the persisted summary of one game run.
type GameRecord struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Winners    []PlayerID `json:"winners"`
	Rounds     int        `json:"rounds"`
}
