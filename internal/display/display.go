// Package display defines the notification surface the engine publishes
// game state through. Implementations are pure sinks: no return values,
// and they must not block the engine.
package display

import (
	"time"

	"trio_table/internal/domain"
)

type Display interface {
	CardPlaced(card domain.CardID, slot domain.SlotID)
	CardRemoved(slot domain.SlotID)
	TokenPlaced(player domain.PlayerID, slot domain.SlotID)
	TokenRemoved(player domain.PlayerID, slot domain.SlotID)
	SetCountdown(remaining time.Duration, urgent bool)
	SetScore(player domain.PlayerID, score int)
	SetFreeze(player domain.PlayerID, remaining time.Duration)
	SetHints(hints [][]domain.SlotID)
	AnnounceWinners(players []domain.PlayerID)
}

// Nop discards every notification.
type Nop struct{}

func (Nop) CardPlaced(domain.CardID, domain.SlotID)      {}
func (Nop) CardRemoved(domain.SlotID)                    {}
func (Nop) TokenPlaced(domain.PlayerID, domain.SlotID)   {}
func (Nop) TokenRemoved(domain.PlayerID, domain.SlotID)  {}
func (Nop) SetCountdown(time.Duration, bool)             {}
func (Nop) SetScore(domain.PlayerID, int)                {}
func (Nop) SetFreeze(domain.PlayerID, time.Duration)     {}
func (Nop) SetHints([][]domain.SlotID)                   {}
func (Nop) AnnounceWinners([]domain.PlayerID)            {}
