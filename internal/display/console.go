package display

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"trio_table/internal/domain"
)

// Console renders the game as log lines. The countdown is printed once
// per second step so autonomous games stay readable; urgent countdowns
// and the winner line are highlighted.
type Console struct {
	logger *log.Logger
	names  []string

	urgent *color.Color
	winner *color.Color

	mu            sync.Mutex
	lastCountdown time.Duration
}

func NewConsole(logger *log.Logger, playerNames []string) *Console {
	if logger == nil {
		logger = log.Default()
	}
	return &Console{
		logger:        logger,
		names:         playerNames,
		urgent:        color.New(color.FgRed, color.Bold),
		winner:        color.New(color.FgGreen, color.Bold),
		lastCountdown: -1,
	}
}

func (c *Console) playerName(player domain.PlayerID) string {
	if int(player) >= 0 && int(player) < len(c.names) {
		return c.names[player]
	}
	return fmt.Sprintf("player-%d", player)
}

func (c *Console) CardPlaced(card domain.CardID, slot domain.SlotID) {
	c.logger.Printf("board: card %d -> slot %d", card, slot)
}

func (c *Console) CardRemoved(slot domain.SlotID) {
	c.logger.Printf("board: slot %d cleared", slot)
}

func (c *Console) TokenPlaced(player domain.PlayerID, slot domain.SlotID) {
	c.logger.Printf("board: %s marks slot %d", c.playerName(player), slot)
}

func (c *Console) TokenRemoved(player domain.PlayerID, slot domain.SlotID) {
	c.logger.Printf("board: %s unmarks slot %d", c.playerName(player), slot)
}

func (c *Console) SetCountdown(remaining time.Duration, urgent bool) {
	shown := remaining.Truncate(time.Second)
	c.mu.Lock()
	if shown == c.lastCountdown {
		c.mu.Unlock()
		return
	}
	c.lastCountdown = shown
	c.mu.Unlock()

	text := fmt.Sprintf("countdown: %s", shown)
	if urgent {
		text = c.urgent.Sprint(text)
	}
	c.logger.Print(text)
}

func (c *Console) SetScore(player domain.PlayerID, score int) {
	c.logger.Printf("score: %s = %d", c.playerName(player), score)
}

func (c *Console) SetFreeze(player domain.PlayerID, remaining time.Duration) {
	if remaining <= 0 {
		c.logger.Printf("freeze: %s released", c.playerName(player))
		return
	}
	c.logger.Printf("freeze: %s for %s", c.playerName(player), remaining)
}

func (c *Console) SetHints(hints [][]domain.SlotID) {
	for _, slots := range hints {
		c.logger.Printf("hint: slots %v", slots)
	}
}

func (c *Console) AnnounceWinners(players []domain.PlayerID) {
	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, c.playerName(p))
	}
	c.logger.Print(c.winner.Sprintf("winners: %s", strings.Join(names, ", ")))
}
