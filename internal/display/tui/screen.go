// Package tui renders a live game in the terminal. The engine publishes
// state through the display interface; those calls only mutate state
// under a mutex, and a refresh goroutine pushes the state into tview on
// its own schedule so the engine never blocks on the terminal.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"trio_table/internal/domain"
)

const refreshInterval = 100 * time.Millisecond

// defaultKeymap maps keyboard rows to slots, left to right and top to
// bottom, matching the 4-column board layout.
const defaultKeymap = "qwerasdfzxcv"

const boardColumns = 4

type slotState struct {
	card    domain.CardID
	hasCard bool
	tokens  map[domain.PlayerID]struct{}
}

// Screen is a tview renderer for one running game. It implements the
// engine's display interface plus board notifications.
type Screen struct {
	app        *tview.Application
	boardView  *tview.Table
	statusView *tview.TextView
	scoresView *tview.TextView

	names      []string
	keymap     []rune
	keyHandler func(slot domain.SlotID)

	mu        sync.Mutex
	slots     []slotState
	countdown time.Duration
	urgent    bool
	scores    map[domain.PlayerID]int
	freezes   map[domain.PlayerID]time.Duration
	hints     [][]domain.SlotID
	winners   []domain.PlayerID

	stop     chan struct{}
	stopOnce sync.Once
}

// New builds a screen for a board of tableSize slots. keyHandler is
// invoked off the UI goroutine for every mapped key press; pass nil for
// a spectator screen.
func New(tableSize int, playerNames []string, keyHandler func(slot domain.SlotID)) *Screen {
	s := &Screen{
		app:        tview.NewApplication(),
		names:      playerNames,
		keymap:     []rune(defaultKeymap),
		keyHandler: keyHandler,
		slots:      make([]slotState, tableSize),
		scores:     make(map[domain.PlayerID]int),
		freezes:    make(map[domain.PlayerID]time.Duration),
		stop:       make(chan struct{}),
	}
	for i := range s.slots {
		s.slots[i].tokens = make(map[domain.PlayerID]struct{})
	}

	s.boardView = tview.NewTable().SetBorders(true)
	s.boardView.SetTitle("Board").SetBorder(true)

	s.scoresView = tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	s.scoresView.SetTitle("Players").SetBorder(true)

	s.statusView = tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	s.statusView.SetTitle("Countdown (Esc quits)").SetBorder(true)

	rows := (tableSize + boardColumns - 1) / boardColumns
	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(s.boardView, rows*2+3, 0, true).
		AddItem(s.scoresView, 0, 1, false).
		AddItem(s.statusView, 3, 0, false)

	s.app.SetRoot(root, true)
	s.app.SetInputCapture(s.handleKey)
	return s
}

// Run starts the refresh loop and blocks inside the tview event loop
// until Stop is called or the user quits.
func (s *Screen) Run() error {
	go s.refreshLoop()
	return s.app.Run()
}

// Stop tears the screen down. Safe to call from any goroutine and more
// than once.
func (s *Screen) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.app.Stop()
	})
}

func (s *Screen) handleKey(ev *tcell.EventKey) *tcell.EventKey {
	if ev.Key() == tcell.KeyEscape {
		s.Stop()
		return nil
	}
	if ev.Key() != tcell.KeyRune || s.keyHandler == nil {
		return ev
	}
	for i, r := range s.keymap {
		if r == ev.Rune() && i < len(s.slots) {
			// The handler may block on the player's move queue.
			go s.keyHandler(domain.SlotID(i))
			return nil
		}
	}
	return ev
}

func (s *Screen) refreshLoop() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.app.QueueUpdateDraw(s.render)
		}
	}
}

// render runs on the UI goroutine.
func (s *Screen) render() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.slots {
		cell := tview.NewTableCell(s.slotText(i)).
			SetAlign(tview.AlignCenter).
			SetExpansion(1)
		s.boardView.SetCell(i/boardColumns, i%boardColumns, cell)
	}

	var sb strings.Builder
	for id, name := range s.names {
		player := domain.PlayerID(id)
		fmt.Fprintf(&sb, "%-12s score=%d", name, s.scores[player])
		if freeze := s.freezes[player]; freeze > 0 {
			fmt.Fprintf(&sb, "  [red]frozen %s[-]", freeze.Truncate(100*time.Millisecond))
		}
		sb.WriteByte('\n')
	}
	for _, hint := range s.hints {
		keys := make([]string, 0, len(hint))
		for _, slot := range hint {
			if int(slot) < len(s.keymap) {
				keys = append(keys, string(s.keymap[slot]))
			}
		}
		fmt.Fprintf(&sb, "[blue]hint: %s[-]\n", strings.Join(keys, " "))
	}
	if len(s.winners) > 0 {
		winnerNames := make([]string, 0, len(s.winners))
		for _, w := range s.winners {
			winnerNames = append(winnerNames, s.playerName(w))
		}
		fmt.Fprintf(&sb, "\n[green::b]winners: %s[-:-:-]\n", strings.Join(winnerNames, ", "))
	}
	s.scoresView.SetText(sb.String())

	countdown := s.countdown.Truncate(10 * time.Millisecond).String()
	if s.urgent {
		s.statusView.SetText(fmt.Sprintf("[red::b]%s[-:-:-]", countdown))
	} else {
		s.statusView.SetText(countdown)
	}
}

func (s *Screen) slotText(i int) string {
	st := s.slots[i]
	key := "?"
	if i < len(s.keymap) {
		key = string(s.keymap[i])
	}
	if !st.hasCard {
		return fmt.Sprintf("[%s]\n.", key)
	}
	holders := make([]int, 0, len(st.tokens))
	for p := range st.tokens {
		holders = append(holders, int(p))
	}
	sort.Ints(holders)
	marks := make([]string, 0, len(holders))
	for _, h := range holders {
		marks = append(marks, s.playerName(domain.PlayerID(h)))
	}
	text := fmt.Sprintf("[%s]\ncard %d", key, st.card)
	if len(marks) > 0 {
		text += fmt.Sprintf("\n[yellow]%s[-]", strings.Join(marks, " "))
	}
	return text
}

func (s *Screen) playerName(player domain.PlayerID) string {
	if int(player) >= 0 && int(player) < len(s.names) {
		return s.names[player]
	}
	return fmt.Sprintf("player-%d", player)
}

func (s *Screen) CardPlaced(card domain.CardID, slot domain.SlotID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(slot) < 0 || int(slot) >= len(s.slots) {
		return
	}
	s.slots[slot].card = card
	s.slots[slot].hasCard = true
}

func (s *Screen) CardRemoved(slot domain.SlotID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(slot) < 0 || int(slot) >= len(s.slots) {
		return
	}
	s.slots[slot].hasCard = false
}

func (s *Screen) TokenPlaced(player domain.PlayerID, slot domain.SlotID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(slot) < 0 || int(slot) >= len(s.slots) {
		return
	}
	s.slots[slot].tokens[player] = struct{}{}
}

func (s *Screen) TokenRemoved(player domain.PlayerID, slot domain.SlotID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(slot) < 0 || int(slot) >= len(s.slots) {
		return
	}
	delete(s.slots[slot].tokens, player)
}

func (s *Screen) SetCountdown(remaining time.Duration, urgent bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countdown = remaining
	s.urgent = urgent
}

func (s *Screen) SetScore(player domain.PlayerID, score int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[player] = score
}

func (s *Screen) SetFreeze(player domain.PlayerID, remaining time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if remaining <= 0 {
		delete(s.freezes, player)
		return
	}
	s.freezes[player] = remaining
}

func (s *Screen) SetHints(hints [][]domain.SlotID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hints = hints
}

func (s *Screen) AnnounceWinners(players []domain.PlayerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.winners = append([]domain.PlayerID(nil), players...)
}
