// Command replay prints the journaled event timeline of a recorded game,
// or lists recorded games. With -follow it keeps polling for new events,
// which makes it usable as a live spectator view of a running game.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"trio_table/internal/domain"
	"trio_table/internal/store/sqlite"
)

const followInterval = 500 * time.Millisecond

func main() {
	dbPath := flag.String("db", "data/trio_table.db", "journal sqlite path")
	gameID := flag.String("game", "", "game id to replay; empty lists recorded games")
	limit := flag.Int("limit", 0, "max events to print, 0 prints all")
	follow := flag.Bool("follow", false, "keep polling for new events")
	flag.Parse()

	store, err := sqlite.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open journal: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "migrate journal: %v\n", err)
		os.Exit(1)
	}

	if *gameID == "" {
		if err := listGames(ctx, store); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := replayGame(ctx, store, *gameID, *limit, *follow); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func listGames(ctx context.Context, store *sqlite.Store) error {
	games, err := store.ListGames(ctx)
	if err != nil {
		return err
	}
	if len(games) == 0 {
		fmt.Println("no recorded games")
		return nil
	}
	header := color.New(color.Bold)
	header.Printf("%-36s  %-19s  %-19s  %-7s  %s\n", "GAME", "STARTED", "FINISHED", "ROUNDS", "WINNERS")
	for _, g := range games {
		finished := "running"
		if g.FinishedAt != nil {
			finished = g.FinishedAt.Local().Format("2006-01-02 15:04:05")
		}
		winners := make([]string, 0, len(g.Winners))
		for _, w := range g.Winners {
			winners = append(winners, fmt.Sprintf("player-%d", w))
		}
		fmt.Printf("%-36s  %-19s  %-19s  %-7d  %s\n",
			g.ID,
			g.StartedAt.Local().Format("2006-01-02 15:04:05"),
			finished,
			g.Rounds,
			strings.Join(winners, ", "),
		)
	}
	return nil
}

func replayGame(ctx context.Context, store *sqlite.Store, gameID string, limit int, follow bool) error {
	printed := 0
	for {
		events, err := store.ListGameEvents(ctx, gameID, 0)
		if err != nil {
			return err
		}
		for _, ev := range events[printed:] {
			printEvent(ev)
			printed++
			if limit > 0 && printed >= limit {
				return nil
			}
		}
		if !follow {
			if printed == 0 {
				fmt.Printf("no events recorded for game %s\n", gameID)
			}
			return nil
		}
		time.Sleep(followInterval)
	}
}

func printEvent(ev domain.GameEvent) {
	line := fmt.Sprintf("%s  %-10s  %-18s  %s  %s",
		ev.CreatedAt.Local().Format("15:04:05.000"),
		ev.Actor,
		ev.Action,
		ev.Reason,
		string(ev.Payload),
	)
	switch ev.Action {
	case domain.ActionClaimValid, domain.ActionPointAwarded:
		color.New(color.FgGreen).Println(line)
	case domain.ActionClaimInvalid, domain.ActionPenaltyServed:
		color.New(color.FgRed).Println(line)
	case domain.ActionWinnersAnnounced:
		color.New(color.FgGreen, color.Bold).Println(line)
	case domain.ActionRoundStarted, domain.ActionRoundSwept, domain.ActionGameStarted:
		color.New(color.FgCyan).Println(line)
	default:
		fmt.Println(line)
	}
}
