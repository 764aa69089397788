package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"trio_table/internal/board"
	"trio_table/internal/cards"
	"trio_table/internal/config"
	"trio_table/internal/display"
	"trio_table/internal/display/tui"
	"trio_table/internal/domain"
	"trio_table/internal/game"
	"trio_table/internal/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	displayMode := flag.String("display", "", "override display mode: console or tui")
	journalPath := flag.String("journal", "", "override journal sqlite path; 'off' disables the journal")
	seed := flag.Int64("seed", 0, "deck shuffle seed, 0 derives one from the clock")
	flag.Parse()

	logger := log.New(os.Stderr, "[triotable] ", log.LstdFlags|log.Lmsgprefix)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *displayMode != "" {
		cfg.Display.Mode = *displayMode
	}
	if *journalPath != "" {
		if *journalPath == "off" {
			cfg.Journal.Disabled = true
		} else {
			cfg.Journal.Path = *journalPath
		}
	}
	if *seed != 0 {
		cfg.Game.Seed = *seed
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	gameID := uuid.NewString()

	var journal game.Journal
	var store *sqlite.Store
	if !cfg.Journal.Disabled {
		store, err = sqlite.Open(cfg.Journal.Path)
		if err != nil {
			logger.Fatalf("open journal: %v", err)
		}
		defer store.Close()
		ctx := context.Background()
		if err := store.Migrate(ctx); err != nil {
			logger.Fatalf("migrate journal: %v", err)
		}
		if err := store.CreateGame(ctx, domain.GameRecord{ID: gameID, StartedAt: time.Now().UTC()}); err != nil {
			logger.Fatalf("create game record: %v", err)
		}
		journal = store
	}

	names := make([]string, len(cfg.Players))
	for i, pc := range cfg.Players {
		names[i] = pc.Name
	}

	// In tui mode the terminal belongs to the screen; the engine logger
	// would corrupt it.
	engineLogger := logger
	var disp display.Display
	var screen *tui.Screen
	var humanPlayer *game.Player
	if cfg.Display.Mode == "tui" {
		screen = tui.New(cfg.Game.TableSize, names, func(slot domain.SlotID) {
			if humanPlayer != nil {
				humanPlayer.KeyPressed(slot)
			}
		})
		disp = screen
		engineLogger = log.New(io.Discard, "", 0)
	} else {
		disp = display.NewConsole(logger, names)
	}

	codec := cards.Codec{
		FeatureSize:  cfg.Game.FeatureSize,
		FeatureCount: cfg.Game.FeatureCount,
	}
	b := board.New(cfg.Game.TableSize, disp)
	dealer := game.NewDealer(game.Config{
		FeatureSize:          cfg.Game.FeatureSize,
		DeckSize:             cfg.Game.DeckSize,
		TableSize:            cfg.Game.TableSize,
		TurnTimeout:          cfg.Game.TurnTimeout(),
		TurnTimeoutWarning:   cfg.Game.TurnTimeoutWarning(),
		PointFreeze:          cfg.Game.PointFreeze(),
		PenaltyFreeze:        cfg.Game.PenaltyFreeze(),
		KeepCountdownOnMatch: cfg.Game.KeepCountdownOnMatch,
		Hints:                cfg.Game.Hints,
		Seed:                 cfg.Game.Seed,
	}, codec, b, disp, journal, engineLogger, gameID)

	for _, pc := range cfg.Players {
		p := dealer.AddPlayer(pc.Name, pc.Human)
		if pc.Human && humanPlayer == nil {
			humanPlayer = p
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	go func() {
		<-ctx.Done()
		dealer.Terminate()
	}()

	if screen != nil {
		go func() {
			dealer.Run()
			screen.Stop()
		}()
		if err := screen.Run(); err != nil {
			logger.Printf("tui: %v", err)
		}
		dealer.Terminate()
		dealer.Wait()
	} else {
		dealer.Run()
	}

	if store != nil {
		if err := store.FinishGame(context.Background(), gameID, dealer.Winners(), dealer.Rounds()); err != nil {
			logger.Printf("finish game record: %v", err)
		}
	}

	winnerNames := make([]string, 0, len(dealer.Winners()))
	for _, w := range dealer.Winners() {
		winnerNames = append(winnerNames, names[w])
	}
	fmt.Printf("game %s over after %d rounds, winners: %s\n",
		gameID, dealer.Rounds(), strings.Join(winnerNames, ", "))
}
