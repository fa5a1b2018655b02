// Command simulate plays seeded matches from a card catalog, saves their
// replays and verifies saved replays. It drives the engine without a server.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"go.uber.org/zap"

	"github.com/thraizz/gridduel-server/internal/abilities"
	"github.com/thraizz/gridduel-server/internal/catalog"
	"github.com/thraizz/gridduel-server/internal/game"
	"github.com/thraizz/gridduel-server/internal/game/rules"
)

var (
	catalogPath = flag.String("catalog", "data/cards.yaml", "card catalog file")
	seed        = flag.Int64("seed", 1, "seed of the first match")
	matches     = flag.Int("matches", 1, "number of matches to play")
	deckSize    = flag.Int("deck", 10, "cards per deck")
	replayDir   = flag.String("replays", "", "directory to save replays to")
	verifyID    = flag.String("verify", "", "verify the saved replay with this game id instead of playing")
	verbose     = flag.Bool("v", false, "log every action")
)

func main() {
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "logger: %v\n", err)
			os.Exit(1)
		}
		logger = l
	}
	defer logger.Sync()

	engine := game.NewEngine(logger, abilities.NewDefaultRegistry())

	if *verifyID != "" {
		if err := verify(engine, *replayDir, *verifyID); err != nil {
			fmt.Fprintf(os.Stderr, "verify %s: %v\n", *verifyID, err)
			os.Exit(1)
		}
		return
	}

	cards, err := catalog.LoadFile(*catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load catalog: %v\n", err)
		os.Exit(1)
	}
	if err := cards.Validate(abilities.NewDefaultRegistry()); err != nil {
		fmt.Fprintf(os.Stderr, "catalog: %v\n", err)
		os.Exit(1)
	}

	recorder := game.NewReplayRecorder(logger, *replayDir)
	for i := range *matches {
		s := *seed + int64(i)
		state, err := play(engine, cards, recorder, s)
		if err != nil {
			fmt.Fprintf(os.Stderr, "match %d: %v\n", s, err)
			os.Exit(1)
		}
		winner := "draw"
		if state.Winner != nil {
			winner = *state.Winner
		}
		fmt.Printf("%s seed=%d status=%s turns=%d score=%d-%d winner=%s\n",
			state.ID, s, state.Status, state.TurnNumber, state.Player1.Score, state.Player2.Score, winner)
	}
}

// play runs one match where each player places the first card of their hand
// on the first free tile.
func play(engine *game.Engine, cards *catalog.Catalog, recorder *game.ReplayRecorder, seed int64) (*game.GameState, error) {
	rng := rand.New(rand.NewSource(seed))
	setup := game.Setup{
		ID:      fmt.Sprintf("sim-%d", seed),
		Seed:    seed,
		Player1: game.Seat{UserID: "north", Deck: randomDeck(rng, cards, *deckSize)},
		Player2: game.Seat{UserID: "south", Deck: randomDeck(rng, cards, *deckSize)},
	}
	state, err := engine.NewGame(setup, cards)
	if err != nil {
		return nil, err
	}
	recorder.StartRecording(state)

	apply := func(action game.Action) error {
		result := engine.ApplyAction(state, action)
		recorder.Record(state.ID, action, result)
		if result.Rejection != nil {
			return result.Rejection
		}
		state = result.State
		return nil
	}

	if err := apply(game.Action{Type: game.ActionStart}); err != nil {
		return nil, err
	}
	for state.Status == rules.StatusActive {
		mover := state.Player(state.CurrentPlayerID)
		tiles := state.Board.PlaceableTiles()
		action := game.EndTurn(mover.UserID)
		if len(mover.Hand) > 0 && len(tiles) > 0 {
			action = game.PlaceCard(mover.UserID, mover.Hand[0], tiles[0])
		}
		if err := apply(action); err != nil {
			return nil, err
		}
	}
	return state, recorder.SaveReplay(state.ID)
}

func randomDeck(rng *rand.Rand, cards *catalog.Catalog, n int) []game.DeckEntry {
	all := cards.All()
	deck := make([]game.DeckEntry, n)
	for i := range deck {
		deck[i] = game.DeckEntry{BaseCardID: all[rng.Intn(len(all))].ID, Level: 1}
	}
	return deck
}

func verify(engine *game.Engine, dir, gameID string) error {
	replay, err := game.LoadReplayFromFile(dir, gameID)
	if err != nil {
		return err
	}
	if err := replay.Verify(engine); err != nil {
		return err
	}
	for step, ok := replay.Next(); ok; step, ok = replay.Next() {
		line := fmt.Sprintf("%-12s %-8s", step.Action.Type, step.Action.PlayerID)
		if step.Rejection != "" {
			line += " rejected=" + step.Rejection
		}
		fmt.Printf("%s events=%d %s\n", line, step.Events, step.Checksum)
	}
	fmt.Printf("%s: %d steps verified\n", gameID, replay.Size())
	return nil
}
