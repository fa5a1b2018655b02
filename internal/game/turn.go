package game

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/thraizz/gridduel-server/internal/game/board"
	"github.com/thraizz/gridduel-server/internal/game/card"
	"github.com/thraizz/gridduel-server/internal/game/effects"
	"github.com/thraizz/gridduel-server/internal/game/rules"
)

func (r *resolution) start() *rules.Rejection {
	if !r.state.Status.CanTransition(rules.StatusActive) {
		return rules.Rejectf(rules.CodeGameNotActive, "game is %s", r.state.Status).
			WithDetail("status", string(r.state.Status))
	}
	r.state.Status = rules.StatusActive
	if r.state.CurrentPlayerID == "" {
		r.state.CurrentPlayerID = r.state.Player1.UserID
	}
	if r.state.TurnNumber == 0 {
		r.state.TurnNumber = 1
	}
	if logger := r.engine.logger; logger != nil {
		logger.Info("game started",
			zap.String("game_id", r.state.ID),
			zap.String("mode", string(r.state.Mode)),
			zap.String("first_player", r.state.CurrentPlayerID),
		)
	}
	return r.openTurn(false)
}

func (r *resolution) placeCard(action Action) *rules.Rejection {
	checker := rules.NewLegalityChecker(stateView{r.state})
	if rej := checker.CheckPlacement(action.PlayerID, action.InstanceID, action.Position); rej != nil {
		return rej
	}

	player := r.state.Player(action.PlayerID)
	c := r.state.Cards[action.InstanceID]
	player.Hand, _ = removeID(player.Hand, c.InstanceID)
	delete(r.state.Cards, c.InstanceID)
	c.Owner = action.PlayerID
	if err := r.state.Board.Place(action.Position, c); err != nil {
		return rules.NewRejection(rules.CodeInvariantViolation, err.Error())
	}
	pos := action.Position

	placed := r.emit(func() rules.Event {
		ev := rules.NewEvent(rules.EventCardPlaced, c.InstanceID, c.Owner).At(pos)
		ev.Animation = rules.AnimationPlace
		ev.Ability = c.AbilityID()
		return ev
	}())
	r.retile(c, pos, source{})

	self := func(m rules.Moment) trigger {
		return trigger{moment: m, cause: placed.ID, card: c, origin: c, originPos: &pos}
	}
	if rej := r.dispatch(self(rules.MomentOnPlace)); rej != nil {
		return rej
	}
	if rej := r.dispatch(self(rules.MomentBeforeCombat)); rej != nil {
		return rej
	}
	if r.state.Board.CardAt(pos) == c {
		if rej := r.combat(c, pos); rej != nil {
			return rej
		}
	}
	if rej := r.dispatch(self(rules.MomentAfterCombat)); rej != nil {
		return rej
	}

	for _, m := range []rules.Moment{rules.MomentAnyOnPlace, rules.MomentBoardOnPlace, rules.MomentHandOnPlace} {
		reactive := trigger{moment: m, cause: placed.ID, origin: c, originPos: &pos}
		if rej := r.dispatch(reactive); rej != nil {
			return rej
		}
	}

	r.recountScores()
	return r.endTurn()
}

func (r *resolution) endTurnAction(action Action) *rules.Rejection {
	checker := rules.NewLegalityChecker(stateView{r.state})
	if rej := checker.CheckActor(action.PlayerID); rej != nil {
		return rej
	}
	return r.endTurn()
}

func (r *resolution) surrender(action Action) *rules.Rejection {
	if r.state.Status.Terminal() {
		return rules.Rejectf(rules.CodeGameNotActive, "game is %s", r.state.Status).
			WithDetail("status", string(r.state.Status))
	}
	if !(stateView{r.state}).HasPlayer(action.PlayerID) {
		return rules.NewRejection(rules.CodeUnknownPlayer, "player is not part of this game").
			WithDetail("player_id", action.PlayerID)
	}
	winner := r.state.Opponent(action.PlayerID).UserID
	r.finish(rules.StatusAborted, &winner, "surrender")
	return nil
}

// endTurn closes the mover's turn and opens the opponent's.
func (r *resolution) endTurn() *rules.Rejection {
	mover := r.state.CurrentPlayerID

	end := r.emit(rules.NewEvent(rules.EventTurnEnd, "", mover).
		WithMeta("turn", strconv.Itoa(r.state.TurnNumber)))
	if rej := r.dispatch(trigger{moment: rules.MomentOnTurnEnd, cause: end.ID, player: mover}); rej != nil {
		return rej
	}

	r.tick(mover)

	if r.turns.EndsRound(mover) {
		round := rules.Round(r.state.TurnNumber)
		if rej := r.dispatch(trigger{moment: rules.MomentHandOnRoundEnd, cause: "round-" + strconv.Itoa(round)}); rej != nil {
			return rej
		}
	}

	r.recountScores()
	r.state.CurrentPlayerID = r.turns.Next(mover)
	r.state.TurnNumber++
	return r.openTurn(true)
}

// openTurn starts the current player's turn: draw, OnTurnStart, then the
// terminal check.
func (r *resolution) openTurn(draw bool) *rules.Rejection {
	mover := r.state.CurrentPlayerID
	start := r.emit(rules.NewEvent(rules.EventTurnStart, "", mover).
		WithMeta("turn", strconv.Itoa(r.state.TurnNumber)).
		WithMeta("round", strconv.Itoa(rules.Round(r.state.TurnNumber))))

	if draw {
		cfg := r.engine.rules
		player := r.state.Player(mover)
		want := min(cfg.DrawPerTurn, cfg.HandSize-len(player.Hand))
		if want > 0 {
			r.draw(mover, want, source{})
		}
	}

	if rej := r.dispatch(trigger{moment: rules.MomentOnTurnStart, cause: start.ID, player: mover}); rej != nil {
		return rej
	}
	r.recountScores()
	r.checkTerminal()
	return nil
}

// tick advances every countdown scoped to the player whose turn ended.
func (r *resolution) tick(mover string) {
	for _, occ := range r.state.Board.Cards() {
		r.tickCard(occ.Card, &occ.Position, mover)
		if occ.Card.Owner == mover && occ.Card.Locked() {
			occ.Card.LockedTurns--
			if !occ.Card.Locked() {
				pos := occ.Position
				ev := rules.NewEvent(rules.EventCardLocked, occ.Card.InstanceID, occ.Card.Owner).At(pos)
				ev.Animation = rules.AnimationLock
				r.emit(ev.WithMeta("turns", "0"))
			}
		}
	}
	for _, player := range r.state.Players() {
		for _, c := range r.state.HandCards(player.UserID) {
			r.tickCard(c, nil, mover)
		}
	}
	for _, pos := range r.state.Board.Tick(mover) {
		r.emitTile(pos, source{})
	}
}

func (r *resolution) tickCard(c *card.Instance, pos *board.Position, mover string) {
	expired, delta := c.Tick(mover)
	if len(expired) == 0 || delta.IsZero() {
		return
	}
	r.emitPowerChange(c, pos, delta, source{}, expiredNames(expired))
}

func expiredNames(expired []effects.Effect) string {
	names := make([]string, len(expired))
	for i, e := range expired {
		names[i] = e.Name
	}
	return strings.Join(names, ",")
}

// recountScores sets each score to the number of board cards the player
// owns and reports changes.
func (r *resolution) recountScores() {
	for _, player := range r.state.Players() {
		score := r.state.Board.CountOwned(player.UserID)
		if score == player.Score {
			continue
		}
		delta := score - player.Score
		player.Score = score
		r.emit(rules.NewEvent(rules.EventScoreChanged, "", player.UserID).
			WithMeta("score", strconv.Itoa(score)).
			WithMeta("delta", strconv.Itoa(delta)))
	}
}

// checkTerminal completes the game when no tile is placeable or the player
// to move has nothing to place.
func (r *resolution) checkTerminal() {
	var reason string
	switch {
	case r.state.Board.Full():
		reason = "board_full"
	case len(r.state.Player(r.state.CurrentPlayerID).Hand) == 0:
		reason = "hand_empty"
	default:
		return
	}

	p1, p2 := r.state.Player1, r.state.Player2
	var winner *string
	switch {
	case p1.Score > p2.Score:
		winner = &p1.UserID
	case p2.Score > p1.Score:
		winner = &p2.UserID
	}
	r.finish(rules.StatusCompleted, winner, reason)
}

func (r *resolution) finish(status rules.Status, winner *string, reason string) {
	r.state.Status = status
	r.state.Winner = nil
	ev := rules.NewEvent(rules.EventGameOver, "", "").
		WithMeta("reason", reason).
		WithMeta("status", string(status))
	for _, player := range r.state.Players() {
		ev = ev.WithMeta(rules.ScoreKey(player.UserID), strconv.Itoa(player.Score)).
			WithMeta(rules.PowerKey(player.UserID), strconv.Itoa(r.state.Board.PowerOwned(player.UserID)))
	}
	if winner != nil {
		w := *winner
		r.state.Winner = &w
		ev.PlayerID = w
	} else {
		ev = ev.WithMeta("result", "draw")
	}
	r.emit(ev)

	if logger := r.engine.logger; logger != nil {
		logger.Info("game over",
			zap.String("game_id", r.state.ID),
			zap.String("status", string(status)),
			zap.String("reason", reason),
			zap.Stringp("winner", r.state.Winner),
			zap.Int("turn", r.state.TurnNumber),
		)
	}
}
