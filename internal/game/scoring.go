package game

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/hanamikoji/internal/domain"
)

// resolveRound reveals the secret piles, awards each geisha by card
// count majority (ties award nothing) and either ends the game or
// deals the next round.
func (e *Engine) resolveRound() []Event {
	e.phase = PhaseRoundResolution

	for _, uid := range e.order {
		p := e.players[uid]
		e.tbl.commit(uid, p.Secret...)
		p.Secret = nil
	}

	res := &RoundResult{
		Round:  e.round,
		Awards: make([]GeishaAward, 0, len(domain.Geishas())),
		Charm:  make(map[domain.UserID]int, 2),
	}
	geishasWon := make(map[domain.UserID]int, 2)
	for _, g := range domain.Geishas() {
		award := GeishaAward{
			GeishaID: g.ID,
			Counts:   make(map[domain.UserID]int, 2),
		}
		for _, uid := range e.order {
			award.Counts[uid] = len(e.tbl[g.ID][uid])
		}
		p1, p2 := e.order[0], e.order[1]
		switch {
		case award.Counts[p1] > award.Counts[p2]:
			award.Winner = p1
		case award.Counts[p2] > award.Counts[p1]:
			award.Winner = p2
		}
		if award.Winner != "" {
			res.Charm[award.Winner] += g.Charm
			geishasWon[award.Winner]++
		}
		res.Awards = append(res.Awards, award)
	}
	for uid, charm := range res.Charm {
		e.players[uid].Score += charm
	}

	events := []Event{{Kind: EventRoundResolved, Round: e.round, Result: res}}
	log.Info().Str("module", "game.engine").Int("round", e.round).
		Interface("charm", res.Charm).Msg("round resolved")

	if winner := e.decideWinner(geishasWon); winner != "" {
		e.winner = winner
		e.phase = PhaseGameOver
		log.Info().Str("module", "game.engine").Str("winner", string(winner)).Msg("game over")
		return append(events, Event{Kind: EventGameEnded, Round: e.round, Winner: winner})
	}

	e.round++
	e.deal()
	return append(events, Event{Kind: EventRoundDealt, Round: e.round})
}

// decideWinner applies the thresholds in official precedence: a charm
// total of 11 wins outright, otherwise four geishas won in this round
// wins. Equal charm totals at or above 11 keep the game going.
func (e *Engine) decideWinner(geishasWon map[domain.UserID]int) domain.UserID {
	p1, p2 := e.order[0], e.order[1]
	s1, s2 := e.players[p1].Score, e.players[p2].Score
	if s1 >= charmToWin || s2 >= charmToWin {
		switch {
		case s1 > s2:
			return p1
		case s2 > s1:
			return p2
		default:
			return ""
		}
	}
	if geishasWon[p1] >= geishasToWin {
		return p1
	}
	if geishasWon[p2] >= geishasToWin {
		return p2
	}
	return ""
}
