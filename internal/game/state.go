// Package game holds the per-room Hanamikoji engine: dealing, the four
// turn actions, opponent-choice sub-states, round resolution and the
// win conditions. The engine is transport-free; callers synchronize
// access (one mutex per room) and fan out the returned events.
package game

import (
	"errors"

	"github.com/dkeye/hanamikoji/internal/domain"
)

type Phase string

const (
	PhaseWaiting         Phase = "waiting_for_players"
	PhaseDealing         Phase = "dealing"
	PhaseInRound         Phase = "in_round"
	PhaseRoundResolution Phase = "round_resolution"
	PhaseGameOver        Phase = "game_over"
)

// ActionID identifies one of the four once-per-round moves.
type ActionID int

const (
	ActionSecret      ActionID = 1 // set 1 card aside face-down
	ActionDiscard     ActionID = 2 // discard 2 cards publicly
	ActionOfferPair   ActionID = 3 // present 2 cards, opponent keeps 1
	ActionOfferTriple ActionID = 4 // present 3 cards, opponent splits
)

const (
	handSize = 6
	// One card is removed face-down each round and excluded from play
	// entirely; it does not return at round end.
	removedPerRound = 1

	charmToWin   = 11
	geishasToWin = 4
)

var (
	ErrInvalidAction = errors.New("invalid action")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrNoActiveGame  = errors.New("no active game")
	ErrUnknownPlayer = errors.New("unknown player")
)

// PlayerState is owned exclusively by the engine of its room.
type PlayerState struct {
	UserID      domain.UserID
	Hand        []domain.Card
	ActionsUsed map[ActionID]bool
	// Secret holds the face-down set-aside card until resolution
	// reveals it onto the table.
	Secret []domain.Card
	// Discarded holds publicly discarded cards, out of scoring.
	Discarded []domain.Card
	Score     int
}

func newPlayerState(id domain.UserID) *PlayerState {
	return &PlayerState{
		UserID:      id,
		ActionsUsed: make(map[ActionID]bool),
	}
}

func (p *PlayerState) resetForRound() {
	p.Hand = nil
	p.Secret = nil
	p.Discarded = nil
	p.ActionsUsed = make(map[ActionID]bool)
}

func (p *PlayerState) exhausted() bool {
	return len(p.ActionsUsed) == 4
}

// pendingChoice suspends a turn while the opponent resolves an offer.
type pendingChoice struct {
	Action  ActionID
	Offerer domain.UserID
	Chooser domain.UserID
	Cards   []domain.Card
}

// table maps geisha -> user -> committed cards.
type table map[domain.GeishaID]map[domain.UserID][]domain.Card

func newTable() table {
	t := make(table, len(domain.Geishas()))
	for _, g := range domain.Geishas() {
		t[g.ID] = make(map[domain.UserID][]domain.Card)
	}
	return t
}

func (t table) commit(user domain.UserID, cards ...domain.Card) {
	for _, c := range cards {
		t[c.GeishaID][user] = append(t[c.GeishaID][user], c)
	}
}
