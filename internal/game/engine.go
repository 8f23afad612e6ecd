package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/hanamikoji/internal/domain"
)

// Engine is the authoritative state machine of a single room.
// It is not safe for concurrent use; the room directory serializes
// every call under the room's lock.
type Engine struct {
	phase    Phase
	round    int
	order    [2]domain.UserID // join order: player1, player2
	players  map[domain.UserID]*PlayerState
	tbl      table
	drawPile []domain.Card
	// removed is this round's face-down excluded card. It never
	// re-enters play within the round; a fresh shuffle re-pools it.
	removed domain.Card
	current domain.UserID
	pending *pendingChoice
	winner  domain.UserID
	rng     *rand.Rand
}

// New creates an engine for two seated players in join order.
func New(player1, player2 domain.UserID) *Engine {
	return NewWithRand(player1, player2, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithRand injects the shuffle source, for deterministic tests.
func NewWithRand(player1, player2 domain.UserID, rng *rand.Rand) *Engine {
	return &Engine{
		phase: PhaseWaiting,
		order: [2]domain.UserID{player1, player2},
		players: map[domain.UserID]*PlayerState{
			player1: newPlayerState(player1),
			player2: newPlayerState(player2),
		},
		rng: rng,
	}
}

func (e *Engine) Phase() Phase                 { return e.phase }
func (e *Engine) Round() int                   { return e.round }
func (e *Engine) CurrentPlayer() domain.UserID { return e.current }
func (e *Engine) Winner() domain.UserID        { return e.winner }

// Start deals the first round. Valid exactly once, when the room
// reaches two members.
func (e *Engine) Start() ([]Event, error) {
	if e.phase != PhaseWaiting {
		return nil, fmt.Errorf("%w: game already started", ErrInvalidAction)
	}
	e.round = 1
	e.deal()
	log.Info().Str("module", "game.engine").Int("round", e.round).Msg("first round dealt")
	return []Event{{Kind: EventRoundDealt, Round: e.round}}, nil
}

// deal rebuilds the round from a fresh shuffle of all 21 cards:
// 1 removed face-down, 6 per hand, 8 in the draw pile.
func (e *Engine) deal() {
	e.phase = PhaseDealing
	deck := domain.NewDeck()
	e.rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	e.removed = deck[0]
	deck = deck[removedPerRound:]

	for _, uid := range e.order {
		p := e.players[uid]
		p.resetForRound()
		p.Hand = append([]domain.Card(nil), deck[:handSize]...)
		deck = deck[handSize:]
	}
	e.drawPile = deck
	e.tbl = newTable()
	e.pending = nil
	e.current = e.order[0]
	e.phase = PhaseInRound
}

// Apply validates and applies one of the four actions for the acting
// player. State is untouched when an error is returned. Offer actions
// suspend into a pending choice; the remaining events arrive when the
// opponent resolves it.
func (e *Engine) Apply(actor domain.UserID, action ActionID, cards []domain.Card) ([]Event, error) {
	if e.phase == PhaseGameOver || e.phase == PhaseWaiting {
		return nil, ErrNoActiveGame
	}
	p, ok := e.players[actor]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	if e.phase != PhaseInRound {
		return nil, fmt.Errorf("%w: round not in progress", ErrInvalidAction)
	}
	if e.pending != nil {
		return nil, fmt.Errorf("%w: awaiting opponent choice", ErrInvalidAction)
	}
	if actor != e.current {
		return nil, ErrNotYourTurn
	}
	if p.ActionsUsed[action] {
		return nil, fmt.Errorf("%w: action %d already used this round", ErrInvalidAction, action)
	}

	picked, err := e.pickFromHand(p, cards, actionCardCount(action))
	if err != nil {
		return nil, err
	}
	if action == ActionOfferTriple && !spansTwoGeishas(picked) {
		return nil, fmt.Errorf("%w: triple must span at least two geishas", ErrInvalidAction)
	}

	// Validation is complete; mutate.
	p.Hand = removeCards(p.Hand, picked)
	p.ActionsUsed[action] = true

	events := []Event{{Kind: EventActionPlayed, Actor: actor, Action: action, Round: e.round}}
	switch action {
	case ActionSecret:
		p.Secret = append(p.Secret, picked...)
	case ActionDiscard:
		p.Discarded = append(p.Discarded, picked...)
	case ActionOfferPair, ActionOfferTriple:
		e.pending = &pendingChoice{
			Action:  action,
			Offerer: actor,
			Chooser: e.opponent(actor),
			Cards:   picked,
		}
		events = append(events, Event{
			Kind: EventChoiceRequired, Actor: e.pending.Chooser, Action: action, Round: e.round,
		})
		return events, nil
	}
	return append(events, e.finishTurn(actor)...), nil
}

// Choose resolves a pending offer. chosen is the subset the opponent
// keeps for their own table; the remainder commits to the offerer's.
func (e *Engine) Choose(actor domain.UserID, chosen []domain.Card) ([]Event, error) {
	if e.phase == PhaseGameOver || e.phase == PhaseWaiting {
		return nil, ErrNoActiveGame
	}
	if _, ok := e.players[actor]; !ok {
		return nil, ErrUnknownPlayer
	}
	if e.pending == nil {
		return nil, fmt.Errorf("%w: no pending offer", ErrInvalidAction)
	}
	if actor != e.pending.Chooser {
		return nil, fmt.Errorf("%w: choice belongs to the opponent", ErrNotYourTurn)
	}
	picked, err := pickFrom(e.pending.Cards, chosen)
	if err != nil {
		return nil, err
	}
	if len(picked) == 0 || len(picked) >= len(e.pending.Cards) {
		return nil, fmt.Errorf("%w: choice must split the offer into two non-empty groups", ErrInvalidAction)
	}
	if e.pending.Action == ActionOfferPair && len(picked) != 1 {
		return nil, fmt.Errorf("%w: pick exactly one card of the pair", ErrInvalidAction)
	}

	rest := removeCards(e.pending.Cards, picked)
	e.tbl.commit(e.pending.Chooser, picked...)
	e.tbl.commit(e.pending.Offerer, rest...)
	offerer := e.pending.Offerer
	action := e.pending.Action
	e.pending = nil

	events := []Event{{Kind: EventChoiceResolved, Actor: actor, Action: action, Round: e.round}}
	return append(events, e.finishTurn(offerer)...), nil
}

// Abort ends the game with no winner (abandonment). Idempotent.
func (e *Engine) Abort() []Event {
	if e.phase == PhaseGameOver {
		return nil
	}
	e.phase = PhaseGameOver
	e.winner = ""
	e.pending = nil
	log.Info().Str("module", "game.engine").Int("round", e.round).Msg("game aborted")
	return []Event{{Kind: EventGameEnded, Round: e.round}}
}

// finishTurn completes a successfully applied action: the actor draws
// one card while the pile lasts, then either the turn passes or, with
// both players out of actions, the round resolves.
func (e *Engine) finishTurn(actor domain.UserID) []Event {
	if len(e.drawPile) > 0 {
		p := e.players[actor]
		p.Hand = append(p.Hand, e.drawPile[0])
		e.drawPile = e.drawPile[1:]
	}
	if e.players[e.order[0]].exhausted() && e.players[e.order[1]].exhausted() {
		return e.resolveRound()
	}
	e.current = e.opponent(actor)
	return nil
}

func (e *Engine) opponent(uid domain.UserID) domain.UserID {
	if uid == e.order[0] {
		return e.order[1]
	}
	return e.order[0]
}

func actionCardCount(a ActionID) int {
	switch a {
	case ActionSecret:
		return 1
	case ActionDiscard, ActionOfferPair:
		return 2
	case ActionOfferTriple:
		return 3
	default:
		return -1
	}
}

func spansTwoGeishas(cards []domain.Card) bool {
	for _, c := range cards[1:] {
		if c.GeishaID != cards[0].GeishaID {
			return true
		}
	}
	return false
}

// pickFromHand resolves the submitted cards against the player's hand
// and enforces the action's cardinality. The hand's own copies are
// returned so a tampered geisha id cannot enter the table.
func (e *Engine) pickFromHand(p *PlayerState, cards []domain.Card, want int) ([]domain.Card, error) {
	if want < 0 {
		return nil, fmt.Errorf("%w: unknown action id", ErrInvalidAction)
	}
	if len(cards) != want {
		return nil, fmt.Errorf("%w: action needs %d cards, got %d", ErrInvalidAction, want, len(cards))
	}
	return pickFrom(p.Hand, cards)
}

// pickFrom matches wanted cards inside pool by instance id, rejecting
// duplicates, unknown instances and geisha mismatches.
func pickFrom(pool, wanted []domain.Card) ([]domain.Card, error) {
	byID := make(map[string]domain.Card, len(pool))
	for _, c := range pool {
		byID[c.InstanceID] = c
	}
	seen := make(map[string]bool, len(wanted))
	out := make([]domain.Card, 0, len(wanted))
	for _, w := range wanted {
		c, ok := byID[w.InstanceID]
		if !ok {
			return nil, fmt.Errorf("%w: card %s not available", ErrInvalidAction, w.InstanceID)
		}
		if seen[w.InstanceID] {
			return nil, fmt.Errorf("%w: card %s submitted twice", ErrInvalidAction, w.InstanceID)
		}
		if w.GeishaID != 0 && w.GeishaID != c.GeishaID {
			return nil, fmt.Errorf("%w: card %s has mismatched geisha", ErrInvalidAction, w.InstanceID)
		}
		seen[w.InstanceID] = true
		out = append(out, c)
	}
	return out, nil
}

// removeCards returns hand without the given instances.
func removeCards(hand, toRemove []domain.Card) []domain.Card {
	drop := make(map[string]bool, len(toRemove))
	for _, c := range toRemove {
		drop[c.InstanceID] = true
	}
	updated := make([]domain.Card, 0, len(hand))
	for _, c := range hand {
		if drop[c.InstanceID] {
			continue
		}
		updated = append(updated, c)
	}
	return updated
}
