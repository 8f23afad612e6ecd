package game

import "github.com/dkeye/hanamikoji/internal/domain"

// EventKind tags a state-change emitted by the engine. The hub is the
// sole consumer that turns events into outbound traffic.
type EventKind string

const (
	EventRoundDealt     EventKind = "round_dealt"
	EventActionPlayed   EventKind = "action_played"
	EventChoiceRequired EventKind = "choice_required"
	EventChoiceResolved EventKind = "choice_resolved"
	EventRoundResolved  EventKind = "round_resolved"
	EventGameEnded      EventKind = "game_ended"
)

type Event struct {
	Kind   EventKind     `json:"kind"`
	Actor  domain.UserID `json:"actor,omitempty"`
	Action ActionID      `json:"action,omitempty"`
	Round  int           `json:"round"`
	// Result is set on round_resolved only.
	Result *RoundResult `json:"result,omitempty"`
	// Winner is set on game_ended; empty means abandonment.
	Winner domain.UserID `json:"winner,omitempty"`
}

// GeishaAward is the per-geisha outcome of a resolution.
type GeishaAward struct {
	GeishaID domain.GeishaID       `json:"geishaId"`
	Counts   map[domain.UserID]int `json:"counts"`
	// Winner is empty when the counts tie; ties award nothing.
	Winner domain.UserID `json:"winner,omitempty"`
}

type RoundResult struct {
	Round  int                   `json:"round"`
	Awards []GeishaAward         `json:"awards"`
	Charm  map[domain.UserID]int `json:"charm"`
}
