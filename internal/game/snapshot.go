package game

import (
	"sort"

	"github.com/dkeye/hanamikoji/internal/domain"
)

// PlayerView is a viewer-scoped projection of one player's state.
// Hand and Secret carry cards only for the viewer's own seat; the
// opponent sees counts.
type PlayerView struct {
	UserID      domain.UserID `json:"userId"`
	HandCount   int           `json:"handCount"`
	Hand        []domain.Card `json:"hand,omitempty"`
	ActionsUsed []ActionID    `json:"actionsUsed"`
	SecretCount int           `json:"secretCount"`
	Secret      []domain.Card `json:"secret,omitempty"`
	Discarded   []domain.Card `json:"discarded"`
	Score       int           `json:"score"`
}

// OfferView describes an open offer. Presented cards are public: the
// opponent must see them to choose.
type OfferView struct {
	Action  ActionID      `json:"action"`
	Offerer domain.UserID `json:"offerer"`
	Chooser domain.UserID `json:"chooser"`
	Cards   []domain.Card `json:"cards"`
}

// Snapshot is the full per-viewer game state sent with every update.
type Snapshot struct {
	Phase         Phase                                               `json:"phase"`
	Round         int                                                 `json:"round"`
	CurrentPlayer domain.UserID                                       `json:"currentPlayer"`
	DrawPileCount int                                                 `json:"drawPileCount"`
	Geishas       []domain.Geisha                                     `json:"geishas"`
	Table         map[domain.GeishaID]map[domain.UserID][]domain.Card `json:"table"`
	Players       map[domain.UserID]PlayerView                        `json:"players"`
	Pending       *OfferView                                          `json:"pendingChoice,omitempty"`
	Winner        domain.UserID                                       `json:"winner,omitempty"`
}

// SnapshotFor projects the state for one viewer. The opponent's hand
// and unrevealed secret pile are redacted to counts.
func (e *Engine) SnapshotFor(viewer domain.UserID) Snapshot {
	snap := Snapshot{
		Phase:         e.phase,
		Round:         e.round,
		CurrentPlayer: e.current,
		DrawPileCount: len(e.drawPile),
		Geishas:       domain.Geishas(),
		Table:         make(map[domain.GeishaID]map[domain.UserID][]domain.Card, len(e.tbl)),
		Players:       make(map[domain.UserID]PlayerView, len(e.players)),
		Winner:        e.winner,
	}
	for gid, byUser := range e.tbl {
		view := make(map[domain.UserID][]domain.Card, len(byUser))
		for uid, cards := range byUser {
			view[uid] = append([]domain.Card(nil), cards...)
		}
		snap.Table[gid] = view
	}
	for uid, p := range e.players {
		pv := PlayerView{
			UserID:      uid,
			HandCount:   len(p.Hand),
			ActionsUsed: sortedActions(p.ActionsUsed),
			SecretCount: len(p.Secret),
			Discarded:   append([]domain.Card(nil), p.Discarded...),
			Score:       p.Score,
		}
		if uid == viewer {
			pv.Hand = append([]domain.Card(nil), p.Hand...)
			pv.Secret = append([]domain.Card(nil), p.Secret...)
		}
		snap.Players[uid] = pv
	}
	if e.pending != nil {
		snap.Pending = &OfferView{
			Action:  e.pending.Action,
			Offerer: e.pending.Offerer,
			Chooser: e.pending.Chooser,
			Cards:   append([]domain.Card(nil), e.pending.Cards...),
		}
	}
	return snap
}

func sortedActions(used map[ActionID]bool) []ActionID {
	out := make([]ActionID, 0, len(used))
	for a := range used {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
