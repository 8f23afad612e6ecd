package domain

import "fmt"

// GeishaID indexes the static geisha catalog (1..7).
type GeishaID int

// Geisha is a scoring category. Charm is both the points awarded for
// winning her favor and the number of card instances she contributes
// to the deck.
type Geisha struct {
	ID    GeishaID `json:"id"`
	Name  string   `json:"name"`
	Charm int      `json:"charm"`
}

// DeckSize is the full card count, equal to the summed charm values.
const DeckSize = 21

var geishas = []Geisha{
	{ID: 1, Name: "Suzume", Charm: 2},
	{ID: 2, Name: "Kiku", Charm: 2},
	{ID: 3, Name: "Ume", Charm: 2},
	{ID: 4, Name: "Botan", Charm: 3},
	{ID: 5, Name: "Ayame", Charm: 3},
	{ID: 6, Name: "Sakura", Charm: 4},
	{ID: 7, Name: "Fuji", Charm: 5},
}

// Geishas returns the catalog in ascending charm order.
// Callers must not mutate the returned slice.
func Geishas() []Geisha {
	return geishas
}

// GeishaByID returns the catalog entry, or false for an id outside 1..7.
func GeishaByID(id GeishaID) (Geisha, bool) {
	if id < 1 || int(id) > len(geishas) {
		return Geisha{}, false
	}
	return geishas[id-1], true
}

// Card is one immutable instance of a geisha's charm. InstanceID is
// unique across the whole deck.
type Card struct {
	GeishaID   GeishaID `json:"geishaId"`
	InstanceID string   `json:"cardId"`
}

// NewDeck returns the full 21-card deck in catalog order, one card per
// charm point of each geisha.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, g := range geishas {
		for n := 1; n <= g.Charm; n++ {
			deck = append(deck, Card{
				GeishaID:   g.ID,
				InstanceID: fmt.Sprintf("g%d-c%d", g.ID, n),
			})
		}
	}
	return deck
}
