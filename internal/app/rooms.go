package app

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/hanamikoji/internal/domain"
	"github.com/dkeye/hanamikoji/internal/game"
)

var (
	ErrRoomFull    = errors.New("room full")
	ErrUnknownRoom = errors.New("unknown room")
	ErrUnknownUser = errors.New("unknown user")
)

// Update is one atomic engine mutation captured under the room lock:
// the events emitted plus a per-viewer snapshot for each member.
type Update struct {
	Room   domain.RoomInfo
	Events []game.Event
	Views  map[domain.UserID]game.Snapshot
}

// room owns the membership list and the engine. mu linearizes every
// mutation: two simultaneous joins can never both observe one member.
type room struct {
	mu        sync.Mutex
	id        domain.RoomID
	createdAt time.Time
	members   []*domain.Member // join order
	engine    *game.Engine
	// dead marks a room removed from the directory; a join that
	// raced the removal must not seat anyone here.
	dead bool
}

func (r *room) infoLocked() domain.RoomInfo {
	users := make([]domain.User, 0, len(r.members))
	for _, m := range r.members {
		users = append(users, *m.User)
	}
	return domain.RoomInfo{
		RoomID:    r.id,
		UserCount: len(r.members),
		Users:     users,
		IsReady:   len(r.members) == domain.MaxRoomMembers,
	}
}

// freeRoleLocked gives a new member the seat nobody holds. After
// player1 leaves mid-lifecycle the next joiner takes player1, not a
// second player2.
func (r *room) freeRoleLocked() domain.Role {
	for _, m := range r.members {
		if m.Role == domain.RolePlayer1 {
			return domain.RolePlayer2
		}
	}
	return domain.RolePlayer1
}

func (r *room) memberLocked(uid domain.UserID) *domain.Member {
	for _, m := range r.members {
		if m.User.ID == uid {
			return m
		}
	}
	return nil
}

func (r *room) updateLocked(events []game.Event) *Update {
	if len(events) == 0 || r.engine == nil {
		return nil
	}
	upd := &Update{
		Room:   r.infoLocked(),
		Events: events,
		Views:  make(map[domain.UserID]game.Snapshot, len(r.members)),
	}
	for _, m := range r.members {
		upd.Views[m.User.ID] = r.engine.SnapshotFor(m.User.ID)
	}
	return upd
}

// Directory creates, looks up and destroys rooms, enforcing the
// two-member capacity. Constructed once at process start; no ambient
// global.
type Directory struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*room

	// newEngine is a seam for deterministic engines in tests.
	newEngine func(p1, p2 domain.UserID) *game.Engine
}

func NewDirectory() *Directory {
	return &Directory{
		rooms:     make(map[domain.RoomID]*room),
		newEngine: game.New,
	}
}

func (d *Directory) getOrCreate(id domain.RoomID) *room {
	d.mu.RLock()
	r, ok := d.rooms[id]
	d.mu.RUnlock()
	if ok {
		return r
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if r, ok = d.rooms[id]; ok {
		return r
	}
	r = &room{id: id, createdAt: time.Now()}
	d.rooms[id] = r
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room created")
	return r
}

func (d *Directory) get(id domain.RoomID) (*room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.rooms[id]
	return r, ok
}

// JoinResult reports the outcome of a join. Game is non-nil when the
// join made the room ready and dealt the first round.
type JoinResult struct {
	Role     domain.Role
	User     domain.User
	Room     domain.RoomInfo
	Rejoined bool
	Game     *Update
}

// Join creates the room on first use. A third distinct user gets
// ErrRoomFull; re-joining with a member's id is idempotent and keeps
// the original role.
func (d *Directory) Join(roomID domain.RoomID, userID domain.UserID, username string) (*JoinResult, error) {
	if err := domain.ValidateRoomID(roomID); err != nil {
		return nil, err
	}
	user, err := domain.NewUser(userID, username)
	if err != nil {
		return nil, err
	}

	var r *room
	for {
		r = d.getOrCreate(roomID)
		r.mu.Lock()
		if !r.dead {
			break
		}
		// The last leaver destroyed this room between lookup and
		// lock; a fresh one replaces it in the directory.
		r.mu.Unlock()
	}
	defer r.mu.Unlock()

	if m := r.memberLocked(userID); m != nil {
		return &JoinResult{Role: m.Role, User: *m.User, Room: r.infoLocked(), Rejoined: true}, nil
	}
	if len(r.members) >= domain.MaxRoomMembers {
		return nil, ErrRoomFull
	}

	role := r.freeRoleLocked()
	r.members = append(r.members, domain.NewMember(user, role))
	log.Info().Str("module", "app.rooms").Str("room", string(roomID)).
		Str("user", string(userID)).Str("role", string(role)).Msg("user joined")

	res := &JoinResult{Role: role, User: *user, Room: r.infoLocked()}
	if len(r.members) == domain.MaxRoomMembers {
		p1, p2 := r.members[0], r.members[1]
		if p1.Role != domain.RolePlayer1 {
			p1, p2 = p2, p1
		}
		r.engine = d.newEngine(p1.User.ID, p2.User.ID)
		events, err := r.engine.Start()
		if err != nil {
			return nil, err
		}
		res.Game = r.updateLocked(events)
	}
	return res, nil
}

// LeaveResult reports a processed leave. Game carries the abandonment
// update when a mid-game room dropped to one member; Destroyed is set
// when the room emptied and was removed.
type LeaveResult struct {
	User      domain.User
	Room      domain.RoomInfo
	Destroyed bool
	Game      *Update
}

// Leave removes the member. Dropping from two members aborts the game
// (no winner); the last member out destroys the room and its engine.
func (d *Directory) Leave(roomID domain.RoomID, userID domain.UserID) (*LeaveResult, bool) {
	r, ok := d.get(roomID)
	if !ok {
		return nil, false
	}

	r.mu.Lock()
	m := r.memberLocked(userID)
	if m == nil {
		r.mu.Unlock()
		return nil, false
	}
	for i, mm := range r.members {
		if mm == m {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}
	res := &LeaveResult{User: *m.User}
	if r.engine != nil && len(r.members) == 1 {
		res.Game = r.updateLocked(r.engine.Abort())
	}
	if len(r.members) == 0 {
		r.engine = nil
		res.Destroyed = true
	}
	res.Room = r.infoLocked()
	r.mu.Unlock()

	if res.Destroyed {
		d.destroyIfEmpty(r)
	}
	log.Info().Str("module", "app.rooms").Str("room", string(roomID)).
		Str("user", string(userID)).Bool("destroyed", res.Destroyed).Msg("user left")
	return res, true
}

// destroyIfEmpty re-checks emptiness under both locks: a join racing
// the last leave may have repopulated the room. The dead flag is set
// in the same critical section as the map delete so a join holding a
// stale pointer can detect the removal.
func (d *Directory) destroyIfEmpty(r *room) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.members) == 0 && d.rooms[r.id] == r {
		r.dead = true
		delete(d.rooms, r.id)
		log.Info().Str("module", "app.rooms").Str("room", string(r.id)).Msg("room destroyed")
	}
}

// Apply runs a game action under the room lock.
func (d *Directory) Apply(roomID domain.RoomID, userID domain.UserID, action game.ActionID, cards []domain.Card) (*Update, error) {
	return d.withEngine(roomID, userID, func(e *game.Engine) ([]game.Event, error) {
		return e.Apply(userID, action, cards)
	})
}

// Choose resolves a pending opponent choice under the room lock.
func (d *Directory) Choose(roomID domain.RoomID, userID domain.UserID, chosen []domain.Card) (*Update, error) {
	return d.withEngine(roomID, userID, func(e *game.Engine) ([]game.Event, error) {
		return e.Choose(userID, chosen)
	})
}

func (d *Directory) withEngine(roomID domain.RoomID, userID domain.UserID, fn func(*game.Engine) ([]game.Event, error)) (*Update, error) {
	r, ok := d.get(roomID)
	if !ok {
		return nil, ErrUnknownRoom
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.memberLocked(userID) == nil {
		return nil, ErrUnknownUser
	}
	if r.engine == nil {
		return nil, game.ErrNoActiveGame
	}
	events, err := fn(r.engine)
	if err != nil {
		return nil, err
	}
	return r.updateLocked(events), nil
}

// Member reports the stored identity of a seated user.
func (d *Directory) Member(roomID domain.RoomID, userID domain.UserID) (domain.User, bool) {
	r, ok := d.get(roomID)
	if !ok {
		return domain.User{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.memberLocked(userID)
	if m == nil {
		return domain.User{}, false
	}
	return *m.User, true
}

// Rename updates a member's display name; broadcasts after this point
// carry the new name.
func (d *Directory) Rename(roomID domain.RoomID, userID domain.UserID, name string) (domain.User, domain.RoomInfo, error) {
	r, ok := d.get(roomID)
	if !ok {
		return domain.User{}, domain.RoomInfo{}, ErrUnknownRoom
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.memberLocked(userID)
	if m == nil {
		return domain.User{}, domain.RoomInfo{}, ErrUnknownUser
	}
	if err := m.User.SetUsername(name); err != nil {
		return domain.User{}, domain.RoomInfo{}, err
	}
	log.Info().Str("module", "app.rooms").Str("room", string(roomID)).
		Str("user", string(userID)).Str("username", name).Msg("user renamed")
	return *m.User, r.infoLocked(), nil
}

func (d *Directory) Snapshot(roomID domain.RoomID) (domain.RoomInfo, bool) {
	r, ok := d.get(roomID)
	if !ok {
		return domain.RoomInfo{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.infoLocked(), true
}

func (d *Directory) List() []domain.RoomInfo {
	d.mu.RLock()
	rooms := make([]*room, 0, len(d.rooms))
	for _, r := range d.rooms {
		rooms = append(rooms, r)
	}
	d.mu.RUnlock()

	out := make([]domain.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		r.mu.Lock()
		out = append(out, r.infoLocked())
		r.mu.Unlock()
	}
	return out
}

// Close drops every room; called once at shutdown.
func (d *Directory) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id := range d.rooms {
		delete(d.rooms, id)
	}
	log.Info().Str("module", "app.rooms").Msg("directory closed")
}
