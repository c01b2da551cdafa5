package engine

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// Player is one roster member of the multiplayer session.
type Player struct {
	ID         string
	Name       string
	Eliminated bool
	Inventory  []Object
}

// Session is the shared multiplayer game. It is not safe for concurrent use;
// the lobby goroutine is its only owner.
type Session struct {
	Rules Rules

	inProgress   bool
	turnIndex    int
	balance      Balance
	movesPlayed  int
	objectsTotal int
	weights      Weights
	teams        map[string]string
	moveLog      []Move
	players      []*Player
	inventories  map[string][]Object // by display name, survives reconnects until reset
	departed     []string            // names that left after the start
	placed       map[string]bool
	lastHolder   string

	rng     *rand.Rand
	economy func(*rand.Rand) Weights
	newID   func() string
}

type Option func(*Session)

func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rng = r }
}

// WithEconomy replaces the weight generator.
func WithEconomy(fn func(*rand.Rand) Weights) Option {
	return func(s *Session) { s.economy = fn }
}

func WithObjectIDs(fn func() string) Option {
	return func(s *Session) { s.newID = fn }
}

func NewSession(rules Rules, opts ...Option) *Session {
	s := &Session{
		Rules:   rules,
		economy: GenerateWeights,
		newID:   newObjectID,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = NewRand()
	}
	s.reset()
	return s
}

// Weights returns the session economy, drawing it first if none exists yet.
func (s *Session) Weights() Weights {
	if s.weights == nil {
		s.weights = s.economy(s.rng)
	}
	return s.weights.Clone()
}

func (s *Session) InProgress() bool { return s.inProgress }
func (s *Session) TurnIndex() int { return s.turnIndex }
func (s *Session) Balance() Balance { return s.balance }
func (s *Session) MovesPlayed() int { return s.movesPlayed }
func (s *Session) ObjectsTotal() int { return s.objectsTotal }
func (s *Session) Moves() []Move { return slices.Clone(s.moveLog) }
func (s *Session) RosterSize() int { return len(s.players) }
func (s *Session) HasWeights() bool { return s.weights != nil }
func (s *Session) Teammate(id string) string { return s.teams[id] }

// Roster returns copies of the roster in turn order.
func (s *Session) Roster() []Player {
	out := make([]Player, 0, len(s.players))
	for _, p := range s.players {
		cp := *p
		cp.Inventory = slices.Clone(p.Inventory)
		out = append(out, cp)
	}
	return out
}

// Holder returns the player whose turn it is.
func (s *Session) Holder() (Player, bool) {
	if !s.inProgress || s.turnIndex >= len(s.players) {
		return Player{}, false
	}
	return *s.players[s.turnIndex], true
}

func (s *Session) Join(id, name string) ([]Event, error) {
	for _, p := range s.players {
		if p.Name == name || p.ID == id {
			return nil, ErrDuplicateIdentity
		}
	}
	if s.inProgress {
		return nil, ErrSessionLocked
	}

	s.Weights()
	inv, ok := s.inventories[name]
	if !ok {
		inv = NewInventory(s.weights, s.newID)
		s.inventories[name] = inv
	}
	s.players = append(s.players, &Player{ID: id, Name: name, Inventory: inv})

	events := []Event{
		{Type: EvtInventoryDealt, PlayerID: id, Player: name, Objects: slices.Clone(inv)},
		{Type: EvtRosterChanged, Count: len(s.players)},
	}
	if len(s.players) == RosterSize {
		events = append(events, s.start()...)
	}
	return events, nil
}

func (s *Session) start() []Event {
	s.inProgress = true
	s.balance = Balance{}
	s.movesPlayed = 0
	s.moveLog = nil
	s.placed = map[string]bool{}
	s.lastHolder = ""
	s.turnIndex = 0

	ids := make([]string, 0, len(s.players))
	s.objectsTotal = 0
	for _, p := range s.players {
		ids = append(ids, p.ID)
		s.objectsTotal += len(p.Inventory)
	}
	s.teams = Pair(ids, s.rng)

	events := make([]Event, 0, len(s.players)+2)
	for _, p := range s.players {
		partner := ""
		if mate := s.player(s.teams[p.ID]); mate != nil {
			partner = mate.Name
		}
		events = append(events, Event{Type: EvtTeamAssigned, PlayerID: p.ID, Player: p.Name, Partner: partner})
	}
	events = append(events, Event{Type: EvtHintRevealed, Text: Hint(s.weights, s.rng)})
	return append(events, s.announce()...)
}

// Place is the move arbiter: it validates a placement by the turn holder and applies it.
func (s *Session) Place(playerID, objectID string, color Color, side Side) ([]Event, error) {
	if !s.inProgress {
		return nil, ErrSessionIdle
	}
	holder := s.players[s.turnIndex]
	if holder.ID != playerID {
		return nil, ErrOutOfTurn
	}
	if !side.Valid() {
		return nil, ErrInvalidSide
	}
	obj, ok := findObject(holder.Inventory, objectID)
	if !ok {
		return nil, ErrUnknownObject
	}
	if s.placed[obj.ID] {
		return nil, ErrObjectPlaced
	}
	if color != "" && color != obj.Color {
		return nil, ErrColorMismatch
	}

	obj.Weight = s.weights[obj.Color]
	tipped := s.balance.Place(side, obj.Weight)

	// The opening move is exempt: nobody has had a chance to react to the draw yet.
	if s.movesPlayed > 0 && tipped.Diff() > s.Rules.Threshold {
		events := []Event{{
			Type: EvtBalanceUpdated, PlayerID: holder.ID, Player: holder.Name,
			Left: tipped.Left, Right: tipped.Right, Object: &obj, Side: side,
		}}
		events = append(events, s.eliminate(holder, ReasonImbalance)...)
		// The offending block comes back off the pan.
		events = append(events, Event{Type: EvtBalanceUpdated, Left: s.balance.Left, Right: s.balance.Right})
		return append(events, s.afterTurn()...), nil
	}

	s.balance = tipped
	s.placed[obj.ID] = true
	s.movesPlayed++
	s.moveLog = append(s.moveLog, Move{
		Turn:     s.movesPlayed,
		PlayerID: holder.ID,
		Player:   holder.Name,
		ObjectID: obj.ID,
		Color:    obj.Color,
		Weight:   obj.Weight,
		Side:     side,
	})

	events := []Event{
		{
			Type: EvtBalanceUpdated, PlayerID: holder.ID, Player: holder.Name,
			Left: s.balance.Left, Right: s.balance.Right, Object: &obj, Side: side,
		},
		{Type: EvtNotice, Text: fmt.Sprintf("%s colocó %dg en el lado %s", holder.Name, obj.Weight, side)},
	}
	return append(events, s.afterTurn()...), nil
}

// Timeout eliminates playerID for stalling, if they still hold the turn.
func (s *Session) Timeout(playerID string) []Event {
	if !s.inProgress {
		return nil
	}
	holder := s.players[s.turnIndex]
	if holder.ID != playerID {
		return nil
	}
	events := s.eliminate(holder, ReasonInactivity)
	return append(events, s.afterTurn()...)
}

// Leave removes a disconnected player from the roster.
func (s *Session) Leave(id string) []Event {
	idx := slices.IndexFunc(s.players, func(p *Player) bool { return p.ID == id })
	if idx < 0 {
		return nil
	}
	gone := s.players[idx]
	s.players = slices.Delete(s.players, idx, idx+1)

	if len(s.players) == 0 {
		s.reset()
		return nil
	}

	events := []Event{{Type: EvtRosterChanged, Count: len(s.players)}}
	if !s.inProgress {
		return events
	}
	s.departed = append(s.departed, gone.Name)
	if !gone.Eliminated {
		s.objectsTotal -= s.remaining(gone)
	}

	switch {
	case idx < s.turnIndex:
		s.turnIndex--
	case idx == s.turnIndex:
		if s.turnIndex >= len(s.players) {
			s.turnIndex = 0
		}
		if s.finished() {
			return append(events, s.finish()...)
		}
		next, ok := s.pickNext(s.turnIndex, s.lastHolder)
		if !ok {
			return append(events, s.finish()...)
		}
		s.turnIndex = next
		return append(events, s.announce()...)
	}

	if s.finished() {
		return append(events, s.finish()...)
	}
	return events
}

// ForceFinish ends the session immediately, whatever its state.
func (s *Session) ForceFinish() []Event {
	if len(s.players) == 0 {
		return nil
	}
	return s.finish()
}

func (s *Session) eliminate(p *Player, reason Reason) []Event {
	p.Eliminated = true
	s.objectsTotal -= s.remaining(p)

	text := fmt.Sprintf("%s fue eliminado por desequilibrar la balanza.", p.Name)
	if reason == ReasonInactivity {
		text = fmt.Sprintf("%s fue eliminado por inactividad.", p.Name)
	}
	return []Event{
		{Type: EvtNotice, Text: text},
		{Type: EvtPlayerEliminated, PlayerID: p.ID, Player: p.Name, Reason: reason},
	}
}

func (s *Session) afterTurn() []Event {
	s.lastHolder = s.players[s.turnIndex].ID
	if s.finished() {
		return s.finish()
	}
	next, ok := s.pickNext(s.turnIndex+1, s.lastHolder)
	if !ok {
		return s.finish()
	}
	s.turnIndex = next
	return s.announce()
}

// pickNext scans the roster cyclically from index from. The previous holder's
// teammate is passed over while someone else can play, and the previous holder
// only plays again when nobody else can.
func (s *Session) pickNext(from int, prevID string) (int, bool) {
	n := len(s.players)
	partner := s.teams[prevID]
	mate, self := -1, -1
	for k := range n {
		i := (from + k) % n
		p := s.players[i]
		if !s.eligible(p) {
			continue
		}
		switch {
		case p.ID == prevID:
			if self < 0 {
				self = i
			}
		case partner != "" && p.ID == partner:
			if mate < 0 {
				mate = i
			}
		default:
			return i, true
		}
	}
	if mate >= 0 {
		return mate, true
	}
	if self >= 0 {
		return self, true
	}
	return 0, false
}

func (s *Session) announce() []Event {
	p := s.players[s.turnIndex]
	return []Event{{Type: EvtTurnStarted, PlayerID: p.ID, Player: p.Name}}
}

func (s *Session) finished() bool {
	return s.activeCount() <= 1 || s.movesPlayed >= s.objectsTotal
}

// finish builds the summary and resets in the same step, so no later message
// can observe a half-cleared session.
func (s *Session) finish() []Event {
	summary := &Summary{
		Moves:       slices.Clone(s.moveLog),
		Left:        s.balance.Left,
		Right:       s.balance.Right,
		Survivors:   []string{},
		Winner:      s.balance.Outcome(),
		Inventories: make(map[string][]Object, len(s.players)+len(s.departed)),
	}
	for _, p := range s.players {
		if !p.Eliminated {
			summary.Survivors = append(summary.Survivors, p.Name)
		}
		summary.Inventories[p.Name] = slices.Clone(p.Inventory)
	}
	// Names that dropped out before the start never played and are left out.
	for _, name := range s.departed {
		if inv, ok := s.inventories[name]; ok {
			summary.Inventories[name] = slices.Clone(inv)
		}
	}

	s.reset()
	return []Event{{Type: EvtSessionFinished, Summary: summary}}
}

func (s *Session) reset() {
	s.inProgress = false
	s.turnIndex = 0
	s.balance = Balance{}
	s.movesPlayed = 0
	s.objectsTotal = 0
	s.weights = nil
	s.teams = map[string]string{}
	s.moveLog = nil
	s.players = nil
	s.inventories = map[string][]Object{}
	s.departed = nil
	s.placed = map[string]bool{}
	s.lastHolder = ""
}

func (s *Session) eligible(p *Player) bool {
	return !p.Eliminated && s.remaining(p) > 0
}

func (s *Session) remaining(p *Player) int {
	n := 0
	for _, o := range p.Inventory {
		if !s.placed[o.ID] {
			n++
		}
	}
	return n
}

func (s *Session) activeCount() int {
	n := 0
	for _, p := range s.players {
		if !p.Eliminated {
			n++
		}
	}
	return n
}

func (s *Session) player(id string) *Player {
	for _, p := range s.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}
