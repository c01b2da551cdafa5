package engine

import (
	"errors"
)

var ErrDuplicateIdentity = errors.New("duplicate identity")
var ErrSessionLocked = errors.New("session already in progress")
var ErrOutOfTurn = errors.New("invalid turn")
var ErrSessionIdle = errors.New("session not started")
var ErrUnknownObject = errors.New("unknown object")
var ErrObjectPlaced = errors.New("object already placed")
var ErrColorMismatch = errors.New("color does not match object")
var ErrInvalidSide = errors.New("invalid side")
var ErrPracticeFinished = errors.New("practice already finished")

const (
	// RosterSize is the number of players that fills a multiplayer session.
	RosterSize = 10
	// ObjectsPerColor objects of every color make up one inventory.
	ObjectsPerColor = 2
	// DefaultThreshold is the largest pan difference (grams) that keeps a player in.
	DefaultThreshold = 16
)

type Color string

const (
	ColorRed    Color = "red"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorOrange Color = "orange"
	ColorPurple Color = "purple"
)

// Colors is the fixed palette, in dealing order.
var Colors = []Color{ColorRed, ColorBlue, ColorGreen, ColorOrange, ColorPurple}

var colorNames = map[Color]string{
	ColorRed:    "rojo",
	ColorBlue:   "azul",
	ColorGreen:  "verde",
	ColorOrange: "naranja",
	ColorPurple: "morado",
}

// Spanish returns the display name used in hints.
func (c Color) Spanish() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return string(c)
}

func (c Color) Valid() bool {
	_, ok := colorNames[c]
	return ok
}

type Side string

const (
	SideLeft  Side = "izquierdo"
	SideRight Side = "derecho"
)

func (s Side) Valid() bool {
	return s == SideLeft || s == SideRight
}

type Mode string

const (
	ModeMultiplayer Mode = "multijugador"
	ModePractice    Mode = "individual"
)

type Outcome string

const (
	OutcomeLeft  Outcome = "Izquierdo"
	OutcomeRight Outcome = "Derecho"
	OutcomeTie   Outcome = "Empate"
)

// Object is one physical block. The weight never changes after dealing.
type Object struct {
	ID     string
	Color  Color
	Weight int
}

// Move is an accepted placement. Moves are only ever appended.
type Move struct {
	Turn     int
	PlayerID string
	Player   string
	ObjectID string
	Color    Color
	Weight   int
	Side     Side
}

type Rules struct {
	Threshold int
}

func DefaultRules() Rules {
	return Rules{Threshold: DefaultThreshold}
}

type Reason string

const (
	ReasonImbalance  Reason = "imbalance"
	ReasonInactivity Reason = "inactivity"
)

type EventType string

const (
	EvtRosterChanged    EventType = "RosterChanged"
	EvtInventoryDealt   EventType = "InventoryDealt"
	EvtTeamAssigned     EventType = "TeamAssigned"
	EvtHintRevealed     EventType = "HintRevealed"
	EvtTurnStarted      EventType = "TurnStarted"
	EvtBalanceUpdated   EventType = "BalanceUpdated"
	EvtNotice           EventType = "Notice"
	EvtPlayerEliminated EventType = "PlayerEliminated"
	EvtSessionFinished  EventType = "SessionFinished"
)

/*
	Join            -> InventoryDealt -> RosterChanged [-> TeamAssigned x10 -> HintRevealed -> TurnStarted]
	Place (ok)      -> BalanceUpdated -> Notice -> TurnStarted | SessionFinished
	Place (tipped)  -> BalanceUpdated -> Notice -> PlayerEliminated -> BalanceUpdated -> TurnStarted | SessionFinished
	Timeout         -> Notice -> PlayerEliminated -> TurnStarted | SessionFinished
	Leave           -> RosterChanged [-> TurnStarted | SessionFinished]
*/

// Event is a flat record; only the fields relevant to Type are set.
type Event struct {
	Type     EventType
	PlayerID string
	Player   string
	Partner  string
	Count    int
	Text     string
	Left     int
	Right    int
	Side     Side
	Object   *Object
	Objects  []Object
	Reason   Reason
	Summary  *Summary
}

// Summary is the terminal report of a session (or of a practice run).
type Summary struct {
	Moves       []Move
	Left        int
	Right       int
	Survivors   []string
	Winner      Outcome
	Inventories map[string][]Object
}
