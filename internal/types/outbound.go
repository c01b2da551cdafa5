package types

import (
	"encoding/json"
	"errors"

	"github.com/AaronC17/Projecto-Moviles-2/internal/engine"
)

// Outbound is any server -> client message.
type Outbound interface {
	MessageType() string
}

func Encode(m Outbound) ([]byte, error) {
	return json.Marshal(m)
}

type Block struct {
	ID    string `json:"id"`
	Color string `json:"color"`
	Peso  int    `json:"peso"`
	Lado  string `json:"lado,omitempty"`
}

type MoveRecord struct {
	Turno   int    `json:"turno"`
	Jugador string `json:"jugador"`
	ID      string `json:"id"`
	Color   string `json:"color"`
	Peso    int    `json:"peso"`
	Lado    string `json:"lado"`
}

type Totals struct {
	Izquierdo int `json:"izquierdo"`
	Derecho   int `json:"derecho"`
}

type RosterMessage struct {
	Type           string `json:"type"`
	TotalJugadores int    `json:"totalJugadores"`
}

type BlocksMessage struct {
	Type    string  `json:"type"`
	Bloques []Block `json:"bloques"`
}

type TeamMessage struct {
	Type      string `json:"type"`
	Companero string `json:"compañero"`
}

type HintMessage struct {
	Type      string `json:"type"`
	Contenido string `json:"contenido"`
}

type TurnMessage struct {
	Type           string `json:"type"`
	TuTurno        bool   `json:"tuTurno"`
	JugadorEnTurno string `json:"jugadorEnTurno"`
}

type BalanceMessage struct {
	Type      string `json:"type"`
	Izquierdo int    `json:"izquierdo"`
	Derecho   int    `json:"derecho"`
	Jugador   string `json:"jugador,omitempty"`
	Bloque    *Block `json:"bloque,omitempty"`
}

type NoticeMessage struct {
	Type      string `json:"type"`
	Contenido string `json:"contenido"`
}

type SummaryMessage struct {
	Type              string             `json:"type"`
	Contenido         []MoveRecord       `json:"contenido"`
	Totales           Totals             `json:"totales"`
	Sobrevivientes    []string           `json:"sobrevivientes"`
	Ganador           string             `json:"ganador"`
	BloquesPorJugador map[string][]Block `json:"bloquesPorJugador"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Mensaje string `json:"mensaje"`
}

func (m RosterMessage) MessageType() string  { return m.Type }
func (m BlocksMessage) MessageType() string  { return m.Type }
func (m TeamMessage) MessageType() string    { return m.Type }
func (m HintMessage) MessageType() string    { return m.Type }
func (m TurnMessage) MessageType() string    { return m.Type }
func (m BalanceMessage) MessageType() string { return m.Type }
func (m NoticeMessage) MessageType() string  { return m.Type }
func (m SummaryMessage) MessageType() string { return m.Type }
func (m ErrorMessage) MessageType() string   { return m.Type }

func NewRoster(count int) RosterMessage {
	return RosterMessage{Type: TypeEntrada, TotalJugadores: count}
}

func NewBlocks(objects []engine.Object) BlocksMessage {
	blocks := make([]Block, 0, len(objects))
	for _, o := range objects {
		blocks = append(blocks, Block{ID: o.ID, Color: string(o.Color), Peso: o.Weight})
	}
	return BlocksMessage{Type: TypeBloques, Bloques: blocks}
}

func NewTeam(partner string) TeamMessage {
	return TeamMessage{Type: TypeEquipo, Companero: partner}
}

func NewHint(text string) HintMessage {
	return HintMessage{Type: TypePista, Contenido: text}
}

func NewTurn(yours bool, holder string) TurnMessage {
	return TurnMessage{Type: TypeTurno, TuTurno: yours, JugadorEnTurno: holder}
}

func NewBalance(left, right int, player string, obj *engine.Object, side engine.Side) BalanceMessage {
	m := BalanceMessage{Type: TypeActualizarBalanza, Izquierdo: left, Derecho: right, Jugador: player}
	if obj != nil {
		m.Bloque = &Block{ID: obj.ID, Color: string(obj.Color), Peso: obj.Weight, Lado: string(side)}
	}
	return m
}

func NewNotice(text string) NoticeMessage {
	return NoticeMessage{Type: TypeMensaje, Contenido: text}
}

func NewError(msg string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Mensaje: msg}
}

// NewRejection words an engine error for the player who caused it.
func NewRejection(err error) ErrorMessage {
	var text string
	switch {
	case errors.Is(err, engine.ErrDuplicateIdentity):
		text = "Nombre duplicado"
	case errors.Is(err, engine.ErrSessionLocked):
		text = "La partida ya está en curso"
	case errors.Is(err, engine.ErrUnknownObject):
		text = "Ese bloque no es tuyo"
	case errors.Is(err, engine.ErrObjectPlaced):
		text = "Ese bloque ya está en la balanza"
	case errors.Is(err, engine.ErrColorMismatch):
		text = "El color no coincide con el bloque"
	case errors.Is(err, engine.ErrInvalidSide):
		text = "Lado inválido"
	case errors.Is(err, engine.ErrPracticeFinished):
		text = "La práctica ya terminó"
	default:
		text = "Solicitud inválida"
	}
	return NewError(text)
}

func NewSummary(s *engine.Summary) SummaryMessage {
	m := SummaryMessage{
		Type:              TypeResumen,
		Contenido:         make([]MoveRecord, 0, len(s.Moves)),
		Totales:           Totals{Izquierdo: s.Left, Derecho: s.Right},
		Sobrevivientes:    s.Survivors,
		Ganador:           string(s.Winner),
		BloquesPorJugador: make(map[string][]Block, len(s.Inventories)),
	}
	if m.Sobrevivientes == nil {
		m.Sobrevivientes = []string{}
	}
	for _, mv := range s.Moves {
		m.Contenido = append(m.Contenido, MoveRecord{
			Turno:   mv.Turn,
			Jugador: mv.Player,
			ID:      mv.ObjectID,
			Color:   string(mv.Color),
			Peso:    mv.Weight,
			Lado:    string(mv.Side),
		})
	}
	for name, inv := range s.Inventories {
		m.BloquesPorJugador[name] = NewBlocks(inv).Bloques
	}
	return m
}
