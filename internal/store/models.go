package store

import (
	"context"
	"time"

	"github.com/AaronC17/Projecto-Moviles-2/internal/engine"
)

// Jugada is one placed block, either reported by a client or archived from a
// finished session. Partida groups the moves of one archived session.
type Jugada struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Partida   string    `gorm:"index;size:36" json:"partida,omitempty"`
	Jugador   string    `gorm:"size:40;not null" json:"jugador" validate:"required,max=40"`
	Turno     int       `json:"turno" validate:"gte=0"`
	BloqueID  string    `gorm:"size:64" json:"id" validate:"required"`
	Color     string    `gorm:"size:16" json:"color" validate:"required,oneof=red blue green orange purple"`
	Peso      int       `json:"peso" validate:"gte=0"`
	Lado      string    `gorm:"size:16" json:"lado" validate:"required,oneof=izquierdo derecho"`
	CreatedAt time.Time `json:"-"`
}

// Intento is one guessed weight on the results screen.
type Intento struct {
	Intento  int  `json:"intento"`
	PesoReal int  `json:"pesoReal"`
	Acertado bool `json:"acertado"`
}

type Adivinanza struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Jugador   string    `gorm:"size:40;not null" json:"jugador" validate:"required,max=40"`
	Bloques   []Intento `gorm:"serializer:json" json:"bloques" validate:"required,min=1,max=5"`
	Aciertos  int       `json:"aciertos" validate:"gte=0,max=5"`
	CreatedAt time.Time `json:"-"`
}

// Store keeps play history. RecordSummary makes every Store a lobby archive sink.
type Store interface {
	SaveJugadas(ctx context.Context, jugadas []Jugada) error
	SaveAdivinanza(ctx context.Context, a *Adivinanza) error
	RecordSummary(ctx context.Context, summary engine.Summary) error
	Close() error
}

func jugadasFromSummary(partida string, summary engine.Summary) []Jugada {
	out := make([]Jugada, 0, len(summary.Moves))
	for _, mv := range summary.Moves {
		out = append(out, Jugada{
			Partida:  partida,
			Jugador:  mv.Player,
			Turno:    mv.Turn,
			BloqueID: mv.ObjectID,
			Color:    string(mv.Color),
			Peso:     mv.Weight,
			Lado:     string(mv.Side),
		})
	}
	return out
}
