// Package types is the websocket wire protocol. Every frame is one JSON object
// with a "type" discriminator; the remaining fields are flat.
//
// Client -> Server
//
//	ENTRADA         {jugador, modo}            modo: "multijugador" (default) | "individual"
//	JUGADA          {id, color, lado, peso?}   lado: "izquierdo" | "derecho"; peso is ignored
//	FORZAR_RESUMEN  {}
//
// Server -> Client
//
//	ENTRADA             {totalJugadores}
//	BLOQUES             {bloques: [{id, color, peso}]}
//	EQUIPO              {compañero}
//	PISTA               {contenido}
//	TURNO               {tuTurno, jugadorEnTurno}
//	ACTUALIZAR_BALANZA  {izquierdo, derecho, jugador?, bloque?}
//	MENSAJE             {contenido}
//	RESUMEN             {contenido, totales, sobrevivientes, ganador, bloquesPorJugador}
//	ERROR               {mensaje}
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/AaronC17/Projecto-Moviles-2/internal/engine"
	"github.com/go-playground/validator/v10"
)

const (
	TypeEntrada           = "ENTRADA"
	TypeBloques           = "BLOQUES"
	TypeEquipo            = "EQUIPO"
	TypePista             = "PISTA"
	TypeTurno             = "TURNO"
	TypeJugada            = "JUGADA"
	TypeActualizarBalanza = "ACTUALIZAR_BALANZA"
	TypeMensaje           = "MENSAJE"
	TypeResumen           = "RESUMEN"
	TypeError             = "ERROR"
	TypeForzarResumen     = "FORZAR_RESUMEN"
)

var ErrMalformedMessage = errors.New("malformed message")
var ErrUnknownType = errors.New("unknown message type")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate runs struct tag validation; shared with the HTTP layer.
func Validate(v any) error {
	return validate.Struct(v)
}

type ClientMessage struct {
	Type string `json:"type" validate:"required"`
}

type JoinRequest struct {
	Jugador string `json:"jugador" validate:"required,max=40"`
	Modo    string `json:"modo" validate:"omitempty,oneof=multijugador individual"`
}

func (j JoinRequest) Mode() engine.Mode {
	if j.Modo == string(engine.ModePractice) {
		return engine.ModePractice
	}
	return engine.ModeMultiplayer
}

type MoveRequest struct {
	ID      string `json:"id" validate:"required"`
	Color   string `json:"color" validate:"omitempty,oneof=red blue green orange purple"`
	Lado    string `json:"lado" validate:"required,oneof=izquierdo derecho"`
	Peso    int    `json:"peso,omitempty"`
	Jugador string `json:"jugador,omitempty"`
}

type ForceSummaryRequest struct{}

// Decode parses one inbound frame into a JoinRequest, MoveRequest or
// ForceSummaryRequest. Every failure wraps ErrMalformedMessage.
func Decode(data []byte) (any, error) {
	var cm ClientMessage
	if err := json.Unmarshal(data, &cm); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if err := validate.Struct(cm); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	switch cm.Type {
	case TypeEntrada:
		var req JoinRequest
		if err := decodeInto(data, &req); err != nil {
			return nil, err
		}
		req.Jugador = strings.TrimSpace(req.Jugador)
		if err := validate.Struct(req); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
		}
		return req, nil

	case TypeJugada:
		var req MoveRequest
		if err := decodeInto(data, &req); err != nil {
			return nil, err
		}
		if err := validate.Struct(req); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
		}
		return req, nil

	case TypeForzarResumen:
		return ForceSummaryRequest{}, nil

	default:
		return nil, fmt.Errorf("%w: %w %q", ErrMalformedMessage, ErrUnknownType, cm.Type)
	}
}

func decodeInto(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	return nil
}
