package ws

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AaronC17/Projecto-Moviles-2/internal/engine"
	"github.com/AaronC17/Projecto-Moviles-2/internal/hub"
	"github.com/AaronC17/Projecto-Moviles-2/internal/lobby"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

type frame struct {
	Type           string `json:"type"`
	TotalJugadores int    `json:"totalJugadores"`
	TuTurno        bool   `json:"tuTurno"`
	Izquierdo      int    `json:"izquierdo"`
	Derecho        int    `json:"derecho"`
	Mensaje        string `json:"mensaje"`
	Bloques        []struct {
		ID    string `json:"id"`
		Color string `json:"color"`
		Peso  int    `json:"peso"`
	} `json:"bloques"`
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	lb := lobby.NewLobby(ctx, lobby.Options{
		SessionOptions: []engine.Option{
			engine.WithEconomy(func(*rand.Rand) engine.Weights {
				return engine.Weights{
					engine.ColorRed: 4, engine.ColorBlue: 4, engine.ColorGreen: 4,
					engine.ColorOrange: 4, engine.ColorPurple: 4,
				}
			}),
		},
	})
	h := hub.NewHub(ctx, lb, hub.Options{})

	srv := httptest.NewServer(Handler(lb, h, Options{}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(raw)))
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var f frame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

func TestHandler_PracticeRoundTrip(t *testing.T) {
	srv := newServer(t)
	conn := dial(t, srv)

	send(t, conn, `{"type":"ENTRADA","jugador":"Ana","modo":"individual"}`)

	blocks := read(t, conn)
	require.Equal(t, "BLOQUES", blocks.Type)
	require.Len(t, blocks.Bloques, engine.PracticeMoves)

	turn := read(t, conn)
	require.Equal(t, "TURNO", turn.Type)
	assert.True(t, turn.TuTurno)

	// Garbage is dropped without closing the connection.
	send(t, conn, `{not json`)
	send(t, conn, `{"type":"BAILAR"}`)

	b := blocks.Bloques[0]
	send(t, conn, `{"type":"JUGADA","id":"`+b.ID+`","color":"`+b.Color+`","lado":"derecho","peso":999}`)

	bal := read(t, conn)
	require.Equal(t, "ACTUALIZAR_BALANZA", bal.Type)
	assert.Equal(t, 0, bal.Izquierdo)
	assert.Equal(t, 4, bal.Derecho, "client-sent peso must be ignored")
}

func TestHandler_MultiplayerJoinAndDuplicate(t *testing.T) {
	srv := newServer(t)

	first := dial(t, srv)
	send(t, first, `{"type":"ENTRADA","jugador":"Ana"}`)
	assert.Equal(t, "BLOQUES", read(t, first).Type)

	roster := read(t, first)
	require.Equal(t, "ENTRADA", roster.Type)
	assert.Equal(t, 1, roster.TotalJugadores)

	second := dial(t, srv)
	send(t, second, `{"type":"ENTRADA","jugador":"Ana"}`)
	e := read(t, second)
	require.Equal(t, "ERROR", e.Type)
	assert.Equal(t, "Nombre duplicado", e.Mensaje)

	// The server hangs up after the rejection.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err := second.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))
}

func TestHandler_DisconnectLeavesRoster(t *testing.T) {
	srv := newServer(t)

	a := dial(t, srv)
	send(t, a, `{"type":"ENTRADA","jugador":"Ana"}`)
	_ = read(t, a) // BLOQUES
	_ = read(t, a) // ENTRADA 1

	b := dial(t, srv)
	send(t, b, `{"type":"ENTRADA","jugador":"Beto"}`)
	_ = read(t, b) // BLOQUES
	_ = read(t, b) // ENTRADA 2
	assert.Equal(t, 2, read(t, a).TotalJugadores)

	require.NoError(t, b.Close(websocket.StatusNormalClosure, "bye"))

	roster := read(t, a)
	require.Equal(t, "ENTRADA", roster.Type)
	assert.Equal(t, 1, roster.TotalJugadores)
}

func TestHandler_OversizedFrameIsDropped(t *testing.T) {
	srv := newServer(t)
	conn := dial(t, srv)

	send(t, conn, `{"type":"ENTRADA","jugador":"Ana","modo":"individual"}`)
	blocks := read(t, conn)
	require.Equal(t, "BLOQUES", blocks.Type)
	require.Equal(t, "TURNO", read(t, conn).Type)

	send(t, conn, `{"type":"BAILAR","relleno":"`+strings.Repeat("x", 5000)+`"}`)

	b := blocks.Bloques[0]
	send(t, conn, `{"type":"JUGADA","id":"`+b.ID+`","color":"`+b.Color+`","lado":"izquierdo"}`)

	bal := read(t, conn)
	require.Equal(t, "ACTUALIZAR_BALANZA", bal.Type)
	assert.Equal(t, 4, bal.Izquierdo)
}

func TestHandler_OversizedFrameKeepsRosterSeat(t *testing.T) {
	srv := newServer(t)

	a := dial(t, srv)
	send(t, a, `{"type":"ENTRADA","jugador":"Ana"}`)
	_ = read(t, a) // BLOQUES
	_ = read(t, a) // ENTRADA 1

	send(t, a, strings.Repeat(" ", frameLimit+1))

	b := dial(t, srv)
	send(t, b, `{"type":"ENTRADA","jugador":"Beto"}`)
	_ = read(t, b) // BLOQUES

	roster := read(t, a)
	require.Equal(t, "ENTRADA", roster.Type)
	assert.Equal(t, 2, roster.TotalJugadores)
}
