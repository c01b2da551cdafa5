package hub

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/AaronC17/Projecto-Moviles-2/internal/engine"
	"github.com/AaronC17/Projecto-Moviles-2/internal/lobby"
	"github.com/AaronC17/Projecto-Moviles-2/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testWeights = engine.Weights{
	engine.ColorRed:    2,
	engine.ColorBlue:   6,
	engine.ColorGreen:  10,
	engine.ColorOrange: 14,
	engine.ColorPurple: 20,
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	lb := lobby.NewLobby(ctx, lobby.Options{
		SessionOptions: []engine.Option{
			engine.WithEconomy(func(*rand.Rand) engine.Weights { return testWeights.Clone() }),
		},
	})
	n := 0
	return NewHub(ctx, lb, Options{NewID: func() string {
		n++
		return fmt.Sprintf("p-%d", n)
	}})
}

func recv(t *testing.T, ch <-chan types.Outbound) types.Outbound {
	t.Helper()
	select {
	case m, ok := <-ch:
		require.True(t, ok, "outbox closed unexpectedly")
		return m
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for message")
		return nil
	}
}

func requireClosed(t *testing.T, ch <-chan types.Outbound) {
	t.Helper()
	select {
	case m, ok := <-ch:
		require.False(t, ok, "expected closed outbox, got %+v", m)
	case <-time.After(time.Second):
		t.Fatalf("outbox still open")
	}
}

func practiceView(t *testing.T, h *Hub, name string) PracticeView {
	t.Helper()
	reply := make(chan PracticeView, 1)
	h.Inbox() <- GetPractice{Name: name, Reply: reply}
	select {
	case v := <-reply:
		return v
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for practice view")
		return PracticeView{}
	}
}

// joinPractice returns the outbox and the blocks dealt on join.
func joinPractice(t *testing.T, h *Hub, clientID, name string) (chan types.Outbound, []types.Block) {
	t.Helper()
	out := make(chan types.Outbound, 32)
	h.Inbox() <- PracticeJoin{ClientID: clientID, Name: name, Outbox: out}

	blocks, ok := recv(t, out).(types.BlocksMessage)
	require.True(t, ok, "first practice message should be BLOQUES")
	return out, blocks.Bloques
}

func TestHub_PracticeRunsTenMovesToSummary(t *testing.T) {
	h := newTestHub(t)
	out, blocks := joinPractice(t, h, "c1", "Ana")
	require.Len(t, blocks, engine.PracticeMoves)

	turn, ok := recv(t, out).(types.TurnMessage)
	require.True(t, ok)
	assert.True(t, turn.TuTurno)
	assert.Equal(t, "Ana", turn.JugadorEnTurno)

	left, right := 0, 0
	for i, b := range blocks {
		assert.Equal(t, testWeights[engine.Color(b.Color)], b.Peso)

		side := "izquierdo"
		if i%2 == 1 {
			side = "derecho"
		}
		h.Inbox() <- PracticeMove{ClientID: "c1", Move: types.MoveRequest{ID: b.ID, Color: b.Color, Lado: side}}
		if side == "izquierdo" {
			left += b.Peso
		} else {
			right += b.Peso
		}

		bal, ok := recv(t, out).(types.BalanceMessage)
		require.True(t, ok, "move %d: want ACTUALIZAR_BALANZA", i+1)
		assert.Equal(t, left, bal.Izquierdo)
		assert.Equal(t, right, bal.Derecho)

		next := recv(t, out)
		if i < len(blocks)-1 {
			_, ok := next.(types.TurnMessage)
			require.True(t, ok, "move %d: want TURNO, got %T", i+1, next)
			continue
		}

		sum, ok := next.(types.SummaryMessage)
		require.True(t, ok, "last move: want RESUMEN, got %T", next)
		assert.Equal(t, []string{"Ana"}, sum.Sobrevivientes)
		assert.Len(t, sum.Contenido, engine.PracticeMoves)
		assert.Equal(t, left, sum.Totales.Izquierdo)
		assert.Equal(t, right, sum.Totales.Derecho)
		assert.Len(t, sum.BloquesPorJugador["Ana"], engine.PracticeMoves)
	}

	requireClosed(t, out)
	assert.False(t, practiceView(t, h, "Ana").Exists)
}

func TestHub_RejectsBadMoves(t *testing.T) {
	h := newTestHub(t)
	out, blocks := joinPractice(t, h, "c1", "Ana")
	_ = recv(t, out) // TURNO

	h.Inbox() <- PracticeMove{ClientID: "c1", Move: types.MoveRequest{ID: "nope", Lado: "izquierdo"}}
	e, ok := recv(t, out).(types.ErrorMessage)
	require.True(t, ok)
	assert.Equal(t, "Ese bloque no es tuyo", e.Mensaje)

	wrong := "red"
	if blocks[0].Color == "red" {
		wrong = "blue"
	}
	h.Inbox() <- PracticeMove{ClientID: "c1", Move: types.MoveRequest{ID: blocks[0].ID, Color: wrong, Lado: "izquierdo"}}
	_, ok = recv(t, out).(types.ErrorMessage)
	require.True(t, ok)

	assert.Empty(t, practiceView(t, h, "Ana").Moves)
}

func TestHub_ResumeKeepsProgress(t *testing.T) {
	h := newTestHub(t)
	out, blocks := joinPractice(t, h, "c1", "Ana")
	_ = recv(t, out) // TURNO

	for _, b := range blocks[:3] {
		h.Inbox() <- PracticeMove{ClientID: "c1", Move: types.MoveRequest{ID: b.ID, Lado: "derecho"}}
		_ = recv(t, out) // ACTUALIZAR_BALANZA
		_ = recv(t, out) // TURNO
	}

	h.Inbox() <- PracticeLeave{ClientID: "c1"}
	requireClosed(t, out)

	v := practiceView(t, h, "Ana")
	require.True(t, v.Exists)
	assert.False(t, v.Connected)
	assert.Len(t, v.Moves, 3)
	want := blocks[0].Peso + blocks[1].Peso + blocks[2].Peso
	assert.Equal(t, want, v.Balance.Right)

	again, rest := joinPractice(t, h, "c2", "Ana")
	assert.Len(t, rest, engine.PracticeMoves-3)
	assert.Equal(t, blocks[3].ID, rest[0].ID)

	bal, ok := recv(t, again).(types.BalanceMessage)
	require.True(t, ok, "resume should restate the pans")
	assert.Equal(t, want, bal.Derecho)
	assert.Nil(t, bal.Bloque)

	turn, ok := recv(t, again).(types.TurnMessage)
	require.True(t, ok)
	assert.True(t, turn.TuTurno)
}

func TestHub_DuplicateActiveNameRejected(t *testing.T) {
	h := newTestHub(t)
	out, _ := joinPractice(t, h, "c1", "Ana")
	_ = recv(t, out)

	dup := make(chan types.Outbound, 4)
	h.Inbox() <- PracticeJoin{ClientID: "c2", Name: "Ana", Outbox: dup}
	e, ok := recv(t, dup).(types.ErrorMessage)
	require.True(t, ok)
	assert.Equal(t, "Nombre duplicado", e.Mensaje)
	requireClosed(t, dup)

	assert.True(t, practiceView(t, h, "Ana").Connected)
}

func TestHub_ShutdownClosesConnections(t *testing.T) {
	h := newTestHub(t)
	out, _ := joinPractice(t, h, "c1", "Ana")
	_ = recv(t, out)

	h.Inbox() <- ShutdownHub{}
	requireClosed(t, out)
}
