package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AaronC17/Projecto-Moviles-2/internal/hub"
	"github.com/AaronC17/Projecto-Moviles-2/internal/lobby"
	"github.com/AaronC17/Projecto-Moviles-2/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRecorder struct{}

func (failingRecorder) SaveJugadas(context.Context, []store.Jugada) error {
	return errors.New("disk full")
}

func (failingRecorder) SaveAdivinanza(context.Context, *store.Adivinanza) error {
	return errors.New("disk full")
}

func newRouter(t *testing.T, rec Recorder) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	lb := lobby.NewLobby(ctx, lobby.Options{})
	return SetupRoutes(Deps{
		Lobby:    lb,
		Hub:      hub.NewHub(ctx, lb, hub.Options{}),
		Recorder: rec,
		JoinURL:  "ws://192.168.0.10:5000/ws",
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	rr := do(t, newRouter(t, store.NewMemory()), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSaveJugadas(t *testing.T) {
	mem := store.NewMemory()
	h := newRouter(t, mem)

	one := `{"jugador":"Ana","turno":1,"id":"b1","color":"red","peso":4,"lado":"izquierdo"}`
	rr := do(t, h, http.MethodPost, "/jugadas", one)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())

	many := `[` + one + `,{"jugador":"Beto","turno":2,"id":"b2","color":"blue","peso":6,"lado":"derecho"}]`
	rr = do(t, h, http.MethodPost, "/jugadas", many)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rows := mem.Jugadas()
	require.Len(t, rows, 3)
	assert.Equal(t, "b1", rows[0].BloqueID)
	assert.Equal(t, "Beto", rows[2].Jugador)
}

func TestSaveJugadas_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":    ``,
		"bad json": `{"jugador":`,
		"no name":  `{"turno":1,"id":"b1","color":"red","peso":4,"lado":"izquierdo"}`,
		"bad side": `{"jugador":"Ana","turno":1,"id":"b1","color":"red","peso":4,"lado":"arriba"}`,
		"one bad in array": `[{"jugador":"Ana","turno":1,"id":"b1","color":"red","peso":4,"lado":"izquierdo"},` +
			`{"jugador":"Ana","turno":2,"id":"b2","color":"pink","peso":4,"lado":"izquierdo"}]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			mem := store.NewMemory()
			rr := do(t, newRouter(t, mem), http.MethodPost, "/jugadas", body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Empty(t, mem.Jugadas())
		})
	}
}

func TestSaveAdivinanza(t *testing.T) {
	mem := store.NewMemory()
	h := newRouter(t, mem)

	body := `{"jugador":"Ana","bloques":[{"intento":4,"pesoReal":4,"acertado":true},{"intento":10,"pesoReal":8,"acertado":false}],"aciertos":1}`
	rr := do(t, h, http.MethodPost, "/adivinanzas", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())

	got := mem.Adivinanzas()
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Aciertos)
	assert.Equal(t, store.Intento{Intento: 10, PesoReal: 8}, got[0].Bloques[1])

	rr = do(t, h, http.MethodPost, "/adivinanzas", `{"bloques":[]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStoreFailureIs500(t *testing.T) {
	h := newRouter(t, failingRecorder{})

	rr := do(t, h, http.MethodPost, "/jugadas", `{"jugador":"Ana","turno":1,"id":"b1","color":"red","peso":4,"lado":"izquierdo"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	rr = do(t, h, http.MethodPost, "/adivinanzas", `{"jugador":"Ana","bloques":[{"intento":4,"pesoReal":4,"acertado":true}],"aciertos":1}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
}

func TestJoinQR(t *testing.T) {
	rr := do(t, newRouter(t, store.NewMemory()), http.MethodGet, "/qr", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")))
}

func TestUnknownRoute(t *testing.T) {
	rr := do(t, newRouter(t, store.NewMemory()), http.MethodGet, "/lobbies", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
