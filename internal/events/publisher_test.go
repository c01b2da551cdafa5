package events

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/AaronC17/Projecto-Moviles-2/internal/engine"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSummary() engine.Summary {
	return engine.Summary{
		Moves: []engine.Move{
			{Turn: 1, Player: "Ana", ObjectID: "o1", Color: engine.ColorGreen, Weight: 8, Side: engine.SideRight},
		},
		Right:     8,
		Survivors: []string{"Ana"},
		Winner:    engine.OutcomeLeft,
	}
}

func TestSummaryMessage(t *testing.T) {
	subject, payload, err := summaryMessage("balanza", testSummary())
	require.NoError(t, err)
	assert.Equal(t, "balanza.resumen", subject)

	var got struct {
		Type           string   `json:"type"`
		Ganador        string   `json:"ganador"`
		Sobrevivientes []string `json:"sobrevivientes"`
		Totales        struct {
			Derecho int `json:"derecho"`
		} `json:"totales"`
	}
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, "RESUMEN", got.Type)
	assert.Equal(t, "Izquierdo", got.Ganador)
	assert.Equal(t, []string{"Ana"}, got.Sobrevivientes)
	assert.Equal(t, 8, got.Totales.Derecho)
}

func TestConnect_RequiresURL(t *testing.T) {
	_, err := Connect("", "balanza", nil)
	require.ErrorIs(t, err, ErrNoURL)
}

// Runs against a real server when BALANZA_TEST_NATS_URL is set.
func TestPublisher_NATS(t *testing.T) {
	url := os.Getenv("BALANZA_TEST_NATS_URL")
	if url == "" {
		t.Skip("BALANZA_TEST_NATS_URL not set")
	}

	sub, err := nats.Connect(url)
	require.NoError(t, err)
	defer sub.Close()

	msgs := make(chan *nats.Msg, 1)
	s, err := sub.ChanSubscribe("balanza-test.resumen", msgs)
	require.NoError(t, err)
	defer s.Unsubscribe()
	require.NoError(t, sub.Flush())

	p, err := Connect(url, "balanza-test", nil)
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.RecordSummary(ctx, testSummary()))

	select {
	case m := <-msgs:
		assert.Contains(t, string(m.Data), `"RESUMEN"`)
	case <-time.After(2 * time.Second):
		t.Fatal("summary never arrived")
	}
}
