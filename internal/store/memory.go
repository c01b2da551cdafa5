package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/AaronC17/Projecto-Moviles-2/internal/engine"
	"github.com/google/uuid"
)

// Memory is the Store used when no database is configured. History lives
// only as long as the process.
type Memory struct {
	mu          sync.Mutex
	jugadas     []Jugada
	adivinanzas []Adivinanza
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) SaveJugadas(_ context.Context, jugadas []Jugada) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	for _, j := range jugadas {
		j.ID = uint(len(m.jugadas) + 1)
		j.CreatedAt = now
		m.jugadas = append(m.jugadas, j)
	}
	return nil
}

func (m *Memory) SaveAdivinanza(_ context.Context, a *Adivinanza) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a.ID = uint(len(m.adivinanzas) + 1)
	a.CreatedAt = time.Now().UTC()
	cp := *a
	cp.Bloques = slices.Clone(a.Bloques)
	m.adivinanzas = append(m.adivinanzas, cp)
	return nil
}

func (m *Memory) RecordSummary(ctx context.Context, summary engine.Summary) error {
	return m.SaveJugadas(ctx, jugadasFromSummary(uuid.NewString(), summary))
}

func (m *Memory) Jugadas() []Jugada {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.jugadas)
}

func (m *Memory) Adivinanzas() []Adivinanza {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.adivinanzas)
}

func (m *Memory) Close() error { return nil }
