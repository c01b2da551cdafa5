package engine

import (
	"math/rand/v2"
	"slices"
)

const (
	minWeight = 2
	maxWeight = 20
)

// Weights is the per-color economy of one session.
type Weights map[Color]int

// GenerateWeights draws an independent even weight in [2, 20] for every color.
func GenerateWeights(r *rand.Rand) Weights {
	steps := (maxWeight-minWeight)/2 + 1
	w := make(Weights, len(Colors))
	for _, c := range Colors {
		w[c] = minWeight + 2*r.IntN(steps)
	}
	return w
}

func (w Weights) Clone() Weights {
	if w == nil {
		return nil
	}
	out := make(Weights, len(w))
	for c, g := range w {
		out[c] = g
	}
	return out
}

// NewInventory deals ObjectsPerColor objects of every color, each with its own id.
func NewInventory(w Weights, newID func() string) []Object {
	if newID == nil {
		newID = newObjectID
	}
	inv := make([]Object, 0, len(Colors)*ObjectsPerColor)
	for _, c := range Colors {
		for range ObjectsPerColor {
			inv = append(inv, Object{ID: newID(), Color: c, Weight: w[c]})
		}
	}
	return inv
}

func findObject(inv []Object, id string) (Object, bool) {
	i := slices.IndexFunc(inv, func(o Object) bool { return o.ID == id })
	if i < 0 {
		return Object{}, false
	}
	return inv[i], true
}
