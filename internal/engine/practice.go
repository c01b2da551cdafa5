package engine

import (
	"slices"
)

// PracticeMoves is the length of a practice run: one full inventory.
var PracticeMoves = len(Colors) * ObjectsPerColor

// Practice is a private single-player run. It shares the weight lookup with the
// multiplayer arbiter but has no threshold, no turns and no teammates.
type Practice struct {
	Name      string
	Inventory []Object

	balance  Balance
	moves    []Move
	placed   map[string]bool
	finished bool
}

func NewPractice(name string, w Weights, newID func() string) *Practice {
	return &Practice{
		Name:      name,
		Inventory: NewInventory(w, newID),
		placed:    map[string]bool{},
	}
}

func (p *Practice) Balance() Balance { return p.balance }
func (p *Practice) Finished() bool { return p.finished }
func (p *Practice) Moves() []Move { return slices.Clone(p.moves) }

// Remaining lists the objects not yet placed, in inventory order.
func (p *Practice) Remaining() []Object {
	out := make([]Object, 0, len(p.Inventory))
	for _, o := range p.Inventory {
		if !p.placed[o.ID] {
			out = append(out, o)
		}
	}
	return out
}

// Place applies one move. The returned summary is non-nil on the final move.
func (p *Practice) Place(objectID string, color Color, side Side) (Move, *Summary, error) {
	if p.finished {
		return Move{}, nil, ErrPracticeFinished
	}
	if !side.Valid() {
		return Move{}, nil, ErrInvalidSide
	}
	obj, ok := findObject(p.Inventory, objectID)
	if !ok {
		return Move{}, nil, ErrUnknownObject
	}
	if p.placed[obj.ID] {
		return Move{}, nil, ErrObjectPlaced
	}
	if color != "" && color != obj.Color {
		return Move{}, nil, ErrColorMismatch
	}

	p.balance = p.balance.Place(side, obj.Weight)
	p.placed[obj.ID] = true
	move := Move{
		Turn:     len(p.moves) + 1,
		Player:   p.Name,
		ObjectID: obj.ID,
		Color:    obj.Color,
		Weight:   obj.Weight,
		Side:     side,
	}
	p.moves = append(p.moves, move)

	if len(p.moves) < PracticeMoves {
		return move, nil, nil
	}
	p.finished = true
	return move, &Summary{
		Moves:       slices.Clone(p.moves),
		Left:        p.balance.Left,
		Right:       p.balance.Right,
		Survivors:   []string{p.Name},
		Winner:      p.balance.Outcome(),
		Inventories: map[string][]Object{p.Name: slices.Clone(p.Inventory)},
	}, nil
}
