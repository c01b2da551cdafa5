package engine

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"
)

var ordinals = []string{
	"el más liviano",
	"el segundo más liviano",
	"el tercero más liviano",
	"el cuarto más liviano",
	"el quinto más liviano",
}

// RankColors orders the palette from lightest to heaviest. Equal weights keep palette order.
func RankColors(w Weights) []Color {
	ranked := slices.Clone(Colors)
	slices.SortStableFunc(ranked, func(a, b Color) int {
		return cmp.Compare(w[a], w[b])
	})
	return ranked
}

// Hint describes one randomly chosen color: its rank and its exact weight.
func Hint(w Weights, r *rand.Rand) string {
	return DescribeColor(w, Colors[r.IntN(len(Colors))])
}

func DescribeColor(w Weights, c Color) string {
	rank := slices.Index(RankColors(w), c)
	return fmt.Sprintf("Pista: El bloque %s es %s y pesa %d gramos.", c.Spanish(), ordinals[rank], w[c])
}
