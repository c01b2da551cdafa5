package engine

import (
	"math/rand/v2"
	"slices"
)

// Pair shuffles ids and teams them up two by two. The result is symmetric.
// With an odd count the last shuffled id has no partner.
func Pair(ids []string, r *rand.Rand) map[string]string {
	shuffled := slices.Clone(ids)
	r.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	teams := make(map[string]string, len(shuffled))
	for i := 0; i+1 < len(shuffled); i += 2 {
		a, b := shuffled[i], shuffled[i+1]
		teams[a] = b
		teams[b] = a
	}
	return teams
}
