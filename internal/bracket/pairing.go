package bracket

import (
	"math/rand/v2"
	"slices"

	"github.com/google/uuid"
)

// Shuffler has the shape of rand.Shuffle so tests can swap in a fixed order
type Shuffler func(n int, swap func(i, j int))

func RandomShuffler() Shuffler {
	return rand.Shuffle
}

type Pairing struct {
	Player1ID uuid.UUID
	Player2ID uuid.UUID
}

// Pair shuffles a copy of players and pairs them off in order. With an odd
// count the last one is handed back as leftover and is not in any pairing.
func Pair(players []uuid.UUID, shuffle Shuffler) ([]Pairing, *uuid.UUID) {
	pool := slices.Clone(players)
	if shuffle == nil {
		shuffle = RandomShuffler()
	}
	shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	pairs := make([]Pairing, 0, len(pool)/2)
	for i := 0; i+1 < len(pool); i += 2 {
		pairs = append(pairs, Pairing{Player1ID: pool[i], Player2ID: pool[i+1]})
	}

	if len(pool)%2 == 1 {
		leftover := pool[len(pool)-1]
		return pairs, &leftover
	}
	return pairs, nil
}
