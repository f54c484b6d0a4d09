package dice

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Faces is the number of sides of the die.
const Faces = 6

// Roller produces uniform rolls in [1, Faces]. It is safe for concurrent use.
type Roller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRoller creates a roller. A zero seed uses a time-based source; any
// other seed yields a deterministic sequence.
func NewRoller(seed uint64) *Roller {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return NewRollerFromSource(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewRollerFromSource creates a roller drawing from src.
func NewRollerFromSource(src rand.Source) *Roller {
	return &Roller{rng: rand.New(src)}
}

// Roll returns the next value.
func (r *Roller) Roll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(Faces) + 1
}
