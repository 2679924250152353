package values

import (
	"math/big"
	"sync"

	"github.com/ryandielhenn/das/pkg/protocol"
)

// Set is the master's append-only sequence of received integers.
// It is safe for concurrent use; Append and Average are serialized.
type Set struct {
	mu   sync.RWMutex
	vals []int64
}

// New returns a set seeded with the master's own value.
func New(seed int64) *Set {
	return &Set{vals: []int64{seed}}
}

func (s *Set) Append(v int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals = append(s.vals, v)
}

// Values returns a copy in insertion order.
func (s *Set) Values() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]int64(nil), s.vals...)
}

func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vals)
}

// Average divides the sum of every stored entry other than the reserved command
// values by their count, truncating toward zero. ok is false when no entry is
// eligible.
func (s *Set) Average() (avg int64, count int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := new(big.Int)
	for _, v := range s.vals {
		if v == protocol.AverageRequest || v == protocol.Terminate {
			continue
		}
		sum.Add(sum, big.NewInt(v))
		count++
	}
	if count == 0 {
		return 0, 0, false
	}
	// Quo truncates toward zero; the mean of int64 values always fits in int64.
	return sum.Quo(sum, big.NewInt(int64(count))).Int64(), count, true
}
