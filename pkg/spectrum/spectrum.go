// Package spectrum holds per-account energy balances, the native-currency
// side of the ledger consumed by the asset universe.
package spectrum

import (
	"sync"

	"github.com/qubicnetwork/go-universe/pkg/universe"
)

// Spectrum is an in-memory, thread-safe energy balance store. Accounts get a
// stable index on first credit; balances never go negative.
type Spectrum struct {
	mu       sync.RWMutex
	indices  map[universe.ID]int
	accounts []universe.ID
	balances []int64
}

var _ universe.EnergyLedger = (*Spectrum)(nil)

// New creates an empty spectrum.
func New() *Spectrum {
	return &Spectrum{indices: make(map[universe.ID]int)}
}

// SpectrumIndex returns the stable index of an account, if it exists.
func (s *Spectrum) SpectrumIndex(id universe.ID) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indices[id]
	return idx, ok
}

// Energy returns the balance at an index previously obtained from
// SpectrumIndex.
func (s *Spectrum) Energy(index int) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.balances) {
		return 0
	}
	return s.balances[index]
}

// IncreaseEnergy credits an account, creating it on first use.
func (s *Spectrum) IncreaseEnergy(id universe.ID, amount int64) {
	if amount < 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indices[id]
	if !ok {
		idx = len(s.balances)
		s.indices[id] = idx
		s.accounts = append(s.accounts, id)
		s.balances = append(s.balances, 0)
	}
	s.balances[idx] += amount
}

// DecreaseEnergy debits the account at index. It returns false, leaving the
// balance untouched, when the balance can't cover the amount.
func (s *Spectrum) DecreaseEnergy(index int, amount int64) bool {
	if amount < 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.balances) || s.balances[index] < amount {
		return false
	}
	s.balances[index] -= amount
	return true
}

// Balance returns the balance of an account, 0 for unknown accounts.
func (s *Spectrum) Balance(id universe.ID) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indices[id]
	if !ok {
		return 0
	}
	return s.balances[idx]
}

// Transfer moves energy between accounts, creating the destination on first
// use. It returns false when the source is unknown or short.
func (s *Spectrum) Transfer(from, to universe.ID, amount int64) bool {
	if amount < 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	srcIdx, ok := s.indices[from]
	if !ok || s.balances[srcIdx] < amount {
		return false
	}
	dstIdx, ok := s.indices[to]
	if !ok {
		dstIdx = len(s.balances)
		s.indices[to] = dstIdx
		s.accounts = append(s.accounts, to)
		s.balances = append(s.balances, 0)
	}
	s.balances[srcIdx] -= amount
	s.balances[dstIdx] += amount
	return true
}

// AccountCount returns the number of known accounts.
func (s *Spectrum) AccountCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

// TotalEnergy sums every balance.
func (s *Spectrum) TotalEnergy() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, b := range s.balances {
		total += b
	}
	return total
}
