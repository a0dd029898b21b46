// Package actions tracks the energy transfers performed by contract calls
// within a tick, with a hard per-tick capacity.
package actions

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	logger "github.com/rs/zerolog/log"
	"go.uber.org/atomic"

	"github.com/qubicnetwork/go-universe/pkg/universe"
)

// DefaultCapacity bounds the number of tracked transfers per tick.
const DefaultCapacity = 1024

// Tracker is a bounded, append-only log of qu transfers. When full,
// AddQuTransfer refuses and the calling mutator aborts.
type Tracker struct {
	mu        sync.Mutex
	capacity  int
	transfers []universe.QuTransfer

	totalLogged atomic.Int64

	log zerolog.Logger
}

var _ universe.ActionTracker = (*Tracker)(nil)

// NewTracker creates a tracker holding up to capacity transfers per tick.
func NewTracker(capacity int) (*Tracker, error) {
	if capacity <= 0 {
		return nil, errors.Errorf("capacity must be positive, got %d", capacity)
	}
	return &Tracker{
		capacity:  capacity,
		transfers: make([]universe.QuTransfer, 0, capacity),
		log: logger.With().
			Str("component", "actions").
			Logger(),
	}, nil
}

// AddQuTransfer records a transfer. It returns false when the tracker is at
// capacity.
func (tr *Tracker) AddQuTransfer(t universe.QuTransfer) bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if len(tr.transfers) >= tr.capacity {
		return false
	}
	tr.transfers = append(tr.transfers, t)
	return true
}

// LogQuTransfer emits the transfer to the structured log.
func (tr *Tracker) LogQuTransfer(t universe.QuTransfer) {
	tr.totalLogged.Inc()
	tr.log.Info().
		Stringer("source", t.Source).
		Stringer("destination", t.Destination).
		Int64("amount", t.Amount).
		Msg("qu transfer")
}

// Transfers returns a copy of the transfers tracked in the current tick.
func (tr *Tracker) Transfers() []universe.QuTransfer {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	out := make([]universe.QuTransfer, len(tr.transfers))
	copy(out, tr.transfers)
	return out
}

// Reset clears the tick's transfers, keeping the capacity.
func (tr *Tracker) Reset() {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.transfers = tr.transfers[:0]
}

// TotalLogged returns the number of transfers logged over the tracker's
// lifetime.
func (tr *Tracker) TotalLogged() int64 {
	return tr.totalLogged.Load()
}
