package universe

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// The snapshot codec serializes the universe array and the two index-list
// arrays verbatim, little-endian.
//
// 0       4 <------- 64 bytes per cell -------> <-- 4 bytes --> <-- 4 bytes -->
// |-|-|-|-|-|-|-|-| ... |-|-|-|-|-|-|-|-|-|-|-| |-|-| ... |-|-| |-|-| ... |-|-|
// |  CAP  |   cells[0]  ...  cells[CAP-1]      |  firstChild   |  nextSibling  |
// |-|-|-|-|-|-|-|-| ... |-|-|-|-|-|-|-|-|-|-|-| |-|-| ... |-|-| |-|-| ... |-|-|

const snapshotCellSize = 64

// ErrCorruptSnapshot indicates snapshot bytes that don't decode to a universe.
var ErrCorruptSnapshot = errors.New("corrupt universe snapshot")

// Marshal serializes the universe. It takes the read lock.
func (u *Universe) Marshal() []byte {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.marshal()
}

func (u *Universe) marshal() []byte {
	data := make([]byte, 4+int(u.capacity)*(snapshotCellSize+8))
	binary.LittleEndian.PutUint32(data, u.capacity)

	off := 4
	for i := range u.cells {
		c := &u.cells[i]
		data[off] = byte(c.kind)
		copy(data[off+1:], c.publicKey[:])
		binary.LittleEndian.PutUint64(data[off+33:], uint64(c.name))
		binary.LittleEndian.PutUint64(data[off+41:], uint64(c.unit))
		data[off+49] = byte(c.decimals)
		binary.LittleEndian.PutUint32(data[off+50:], uint32(c.parent))
		binary.LittleEndian.PutUint16(data[off+54:], c.managingContract)
		binary.LittleEndian.PutUint64(data[off+56:], uint64(c.shares))
		off += snapshotCellSize
	}
	for _, idx := range u.firstChild {
		binary.LittleEndian.PutUint32(data[off:], uint32(idx))
		off += 4
	}
	for _, idx := range u.nextSibling {
		binary.LittleEndian.PutUint32(data[off:], uint32(idx))
		off += 4
	}
	return data
}

// Restore replaces the universe contents with a previously marshaled
// snapshot. The snapshot's capacity must match the configured one.
func (u *Universe) Restore(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("%w: truncated header", ErrCorruptSnapshot)
	}
	capacity := binary.LittleEndian.Uint32(data)
	if capacity != u.capacity {
		return fmt.Errorf("%w: capacity %d doesn't match configured %d", ErrCorruptSnapshot, capacity, u.capacity)
	}
	want := 4 + int(capacity)*(snapshotCellSize+8)
	if len(data) != want {
		return fmt.Errorf("%w: %d bytes, want %d", ErrCorruptSnapshot, len(data), want)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	var population uint32
	off := 4
	for i := range u.cells {
		c := &u.cells[i]
		c.kind = RecordKind(data[off])
		if c.kind > PossessionRecord {
			return fmt.Errorf("%w: cell %d has kind %d", ErrCorruptSnapshot, i, data[off])
		}
		if c.kind != EmptyRecord {
			population++
		}
		copy(c.publicKey[:], data[off+1:])
		c.name = AssetName(binary.LittleEndian.Uint64(data[off+33:]))
		c.unit = AssetUnit(binary.LittleEndian.Uint64(data[off+41:]))
		c.decimals = int8(data[off+49])
		c.parent = Index(binary.LittleEndian.Uint32(data[off+50:]))
		c.managingContract = binary.LittleEndian.Uint16(data[off+54:])
		c.shares = int64(binary.LittleEndian.Uint64(data[off+56:]))
		off += snapshotCellSize
	}
	for i := range u.firstChild {
		u.firstChild[i] = Index(binary.LittleEndian.Uint32(data[off:]))
		off += 4
	}
	for i := range u.nextSibling {
		u.nextSibling[i] = Index(binary.LittleEndian.Uint32(data[off:]))
		off += 4
	}
	u.population = population
	return nil
}

// Digest returns the keccak-256 hash of the marshaled universe. Two universes
// with the same digest hold byte-identical state.
func (u *Universe) Digest() [32]byte {
	u.mu.RLock()
	defer u.mu.RUnlock()

	var digest [32]byte
	copy(digest[:], crypto.Keccak256(u.marshal()))
	return digest
}

// Stats summarizes universe occupancy.
type Stats struct {
	Capacity    uint32
	Population  uint32
	Issuances   uint32
	Ownerships  uint32
	Possessions uint32
}

// Stats counts records by kind.
func (u *Universe) Stats() Stats {
	u.mu.RLock()
	defer u.mu.RUnlock()

	s := Stats{Capacity: u.capacity, Population: u.population}
	for i := range u.cells {
		switch u.cells[i].kind {
		case IssuanceRecord:
			s.Issuances++
		case OwnershipRecord:
			s.Ownerships++
		case PossessionRecord:
			s.Possessions++
		}
	}
	return s
}

// InspectSnapshot decodes only the occupancy statistics of snapshot bytes
// without loading them into a universe.
func InspectSnapshot(data []byte) (Stats, error) {
	if len(data) < 4 {
		return Stats{}, fmt.Errorf("%w: truncated header", ErrCorruptSnapshot)
	}
	capacity := binary.LittleEndian.Uint32(data)
	want := 4 + int(capacity)*(snapshotCellSize+8)
	if len(data) != want {
		return Stats{}, fmt.Errorf("%w: %d bytes, want %d", ErrCorruptSnapshot, len(data), want)
	}

	s := Stats{Capacity: capacity}
	off := 4
	for i := uint32(0); i < capacity; i++ {
		switch RecordKind(data[off]) {
		case IssuanceRecord:
			s.Issuances++
		case OwnershipRecord:
			s.Ownerships++
		case PossessionRecord:
			s.Possessions++
		case EmptyRecord:
			off += snapshotCellSize
			continue
		default:
			return Stats{}, fmt.Errorf("%w: cell %d has kind %d", ErrCorruptSnapshot, i, data[off])
		}
		s.Population++
		off += snapshotCellSize
	}
	return s, nil
}
