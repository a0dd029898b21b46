// Package universe implements the asset universe: a fixed-capacity
// open-addressed table shared by asset issuance, ownership and possession
// records, threaded with intrusive index lists for per-issuance enumeration.
//
// All three record kinds live in a single table of tagged cells. A cell is
// never set back to empty once written, so linear probing can rely on
// contiguous non-empty runs. Every mutator runs under one process-wide
// exclusive lock; readers that need a consistent view across several calls
// (iterators) hold the same lock in read mode.
package universe

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"
	logger "github.com/rs/zerolog/log"
)

const (
	// MaxAmount is the maximum transferable amount of shares or energy.
	MaxAmount = 1_000_000_000_000_000

	// DefaultNumberOfComputors is the network's computor count; a contract
	// self-issuance carries exactly this many shares.
	DefaultNumberOfComputors = 676

	// DefaultCapacityBits sizes the universe at 1<<DefaultCapacityBits cells.
	DefaultCapacityBits = 24
)

// ID is a 256-bit account identity. IDs are compared bit-identically; the low
// 32 bits seed the hash placement of records keyed on the id.
type ID [32]byte

// IsZero reports whether the id is all-zero. The zero id marks a contract
// self-issuance issuer and is not a valid account.
func (id ID) IsZero() bool {
	return id == ID{}
}

// String renders the id as 0x-prefixed hex.
func (id ID) String() string {
	return hexutil.Encode(id[:])
}

// MarshalText renders the id as hex for JSON and friends.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(hexutil.Encode(id[:])), nil
}

// UnmarshalText parses a 0x-prefixed 32-byte hex id.
func (id *ID) UnmarshalText(text []byte) error {
	raw, err := hexutil.Decode(string(text))
	if err != nil {
		return fmt.Errorf("decoding id: %s", err)
	}
	if len(raw) != len(id) {
		return fmt.Errorf("id must be %d bytes, got %d", len(id), len(raw))
	}
	copy(id[:], raw)
	return nil
}

func (id ID) hashSeed() uint32 {
	return binary.LittleEndian.Uint32(id[:4])
}

// Index addresses a cell in the universe table.
type Index uint32

// NoIndex marks the absence of a record.
const NoIndex Index = math.MaxUint32

// RecordKind tags the variant stored in a cell.
type RecordKind uint8

// The four cell variants.
const (
	EmptyRecord RecordKind = iota
	IssuanceRecord
	OwnershipRecord
	PossessionRecord
)

func (k RecordKind) String() string {
	switch k {
	case EmptyRecord:
		return "empty"
	case IssuanceRecord:
		return "issuance"
	case OwnershipRecord:
		return "ownership"
	case PossessionRecord:
		return "possession"
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// cell is one slot of the universe table. The payload fields overlay: an
// issuance uses name/decimals/unit, an ownership or possession uses
// parent/managingContract/shares. The kind tag decides which view is live.
type cell struct {
	kind      RecordKind
	publicKey ID

	// Issuance payload.
	name     AssetName
	decimals int8
	unit     AssetUnit

	// Ownership and possession payload. parent is the issuance index for an
	// ownership and the ownership index for a possession.
	parent           Index
	managingContract uint16
	shares           int64
}

// Config parameterizes a Universe.
type Config struct {
	// CapacityBits sizes the table at 1<<CapacityBits cells. Must be in [4, 30].
	CapacityBits uint

	// NumberOfComputors overrides DefaultNumberOfComputors; dividend
	// distribution pays out exactly this many shares per self-issuance.
	NumberOfComputors int64
}

// EnergyLedger is the external spectrum subsystem holding per-account energy
// balances. Implementations synchronize internally and must not block.
type EnergyLedger interface {
	SpectrumIndex(id ID) (int, bool)
	Energy(index int) int64
	IncreaseEnergy(id ID, amount int64)
	DecreaseEnergy(index int, amount int64) bool
}

// QuTransfer records one energy movement caused by a contract.
type QuTransfer struct {
	Source      ID
	Destination ID
	Amount      int64
}

// ActionTracker records and logs energy transfers performed inside contract
// calls. AddQuTransfer returns false when the tracker is out of capacity,
// which aborts the running mutator.
type ActionTracker interface {
	AddQuTransfer(t QuTransfer) bool
	LogQuTransfer(t QuTransfer)
}

// SystemProcedure identifies a managed-rights hook.
type SystemProcedure uint8

// Managed-rights transfer hooks.
const (
	PreAcquireShares SystemProcedure = iota + 1
	PostAcquireShares
	PreReleaseShares
	PostReleaseShares
)

func (p SystemProcedure) String() string {
	switch p {
	case PreAcquireShares:
		return "PRE_ACQUIRE_SHARES"
	case PostAcquireShares:
		return "POST_ACQUIRE_SHARES"
	case PreReleaseShares:
		return "PRE_RELEASE_SHARES"
	case PostReleaseShares:
		return "POST_RELEASE_SHARES"
	}
	return fmt.Sprintf("unknown(%d)", uint8(p))
}

// RightsTransferInput is the payload handed to managed-rights hooks.
type RightsTransferInput struct {
	AssetName       AssetName
	Issuer          ID
	SourceOwner     ID
	SourcePossessor ID
	Shares          int64

	DestinationOwnershipManagingContract  uint16
	DestinationPossessionManagingContract uint16
}

// HookCaller dispatches managed-rights system procedures into another
// contract. The callee must not touch the universe: it is invoked while the
// universe lock is held. Pre hooks return the counterparty's decision; the
// return value of post hooks is ignored.
type HookCaller interface {
	CallSystemProcedure(
		caller uint16,
		callee uint16,
		proc SystemProcedure,
		in RightsTransferInput,
		invocationReward int64,
	) (bool, error)
}

// CallContext identifies the contract invocation driving a mutator.
type CallContext struct {
	ContractIndex     uint16
	ContractID        ID
	ContractAssetName AssetName
	Invocator         ID
	InvocationReward  int64
}

// Errors surfaced by mutators beyond the protocol return codes.
var (
	// ErrUniverseFull names the condition where the table cannot host new
	// records without losing its probe-termination guarantee. Mutators report
	// that condition through their return codes (0, -amount or false) and do
	// not return this error.
	ErrUniverseFull = errors.New("universe table full")

	// ErrTooManyActions indicates the action tracker refused a transfer
	// record; the contract call must abort.
	ErrTooManyActions = errors.New("too many contract actions")
)

// Universe is the fixed-capacity asset record store.
type Universe struct {
	mu sync.RWMutex

	capacity uint32
	mask     uint32

	cells       []cell
	firstChild  []Index
	nextSibling []Index

	// population counts non-empty cells. Probing stays bounded as long as at
	// least one cell is empty, so inserts are refused near capacity.
	population uint32

	numComputors int64

	energy  EnergyLedger
	hooks   HookCaller
	tracker ActionTracker

	log zerolog.Logger
}

// New creates an empty universe. The energy ledger, hook caller and action
// tracker are the external collaborators consumed by mutators.
func New(cfg Config, energy EnergyLedger, hooks HookCaller, tracker ActionTracker) (*Universe, error) {
	if cfg.CapacityBits == 0 {
		cfg.CapacityBits = DefaultCapacityBits
	}
	if cfg.CapacityBits < 4 || cfg.CapacityBits > 30 {
		return nil, fmt.Errorf("capacity bits must be in [4, 30], got %d", cfg.CapacityBits)
	}
	if cfg.NumberOfComputors == 0 {
		cfg.NumberOfComputors = DefaultNumberOfComputors
	}
	if cfg.NumberOfComputors < 0 {
		return nil, fmt.Errorf("number of computors must be positive, got %d", cfg.NumberOfComputors)
	}
	if energy == nil {
		return nil, errors.New("energy ledger is required")
	}

	capacity := uint32(1) << cfg.CapacityBits
	u := &Universe{
		capacity:     capacity,
		mask:         capacity - 1,
		cells:        make([]cell, capacity),
		firstChild:   make([]Index, capacity),
		nextSibling:  make([]Index, capacity),
		numComputors: cfg.NumberOfComputors,
		energy:       energy,
		hooks:        hooks,
		tracker:      tracker,
		log: logger.With().
			Str("component", "universe").
			Logger(),
	}
	for i := range u.firstChild {
		u.firstChild[i] = NoIndex
		u.nextSibling[i] = NoIndex
	}
	return u, nil
}

// Capacity returns the number of cells in the table.
func (u *Universe) Capacity() uint32 {
	return u.capacity
}

// NumberOfComputors returns the configured computor count.
func (u *Universe) NumberOfComputors() int64 {
	return u.numComputors
}

// RLock acquires the universe lock in read mode. Iterators must be created
// and driven to exhaustion while the lock is held; mutators exclude all
// readers.
func (u *Universe) RLock() {
	u.mu.RLock()
}

// RUnlock releases the read lock.
func (u *Universe) RUnlock() {
	u.mu.RUnlock()
}

// IsAssetIssued reports whether an issuance with the given issuer and name
// exists.
func (u *Universe) IsAssetIssued(issuer ID, name AssetName) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.findIssuance(issuer, name) != NoIndex
}

// findIssuance probes for the issuance keyed on (issuer, name). The caller
// holds the lock.
func (u *Universe) findIssuance(issuer ID, name AssetName) Index {
	idx := issuer.hashSeed() & u.mask
	for steps := uint32(0); steps < u.capacity; steps++ {
		c := &u.cells[idx]
		if c.kind == EmptyRecord {
			return NoIndex
		}
		if c.kind == IssuanceRecord && c.name == name && c.publicKey == issuer {
			return Index(idx)
		}
		idx = (idx + 1) & u.mask
	}
	return NoIndex
}

// findOwnership probes for the ownership keyed on (issuanceIdx, owner). With
// anyManagingContract false only a record under managingContract matches;
// records under other managing contracts are probed past. The caller holds
// the lock.
func (u *Universe) findOwnership(issuanceIdx Index, owner ID, anyManagingContract bool, managingContract uint16) Index {
	idx := owner.hashSeed() & u.mask
	for steps := uint32(0); steps < u.capacity; steps++ {
		c := &u.cells[idx]
		if c.kind == EmptyRecord {
			return NoIndex
		}
		if c.kind == OwnershipRecord && c.parent == issuanceIdx && c.publicKey == owner &&
			(anyManagingContract || c.managingContract == managingContract) {
			return Index(idx)
		}
		idx = (idx + 1) & u.mask
	}
	return NoIndex
}

// findPossession probes for the possession keyed on (ownershipIdx, possessor).
// The caller holds the lock.
func (u *Universe) findPossession(ownershipIdx Index, possessor ID, anyManagingContract bool, managingContract uint16) Index {
	idx := possessor.hashSeed() & u.mask
	for steps := uint32(0); steps < u.capacity; steps++ {
		c := &u.cells[idx]
		if c.kind == EmptyRecord {
			return NoIndex
		}
		if c.kind == PossessionRecord && c.parent == ownershipIdx && c.publicKey == possessor &&
			(anyManagingContract || c.managingContract == managingContract) {
			return Index(idx)
		}
		idx = (idx + 1) & u.mask
	}
	return NoIndex
}

// allocCell probes from seed to the first empty cell and claims it. The
// caller holds the write lock and must have checked headroom with canHost.
func (u *Universe) allocCell(seed uint32) Index {
	idx := seed & u.mask
	for u.cells[idx].kind != EmptyRecord {
		idx = (idx + 1) & u.mask
	}
	u.population++
	return Index(idx)
}

// canHost reports whether n more records fit while keeping at least one cell
// empty, which bounds every probe.
func (u *Universe) canHost(n uint32) bool {
	return u.population+n < u.capacity
}

// linkChild head-inserts child into parent's child list.
func (u *Universe) linkChild(parent, child Index) {
	u.nextSibling[child] = u.firstChild[parent]
	u.firstChild[parent] = child
}
