package universe

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func testID(b byte) ID {
	var id ID
	id[0] = b
	return id
}

func mustName(t *testing.T, s string) AssetName {
	t.Helper()
	name, err := PackAssetName(s)
	require.NoError(t, err)
	return name
}

// fakeSpectrum is an in-test energy ledger.
type fakeSpectrum struct {
	mu       sync.Mutex
	indices  map[ID]int
	accounts []ID
	balances []int64
}

func newFakeSpectrum() *fakeSpectrum {
	return &fakeSpectrum{indices: map[ID]int{}}
}

func (s *fakeSpectrum) SpectrumIndex(id ID) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indices[id]
	return idx, ok
}

func (s *fakeSpectrum) Energy(index int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[index]
}

func (s *fakeSpectrum) IncreaseEnergy(id ID, amount int64) {
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

func (s *fakeSpectrum) DecreaseEnergy(index int, amount int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[index] < amount {
		return false
	}
	s.balances[index] -= amount
	return true
}

func (s *fakeSpectrum) balanceOf(id ID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indices[id]
	if !ok {
		return 0
	}
	return s.balances[idx]
}

// fakeTracker records qu transfers and can be told to refuse.
type fakeTracker struct {
	mu        sync.Mutex
	capacity  int
	transfers []QuTransfer
	logged    []QuTransfer
}

func (tr *fakeTracker) AddQuTransfer(t QuTransfer) bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.capacity > 0 && len(tr.transfers) >= tr.capacity {
		return false
	}
	tr.transfers = append(tr.transfers, t)
	return true
}

func (tr *fakeTracker) LogQuTransfer(t QuTransfer) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.logged = append(tr.logged, t)
}

// fakeHooks approves or vetoes pre hooks and records every call.
type fakeHooks struct {
	approve bool
	calls   []SystemProcedure
	inputs  []RightsTransferInput
}

func (h *fakeHooks) CallSystemProcedure(
	_ uint16, _ uint16, proc SystemProcedure, in RightsTransferInput, _ int64,
) (bool, error) {
	h.calls = append(h.calls, proc)
	h.inputs = append(h.inputs, in)
	if proc == PreAcquireShares || proc == PreReleaseShares {
		return h.approve, nil
	}
	return true, nil
}

func newTestUniverse(t *testing.T, cfg Config) (*Universe, *fakeSpectrum, *fakeHooks, *fakeTracker) {
	t.Helper()
	spectrum := newFakeSpectrum()
	hooks := &fakeHooks{approve: true}
	tracker := &fakeTracker{}
	u, err := New(cfg, spectrum, hooks, tracker)
	require.NoError(t, err)
	return u, spectrum, hooks, tracker
}

// checkInvariants verifies the structural invariants relating the table and
// the index lists at a quiescent point.
func checkInvariants(t *testing.T, u *Universe) {
	t.Helper()
	u.mu.RLock()
	defer u.mu.RUnlock()

	onList := make(map[Index]int)
	for parent := range u.cells {
		if u.cells[parent].kind != IssuanceRecord && u.cells[parent].kind != OwnershipRecord {
			continue
		}
		for child := u.firstChild[parent]; child != NoIndex; child = u.nextSibling[child] {
			onList[child]++
			require.Equal(t, Index(parent), u.cells[child].parent, "child %d linked under wrong parent", child)
		}
	}

	for i := range u.cells {
		c := &u.cells[i]
		switch c.kind {
		case OwnershipRecord:
			require.Equal(t, IssuanceRecord, u.cells[c.parent].kind, "ownership %d has non-issuance parent", i)
			require.Equal(t, 1, onList[Index(i)], "ownership %d list membership", i)

			var childSum int64
			for child := u.firstChild[i]; child != NoIndex; child = u.nextSibling[child] {
				childSum += u.cells[child].shares
			}
			require.Equal(t, c.shares, childSum, "ownership %d possession shares don't sum up", i)
		case PossessionRecord:
			require.Equal(t, OwnershipRecord, u.cells[c.parent].kind, "possession %d has non-ownership parent", i)
			require.Equal(t, 1, onList[Index(i)], "possession %d list membership", i)
			require.GreaterOrEqual(t, c.shares, int64(0))
		}
	}
}

// scanIssuance is the linear-scan oracle for findIssuance.
func scanIssuance(u *Universe, issuer ID, name AssetName) Index {
	for i := range u.cells {
		c := &u.cells[i]
		if c.kind == IssuanceRecord && c.name == name && c.publicKey == issuer {
			return Index(i)
		}
	}
	return NoIndex
}

func TestIssueAsset(t *testing.T) {
	t.Parallel()

	issuer := testID(1)
	cc := CallContext{ContractIndex: 1, ContractID: testID(200), Invocator: issuer}

	t.Run("issue then query", func(t *testing.T) {
		t.Parallel()
		u, _, _, _ := newTestUniverse(t, Config{CapacityBits: 8})

		name := mustName(t, "QX")
		require.EqualValues(t, 676, u.IssueAsset(cc, name, issuer, 0, 676, 0))
		require.True(t, u.IsAssetIssued(issuer, name))

		total := u.NumberOfShares(
			AssetIssuanceID{Issuer: issuer, AssetName: name},
			AnyOwnership(),
			AnyPossession(),
		)
		require.EqualValues(t, 676, total)

		issuance, ok := u.Issuance(issuer, name)
		require.True(t, ok)
		require.Equal(t, name, issuance.AssetName)
		require.Equal(t, issuer, issuance.Issuer)

		checkInvariants(t, u)
	})

	t.Run("duplicate rejected", func(t *testing.T) {
		t.Parallel()
		u, _, _, _ := newTestUniverse(t, Config{CapacityBits: 8})

		name := mustName(t, "QX")
		require.EqualValues(t, 676, u.IssueAsset(cc, name, issuer, 0, 676, 0))
		before := u.Digest()

		require.Zero(t, u.IssueAsset(cc, name, issuer, 0, 676, 0))
		require.Equal(t, before, u.Digest())
	})

	t.Run("validation failures", func(t *testing.T) {
		t.Parallel()
		u, _, _, _ := newTestUniverse(t, Config{CapacityBits: 8})
		name := mustName(t, "QX")

		testCases := []struct {
			desc   string
			cc     CallContext
			name   AssetName
			issuer ID
			shares int64
			unit   AssetUnit
		}{
			{"lowercase name", cc, AssetName('q') | AssetName('x')<<8, issuer, 100, 0},
			{"embedded nul", cc, AssetName('Q') | AssetName('X')<<16, issuer, 100, 0},
			{"high byte set", cc, mustName(t, "QX") | 1<<56, issuer, 100, 0},
			{"zero issuer", cc, name, ID{}, 100, 0},
			{"issuer is neither invocator nor contract", cc, name, testID(99), 100, 0},
			{"zero shares", cc, name, issuer, 0, 0},
			{"negative shares", cc, name, issuer, -5, 0},
			{"too many shares", cc, name, issuer, MaxAmount + 1, 0},
			{"oversized unit", cc, name, issuer, 100, AssetUnit(1) << 56},
		}
		for _, tc := range testCases {
			t.Run(tc.desc, func(t *testing.T) {
				require.Zero(t, u.IssueAsset(tc.cc, tc.name, tc.issuer, 0, tc.shares, tc.unit))
			})
		}
		require.False(t, u.IsAssetIssued(issuer, name))
	})

	t.Run("contract can self-issue", func(t *testing.T) {
		t.Parallel()
		u, _, _, _ := newTestUniverse(t, Config{CapacityBits: 8})
		require.EqualValues(t, 100, u.IssueAsset(cc, mustName(t, "SELF"), cc.ContractID, 0, 100, 0))
	})

	t.Run("full table rejects issuance", func(t *testing.T) {
		t.Parallel()
		u, _, _, _ := newTestUniverse(t, Config{CapacityBits: 4})

		// Each issuance takes three cells; a 16-cell table hosts five before
		// the probe-termination guard trips.
		names := []string{"A", "B", "C", "D", "E"}
		for i, n := range names {
			who := testID(byte(10 + i))
			ctx := CallContext{ContractIndex: 1, ContractID: testID(200), Invocator: who}
			require.EqualValues(t, 10, u.IssueAsset(ctx, mustName(t, n), who, 0, 10, 0))
		}
		who := testID(42)
		ctx := CallContext{ContractIndex: 1, ContractID: testID(200), Invocator: who}
		require.Zero(t, u.IssueAsset(ctx, mustName(t, "F"), who, 0, 10, 0))
		checkInvariants(t, u)
	})
}

func TestFindAgreesWithScan(t *testing.T) {
	t.Parallel()
	u, _, _, _ := newTestUniverse(t, Config{CapacityBits: 6})

	// Colliding issuers: same hash seed, different ids.
	collider := func(b, tail byte) ID {
		var id ID
		id[0] = b
		id[31] = tail
		return id
	}

	name := mustName(t, "COIN")
	for i := byte(0); i < 5; i++ {
		who := collider(7, i+1)
		ctx := CallContext{ContractIndex: 1, ContractID: testID(200), Invocator: who}
		require.EqualValues(t, 50, u.IssueAsset(ctx, name, who, 0, 50, 0))
	}

	u.mu.RLock()
	defer u.mu.RUnlock()
	for i := byte(0); i < 7; i++ {
		who := collider(7, i+1)
		require.Equal(t, scanIssuance(u, who, name), u.findIssuance(who, name), "issuer %d", i)
	}
}
