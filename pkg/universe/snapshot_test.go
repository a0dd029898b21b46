package universe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundtrip(t *testing.T) {
	t.Parallel()

	issuer := testID(1)
	holder := testID(2)
	cc := CallContext{ContractIndex: 1, ContractID: testID(200), Invocator: issuer}

	u, _, _, _ := newTestUniverse(t, Config{CapacityBits: 6})
	name := mustName(t, "QX")
	require.EqualValues(t, 676, u.IssueAsset(cc, name, issuer, 2, 676, 0))
	require.EqualValues(t, 576, u.TransferShareOwnershipAndPossession(cc, name, issuer, issuer, issuer, 100, holder))

	data := u.Marshal()
	digest := u.Digest()

	restored, _, _, _ := newTestUniverse(t, Config{CapacityBits: 6})
	require.NoError(t, restored.Restore(data))
	require.Equal(t, digest, restored.Digest())
	require.Equal(t, u.Stats(), restored.Stats())
	checkInvariants(t, restored)

	// The restored universe answers queries identically.
	issuance := AssetIssuanceID{Issuer: issuer, AssetName: name}
	require.True(t, restored.IsAssetIssued(issuer, name))
	require.EqualValues(t, 100, restored.NumberOfShares(issuance, AnyOwnership(), PossessedBy(holder)))

	// And keeps accepting mutations.
	require.EqualValues(t, 476, restored.TransferShareOwnershipAndPossession(cc, name, issuer, issuer, issuer, 100, holder))
}

func TestRestoreRejectsCorruptData(t *testing.T) {
	t.Parallel()
	u, _, _, _ := newTestUniverse(t, Config{CapacityBits: 6})

	t.Run("truncated", func(t *testing.T) {
		t.Parallel()
		require.ErrorIs(t, u.Restore([]byte{1, 2}), ErrCorruptSnapshot)
	})

	t.Run("capacity mismatch", func(t *testing.T) {
		t.Parallel()
		other, _, _, _ := newTestUniverse(t, Config{CapacityBits: 5})
		require.ErrorIs(t, u.Restore(other.Marshal()), ErrCorruptSnapshot)
	})

	t.Run("bad cell kind", func(t *testing.T) {
		t.Parallel()
		data := u.Marshal()
		data[4] = 0xFF
		require.ErrorIs(t, u.Restore(data), ErrCorruptSnapshot)
	})
}

func TestInspectSnapshot(t *testing.T) {
	t.Parallel()

	issuer := testID(1)
	cc := CallContext{ContractIndex: 1, ContractID: testID(200), Invocator: issuer}

	u, _, _, _ := newTestUniverse(t, Config{CapacityBits: 6})
	require.EqualValues(t, 10, u.IssueAsset(cc, mustName(t, "QX"), issuer, 0, 10, 0))

	stats, err := InspectSnapshot(u.Marshal())
	require.NoError(t, err)
	require.Equal(t, u.Stats(), stats)
	require.EqualValues(t, 1, stats.Issuances)
	require.EqualValues(t, 1, stats.Ownerships)
	require.EqualValues(t, 1, stats.Possessions)

	_, err = InspectSnapshot([]byte{0})
	require.ErrorIs(t, err, ErrCorruptSnapshot)
}
