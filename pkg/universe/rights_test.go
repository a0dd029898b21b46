package universe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcquireShares(t *testing.T) {
	t.Parallel()

	issuer := testID(1)
	const src, dst = uint16(1), uint16(2)

	srcCC := CallContext{ContractIndex: src, ContractID: testID(200), Invocator: issuer}
	dstCC := CallContext{ContractIndex: dst, ContractID: testID(201), Invocator: issuer, InvocationReward: 10}

	setup := func(t *testing.T) (*Universe, *fakeHooks, AssetName) {
		t.Helper()
		u, _, hooks, _ := newTestUniverse(t, Config{CapacityBits: 8})
		name := mustName(t, "QX")
		require.EqualValues(t, 676, u.IssueAsset(srcCC, name, issuer, 0, 676, 0))
		return u, hooks, name
	}

	t.Run("moves rights between contracts", func(t *testing.T) {
		t.Parallel()
		u, hooks, name := setup(t)

		ok, err := u.AcquireShares(dstCC, name, issuer, issuer, issuer, 300, src, src)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, []SystemProcedure{PreAcquireShares, PostAcquireShares}, hooks.calls)
		require.Equal(t, RightsTransferInput{
			AssetName:       name,
			Issuer:          issuer,
			SourceOwner:     issuer,
			SourcePossessor: issuer,
			Shares:          300,

			DestinationOwnershipManagingContract:  dst,
			DestinationPossessionManagingContract: dst,
		}, hooks.inputs[0])

		issuance := AssetIssuanceID{Issuer: issuer, AssetName: name}
		underDst := AssetPossessionSelect{AnyPossessor: true, ManagingContract: dst}
		underSrc := AssetPossessionSelect{AnyPossessor: true, ManagingContract: src}
		require.EqualValues(t, 300, u.NumberOfShares(issuance, AnyOwnership(), underDst))
		require.EqualValues(t, 376, u.NumberOfShares(issuance, AnyOwnership(), underSrc))
		checkInvariants(t, u)

		// The acquiring contract can now transfer what it manages.
		got := u.TransferShareOwnershipAndPossession(dstCC, name, issuer, issuer, issuer, 100, testID(7))
		require.EqualValues(t, 200, got)
	})

	t.Run("veto leaves state unchanged", func(t *testing.T) {
		t.Parallel()
		u, hooks, name := setup(t)
		hooks.approve = false
		before := u.Digest()

		ok, err := u.AcquireShares(dstCC, name, issuer, issuer, issuer, 300, src, src)
		require.NoError(t, err)
		require.False(t, ok)
		require.Equal(t, []SystemProcedure{PreAcquireShares}, hooks.calls)
		require.Equal(t, before, u.Digest())
	})

	t.Run("missing records skip the hooks", func(t *testing.T) {
		t.Parallel()
		u, hooks, name := setup(t)

		ok, err := u.AcquireShares(dstCC, name, issuer, testID(9), testID(9), 300, src, src)
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, hooks.calls)
	})

	t.Run("shortfall skips the hooks", func(t *testing.T) {
		t.Parallel()
		u, hooks, name := setup(t)

		ok, err := u.AcquireShares(dstCC, name, issuer, issuer, issuer, 677, src, src)
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, hooks.calls)
	})

	t.Run("rejects split managing contracts", func(t *testing.T) {
		t.Parallel()
		u, hooks, name := setup(t)

		ok, err := u.AcquireShares(dstCC, name, issuer, issuer, issuer, 300, src, dst)
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, hooks.calls)
	})

	t.Run("rejects self acquisition", func(t *testing.T) {
		t.Parallel()
		u, hooks, name := setup(t)

		ok, err := u.AcquireShares(srcCC, name, issuer, issuer, issuer, 300, src, src)
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, hooks.calls)
	})

	t.Run("rejects negative invocation reward", func(t *testing.T) {
		t.Parallel()
		u, hooks, name := setup(t)

		cc := dstCC
		cc.InvocationReward = -1
		ok, err := u.AcquireShares(cc, name, issuer, issuer, issuer, 300, src, src)
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, hooks.calls)
	})
}

func TestReleaseShares(t *testing.T) {
	t.Parallel()

	issuer := testID(1)
	const src, dst = uint16(1), uint16(2)

	srcCC := CallContext{ContractIndex: src, ContractID: testID(200), Invocator: issuer, InvocationReward: 10}

	setup := func(t *testing.T) (*Universe, *fakeHooks, AssetName) {
		t.Helper()
		u, _, hooks, _ := newTestUniverse(t, Config{CapacityBits: 8})
		name := mustName(t, "QX")
		require.EqualValues(t, 676, u.IssueAsset(srcCC, name, issuer, 0, 676, 0))
		return u, hooks, name
	}

	t.Run("releases rights to the destination", func(t *testing.T) {
		t.Parallel()
		u, hooks, name := setup(t)

		ok, err := u.ReleaseShares(srcCC, name, issuer, issuer, issuer, 676, dst, dst)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, []SystemProcedure{PreReleaseShares, PostReleaseShares}, hooks.calls)

		issuance := AssetIssuanceID{Issuer: issuer, AssetName: name}
		underDst := AssetPossessionSelect{AnyPossessor: true, ManagingContract: dst}
		require.EqualValues(t, 676, u.NumberOfShares(issuance, AnyOwnership(), underDst))
		checkInvariants(t, u)
	})

	t.Run("destination veto", func(t *testing.T) {
		t.Parallel()
		u, hooks, name := setup(t)
		hooks.approve = false
		before := u.Digest()

		ok, err := u.ReleaseShares(srcCC, name, issuer, issuer, issuer, 676, dst, dst)
		require.NoError(t, err)
		require.False(t, ok)
		require.Equal(t, before, u.Digest())
	})
}
