package universe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransferShareOwnershipAndPossession(t *testing.T) {
	t.Parallel()

	issuerA := testID(1)
	holderB := testID(2)
	cc := CallContext{ContractIndex: 1, ContractID: testID(200), Invocator: issuerA}

	setup := func(t *testing.T) (*Universe, AssetName) {
		t.Helper()
		u, _, _, _ := newTestUniverse(t, Config{CapacityBits: 8})
		name := mustName(t, "QX")
		require.EqualValues(t, 676, u.IssueAsset(cc, name, issuerA, 0, 676, 0))
		return u, name
	}

	t.Run("success splits possessions", func(t *testing.T) {
		t.Parallel()
		u, name := setup(t)

		got := u.TransferShareOwnershipAndPossession(cc, name, issuerA, issuerA, issuerA, 100, holderB)
		require.EqualValues(t, 576, got)

		issuance := AssetIssuanceID{Issuer: issuerA, AssetName: name}
		require.EqualValues(t, 576, u.NumberOfShares(issuance, AnyOwnership(), PossessedBy(issuerA)))
		require.EqualValues(t, 100, u.NumberOfShares(issuance, AnyOwnership(), PossessedBy(holderB)))
		require.EqualValues(t, 676, u.NumberOfShares(issuance, AnyOwnership(), AnyPossession()))
		checkInvariants(t, u)
	})

	t.Run("shortfall reports deficit and mutates nothing", func(t *testing.T) {
		t.Parallel()
		u, name := setup(t)
		require.EqualValues(t, 576, u.TransferShareOwnershipAndPossession(cc, name, issuerA, issuerA, issuerA, 100, holderB))
		before := u.Digest()

		got := u.TransferShareOwnershipAndPossession(cc, name, issuerA, issuerA, issuerA, 1000, holderB)
		require.EqualValues(t, 576-1000, got)
		require.Equal(t, before, u.Digest())
	})

	t.Run("amount out of range", func(t *testing.T) {
		t.Parallel()
		u, name := setup(t)
		before := u.Digest()

		for _, amount := range []int64{0, -1, MaxAmount + 1} {
			got := u.TransferShareOwnershipAndPossession(cc, name, issuerA, issuerA, issuerA, amount, holderB)
			require.EqualValues(t, -(MaxAmount + 1), got)
		}
		require.Equal(t, before, u.Digest())
	})

	t.Run("missing records", func(t *testing.T) {
		t.Parallel()
		u, name := setup(t)
		before := u.Digest()

		testCases := []struct {
			desc                     string
			name                     AssetName
			issuer, owner, possessor ID
		}{
			{"unknown asset", mustName(t, "NOPE"), issuerA, issuerA, issuerA},
			{"unknown issuer", name, testID(9), issuerA, issuerA},
			{"unknown owner", name, issuerA, testID(9), issuerA},
			{"unknown possessor", name, issuerA, issuerA, testID(9)},
		}
		for _, tc := range testCases {
			t.Run(tc.desc, func(t *testing.T) {
				got := u.TransferShareOwnershipAndPossession(cc, tc.name, tc.issuer, tc.owner, tc.possessor, 10, holderB)
				require.EqualValues(t, -10, got)
			})
		}
		require.Equal(t, before, u.Digest())
	})

	t.Run("wrong managing contract", func(t *testing.T) {
		t.Parallel()
		u, name := setup(t)
		before := u.Digest()

		other := CallContext{ContractIndex: 7, ContractID: testID(201), Invocator: issuerA}
		got := u.TransferShareOwnershipAndPossession(other, name, issuerA, issuerA, issuerA, 10, holderB)
		require.EqualValues(t, -10, got)
		require.Equal(t, before, u.Digest())
	})

	t.Run("transfer back reuses records", func(t *testing.T) {
		t.Parallel()
		u, name := setup(t)
		require.EqualValues(t, 576, u.TransferShareOwnershipAndPossession(cc, name, issuerA, issuerA, issuerA, 100, holderB))

		statsBefore := u.Stats()
		got := u.TransferShareOwnershipAndPossession(cc, name, issuerA, holderB, holderB, 100, issuerA)
		require.EqualValues(t, 0, got)
		require.Equal(t, statsBefore, u.Stats(), "no new records for an existing holder")

		issuance := AssetIssuanceID{Issuer: issuerA, AssetName: name}
		require.EqualValues(t, 676, u.NumberOfShares(issuance, AnyOwnership(), PossessedBy(issuerA)))
		require.EqualValues(t, 0, u.NumberOfShares(issuance, AnyOwnership(), PossessedBy(holderB)))
		checkInvariants(t, u)
	})

	t.Run("whole balance to self", func(t *testing.T) {
		t.Parallel()
		u, name := setup(t)
		got := u.TransferShareOwnershipAndPossession(cc, name, issuerA, issuerA, issuerA, 676, issuerA)
		require.EqualValues(t, 676, got)
		checkInvariants(t, u)
	})
}
