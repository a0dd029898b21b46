package impl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qubicnetwork/go-universe/internal/gateway"
	"github.com/qubicnetwork/go-universe/pkg/spectrum"
	"github.com/qubicnetwork/go-universe/pkg/universe"
)

func testID(b byte) universe.ID {
	var id universe.ID
	id[0] = b
	return id
}

func newTestGateway(t *testing.T) (*GatewayService, universe.AssetIssuanceID) {
	t.Helper()

	u, err := universe.New(universe.Config{CapacityBits: 8}, spectrum.New(), nil, nil)
	require.NoError(t, err)

	name, err := universe.PackAssetName("QX")
	require.NoError(t, err)

	issuer := testID(1)
	cc := universe.CallContext{ContractIndex: 1, ContractID: testID(200), Invocator: issuer}
	require.EqualValues(t, 676, u.IssueAsset(cc, name, issuer, 0, 676, 0))
	require.EqualValues(t, 576, u.TransferShareOwnershipAndPossession(cc, name, issuer, issuer, issuer, 100, testID(2)))

	return NewGateway(u), universe.AssetIssuanceID{Issuer: issuer, AssetName: name}
}

func TestGatewayService(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("get issuance", func(t *testing.T) {
		t.Parallel()
		g, issuance := newTestGateway(t)

		got, err := g.GetIssuance(ctx, issuance.Issuer, issuance.AssetName)
		require.NoError(t, err)
		require.Equal(t, issuance.Issuer, got.Issuer)
		require.Equal(t, "QX", got.AssetName.String())

		_, err = g.GetIssuance(ctx, testID(9), issuance.AssetName)
		require.ErrorIs(t, err, gateway.ErrAssetNotFound)
	})

	t.Run("list ownerships", func(t *testing.T) {
		t.Parallel()
		g, issuance := newTestGateway(t)

		owners, err := g.ListOwnerships(ctx, issuance, universe.AnyOwnership())
		require.NoError(t, err)
		require.Len(t, owners, 2)

		var total int64
		for _, o := range owners {
			total += o.Shares
		}
		require.EqualValues(t, 676, total)
	})

	t.Run("list possessions", func(t *testing.T) {
		t.Parallel()
		g, issuance := newTestGateway(t)

		possessions, err := g.ListPossessions(ctx, issuance, universe.AnyOwnership(), universe.PossessedBy(testID(2)))
		require.NoError(t, err)
		require.Len(t, possessions, 1)
		require.Equal(t, testID(2), possessions[0].Possessor)
		require.EqualValues(t, 100, possessions[0].Shares)
	})

	t.Run("number of shares and stats", func(t *testing.T) {
		t.Parallel()
		g, issuance := newTestGateway(t)

		total, err := g.NumberOfShares(ctx, issuance, universe.AnyOwnership(), universe.AnyPossession())
		require.NoError(t, err)
		require.EqualValues(t, 676, total)

		stats, err := g.Stats(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 1, stats.Issuances)
		require.EqualValues(t, 2, stats.Ownerships)
		require.EqualValues(t, 2, stats.Possessions)
	})
}
