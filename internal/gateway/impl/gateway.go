package impl

import (
	"context"
	"fmt"

	"github.com/qubicnetwork/go-universe/internal/gateway"
	"github.com/qubicnetwork/go-universe/pkg/universe"
)

// GatewayService implements the Gateway interface over the in-memory
// universe. Enumerations hold the universe read lock for their full run, so
// every response reflects one consistent state.
type GatewayService struct {
	universe *universe.Universe
}

var _ gateway.Gateway = (*GatewayService)(nil)

// NewGateway creates a new gateway service.
func NewGateway(u *universe.Universe) *GatewayService {
	return &GatewayService{universe: u}
}

// GetIssuance returns the issuance record for (issuer, name).
func (g *GatewayService) GetIssuance(
	_ context.Context, issuer universe.ID, name universe.AssetName,
) (gateway.Issuance, error) {
	issuance, ok := g.universe.Issuance(issuer, name)
	if !ok {
		return gateway.Issuance{}, fmt.Errorf("%w: %s by %s", gateway.ErrAssetNotFound, name, issuer)
	}
	return gateway.Issuance{
		Issuer:    issuance.Issuer,
		AssetName: issuance.AssetName,
		Decimals:  issuance.Decimals,
		Unit:      issuance.Unit,
	}, nil
}

// ListOwnerships enumerates the ownership records matching the selector.
func (g *GatewayService) ListOwnerships(
	_ context.Context,
	issuance universe.AssetIssuanceID,
	sel universe.AssetOwnershipSelect,
) ([]gateway.Ownership, error) {
	g.universe.RLock()
	defer g.universe.RUnlock()

	var out []gateway.Ownership
	for it := g.universe.NewOwnershipIterator(issuance, sel); !it.ReachedEnd(); it.Next() {
		out = append(out, gateway.Ownership{
			Owner:            it.Owner(),
			ManagingContract: it.OwnershipManagingContract(),
			Shares:           it.NumberOfOwnedShares(),
		})
	}
	return out, nil
}

// ListPossessions enumerates the possession records matching both selectors.
func (g *GatewayService) ListPossessions(
	_ context.Context,
	issuance universe.AssetIssuanceID,
	osel universe.AssetOwnershipSelect,
	psel universe.AssetPossessionSelect,
) ([]gateway.Possession, error) {
	g.universe.RLock()
	defer g.universe.RUnlock()

	var out []gateway.Possession
	for it := g.universe.NewPossessionIterator(issuance, osel, psel); !it.ReachedEnd(); it.Next() {
		out = append(out, gateway.Possession{
			Owner:            it.Owner(),
			Possessor:        it.Possessor(),
			ManagingContract: it.PossessionManagingContract(),
			Shares:           it.NumberOfPossessedShares(),
		})
	}
	return out, nil
}

// NumberOfShares sums possessed shares over the selected records.
func (g *GatewayService) NumberOfShares(
	_ context.Context,
	issuance universe.AssetIssuanceID,
	osel universe.AssetOwnershipSelect,
	psel universe.AssetPossessionSelect,
) (int64, error) {
	return g.universe.NumberOfShares(issuance, osel, psel), nil
}

// Stats returns universe occupancy counters.
func (g *GatewayService) Stats(_ context.Context) (universe.Stats, error) {
	return g.universe.Stats(), nil
}
