// Package gateway defines the read-only query surface of the asset universe
// served over HTTP.
package gateway

import (
	"context"
	"errors"

	"github.com/qubicnetwork/go-universe/pkg/universe"
)

// ServiceName identifies the service in metrics and logs.
const ServiceName = "gateway"

// ErrAssetNotFound indicates the issuance doesn't exist.
var ErrAssetNotFound = errors.New("asset not found")

// Issuance describes an asset issuance.
type Issuance struct {
	Issuer    universe.ID        `json:"issuer"`
	AssetName universe.AssetName `json:"assetName"`
	Decimals  int8               `json:"decimals"`
	Unit      universe.AssetUnit `json:"unit"`
}

// Ownership describes one ownership record of an issuance.
type Ownership struct {
	Owner            universe.ID `json:"owner"`
	ManagingContract uint16      `json:"managingContract"`
	Shares           int64       `json:"shares"`
}

// Possession describes one possession record, together with its owning
// ownership's owner.
type Possession struct {
	Owner            universe.ID `json:"owner"`
	Possessor        universe.ID `json:"possessor"`
	ManagingContract uint16      `json:"managingContract"`
	Shares           int64       `json:"shares"`
}

// Gateway answers read-only queries over a consistent view of the universe.
type Gateway interface {
	GetIssuance(ctx context.Context, issuer universe.ID, name universe.AssetName) (Issuance, error)
	ListOwnerships(
		ctx context.Context,
		issuance universe.AssetIssuanceID,
		sel universe.AssetOwnershipSelect,
	) ([]Ownership, error)
	ListPossessions(
		ctx context.Context,
		issuance universe.AssetIssuanceID,
		osel universe.AssetOwnershipSelect,
		psel universe.AssetPossessionSelect,
	) ([]Possession, error)
	NumberOfShares(
		ctx context.Context,
		issuance universe.AssetIssuanceID,
		osel universe.AssetOwnershipSelect,
		psel universe.AssetPossessionSelect,
	) (int64, error)
	Stats(ctx context.Context) (universe.Stats, error)
}
