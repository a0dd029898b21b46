// Package ledger defines the contract-facing operations of the asset
// universe: issuing assets, moving shares and management rights, and paying
// dividends.
package ledger

import (
	"context"

	"github.com/qubicnetwork/go-universe/pkg/universe"
)

// ServiceName identifies the service in metrics and logs.
const ServiceName = "ledger"

// CallerInfo identifies the contract invocation behind a request.
type CallerInfo struct {
	ContractIndex    uint16
	Invocator        universe.ID
	InvocationReward int64
}

// IssueAssetRequest creates a new asset issuance.
type IssueAssetRequest struct {
	Caller CallerInfo

	AssetName universe.AssetName
	Issuer    universe.ID
	Decimals  int8
	Shares    int64
	Unit      universe.AssetUnit
}

// TransferRequest moves shares to a new owner and possessor.
type TransferRequest struct {
	Caller CallerInfo

	AssetName universe.AssetName
	Issuer    universe.ID
	Owner     universe.ID
	Possessor universe.ID
	Shares    int64
	NewHolder universe.ID
}

// RightsRequest moves management rights between contracts. For an acquire the
// managing contracts name the source; for a release they name the
// destination.
type RightsRequest struct {
	Caller CallerInfo

	AssetName universe.AssetName
	Issuer    universe.ID
	Owner     universe.ID
	Possessor universe.ID
	Shares    int64

	OwnershipManagingContract  uint16
	PossessionManagingContract uint16
}

// DividendsRequest pays dividends on the calling contract's self-issuance.
type DividendsRequest struct {
	Caller CallerInfo

	AmountPerShare int64
}

// Ledger is the contract-facing surface of the asset universe.
type Ledger interface {
	IsAssetIssued(ctx context.Context, issuer universe.ID, name universe.AssetName) (bool, error)
	NumberOfShares(
		ctx context.Context,
		issuance universe.AssetIssuanceID,
		ownership universe.AssetOwnershipSelect,
		possession universe.AssetPossessionSelect,
	) (int64, error)

	IssueAsset(ctx context.Context, req IssueAssetRequest) (int64, error)
	TransferShareOwnershipAndPossession(ctx context.Context, req TransferRequest) (int64, error)
	AcquireShares(ctx context.Context, req RightsRequest) (bool, error)
	ReleaseShares(ctx context.Context, req RightsRequest) (bool, error)
	DistributeDividends(ctx context.Context, req DividendsRequest) (bool, error)
}
