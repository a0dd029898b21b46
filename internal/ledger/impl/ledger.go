package impl

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	logger "github.com/rs/zerolog/log"

	"github.com/qubicnetwork/go-universe/internal/ledger"
	"github.com/qubicnetwork/go-universe/pkg/registry"
	"github.com/qubicnetwork/go-universe/pkg/universe"
)

// LedgerService is the main implementation of the contract-facing ledger
// surface. It resolves the calling contract through the registry and drives
// the universe mutators.
type LedgerService struct {
	universe *universe.Universe
	registry *registry.Registry

	log zerolog.Logger
}

var _ ledger.Ledger = (*LedgerService)(nil)

// NewLedgerService creates a new LedgerService.
func NewLedgerService(u *universe.Universe, r *registry.Registry) *LedgerService {
	return &LedgerService{
		universe: u,
		registry: r,
		log: logger.With().
			Str("component", ledger.ServiceName).
			Logger(),
	}
}

func (s *LedgerService) callContext(caller ledger.CallerInfo) (universe.CallContext, error) {
	cc, err := s.registry.CallContext(caller.ContractIndex, caller.Invocator, caller.InvocationReward)
	if err != nil {
		return universe.CallContext{}, fmt.Errorf("resolving calling contract: %s", err)
	}
	return cc, nil
}

// IsAssetIssued reports whether (issuer, name) is issued.
func (s *LedgerService) IsAssetIssued(
	_ context.Context, issuer universe.ID, name universe.AssetName,
) (bool, error) {
	return s.universe.IsAssetIssued(issuer, name), nil
}

// NumberOfShares sums possessed shares over the selected records.
func (s *LedgerService) NumberOfShares(
	_ context.Context,
	issuance universe.AssetIssuanceID,
	ownership universe.AssetOwnershipSelect,
	possession universe.AssetPossessionSelect,
) (int64, error) {
	return s.universe.NumberOfShares(issuance, ownership, possession), nil
}

// IssueAsset creates a new asset issuance on behalf of the calling contract.
func (s *LedgerService) IssueAsset(_ context.Context, req ledger.IssueAssetRequest) (int64, error) {
	cc, err := s.callContext(req.Caller)
	if err != nil {
		return 0, err
	}
	return s.universe.IssueAsset(cc, req.AssetName, req.Issuer, req.Decimals, req.Shares, req.Unit), nil
}

// TransferShareOwnershipAndPossession moves shares managed by the calling
// contract to a new holder.
func (s *LedgerService) TransferShareOwnershipAndPossession(
	_ context.Context, req ledger.TransferRequest,
) (int64, error) {
	cc, err := s.callContext(req.Caller)
	if err != nil {
		return 0, err
	}
	return s.universe.TransferShareOwnershipAndPossession(
		cc, req.AssetName, req.Issuer, req.Owner, req.Possessor, req.Shares, req.NewHolder,
	), nil
}

// AcquireShares moves management rights to the calling contract.
func (s *LedgerService) AcquireShares(_ context.Context, req ledger.RightsRequest) (bool, error) {
	cc, err := s.callContext(req.Caller)
	if err != nil {
		return false, err
	}
	return s.universe.AcquireShares(
		cc, req.AssetName, req.Issuer, req.Owner, req.Possessor, req.Shares,
		req.OwnershipManagingContract, req.PossessionManagingContract,
	)
}

// ReleaseShares moves management rights away from the calling contract.
func (s *LedgerService) ReleaseShares(_ context.Context, req ledger.RightsRequest) (bool, error) {
	cc, err := s.callContext(req.Caller)
	if err != nil {
		return false, err
	}
	return s.universe.ReleaseShares(
		cc, req.AssetName, req.Issuer, req.Owner, req.Possessor, req.Shares,
		req.OwnershipManagingContract, req.PossessionManagingContract,
	)
}

// DistributeDividends pays dividends on the calling contract's self-issuance.
func (s *LedgerService) DistributeDividends(_ context.Context, req ledger.DividendsRequest) (bool, error) {
	cc, err := s.callContext(req.Caller)
	if err != nil {
		return false, err
	}
	ok, err := s.universe.DistributeDividends(cc, req.AmountPerShare)
	if err != nil {
		s.log.Error().
			Err(err).
			Uint16("contract", req.Caller.ContractIndex).
			Msg("dividend distribution aborted")
		return false, err
	}
	return ok, nil
}
