// Package registry keeps the contract descriptions of the node and
// dispatches managed-rights system procedures between contracts.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	logger "github.com/rs/zerolog/log"

	"github.com/qubicnetwork/go-universe/pkg/universe"
)

// RightsHookHandler is implemented by contracts that can be a counterparty
// of a managed-rights transfer. Handlers run while the universe lock is held
// and must not touch the universe; they receive value-typed input only.
type RightsHookHandler interface {
	PreAcquireShares(in universe.RightsTransferInput) bool
	PostAcquireShares(in universe.RightsTransferInput)
	PreReleaseShares(in universe.RightsTransferInput) bool
	PostReleaseShares(in universe.RightsTransferInput)
}

// ContractDescription describes one registered contract.
type ContractDescription struct {
	ID        universe.ID
	AssetName universe.AssetName
	Hooks     RightsHookHandler
}

// Errors returned by the registry.
var (
	ErrUnknownContract   = errors.New("unknown contract index")
	ErrNoHooksRegistered = errors.New("contract has no rights hooks registered")
)

// Registry is the fixed table of contracts known to the node. Contract
// indices are assigned in registration order.
type Registry struct {
	mu        sync.RWMutex
	contracts []ContractDescription

	energy universe.EnergyLedger

	log zerolog.Logger
}

var _ universe.HookCaller = (*Registry)(nil)

// New creates a registry backed by the given energy ledger; invocation
// rewards move through it.
func New(energy universe.EnergyLedger) *Registry {
	return &Registry{
		energy: energy,
		log: logger.With().
			Str("component", "registry").
			Logger(),
	}
}

// Register appends a contract and returns its index.
func (r *Registry) Register(desc ContractDescription) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contracts = append(r.contracts, desc)
	return uint16(len(r.contracts) - 1)
}

// ContractCount returns the number of registered contracts.
func (r *Registry) ContractCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.contracts)
}

// Description returns the description of a contract.
func (r *Registry) Description(index uint16) (ContractDescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(index) >= len(r.contracts) {
		return ContractDescription{}, fmt.Errorf("%w: %d", ErrUnknownContract, index)
	}
	return r.contracts[index], nil
}

// CallContext builds the invocation context for a contract call.
func (r *Registry) CallContext(index uint16, invocator universe.ID, invocationReward int64) (universe.CallContext, error) {
	desc, err := r.Description(index)
	if err != nil {
		return universe.CallContext{}, err
	}
	return universe.CallContext{
		ContractIndex:     index,
		ContractID:        desc.ID,
		ContractAssetName: desc.AssetName,
		Invocator:         invocator,
		InvocationReward:  invocationReward,
	}, nil
}

// CallSystemProcedure dispatches a managed-rights hook into the callee
// contract. A pre hook first moves the invocation reward from the caller
// contract to the callee; when the caller can't cover the reward the
// procedure is vetoed without consulting the callee. Post hooks carry no
// reward and their outcome is ignored.
func (r *Registry) CallSystemProcedure(
	caller uint16,
	callee uint16,
	proc universe.SystemProcedure,
	in universe.RightsTransferInput,
	invocationReward int64,
) (bool, error) {
	r.mu.RLock()
	if int(caller) >= len(r.contracts) || int(callee) >= len(r.contracts) {
		r.mu.RUnlock()
		return false, fmt.Errorf("%w: caller %d, callee %d", ErrUnknownContract, caller, callee)
	}
	callerDesc := r.contracts[caller]
	calleeDesc := r.contracts[callee]
	r.mu.RUnlock()

	if calleeDesc.Hooks == nil {
		return false, fmt.Errorf("%w: %d", ErrNoHooksRegistered, callee)
	}

	if invocationReward > 0 {
		if idx, ok := r.energy.SpectrumIndex(callerDesc.ID); !ok || !r.energy.DecreaseEnergy(idx, invocationReward) {
			r.log.Warn().
				Uint16("caller", caller).
				Int64("reward", invocationReward).
				Msg("caller can't cover invocation reward")
			return false, nil
		}
		r.energy.IncreaseEnergy(calleeDesc.ID, invocationReward)
	}

	switch proc {
	case universe.PreAcquireShares:
		return calleeDesc.Hooks.PreAcquireShares(in), nil
	case universe.PostAcquireShares:
		calleeDesc.Hooks.PostAcquireShares(in)
		return true, nil
	case universe.PreReleaseShares:
		return calleeDesc.Hooks.PreReleaseShares(in), nil
	case universe.PostReleaseShares:
		calleeDesc.Hooks.PostReleaseShares(in)
		return true, nil
	}
	return false, fmt.Errorf("unknown system procedure %d", proc)
}
