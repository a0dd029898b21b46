package universe

// AcquireShares moves the right to manage shares of (owner, possessor) from
// the source managing contract to the calling contract.
//
// The counterparty (the source managing contract) is consulted through the
// two-phase hook protocol: PRE_ACQUIRE_SHARES carries the invocation reward
// and may veto; the management-rights update happens between the pre and post
// hooks, under the universe lock; POST_ACQUIRE_SHARES is a notification with
// zero reward. The hook callee never touches the universe, so holding the
// lock across both hooks is safe.
//
// The ownership and possession records must currently be managed by the same
// source contract. A veto, a missing record or a shortfall returns false; the
// invocation reward spent on a pre hook is not refunded.
func (u *Universe) AcquireShares(
	cc CallContext,
	name AssetName,
	issuer ID,
	owner ID,
	possessor ID,
	shares int64,
	sourceOwnershipManagingContract uint16,
	sourcePossessionManagingContract uint16,
) (bool, error) {
	return u.transferManagementRights(rightsTransfer{
		cc:        cc,
		name:      name,
		issuer:    issuer,
		owner:     owner,
		possessor: possessor,
		shares:    shares,

		srcOwnershipContract:  sourceOwnershipManagingContract,
		srcPossessionContract: sourcePossessionManagingContract,
		dstOwnershipContract:  cc.ContractIndex,
		dstPossessionContract: cc.ContractIndex,

		counterparty: sourceOwnershipManagingContract,
		preHook:      PreAcquireShares,
		postHook:     PostAcquireShares,
	})
}

// ReleaseShares moves the right to manage shares of (owner, possessor) from
// the calling contract to the destination managing contract. It mirrors
// AcquireShares with the destination contract as the counterparty, consulted
// through PRE_RELEASE_SHARES / POST_RELEASE_SHARES.
func (u *Universe) ReleaseShares(
	cc CallContext,
	name AssetName,
	issuer ID,
	owner ID,
	possessor ID,
	shares int64,
	destinationOwnershipManagingContract uint16,
	destinationPossessionManagingContract uint16,
) (bool, error) {
	return u.transferManagementRights(rightsTransfer{
		cc:        cc,
		name:      name,
		issuer:    issuer,
		owner:     owner,
		possessor: possessor,
		shares:    shares,

		srcOwnershipContract:  cc.ContractIndex,
		srcPossessionContract: cc.ContractIndex,
		dstOwnershipContract:  destinationOwnershipManagingContract,
		dstPossessionContract: destinationPossessionManagingContract,

		counterparty: destinationOwnershipManagingContract,
		preHook:      PreReleaseShares,
		postHook:     PostReleaseShares,
	})
}

type rightsTransfer struct {
	cc        CallContext
	name      AssetName
	issuer    ID
	owner     ID
	possessor ID
	shares    int64

	srcOwnershipContract  uint16
	srcPossessionContract uint16
	dstOwnershipContract  uint16
	dstPossessionContract uint16

	counterparty uint16
	preHook      SystemProcedure
	postHook     SystemProcedure
}

func (u *Universe) transferManagementRights(t rightsTransfer) (bool, error) {
	if u.hooks == nil {
		return false, nil
	}
	if t.shares <= 0 || t.shares > MaxAmount {
		return false, nil
	}
	if t.cc.InvocationReward < 0 {
		return false, nil
	}
	// Split ownership/possession management is not supported: rights move
	// between one source and one destination contract.
	if t.srcOwnershipContract != t.srcPossessionContract ||
		t.dstOwnershipContract != t.dstPossessionContract {
		return false, nil
	}
	if t.counterparty == t.cc.ContractIndex {
		return false, nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	// The records must exist with enough shares before the counterparty is
	// consulted, so a doomed request doesn't spend the invocation reward.
	issuanceIdx := u.findIssuance(t.issuer, t.name)
	if issuanceIdx == NoIndex {
		return false, nil
	}
	ownershipIdx := u.findOwnership(issuanceIdx, t.owner, false, t.srcOwnershipContract)
	if ownershipIdx == NoIndex {
		return false, nil
	}
	possessionIdx := u.findPossession(ownershipIdx, t.possessor, false, t.srcPossessionContract)
	if possessionIdx == NoIndex {
		return false, nil
	}
	if u.cells[possessionIdx].shares < t.shares || u.cells[ownershipIdx].shares < t.shares {
		return false, nil
	}

	in := RightsTransferInput{
		AssetName:       t.name,
		Issuer:          t.issuer,
		SourceOwner:     t.owner,
		SourcePossessor: t.possessor,
		Shares:          t.shares,

		DestinationOwnershipManagingContract:  t.dstOwnershipContract,
		DestinationPossessionManagingContract: t.dstPossessionContract,
	}

	ok, err := u.hooks.CallSystemProcedure(t.cc.ContractIndex, t.counterparty, t.preHook, in, t.cc.InvocationReward)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if !u.canHost(2) {
		u.log.Error().
			Stringer("name", t.name).
			Stringer("owner", t.owner).
			Msg("universe full, rejecting management rights transfer")
		return false, nil
	}
	dstOwnershipIdx := u.locateOrCreateOwnership(issuanceIdx, t.owner, t.dstOwnershipContract)
	dstPossessionIdx := u.locateOrCreatePossession(dstOwnershipIdx, t.possessor, t.dstPossessionContract)

	u.cells[possessionIdx].shares -= t.shares
	u.cells[ownershipIdx].shares -= t.shares
	u.cells[dstOwnershipIdx].shares += t.shares
	u.cells[dstPossessionIdx].shares += t.shares

	u.log.Info().
		Stringer("name", t.name).
		Stringer("owner", t.owner).
		Int64("shares", t.shares).
		Uint16("from", t.srcOwnershipContract).
		Uint16("to", t.dstOwnershipContract).
		Str("hook", t.preHook.String()).
		Msg("management rights transferred")

	if _, err := u.hooks.CallSystemProcedure(t.cc.ContractIndex, t.counterparty, t.postHook, in, 0); err != nil {
		return false, err
	}
	return true, nil
}
