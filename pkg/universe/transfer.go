package universe

// Transfer return codes below zero, per the share-transfer protocol.
const (
	// transferAmountOutOfRange is returned when the requested amount is not
	// in (0, MaxAmount].
	transferAmountOutOfRange = -(MaxAmount + 1)
)

// TransferShareOwnershipAndPossession moves shares that the calling contract
// manages from (owner, possessor) to newHolder, who becomes both owner and
// possessor of the moved shares under the same managing contract.
//
// Return codes:
//   - -(MaxAmount+1) when the amount is out of range;
//   - -amount when the issuance, ownership or possession is missing, when the
//     calling contract doesn't manage the records, or when the destination
//     records cannot be hosted;
//   - possession.shares - amount (negative) on a shortfall;
//   - the source possession's remaining share count (non-negative) on success.
func (u *Universe) TransferShareOwnershipAndPossession(
	cc CallContext,
	name AssetName,
	issuer ID,
	owner ID,
	possessor ID,
	amount int64,
	newHolder ID,
) int64 {
	if amount <= 0 || amount > MaxAmount {
		return transferAmountOutOfRange
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	issuanceIdx := u.findIssuance(issuer, name)
	if issuanceIdx == NoIndex {
		return -amount
	}

	// Records managed by other contracts are invisible to this transfer.
	ownershipIdx := u.findOwnership(issuanceIdx, owner, false, cc.ContractIndex)
	if ownershipIdx == NoIndex {
		return -amount
	}
	possessionIdx := u.findPossession(ownershipIdx, possessor, false, cc.ContractIndex)
	if possessionIdx == NoIndex {
		return -amount
	}

	held := u.cells[possessionIdx].shares
	if held < amount {
		return held - amount
	}

	dstOwnershipIdx, dstPossessionIdx, ok := u.locateOrCreateHolding(issuanceIdx, newHolder, cc.ContractIndex)
	if !ok {
		u.log.Error().
			Stringer("newHolder", newHolder).
			Stringer("name", name).
			Msg("universe full, rejecting transfer")
		return -amount
	}

	u.cells[possessionIdx].shares -= amount
	u.cells[ownershipIdx].shares -= amount
	u.cells[dstOwnershipIdx].shares += amount
	u.cells[dstPossessionIdx].shares += amount

	u.log.Debug().
		Stringer("name", name).
		Stringer("owner", owner).
		Stringer("newHolder", newHolder).
		Int64("amount", amount).
		Msg("shares transferred")

	return u.cells[possessionIdx].shares
}

// locateOrCreateHolding finds or creates the (ownership, possession) record
// pair for holder under managingContract. Zero-share records left behind by
// earlier transfers are reused; the table is never shrunk. The fullness check
// up front covers both records, so the pair is created atomically. The caller
// holds the write lock.
func (u *Universe) locateOrCreateHolding(
	issuanceIdx Index,
	holder ID,
	managingContract uint16,
) (ownershipIdx, possessionIdx Index, ok bool) {
	if !u.canHost(2) {
		return NoIndex, NoIndex, false
	}
	ownershipIdx = u.locateOrCreateOwnership(issuanceIdx, holder, managingContract)
	possessionIdx = u.locateOrCreatePossession(ownershipIdx, holder, managingContract)
	return ownershipIdx, possessionIdx, true
}

func (u *Universe) locateOrCreateOwnership(issuanceIdx Index, owner ID, managingContract uint16) Index {
	idx := u.findOwnership(issuanceIdx, owner, false, managingContract)
	if idx != NoIndex {
		return idx
	}
	idx = u.allocCell(owner.hashSeed())
	u.cells[idx] = cell{
		kind:             OwnershipRecord,
		publicKey:        owner,
		parent:           issuanceIdx,
		managingContract: managingContract,
	}
	u.linkChild(issuanceIdx, idx)
	return idx
}

func (u *Universe) locateOrCreatePossession(ownershipIdx Index, possessor ID, managingContract uint16) Index {
	idx := u.findPossession(ownershipIdx, possessor, false, managingContract)
	if idx != NoIndex {
		return idx
	}
	idx = u.allocCell(possessor.hashSeed())
	u.cells[idx] = cell{
		kind:             PossessionRecord,
		publicKey:        possessor,
		parent:           ownershipIdx,
		managingContract: managingContract,
	}
	u.linkChild(ownershipIdx, idx)
	return idx
}
