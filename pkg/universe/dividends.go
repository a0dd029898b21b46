package universe

// DistributeDividends pays amountPerShare energy to every possessor of the
// calling contract's self-issuance (the issuance carrying the contract's
// asset name with the zero issuer).
//
// The total payout is amountPerShare times the computor count, debited from
// the contract's energy balance up front. The payout walks the issuance's
// ownership list and each ownership's possession list, crediting each
// possessor, recording the transfer with the action tracker and logging it.
// The walk stops once the computor count worth of shares has been paid; by
// the share-conservation invariants that covers every possession exactly
// once.
//
// It returns false when the amount is out of range or the contract's balance
// can't cover the payout. ErrTooManyActions is returned when the action
// tracker refuses a transfer, aborting the contract call.
func (u *Universe) DistributeDividends(cc CallContext, amountPerShare int64) (bool, error) {
	if amountPerShare < 0 || amountPerShare > MaxAmount/u.numComputors {
		return false, nil
	}

	spectrumIdx, ok := u.energy.SpectrumIndex(cc.ContractID)
	if !ok {
		return false, nil
	}

	total := amountPerShare * u.numComputors
	if u.energy.Energy(spectrumIdx) < total {
		return false, nil
	}
	if !u.energy.DecreaseEnergy(spectrumIdx, total) {
		return false, nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	issuanceIdx := u.findIssuance(ID{}, cc.ContractAssetName)
	if issuanceIdx == NoIndex {
		return true, nil
	}

	var paidShares int64
	for ownershipIdx := u.firstChild[issuanceIdx]; ownershipIdx != NoIndex && paidShares < u.numComputors; ownershipIdx = u.nextSibling[ownershipIdx] {
		for possessionIdx := u.firstChild[ownershipIdx]; possessionIdx != NoIndex; possessionIdx = u.nextSibling[possessionIdx] {
			c := &u.cells[possessionIdx]
			paidShares += c.shares

			amount := amountPerShare * c.shares
			u.energy.IncreaseEnergy(c.publicKey, amount)

			transfer := QuTransfer{Source: cc.ContractID, Destination: c.publicKey, Amount: amount}
			if u.tracker != nil {
				if !u.tracker.AddQuTransfer(transfer) {
					return false, ErrTooManyActions
				}
				u.tracker.LogQuTransfer(transfer)
			}
		}
	}

	u.log.Info().
		Stringer("contract", cc.ContractID).
		Int64("amountPerShare", amountPerShare).
		Int64("total", total).
		Msg("dividends distributed")

	return true, nil
}
