package universe

// IssueAsset creates a new asset issuance together with the issuer's initial
// ownership and possession records, both managed by the calling contract.
//
// It returns the issued share count on success and 0 on any validation
// failure, on a duplicate (issuer, name) pair, and when the table cannot host
// three more records.
func (u *Universe) IssueAsset(
	cc CallContext,
	name AssetName,
	issuer ID,
	decimals int8,
	shares int64,
	unit AssetUnit,
) int64 {
	if !name.Valid() || !unit.Valid() {
		return 0
	}
	// Either the invocator or the contract itself can issue; zero is prohibited.
	if issuer.IsZero() || (issuer != cc.ContractID && issuer != cc.Invocator) {
		return 0
	}
	if shares <= 0 || shares > MaxAmount {
		return 0
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.findIssuance(issuer, name) != NoIndex {
		return 0
	}
	if !u.canHost(3) {
		u.log.Error().
			Stringer("issuer", issuer).
			Stringer("name", name).
			Msg("universe full, rejecting issuance")
		return 0
	}

	seed := issuer.hashSeed()

	issuanceIdx := u.allocCell(seed)
	u.cells[issuanceIdx] = cell{
		kind:      IssuanceRecord,
		publicKey: issuer,
		name:      name,
		decimals:  decimals,
		unit:      unit,
	}

	ownershipIdx := u.allocCell(seed)
	u.cells[ownershipIdx] = cell{
		kind:             OwnershipRecord,
		publicKey:        issuer,
		parent:           issuanceIdx,
		managingContract: cc.ContractIndex,
		shares:           shares,
	}
	u.linkChild(issuanceIdx, ownershipIdx)

	possessionIdx := u.allocCell(seed)
	u.cells[possessionIdx] = cell{
		kind:             PossessionRecord,
		publicKey:        issuer,
		parent:           ownershipIdx,
		managingContract: cc.ContractIndex,
		shares:           shares,
	}
	u.linkChild(ownershipIdx, possessionIdx)

	u.log.Info().
		Stringer("issuer", issuer).
		Stringer("name", name).
		Int64("shares", shares).
		Uint16("managingContract", cc.ContractIndex).
		Msg("asset issued")

	return shares
}

// AssetIssuance is a read-only view of an issuance record.
type AssetIssuance struct {
	Issuer    ID
	AssetName AssetName
	Decimals  int8
	Unit      AssetUnit
}

// Issuance returns the issuance record for (issuer, name), if present.
func (u *Universe) Issuance(issuer ID, name AssetName) (AssetIssuance, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	idx := u.findIssuance(issuer, name)
	if idx == NoIndex {
		return AssetIssuance{}, false
	}
	c := &u.cells[idx]
	return AssetIssuance{
		Issuer:    c.publicKey,
		AssetName: c.name,
		Decimals:  c.decimals,
		Unit:      c.unit,
	}, true
}
