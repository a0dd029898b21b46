package universe

// AssetIssuanceID identifies an issuance by issuer and packed name.
type AssetIssuanceID struct {
	Issuer    ID
	AssetName AssetName
}

// AssetOwnershipSelect filters ownership records during iteration. With
// AnyOwner set the owner field is ignored and enumeration walks the
// issuance's child list; otherwise it probes the hash table for the given
// owner. AnyManagingContract likewise widens the managing-contract filter.
type AssetOwnershipSelect struct {
	AnyOwner            bool
	Owner               ID
	AnyManagingContract bool
	ManagingContract    uint16
}

// AssetPossessionSelect filters possession records during iteration.
type AssetPossessionSelect struct {
	AnyPossessor        bool
	Possessor           ID
	AnyManagingContract bool
	ManagingContract    uint16
}

// AnyOwnership selects every ownership of an issuance.
func AnyOwnership() AssetOwnershipSelect {
	return AssetOwnershipSelect{AnyOwner: true, AnyManagingContract: true}
}

// OwnedBy selects ownerships of one owner under any managing contract.
func OwnedBy(owner ID) AssetOwnershipSelect {
	return AssetOwnershipSelect{Owner: owner, AnyManagingContract: true}
}

// AnyPossession selects every possession of an ownership.
func AnyPossession() AssetPossessionSelect {
	return AssetPossessionSelect{AnyPossessor: true, AnyManagingContract: true}
}

// PossessedBy selects possessions of one possessor under any managing contract.
func PossessedBy(possessor ID) AssetPossessionSelect {
	return AssetPossessionSelect{Possessor: possessor, AnyManagingContract: true}
}

// OwnershipIterator enumerates the ownership records of an issuance matching
// a selector. With an exact owner it probes the hash table (several records
// can share the key and differ only by managing contract); with a wildcard
// owner it walks the issuance's child list.
//
// The caller must hold the universe lock (read mode suffices) from creation
// until the iterator is abandoned.
type OwnershipIterator struct {
	u *Universe

	issuance    AssetIssuanceID
	issuanceIdx Index

	sel          AssetOwnershipSelect
	ownershipIdx Index

	// done latches exhaustion so that further Next calls stay at the end
	// instead of restarting the probe from the hash seed.
	done bool
}

// NewOwnershipIterator starts an iteration, positioned on the first matching
// record (if any). The caller holds the universe lock.
func (u *Universe) NewOwnershipIterator(issuance AssetIssuanceID, sel AssetOwnershipSelect) *OwnershipIterator {
	it := &OwnershipIterator{
		u:            u,
		issuance:     issuance,
		issuanceIdx:  u.findIssuance(issuance.Issuer, issuance.AssetName),
		sel:          sel,
		ownershipIdx: NoIndex,
	}
	if it.issuanceIdx == NoIndex {
		return it
	}
	it.Next()
	return it
}

// ReachedEnd reports whether the iteration is exhausted.
func (it *OwnershipIterator) ReachedEnd() bool {
	return it.ownershipIdx == NoIndex
}

// Next steps to the next ownership record matching the selector. It returns
// true iff it advanced to a valid record; once it returns false it stays at
// the end.
func (it *OwnershipIterator) Next() bool {
	if it.issuanceIdx == NoIndex || it.done {
		return false
	}
	u := it.u

	if !it.sel.AnyOwner {
		// Exact owner: hash probe, resuming one past the current position.
		var idx uint32
		if it.ownershipIdx == NoIndex {
			idx = it.sel.Owner.hashSeed() & u.mask
		} else {
			idx = (uint32(it.ownershipIdx) + 1) & u.mask
		}

		for u.cells[idx].kind != EmptyRecord {
			c := &u.cells[idx]
			if c.kind == OwnershipRecord && c.parent == it.issuanceIdx && c.publicKey == it.sel.Owner &&
				(it.sel.AnyManagingContract || c.managingContract == it.sel.ManagingContract) {
				it.ownershipIdx = Index(idx)
				return true
			}
			idx = (idx + 1) & u.mask
		}

		it.ownershipIdx = NoIndex
		it.done = true
		return false
	}

	// Wildcard owner: walk the issuance's child list.
	if it.ownershipIdx == NoIndex {
		it.ownershipIdx = u.firstChild[it.issuanceIdx]
	} else {
		it.ownershipIdx = u.nextSibling[it.ownershipIdx]
	}

	if !it.sel.AnyManagingContract {
		for it.ownershipIdx != NoIndex &&
			u.cells[it.ownershipIdx].managingContract != it.sel.ManagingContract {
			it.ownershipIdx = u.nextSibling[it.ownershipIdx]
		}
	}

	if it.ownershipIdx == NoIndex {
		it.done = true
		return false
	}
	return true
}

// Issuer returns the issuance's issuer id.
func (it *OwnershipIterator) Issuer() ID {
	if it.issuanceIdx == NoIndex {
		return ID{}
	}
	return it.u.cells[it.issuanceIdx].publicKey
}

// Owner returns the current record's owner id.
func (it *OwnershipIterator) Owner() ID {
	if it.ownershipIdx == NoIndex {
		return ID{}
	}
	return it.u.cells[it.ownershipIdx].publicKey
}

// OwnershipManagingContract returns the current record's managing contract.
func (it *OwnershipIterator) OwnershipManagingContract() uint16 {
	if it.ownershipIdx == NoIndex {
		return 0
	}
	return it.u.cells[it.ownershipIdx].managingContract
}

// NumberOfOwnedShares returns the current record's share count, -1 at end.
func (it *OwnershipIterator) NumberOfOwnedShares() int64 {
	if it.ownershipIdx == NoIndex {
		return -1
	}
	return it.u.cells[it.ownershipIdx].shares
}

// OwnershipIndex returns the current record's cell index, NoIndex at end.
func (it *OwnershipIterator) OwnershipIndex() Index {
	return it.ownershipIdx
}

// PossessionIterator enumerates the possession records matched by an
// ownership selector and a possession selector: for every matching ownership
// it yields the matching possessions beneath it, then advances to the next
// ownership. The caller holds the universe lock for the whole enumeration.
type PossessionIterator struct {
	OwnershipIterator

	psel          AssetPossessionSelect
	possessionIdx Index
}

// NewPossessionIterator starts an iteration, positioned on the first matching
// possession (if any). The caller holds the universe lock.
func (u *Universe) NewPossessionIterator(
	issuance AssetIssuanceID,
	osel AssetOwnershipSelect,
	psel AssetPossessionSelect,
) *PossessionIterator {
	it := &PossessionIterator{
		psel:          psel,
		possessionIdx: NoIndex,
	}
	it.u = u
	it.issuance = issuance
	it.issuanceIdx = u.findIssuance(issuance.Issuer, issuance.AssetName)
	it.sel = osel
	it.ownershipIdx = NoIndex

	if it.issuanceIdx == NoIndex {
		return it
	}
	it.OwnershipIterator.Next()
	it.Next()
	return it
}

// ReachedEnd reports whether the iteration is exhausted.
func (it *PossessionIterator) ReachedEnd() bool {
	return it.possessionIdx == NoIndex
}

// Next steps to the next possession record matching both selectors, rolling
// over to the next matching ownership when the current one is exhausted.
func (it *PossessionIterator) Next() bool {
	if it.issuanceIdx == NoIndex || it.ownershipIdx == NoIndex {
		it.possessionIdx = NoIndex
		return false
	}
	u := it.u

	if !it.psel.AnyPossessor {
		// Exact possessor: hash probe under each candidate ownership.
		for {
			var idx uint32
			if it.possessionIdx == NoIndex {
				idx = it.psel.Possessor.hashSeed() & u.mask
			} else {
				idx = (uint32(it.possessionIdx) + 1) & u.mask
			}

			for u.cells[idx].kind != EmptyRecord {
				c := &u.cells[idx]
				if c.kind == PossessionRecord && c.parent == it.ownershipIdx && c.publicKey == it.psel.Possessor &&
					(it.psel.AnyManagingContract || c.managingContract == it.psel.ManagingContract) {
					it.possessionIdx = Index(idx)
					return true
				}
				idx = (idx + 1) & u.mask
			}

			it.possessionIdx = NoIndex
			if !it.OwnershipIterator.Next() {
				return false
			}
		}
	}

	// Wildcard possessor: walk the ownership's child list.
	for {
		if it.possessionIdx == NoIndex {
			it.possessionIdx = u.firstChild[it.ownershipIdx]
		} else {
			it.possessionIdx = u.nextSibling[it.possessionIdx]
		}

		if !it.psel.AnyManagingContract {
			for it.possessionIdx != NoIndex &&
				u.cells[it.possessionIdx].managingContract != it.psel.ManagingContract {
				it.possessionIdx = u.nextSibling[it.possessionIdx]
			}
		}

		if it.possessionIdx != NoIndex {
			return true
		}
		if !it.OwnershipIterator.Next() {
			return false
		}
	}
}

// Possessor returns the current record's possessor id.
func (it *PossessionIterator) Possessor() ID {
	if it.possessionIdx == NoIndex {
		return ID{}
	}
	return it.u.cells[it.possessionIdx].publicKey
}

// PossessionManagingContract returns the current record's managing contract.
func (it *PossessionIterator) PossessionManagingContract() uint16 {
	if it.possessionIdx == NoIndex {
		return 0
	}
	return it.u.cells[it.possessionIdx].managingContract
}

// NumberOfPossessedShares returns the current record's share count, -1 at end.
func (it *PossessionIterator) NumberOfPossessedShares() int64 {
	if it.possessionIdx == NoIndex {
		return -1
	}
	return it.u.cells[it.possessionIdx].shares
}

// PossessionIndex returns the current record's cell index, NoIndex at end.
func (it *PossessionIterator) PossessionIndex() Index {
	return it.possessionIdx
}

// NumberOfShares sums possessed shares over every record matched by the
// selectors. It takes the read lock for the whole enumeration.
func (u *Universe) NumberOfShares(
	issuance AssetIssuanceID,
	osel AssetOwnershipSelect,
	psel AssetPossessionSelect,
) int64 {
	u.mu.RLock()
	defer u.mu.RUnlock()

	var total int64
	for it := u.NewPossessionIterator(issuance, osel, psel); !it.ReachedEnd(); it.Next() {
		total += it.NumberOfPossessedShares()
	}
	return total
}
