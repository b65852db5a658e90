// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package vote

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/modulardao/govcore/merkle"
	"github.com/modulardao/govcore/snapshot"
)

// DelegateResolver resolves a member's delegate key at a block height.
type DelegateResolver interface {
	DelegateKeyAt(addr common.Address, height uint64) (common.Address, bool)
}

// Verifier checks attestations cast in one DAO.
type Verifier struct {
	daoID     common.Address
	delegates DelegateResolver
}

// NewVerifier creates a verifier for the given DAO.
func NewVerifier(daoID common.Address, delegates DelegateResolver) *Verifier {
	return &Verifier{daoID: daoID, delegates: delegates}
}

// DaoID returns the DAO the verifier binds signatures to.
func (v *Verifier) DaoID() common.Address {
	return v.daoID
}

// ProposalRoot returns the root signed by voters of proposalID on snap.
func (v *Verifier) ProposalRoot(snap *snapshot.Snapshot, proposalID common.Hash) common.Hash {
	return ProposalRoot(snap.Root, v.daoID, proposalID)
}

// Verify checks that att is signed by the voter's delegate key in force at
// the snapshot height and that weight is committed for the voter in snap.
func (v *Verifier) Verify(att *Attestation, snap *snapshot.Snapshot, weight uint64, proof merkle.Proof) error {
	if err := v.CheckSignature(att, snap); err != nil {
		return err
	}
	if !snapshot.VerifyMember(snap, att.Voter, weight, proof) {
		return ErrWeightNotProven
	}
	return nil
}

// CheckSignature verifies only the signature part of an attestation.
func (v *Verifier) CheckSignature(att *Attestation, snap *snapshot.Snapshot) error {
	if !att.Choice.Valid() {
		return ErrUnknownChoice
	}
	delegate, ok := v.delegates.DelegateKeyAt(att.Voter, snap.BlockHeight)
	if !ok {
		return ErrNotDelegate
	}
	signer, err := Recover(att.Signature, v.ProposalRoot(snap, att.ProposalID), att.Choice)
	if err != nil {
		return err
	}
	if signer != delegate {
		return ErrNotDelegate
	}
	return nil
}

// SignedChoice returns the choice sig commits voter to, resolving the delegate
// key at the snapshot height.
func (v *Verifier) SignedChoice(sig []byte, snap *snapshot.Snapshot, proposalID common.Hash, voter common.Address) (Choice, error) {
	delegate, ok := v.delegates.DelegateKeyAt(voter, snap.BlockHeight)
	if !ok {
		return ChoiceNone, ErrNotDelegate
	}
	choice, ok := RecoverChoice(sig, v.ProposalRoot(snap, proposalID), delegate)
	if !ok {
		return ChoiceNone, ErrNotDelegate
	}
	return choice, nil
}
