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

// Package vote defines signed vote attestations and their verification
// against a snapshot.
package vote

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Choice is the option a vote is cast for.
type Choice uint8

const (
	ChoiceNone Choice = iota
	ChoiceYes
	ChoiceNo
)

// Choices lists the valid choices in recovery order.
var Choices = []Choice{ChoiceYes, ChoiceNo}

func (c Choice) String() string {
	switch c {
	case ChoiceYes:
		return "yes"
	case ChoiceNo:
		return "no"
	default:
		return fmt.Sprintf("choice(%d)", uint8(c))
	}
}

// Valid reports whether c is a castable choice.
func (c Choice) Valid() bool {
	return c == ChoiceYes || c == ChoiceNo
}

var (
	bytes32Ty, _ = abi.NewType("bytes32", "", nil)
	addressTy, _ = abi.NewType("address", "", nil)
	uint8Ty, _   = abi.NewType("uint8", "", nil)

	rootArgs   = abi.Arguments{{Type: bytes32Ty}, {Type: addressTy}, {Type: bytes32Ty}}
	choiceArgs = abi.Arguments{{Type: bytes32Ty}, {Type: uint8Ty}}
)

// Attestation is a member's signed vote on a proposal.
type Attestation struct {
	Voter      common.Address
	ProposalID common.Hash
	Choice     Choice
	Signature  []byte // 65 bytes [R || S || V]
}

// ProposalRoot binds a proposal to the snapshot it is voted on and to the
// DAO, so a signature cannot be replayed across snapshots or DAOs.
func ProposalRoot(snapshotRoot common.Hash, daoID common.Address, proposalID common.Hash) common.Hash {
	enc, err := rootArgs.Pack([32]byte(snapshotRoot), daoID, [32]byte(proposalID))
	if err != nil {
		panic(err)
	}
	return crypto.Keccak256Hash(enc)
}

// Digest is the EIP-191 personal message hash a delegate key signs.
func Digest(proposalRoot common.Hash, choice Choice) common.Hash {
	enc, err := choiceArgs.Pack([32]byte(proposalRoot), uint8(choice))
	if err != nil {
		panic(err)
	}
	return common.BytesToHash(accounts.TextHash(crypto.Keccak256(enc)))
}

// Sign produces an attestation by the given delegate key on behalf of voter.
func Sign(key *ecdsa.PrivateKey, voter common.Address, proposalID, proposalRoot common.Hash, choice Choice) (*Attestation, error) {
	if !choice.Valid() {
		return nil, ErrUnknownChoice
	}
	sig, err := crypto.Sign(Digest(proposalRoot, choice).Bytes(), key)
	if err != nil {
		return nil, err
	}
	return &Attestation{
		Voter:      voter,
		ProposalID: proposalID,
		Choice:     choice,
		Signature:  sig,
	}, nil
}

// Recover returns the address that signed the given choice.
func Recover(sig []byte, proposalRoot common.Hash, choice Choice) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, ErrBadSignature
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig = append([]byte(nil), sig...)
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(Digest(proposalRoot, choice).Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// RecoverChoice finds the choice that sig is a signature of by signer. Leaves
// in a result tree carry no choice field, so it is recovered this way.
func RecoverChoice(sig []byte, proposalRoot common.Hash, signer common.Address) (Choice, bool) {
	for _, choice := range Choices {
		addr, err := Recover(sig, proposalRoot, choice)
		if err == nil && addr == signer {
			return choice, true
		}
	}
	return ChoiceNone, false
}
