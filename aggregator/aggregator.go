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

// Package aggregator turns a set of vote attestations into the ordered,
// prefix-summed result tree that is committed on chain.
package aggregator

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/modulardao/govcore/merkle"
	"github.com/modulardao/govcore/snapshot"
	"github.com/modulardao/govcore/vote"
)

var (
	addressTy, _ = abi.NewType("address", "", nil)
	uint256Ty, _ = abi.NewType("uint256", "", nil)
	bytes32Ty, _ = abi.NewType("bytes32", "", nil)

	leafArgs = abi.Arguments{{Type: addressTy}, {Type: uint256Ty}, {Type: bytes32Ty}, {Type: uint256Ty}, {Type: uint256Ty}}
)

// ResultLeaf is one vote in the result tree. Cumulative tallies include the
// leaf's own weight.
type ResultLeaf struct {
	Voter         common.Address
	Weight        uint64
	Signature     []byte
	CumulativeYes uint64
	CumulativeNo  uint64
}

// Hash is keccak256(abi.encode(voter, weight, keccak256(signature), cumYes, cumNo)).
func (l *ResultLeaf) Hash() common.Hash {
	enc, err := leafArgs.Pack(
		l.Voter,
		new(big.Int).SetUint64(l.Weight),
		[32]byte(crypto.Keccak256Hash(l.Signature)),
		new(big.Int).SetUint64(l.CumulativeYes),
		new(big.Int).SetUint64(l.CumulativeNo),
	)
	if err != nil {
		panic(err)
	}
	return crypto.Keccak256Hash(enc)
}

// Step returns the tally increment of l over its predecessor. For the first
// leaf prev is nil.
func (l *ResultLeaf) Step(prev *ResultLeaf) (yes, no uint64, ok bool) {
	var prevYes, prevNo uint64
	if prev != nil {
		prevYes, prevNo = prev.CumulativeYes, prev.CumulativeNo
	}
	if l.CumulativeYes < prevYes || l.CumulativeNo < prevNo {
		return 0, 0, false
	}
	return l.CumulativeYes - prevYes, l.CumulativeNo - prevNo, true
}

// Choice returns the choice implied by the step from prev, or ChoiceNone if
// the step is not exactly the leaf weight on one side.
func (l *ResultLeaf) Choice(prev *ResultLeaf) vote.Choice {
	yes, no, ok := l.Step(prev)
	switch {
	case !ok:
		return vote.ChoiceNone
	case yes == l.Weight && no == 0:
		return vote.ChoiceYes
	case no == l.Weight && yes == 0:
		return vote.ChoiceNo
	}
	return vote.ChoiceNone
}

// Matches reports whether the step from prev adds the leaf weight to the side
// of choice and nothing to the other. A zero-weight leaf matches either choice.
func (l *ResultLeaf) Matches(prev *ResultLeaf, choice vote.Choice) bool {
	yes, no, ok := l.Step(prev)
	switch {
	case !ok:
		return false
	case choice == vote.ChoiceYes:
		return yes == l.Weight && no == 0
	case choice == vote.ChoiceNo:
		return no == l.Weight && yes == 0
	}
	return false
}

// LeafProof is a leaf together with its inclusion proof in a result tree.
type LeafProof struct {
	Leaf  ResultLeaf
	Proof merkle.Proof
}

// Verify checks the proof against root for a tree of count leaves padded to
// depth.
func (p *LeafProof) Verify(root common.Hash, count uint64, depth int) bool {
	return p.Proof.Index < count && merkle.VerifyNode(root, depth, 0, p.Leaf.Hash(), p.Proof)
}

// TreeDepth is the depth of every result tree over snap. It depends on the
// member count only, never on how many members voted.
func TreeDepth(snap *snapshot.Snapshot) int {
	return merkle.Depth(snap.MemberCount())
}

// Result is an aggregated vote tally and its commitment.
type Result struct {
	Root   common.Hash
	NbYes  uint64
	NbNo   uint64
	Leaves []ResultLeaf

	tree *merkle.Tree
}

// LeafCount is the number of committed leaves.
func (r *Result) LeafCount() uint64 {
	return uint64(len(r.Leaves))
}

// Depth is the depth of the committed tree.
func (r *Result) Depth() int {
	return r.tree.Depth()
}

// Proof returns leaf i with its inclusion proof.
func (r *Result) Proof(i int) (*LeafProof, error) {
	if i < 0 || i >= len(r.Leaves) {
		return nil, ErrLeafIndex
	}
	proof, err := r.tree.Prove(i)
	if err != nil {
		return nil, err
	}
	return &LeafProof{Leaf: r.Leaves[i], Proof: proof}, nil
}

// Aggregate orders the attestations by voter, accumulates the snapshot
// weights into per-leaf prefix sums and computes the result root. Signatures
// are not checked here, see VerifyAll.
func Aggregate(snap *snapshot.Snapshot, atts []*vote.Attestation) (*Result, error) {
	if len(atts) == 0 {
		return nil, ErrNoVotes
	}
	var (
		seen     = mapset.NewThreadUnsafeSet[common.Address]()
		proposal = atts[0].ProposalID
		sorted   = make([]*vote.Attestation, 0, len(atts))
	)
	for _, att := range atts {
		if att.ProposalID != proposal {
			return nil, ErrMixedProposals
		}
		if !att.Choice.Valid() {
			return nil, fmt.Errorf("voter %s: %w", att.Voter.Hex(), vote.ErrUnknownChoice)
		}
		if !seen.Add(att.Voter) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateVoter, att.Voter.Hex())
		}
		sorted = append(sorted, att)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].Voter[:], sorted[j].Voter[:]) < 0
	})

	res := &Result{Leaves: make([]ResultLeaf, len(sorted))}
	hashes := make([]common.Hash, len(sorted))
	for i, att := range sorted {
		weight, ok := snap.WeightOf(att.Voter)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownVoter, att.Voter.Hex())
		}
		// Snapshot weights sum to at most TotalWeight, no overflow possible
		if att.Choice == vote.ChoiceYes {
			res.NbYes += weight
		} else {
			res.NbNo += weight
		}
		res.Leaves[i] = ResultLeaf{
			Voter:         att.Voter,
			Weight:        weight,
			Signature:     common.CopyBytes(att.Signature),
			CumulativeYes: res.NbYes,
			CumulativeNo:  res.NbNo,
		}
		hashes[i] = res.Leaves[i].Hash()
	}
	res.tree = merkle.NewDepth(hashes, TreeDepth(snap))
	res.Root = res.tree.Root()

	log.Debug("Aggregated vote result", "proposal", proposal, "root", res.Root,
		"leaves", len(res.Leaves), "yes", res.NbYes, "no", res.NbNo)
	return res, nil
}
