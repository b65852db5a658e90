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

// Package offchain verifies vote results aggregated off-chain. A result is
// committed as a Merkle root and stays disputable for a grace period, during
// which anyone may repair its totals with the last leaf or void it with a
// proof of a malformed leaf or of a wrong leaf count.
package offchain

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/modulardao/govcore"
	"github.com/modulardao/govcore/acl"
	"github.com/modulardao/govcore/aggregator"
	"github.com/modulardao/govcore/governance"
	"github.com/modulardao/govcore/govdb"
	"github.com/modulardao/govcore/merkle"
	"github.com/modulardao/govcore/snapshot"
	"github.com/modulardao/govcore/vote"
)

var (
	submittedCounter  = metrics.NewRegisteredCounter("govcore/result/submitted", nil)
	fixedCounter      = metrics.NewRegisteredCounter("govcore/result/fixed", nil)
	challengedCounter = metrics.NewRegisteredCounter("govcore/result/challenged", nil)
	rejectedCounter   = metrics.NewRegisteredCounter("govcore/result/rejected", nil)
	finalizedCounter  = metrics.NewRegisteredCounter("govcore/result/finalized", nil)
)

// ProposalReader gives read access to proposal records.
type ProposalReader interface {
	Proposal(id common.Hash) (*governance.Proposal, error)
}

// SnapshotReader loads snapshots by reference.
type SnapshotReader interface {
	Snapshot(ref common.Hash) (*snapshot.Snapshot, error)
}

// Verifier is the voting adapter accepting off-chain results for the
// proposals bound to its address.
type Verifier struct {
	address   common.Address
	config    *governance.Config
	db        ethdb.KeyValueStore
	acl       *acl.AccessControl
	proposals ProposalReader
	snaps     SnapshotReader
	votes     *vote.Verifier
	clock     govcore.Clock
	policy    TallyPolicy
	mu        sync.Mutex
}

// NewVerifier creates the adapter registered under address.
func NewVerifier(address common.Address, config *governance.Config, db ethdb.KeyValueStore, ac *acl.AccessControl,
	proposals ProposalReader, snaps SnapshotReader, votes *vote.Verifier, clock govcore.Clock) *Verifier {
	return &Verifier{
		address:   address,
		config:    config,
		db:        db,
		acl:       ac,
		proposals: proposals,
		snaps:     snaps,
		votes:     votes,
		clock:     clock,
		policy:    SimpleMajority{},
	}
}

// Address returns the adapter address.
func (v *Verifier) Address() common.Address {
	return v.address
}

// SetTallyPolicy replaces the policy judging final tallies.
func (v *Verifier) SetTallyPolicy(policy TallyPolicy) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.policy = policy
}

func (v *Verifier) read(id common.Hash) (*VoteResult, error) {
	res := new(VoteResult)
	ok, err := govdb.ReadVoteResult(v.db, id, res)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoResult
	}
	return res, nil
}

// Result returns a copy of the committed result of a proposal.
func (v *Verifier) Result(id common.Hash) (*VoteResult, error) {
	return v.read(id)
}

// proposal loads a proposal sponsored with this adapter.
func (v *Verifier) proposal(id common.Hash) (*governance.Proposal, error) {
	p, err := v.proposals.Proposal(id)
	if err != nil {
		return nil, err
	}
	if !p.Has(governance.FlagSponsored) {
		return nil, governance.ErrNotSponsored
	}
	if p.VotingAdapter != v.address {
		return nil, ErrWrongAdapter
	}
	return p, nil
}

// SubmitVoteResult commits an aggregated result. The first submission must
// land before the voting and grace periods have both elapsed. Once challenged,
// a new result may be submitted within one grace period of the challenge.
// Requires SubmitVoteResult.
func (v *Verifier) SubmitVoteResult(caller common.Address, id common.Hash, sub Submission) (*VoteResult, error) {
	if err := v.acl.Check(caller, acl.DAOTarget, acl.SubmitVoteResult); err != nil {
		return nil, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	p, err := v.proposal(id)
	if err != nil {
		return nil, err
	}
	now := v.clock.BlockNumber()
	prev, err := v.read(id)
	switch {
	case errors.Is(err, ErrNoResult):
		prev = nil
		if now < p.SponsoredAt || now >= v.config.VotingEnd(p.SponsoredAt)+v.config.GracePeriod {
			return nil, ErrWindowClosed
		}
	case err != nil:
		return nil, err
	case prev.State != StateChallenged:
		return nil, ErrResultAlreadySubmitted
	default:
		if now >= prev.ChallengedAt+v.config.GracePeriod {
			return nil, ErrWindowClosed
		}
	}
	snap, err := v.snaps.Snapshot(p.SnapshotRef)
	if err != nil {
		return nil, err
	}
	if sub.LeafCount == 0 || sub.LeafCount > snap.MemberCount() {
		return nil, fmt.Errorf("%w: %d leaves for %d members", ErrInvalidLeafCount, sub.LeafCount, snap.MemberCount())
	}
	res := &VoteResult{
		Root:        sub.Root,
		NbYes:       sub.NbYes,
		NbNo:        sub.NbNo,
		LeafCount:   sub.LeafCount,
		Depth:       uint64(aggregator.TreeDepth(snap)),
		SubmittedAt: now,
		Reporter:    caller,
		Cycle:       1,
		State:       StateSubmitted,
	}
	if prev != nil {
		res.Cycle = prev.Cycle + 1
	}
	if err := govdb.WriteVoteResult(v.db, id, res); err != nil {
		return nil, err
	}
	submittedCounter.Inc(1)
	log.Info("Vote result submitted", "id", id, "root", sub.Root, "yes", sub.NbYes, "no", sub.NbNo,
		"leaves", sub.LeafCount, "cycle", res.Cycle, "reporter", caller)
	return res.copy(), nil
}

// disputable loads a result that can still be fixed or challenged.
func (v *Verifier) disputable(id common.Hash) (*VoteResult, error) {
	res, err := v.read(id)
	if err != nil {
		return nil, err
	}
	switch res.State {
	case StateChallenged:
		return nil, ErrResultChallenged
	case StateFinal:
		return nil, ErrResultFinal
	}
	if v.clock.BlockNumber() >= res.GraceEnd(v.config.GracePeriod) {
		return nil, ErrGraceElapsed
	}
	return res, nil
}

// verifyLeaf checks a leaf proof against the committed root at index.
func verifyLeaf(res *VoteResult, lp *LeafProof, index uint64) error {
	if lp == nil {
		return fmt.Errorf("%w: missing leaf %d", govcore.ErrInvalidProof, index)
	}
	if lp.Proof.Index != index {
		return fmt.Errorf("%w: expected %d, got %d", ErrLeafIndex, index, lp.Proof.Index)
	}
	if !lp.Verify(res.Root, res.LeafCount, int(res.Depth)) {
		return fmt.Errorf("%w: leaf %d", govcore.ErrInvalidProof, index)
	}
	return nil
}

// FixResult replaces the committed totals with the cumulative tallies of the
// last leaf. Anyone may call it while the result is disputable; it can be
// applied repeatedly. A challenged result can no longer be fixed.
func (v *Verifier) FixResult(id common.Hash, leaf *LeafProof) (*VoteResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	res, err := v.disputable(id)
	if err != nil {
		return nil, err
	}
	if leaf == nil {
		return nil, fmt.Errorf("%w: missing leaf", govcore.ErrInvalidProof)
	}
	if leaf.Proof.Index != res.LeafCount-1 {
		return nil, ErrNotLastLeaf
	}
	if err := verifyLeaf(res, leaf, res.LeafCount-1); err != nil {
		return nil, err
	}
	oldYes, oldNo := res.NbYes, res.NbNo
	res.NbYes = leaf.Leaf.CumulativeYes
	res.NbNo = leaf.Leaf.CumulativeNo
	res.State = StateResultFixed
	if err := govdb.WriteVoteResult(v.db, id, res); err != nil {
		return nil, err
	}
	fixedCounter.Inc(1)
	log.Info("Vote result fixed", "id", id, "yes", res.NbYes, "no", res.NbNo, "oldYes", oldYes, "oldNo", oldNo)
	return res.copy(), nil
}

// challenge moves the result to Challenged.
func (v *Verifier) challenge(caller common.Address, id common.Hash, res *VoteResult, reason string) (*VoteResult, error) {
	res.State = StateChallenged
	res.ChallengedAt = v.clock.BlockNumber()
	res.Challenger = caller
	if err := govdb.WriteVoteResult(v.db, id, res); err != nil {
		return nil, err
	}
	challengedCounter.Inc(1)
	log.Warn("Vote result challenged", "id", id, "root", res.Root, "reason", reason, "challenger", caller)
	return res.copy(), nil
}

// ChallengeWrongOrder voids the result if the adjacent leaves at index-1 and
// index are not strictly ascending by voter, or if cur's tallies are not
// prev's plus cur's weight on exactly one side.
func (v *Verifier) ChallengeWrongOrder(caller common.Address, id common.Hash, index uint64, prev, cur *LeafProof) (*VoteResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	res, err := v.disputable(id)
	if err != nil {
		return nil, err
	}
	if index == 0 || index >= res.LeafCount {
		return nil, fmt.Errorf("%w: index %d", ErrLeafIndex, index)
	}
	if err := verifyLeaf(res, prev, index-1); err != nil {
		return nil, err
	}
	if err := verifyLeaf(res, cur, index); err != nil {
		return nil, err
	}
	if bytes.Compare(prev.Leaf.Voter[:], cur.Leaf.Voter[:]) >= 0 {
		return v.challenge(caller, id, res, "order")
	}
	if cur.Leaf.Choice(&prev.Leaf) == vote.ChoiceNone {
		return v.challenge(caller, id, res, "sum")
	}
	rejectedCounter.Inc(1)
	return nil, ErrChallengeRejected
}

// ChallengeBadLeaf voids the result if a single leaf is invalid: its voter
// is not in the snapshot, its signature does not come from the voter's
// delegate key at the snapshot height, its tally step does not match the
// signed choice, or its weight differs from the committed one. prev must be
// the proven preceding leaf unless cur is the first leaf. weight and
// weightProof prove the voter's committed snapshot weight.
func (v *Verifier) ChallengeBadLeaf(caller common.Address, id common.Hash, cur, prev *LeafProof, weight uint64, weightProof merkle.Proof) (*VoteResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	res, err := v.disputable(id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, fmt.Errorf("%w: missing leaf", govcore.ErrInvalidProof)
	}
	index := cur.Proof.Index
	if err := verifyLeaf(res, cur, index); err != nil {
		return nil, err
	}
	var prevLeaf *ResultLeaf
	if index > 0 {
		if prev == nil {
			return nil, fmt.Errorf("%w: missing leaf %d", ErrLeafIndex, index-1)
		}
		if err := verifyLeaf(res, prev, index-1); err != nil {
			return nil, err
		}
		prevLeaf = &prev.Leaf
	}
	p, err := v.proposals.Proposal(id)
	if err != nil {
		return nil, err
	}
	snap, err := v.snaps.Snapshot(p.SnapshotRef)
	if err != nil {
		return nil, err
	}
	leaf := &cur.Leaf
	if _, ok := snap.WeightOf(leaf.Voter); !ok {
		return v.challenge(caller, id, res, "voter not in snapshot")
	}
	signed, err := v.votes.SignedChoice(leaf.Signature, snap, id, leaf.Voter)
	if err != nil {
		return v.challenge(caller, id, res, "signature")
	}
	if !leaf.Matches(prevLeaf, signed) {
		return v.challenge(caller, id, res, "choice")
	}
	if !snapshot.VerifyMember(snap, leaf.Voter, weight, weightProof) {
		return nil, fmt.Errorf("%w: snapshot weight of %s", govcore.ErrInvalidProof, leaf.Voter.Hex())
	}
	if weight != leaf.Weight {
		return v.challenge(caller, id, res, "weight")
	}
	rejectedCounter.Inc(1)
	return nil, ErrChallengeRejected
}

// ChallengeLeafCount voids the result if its claimed leaf count disagrees
// with the committed tree. node is the subtree at position proof.Index of the
// given level, counted from the leaves. An empty (zero) subtree starting
// inside the claimed count proves it over-claimed; a non-empty one starting
// at or past it proves it under-claimed.
func (v *Verifier) ChallengeLeafCount(caller common.Address, id common.Hash, level uint64, node common.Hash, proof merkle.Proof) (*VoteResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	res, err := v.disputable(id)
	if err != nil {
		return nil, err
	}
	if level > res.Depth || !merkle.VerifyNode(res.Root, int(res.Depth), int(level), node, proof) {
		return nil, fmt.Errorf("%w: node %d at level %d", govcore.ErrInvalidProof, proof.Index, level)
	}
	start := proof.Index << level
	empty := node == (common.Hash{})
	switch {
	case empty && start < res.LeafCount:
		return v.challenge(caller, id, res, "leaf count over-claimed")
	case !empty && start >= res.LeafCount:
		return v.challenge(caller, id, res, "leaf count under-claimed")
	}
	rejectedCounter.Inc(1)
	return nil, ErrChallengeRejected
}

// finalizable reports whether res may become Final: its grace period and the
// proposal's voting period have both elapsed.
func (v *Verifier) finalizable(p *governance.Proposal, res *VoteResult) bool {
	now := v.clock.BlockNumber()
	return res.State.Disputable() &&
		now >= res.GraceEnd(v.config.GracePeriod) &&
		now >= v.config.VotingEnd(p.SponsoredAt)
}

func (v *Verifier) finalize(id common.Hash, res *VoteResult) error {
	res.State = StateFinal
	if err := govdb.WriteVoteResult(v.db, id, res); err != nil {
		return err
	}
	finalizedCounter.Inc(1)
	log.Info("Vote result final", "id", id, "yes", res.NbYes, "no", res.NbNo, "cycle", res.Cycle)
	return nil
}

// Finalize freezes an unchallenged result once its grace period elapsed.
func (v *Verifier) Finalize(id common.Hash) (*VoteResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	p, err := v.proposal(id)
	if err != nil {
		return nil, err
	}
	res, err := v.read(id)
	if err != nil {
		return nil, err
	}
	switch res.State {
	case StateFinal:
		return nil, ErrResultFinal
	case StateChallenged:
		return nil, ErrResultChallenged
	}
	if !v.finalizable(p, res) {
		return nil, ErrGracePending
	}
	if err := v.finalize(id, res); err != nil {
		return nil, err
	}
	return res.copy(), nil
}

// Outcome implements governance.VotingAdapter. A result whose grace period
// elapsed unchallenged is finalized on the way.
func (v *Verifier) Outcome(id common.Hash) (governance.Outcome, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	p, err := v.proposal(id)
	if err != nil {
		return governance.OutcomePending, err
	}
	res, err := v.read(id)
	if errors.Is(err, ErrNoResult) {
		return governance.OutcomePending, nil
	} else if err != nil {
		return governance.OutcomePending, err
	}
	if res.State != StateFinal {
		if !v.finalizable(p, res) {
			return governance.OutcomePending, nil
		}
		if err := v.finalize(id, res); err != nil {
			return governance.OutcomePending, err
		}
	}
	snap, err := v.snaps.Snapshot(p.SnapshotRef)
	if err != nil {
		return governance.OutcomePending, err
	}
	return v.policy.Decide(res.NbYes, res.NbNo, snap.TotalWeight), nil
}
