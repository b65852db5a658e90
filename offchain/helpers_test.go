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

package offchain

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/modulardao/govcore"
	"github.com/modulardao/govcore/acl"
	"github.com/modulardao/govcore/aggregator"
	"github.com/modulardao/govcore/governance"
	"github.com/modulardao/govcore/member"
	"github.com/modulardao/govcore/merkle"
	"github.com/modulardao/govcore/snapshot"
	"github.com/modulardao/govcore/vote"
)

var (
	daoID     = common.HexToAddress("0xda0")
	admin     = common.HexToAddress("0xad")
	submitter = common.HexToAddress("0x5b")
	reporter  = common.HexToAddress("0xa99")
	anyone    = common.HexToAddress("0xa11")
	adapter   = common.HexToAddress("0xada")
)

const (
	startBlock   = 100
	votingPeriod = 10
	gracePeriod  = 5
)

type weightMap map[common.Address]uint64

func (w weightMap) WeightOf(addr common.Address) (uint64, error) {
	return w[addr], nil
}

type testMember struct {
	key    *ecdsa.PrivateKey
	addr   common.Address
	weight uint64
}

type testEnv struct {
	clock    *govcore.ManualClock
	members  []testMember
	registry *member.Registry
	snaps    *snapshot.Registry
	gov      *governance.Registry
	verifier *Verifier
}

// newTestEnv wires a DAO whose members are keyed by their own address and
// carry the given weights.
func newTestEnv(t *testing.T, weights ...uint64) *testEnv {
	db := rawdb.NewMemoryDatabase()
	ac := acl.New(db)
	err := ac.Bootstrap([]acl.Entry{
		{Subject: admin, Target: acl.DAOTarget, Flags: acl.MustFlags(acl.NewMember, acl.ReplaceAdapter)},
		{Subject: submitter, Target: acl.DAOTarget, Flags: acl.MustFlags(acl.SubmitProposal)},
		{Subject: reporter, Target: acl.DAOTarget, Flags: acl.MustFlags(acl.SubmitVoteResult)},
		{Subject: adapter, Target: acl.DAOTarget, Flags: acl.MustFlags(acl.TakeSnapshot)},
	})
	if err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	env := &testEnv{clock: govcore.NewManualClock(startBlock, 1000)}
	env.registry = member.NewRegistry(db, ac, env.clock)

	source := make(weightMap)
	for _, w := range weights {
		key, err := crypto.GenerateKey()
		if err != nil {
			t.Fatalf("key generation failed: %v", err)
		}
		m := testMember{key: key, addr: crypto.PubkeyToAddress(key.PublicKey), weight: w}
		if err := env.registry.Add(admin, m.addr, common.Address{}); err != nil {
			t.Fatalf("add member failed: %v", err)
		}
		source[m.addr] = w
		env.members = append(env.members, m)
	}
	config := governance.DefaultConfig()
	config.DaoID = daoID
	config.VotingPeriod = votingPeriod
	config.GracePeriod = gracePeriod

	env.snaps = snapshot.NewRegistry(db, ac, env.registry, source, env.clock, 8)
	env.gov = governance.NewRegistry(config, db, ac, env.snaps, env.clock)
	env.verifier = NewVerifier(adapter, config, db, ac, env.gov, env.snaps, vote.NewVerifier(daoID, env.registry), env.clock)
	if err := env.gov.RegisterAdapter(admin, adapter, env.verifier); err != nil {
		t.Fatalf("register adapter failed: %v", err)
	}
	return env
}

// propose submits and sponsors a proposal, returning its snapshot.
func (env *testEnv) propose(t *testing.T, id common.Hash) *snapshot.Snapshot {
	if _, err := env.gov.Submit(submitter, id); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	p, err := env.gov.Sponsor(submitter, id, adapter)
	if err != nil {
		t.Fatalf("sponsor failed: %v", err)
	}
	snap, err := env.snaps.Snapshot(p.SnapshotRef)
	if err != nil {
		t.Fatalf("snapshot lookup failed: %v", err)
	}
	return snap
}

// castVotes signs a choice for every member with a non-zero choice.
func (env *testEnv) castVotes(t *testing.T, id common.Hash, snap *snapshot.Snapshot, choices []vote.Choice) []*vote.Attestation {
	root := vote.ProposalRoot(snap.Root, daoID, id)
	var atts []*vote.Attestation
	for i, c := range choices {
		if c == vote.ChoiceNone {
			continue
		}
		att, err := vote.Sign(env.members[i].key, env.members[i].addr, id, root, c)
		if err != nil {
			t.Fatalf("sign failed: %v", err)
		}
		atts = append(atts, att)
	}
	return atts
}

func (env *testEnv) aggregate(t *testing.T, id common.Hash, snap *snapshot.Snapshot, choices []vote.Choice) *aggregator.Result {
	res, err := aggregator.Aggregate(snap, env.castVotes(t, id, snap, choices))
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	return res
}

// leafTree commits arbitrary, possibly malformed, leaves.
type leafTree struct {
	leaves []ResultLeaf
	tree   *merkle.Tree
}

func newLeafTree(leaves []ResultLeaf, depth int) *leafTree {
	hashes := make([]common.Hash, len(leaves))
	for i := range leaves {
		hashes[i] = leaves[i].Hash()
	}
	return &leafTree{leaves: leaves, tree: merkle.NewDepth(hashes, depth)}
}

// nodeProof proves the subtree at pos of level, which may be empty.
func (lt *leafTree) nodeProof(t *testing.T, level, pos int) (common.Hash, merkle.Proof) {
	p, err := lt.tree.ProveNode(level, pos)
	if err != nil {
		t.Fatalf("prove node %d/%d failed: %v", level, pos, err)
	}
	return lt.tree.Node(level, pos), p
}

func (lt *leafTree) proof(t *testing.T, i int) *LeafProof {
	p, err := lt.tree.Prove(i)
	if err != nil {
		t.Fatalf("prove %d failed: %v", i, err)
	}
	return &LeafProof{Leaf: lt.leaves[i], Proof: p}
}

func (lt *leafTree) submission() Submission {
	last := lt.leaves[len(lt.leaves)-1]
	return Submission{
		Root:      lt.tree.Root(),
		NbYes:     last.CumulativeYes,
		NbNo:      last.CumulativeNo,
		LeafCount: uint64(len(lt.leaves)),
	}
}

func resultSubmission(res *aggregator.Result) Submission {
	return Submission{Root: res.Root, NbYes: res.NbYes, NbNo: res.NbNo, LeafCount: res.LeafCount()}
}

func mustProof(t *testing.T, res *aggregator.Result, i int) *LeafProof {
	p, err := res.Proof(i)
	if err != nil {
		t.Fatalf("proof %d failed: %v", i, err)
	}
	return p
}

// signedChoices recovers the choice behind every leaf signature.
func signedChoices(t *testing.T, snap *snapshot.Snapshot, id common.Hash, leaves []ResultLeaf) []vote.Choice {
	root := vote.ProposalRoot(snap.Root, daoID, id)
	choices := make([]vote.Choice, len(leaves))
	for i := range leaves {
		c, ok := vote.RecoverChoice(leaves[i].Signature, root, leaves[i].Voter)
		if !ok {
			t.Fatalf("leaf %d: unrecoverable choice", i)
		}
		choices[i] = c
	}
	return choices
}

// relink recomputes the cumulative tallies of leaves in their current order.
func relink(leaves []ResultLeaf, choices []vote.Choice) {
	var cumYes, cumNo uint64
	for i := range leaves {
		if choices[i] == vote.ChoiceYes {
			cumYes += leaves[i].Weight
		} else {
			cumNo += leaves[i].Weight
		}
		leaves[i].CumulativeYes, leaves[i].CumulativeNo = cumYes, cumNo
	}
}

func snapProof(t *testing.T, snap *snapshot.Snapshot, addr common.Address) (uint64, merkle.Proof) {
	w, p, err := snap.Prove(addr)
	if err != nil {
		t.Fatalf("snapshot proof failed: %v", err)
	}
	return w, p
}
