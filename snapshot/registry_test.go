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

package snapshot

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/modulardao/govcore"
	"github.com/modulardao/govcore/acl"
	"github.com/modulardao/govcore/member"
)

var (
	admin   = common.HexToAddress("0xad")
	adapter = common.HexToAddress("0xada")
)

// mockWeights is a WeightSource backed by a map
type mockWeights map[common.Address]uint64

func (m mockWeights) WeightOf(addr common.Address) (uint64, error) {
	return m[addr], nil
}

type testEnv struct {
	snaps   *Registry
	members *member.Registry
	weights mockWeights
	clock   *govcore.ManualClock
}

func newTestEnv(t *testing.T) *testEnv {
	db := rawdb.NewMemoryDatabase()
	ac := acl.New(db)
	err := ac.Bootstrap([]acl.Entry{
		{Subject: admin, Target: acl.DAOTarget, Flags: acl.MustFlags(acl.NewMember, acl.UpdateDelegateKey)},
		{Subject: adapter, Target: acl.DAOTarget, Flags: acl.MustFlags(acl.TakeSnapshot)},
	})
	if err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	clock := govcore.NewManualClock(100, 10000)
	members := member.NewRegistry(db, ac, clock)
	weights := make(mockWeights)
	return &testEnv{
		snaps:   NewRegistry(db, ac, members, weights, clock, 4),
		members: members,
		weights: weights,
		clock:   clock,
	}
}

func (env *testEnv) addMember(t *testing.T, addr common.Address, weight uint64) {
	if err := env.members.Add(admin, addr, common.Address{}); err != nil {
		t.Fatalf("failed to add member: %v", err)
	}
	env.weights[addr] = weight
}

func TestTakeSnapshot(t *testing.T) {
	env := newTestEnv(t)
	m := common.HexToAddress("0x2")
	n := common.HexToAddress("0x1")
	env.addMember(t, m, 10)
	env.addMember(t, n, 5)

	if _, err := env.snaps.TakeSnapshot(admin); !errors.Is(err, govcore.ErrAccessDenied) {
		t.Fatalf("expected access denied, got %v", err)
	}
	snap, err := env.snaps.TakeSnapshot(adapter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.TotalWeight != 15 || snap.MemberCount() != 2 || snap.BlockHeight != 100 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if snap.Entries[0].Address != n {
		t.Error("entries must be sorted by address")
	}

	// Recomputable off-chain from the entries alone
	expected := (&Snapshot{Entries: []Entry{{n, 5}, {m, 10}}}).tree().Root()
	if snap.Root != expected {
		t.Errorf("root mismatch: %x vs %x", snap.Root, expected)
	}

	weight, proof, err := env.snaps.Prove(snap.Ref(), m)
	if err != nil {
		t.Fatalf("prove failed: %v", err)
	}
	if weight != 10 || !VerifyMember(snap, m, 10, proof) {
		t.Error("membership proof rejected")
	}
	if VerifyMember(snap, m, 11, proof) {
		t.Error("wrong weight accepted")
	}
	if _, _, err := env.snaps.Prove(snap.Ref(), common.HexToAddress("0x9")); !errors.Is(err, ErrNotInSnapshot) {
		t.Errorf("expected not in snapshot, got %v", err)
	}
}

func TestTakeSnapshot_Reuse(t *testing.T) {
	env := newTestEnv(t)
	env.addMember(t, common.HexToAddress("0x1"), 7)

	first, err := env.snaps.TakeSnapshot(adapter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env.clock.Advance(3, 12)

	second, err := env.snaps.TakeSnapshot(adapter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Ref() != first.Ref() {
		t.Error("unchanged weights should reuse the snapshot")
	}

	// Weight change produces a new root
	env.weights[common.HexToAddress("0x1")] = 8
	third, err := env.snaps.TakeSnapshot(adapter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if third.Root == first.Root || third.BlockHeight != 103 {
		t.Errorf("expected a fresh snapshot, got %+v", third)
	}

	// Same root, but a delegate rotation forces a new height
	if err := env.members.UpdateDelegateKey(admin, common.HexToAddress("0x1"), common.HexToAddress("0xd1")); err != nil {
		t.Fatalf("rotation failed: %v", err)
	}
	env.clock.Advance(1, 12)
	fourth, err := env.snaps.TakeSnapshot(adapter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fourth.Root != third.Root || fourth.Ref() == third.Ref() {
		t.Error("delegate change should create a new snapshot with the same root")
	}

	// Old snapshots stay retrievable
	old, err := env.snaps.Snapshot(first.Ref())
	if err != nil || old.Root != first.Root {
		t.Errorf("failed to load retained snapshot: %v", err)
	}
}

func TestTakeSnapshot_NoMembers(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.snaps.TakeSnapshot(adapter); !errors.Is(err, ErrNoMembers) {
		t.Errorf("expected %v, got %v", ErrNoMembers, err)
	}
}

func TestNew(t *testing.T) {
	a, b := common.HexToAddress("0x1"), common.HexToAddress("0x2")
	if _, err := New(1, []Entry{{a, 1}, {a, 2}}); !errors.Is(err, ErrDuplicateEntry) {
		t.Errorf("expected %v, got %v", ErrDuplicateEntry, err)
	}
	if _, err := New(1, []Entry{{a, ^uint64(0)}, {b, 1}}); !errors.Is(err, ErrWeightOverflow) {
		t.Errorf("expected %v, got %v", ErrWeightOverflow, err)
	}
	s1, err := New(1, []Entry{{b, 2}, {a, 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s2, _ := New(1, []Entry{{a, 1}, {b, 2}})
	if s1.Root != s2.Root {
		t.Error("root must not depend on input order")
	}
}
