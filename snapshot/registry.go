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

// Package snapshot commits member voting weights at a block height as a
// Merkle root that off-chain aggregators and on-chain verifiers agree on.
package snapshot

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/lru"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/modulardao/govcore"
	"github.com/modulardao/govcore/acl"
	"github.com/modulardao/govcore/govdb"
	"github.com/modulardao/govcore/member"
	"github.com/modulardao/govcore/merkle"
)

var (
	takenCounter  = metrics.NewRegisteredCounter("govcore/snapshot/taken", nil)
	reusedCounter = metrics.NewRegisteredCounter("govcore/snapshot/reused", nil)
)

// WeightSource is the external ledger supplying current member weights.
type WeightSource interface {
	WeightOf(addr common.Address) (uint64, error)
}

// Registry creates and retains snapshots.
type Registry struct {
	db      ethdb.KeyValueStore
	acl     *acl.AccessControl
	members *member.Registry
	weights WeightSource
	clock   govcore.Clock
	cache   *lru.Cache[common.Hash, *Snapshot]
	mu      sync.Mutex
}

// NewRegistry creates a snapshot registry caching up to cacheSize decoded
// snapshots.
func NewRegistry(db ethdb.KeyValueStore, ac *acl.AccessControl, members *member.Registry, weights WeightSource, clock govcore.Clock, cacheSize int) *Registry {
	return &Registry{
		db:      db,
		acl:     ac,
		members: members,
		weights: weights,
		clock:   clock,
		cache:   lru.NewCache[common.Hash, *Snapshot](cacheSize),
	}
}

// TakeSnapshot commits the current weight of every active member. When the
// resulting root equals the latest snapshot and no member record changed since
// it was taken, the latest snapshot is returned instead. Requires TakeSnapshot.
func (r *Registry) TakeSnapshot(caller common.Address) (*Snapshot, error) {
	if err := r.acl.Check(caller, acl.DAOTarget, acl.TakeSnapshot); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	members, err := r.members.ActiveMembers()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, ErrNoMembers
	}
	entries := make([]Entry, len(members))
	for i, m := range members {
		weight, err := r.weights.WeightOf(m.Address)
		if err != nil {
			return nil, fmt.Errorf("weight of %s: %w", m.Address.Hex(), err)
		}
		entries[i] = Entry{Address: m.Address, Weight: weight}
	}
	snap, err := New(r.clock.BlockNumber(), entries)
	if err != nil {
		return nil, err
	}

	latest, err := r.latest()
	if err != nil {
		return nil, err
	}
	if latest != nil && latest.Root == snap.Root {
		changed, err := r.members.ChangedSince(latest.BlockHeight)
		if err != nil {
			return nil, err
		}
		if !changed {
			reusedCounter.Inc(1)
			log.Debug("Reusing unchanged snapshot", "root", latest.Root, "height", latest.BlockHeight)
			return latest, nil
		}
	}
	ref := snap.Ref()
	batch := r.db.NewBatch()
	if err := govdb.WriteSnapshot(batch, ref, snap); err != nil {
		return nil, err
	}
	if err := govdb.WriteLastSnapshotRef(batch, ref); err != nil {
		return nil, err
	}
	if err := batch.Write(); err != nil {
		return nil, err
	}
	r.cache.Add(ref, snap)
	takenCounter.Inc(1)

	log.Info("Snapshot taken", "root", snap.Root, "height", snap.BlockHeight,
		"members", len(snap.Entries), "weight", snap.TotalWeight)
	return snap, nil
}

// Snapshot loads a snapshot by reference.
func (r *Registry) Snapshot(ref common.Hash) (*Snapshot, error) {
	if snap, ok := r.cache.Get(ref); ok {
		return snap, nil
	}
	snap := new(Snapshot)
	ok, err := govdb.ReadSnapshot(r.db, ref, snap)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	r.cache.Add(ref, snap)
	return snap, nil
}

// Latest returns the most recent snapshot, or nil if none was taken yet.
func (r *Registry) Latest() (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest()
}

func (r *Registry) latest() (*Snapshot, error) {
	ref, err := govdb.ReadLastSnapshotRef(r.db)
	if err != nil || ref == (common.Hash{}) {
		return nil, err
	}
	return r.Snapshot(ref)
}

// Prove returns the committed weight of addr and its membership proof.
func (r *Registry) Prove(ref common.Hash, addr common.Address) (uint64, merkle.Proof, error) {
	snap, err := r.Snapshot(ref)
	if err != nil {
		return 0, merkle.Proof{}, err
	}
	return snap.Prove(addr)
}
