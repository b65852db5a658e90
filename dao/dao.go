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

// Package dao wires the governance core components of one DAO instance over
// a single database and clock.
package dao

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/modulardao/govcore"
	"github.com/modulardao/govcore/acl"
	"github.com/modulardao/govcore/aggregator"
	"github.com/modulardao/govcore/governance"
	"github.com/modulardao/govcore/govdb"
	"github.com/modulardao/govcore/internal/config"
	"github.com/modulardao/govcore/member"
	"github.com/modulardao/govcore/offchain"
	"github.com/modulardao/govcore/snapshot"
	"github.com/modulardao/govcore/vote"
)

const (
	dbCache   = 16 // MB
	dbHandles = 16
)

// ErrGenesisMismatch is returned when a database was initialized for another DAO.
var ErrGenesisMismatch = errors.New("database belongs to another dao")

// AdapterAddress derives the address of the off-chain voting adapter of a DAO.
func AdapterAddress(daoID common.Address) common.Address {
	return common.BytesToAddress(crypto.Keccak256(daoID.Bytes(), []byte("offchain")))
}

// DAO is one governance core instance.
type DAO struct {
	Config    *governance.Config
	ACL       *acl.AccessControl
	Members   *member.Registry
	Snapshots *snapshot.Registry
	Proposals *governance.Registry
	Votes     *vote.Verifier
	Offchain  *offchain.Verifier

	db ethdb.KeyValueStore
}

// New wires a DAO over db. On a fresh database the genesis entries are
// seeded and the off-chain adapter is granted TakeSnapshot; a database
// initialized for another DAO id is rejected.
func New(cfg *governance.Config, db ethdb.KeyValueStore, clock govcore.Clock, weights snapshot.WeightSource, genesis []acl.Entry) (*DAO, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ac := acl.New(db)
	adapter := AdapterAddress(cfg.DaoID)

	owner, ok, err := govdb.ReadGenesis(db)
	if err != nil {
		return nil, err
	}
	switch {
	case ok && owner != cfg.DaoID:
		return nil, fmt.Errorf("%w: %s", ErrGenesisMismatch, owner.Hex())
	case !ok:
		entries := append([]acl.Entry{{
			Subject: adapter,
			Target:  acl.DAOTarget,
			Flags:   acl.MustFlags(acl.TakeSnapshot, acl.ReplaceAdapter),
		}}, genesis...)
		if err := ac.Bootstrap(entries); err != nil {
			return nil, err
		}
		if err := govdb.WriteGenesis(db, cfg.DaoID); err != nil {
			return nil, err
		}
		log.Info("Initialized governance database", "dao", cfg.DaoID, "entries", len(entries), "adapter", adapter)
	}

	d := &DAO{Config: cfg, ACL: ac, db: db}
	d.Members = member.NewRegistry(db, ac, clock)
	d.Snapshots = snapshot.NewRegistry(db, ac, d.Members, weights, clock, cfg.SnapshotCache)
	d.Proposals = governance.NewRegistry(cfg, db, ac, d.Snapshots, clock)
	d.Votes = vote.NewVerifier(cfg.DaoID, d.Members)
	d.Offchain = offchain.NewVerifier(adapter, cfg, db, ac, d.Proposals, d.Snapshots, d.Votes, clock)

	// The adapter registers itself
	if err := d.Proposals.RegisterAdapter(adapter, adapter, d.Offchain); err != nil {
		return nil, err
	}
	return d, nil
}

// Open loads a DAO from a configuration file. An empty data directory keeps
// the ledger in memory.
func Open(file *config.File, clock govcore.Clock, weights snapshot.WeightSource) (*DAO, error) {
	cfg, err := file.GovernanceConfig()
	if err != nil {
		return nil, err
	}
	genesis, err := file.ACLEntries()
	if err != nil {
		return nil, err
	}
	var db ethdb.KeyValueStore
	if file.DataDir == "" {
		db = memorydb.New()
	} else {
		if db, err = leveldb.New(file.DataDir, dbCache, dbHandles, "govcore/db/", false); err != nil {
			return nil, err
		}
	}
	d, err := New(cfg, db, clock, weights, genesis)
	if err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close releases the database.
func (d *DAO) Close() error {
	return d.db.Close()
}

// Adapter returns the address of the off-chain voting adapter.
func (d *DAO) Adapter() common.Address {
	return d.Offchain.Address()
}

// Aggregate builds the result of a sponsored proposal from collected
// attestations, dropping those that fail verification. It runs the same
// computation any untrusted aggregator would.
func (d *DAO) Aggregate(ctx context.Context, id common.Hash, atts []*vote.Attestation) (*aggregator.Result, error) {
	p, err := d.Proposals.Proposal(id)
	if err != nil {
		return nil, err
	}
	if !p.Has(governance.FlagSponsored) {
		return nil, governance.ErrNotSponsored
	}
	snap, err := d.Snapshots.Snapshot(p.SnapshotRef)
	if err != nil {
		return nil, err
	}
	valid, failures, err := aggregator.VerifyAll(ctx, d.Votes, snap, atts, aggregator.DefaultVerifyLimit)
	if err != nil {
		return nil, err
	}
	for i, ferr := range failures {
		if ferr != nil {
			log.Debug("Dropping invalid attestation", "proposal", id, "voter", atts[i].Voter, "err", ferr)
		}
	}
	return aggregator.Aggregate(snap, valid)
}

// Submission converts an aggregated result into its on-chain claim.
func Submission(res *aggregator.Result) offchain.Submission {
	return offchain.Submission{
		Root:      res.Root,
		NbYes:     res.NbYes,
		NbNo:      res.NbNo,
		LeafCount: res.LeafCount(),
	}
}
