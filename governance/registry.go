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

package governance

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/modulardao/govcore"
	"github.com/modulardao/govcore/acl"
	"github.com/modulardao/govcore/govdb"
)

var (
	submittedCounter = metrics.NewRegisteredCounter("govcore/proposal/submitted", nil)
	sponsoredCounter = metrics.NewRegisteredCounter("govcore/proposal/sponsored", nil)
	processedCounter = metrics.NewRegisteredCounter("govcore/proposal/processed", nil)
)

// Registry drives proposals through submit, sponsor and process. State
// transitions are serialized; reads go straight to the database.
type Registry struct {
	config   *Config
	db       ethdb.KeyValueStore
	acl      *acl.AccessControl
	snaps    Snapshotter
	clock    govcore.Clock
	adapters map[common.Address]VotingAdapter
	mu       sync.Mutex
}

// NewRegistry creates a proposal registry
func NewRegistry(config *Config, db ethdb.KeyValueStore, ac *acl.AccessControl, snaps Snapshotter, clock govcore.Clock) *Registry {
	return &Registry{
		config:   config,
		db:       db,
		acl:      ac,
		snaps:    snaps,
		clock:    clock,
		adapters: make(map[common.Address]VotingAdapter),
	}
}

// Config returns the registry configuration
func (r *Registry) Config() *Config {
	return r.config
}

// RegisterAdapter binds a voting adapter implementation to an address,
// replacing any previous one. Requires ReplaceAdapter.
func (r *Registry) RegisterAdapter(caller, addr common.Address, adapter VotingAdapter) error {
	if err := r.acl.Check(caller, acl.DAOTarget, acl.ReplaceAdapter); err != nil {
		return err
	}
	if adapter == nil {
		return ErrNilAdapter
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.adapters[addr] = adapter
	log.Info("Voting adapter registered", "addr", addr, "by", caller)
	return nil
}

func (r *Registry) read(id common.Hash) (*Proposal, error) {
	p := new(Proposal)
	ok, err := govdb.ReadProposal(r.db, id, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProposalNotFound
	}
	return p, nil
}

// Proposal returns a copy of the proposal record
func (r *Registry) Proposal(id common.Hash) (*Proposal, error) {
	return r.read(id)
}

// Submit creates a proposal under a caller-chosen id. Requires SubmitProposal.
// A reused id fails with a DuplicateIDError.
func (r *Registry) Submit(caller common.Address, id common.Hash) (*Proposal, error) {
	if err := r.acl.Check(caller, acl.DAOTarget, acl.SubmitProposal); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.read(id); err == nil {
		return nil, &DuplicateIDError{ID: id}
	} else if !errors.Is(err, ErrProposalNotFound) {
		return nil, err
	}
	p := &Proposal{
		ID:          id,
		Flags:       FlagExists,
		Submitter:   caller,
		SubmittedAt: r.clock.BlockNumber(),
	}
	if err := govdb.WriteProposal(r.db, id, p); err != nil {
		return nil, err
	}
	submittedCounter.Inc(1)
	log.Info("Proposal submitted", "id", id, "submitter", caller)
	return p.copy(), nil
}

// Sponsor opens voting on a proposal: it binds the voting adapter and a
// snapshot taken by that adapter. Only the submitter, or a caller holding
// SponsorProposal, may sponsor; the caller is checked before the proposal
// state, right after the proposal is loaded.
func (r *Registry) Sponsor(caller common.Address, id common.Hash, adapterAddr common.Address) (*Proposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.read(id)
	if err != nil {
		return nil, err
	}
	if caller != p.Submitter && !r.acl.HasPermission(caller, acl.DAOTarget, acl.SponsorProposal) {
		return nil, ErrNotSubmitter
	}
	if p.Has(FlagSponsored) {
		return nil, fmt.Errorf("%w: %s", ErrFlagAlreadySet, FlagSponsored)
	}
	if _, ok := r.adapters[adapterAddr]; !ok {
		return nil, ErrAdapterNotRegistered
	}
	snap, err := r.snaps.TakeSnapshot(adapterAddr)
	if err != nil {
		return nil, err
	}
	p.Flags |= FlagSponsored
	p.VotingAdapter = adapterAddr
	p.SnapshotRoot = snap.Root
	p.SnapshotRef = snap.Ref()
	p.SponsoredAt = r.clock.BlockNumber()
	if err := govdb.WriteProposal(r.db, id, p); err != nil {
		return nil, err
	}
	sponsoredCounter.Inc(1)
	log.Info("Proposal sponsored", "id", id, "adapter", adapterAddr,
		"snapshot", snap.Root, "height", snap.BlockHeight, "votingEnd", r.config.VotingEnd(p.SponsoredAt))
	return p.copy(), nil
}

// Process marks a sponsored proposal processed once its voting adapter
// reports a final Pass. Anyone may call it.
func (r *Registry) Process(caller common.Address, id common.Hash) (*Proposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.read(id)
	if err != nil {
		return nil, err
	}
	if p.Has(FlagProcessed) {
		return nil, fmt.Errorf("%w: %s", ErrFlagAlreadySet, FlagProcessed)
	}
	if !p.Has(FlagSponsored) {
		return nil, ErrNotSponsored
	}
	adapter, ok := r.adapters[p.VotingAdapter]
	if !ok {
		return nil, ErrAdapterNotRegistered
	}
	outcome, err := adapter.Outcome(id)
	if err != nil {
		return nil, err
	}
	switch outcome {
	case OutcomePass:
	case OutcomePending:
		return nil, ErrResultNotFinal
	default:
		return nil, ErrProposalNotPassed
	}
	p.Flags |= FlagProcessed
	p.ProcessedAt = r.clock.BlockNumber()
	if err := govdb.WriteProposal(r.db, id, p); err != nil {
		return nil, err
	}
	processedCounter.Inc(1)
	log.Info("Proposal processed", "id", id, "by", caller)
	return p.copy(), nil
}
