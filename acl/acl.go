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

// Package acl implements the bitflag access control model gating every
// mutation of the governance core.
package acl

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/modulardao/govcore"
	"github.com/modulardao/govcore/govdb"
)

// Well known targets.
var (
	// RegistryTarget is the target holding the ManageACL meta-capability.
	RegistryTarget = crypto.Keccak256Hash([]byte("acl"))

	// DAOTarget is the target for proposal, member and snapshot capabilities.
	DAOTarget = crypto.Keccak256Hash([]byte("dao"))
)

// Entry is the capability set of one subject on one target.
type Entry struct {
	Subject common.Address
	Target  common.Hash
	Flags   Flags
}

// AccessControl stores ACL entries and answers capability checks.
type AccessControl struct {
	db ethdb.KeyValueStore
	mu sync.RWMutex
}

// New creates an access control list backed by db.
func New(db ethdb.KeyValueStore) *AccessControl {
	return &AccessControl{db: db}
}

// Bootstrap seeds entries without any caller check. It is meant for genesis
// configuration only.
func (ac *AccessControl) Bootstrap(entries []Entry) error {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	batch := ac.db.NewBatch()
	for _, e := range entries {
		if err := govdb.WriteACLFlags(batch, e.Subject, e.Target, e.Flags.Bytes32()); err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	log.Info("Access control bootstrapped", "entries", len(entries))
	return nil
}

// Flags returns the capability set of subject on target.
func (ac *AccessControl) Flags(subject common.Address, target common.Hash) Flags {
	ac.mu.RLock()
	defer ac.mu.RUnlock()
	return ac.flags(subject, target)
}

func (ac *AccessControl) flags(subject common.Address, target common.Hash) Flags {
	raw, err := govdb.ReadACLFlags(ac.db, subject, target)
	if err != nil {
		log.Error("Failed to read ACL entry", "subject", subject, "target", target, "err", err)
		return Flags{}
	}
	f, err := FlagsFromBytes32(raw)
	if err != nil {
		log.Error("Corrupt ACL entry", "subject", subject, "target", target, "err", err)
		return Flags{}
	}
	return f
}

// HasPermission reports whether caller holds capability on target.
func (ac *AccessControl) HasPermission(caller common.Address, target common.Hash, c Capability) bool {
	return ac.Flags(caller, target).Has(c)
}

// Check is HasPermission returning an ErrAccessDenied error on failure.
func (ac *AccessControl) Check(caller common.Address, target common.Hash, c Capability) error {
	if !ac.HasPermission(caller, target, c) {
		return fmt.Errorf("%w: %s lacks %s", govcore.ErrAccessDenied, caller.Hex(), c)
	}
	return nil
}

// SetPermissions replaces the capability set of subject on target. The caller
// must hold ManageACL on RegistryTarget.
func (ac *AccessControl) SetPermissions(caller, subject common.Address, target common.Hash, flags Flags) error {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	if !ac.flags(caller, RegistryTarget).Has(ManageACL) {
		return fmt.Errorf("%w: %s lacks %s", govcore.ErrAccessDenied, caller.Hex(), ManageACL)
	}
	if err := govdb.WriteACLFlags(ac.db, subject, target, flags.Bytes32()); err != nil {
		return err
	}
	log.Info("Permissions updated", "subject", subject, "target", target, "flags", flags)
	return nil
}
