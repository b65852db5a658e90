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

// Package member keeps DAO membership and the height-indexed history of
// delegate keys, so historic votes keep verifying after a key rotation.
package member

import (
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/modulardao/govcore"
	"github.com/modulardao/govcore/acl"
	"github.com/modulardao/govcore/govdb"
)

// Registry stores members and resolves delegate keys by height.
//
// Admission takes effect at the current block. Delegate rotations take effect
// from the next block, so a snapshot taken at height H keeps resolving the
// keys that were in force when it was taken.
//
// A delegate key is bound to the first member that uses it, for good. Keys
// rotated away from stay in the reverse index so historic signatures keep a
// single owner; only that member may bind such a key again.
type Registry struct {
	db    ethdb.KeyValueStore
	acl   *acl.AccessControl
	clock govcore.Clock
	mu    sync.RWMutex
}

// NewRegistry creates a member registry.
func NewRegistry(db ethdb.KeyValueStore, ac *acl.AccessControl, clock govcore.Clock) *Registry {
	return &Registry{db: db, acl: ac, clock: clock}
}

func (r *Registry) read(addr common.Address) (*Member, error) {
	m := new(Member)
	ok, err := govdb.ReadMember(r.db, addr, m)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMemberNotFound
	}
	return m, nil
}

// checkDelegate ensures key is free for owner: not bound to another member and
// not another member's own address.
func (r *Registry) checkDelegate(owner, key common.Address) error {
	bound, ok, err := govdb.ReadDelegateOwner(r.db, key)
	if err != nil {
		return err
	}
	if ok && bound != owner {
		return ErrDelegateInUse
	}
	if key != owner {
		if _, err := r.read(key); err == nil {
			return ErrDelegateInUse
		}
	}
	return nil
}

// Add admits a new active member. A zero delegate defaults to the member's
// own address. Requires NewMember.
func (r *Registry) Add(caller, addr, delegate common.Address) error {
	if err := r.acl.Check(caller, acl.DAOTarget, acl.NewMember); err != nil {
		return err
	}
	if addr == (common.Address{}) {
		return ErrZeroAddress
	}
	if delegate == (common.Address{}) {
		delegate = addr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.read(addr); err == nil {
		return ErrMemberExists
	}
	if owner, ok, err := govdb.ReadDelegateOwner(r.db, addr); err != nil {
		return err
	} else if ok && owner != addr {
		return ErrDelegateInUse
	}
	if err := r.checkDelegate(addr, delegate); err != nil {
		return err
	}
	height := r.clock.BlockNumber()
	m := &Member{
		Address:   addr,
		Active:    true,
		JoinedAt:  height,
		UpdatedAt: height,
		Delegates: []DelegateCheckpoint{{Height: height, Key: delegate}},
	}
	batch := r.db.NewBatch()
	if err := govdb.WriteMember(batch, addr, m); err != nil {
		return err
	}
	if err := govdb.WriteDelegateOwner(batch, delegate, addr); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}
	log.Info("Member admitted", "member", addr, "delegate", delegate, "height", height)
	return nil
}

// UpdateDelegateKey rotates a member's delegate key from the next block on.
// The member itself may rotate, anyone else needs UpdateDelegateKey.
func (r *Registry) UpdateDelegateKey(caller, addr, key common.Address) error {
	if caller != addr {
		if err := r.acl.Check(caller, acl.DAOTarget, acl.UpdateDelegateKey); err != nil {
			return err
		}
	}
	if key == (common.Address{}) {
		return ErrZeroAddress
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.read(addr)
	if err != nil {
		return err
	}
	if err := r.checkDelegate(addr, key); err != nil {
		return err
	}
	effective := r.clock.BlockNumber() + 1
	if last := &m.Delegates[len(m.Delegates)-1]; last.Height == effective {
		last.Key = key
	} else {
		m.Delegates = append(m.Delegates, DelegateCheckpoint{Height: effective, Key: key})
	}
	m.UpdatedAt = effective

	batch := r.db.NewBatch()
	if err := govdb.WriteMember(batch, addr, m); err != nil {
		return err
	}
	if err := govdb.WriteDelegateOwner(batch, key, addr); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}
	log.Info("Delegate key rotated", "member", addr, "delegate", key, "effective", effective)
	return nil
}

// SetActive jails (false) or releases (true) a member. Requires JailMember.
func (r *Registry) SetActive(caller, addr common.Address, active bool) error {
	if err := r.acl.Check(caller, acl.DAOTarget, acl.JailMember); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.read(addr)
	if err != nil {
		return err
	}
	if m.Active == active {
		return nil
	}
	m.Active = active
	m.UpdatedAt = r.clock.BlockNumber() + 1
	if err := govdb.WriteMember(r.db, addr, m); err != nil {
		return err
	}
	log.Info("Member activity changed", "member", addr, "active", active)
	return nil
}

// Member returns a copy of the member record.
func (r *Registry) Member(addr common.Address) (*Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, err := r.read(addr)
	if err != nil {
		return nil, err
	}
	return m.copy(), nil
}

// ActiveMembers returns all active members sorted by address.
func (r *Registry) ActiveMembers() ([]*Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var members []*Member
	err := govdb.IterateMembers(r.db, func() interface{} { return new(Member) }, func(v interface{}) error {
		if m := v.(*Member); m.Active {
			members = append(members, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].Address.Cmp(members[j].Address) < 0
	})
	return members, nil
}

// ChangedSince reports whether any member record changed after height.
func (r *Registry) ChangedSince(height uint64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	changed := false
	err := govdb.IterateMembers(r.db, func() interface{} { return new(Member) }, func(v interface{}) error {
		if v.(*Member).UpdatedAt > height {
			changed = true
		}
		return nil
	})
	return changed, err
}

// DelegateKeyAt resolves the delegate key of a member at a given height.
func (r *Registry) DelegateKeyAt(addr common.Address, height uint64) (common.Address, bool) {
	m, err := r.Member(addr)
	if err != nil {
		return common.Address{}, false
	}
	return m.DelegateKeyAt(height)
}

// MemberByDelegate returns the member a delegate key belongs to.
func (r *Registry) MemberByDelegate(key common.Address) (common.Address, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owner, ok, err := govdb.ReadDelegateOwner(r.db, key)
	if err != nil {
		log.Error("Failed to resolve delegate key", "key", key, "err", err)
		return common.Address{}, false
	}
	return owner, ok
}
