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

package govdb

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/rlp"
)

// readRLP loads and decodes the record stored under key. A missing record is
// reported as (false, nil).
func readRLP(db ethdb.KeyValueReader, key []byte, val interface{}) (bool, error) {
	has, err := db.Has(key)
	if err != nil || !has {
		return false, err
	}
	blob, err := db.Get(key)
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(blob, val); err != nil {
		return false, fmt.Errorf("invalid record %x: %w", key, err)
	}
	return true, nil
}

func writeRLP(db ethdb.KeyValueWriter, key []byte, val interface{}) error {
	blob, err := rlp.EncodeToBytes(val)
	if err != nil {
		return err
	}
	return db.Put(key, blob)
}

// ReadACLFlags retrieves the raw capability bitset of a subject on a target.
func ReadACLFlags(db ethdb.KeyValueReader, subject common.Address, target common.Hash) ([32]byte, error) {
	var flags [32]byte
	key := aclKey(subject, target)
	has, err := db.Has(key)
	if err != nil || !has {
		return flags, err
	}
	blob, err := db.Get(key)
	if err != nil {
		return flags, err
	}
	copy(flags[32-len(blob):], blob)
	return flags, nil
}

// WriteACLFlags stores the capability bitset of a subject on a target. An
// all-zero bitset removes the entry.
func WriteACLFlags(db ethdb.KeyValueWriter, subject common.Address, target common.Hash, flags [32]byte) error {
	if flags == ([32]byte{}) {
		return db.Delete(aclKey(subject, target))
	}
	return db.Put(aclKey(subject, target), common.TrimLeftZeroes(flags[:]))
}

// ReadProposal decodes the proposal record with the given id into val.
func ReadProposal(db ethdb.KeyValueReader, id common.Hash, val interface{}) (bool, error) {
	return readRLP(db, proposalKey(id), val)
}

// WriteProposal stores a proposal record.
func WriteProposal(db ethdb.KeyValueWriter, id common.Hash, val interface{}) error {
	return writeRLP(db, proposalKey(id), val)
}

// ReadVoteResult decodes the committed vote result of a proposal into val.
func ReadVoteResult(db ethdb.KeyValueReader, id common.Hash, val interface{}) (bool, error) {
	return readRLP(db, resultKey(id), val)
}

// WriteVoteResult stores the committed vote result of a proposal.
func WriteVoteResult(db ethdb.KeyValueWriter, id common.Hash, val interface{}) error {
	return writeRLP(db, resultKey(id), val)
}

// ReadSnapshot decodes the snapshot with the given reference into val.
func ReadSnapshot(db ethdb.KeyValueReader, ref common.Hash, val interface{}) (bool, error) {
	return readRLP(db, snapshotKey(ref), val)
}

// WriteSnapshot stores a snapshot under its reference.
func WriteSnapshot(db ethdb.KeyValueWriter, ref common.Hash, val interface{}) error {
	return writeRLP(db, snapshotKey(ref), val)
}

// ReadLastSnapshotRef retrieves the reference of the most recent snapshot.
func ReadLastSnapshotRef(db ethdb.KeyValueReader) (common.Hash, error) {
	has, err := db.Has(lastSnapshotKey)
	if err != nil || !has {
		return common.Hash{}, err
	}
	blob, err := db.Get(lastSnapshotKey)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(blob), nil
}

// WriteLastSnapshotRef stores the reference of the most recent snapshot.
func WriteLastSnapshotRef(db ethdb.KeyValueWriter, ref common.Hash) error {
	return db.Put(lastSnapshotKey, ref.Bytes())
}

// ReadMember decodes the member record of addr into val.
func ReadMember(db ethdb.KeyValueReader, addr common.Address, val interface{}) (bool, error) {
	return readRLP(db, memberKey(addr), val)
}

// WriteMember stores a member record.
func WriteMember(db ethdb.KeyValueWriter, addr common.Address, val interface{}) error {
	return writeRLP(db, memberKey(addr), val)
}

// IterateMembers decodes every member record in key order, calling fn with a
// fresh value produced by alloc.
func IterateMembers(db ethdb.Iteratee, alloc func() interface{}, fn func(interface{}) error) error {
	it := db.NewIterator(memberPrefix, nil)
	defer it.Release()

	for it.Next() {
		if len(it.Key()) != len(memberPrefix)+common.AddressLength {
			continue
		}
		val := alloc()
		if err := rlp.DecodeBytes(it.Value(), val); err != nil {
			return fmt.Errorf("invalid member record %x: %w", it.Key(), err)
		}
		if err := fn(val); err != nil {
			return err
		}
	}
	return it.Error()
}

// ReadDelegateOwner returns the member a delegate key has been bound to.
func ReadDelegateOwner(db ethdb.KeyValueReader, delegate common.Address) (common.Address, bool, error) {
	key := delegateKey(delegate)
	has, err := db.Has(key)
	if err != nil || !has {
		return common.Address{}, false, err
	}
	blob, err := db.Get(key)
	if err != nil {
		return common.Address{}, false, err
	}
	return common.BytesToAddress(blob), true, nil
}

// WriteDelegateOwner binds a delegate key to a member.
func WriteDelegateOwner(db ethdb.KeyValueWriter, delegate, member common.Address) error {
	return db.Put(delegateKey(delegate), member.Bytes())
}

// ReadGenesis retrieves the DAO id the database was initialized for, if any.
func ReadGenesis(db ethdb.KeyValueReader) (common.Address, bool, error) {
	has, err := db.Has(genesisKey)
	if err != nil || !has {
		return common.Address{}, false, err
	}
	blob, err := db.Get(genesisKey)
	if err != nil {
		return common.Address{}, false, err
	}
	return common.BytesToAddress(blob), true, nil
}

// WriteGenesis marks the database as initialized for daoID.
func WriteGenesis(db ethdb.KeyValueWriter, daoID common.Address) error {
	return db.Put(genesisKey, daoID.Bytes())
}
