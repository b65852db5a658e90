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

// Package govdb contains the low level storage schema and accessors for the
// governance core. Every record lives in a single ethdb.KeyValueStore.
package govdb

import "github.com/ethereum/go-ethereum/common"

// The fields below define the low level database schema prefixing.
var (
	// lastSnapshotKey tracks the reference of the most recent snapshot.
	lastSnapshotKey = []byte("LastSnapshot")

	// genesisKey holds the DAO id the database was initialized for.
	genesisKey = []byte("Genesis")

	aclPrefix      = []byte("a") // aclPrefix + subject + target -> flags (32 bytes)
	proposalPrefix = []byte("p") // proposalPrefix + id -> rlp(proposal)
	resultPrefix   = []byte("r") // resultPrefix + id -> rlp(vote result)
	snapshotPrefix = []byte("s") // snapshotPrefix + ref -> rlp(snapshot)
	memberPrefix   = []byte("m") // memberPrefix + address -> rlp(member)
	delegatePrefix = []byte("d") // delegatePrefix + delegate key -> member address
)

// aclKey = aclPrefix + subject + target
func aclKey(subject common.Address, target common.Hash) []byte {
	key := make([]byte, 0, len(aclPrefix)+common.AddressLength+common.HashLength)
	key = append(key, aclPrefix...)
	key = append(key, subject.Bytes()...)
	return append(key, target.Bytes()...)
}

// proposalKey = proposalPrefix + id
func proposalKey(id common.Hash) []byte {
	return append(append([]byte{}, proposalPrefix...), id.Bytes()...)
}

// resultKey = resultPrefix + id
func resultKey(id common.Hash) []byte {
	return append(append([]byte{}, resultPrefix...), id.Bytes()...)
}

// snapshotKey = snapshotPrefix + ref
func snapshotKey(ref common.Hash) []byte {
	return append(append([]byte{}, snapshotPrefix...), ref.Bytes()...)
}

// memberKey = memberPrefix + address
func memberKey(addr common.Address) []byte {
	return append(append([]byte{}, memberPrefix...), addr.Bytes()...)
}

// delegateKey = delegatePrefix + delegate
func delegateKey(delegate common.Address) []byte {
	return append(append([]byte{}, delegatePrefix...), delegate.Bytes()...)
}
