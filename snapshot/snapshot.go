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
	"encoding/binary"
	"math"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/modulardao/govcore/merkle"
)

var (
	addressTy, _ = abi.NewType("address", "", nil)
	uint256Ty, _ = abi.NewType("uint256", "", nil)

	leafArgs = abi.Arguments{{Type: addressTy}, {Type: uint256Ty}}
)

// LeafHash is keccak256(abi.encode(address, uint256 weight)), recomputable by
// any off-chain party and by a Solidity verifier.
func LeafHash(addr common.Address, weight uint64) common.Hash {
	enc, err := leafArgs.Pack(addr, new(big.Int).SetUint64(weight))
	if err != nil {
		panic(err) // static types, cannot fail
	}
	return crypto.Keccak256Hash(enc)
}

// Entry is one committed (member, weight) pair.
type Entry struct {
	Address common.Address
	Weight  uint64
}

// Snapshot is a Merkle commitment to member weights at a block height.
// Snapshots are immutable once created; callers must not modify them.
type Snapshot struct {
	Root        common.Hash
	BlockHeight uint64
	TotalWeight uint64
	Entries     []Entry // ascending by address
}

// New builds a snapshot at height over the given entries, sorting them by
// address. Duplicate addresses are rejected.
func New(height uint64, entries []Entry) (*Snapshot, error) {
	snap := &Snapshot{
		BlockHeight: height,
		Entries:     append([]Entry(nil), entries...),
	}
	sort.Slice(snap.Entries, func(i, j int) bool {
		return snap.Entries[i].Address.Cmp(snap.Entries[j].Address) < 0
	})
	for i, e := range snap.Entries {
		if i > 0 && snap.Entries[i-1].Address == e.Address {
			return nil, ErrDuplicateEntry
		}
		if snap.TotalWeight > math.MaxUint64-e.Weight {
			return nil, ErrWeightOverflow
		}
		snap.TotalWeight += e.Weight
	}
	snap.Root = snap.tree().Root()
	return snap, nil
}

// Ref identifies a snapshot: the same weight set taken at two heights yields
// two snapshots because delegate keys resolve per height.
func (s *Snapshot) Ref() common.Hash {
	var height [8]byte
	binary.BigEndian.PutUint64(height[:], s.BlockHeight)
	return crypto.Keccak256Hash(s.Root[:], height[:])
}

// MemberCount is the number of committed leaves.
func (s *Snapshot) MemberCount() uint64 {
	return uint64(len(s.Entries))
}

// index returns the position of addr in the sorted entries.
func (s *Snapshot) index(addr common.Address) (int, bool) {
	i := sort.Search(len(s.Entries), func(i int) bool {
		return s.Entries[i].Address.Cmp(addr) >= 0
	})
	return i, i < len(s.Entries) && s.Entries[i].Address == addr
}

// WeightOf returns the committed weight of addr.
func (s *Snapshot) WeightOf(addr common.Address) (uint64, bool) {
	i, ok := s.index(addr)
	if !ok {
		return 0, false
	}
	return s.Entries[i].Weight, true
}

func (s *Snapshot) tree() *merkle.Tree {
	leaves := make([]common.Hash, len(s.Entries))
	for i, e := range s.Entries {
		leaves[i] = LeafHash(e.Address, e.Weight)
	}
	return merkle.New(leaves)
}

// Prove builds the membership proof of addr.
func (s *Snapshot) Prove(addr common.Address) (uint64, merkle.Proof, error) {
	i, ok := s.index(addr)
	if !ok {
		return 0, merkle.Proof{}, ErrNotInSnapshot
	}
	proof, err := s.tree().Prove(i)
	if err != nil {
		return 0, merkle.Proof{}, err
	}
	return s.Entries[i].Weight, proof, nil
}

// VerifyMember checks a claimed weight against the snapshot root in O(log n).
func VerifyMember(s *Snapshot, addr common.Address, weight uint64, proof merkle.Proof) bool {
	return merkle.Verify(s.Root, s.MemberCount(), LeafHash(addr, weight), proof)
}
