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

package member

import "github.com/ethereum/go-ethereum/common"

// DelegateCheckpoint records the delegate key in force from Height onwards.
type DelegateCheckpoint struct {
	Height uint64
	Key    common.Address
}

// Member is a DAO member. Voting weight is not kept here, it is read from the
// external weight source whenever a snapshot is taken.
type Member struct {
	Address   common.Address
	Active    bool
	JoinedAt  uint64               // block height of admission
	UpdatedAt uint64               // block height from which the latest change applies
	Delegates []DelegateCheckpoint // ascending by height, never empty
}

// DelegateKey returns the most recently configured delegate key.
func (m *Member) DelegateKey() common.Address {
	return m.Delegates[len(m.Delegates)-1].Key
}

// DelegateKeyAt returns the delegate key in force at the given height.
func (m *Member) DelegateKeyAt(height uint64) (common.Address, bool) {
	for i := len(m.Delegates) - 1; i >= 0; i-- {
		if m.Delegates[i].Height <= height {
			return m.Delegates[i].Key, true
		}
	}
	return common.Address{}, false
}

func (m *Member) copy() *Member {
	cpy := *m
	cpy.Delegates = append([]DelegateCheckpoint(nil), m.Delegates...)
	return &cpy
}
