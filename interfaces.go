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

package govcore

import "sync"

// Clock exposes the host ledger's notion of time. BlockNumber drives snapshot
// heights and delegate-key history, Now drives the voting and grace windows.
type Clock interface {
	BlockNumber() uint64
	Now() uint64
}

// ManualClock is a Clock whose height and time only move when told to. It is
// used by tests and by tooling replaying a ledger.
type ManualClock struct {
	mu     sync.Mutex
	number uint64
	time   uint64
}

// NewManualClock creates a clock positioned at the given block and timestamp.
func NewManualClock(number, time uint64) *ManualClock {
	return &ManualClock{number: number, time: time}
}

func (c *ManualClock) BlockNumber() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.number
}

func (c *ManualClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.time
}

// Advance mines the given number of blocks, moving time by interval seconds
// per block.
func (c *ManualClock) Advance(blocks, interval uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.number += blocks
	c.time += blocks * interval
}

// Set positions the clock at an absolute block and timestamp.
func (c *ManualClock) Set(number, time uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.number = number
	c.time = time
}
