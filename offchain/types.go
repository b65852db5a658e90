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

package offchain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/modulardao/govcore/aggregator"
)

type (
	ResultLeaf = aggregator.ResultLeaf
	LeafProof  = aggregator.LeafProof
)

// ResultState is the dispute state of a committed vote result.
type ResultState uint8

const (
	StateNone ResultState = iota
	StateSubmitted
	StateChallenged
	StateResultFixed
	StateFinal
)

func (s ResultState) String() string {
	switch s {
	case StateSubmitted:
		return "submitted"
	case StateChallenged:
		return "challenged"
	case StateResultFixed:
		return "fixed"
	case StateFinal:
		return "final"
	default:
		return "none"
	}
}

// Disputable reports whether fixes and challenges apply to the state.
func (s ResultState) Disputable() bool {
	return s == StateSubmitted || s == StateResultFixed
}

// Submission is an aggregator's claim about a proposal's vote result.
type Submission struct {
	Root      common.Hash
	NbYes     uint64
	NbNo      uint64
	LeafCount uint64
}

// VoteResult is the committed, possibly disputed result of one proposal.
type VoteResult struct {
	Root         common.Hash
	NbYes        uint64
	NbNo         uint64
	LeafCount    uint64
	Depth        uint64 // result tree depth, fixed by the snapshot member count
	SubmittedAt  uint64
	ChallengedAt uint64
	Reporter     common.Address
	Challenger   common.Address
	Cycle        uint64 // number of accepted submissions
	State        ResultState
}

func (r *VoteResult) copy() *VoteResult {
	cpy := *r
	return &cpy
}

// GraceEnd is the first block after the grace period of the current cycle.
func (r *VoteResult) GraceEnd(grace uint64) uint64 {
	return r.SubmittedAt + grace
}
