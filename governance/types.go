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
	"github.com/ethereum/go-ethereum/common"
)

// ProposalFlag is a lifecycle bit of a proposal.
type ProposalFlag uint8

const (
	FlagExists    ProposalFlag = 1 << 0 // 已提交
	FlagSponsored ProposalFlag = 1 << 1 // 已赞助，快照已绑定
	FlagProcessed ProposalFlag = 1 << 2 // 已处理
)

func (f ProposalFlag) String() string {
	switch f {
	case FlagExists:
		return "EXISTS"
	case FlagSponsored:
		return "SPONSORED"
	case FlagProcessed:
		return "PROCESSED"
	default:
		return "UNKNOWN"
	}
}

// Proposal represents a governance proposal
type Proposal struct {
	ID            common.Hash    // 提案 ID（由提交者选定）
	Flags         ProposalFlag   // 生命周期标志位
	Submitter     common.Address // 提交者
	VotingAdapter common.Address // 投票适配器
	SnapshotRoot  common.Hash    // 快照根
	SnapshotRef   common.Hash    // 快照引用（根 + 高度）
	SubmittedAt   uint64         // 提交区块
	SponsoredAt   uint64         // 赞助区块
	ProcessedAt   uint64         // 处理区块
}

// Has reports whether flag is set.
func (p *Proposal) Has(flag ProposalFlag) bool {
	return p.Flags&flag != 0
}

func (p *Proposal) copy() *Proposal {
	cpy := *p
	return &cpy
}

// Outcome is the three-way verdict a voting adapter reports.
type Outcome uint8

const (
	OutcomePending Outcome = iota // 投票中或宽限期未结束
	OutcomePass                   // 已通过
	OutcomeFail                   // 未通过
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomePass:
		return "pass"
	case OutcomeFail:
		return "fail"
	default:
		return "unknown"
	}
}
