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
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Config holds the timing parameters of one DAO instance
type Config struct {
	DaoID         common.Address // DAO 标识，绑定投票签名
	VotingPeriod  uint64         // 投票期（区块数）
	GracePeriod   uint64         // 宽限期（区块数），用于修正与挑战
	SnapshotCache int            // 快照缓存条目数
}

// DefaultConfig returns the default governance configuration
func DefaultConfig() *Config {
	return &Config{
		VotingPeriod:  40320, // 约 7 天（15s/块）
		GracePeriod:   5760,  // 约 1 天
		SnapshotCache: 64,
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.DaoID == (common.Address{}) {
		return fmt.Errorf("%w: dao id is required", ErrInvalidConfig)
	}
	if c.VotingPeriod == 0 {
		return fmt.Errorf("%w: voting period must be positive", ErrInvalidConfig)
	}
	if c.GracePeriod == 0 {
		return fmt.Errorf("%w: grace period must be positive", ErrInvalidConfig)
	}
	if c.SnapshotCache < 0 {
		return fmt.Errorf("%w: negative snapshot cache size", ErrInvalidConfig)
	}
	return nil
}

// VotingEnd is the first block after the voting period of a proposal
// sponsored at the given block.
func (c *Config) VotingEnd(sponsoredAt uint64) uint64 {
	return sponsoredAt + c.VotingPeriod
}
