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
	"fmt"

	"github.com/modulardao/govcore"
)

// Submission errors
var (
	ErrResultAlreadySubmitted = fmt.Errorf("%w: result already submitted", govcore.ErrInvalidState)
	ErrWindowClosed           = fmt.Errorf("%w: submission window closed", govcore.ErrInvalidState)
	ErrWrongAdapter           = fmt.Errorf("%w: proposal bound to another adapter", govcore.ErrInvalidState)
	ErrInvalidLeafCount       = fmt.Errorf("%w: invalid leaf count", govcore.ErrInvalidState)
)

// Dispute errors
var (
	ErrNoResult          = fmt.Errorf("%w: no vote result", govcore.ErrInvalidState)
	ErrGraceElapsed      = fmt.Errorf("%w: grace period elapsed", govcore.ErrInvalidState)
	ErrGracePending      = fmt.Errorf("%w: grace period not elapsed", govcore.ErrInvalidState)
	ErrResultChallenged  = fmt.Errorf("%w: result challenged", govcore.ErrInvalidState)
	ErrResultFinal       = fmt.Errorf("%w: result final", govcore.ErrInvalidState)
	ErrNotLastLeaf       = fmt.Errorf("%w: not the last leaf", govcore.ErrInvalidState)
	ErrLeafIndex         = fmt.Errorf("%w: leaf index mismatch", govcore.ErrInvalidProof)
	ErrChallengeRejected = fmt.Errorf("%w: challenged leaves are consistent", govcore.ErrInvalidState)
)
