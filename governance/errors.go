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
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/modulardao/govcore"
)

// Lifecycle errors
var (
	ErrFlagAlreadySet    = fmt.Errorf("%w: flag already set", govcore.ErrInvalidState)
	ErrProposalNotFound  = fmt.Errorf("%w: proposal not found", govcore.ErrInvalidState)
	ErrNotSponsored      = fmt.Errorf("%w: proposal not sponsored", govcore.ErrInvalidState)
	ErrResultNotFinal    = fmt.Errorf("%w: vote result not final", govcore.ErrInvalidState)
	ErrProposalNotPassed = fmt.Errorf("%w: proposal has not passed", govcore.ErrInvalidState)
	ErrNotSubmitter      = fmt.Errorf("%w: caller is neither submitter nor sponsor", govcore.ErrAccessDenied)
)

// Adapter errors
var (
	ErrAdapterNotRegistered = fmt.Errorf("%w: voting adapter not registered", govcore.ErrInvalidState)
	ErrNilAdapter           = errors.New("nil voting adapter")
)

// Config errors
var (
	ErrInvalidConfig = errors.New("invalid governance config")
)

// DuplicateIDError is returned by Submit when the proposal id was used before.
type DuplicateIDError struct {
	ID common.Hash
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("proposal %s already exists", e.ID.Hex())
}

// Is makes DuplicateIDError match ErrFlagAlreadySet and its category.
func (e *DuplicateIDError) Is(target error) bool {
	return target == ErrFlagAlreadySet || target == govcore.ErrInvalidState
}
