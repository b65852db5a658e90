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

package vote

import (
	"fmt"

	"github.com/modulardao/govcore"
)

var (
	// ErrUnknownChoice is returned for a choice outside {Yes, No}.
	ErrUnknownChoice = fmt.Errorf("%w: unknown vote choice", govcore.ErrInvalidState)

	// ErrBadSignature is returned when a signature is malformed or its signer
	// cannot be recovered.
	ErrBadSignature = fmt.Errorf("%w: malformed signature", govcore.ErrSignatureMismatch)

	// ErrNotDelegate is returned when the signer is not the voter's delegate
	// key at the snapshot height.
	ErrNotDelegate = fmt.Errorf("%w: signer is not the delegate key", govcore.ErrSignatureMismatch)

	// ErrWeightNotProven is returned when the claimed weight is not committed
	// in the snapshot.
	ErrWeightNotProven = fmt.Errorf("%w: weight not in snapshot", govcore.ErrInvalidProof)
)
