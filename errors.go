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

// Package govcore contains the error categories and host interfaces shared by
// the governance core packages.
package govcore

import "errors"

// Error categories. Every error returned by the core wraps exactly one of
// these, so callers can classify failures with errors.Is.
var (
	// ErrAccessDenied is returned when a capability check fails.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidState is returned when an operation is attempted from a state
	// that does not allow it (flag already set, not sponsored, window closed).
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidProof is returned when a Merkle proof does not verify against
	// the committed root.
	ErrInvalidProof = errors.New("invalid proof")

	// ErrSignatureMismatch is returned when a recovered signer is not the
	// voter's delegate key at the snapshot height.
	ErrSignatureMismatch = errors.New("signature mismatch")

	// ErrOverflow is returned when a capability index exceeds the bitset width.
	ErrOverflow = errors.New("capability overflow")
)
