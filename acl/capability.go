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

package acl

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/modulardao/govcore"
)

// MaxCapabilities is the width of the capability bitset.
const MaxCapabilities = 128

// Capability is one authorizable action, identified by its bit position.
// The order below is the wire order shared with deployment tooling and must
// never be rearranged.
type Capability uint8

const (
	SubmitProposal    Capability = iota // submit new proposals
	SponsorProposal                     // sponsor on behalf of a submitter
	ReplaceAdapter                      // register or replace voting adapters
	NewMember                           // admit members
	UpdateDelegateKey                   // rotate any member's delegate key
	JailMember                          // deactivate and reactivate members
	TakeSnapshot                        // commit member weights
	SubmitVoteResult                    // commit off-chain vote results
	SetConfiguration                    // change DAO configuration
	ManageACL                           // edit access control entries

	numCapabilities
)

var capabilityNames = [numCapabilities]string{
	SubmitProposal:    "SubmitProposal",
	SponsorProposal:   "SponsorProposal",
	ReplaceAdapter:    "ReplaceAdapter",
	NewMember:         "NewMember",
	UpdateDelegateKey: "UpdateDelegateKey",
	JailMember:        "JailMember",
	TakeSnapshot:      "TakeSnapshot",
	SubmitVoteResult:  "SubmitVoteResult",
	SetConfiguration:  "SetConfiguration",
	ManageACL:         "ManageACL",
}

func (c Capability) String() string {
	if c < numCapabilities {
		return capabilityNames[c]
	}
	return fmt.Sprintf("Capability(%d)", uint8(c))
}

// ParseCapability resolves a capability by its (case-insensitive) name.
func ParseCapability(name string) (Capability, error) {
	for i, n := range capabilityNames {
		if strings.EqualFold(n, name) {
			return Capability(i), nil
		}
	}
	return 0, fmt.Errorf("unknown capability %q", name)
}

// Flags is a fixed-width capability bitset. The zero value grants nothing.
type Flags struct {
	v uint256.Int
}

func bit(i uint) *uint256.Int {
	return new(uint256.Int).Lsh(uint256.NewInt(1), i)
}

// CalculateFlagValue returns Σ 2^i over the enabled positions.
func CalculateFlagValue(enabled []bool) (Flags, error) {
	var f Flags
	if len(enabled) > MaxCapabilities {
		return f, fmt.Errorf("%w: %d positions, max %d", govcore.ErrOverflow, len(enabled), MaxCapabilities)
	}
	for i, on := range enabled {
		if on {
			f.v.Or(&f.v, bit(uint(i)))
		}
	}
	return f, nil
}

// FlagsOf builds a bitset with the given capabilities enabled.
func FlagsOf(caps ...Capability) (Flags, error) {
	var f Flags
	for _, c := range caps {
		if uint(c) >= MaxCapabilities {
			return Flags{}, fmt.Errorf("%w: capability index %d", govcore.ErrOverflow, c)
		}
		f.v.Or(&f.v, bit(uint(c)))
	}
	return f, nil
}

// MustFlags is like FlagsOf but panics on overflow. It is meant for static
// capability sets.
func MustFlags(caps ...Capability) Flags {
	f, err := FlagsOf(caps...)
	if err != nil {
		panic(err)
	}
	return f
}

// AllFlags grants every defined capability.
func AllFlags() Flags {
	caps := make([]Capability, 0, numCapabilities)
	for c := Capability(0); c < numCapabilities; c++ {
		caps = append(caps, c)
	}
	return MustFlags(caps...)
}

// FlagsFromBytes32 decodes a stored bitset, rejecting bits past the width.
func FlagsFromBytes32(b [32]byte) (Flags, error) {
	var f Flags
	f.v.SetBytes32(b[:])
	if f.v.BitLen() > MaxCapabilities {
		return Flags{}, fmt.Errorf("%w: bitset uses %d bits", govcore.ErrOverflow, f.v.BitLen())
	}
	return f, nil
}

// ParseFlags parses a precomputed bitset in decimal or 0x-prefixed hex.
func ParseFlags(s string) (Flags, error) {
	var (
		v   *uint256.Int
		err error
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = uint256.FromHex(s)
	} else {
		v, err = uint256.FromDecimal(s)
	}
	if err != nil {
		return Flags{}, fmt.Errorf("invalid flag value %q: %v", s, err)
	}
	return FlagsFromBytes32(v.Bytes32())
}

// Has reports whether the capability bit is set.
func (f Flags) Has(c Capability) bool {
	if uint(c) >= MaxCapabilities {
		return false
	}
	var m uint256.Int
	m.And(&f.v, bit(uint(c)))
	return !m.IsZero()
}

// Union returns the bitwise OR of both sets.
func (f Flags) Union(o Flags) Flags {
	var r Flags
	r.v.Or(&f.v, &o.v)
	return r
}

// Bits decodes the first n positions of the bitset.
func (f Flags) Bits(n int) []bool {
	if n > MaxCapabilities {
		n = MaxCapabilities
	}
	out := make([]bool, n)
	for i := range out {
		var shifted uint256.Int
		shifted.Rsh(&f.v, uint(i))
		out[i] = shifted.Uint64()&1 == 1
	}
	return out
}

// Capabilities lists the defined capabilities present in the set.
func (f Flags) Capabilities() []Capability {
	var caps []Capability
	for c := Capability(0); c < numCapabilities; c++ {
		if f.Has(c) {
			caps = append(caps, c)
		}
	}
	return caps
}

func (f Flags) IsZero() bool       { return f.v.IsZero() }
func (f Flags) Equal(o Flags) bool { return f.v.Eq(&o.v) }
func (f Flags) Bytes32() [32]byte  { return f.v.Bytes32() }
func (f Flags) String() string     { return f.v.Hex() }
