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
	"errors"
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/modulardao/govcore"
)

func TestCalculateFlagValue_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 0; n <= MaxCapabilities; n++ {
		for trial := 0; trial < 8; trial++ {
			v := make([]bool, n)
			for i := range v {
				v[i] = rng.Intn(2) == 1
			}
			f, err := CalculateFlagValue(v)
			if err != nil {
				t.Fatalf("length %d: unexpected error: %v", n, err)
			}
			got := f.Bits(n)
			for i := range v {
				if got[i] != v[i] {
					t.Fatalf("length %d bit %d: expected %v, got %v", n, i, v[i], got[i])
				}
			}
		}
	}
}

func TestCalculateFlagValue_Sum(t *testing.T) {
	f, err := CalculateFlagValue([]bool{true, false, true, true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 1 + 4 + 8
	if f.String() != "0xd" {
		t.Errorf("expected 0xd, got %s", f)
	}
}

func TestCalculateFlagValue_Overflow(t *testing.T) {
	_, err := CalculateFlagValue(make([]bool, MaxCapabilities+1))
	if !errors.Is(err, govcore.ErrOverflow) {
		t.Errorf("expected overflow, got %v", err)
	}
	if _, err := FlagsOf(Capability(MaxCapabilities)); !errors.Is(err, govcore.ErrOverflow) {
		t.Errorf("expected overflow for index %d, got %v", MaxCapabilities, err)
	}
	if _, err := FlagsOf(Capability(MaxCapabilities - 1)); err != nil {
		t.Errorf("highest index should fit: %v", err)
	}
}

func TestParseFlags(t *testing.T) {
	f, err := ParseFlags("0x201")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.Has(SubmitProposal) || !f.Has(ManageACL) || f.Has(SponsorProposal) {
		t.Errorf("unexpected capabilities %v", f.Capabilities())
	}
	dec, err := ParseFlags("513")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dec.Equal(f) {
		t.Errorf("decimal and hex forms differ: %s vs %s", dec, f)
	}
	// bit 128 set
	if _, err := ParseFlags("0x100000000000000000000000000000000"); !errors.Is(err, govcore.ErrOverflow) {
		t.Errorf("expected overflow, got %v", err)
	}
}

func TestParseCapability(t *testing.T) {
	c, err := ParseCapability("submitvoteresult")
	if err != nil || c != SubmitVoteResult {
		t.Errorf("expected SubmitVoteResult, got %v (%v)", c, err)
	}
	if _, err := ParseCapability("Nope"); err == nil {
		t.Error("expected error for unknown capability")
	}
}

func TestAccessControl_SetPermissions(t *testing.T) {
	ac := New(rawdb.NewMemoryDatabase())

	admin := common.HexToAddress("0xa")
	adapter := common.HexToAddress("0xb")
	if err := ac.Bootstrap([]Entry{{Subject: admin, Target: RegistryTarget, Flags: MustFlags(ManageACL)}}); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	// Adapter cannot grant itself anything
	err := ac.SetPermissions(adapter, adapter, DAOTarget, MustFlags(SubmitProposal))
	if !errors.Is(err, govcore.ErrAccessDenied) {
		t.Fatalf("expected access denied, got %v", err)
	}
	if ac.HasPermission(adapter, DAOTarget, SubmitProposal) {
		t.Fatal("denied call must not leave partial effects")
	}

	if err := ac.SetPermissions(admin, adapter, DAOTarget, MustFlags(SubmitProposal, TakeSnapshot)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ac.HasPermission(adapter, DAOTarget, SubmitProposal) || !ac.HasPermission(adapter, DAOTarget, TakeSnapshot) {
		t.Error("granted capabilities missing")
	}
	if ac.HasPermission(adapter, RegistryTarget, SubmitProposal) {
		t.Error("capabilities must be scoped to their target")
	}
	if err := ac.Check(adapter, DAOTarget, SponsorProposal); !errors.Is(err, govcore.ErrAccessDenied) {
		t.Errorf("expected access denied, got %v", err)
	}

	// Clearing removes the entry
	if err := ac.SetPermissions(admin, adapter, DAOTarget, Flags{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ac.Flags(adapter, DAOTarget).IsZero() {
		t.Error("expected empty flags after clearing")
	}
}
