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


package govdb

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
)

type testRecord struct {
	Name   string
	Weight uint64
}

func TestACLFlags(t *testing.T) {
	db := rawdb.NewMemoryDatabase()
	subject := common.HexToAddress("0x01")
	target := common.HexToHash("0xaa")

	flags, err := ReadACLFlags(db, subject, target)
	if err != nil {
		t.Fatalf("ReadACLFlags failed: %v", err)
	}
	if flags != ([32]byte{}) {
		t.Errorf("expected empty flags, got %x", flags)
	}

	var want [32]byte
	want[31] = 0x05
	want[16] = 0x01
	if err := WriteACLFlags(db, subject, target, want); err != nil {
		t.Fatalf("WriteACLFlags failed: %v", err)
	}
	got, err := ReadACLFlags(db, subject, target)
	if err != nil {
		t.Fatalf("ReadACLFlags failed: %v", err)
	}
	if got != want {
		t.Errorf("expected %x, got %x", want, got)
	}

	// Other targets are unaffected.
	other, _ := ReadACLFlags(db, subject, common.HexToHash("0xbb"))
	if other != ([32]byte{}) {
		t.Errorf("expected empty flags on other target, got %x", other)
	}

	if err := WriteACLFlags(db, subject, target, [32]byte{}); err != nil {
		t.Fatalf("WriteACLFlags failed: %v", err)
	}
	if has, _ := db.Has(aclKey(subject, target)); has {
		t.Error("expected zero flags to remove the entry")
	}
}

func TestRecords(t *testing.T) {
	db := rawdb.NewMemoryDatabase()
	id := common.HexToHash("0x1234")

	t.Run("Missing record", func(t *testing.T) {
		var rec testRecord
		ok, err := ReadProposal(db, id, &rec)
		if err != nil || ok {
			t.Errorf("expected (false, nil), got (%v, %v)", ok, err)
		}
	})

	t.Run("Round trip", func(t *testing.T) {
		want := testRecord{Name: "proposal", Weight: 7}
		if err := WriteProposal(db, id, &want); err != nil {
			t.Fatalf("WriteProposal failed: %v", err)
		}
		var got testRecord
		ok, err := ReadProposal(db, id, &got)
		if err != nil || !ok {
			t.Fatalf("ReadProposal failed: %v", err)
		}
		if got != want {
			t.Errorf("expected %+v, got %+v", want, got)
		}
		// Same id under another prefix is a distinct record.
		ok, _ = ReadVoteResult(db, id, &got)
		if ok {
			t.Error("expected no vote result under proposal id")
		}
	})

	t.Run("Corrupt record", func(t *testing.T) {
		bad := common.HexToHash("0xdead")
		if err := db.Put(snapshotKey(bad), []byte{0xff, 0x01}); err != nil {
			t.Fatal(err)
		}
		var rec testRecord
		if _, err := ReadSnapshot(db, bad, &rec); err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestIterateMembers(t *testing.T) {
	db := rawdb.NewMemoryDatabase()
	addrs := []common.Address{
		common.HexToAddress("0x03"),
		common.HexToAddress("0x01"),
		common.HexToAddress("0x02"),
	}
	for i, addr := range addrs {
		if err := WriteMember(db, addr, &testRecord{Name: addr.Hex(), Weight: uint64(i)}); err != nil {
			t.Fatalf("WriteMember failed: %v", err)
		}
	}
	// Keys sharing the member prefix but not shaped like a member key are skipped.
	if err := db.Put([]byte("mx"), []byte{0x01}); err != nil {
		t.Fatal(err)
	}
	if err := WriteDelegateOwner(db, common.HexToAddress("0xd1"), addrs[0]); err != nil {
		t.Fatal(err)
	}

	var names []string
	err := IterateMembers(db, func() interface{} { return new(testRecord) }, func(v interface{}) error {
		names = append(names, v.(*testRecord).Name)
		return nil
	})
	if err != nil {
		t.Fatalf("IterateMembers failed: %v", err)
	}
	if len(names) != 3 {
		t.Fatalf("expected 3 members, got %d", len(names))
	}
	for i, want := range []common.Address{addrs[1], addrs[2], addrs[0]} {
		if names[i] != want.Hex() {
			t.Errorf("member %d: expected %s, got %s", i, want.Hex(), names[i])
		}
	}
}

func TestPointers(t *testing.T) {
	db := rawdb.NewMemoryDatabase()

	ref, err := ReadLastSnapshotRef(db)
	if err != nil || ref != (common.Hash{}) {
		t.Errorf("expected empty ref, got %x (%v)", ref, err)
	}
	want := common.HexToHash("0xabcd")
	if err := WriteLastSnapshotRef(db, want); err != nil {
		t.Fatal(err)
	}
	if ref, _ = ReadLastSnapshotRef(db); ref != want {
		t.Errorf("expected %x, got %x", want, ref)
	}

	delegate, member := common.HexToAddress("0xd1"), common.HexToAddress("0x01")
	if _, ok, _ := ReadDelegateOwner(db, delegate); ok {
		t.Error("expected unbound delegate")
	}
	if err := WriteDelegateOwner(db, delegate, member); err != nil {
		t.Fatal(err)
	}
	if owner, ok, _ := ReadDelegateOwner(db, delegate); !ok || owner != member {
		t.Errorf("expected %s, got %s (%v)", member.Hex(), owner.Hex(), ok)
	}

	if _, ok, _ := ReadGenesis(db); ok {
		t.Error("expected fresh database")
	}
	dao := common.HexToAddress("0xda0")
	if err := WriteGenesis(db, dao); err != nil {
		t.Fatal(err)
	}
	if id, ok, _ := ReadGenesis(db); !ok || id != dao {
		t.Errorf("expected %s, got %s", dao.Hex(), id.Hex())
	}
}
