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

// Package merkle implements the positional keccak256 Merkle tree used for
// member-weight snapshots and off-chain vote results.
//
// Leaves keep their position: a proof commits to the leaf index as well as to
// the leaf hash, so ordering claims can be checked against a root. Odd layers
// are padded with the zero hash.
package merkle

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var errIndexOutOfRange = errors.New("leaf index out of range")

// Proof is an inclusion proof for the leaf at Index.
type Proof struct {
	Index    uint64
	Siblings []common.Hash
}

// Tree is an immutable Merkle tree over an ordered list of leaf hashes.
type Tree struct {
	layers [][]common.Hash
}

// HashPair hashes two child nodes into their parent.
func HashPair(left, right common.Hash) common.Hash {
	return crypto.Keccak256Hash(left[:], right[:])
}

// Depth returns the number of siblings in a proof for a tree of count leaves.
func Depth(count uint64) int {
	depth := 0
	for uint64(1)<<depth < count {
		depth++
	}
	return depth
}

// New builds the tree bottom up. O(n) hashing, the leaves are not copied.
func New(leaves []common.Hash) *Tree {
	t := &Tree{layers: [][]common.Hash{leaves}}
	for layer := leaves; len(layer) > 1; {
		next := make([]common.Hash, (len(layer)+1)/2)
		for i := range next {
			var right common.Hash
			if 2*i+1 < len(layer) {
				right = layer[2*i+1]
			}
			next[i] = HashPair(layer[2*i], right)
		}
		t.layers = append(t.layers, next)
		layer = next
	}
	return t
}

// NewDepth builds a tree of at least the given depth, hashing the root with
// zero siblings until it is reached. Every missing node is the zero hash, so
// a tree over n leaves at depth d commits to the same slots as one over the
// same leaves padded to 2^d.
func NewDepth(leaves []common.Hash, depth int) *Tree {
	t := New(leaves)
	for t.Depth() < depth {
		t.layers = append(t.layers, []common.Hash{HashPair(t.Root(), common.Hash{})})
	}
	return t
}

// Depth returns the number of levels above the leaves.
func (t *Tree) Depth() int {
	return len(t.layers) - 1
}

// Root returns the tree root, or the zero hash for an empty tree.
func (t *Tree) Root() common.Hash {
	top := t.layers[len(t.layers)-1]
	if len(top) == 0 {
		return common.Hash{}
	}
	return top[0]
}

// Len returns the number of leaves.
func (t *Tree) Len() int {
	return len(t.layers[0])
}

// Leaf returns the i-th leaf hash.
func (t *Tree) Leaf(i int) common.Hash {
	return t.layers[0][i]
}

// Prove returns the inclusion proof of the i-th leaf.
func (t *Tree) Prove(i int) (Proof, error) {
	if i < 0 || i >= t.Len() {
		return Proof{}, errIndexOutOfRange
	}
	return t.ProveNode(0, i)
}

// Node returns the node at position pos of the given level, or the zero hash
// if that subtree holds no leaves.
func (t *Tree) Node(level, pos int) common.Hash {
	if level < 0 || level >= len(t.layers) || pos < 0 || pos >= len(t.layers[level]) {
		return common.Hash{}
	}
	return t.layers[level][pos]
}

// ProveNode returns the proof of the node at position pos of the given
// level. Positions past the last leaf are provable as empty subtrees.
func (t *Tree) ProveNode(level, pos int) (Proof, error) {
	if level < 0 || level > t.Depth() || pos < 0 || pos >= 1<<(t.Depth()-level) {
		return Proof{}, errIndexOutOfRange
	}
	proof := Proof{Index: uint64(pos), Siblings: make([]common.Hash, 0, t.Depth()-level)}
	for l := level; l < t.Depth(); l++ {
		proof.Siblings = append(proof.Siblings, t.Node(l, pos^1))
		pos /= 2
	}
	return proof, nil
}

// Verify checks that leaf sits at proof.Index in the tree of count leaves
// committed to by root.
func Verify(root common.Hash, count uint64, leaf common.Hash, proof Proof) bool {
	return proof.Index < count && VerifyNode(root, Depth(count), 0, leaf, proof)
}

// VerifyNode checks that node sits at position proof.Index of the given
// level in the tree of the given depth committed to by root.
func VerifyNode(root common.Hash, depth, level int, node common.Hash, proof Proof) bool {
	if level < 0 || level > depth || len(proof.Siblings) != depth-level {
		return false
	}
	if depth-level < 64 && proof.Index >= uint64(1)<<(depth-level) {
		return false
	}
	index := proof.Index
	for _, sibling := range proof.Siblings {
		if index&1 == 0 {
			node = HashPair(node, sibling)
		} else {
			node = HashPair(sibling, node)
		}
		index >>= 1
	}
	return node == root
}
