// Package merkle builds audit trees over vote ledgers and produces
// inclusion proofs verifiable against a sealed root.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	// ErrEmptyTree is returned when a tree is built over zero leaves
	ErrEmptyTree = errors.New("merkle: empty tree")

	// ErrLeafNotFound is returned when a proof is requested for an
	// unknown leaf
	ErrLeafNotFound = errors.New("merkle: leaf not found")
)

// Tree is a binary hash tree built over a fixed set of leaves.
// Pairs are hashed in sorted order, so proof verification does not
// need sibling position information. A node without a sibling is
// promoted to the next level unchanged.
type Tree struct {
	leaves [][]byte
	levels [][][]byte
}

// HashLeaf hashes raw leaf content into its leaf node
func HashLeaf(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// hashPair hashes two nodes with the smaller one first
func hashPair(a, b []byte) []byte {
	h := sha256.New()
	if bytes.Compare(a, b) <= 0 {
		h.Write(a)
		h.Write(b)
	} else {
		h.Write(b)
		h.Write(a)
	}
	return h.Sum(nil)
}

// New builds a tree over the given leaf hashes
func New(leaves [][]byte) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}

	levels := make([][][]byte, 0)
	level := make([][]byte, len(leaves))
	copy(level, leaves)
	levels = append(levels, level)

	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				next = append(next, level[i])
			}
		}
		levels = append(levels, next)
		level = next
	}

	return &Tree{leaves: levels[0], levels: levels}, nil
}

// Root returns the tree root hash
func (t *Tree) Root() []byte {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// RootHex returns the tree root as a hex string
func (t *Tree) RootHex() string {
	return hex.EncodeToString(t.Root())
}

// Size returns the number of leaves
func (t *Tree) Size() int {
	return len(t.leaves)
}

// Proof returns the inclusion proof for the leaf at the given index.
// The proof is the list of sibling hashes from leaf level to the root;
// levels where the node had no sibling contribute nothing.
func (t *Tree) Proof(index int) ([][]byte, error) {
	if index < 0 || index >= len(t.leaves) {
		return nil, fmt.Errorf("merkle: index %d out of range [0, %d)", index, len(t.leaves))
	}

	proof := make([][]byte, 0)
	for _, level := range t.levels[:len(t.levels)-1] {
		var sibling int
		if index%2 == 0 {
			sibling = index + 1
		} else {
			sibling = index - 1
		}
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		index /= 2
	}

	return proof, nil
}

// ProofForLeaf returns the inclusion proof for the first leaf equal to
// the given hash.
func (t *Tree) ProofForLeaf(leaf []byte) ([][]byte, error) {
	for i, l := range t.leaves {
		if bytes.Equal(l, leaf) {
			return t.Proof(i)
		}
	}
	return nil, ErrLeafNotFound
}

// Verify checks an inclusion proof against a root. The running hash is
// combined with each proof element in sorted order, so the caller does
// not need to know the leaf's position.
func Verify(leaf []byte, proof [][]byte, root []byte) bool {
	running := leaf
	for _, element := range proof {
		running = hashPair(running, element)
	}
	return bytes.Equal(running, root)
}

// VerifyHex checks an inclusion proof given hex-encoded inputs
func VerifyHex(leafHex string, proofHex []string, rootHex string) (bool, error) {
	leaf, err := hex.DecodeString(leafHex)
	if err != nil {
		return false, fmt.Errorf("merkle: invalid leaf hex: %v", err)
	}
	root, err := hex.DecodeString(rootHex)
	if err != nil {
		return false, fmt.Errorf("merkle: invalid root hex: %v", err)
	}
	proof := make([][]byte, 0, len(proofHex))
	for _, p := range proofHex {
		b, err := hex.DecodeString(p)
		if err != nil {
			return false, fmt.Errorf("merkle: invalid proof element hex: %v", err)
		}
		proof = append(proof, b)
	}
	return Verify(leaf, proof, root), nil
}
