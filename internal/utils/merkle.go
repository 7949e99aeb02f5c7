package utils

import (
	"bytes"
	"errors"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrEmptyCriteria is returned when a criteria tree is built from no identifiers
var ErrEmptyCriteria = errors.New("criteria tree needs at least one identifier")

// ErrUnknownIdentifier is returned when a proof is requested for an identifier outside the tree
var ErrUnknownIdentifier = errors.New("identifier is not part of the criteria tree")

// CriteriaLeaf hashes a token identifier as a 32-byte big-endian word
func CriteriaLeaf(identifier *big.Int) common.Hash {
	return crypto.Keccak256Hash(common.BigToHash(identifier).Bytes())
}

// hashPair hashes two nodes in ascending byte order
func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a.Bytes(), b.Bytes())
}

// VerifyCriteriaProof checks that identifier belongs to the tree with the given root
func VerifyCriteriaProof(identifier *big.Int, root common.Hash, proof []common.Hash) bool {
	computed := CriteriaLeaf(identifier)
	for _, node := range proof {
		computed = hashPair(computed, node)
	}
	return computed == root
}

// CriteriaTree is a merkle tree over a set of token identifiers
type CriteriaTree struct {
	layers   [][]common.Hash
	position map[string]int
}

// NewCriteriaTree builds a tree over the identifiers. Duplicates are ignored and
// an unpaired node is promoted to the next layer unchanged.
func NewCriteriaTree(identifiers []*big.Int) (*CriteriaTree, error) {
	if len(identifiers) == 0 {
		return nil, ErrEmptyCriteria
	}

	words := make([]common.Hash, 0, len(identifiers))
	for _, id := range identifiers {
		words = append(words, common.BigToHash(id))
	}
	sort.Slice(words, func(i, j int) bool {
		return bytes.Compare(words[i].Bytes(), words[j].Bytes()) < 0
	})

	tree := &CriteriaTree{position: make(map[string]int)}
	leaves := make([]common.Hash, 0, len(words))
	for i, w := range words {
		if i > 0 && words[i-1] == w {
			continue
		}
		tree.position[new(big.Int).SetBytes(w.Bytes()).String()] = len(leaves)
		leaves = append(leaves, crypto.Keccak256Hash(w.Bytes()))
	}

	tree.layers = append(tree.layers, leaves)
	for len(tree.layers[len(tree.layers)-1]) > 1 {
		prev := tree.layers[len(tree.layers)-1]
		next := make([]common.Hash, 0, (len(prev)+1)/2)
		for i := 0; i < len(prev); i += 2 {
			if i+1 == len(prev) {
				next = append(next, prev[i])
				continue
			}
			next = append(next, hashPair(prev[i], prev[i+1]))
		}
		tree.layers = append(tree.layers, next)
	}
	return tree, nil
}

// Root returns the merkle root
func (t *CriteriaTree) Root() common.Hash {
	return t.layers[len(t.layers)-1][0]
}

// Proof returns the sibling path of identifier from leaf to root
func (t *CriteriaTree) Proof(identifier *big.Int) ([]common.Hash, error) {
	idx, ok := t.position[identifier.String()]
	if !ok {
		return nil, ErrUnknownIdentifier
	}
	proof := make([]common.Hash, 0, len(t.layers))
	for _, layer := range t.layers[:len(t.layers)-1] {
		pair := idx ^ 1
		if pair < len(layer) {
			proof = append(proof, layer[pair])
		}
		idx /= 2
	}
	return proof, nil
}
