package utils

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCriteriaTreeSingleLeaf(t *testing.T) {
	tree, err := NewCriteriaTree([]*big.Int{big.NewInt(7)})
	require.NoError(t, err)
	assert.Equal(t, CriteriaLeaf(big.NewInt(7)), tree.Root())

	proof, err := tree.Proof(big.NewInt(7))
	require.NoError(t, err)
	assert.Empty(t, proof)
	assert.True(t, VerifyCriteriaProof(big.NewInt(7), tree.Root(), proof))
}

func TestCriteriaTreeThreeLeaves(t *testing.T) {
	ids := []*big.Int{big.NewInt(3), big.NewInt(1), big.NewInt(2)}
	tree, err := NewCriteriaTree(ids)
	require.NoError(t, err)

	for _, id := range ids {
		proof, err := tree.Proof(id)
		require.NoError(t, err)
		assert.True(t, VerifyCriteriaProof(id, tree.Root(), proof), "id %s", id)
	}

	proof, err := tree.Proof(big.NewInt(1))
	require.NoError(t, err)
	assert.False(t, VerifyCriteriaProof(big.NewInt(4), tree.Root(), proof))
	assert.False(t, VerifyCriteriaProof(big.NewInt(1), common.HexToHash("0x01"), proof))

	_, err = tree.Proof(big.NewInt(4))
	require.ErrorIs(t, err, ErrUnknownIdentifier)
}

func TestCriteriaTreeIgnoresDuplicates(t *testing.T) {
	a, err := NewCriteriaTree([]*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(2)})
	require.NoError(t, err)
	b, err := NewCriteriaTree([]*big.Int{big.NewInt(2), big.NewInt(1)})
	require.NoError(t, err)
	assert.Equal(t, a.Root(), b.Root())
}

func TestCriteriaTreeEmpty(t *testing.T) {
	_, err := NewCriteriaTree(nil)
	require.ErrorIs(t, err, ErrEmptyCriteria)
}

func TestCriteriaProofsVerify(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 40).Draw(t, "n").(int)
		ids := make([]*big.Int, n)
		for i := range ids {
			ids[i] = big.NewInt(rapid.Int64Range(0, 1<<30).Draw(t, "id").(int64))
		}
		tree, err := NewCriteriaTree(ids)
		require.NoError(t, err)

		id := ids[rapid.IntRange(0, n-1).Draw(t, "pick").(int)]
		proof, err := tree.Proof(id)
		require.NoError(t, err)
		require.True(t, VerifyCriteriaProof(id, tree.Root(), proof))
	})
}
