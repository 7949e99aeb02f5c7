package main

import (
	"fmt"
	"math/big"

	"seaport-backend/internal/config"
	"seaport-backend/internal/utils"

	"github.com/spf13/cobra"
)

var proofTarget string

// CriteriaRootCmd prints the merkle root committing to a set of token identifiers
var CriteriaRootCmd = &cobra.Command{
	Use:   "criteria-root <identifier>...",
	Short: "Compute the criteria root of token identifiers",
	Args:  cobra.MinimumNArgs(1),
	RunE:  criteriaRoot,
}

// CriteriaProofCmd prints the proof that --target belongs to the identifier set
var CriteriaProofCmd = &cobra.Command{
	Use:   "criteria-proof --target <identifier> <identifier>...",
	Short: "Compute the criteria proof of one identifier",
	Args:  cobra.MinimumNArgs(1),
	RunE:  criteriaProof,
}

func init() {
	CriteriaProofCmd.Flags().StringVar(&proofTarget, "target", "", "identifier to prove")
	_ = CriteriaProofCmd.MarkFlagRequired("target")
}

func buildTree(args []string) (*utils.CriteriaTree, error) {
	identifiers := make([]*big.Int, 0, len(args))
	for _, arg := range args {
		id, err := config.ParseAmount(arg)
		if err != nil {
			return nil, err
		}
		identifiers = append(identifiers, id)
	}
	return utils.NewCriteriaTree(identifiers)
}

func criteriaRoot(cmd *cobra.Command, args []string) error {
	tree, err := buildTree(args)
	if err != nil {
		return err
	}
	fmt.Println(tree.Root().Hex())
	return nil
}

func criteriaProof(cmd *cobra.Command, args []string) error {
	tree, err := buildTree(args)
	if err != nil {
		return err
	}
	target, err := config.ParseAmount(proofTarget)
	if err != nil {
		return err
	}
	proof, err := tree.Proof(target)
	if err != nil {
		return err
	}
	if !utils.VerifyCriteriaProof(target, tree.Root(), proof) {
		return fmt.Errorf("generated proof does not verify")
	}
	return printJSON(map[string]interface{}{
		"root":          tree.Root(),
		"identifier":    target.String(),
		"criteriaProof": proof,
	})
}
