package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// RootCmd is the seaportctl entry point
var RootCmd = &cobra.Command{
	Use:          "seaportctl",
	Short:        "Operator tooling for the Seaport backend",
	SilenceUsage: true,
}

func main() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config.yaml providing the protocol domain (defaults are used when empty)")
	RootCmd.AddCommand(
		OrderHashCmd,
		SignOrderCmd,
		CriteriaRootCmd,
		CriteriaProofCmd,
		AdminSecretsCmd,
		TOTPCodeCmd,
		WatchCmd,
		DevJWTCmd,
		DBCheckCmd,
	)
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
