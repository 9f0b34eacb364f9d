package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/w3agent/w3agent/config"
)

var rootCmd = &cobra.Command{
	Use:   "w3agent",
	Short: "Wallet session and contract resolution core for agent driven chain operations",
	Long: `w3agent manages the wallet state an automated agent operates through:

	1. An encrypted key vault that keeps your private keys password
	protected at rest and routes signing to the right key.

	2. A chain registry with the common EVM chains built in, plus your
	own custom chains defined as json files.

	3. A contract registry that turns names like "usdc" into a concrete
	address and ABI on the active chain, with explicit per-chain address
	registrations taking precedence over loaded definitions.

Node URLs can be overridden per network with env vars, for example
ETHEREUM_MAINNET_NODE for mainnet. Run 'w3agent network list' to see the
variable for each chain.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called by main.main().
func Execute() {
	rootCmd.PersistentFlags().StringVarP(&config.NetworkName, "network", "k", "mainnet", "chain to operate on, by name or alternative name")
	rootCmd.PersistentFlags().StringVar(&config.DataDir, "data-dir", "", "data directory (default ~/.w3agent)")
	rootCmd.PersistentFlags().StringVar(&config.VaultPath, "vault", "", "vault file path (default <data-dir>/vault.json)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
