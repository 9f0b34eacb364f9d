package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/w3agent/w3agent/contracts"
	"github.com/w3agent/w3agent/ui"
)

var (
	flagContractAddress string
	flagFallback        string
)

var contractCmd = &cobra.Command{
	Use:   "contract",
	Short: "Manage contract definitions and resolve references",
}

var contractLoadCmd = &cobra.Command{
	Use:   "load <definitions.json>",
	Short: "Load contract definitions in bulk",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		u := ui.NewTerminalUI()
		r := contracts.NewRegistry()
		report, err := r.LoadDefinitions(contracts.FileSource{}, args[0])
		if err != nil {
			u.Error("Loading definitions failed: %s", err)
			return
		}
		for _, skipErr := range report.Skipped {
			u.Warn("skipped: %s", skipErr)
		}
		// keep a copy so future invocations load the same definitions
		content, err := os.ReadFile(args[0])
		if err != nil {
			u.Error("Reading %s failed: %s", args[0], err)
			return
		}
		dest := filepath.Join(dataDir(), "contracts.json")
		if err := os.MkdirAll(dataDir(), 0755); err != nil {
			u.Error("Creating %s failed: %s", dataDir(), err)
			return
		}
		if err := os.WriteFile(dest, content, 0644); err != nil {
			u.Error("Writing %s failed: %s", dest, err)
			return
		}
		u.Success("Loaded %d definitions (%d skipped)", report.Loaded, len(report.Skipped))
	},
}

var contractRegisterCmd = &cobra.Command{
	Use:   "register <name> <address>",
	Short: "Bind a contract name to an address on the active chain",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		u := ui.NewTerminalUI()
		chains := chainRegistry()
		net, err := activeNetwork(chains)
		if err != nil {
			u.Error("%s", err)
			return
		}
		r := contractRegistry(u)
		if err := r.RegisterContract(args[0], args[1], net.GetChainID()); err != nil {
			u.Error("Registering contract failed: %s", err)
			return
		}
		if err := saveBindings(r, bindingsPath()); err != nil {
			u.Error("Persisting binding failed: %s", err)
			return
		}
		u.Success("Registered %s -> %s on %s", args[0], args[1], net.GetName())
	},
}

var contractResolveCmd = &cobra.Command{
	Use:   "resolve <reference>",
	Short: "Resolve a contract reference on the active chain",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		u := ui.NewTerminalUI()
		chains := chainRegistry()
		net, err := activeNetwork(chains)
		if err != nil {
			u.Error("%s", err)
			return
		}
		r := contractRegistry(u)
		resolved, err := r.Resolve(args[0], flagContractAddress, net.GetChainID(), contracts.ResolveOptions{
			Fallback: flagFallback,
		})
		if err != nil {
			u.Error("Resolving '%s' failed: %s", args[0], err)
			return
		}
		u.Table(nil, [][]string{
			{"Name", resolved.Name},
			{"Address", resolved.Address.Hex()},
			{"Chain", fmt.Sprintf("%s (%d)", net.GetName(), net.GetChainID())},
			{"Methods", strconv.Itoa(len(resolved.ABI.Methods))},
		})
	},
}

var contractListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and loaded contract definitions",
	Run: func(cmd *cobra.Command, args []string) {
		u := ui.NewTerminalUI()
		r := contractRegistry(u)
		rows := [][]string{}
		for _, summary := range r.ListAll() {
			kind := "loaded"
			if summary.Builtin {
				kind = "builtin"
			}
			chains := make([]string, 0, len(summary.Chains))
			for _, id := range summary.Chains {
				chains = append(chains, strconv.FormatUint(id, 10))
			}
			rows = append(rows, []string{summary.Name, kind, strings.Join(chains, ", ")})
		}
		u.Table([]string{"Name", "Kind", "Chains with address"}, rows)
	},
}

var contractSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over definitions and registered addresses",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		u := ui.NewTerminalUI()
		r := contractRegistry(u)
		index, err := contracts.OpenIndex(indexPath())
		if err != nil {
			u.Error("Opening contract index failed: %s", err)
			return
		}
		defer index.Close()
		if err := index.Rebuild(r); err != nil {
			u.Error("Rebuilding contract index failed: %s", err)
			return
		}
		hits, err := index.Search(args[0], 10)
		if err != nil {
			u.Error("Search failed: %s", err)
			return
		}
		if len(hits) == 0 {
			// fall back to fuzzy matching on names
			for _, summary := range r.Search(args[0]) {
				hits = append(hits, "def/"+summary.Name)
			}
		}
		if len(hits) == 0 {
			u.Warn("No contract matches '%s'", args[0])
			return
		}
		rows := [][]string{}
		for _, hit := range hits {
			rows = append(rows, []string{hit})
		}
		u.Table([]string{"Match"}, rows)
	},
}

func init() {
	contractResolveCmd.Flags().StringVar(&flagContractAddress, "address", "", "explicit contract address, required for builtin definitions")
	contractResolveCmd.Flags().StringVar(&flagFallback, "fallback", "", "builtin ABI to assume for bare addresses (e.g. erc20)")
	contractCmd.AddCommand(contractLoadCmd)
	contractCmd.AddCommand(contractRegisterCmd)
	contractCmd.AddCommand(contractResolveCmd)
	contractCmd.AddCommand(contractListCmd)
	contractCmd.AddCommand(contractSearchCmd)
	rootCmd.AddCommand(contractCmd)
}
