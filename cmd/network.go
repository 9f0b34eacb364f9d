package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/w3agent/w3agent/networks"
	"github.com/w3agent/w3agent/ui"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Manage chains",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and custom chains",
	Run: func(cmd *cobra.Command, args []string) {
		u := ui.NewTerminalUI()
		r := chainRegistry()
		rows := [][]string{}
		for _, n := range r.All() {
			names := n.GetName()
			if alts := n.GetAlternativeNames(); len(alts) > 0 {
				names = fmt.Sprintf("%s (%s)", names, strings.Join(alts, ", "))
			}
			rows = append(rows, []string{
				strconv.FormatUint(n.GetChainID(), 10),
				names,
				n.GetNativeTokenSymbol(),
				n.GetNodeVariableName(),
			})
		}
		u.Table([]string{"Chain ID", "Name", "Token", "Node env var"}, rows)
	},
}

var networkAddCmd = &cobra.Command{
	Use:   "add <definition.json>",
	Short: "Add a custom chain from a json definition",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		u := ui.NewTerminalUI()
		content, err := os.ReadFile(args[0])
		if err != nil {
			u.Error("Reading %s failed: %s", args[0], err)
			return
		}
		n, err := networks.NewNetworkFromJSON(content)
		if err != nil {
			u.Error("Parsing chain definition failed: %s", err)
			return
		}
		r := chainRegistry()
		if err := r.Add(n); err != nil {
			u.Error("Adding chain failed: %s", err)
			return
		}
		// persist so future invocations pick it up
		customDir := filepath.Join(dataDir(), "networks")
		if err := os.MkdirAll(customDir, 0755); err != nil {
			u.Error("Creating %s failed: %s", customDir, err)
			return
		}
		out, err := n.MarshalJSON()
		if err != nil {
			u.Error("Marshaling chain failed: %s", err)
			return
		}
		dest := filepath.Join(customDir, fmt.Sprintf("%s.json", n.GetName()))
		if err := os.WriteFile(dest, out, 0644); err != nil {
			u.Error("Writing %s failed: %s", dest, err)
			return
		}
		u.Success("Added chain %s (id %d)", n.GetName(), n.GetChainID())
	},
}

var networkRemoveCmd = &cobra.Command{
	Use:   "remove <chain-id>",
	Short: "Remove a custom chain",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		u := ui.NewTerminalUI()
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			u.Error("'%s' is not a valid chain id", args[0])
			return
		}
		r := chainRegistry()
		n, err := r.ByID(id)
		if err != nil {
			u.Error("%s", err)
			return
		}
		if err := r.Remove(id); err != nil {
			u.Error("Removing chain failed: %s", err)
			return
		}
		file := filepath.Join(dataDir(), "networks", fmt.Sprintf("%s.json", n.GetName()))
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			u.Warn("Chain removed but deleting %s failed: %s", file, err)
			return
		}
		u.Success("Removed chain %s (id %d)", n.GetName(), id)
	},
}

func init() {
	networkCmd.AddCommand(networkListCmd)
	networkCmd.AddCommand(networkAddCmd)
	networkCmd.AddCommand(networkRemoveCmd)
	rootCmd.AddCommand(networkCmd)
}
