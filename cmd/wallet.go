package cmd

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	w3common "github.com/w3agent/w3agent/common"
	"github.com/w3agent/w3agent/keyvault"
	"github.com/w3agent/w3agent/ui"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage the encrypted key vault",
}

var walletStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the vault location and its address index",
	Run: func(cmd *cobra.Command, args []string) {
		u := ui.NewTerminalUI()
		store := keyvault.NewFileStore(vaultPath())
		if !store.Exists() {
			u.Warn("No vault at %s. Run 'w3agent wallet create' to make one.", vaultPath())
			return
		}
		vault, err := keyvault.Open(store)
		if err != nil {
			u.Error("Opening vault failed: %s", err)
			return
		}
		// the address index is readable without the master password; labels
		// and timestamps need an unlock, use 'wallet list' for those
		addrs := vault.Addresses()
		u.Table(nil, [][]string{
			{"Vault", vaultPath()},
			{"Keys", fmt.Sprintf("%d", len(addrs))},
		})
		if len(addrs) == 0 {
			u.Info("The vault is empty. Run 'w3agent wallet import' to add a key.")
			return
		}
		rows := [][]string{}
		for _, addr := range addrs {
			rows = append(rows, []string{addr.Hex()})
		}
		u.Table([]string{"Address"}, rows)
	},
}

var walletCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new empty vault protected by a master password",
	Run: func(cmd *cobra.Command, args []string) {
		u := ui.NewTerminalUI()
		pwd := u.AskPassword("Choose a master password (min 8 characters): ")
		again := u.AskPassword("Repeat the master password: ")
		if pwd != again {
			u.Error("Passwords don't match. Abort.")
			return
		}
		_, err := keyvault.Create(keyvault.NewFileStore(vaultPath()), pwd)
		if err != nil {
			u.Error("Creating vault failed: %s", err)
			return
		}
		u.Success("Vault created at %s", vaultPath())
	},
}

var walletImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a private key into the vault",
	Run: func(cmd *cobra.Command, args []string) {
		u := ui.NewTerminalUI()
		vault, err := openVault()
		if err != nil {
			u.Error("%s", err)
			return
		}
		pwd := u.AskPassword("Enter master password: ")
		if err := vault.Unlock(pwd); err != nil {
			u.Error("Unlocking vault failed: %s", err)
			return
		}
		defer vault.Lock()
		privHex := u.AskPassword("Enter private key (0x + 64 hex chars): ")
		u.Info("Label for this key (optional):")
		label := u.Ask(nil)
		stop := u.Spinner("Encrypting key")
		addr, err := vault.ImportKey(privHex, pwd, label)
		stop()
		if err != nil {
			u.Error("Importing key failed: %s", err)
			return
		}
		u.Success("Imported %s (%s)", addr.Hex(), w3common.LabelWithColor(label))
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List vault keys (never shows key material)",
	Run: func(cmd *cobra.Command, args []string) {
		u := ui.NewTerminalUI()
		vault, err := openVault()
		if err != nil {
			u.Error("%s", err)
			return
		}
		pwd := u.AskPassword("Enter master password: ")
		if err := vault.Unlock(pwd); err != nil {
			u.Error("Unlocking vault failed: %s", err)
			return
		}
		defer vault.Lock()
		keys, err := vault.ListKeys()
		if err != nil {
			u.Error("Listing keys failed: %s", err)
			return
		}
		rows := [][]string{}
		for _, key := range keys {
			rows = append(rows, []string{
				key.Address.Hex(),
				key.Label,
				key.CreatedAt.Format(time.DateTime),
			})
		}
		u.Table([]string{"Address", "Label", "Created"}, rows)
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <address>",
	Short: "Remove a key from the vault",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		u := ui.NewTerminalUI()
		if !common.IsHexAddress(args[0]) {
			u.Error("'%s' is not a valid address", args[0])
			return
		}
		addr := common.HexToAddress(args[0])
		vault, err := openVault()
		if err != nil {
			u.Error("%s", err)
			return
		}
		pwd := u.AskPassword("Enter master password: ")
		if err := vault.Unlock(pwd); err != nil {
			u.Error("Unlocking vault failed: %s", err)
			return
		}
		defer vault.Lock()
		if !u.Confirm(fmt.Sprintf("Remove key %s from the vault?", addr.Hex()), false) {
			return
		}
		if err := vault.RemoveKey(addr); err != nil {
			u.Error("Removing key failed: %s", err)
			return
		}
		u.Success("Removed %s", addr.Hex())
	},
}

var walletLabelCmd = &cobra.Command{
	Use:   "label <address> <label>",
	Short: "Relabel a vault key",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		u := ui.NewTerminalUI()
		if !common.IsHexAddress(args[0]) {
			u.Error("'%s' is not a valid address", args[0])
			return
		}
		vault, err := openVault()
		if err != nil {
			u.Error("%s", err)
			return
		}
		pwd := u.AskPassword("Enter master password: ")
		if err := vault.Unlock(pwd); err != nil {
			u.Error("Unlocking vault failed: %s", err)
			return
		}
		defer vault.Lock()
		if err := vault.UpdateLabel(common.HexToAddress(args[0]), args[1]); err != nil {
			u.Error("Updating label failed: %s", err)
			return
		}
		u.Success("Relabeled %s to %s", args[0], w3common.LabelWithColor(args[1]))
	},
}

var walletPasswdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the vault master password",
	Run: func(cmd *cobra.Command, args []string) {
		u := ui.NewTerminalUI()
		vault, err := openVault()
		if err != nil {
			u.Error("%s", err)
			return
		}
		oldPwd := u.AskPassword("Enter current master password: ")
		newPwd := u.AskPassword("Choose a new master password (min 8 characters): ")
		again := u.AskPassword("Repeat the new master password: ")
		if newPwd != again {
			u.Error("Passwords don't match. Abort.")
			return
		}
		stop := u.Spinner("Re-encrypting vault")
		err = vault.ChangeMasterPassword(oldPwd, newPwd)
		stop()
		if err != nil {
			u.Error("Changing master password failed: %s", err)
			return
		}
		u.Success("Master password changed.")
	},
}

func init() {
	walletCmd.AddCommand(walletStatusCmd)
	walletCmd.AddCommand(walletCreateCmd)
	walletCmd.AddCommand(walletImportCmd)
	walletCmd.AddCommand(walletListCmd)
	walletCmd.AddCommand(walletRemoveCmd)
	walletCmd.AddCommand(walletLabelCmd)
	walletCmd.AddCommand(walletPasswdCmd)
	rootCmd.AddCommand(walletCmd)
}
