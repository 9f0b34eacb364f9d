package cmd

import (
	"context"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	w3common "github.com/w3agent/w3agent/common"
	"github.com/w3agent/w3agent/keyvault"
	"github.com/w3agent/w3agent/networks"
	"github.com/w3agent/w3agent/rpc"
	"github.com/w3agent/w3agent/session"
	"github.com/w3agent/w3agent/ui"
)

var flagEphemeralCount int

// sessionEnv bundles everything the interactive loop operates on.
type sessionEnv struct {
	sess    *session.Session
	chains  *networks.Registry
	vault   *keyvault.Vault
	backend *keyvault.EphemeralBackend
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Interactive wallet session (connect, switch mode and chain, send)",
	Long: `session starts an interactive wallet session. Session state (connected
identity, signing mode, active chain) lives in memory only and dies with the
process.

With --ephemeral N the session seeds N freshly generated throwaway identities
and starts in ephemeral signing mode; otherwise it starts in vault mode
against your vault keys. Type 'help' inside the session for the commands.`,
	Run: func(cmd *cobra.Command, args []string) {
		u := ui.NewTerminalUI()
		chains := chainRegistry()
		net, err := activeNetwork(chains)
		if err != nil {
			u.Error("%s", err)
			return
		}

		var vault *keyvault.Vault
		var vaultView session.KeyVault
		if store := keyvault.NewFileStore(vaultPath()); store.Exists() {
			vault, err = keyvault.Open(store)
			if err != nil {
				u.Error("Opening vault failed: %s", err)
				return
			}
			vaultView = session.WrapVault(vault)
		}

		var backend *keyvault.EphemeralBackend
		if flagEphemeralCount > 0 {
			backend, err = keyvault.NewEphemeralBackend(flagEphemeralCount)
			if err != nil {
				u.Error("Seeding ephemeral identities failed: %s", err)
				return
			}
		}
		if vault == nil && backend == nil {
			u.Error("Nothing to sign with: create a vault with 'w3agent wallet create' or pass --ephemeral N.")
			return
		}

		var cfgBackend session.EphemeralBackend
		if backend != nil {
			cfgBackend = backend
		}
		sess, err := session.New(session.Config{
			Chains:         chains,
			Contracts:      contractRegistry(u),
			Vault:          vaultView,
			Backend:        cfgBackend,
			Client:         rpc.NewClient(),
			History:        &historyLog{u: u},
			DefaultChainID: net.GetChainID(),
		})
		if err != nil {
			u.Error("Starting session failed: %s", err)
			return
		}
		if vault != nil {
			defer vault.Lock()
		}
		sessionLoop(u, &sessionEnv{sess: sess, chains: chains, vault: vault, backend: backend})
	},
}

// sessionLoop reads commands until quit or end of input. An empty line ends
// the session so a closed stdin can never spin it.
func sessionLoop(u ui.UI, env *sessionEnv) {
	sessionStatus(u, env)
	u.Info("Type 'help' for commands, 'quit' or an empty line to leave.")
	for {
		input := strings.TrimSpace(u.Ask(nil))
		if input == "" || input == "quit" || input == "exit" {
			u.Info("Session closed.")
			return
		}
		fields := strings.Fields(input)
		cmd, args := fields[0], fields[1:]
		switch cmd {
		case "help":
			sessionHelp(u)
		case "status":
			sessionStatus(u, env)
		case "addresses":
			sessionAddresses(u, env)
		case "connect":
			if len(args) != 1 || !common.IsHexAddress(args[0]) {
				u.Error("usage: connect <address>")
				continue
			}
			if err := env.sess.Connect(common.HexToAddress(args[0])); err != nil {
				u.Error("%s", err)
				continue
			}
			u.Success("Connected %s (%s)", args[0], env.sess.State())
		case "disconnect":
			env.sess.Disconnect()
			u.Success("Disconnected.")
		case "mode":
			sessionMode(u, env, args)
		case "chain":
			sessionChain(u, env, args)
		case "unlock":
			if env.vault == nil {
				u.Error("No vault is open in this session.")
				continue
			}
			if err := env.vault.Unlock(u.AskPassword("Enter master password: ")); err != nil {
				u.Error("Unlocking vault failed: %s", err)
				continue
			}
			u.Success("Vault unlocked.")
		case "lock":
			if env.vault == nil {
				u.Error("No vault is open in this session.")
				continue
			}
			env.vault.Lock()
			u.Success("Vault locked.")
		case "send":
			sessionSend(u, env, args)
		default:
			u.Error("Unknown command '%s'. Type 'help'.", cmd)
		}
	}
}

func sessionHelp(u ui.UI) {
	u.Table(nil, [][]string{
		{"status", "show mode, connection and active chain"},
		{"addresses", "list the active mode's addresses"},
		{"connect <address>", "connect an identity from the active mode"},
		{"disconnect", "drop the connected identity"},
		{"mode <ephemeral|vault>", "switch signing mode"},
		{"chain <name|id>", "switch the active chain"},
		{"unlock / lock", "unlock or lock the vault"},
		{"send <to> <amount>", "send native tokens from the connected identity"},
		{"quit", "leave the session"},
	})
}

func sessionStatus(u ui.UI, env *sessionEnv) {
	connected := "none"
	if addr, ok := env.sess.ConnectedAddress(); ok {
		connected = addr.Hex()
	}
	chain := strconv.FormatUint(env.sess.ActiveChain(), 10)
	if net, err := env.chains.ByID(env.sess.ActiveChain()); err == nil {
		chain = net.GetName() + " (" + chain + ")"
	}
	vaultState := "no vault"
	if env.vault != nil {
		vaultState = "locked"
		if env.vault.IsUnlocked() {
			vaultState = "unlocked"
		}
	}
	u.Table(nil, [][]string{
		{"Mode", env.sess.Mode().String()},
		{"State", env.sess.State().String()},
		{"Connected", connected},
		{"Chain", chain},
		{"Vault", vaultState},
	})
}

func sessionAddresses(u ui.UI, env *sessionEnv) {
	var addrs []common.Address
	switch env.sess.Mode() {
	case session.ModeEphemeral:
		if env.backend != nil {
			addrs = env.backend.Addresses()
		}
	case session.ModeVault:
		if env.vault != nil {
			addrs = env.vault.Addresses()
		}
	}
	if len(addrs) == 0 {
		u.Warn("No addresses available in %s mode.", env.sess.Mode())
		return
	}
	rows := [][]string{}
	for _, addr := range addrs {
		rows = append(rows, []string{addr.Hex()})
	}
	u.Table([]string{"Address"}, rows)
}

func sessionMode(u ui.UI, env *sessionEnv, args []string) {
	if len(args) != 1 {
		u.Error("usage: mode <ephemeral|vault>")
		return
	}
	var mode session.Mode
	switch args[0] {
	case "ephemeral":
		mode = session.ModeEphemeral
	case "vault":
		mode = session.ModeVault
	default:
		u.Error("unknown mode '%s', use ephemeral or vault", args[0])
		return
	}
	if err := env.sess.SetSigningMode(mode); err != nil {
		u.Error("%s", err)
		return
	}
	u.Success("Signing mode is now %s (%s).", env.sess.Mode(), env.sess.State())
}

func sessionChain(u ui.UI, env *sessionEnv, args []string) {
	if len(args) != 1 {
		u.Error("usage: chain <name|id>")
		return
	}
	var net networks.Network
	var err error
	if id, convErr := strconv.ParseUint(args[0], 10, 64); convErr == nil {
		net, err = env.chains.ByID(id)
	} else {
		net, err = env.chains.ByName(args[0])
	}
	if err != nil {
		u.Error("%s", err)
		return
	}
	if err := env.sess.SwitchChain(net.GetChainID()); err != nil {
		u.Error("%s", err)
		return
	}
	u.Success("Active chain is now %s (%d).", net.GetName(), net.GetChainID())
}

func sessionSend(u ui.UI, env *sessionEnv, args []string) {
	if len(args) != 2 || !common.IsHexAddress(args[0]) {
		u.Error("usage: send <to-address> <amount>")
		return
	}
	net, err := env.chains.ByID(env.sess.ActiveChain())
	if err != nil {
		u.Error("%s", err)
		return
	}
	amount, err := w3common.FloatStringToBig(args[1], net.GetNativeTokenDecimal())
	if err != nil {
		u.Error("%s", err)
		return
	}
	if !u.Confirm("Send "+args[1]+" "+net.GetNativeTokenSymbol()+" to "+args[0]+"?", false) {
		return
	}
	stop := u.Spinner("Broadcasting tx")
	hash, err := env.sess.SendTransaction(context.Background(), common.HexToAddress(args[0]), amount, nil, "transfer")
	stop()
	if err != nil {
		u.Error("Sending failed: %s", err)
		return
	}
	u.Success("Broadcasted: %s", hash)
}

func init() {
	sessionCmd.Flags().IntVar(&flagEphemeralCount, "ephemeral", 0, "seed N generated throwaway identities and start in ephemeral mode")
	rootCmd.AddCommand(sessionCmd)
}
