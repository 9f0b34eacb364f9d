package cmd

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	w3common "github.com/w3agent/w3agent/common"
	"github.com/w3agent/w3agent/config"
	"github.com/w3agent/w3agent/rpc"
	"github.com/w3agent/w3agent/session"
	"github.com/w3agent/w3agent/ui"
)

// historyLog appends sent transactions to the terminal; a real deployment
// would persist them. Failures here never fail the send.
type historyLog struct {
	u ui.UI
}

func (h *historyLog) Append(record session.TxRecord) error {
	h.u.Info("recorded tx %s (%s) from %s to %s on chain %d",
		record.Hash, record.Kind, record.From.Hex(), record.To.Hex(), record.ChainID)
	return nil
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send native tokens from a vault key",
	Run: func(cmd *cobra.Command, args []string) {
		u := ui.NewTerminalUI()
		if !common.IsHexAddress(config.To) {
			u.Error("'%s' is not a valid destination address", config.To)
			return
		}
		if !common.IsHexAddress(config.From) {
			u.Error("'%s' is not a valid source address", config.From)
			return
		}
		chains := chainRegistry()
		net, err := activeNetwork(chains)
		if err != nil {
			u.Error("%s", err)
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

		client := rpc.NewClient()
		if config.GasLimit > 0 {
			client = rpc.NewClientWithGasLimit(config.GasLimit)
		}
		sess, err := session.New(session.Config{
			Chains:         chains,
			Contracts:      contractRegistry(u),
			Vault:          session.WrapVault(vault),
			Client:         client,
			History:        &historyLog{u: u},
			DefaultChainID: net.GetChainID(),
		})
		if err != nil {
			u.Error("Starting session failed: %s", err)
			return
		}
		if err := sess.Connect(common.HexToAddress(config.From)); err != nil {
			u.Error("Connecting %s failed: %s", config.From, err)
			return
		}

		amount := w3common.FloatToBigInt(config.Value, net.GetNativeTokenDecimal())
		prompt := fmt.Sprintf(
			"Send %s %s from %s to %s on %s?",
			w3common.BigToFloatString(amount, net.GetNativeTokenDecimal()),
			net.GetNativeTokenSymbol(),
			config.From, config.To, net.GetName(),
		)
		if !u.Confirm(prompt, false) {
			return
		}
		stop := u.Spinner("Broadcasting tx")
		hash, err := sess.SendTransaction(context.Background(), common.HexToAddress(config.To), amount, nil, "transfer")
		stop()
		if err != nil {
			u.Error("Sending failed: %s", err)
			return
		}
		u.Success("Broadcasted: %s", hash)
		if explorer := net.GetBlockExplorerURL(); explorer != "" {
			u.Info("%s/tx/%s", explorer, hash)
		}
	},
}

func init() {
	sendCmd.Flags().StringVar(&config.From, "from", "", "source address (must be in the vault)")
	sendCmd.Flags().StringVar(&config.To, "to", "", "destination address")
	sendCmd.Flags().Float64VarP(&config.Value, "value", "v", 0, "amount of native token to send")
	sendCmd.Flags().Uint64Var(&config.GasLimit, "gas", 0, "gas limit override, 0 asks the node to estimate")
	sendCmd.MarkFlagRequired("from")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("value")
	rootCmd.AddCommand(sendCmd)
}
