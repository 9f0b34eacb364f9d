// Package rpc is the outbound chain collaborator: it estimates, broadcasts
// and reads against a node of the given network. The wallet core only ever
// reaches the network through this package.
package rpc

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/w3agent/w3agent/networks"
	"github.com/w3agent/w3agent/session"
)

const defaultTimeout = 15 * time.Second

// extra gas margin on top of the node's estimate, in percent
const gasMarginPercent = 20

type Client struct {
	timeout  time.Duration
	gasLimit uint64 // 0 means estimate per tx
}

func NewClient() *Client {
	return &Client{timeout: defaultTimeout}
}

// NewClientWithGasLimit returns a client that skips gas estimation and uses
// gasLimit for every send.
func NewClientWithGasLimit(gasLimit uint64) *Client {
	return &Client{timeout: defaultTimeout, gasLimit: gasLimit}
}

// padGas adds the safety margin on top of a node's gas estimate.
func padGas(estimate uint64) uint64 {
	return estimate * (100 + gasMarginPercent) / 100
}

// nodeURL picks the node for net: the env var override when set, otherwise
// the first default node.
func nodeURL(net networks.Network) (string, error) {
	if url := strings.TrimSpace(os.Getenv(net.GetNodeVariableName())); url != "" {
		return url, nil
	}
	for _, url := range net.GetDefaultNodes() {
		return url, nil
	}
	return "", fmt.Errorf("no node configured for network '%s'", net.GetName())
}

func (c *Client) dial(ctx context.Context, net networks.Network) (*ethclient.Client, error) {
	url, err := nodeURL(net)
	if err != nil {
		return nil, err
	}
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial node %s: %w", url, err)
	}
	return client, nil
}

// EstimateAndSend fills in nonce, gas price and gas limit, has signer sign
// the transaction and broadcasts it. Returns the tx hash.
func (c *Client) EstimateAndSend(ctx context.Context, signer session.Signer, to common.Address, value *big.Int, data []byte, net networks.Network) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client, err := c.dial(ctx, net)
	if err != nil {
		return "", err
	}
	defer client.Close()

	from := signer.Address()
	nonce, err := client.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce for %s: %w", from.Hex(), err)
	}
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}
	gas := c.gasLimit
	if gas == 0 {
		estimate, err := client.EstimateGas(ctx, ethereum.CallMsg{
			From:  from,
			To:    &to,
			Value: value,
			Data:  data,
		})
		if err != nil {
			return "", fmt.Errorf("failed to estimate gas: %w", err)
		}
		gas = padGas(estimate)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Value:    value,
		Data:     data,
	})
	signed, err := signer.SignTx(tx, new(big.Int).SetUint64(net.GetChainID()))
	if err != nil {
		return "", fmt.Errorf("failed to sign tx: %w", err)
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("failed to broadcast tx: %w", err)
	}
	return signed.Hash().Hex(), nil
}

// Read packs and eth_calls a read-only method at addr, returning the
// unpacked outputs.
func (c *Client) Read(ctx context.Context, addr common.Address, contractABI *abi.ABI, method string, args []interface{}, net networks.Network) ([]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client, err := c.dial(ctx, net)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}
	out, err := client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}
	return contractABI.Unpack(method, out)
}
