package session

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/w3agent/w3agent/keyvault"
	"github.com/w3agent/w3agent/networks"
)

// Signer signs transactions for one address. The vault-backed and the
// ephemeral signer both implement it so call sites never branch on the
// signing mode.
type Signer interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// EphemeralBackend is the test backend that owns the pre-seeded ephemeral
// identities. The session holds no key material for them, signing is
// delegated entirely to the backend.
type EphemeralBackend interface {
	Addresses() []common.Address
	SignTx(addr common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// ephemeralSigner binds one ephemeral address to its backend.
type ephemeralSigner struct {
	backend EphemeralBackend
	addr    common.Address
}

func (s *ephemeralSigner) Address() common.Address {
	return s.addr
}

func (s *ephemeralSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return s.backend.SignTx(s.addr, tx, chainID)
}

// KeyVault is the session's view of the encrypted key vault: an address
// index that works while locked, and signers that require unlock.
type KeyVault interface {
	Addresses() []common.Address
	SignerFor(addr common.Address) (Signer, error)
}

type vaultAdapter struct {
	vault *keyvault.Vault
}

// WrapVault adapts a keyvault.Vault to the KeyVault interface.
func WrapVault(v *keyvault.Vault) KeyVault {
	return &vaultAdapter{vault: v}
}

func (a *vaultAdapter) Addresses() []common.Address {
	return a.vault.Addresses()
}

func (a *vaultAdapter) SignerFor(addr common.Address) (Signer, error) {
	signer, err := a.vault.SignerFor(addr)
	if err != nil {
		return nil, err
	}
	return signer, nil
}

// ChainClient is the outbound RPC collaborator. The session never talks to
// the network itself.
type ChainClient interface {
	EstimateAndSend(ctx context.Context, signer Signer, to common.Address, value *big.Int, data []byte, net networks.Network) (string, error)
	Read(ctx context.Context, addr common.Address, contractABI *abi.ABI, method string, args []interface{}, net networks.Network) ([]interface{}, error)
}

// TxRecord is what gets appended to the transaction history after a
// successful send.
type TxRecord struct {
	Hash    string
	From    common.Address
	To      common.Address
	Value   *big.Int
	ChainID uint64
	Status  string
	Kind    string
}

// History records sent transactions. Appending is best-effort: a History
// failure never fails the send it belongs to.
type History interface {
	Append(record TxRecord) error
}
