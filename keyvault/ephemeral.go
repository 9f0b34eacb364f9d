package keyvault

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// EphemeralBackend holds freshly generated throwaway identities in memory
// only. Nothing is ever persisted: the keys die with the process. It backs
// ephemeral signing mode for testnet and dry-run work where funding a real
// vault key is not worth it.
type EphemeralBackend struct {
	keys  map[common.Address]*ecdsa.PrivateKey
	order []common.Address
}

// NewEphemeralBackend generates n random identities.
func NewEphemeralBackend(n int) (*EphemeralBackend, error) {
	b := &EphemeralBackend{keys: map[common.Address]*ecdsa.PrivateKey{}}
	for i := 0; i < n; i++ {
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate ephemeral key: %w", err)
		}
		addr := crypto.PubkeyToAddress(key.PublicKey)
		b.keys[addr] = key
		b.order = append(b.order, addr)
	}
	return b, nil
}

// Addresses lists the seeded identities in generation order.
func (b *EphemeralBackend) Addresses() []common.Address {
	return append([]common.Address{}, b.order...)
}

func (b *EphemeralBackend) SignTx(addr common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	key, found := b.keys[addr]
	if !found {
		return nil, fmt.Errorf("%s: %w", addr.Hex(), ErrKeyNotFound)
	}
	return NewKeySigner(key).SignTx(tx, chainID)
}
