package keyvault_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/w3agent/w3agent/keyvault"
)

func TestEphemeralBackendSigns(t *testing.T) {
	backend, err := keyvault.NewEphemeralBackend(3)
	if err != nil {
		t.Fatalf("creating backend failed: %s", err)
	}
	addrs := backend.Addresses()
	if len(addrs) != 3 {
		t.Fatalf("expected 3 identities, got %d", len(addrs))
	}
	seen := map[common.Address]bool{}
	for _, addr := range addrs {
		if seen[addr] {
			t.Fatalf("duplicate generated identity %s", addr.Hex())
		}
		seen[addr] = true
	}

	chainID := big.NewInt(1)
	tx := types.NewTransaction(0, common.Address{}, big.NewInt(1), 21000, big.NewInt(1), nil)
	signed, err := backend.SignTx(addrs[0], tx, chainID)
	if err != nil {
		t.Fatalf("signing failed: %s", err)
	}
	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	if err != nil {
		t.Fatalf("recovering sender failed: %s", err)
	}
	if sender != addrs[0] {
		t.Fatalf("recovered sender %s, want %s", sender.Hex(), addrs[0].Hex())
	}

	if _, err := backend.SignTx(common.HexToAddress("0x1"), tx, chainID); !errors.Is(err, keyvault.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound for an unseeded address, got %v", err)
	}
}
