package contracts

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Definition is one known contract interface: a name, a parsed ABI and an
// optional per-chain address table. Built-in definitions carry no addresses.
type Definition struct {
	Name      string
	ABI       abi.ABI
	RawABI    string
	Addresses map[uint64]common.Address
	Builtin   bool
}

// Source is the byte provider definitions are bulk-loaded from. The default
// is the local filesystem but anything that can hand back bytes works.
type Source interface {
	Read(path string) ([]byte, error)
}

type FileSource struct{}

func (FileSource) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// definitionEntry is the wire shape of one entry in a definition document.
// The abi field accepts either a raw ABI array or a string holding ABI json.
type definitionEntry struct {
	Name      string            `json:"name"`
	ABI       json.RawMessage   `json:"abi"`
	Addresses map[uint64]string `json:"addresses,omitempty"`
}

func parseDefinition(entry definitionEntry) (*Definition, error) {
	if entry.Name == "" {
		return nil, fmt.Errorf("definition entry has no name")
	}
	if len(entry.ABI) == 0 {
		return nil, fmt.Errorf("definition '%s' has no abi", entry.Name)
	}
	rawABI := string(entry.ABI)
	if strings.HasPrefix(strings.TrimSpace(rawABI), `"`) {
		if err := json.Unmarshal(entry.ABI, &rawABI); err != nil {
			return nil, fmt.Errorf("definition '%s' has a malformed abi string: %w", entry.Name, err)
		}
	}
	parsed, err := abi.JSON(strings.NewReader(rawABI))
	if err != nil {
		return nil, fmt.Errorf("definition '%s' abi doesn't parse: %w", entry.Name, err)
	}
	addresses := map[uint64]common.Address{}
	for chainID, addrHex := range entry.Addresses {
		if !common.IsHexAddress(addrHex) {
			return nil, fmt.Errorf("definition '%s' has invalid address '%s' for chain %d", entry.Name, addrHex, chainID)
		}
		addresses[chainID] = common.HexToAddress(addrHex)
	}
	return &Definition{
		Name:      entry.Name,
		ABI:       parsed,
		RawABI:    rawABI,
		Addresses: addresses,
	}, nil
}
