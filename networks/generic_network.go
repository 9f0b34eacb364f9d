package networks

import (
	"encoding/json"
	"fmt"
)

type GenericNetworkConfig struct {
	Name               string            `json:"name"`
	AlternativeNames   []string          `json:"alternative_names"`
	ChainID            uint64            `json:"chain_id"`
	NativeTokenName    string            `json:"native_token_name"`
	NativeTokenSymbol  string            `json:"native_token_symbol"`
	NativeTokenDecimal uint64            `json:"native_token_decimal"`
	NodeVariableName   string            `json:"node_variable_name"`
	DefaultNodes       map[string]string `json:"default_nodes"`
	BlockExplorerURL   string            `json:"block_explorer_url"`
}

// GenericNetwork is a config-driven Network implementation. Both the built-in
// chains and user-added custom chains are instances of it.
type GenericNetwork struct {
	config GenericNetworkConfig
}

func NewGenericNetwork(config GenericNetworkConfig) *GenericNetwork {
	return &GenericNetwork{config: config}
}

// NewNetworkFromJSON builds a custom network from its JSON definition.
func NewNetworkFromJSON(content []byte) (Network, error) {
	config := GenericNetworkConfig{}
	if err := json.Unmarshal(content, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal network config: %w", err)
	}
	if config.Name == "" {
		return nil, fmt.Errorf("network config has no name")
	}
	if config.ChainID == 0 {
		return nil, fmt.Errorf("network config '%s' has no chain id", config.Name)
	}
	return NewGenericNetwork(config), nil
}

func (gn *GenericNetwork) GetName() string {
	return gn.config.Name
}

func (gn *GenericNetwork) GetAlternativeNames() []string {
	return gn.config.AlternativeNames
}

func (gn *GenericNetwork) GetChainID() uint64 {
	return gn.config.ChainID
}

func (gn *GenericNetwork) GetNativeTokenName() string {
	return gn.config.NativeTokenName
}

func (gn *GenericNetwork) GetNativeTokenSymbol() string {
	return gn.config.NativeTokenSymbol
}

func (gn *GenericNetwork) GetNativeTokenDecimal() uint64 {
	return gn.config.NativeTokenDecimal
}

func (gn *GenericNetwork) GetNodeVariableName() string {
	return gn.config.NodeVariableName
}

func (gn *GenericNetwork) GetDefaultNodes() map[string]string {
	return gn.config.DefaultNodes
}

func (gn *GenericNetwork) GetBlockExplorerURL() string {
	return gn.config.BlockExplorerURL
}

func (gn *GenericNetwork) MarshalJSON() ([]byte, error) {
	return json.Marshal(gn.config)
}
