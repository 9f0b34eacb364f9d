package networks

// Network describes one chain the wallet can operate on: how to identify it,
// what its native token looks like and which nodes serve it.
type Network interface {
	GetName() string
	GetAlternativeNames() []string
	GetChainID() uint64
	GetNativeTokenName() string
	GetNativeTokenSymbol() string
	GetNativeTokenDecimal() uint64

	// GetNodeVariableName returns the env var that overrides the default
	// node URLs for this network.
	GetNodeVariableName() string
	GetDefaultNodes() map[string]string

	GetBlockExplorerURL() string

	MarshalJSON() ([]byte, error)
}
