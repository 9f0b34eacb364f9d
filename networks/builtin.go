package networks

// Insert more configs here to support more built-in chains. Built-in chains
// are immutable: they cannot be removed or shadowed by custom chains.
var builtinNetworks = []Network{
	NewGenericNetwork(GenericNetworkConfig{
		Name:               "mainnet",
		AlternativeNames:   []string{"ethereum", "eth"},
		ChainID:            1,
		NativeTokenName:    "Ether",
		NativeTokenSymbol:  "ETH",
		NativeTokenDecimal: 18,
		NodeVariableName:   "ETHEREUM_MAINNET_NODE",
		DefaultNodes: map[string]string{
			"public-llama": "https://eth.llamarpc.com",
			"public-ankr":  "https://rpc.ankr.com/eth",
		},
		BlockExplorerURL: "https://etherscan.io",
	}),
	NewGenericNetwork(GenericNetworkConfig{
		Name:               "sepolia",
		AlternativeNames:   []string{},
		ChainID:            11155111,
		NativeTokenName:    "Sepolia Ether",
		NativeTokenSymbol:  "ETH",
		NativeTokenDecimal: 18,
		NodeVariableName:   "ETHEREUM_SEPOLIA_NODE",
		DefaultNodes: map[string]string{
			"public-sepolia": "https://rpc.sepolia.org",
		},
		BlockExplorerURL: "https://sepolia.etherscan.io",
	}),
	NewGenericNetwork(GenericNetworkConfig{
		Name:               "bsc",
		AlternativeNames:   []string{"binance"},
		ChainID:            56,
		NativeTokenName:    "BNB",
		NativeTokenSymbol:  "BNB",
		NativeTokenDecimal: 18,
		NodeVariableName:   "BSC_MAINNET_NODE",
		DefaultNodes: map[string]string{
			"binance": "https://bsc-dataseed.binance.org",
			"defibit": "https://bsc-dataseed1.defibit.io",
		},
		BlockExplorerURL: "https://bscscan.com",
	}),
	NewGenericNetwork(GenericNetworkConfig{
		Name:               "polygon",
		AlternativeNames:   []string{"matic"},
		ChainID:            137,
		NativeTokenName:    "POL",
		NativeTokenSymbol:  "POL",
		NativeTokenDecimal: 18,
		NodeVariableName:   "POLYGON_MAINNET_NODE",
		DefaultNodes: map[string]string{
			"public-polygon": "https://polygon-rpc.com",
		},
		BlockExplorerURL: "https://polygonscan.com",
	}),
	NewGenericNetwork(GenericNetworkConfig{
		Name:               "arbitrum",
		AlternativeNames:   []string{"arb"},
		ChainID:            42161,
		NativeTokenName:    "Ether",
		NativeTokenSymbol:  "ETH",
		NativeTokenDecimal: 18,
		NodeVariableName:   "ARBITRUM_MAINNET_NODE",
		DefaultNodes: map[string]string{
			"public-arbitrum": "https://arb1.arbitrum.io/rpc",
		},
		BlockExplorerURL: "https://arbiscan.io",
	}),
	NewGenericNetwork(GenericNetworkConfig{
		Name:               "optimism",
		AlternativeNames:   []string{},
		ChainID:            10,
		NativeTokenName:    "Ether",
		NativeTokenSymbol:  "ETH",
		NativeTokenDecimal: 18,
		NodeVariableName:   "OPTIMISM_MAINNET_NODE",
		DefaultNodes: map[string]string{
			"public-optimism": "https://mainnet.optimism.io",
		},
		BlockExplorerURL: "https://optimistic.etherscan.io",
	}),
	NewGenericNetwork(GenericNetworkConfig{
		Name:               "base",
		AlternativeNames:   []string{},
		ChainID:            8453,
		NativeTokenName:    "Ether",
		NativeTokenSymbol:  "ETH",
		NativeTokenDecimal: 18,
		NodeVariableName:   "BASE_MAINNET_NODE",
		DefaultNodes: map[string]string{
			"public-base": "https://mainnet.base.org",
		},
		BlockExplorerURL: "https://basescan.org",
	}),
	NewGenericNetwork(GenericNetworkConfig{
		Name:               "avalanche",
		AlternativeNames:   []string{"avax"},
		ChainID:            43114,
		NativeTokenName:    "AVAX",
		NativeTokenSymbol:  "AVAX",
		NativeTokenDecimal: 18,
		NodeVariableName:   "AVALANCHE_MAINNET_NODE",
		DefaultNodes: map[string]string{
			"public-avax": "https://api.avax.network/ext/bc/C/rpc",
		},
		BlockExplorerURL: "https://snowtrace.io",
	}),
}
