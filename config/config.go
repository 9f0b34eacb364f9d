package config

// Flag-bound state shared by the command tree.
var (
	NetworkName string
	DataDir     string
	VaultPath   string

	From     string
	To       string
	Value    float64
	GasLimit uint64
)
