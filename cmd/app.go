package cmd

import (
	"fmt"
	"log"
	"os"
	"os/user"
	"path/filepath"

	"github.com/w3agent/w3agent/config"
	"github.com/w3agent/w3agent/contracts"
	"github.com/w3agent/w3agent/keyvault"
	"github.com/w3agent/w3agent/networks"
	"github.com/w3agent/w3agent/ui"
)

func getHomeDir() string {
	usr, err := user.Current()
	if err != nil {
		log.Fatal(err)
	}
	return usr.HomeDir
}

func dataDir() string {
	if config.DataDir != "" {
		return config.DataDir
	}
	return filepath.Join(getHomeDir(), ".w3agent")
}

func vaultPath() string {
	if config.VaultPath != "" {
		return config.VaultPath
	}
	return filepath.Join(dataDir(), "vault.json")
}

func indexPath() string {
	return filepath.Join(dataDir(), "index.bleve")
}

func bindingsPath() string {
	return filepath.Join(dataDir(), "bindings.json")
}

// chainRegistry builds the chain registry: builtins plus custom chains from
// <data-dir>/networks/*.json.
func chainRegistry() *networks.Registry {
	r := networks.NewRegistry()
	customDir := filepath.Join(dataDir(), "networks")
	if _, err := os.Stat(customDir); err == nil {
		if err := r.LoadCustomDir(customDir); err != nil {
			fmt.Printf("WARNING: failed to load custom networks: %s. Continue with built-in chains.\n", err)
		}
	}
	return r
}

// activeNetwork resolves the --network flag against the registry.
func activeNetwork(r *networks.Registry) (networks.Network, error) {
	return r.ByName(config.NetworkName)
}

// contractRegistry builds the contract registry and loads the persisted
// definition file and bindings if they exist.
func contractRegistry(u ui.UI) *contracts.Registry {
	r := contracts.NewRegistry()
	defPath := filepath.Join(dataDir(), "contracts.json")
	if _, err := os.Stat(defPath); err == nil {
		report, err := r.LoadDefinitions(contracts.FileSource{}, defPath)
		if err != nil {
			u.Warn("failed to load contract definitions from %s: %s", defPath, err)
		} else {
			for _, skipErr := range report.Skipped {
				u.Warn("skipped contract definition: %s", skipErr)
			}
		}
	}
	if err := loadBindings(r, bindingsPath()); err != nil {
		u.Warn("failed to load contract bindings: %s", err)
	}
	return r
}

// openVault opens the persisted vault, or explains how to create one.
func openVault() (*keyvault.Vault, error) {
	store := keyvault.NewFileStore(vaultPath())
	if !store.Exists() {
		return nil, fmt.Errorf("no vault at %s, run 'w3agent wallet create' first", vaultPath())
	}
	return keyvault.Open(store)
}
