package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/w3agent/w3agent/contracts"
)

// bindingEntry is the persisted form of one registered (name, chain)
// address override. Registrations survive process restarts through this
// file; everything else in the contract registry is rebuilt on start.
type bindingEntry struct {
	Name    string `json:"name"`
	ChainID uint64 `json:"chain_id"`
	Address string `json:"address"`
}

func loadBindings(r *contracts.Registry, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	entries := []bindingEntry{}
	if err := json.Unmarshal(content, &entries); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := r.RegisterContract(entry.Name, entry.Address, entry.ChainID); err != nil {
			fmt.Printf("skipped binding %s@%d: %s. Ignore and continue.\n", entry.Name, entry.ChainID, err)
		}
	}
	return nil
}

func saveBindings(r *contracts.Registry, path string) error {
	entries := []bindingEntry{}
	for _, b := range r.RegisteredBindings() {
		entries = append(entries, bindingEntry{
			Name:    b.Name,
			ChainID: b.ChainID,
			Address: b.Address.Hex(),
		})
	}
	content, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, content, 0644)
}
