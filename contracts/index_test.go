package contracts_test

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/w3agent/w3agent/contracts"
)

func TestIndexRebuildAndSearch(t *testing.T) {
	doc := fmt.Sprintf(`[{"name": "vaultkeeper", "abi": %s}]`, counterABI)
	r := loadedRegistry(t, doc)
	if err := r.RegisterContract("vaultkeeper", addrA, 1); err != nil {
		t.Fatalf("registering failed: %s", err)
	}

	path := filepath.Join(t.TempDir(), "index.bleve")
	index, err := contracts.OpenIndex(path)
	if err != nil {
		t.Fatalf("opening index failed: %s", err)
	}
	defer index.Close()
	if err := index.Rebuild(r); err != nil {
		t.Fatalf("rebuilding index failed: %s", err)
	}

	hits, err := index.Search("vaultkeeper", 10)
	if err != nil {
		t.Fatalf("searching failed: %s", err)
	}
	wantDef, wantReg := false, false
	for _, hit := range hits {
		switch hit {
		case "def/vaultkeeper":
			wantDef = true
		case "reg/vaultkeeper@1":
			wantReg = true
		}
	}
	if !wantDef || !wantReg {
		t.Fatalf("expected both the definition and the binding in the hits, got %v", hits)
	}

	// a one-character typo still matches via the fuzzy leg
	hits, err = index.Search("vaultkeepr", 10)
	if err != nil {
		t.Fatalf("fuzzy searching failed: %s", err)
	}
	if len(hits) == 0 {
		t.Fatalf("fuzzy search must tolerate a one-edit typo")
	}
}

func TestIndexRebuildDropsStaleDocuments(t *testing.T) {
	doc := fmt.Sprintf(`[{"name": "vaultkeeper", "abi": %s}]`, counterABI)
	r := loadedRegistry(t, doc)
	if err := r.RegisterContract("vaultkeeper", addrA, 1); err != nil {
		t.Fatalf("registering failed: %s", err)
	}

	index, err := contracts.OpenIndex(filepath.Join(t.TempDir(), "index.bleve"))
	if err != nil {
		t.Fatalf("opening index failed: %s", err)
	}
	defer index.Close()
	if err := index.Rebuild(r); err != nil {
		t.Fatalf("rebuilding index failed: %s", err)
	}

	// unregister and rebuild from a registry that no longer has the
	// definition either
	if err := r.UnregisterContract("vaultkeeper", 1); err != nil {
		t.Fatalf("unregistering failed: %s", err)
	}
	if err := index.Rebuild(contracts.NewRegistry()); err != nil {
		t.Fatalf("rebuilding index failed: %s", err)
	}

	hits, err := index.Search("vaultkeeper", 10)
	if err != nil {
		t.Fatalf("searching failed: %s", err)
	}
	for _, hit := range hits {
		if hit == "def/vaultkeeper" || hit == "reg/vaultkeeper@1" {
			t.Fatalf("removed entries must leave the index on rebuild, got %v", hits)
		}
	}
}

func TestIndexReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.bleve")
	index, err := contracts.OpenIndex(path)
	if err != nil {
		t.Fatalf("creating index failed: %s", err)
	}
	if err := index.Rebuild(contracts.NewRegistry()); err != nil {
		t.Fatalf("rebuilding index failed: %s", err)
	}
	if err := index.Close(); err != nil {
		t.Fatalf("closing index failed: %s", err)
	}

	reopened, err := contracts.OpenIndex(path)
	if err != nil {
		t.Fatalf("reopening index failed: %s", err)
	}
	defer reopened.Close()
	hits, err := reopened.Search("erc20", 10)
	if err != nil {
		t.Fatalf("searching reopened index failed: %s", err)
	}
	if len(hits) == 0 {
		t.Fatalf("reopened index must keep its documents")
	}
}
