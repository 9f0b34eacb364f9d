package contracts

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/analysis/lang/en"
	"github.com/blevesearch/bleve/mapping"
)

// IndexDoc is one searchable entry: a definition name or a registered
// address binding.
type IndexDoc struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"` // "builtin", "loaded" or "registered"
	Address string `json:"address,omitempty"`
	ChainID uint64 `json:"chain_id,omitempty"`
}

// Index is a persistent full-text index over the registry contents, backing
// the contract search command. Rebuild it after loads or registrations.
type Index struct {
	index bleve.Index
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("name", textFieldMapping)
	docMapping.AddFieldMappingsAt("address", bleve.NewTextFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", docMapping)
	indexMapping.DefaultAnalyzer = "en"
	return indexMapping
}

// OpenIndex opens the index at path, creating it when absent.
func OpenIndex(path string) (*Index, error) {
	index, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		index, err = bleve.New(path, buildIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open contract index at %s: %w", path, err)
	}
	return &Index{index: index}, nil
}

// Rebuild re-indexes the registry's definitions and bindings. Documents for
// entries that no longer exist in the registry are deleted, so an unregister
// or a definition reload never leaves stale hits behind.
func (ix *Index) Rebuild(r *Registry) error {
	batch := ix.index.NewBatch()
	keep := map[string]bool{}
	for _, summary := range r.ListAll() {
		kind := "loaded"
		if summary.Builtin {
			kind = "builtin"
		}
		id := "def/" + summary.Name
		err := batch.Index(id, IndexDoc{
			Name: summary.Name,
			Kind: kind,
		})
		if err != nil {
			return err
		}
		keep[id] = true
	}
	for _, binding := range r.RegisteredBindings() {
		id := fmt.Sprintf("reg/%s@%d", binding.Name, binding.ChainID)
		err := batch.Index(id, IndexDoc{
			Name:    binding.Name,
			Kind:    "registered",
			Address: strings.ToLower(binding.Address.Hex()),
			ChainID: binding.ChainID,
		})
		if err != nil {
			return err
		}
		keep[id] = true
	}
	stale, err := ix.allDocIDs()
	if err != nil {
		return err
	}
	for _, id := range stale {
		if !keep[id] {
			batch.Delete(id)
		}
	}
	return ix.index.Batch(batch)
}

func (ix *Index) allDocIDs() ([]string, error) {
	count, err := ix.index.DocCount()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	request := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	request.Size = int(count)
	searchResults, err := ix.index.Search(request)
	if err != nil {
		return nil, err
	}
	res := []string{}
	for _, hit := range searchResults.Hits {
		res = append(res, hit.ID)
	}
	return res, nil
}

// Search runs a phrase-or-fuzzy query and returns matching document ids,
// best first.
func (ix *Index) Search(input string, limit int) ([]string, error) {
	matchQuery := bleve.NewMatchPhraseQuery(input)
	fuzzyQuery := bleve.NewFuzzyQuery(input)
	fuzzyQuery.Fuzziness = 1
	query := bleve.NewDisjunctionQuery(matchQuery, fuzzyQuery)
	request := bleve.NewSearchRequest(query)
	if limit > 0 {
		request.Size = limit
	}
	searchResults, err := ix.index.Search(request)
	if err != nil {
		return nil, err
	}
	res := []string{}
	for _, hit := range searchResults.Hits {
		res = append(res, hit.ID)
	}
	return res, nil
}

func (ix *Index) Close() error {
	return ix.index.Close()
}
