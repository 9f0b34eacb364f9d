package networks

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

var (
	ErrUnknownChain = errors.New("unknown chain")
	ErrChainExists  = errors.New("chain id or name is already taken")
	ErrBuiltinChain = errors.New("built-in chains cannot be modified")
)

// Registry holds the built-in chains plus any custom chains the user added.
// Chain ids are unique across both sets. The registry is owned by the caller
// and does no locking of its own.
type Registry struct {
	byName map[string]Network
	byID   map[uint64]Network
	custom map[uint64]Network
}

// NewRegistry builds a registry seeded with the built-in chains. It panics on
// a duplicate id or name in the built-in table since that is a programming
// error, not user input.
func NewRegistry() *Registry {
	r := &Registry{
		byName: map[string]Network{},
		byID:   map[uint64]Network{},
		custom: map[uint64]Network{},
	}
	for _, n := range builtinNetworks {
		if _, found := r.byID[n.GetChainID()]; found {
			panic(fmt.Errorf("built-in chain id %d declared twice", n.GetChainID()))
		}
		r.byID[n.GetChainID()] = n
		for _, name := range append([]string{n.GetName()}, n.GetAlternativeNames()...) {
			if _, found := r.byName[name]; found {
				panic(fmt.Errorf("built-in chain name '%s' declared twice", name))
			}
			r.byName[name] = n
		}
	}
	return r
}

func (r *Registry) isBuiltin(id uint64) bool {
	_, found := r.byID[id]
	_, isCustom := r.custom[id]
	return found && !isCustom
}

// Add registers a custom chain. Colliding with a built-in chain id or any
// existing name is rejected. Adding a chain whose id matches an existing
// custom chain replaces it.
func (r *Registry) Add(n Network) error {
	id := n.GetChainID()
	if r.isBuiltin(id) {
		return fmt.Errorf("chain id %d is built-in: %w", id, ErrChainExists)
	}
	names := append([]string{n.GetName()}, n.GetAlternativeNames()...)
	prev := r.custom[id]
	for _, name := range names {
		existing, found := r.byName[name]
		if found && existing != prev {
			return fmt.Errorf("chain name '%s': %w", name, ErrChainExists)
		}
	}
	if prev != nil {
		r.dropNames(prev)
	}
	r.byID[id] = n
	r.custom[id] = n
	for _, name := range names {
		r.byName[name] = n
	}
	return nil
}

// Remove deletes a custom chain. Built-in chains cannot be removed.
func (r *Registry) Remove(id uint64) error {
	if r.isBuiltin(id) {
		return fmt.Errorf("chain id %d: %w", id, ErrBuiltinChain)
	}
	n, found := r.custom[id]
	if !found {
		return fmt.Errorf("chain id %d: %w", id, ErrUnknownChain)
	}
	r.dropNames(n)
	delete(r.byID, id)
	delete(r.custom, id)
	return nil
}

func (r *Registry) dropNames(n Network) {
	for _, name := range append([]string{n.GetName()}, n.GetAlternativeNames()...) {
		delete(r.byName, name)
	}
}

func (r *Registry) ByID(id uint64) (Network, error) {
	n, found := r.byID[id]
	if !found {
		return nil, fmt.Errorf("chain id %d: %w", id, ErrUnknownChain)
	}
	return n, nil
}

func (r *Registry) ByName(name string) (Network, error) {
	n, found := r.byName[name]
	if !found {
		return nil, fmt.Errorf("chain name '%s': %w", name, ErrUnknownChain)
	}
	return n, nil
}

// All returns every chain sorted by chain id.
func (r *Registry) All() []Network {
	res := []Network{}
	for _, n := range r.byID {
		res = append(res, n)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].GetChainID() < res[j].GetChainID() })
	return res
}

// Names returns every known chain name including alternative names.
func (r *Registry) Names() []string {
	res := []string{}
	for name := range r.byName {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

// LoadCustomDir adds every custom chain defined as a json file in dir.
// Malformed files are skipped with a warning so one bad definition does not
// take the whole chain list down.
func (r *Registry) LoadCustomDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return fmt.Errorf("failed to glob custom network files in %s: %w", dir, err)
	}
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			fmt.Printf("failed to read custom network file %s: %s. Ignore and continue.\n", file, err)
			continue
		}
		n, err := NewNetworkFromJSON(content)
		if err != nil {
			fmt.Printf("failed to parse custom network file %s: %s. Ignore and continue.\n", file, err)
			continue
		}
		if err := r.Add(n); err != nil {
			fmt.Printf("failed to add custom network from %s: %s. Ignore and continue.\n", file, err)
		}
	}
	return nil
}
