// Package contracts holds the contract registry and the resolution engine
// that turns a human-supplied contract reference into a concrete address and
// ABI for a given chain.
//
// Three overlapping sources feed resolution, from highest to lowest
// precedence: explicitly registered (name, chain) address bindings, loaded
// definitions with their own per-chain address tables, and built-in ABI-only
// definitions. A caller-supplied explicit address overrides the stored
// address from any source.
package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrContractNotFound     = errors.New("contract could not be resolved")
	ErrContractNotLoaded    = errors.New("no contract definition with that name")
	ErrAddressRequired      = errors.New("contract has no address on this chain, supply one explicitly")
	ErrDefinitionLoadFailed = errors.New("failed to load contract definitions")
)

type bindingKey struct {
	name    string
	chainID uint64
}

// Binding is one registered (name, chain) to address override.
type Binding struct {
	Name    string
	ChainID uint64
	Address common.Address
}

// Registry is the in-process contract database. Owned by the caller, no
// internal locking.
type Registry struct {
	builtins   map[string]*Definition
	loaded     map[string]*Definition
	registered map[bindingKey]common.Address
}

func NewRegistry() *Registry {
	return &Registry{
		builtins:   newBuiltins(),
		loaded:     map[string]*Definition{},
		registered: map[bindingKey]common.Address{},
	}
}

// LoadReport summarizes one bulk definition load. Skipped holds one error
// per entry that failed to parse; the rest loaded fine.
type LoadReport struct {
	Loaded  int
	Skipped []error
}

// LoadDefinitions bulk-loads a json document of definition entries from src.
// Existing definitions with the same name are overwritten. A malformed entry
// is skipped and reported, it never aborts the rest of the load. Only a
// failure to read or parse the document itself is an error.
func (r *Registry) LoadDefinitions(src Source, path string) (*LoadReport, error) {
	content, err := src.Read(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDefinitionLoadFailed, err)
	}
	var entries []definitionEntry
	if err := json.Unmarshal(content, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDefinitionLoadFailed, err)
	}
	report := &LoadReport{}
	for i, entry := range entries {
		def, err := parseDefinition(entry)
		if err != nil {
			report.Skipped = append(report.Skipped, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		r.loaded[def.Name] = def
		report.Loaded++
	}
	return report, nil
}

// RegisterContract binds name to addr on chainID, overriding the
// definition's own address table for that pair. The name must refer to a
// loaded or built-in definition.
func (r *Registry) RegisterContract(name string, addrHex string, chainID uint64) error {
	if _, found := r.definition(name); !found {
		return fmt.Errorf("'%s': %w", name, ErrContractNotLoaded)
	}
	if !common.IsHexAddress(addrHex) {
		return fmt.Errorf("'%s' is not a valid address", addrHex)
	}
	r.registered[bindingKey{name, chainID}] = common.HexToAddress(addrHex)
	return nil
}

// UnregisterContract removes the (name, chain) binding if present.
func (r *Registry) UnregisterContract(name string, chainID uint64) error {
	key := bindingKey{name, chainID}
	if _, found := r.registered[key]; !found {
		return fmt.Errorf("'%s' on chain %d: %w", name, chainID, ErrContractNotFound)
	}
	delete(r.registered, key)
	return nil
}

// RegisteredBindings lists every explicit binding, sorted by name then chain.
func (r *Registry) RegisteredBindings() []Binding {
	res := []Binding{}
	for key, addr := range r.registered {
		res = append(res, Binding{Name: key.name, ChainID: key.chainID, Address: addr})
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Name != res[j].Name {
			return res[i].Name < res[j].Name
		}
		return res[i].ChainID < res[j].ChainID
	})
	return res
}

// ResolveOptions tunes resolution of bare-address references.
type ResolveOptions struct {
	// Fallback names the built-in definition whose ABI is assumed when the
	// reference is a bare address with no loaded definition. Empty disables
	// the fallback: an unknown bare address then fails to resolve instead of
	// being silently treated as a token.
	Fallback string
}

// Resolved is a fully resolved contract target.
type Resolved struct {
	Name    string
	Address common.Address
	ABI     *abi.ABI
}

// Resolve turns ref into a concrete (address, ABI) pair for chainID.
//
// A bare-address ref resolves through the loaded definitions' address tables
// and then through opts.Fallback. A name ref resolves its ABI from loaded
// definitions first (shadowing builtins), and its address from the
// registered binding, then the definition's address table. When explicitAddr
// is supplied it wins as the target address regardless of the source.
func (r *Registry) Resolve(ref string, explicitAddr string, chainID uint64, opts ResolveOptions) (*Resolved, error) {
	var explicit common.Address
	haveExplicit := explicitAddr != ""
	if haveExplicit {
		if !common.IsHexAddress(explicitAddr) {
			return nil, fmt.Errorf("'%s' is not a valid address", explicitAddr)
		}
		explicit = common.HexToAddress(explicitAddr)
	}

	if common.IsHexAddress(ref) {
		addr := common.HexToAddress(ref)
		if haveExplicit {
			addr = explicit
		}
		if def, found := r.definitionByAddress(common.HexToAddress(ref), chainID); found {
			return &Resolved{Name: def.Name, Address: addr, ABI: &def.ABI}, nil
		}
		if opts.Fallback != "" {
			if def, found := r.builtins[opts.Fallback]; found {
				return &Resolved{Name: def.Name, Address: addr, ABI: &def.ABI}, nil
			}
		}
		return nil, fmt.Errorf("address %s has no known interface on chain %d: %w", ref, chainID, ErrContractNotFound)
	}

	def, found := r.definition(ref)
	if !found {
		return nil, fmt.Errorf("'%s': %w", ref, ErrContractNotFound)
	}
	if haveExplicit {
		return &Resolved{Name: def.Name, Address: explicit, ABI: &def.ABI}, nil
	}
	if addr, found := r.registered[bindingKey{def.Name, chainID}]; found {
		return &Resolved{Name: def.Name, Address: addr, ABI: &def.ABI}, nil
	}
	if addr, found := def.Addresses[chainID]; found {
		return &Resolved{Name: def.Name, Address: addr, ABI: &def.ABI}, nil
	}
	return nil, fmt.Errorf("'%s' on chain %d: %w", ref, chainID, ErrAddressRequired)
}

// definition returns the loaded definition for name, falling back to the
// built-in one. Loaded definitions shadow builtins of the same name.
func (r *Registry) definition(name string) (*Definition, bool) {
	if def, found := r.loaded[name]; found {
		return def, true
	}
	def, found := r.builtins[name]
	return def, found
}

func (r *Registry) definitionByAddress(addr common.Address, chainID uint64) (*Definition, bool) {
	names := make([]string, 0, len(r.loaded))
	for name := range r.loaded {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		def := r.loaded[name]
		if a, found := def.Addresses[chainID]; found && a == addr {
			return def, true
		}
	}
	return nil, false
}

// Summary is one row of the merged definition listing.
type Summary struct {
	Name    string
	Builtin bool
	Chains  []uint64
}

// ListAll merges built-in and loaded definitions by name, loaded winning.
// It reflects definitions only, not registered bindings.
func (r *Registry) ListAll() []Summary {
	seen := map[string]bool{}
	res := []Summary{}
	for name, def := range r.loaded {
		res = append(res, summarize(def))
		seen[name] = true
	}
	for name, def := range r.builtins {
		if !seen[name] {
			res = append(res, summarize(def))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

func summarize(def *Definition) Summary {
	chains := make([]uint64, 0, len(def.Addresses))
	for chainID := range def.Addresses {
		chains = append(chains, chainID)
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i] < chains[j] })
	return Summary{Name: def.Name, Builtin: def.Builtin, Chains: chains}
}
