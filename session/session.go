// Package session implements the wallet session state machine: which signing
// identity is connected, which signing mode is active and which chain
// operations run against.
//
// One Session serves one logical session and does no locking of its own. The
// surrounding dispatch layer serializes calls; run one Session per session if
// true concurrency is ever needed.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/w3agent/w3agent/contracts"
	"github.com/w3agent/w3agent/networks"
)

var (
	ErrNotConnected       = errors.New("no wallet is connected")
	ErrNoKeysImported     = errors.New("the vault has no keys imported")
	ErrUnknownAddress     = errors.New("address is not available in the active signing mode")
	ErrNoEphemeralBackend = errors.New("no ephemeral backend is configured")
)

// Mode is the active signing mode.
type Mode int

const (
	ModeEphemeral Mode = iota
	ModeVault
)

func (m Mode) String() string {
	switch m {
	case ModeEphemeral:
		return "ephemeral"
	case ModeVault:
		return "vault"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// State is the connection state of the session.
type State int

const (
	Disconnected State = iota
	ConnectedEphemeral
	ConnectedVault
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case ConnectedEphemeral:
		return "connected-ephemeral"
	case ConnectedVault:
		return "connected-vault"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Config wires the session's collaborators. Chains, Contracts and Client are
// required. Backend and Vault may each be nil when the corresponding mode is
// never used; History may be nil to disable recording.
type Config struct {
	Chains         *networks.Registry
	Contracts      *contracts.Registry
	Vault          KeyVault
	Backend        EphemeralBackend
	Client         ChainClient
	History        History
	DefaultChainID uint64
}

// Session is the top-level wallet state machine.
type Session struct {
	chains    *networks.Registry
	contracts *contracts.Registry
	vault     KeyVault
	backend   EphemeralBackend
	client    ChainClient
	history   History

	mode      Mode
	state     State
	connected common.Address
	chainID   uint64
}

// New creates a disconnected session on the default chain. The initial mode
// is ephemeral when a backend is configured, vault otherwise.
func New(cfg Config) (*Session, error) {
	if cfg.Chains == nil {
		return nil, fmt.Errorf("session needs a chain registry")
	}
	if _, err := cfg.Chains.ByID(cfg.DefaultChainID); err != nil {
		return nil, err
	}
	mode := ModeEphemeral
	if cfg.Backend == nil {
		mode = ModeVault
	}
	return &Session{
		chains:    cfg.Chains,
		contracts: cfg.Contracts,
		vault:     cfg.Vault,
		backend:   cfg.Backend,
		client:    cfg.Client,
		history:   cfg.History,
		mode:      mode,
		state:     Disconnected,
		chainID:   cfg.DefaultChainID,
	}, nil
}

func (s *Session) Mode() Mode { return s.mode }

func (s *Session) State() State { return s.state }

// ActiveChain returns the chain id operations currently run against.
func (s *Session) ActiveChain() uint64 { return s.chainID }

// ConnectedAddress returns the connected identity, if any.
func (s *Session) ConnectedAddress() (common.Address, bool) {
	if s.state == Disconnected {
		return common.Address{}, false
	}
	return s.connected, true
}

// modeAddresses is the address set of the given mode: the backend's seeded
// list for ephemeral, the vault index (no unlock needed) for vault.
func (s *Session) modeAddresses(mode Mode) []common.Address {
	switch mode {
	case ModeEphemeral:
		if s.backend == nil {
			return nil
		}
		return s.backend.Addresses()
	case ModeVault:
		if s.vault == nil {
			return nil
		}
		return s.vault.Addresses()
	}
	return nil
}

func containsAddress(addrs []common.Address, addr common.Address) bool {
	for _, a := range addrs {
		if a == addr {
			return true
		}
	}
	return false
}

// Connect makes addr the connected identity. It succeeds only when addr is
// in the active mode's address set and replaces any existing connection.
func (s *Session) Connect(addr common.Address) error {
	if !containsAddress(s.modeAddresses(s.mode), addr) {
		return fmt.Errorf("%s in %s mode: %w", addr.Hex(), s.mode, ErrUnknownAddress)
	}
	s.connected = addr
	if s.mode == ModeEphemeral {
		s.state = ConnectedEphemeral
	} else {
		s.state = ConnectedVault
	}
	return nil
}

// Disconnect clears the connected identity. It is idempotent and keeps the
// active chain.
func (s *Session) Disconnect() {
	s.connected = common.Address{}
	s.state = Disconnected
}

// SetSigningMode switches between ephemeral and vault signing. Switching to
// vault mode with an empty vault index fails. When the currently connected
// address is not available in the new mode the session disconnects, so a
// later signing call can never route an identity to the wrong backend.
func (s *Session) SetSigningMode(mode Mode) error {
	switch mode {
	case ModeEphemeral:
		if s.backend == nil {
			return ErrNoEphemeralBackend
		}
	case ModeVault:
		if s.vault == nil || len(s.vault.Addresses()) == 0 {
			return ErrNoKeysImported
		}
	default:
		return fmt.Errorf("unknown signing mode %d", int(mode))
	}
	s.mode = mode
	if s.state == Disconnected {
		return nil
	}
	if !containsAddress(s.modeAddresses(mode), s.connected) {
		s.Disconnect()
		return nil
	}
	if mode == ModeEphemeral {
		s.state = ConnectedEphemeral
	} else {
		s.state = ConnectedVault
	}
	return nil
}

// SwitchChain changes the active chain. It does not touch the connection or
// re-validate the signing identity.
func (s *Session) SwitchChain(chainID uint64) error {
	if _, err := s.chains.ByID(chainID); err != nil {
		return err
	}
	s.chainID = chainID
	return nil
}

// signer returns the signer for the connected identity in the active mode.
func (s *Session) signer() (Signer, error) {
	switch s.state {
	case ConnectedEphemeral:
		return &ephemeralSigner{backend: s.backend, addr: s.connected}, nil
	case ConnectedVault:
		return s.vault.SignerFor(s.connected)
	}
	return nil, ErrNotConnected
}

// SignTx signs tx with the connected identity on the active chain.
func (s *Session) SignTx(tx *types.Transaction) (*types.Transaction, error) {
	signer, err := s.signer()
	if err != nil {
		return nil, err
	}
	return signer.SignTx(tx, new(big.Int).SetUint64(s.chainID))
}

// SendTransaction signs and sends a transaction from the connected identity
// on the active chain, then records it in the history. The history append is
// best-effort: its failure is printed and swallowed, never surfaced.
func (s *Session) SendTransaction(ctx context.Context, to common.Address, value *big.Int, data []byte, kind string) (string, error) {
	signer, err := s.signer()
	if err != nil {
		return "", err
	}
	net, err := s.chains.ByID(s.chainID)
	if err != nil {
		return "", err
	}
	hash, err := s.client.EstimateAndSend(ctx, signer, to, value, data, net)
	if err != nil {
		return "", err
	}
	if s.history != nil {
		record := TxRecord{
			Hash:    hash,
			From:    signer.Address(),
			To:      to,
			Value:   value,
			ChainID: s.chainID,
			Status:  "pending",
			Kind:    kind,
		}
		if err := s.history.Append(record); err != nil {
			fmt.Printf("failed to record tx %s in history: %s. Ignore and continue.\n", hash, err)
		}
	}
	return hash, nil
}

// ReadContract resolves ref and calls a read-only method on it. Reads need
// no signer, so they work while disconnected.
func (s *Session) ReadContract(ctx context.Context, ref string, explicitAddr string, method string, args []interface{}, opts contracts.ResolveOptions) ([]interface{}, error) {
	resolved, err := s.contracts.Resolve(ref, explicitAddr, s.chainID, opts)
	if err != nil {
		return nil, err
	}
	net, err := s.chains.ByID(s.chainID)
	if err != nil {
		return nil, err
	}
	return s.client.Read(ctx, resolved.Address, resolved.ABI, method, args, net)
}

// WriteContract resolves ref, packs the call and sends it as a transaction
// from the connected identity.
func (s *Session) WriteContract(ctx context.Context, ref string, explicitAddr string, method string, args []interface{}, value *big.Int, opts contracts.ResolveOptions) (string, error) {
	if s.state == Disconnected {
		return "", ErrNotConnected
	}
	resolved, err := s.contracts.Resolve(ref, explicitAddr, s.chainID, opts)
	if err != nil {
		return "", err
	}
	data, err := resolved.ABI.Pack(method, args...)
	if err != nil {
		return "", fmt.Errorf("failed to pack %s call: %w", method, err)
	}
	if value == nil {
		value = big.NewInt(0)
	}
	return s.SendTransaction(ctx, resolved.Address, value, data, "contract-call")
}
