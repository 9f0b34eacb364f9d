package session_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/w3agent/w3agent/contracts"
	"github.com/w3agent/w3agent/networks"
	"github.com/w3agent/w3agent/session"
)

var (
	addrEph1  = common.HexToAddress("0x00000000000000000000000000000000000000E1")
	addrEph2  = common.HexToAddress("0x00000000000000000000000000000000000000E2")
	addrVault = common.HexToAddress("0x00000000000000000000000000000000000000F1")
	addrBoth  = common.HexToAddress("0x00000000000000000000000000000000000000AB")
	addrDest  = common.HexToAddress("0x00000000000000000000000000000000000000D0")
)

// fakeSigner returns the transaction unsigned and remembers what it was asked
// to sign.
type fakeSigner struct {
	addr    common.Address
	signed  int
	chainID *big.Int
}

func (s *fakeSigner) Address() common.Address { return s.addr }

func (s *fakeSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	s.signed++
	s.chainID = chainID
	return tx, nil
}

// fakeBackend seeds ephemeral identities and counts its signing calls.
type fakeBackend struct {
	addrs  []common.Address
	signed map[common.Address]int
}

func newFakeBackend(addrs ...common.Address) *fakeBackend {
	return &fakeBackend{addrs: addrs, signed: map[common.Address]int{}}
}

func (b *fakeBackend) Addresses() []common.Address { return b.addrs }

func (b *fakeBackend) SignTx(addr common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	b.signed[addr]++
	return tx, nil
}

// fakeVault is the session-facing vault view: an address index plus signers.
type fakeVault struct {
	signers map[common.Address]*fakeSigner
}

func newFakeVault(addrs ...common.Address) *fakeVault {
	v := &fakeVault{signers: map[common.Address]*fakeSigner{}}
	for _, addr := range addrs {
		v.signers[addr] = &fakeSigner{addr: addr}
	}
	return v
}

func (v *fakeVault) Addresses() []common.Address {
	res := []common.Address{}
	for addr := range v.signers {
		res = append(res, addr)
	}
	return res
}

func (v *fakeVault) SignerFor(addr common.Address) (session.Signer, error) {
	signer, found := v.signers[addr]
	if !found {
		return nil, fmt.Errorf("no key for %s", addr.Hex())
	}
	return signer, nil
}

type sentCall struct {
	from  common.Address
	to    common.Address
	value *big.Int
	data  []byte
	chain uint64
}

// fakeClient records sends and serves canned reads.
type fakeClient struct {
	sent     []sentCall
	sendErr  error
	readOut  []interface{}
	lastRead struct {
		addr   common.Address
		method string
	}
}

func (c *fakeClient) EstimateAndSend(ctx context.Context, signer session.Signer, to common.Address, value *big.Int, data []byte, net networks.Network) (string, error) {
	if c.sendErr != nil {
		return "", c.sendErr
	}
	if _, err := signer.SignTx(types.NewTransaction(0, to, value, 21000, big.NewInt(1), data), new(big.Int).SetUint64(net.GetChainID())); err != nil {
		return "", err
	}
	c.sent = append(c.sent, sentCall{from: signer.Address(), to: to, value: value, data: data, chain: net.GetChainID()})
	return fmt.Sprintf("0xhash%d", len(c.sent)), nil
}

func (c *fakeClient) Read(ctx context.Context, addr common.Address, contractABI *abi.ABI, method string, args []interface{}, net networks.Network) ([]interface{}, error) {
	c.lastRead.addr = addr
	c.lastRead.method = method
	return c.readOut, nil
}

// recordHistory keeps appended records; failHistory always errors.
type recordHistory struct {
	records []session.TxRecord
}

func (h *recordHistory) Append(record session.TxRecord) error {
	h.records = append(h.records, record)
	return nil
}

type failHistory struct{}

func (failHistory) Append(session.TxRecord) error { return errors.New("history is broken") }

func newSession(t *testing.T, cfg session.Config) *session.Session {
	t.Helper()
	if cfg.Chains == nil {
		cfg.Chains = networks.NewRegistry()
	}
	if cfg.Contracts == nil {
		cfg.Contracts = contracts.NewRegistry()
	}
	if cfg.DefaultChainID == 0 {
		cfg.DefaultChainID = 1
	}
	s, err := session.New(cfg)
	if err != nil {
		t.Fatalf("creating session failed: %s", err)
	}
	return s
}

func TestNewValidatesDefaultChain(t *testing.T) {
	_, err := session.New(session.Config{
		Chains:         networks.NewRegistry(),
		DefaultChainID: 424242,
	})
	if !errors.Is(err, networks.ErrUnknownChain) {
		t.Fatalf("expected ErrUnknownChain, got %v", err)
	}
}

func TestNewPicksInitialMode(t *testing.T) {
	s := newSession(t, session.Config{Vault: newFakeVault(addrVault)})
	if s.Mode() != session.ModeVault {
		t.Fatalf("without a backend the initial mode must be vault, got %s", s.Mode())
	}
	s = newSession(t, session.Config{Backend: newFakeBackend(addrEph1)})
	if s.Mode() != session.ModeEphemeral {
		t.Fatalf("with a backend the initial mode must be ephemeral, got %s", s.Mode())
	}
	if s.State() != session.Disconnected {
		t.Fatalf("a new session must start disconnected, got %s", s.State())
	}
}

func TestConnectChecksMembership(t *testing.T) {
	s := newSession(t, session.Config{Backend: newFakeBackend(addrEph1, addrEph2)})

	if err := s.Connect(addrVault); !errors.Is(err, session.ErrUnknownAddress) {
		t.Fatalf("expected ErrUnknownAddress, got %v", err)
	}
	if s.State() != session.Disconnected {
		t.Fatalf("failed connect must leave the session disconnected")
	}

	if err := s.Connect(addrEph1); err != nil {
		t.Fatalf("connecting failed: %s", err)
	}
	if s.State() != session.ConnectedEphemeral {
		t.Fatalf("expected connected-ephemeral, got %s", s.State())
	}
	connected, ok := s.ConnectedAddress()
	if !ok || connected != addrEph1 {
		t.Fatalf("expected %s connected, got %s (%v)", addrEph1.Hex(), connected.Hex(), ok)
	}

	// connecting again replaces the identity
	if err := s.Connect(addrEph2); err != nil {
		t.Fatalf("reconnecting failed: %s", err)
	}
	connected, _ = s.ConnectedAddress()
	if connected != addrEph2 {
		t.Fatalf("reconnect must replace the identity, got %s", connected.Hex())
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	s := newSession(t, session.Config{Backend: newFakeBackend(addrEph1)})
	if err := s.SwitchChain(137); err != nil {
		t.Fatalf("switching chain failed: %s", err)
	}
	if err := s.Connect(addrEph1); err != nil {
		t.Fatalf("connecting failed: %s", err)
	}
	s.Disconnect()
	s.Disconnect()
	if s.State() != session.Disconnected {
		t.Fatalf("expected disconnected, got %s", s.State())
	}
	if _, ok := s.ConnectedAddress(); ok {
		t.Fatalf("disconnected session must report no address")
	}
	if s.ActiveChain() != 137 {
		t.Fatalf("disconnect must keep the active chain, got %d", s.ActiveChain())
	}
}

func TestSetSigningModeGuards(t *testing.T) {
	s := newSession(t, session.Config{
		Backend: newFakeBackend(addrEph1),
		Vault:   newFakeVault(),
	})
	if err := s.SetSigningMode(session.ModeVault); !errors.Is(err, session.ErrNoKeysImported) {
		t.Fatalf("expected ErrNoKeysImported for an empty vault, got %v", err)
	}
	if s.Mode() != session.ModeEphemeral {
		t.Fatalf("failed switch must not change the mode")
	}

	s = newSession(t, session.Config{Vault: newFakeVault(addrVault)})
	if err := s.SetSigningMode(session.ModeEphemeral); !errors.Is(err, session.ErrNoEphemeralBackend) {
		t.Fatalf("expected ErrNoEphemeralBackend, got %v", err)
	}
}

func TestSetSigningModeDisconnectsMissingIdentity(t *testing.T) {
	s := newSession(t, session.Config{
		Backend: newFakeBackend(addrEph1),
		Vault:   newFakeVault(addrVault),
	})
	if err := s.Connect(addrEph1); err != nil {
		t.Fatalf("connecting failed: %s", err)
	}
	if err := s.SetSigningMode(session.ModeVault); err != nil {
		t.Fatalf("switching mode failed: %s", err)
	}
	if s.State() != session.Disconnected {
		t.Fatalf("identity absent from the new mode must disconnect, got %s", s.State())
	}
	if s.Mode() != session.ModeVault {
		t.Fatalf("the mode switch itself must stick, got %s", s.Mode())
	}
}

func TestSetSigningModeKeepsSharedIdentity(t *testing.T) {
	s := newSession(t, session.Config{
		Backend: newFakeBackend(addrBoth),
		Vault:   newFakeVault(addrBoth),
	})
	if err := s.Connect(addrBoth); err != nil {
		t.Fatalf("connecting failed: %s", err)
	}
	if err := s.SetSigningMode(session.ModeVault); err != nil {
		t.Fatalf("switching mode failed: %s", err)
	}
	if s.State() != session.ConnectedVault {
		t.Fatalf("identity present in both modes must stay connected, got %s", s.State())
	}
	connected, _ := s.ConnectedAddress()
	if connected != addrBoth {
		t.Fatalf("identity must survive the mode switch, got %s", connected.Hex())
	}
}

func TestSwitchChain(t *testing.T) {
	s := newSession(t, session.Config{Backend: newFakeBackend(addrEph1)})
	if err := s.SwitchChain(424242); !errors.Is(err, networks.ErrUnknownChain) {
		t.Fatalf("expected ErrUnknownChain, got %v", err)
	}
	if err := s.Connect(addrEph1); err != nil {
		t.Fatalf("connecting failed: %s", err)
	}
	if err := s.SwitchChain(56); err != nil {
		t.Fatalf("switching chain failed: %s", err)
	}
	if s.ActiveChain() != 56 {
		t.Fatalf("active chain is %d, want 56", s.ActiveChain())
	}
	if s.State() != session.ConnectedEphemeral {
		t.Fatalf("switching chain must not disconnect, got %s", s.State())
	}
}

func TestSignTxRoutesByMode(t *testing.T) {
	backend := newFakeBackend(addrBoth)
	vault := newFakeVault(addrBoth)
	s := newSession(t, session.Config{Backend: backend, Vault: vault})

	tx := types.NewTransaction(0, addrDest, big.NewInt(1), 21000, big.NewInt(1), nil)
	if _, err := s.SignTx(tx); !errors.Is(err, session.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}

	if err := s.Connect(addrBoth); err != nil {
		t.Fatalf("connecting failed: %s", err)
	}
	if _, err := s.SignTx(tx); err != nil {
		t.Fatalf("signing failed: %s", err)
	}
	if backend.signed[addrBoth] != 1 {
		t.Fatalf("ephemeral mode must sign via the backend, got %d calls", backend.signed[addrBoth])
	}

	if err := s.SetSigningMode(session.ModeVault); err != nil {
		t.Fatalf("switching mode failed: %s", err)
	}
	if _, err := s.SignTx(tx); err != nil {
		t.Fatalf("signing failed: %s", err)
	}
	if vault.signers[addrBoth].signed != 1 {
		t.Fatalf("vault mode must sign via the vault, got %d calls", vault.signers[addrBoth].signed)
	}
	if backend.signed[addrBoth] != 1 {
		t.Fatalf("vault mode must not touch the ephemeral backend")
	}
	if vault.signers[addrBoth].chainID.Uint64() != 1 {
		t.Fatalf("signing must use the active chain id, got %s", vault.signers[addrBoth].chainID)
	}
}

func TestSendTransactionRecordsHistory(t *testing.T) {
	client := &fakeClient{}
	history := &recordHistory{}
	s := newSession(t, session.Config{
		Backend: newFakeBackend(addrEph1),
		Client:  client,
		History: history,
	})
	if _, err := s.SendTransaction(context.Background(), addrDest, big.NewInt(7), nil, "transfer"); !errors.Is(err, session.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if err := s.Connect(addrEph1); err != nil {
		t.Fatalf("connecting failed: %s", err)
	}
	hash, err := s.SendTransaction(context.Background(), addrDest, big.NewInt(7), nil, "transfer")
	if err != nil {
		t.Fatalf("sending failed: %s", err)
	}
	if len(client.sent) != 1 || client.sent[0].to != addrDest || client.sent[0].chain != 1 {
		t.Fatalf("unexpected send: %+v", client.sent)
	}
	if len(history.records) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(history.records))
	}
	record := history.records[0]
	if record.Hash != hash || record.From != addrEph1 || record.To != addrDest || record.Kind != "transfer" {
		t.Fatalf("unexpected history record: %+v", record)
	}
}

func TestSendTransactionSwallowsHistoryFailure(t *testing.T) {
	client := &fakeClient{}
	s := newSession(t, session.Config{
		Backend: newFakeBackend(addrEph1),
		Client:  client,
		History: failHistory{},
	})
	if err := s.Connect(addrEph1); err != nil {
		t.Fatalf("connecting failed: %s", err)
	}
	hash, err := s.SendTransaction(context.Background(), addrDest, big.NewInt(7), nil, "transfer")
	if err != nil {
		t.Fatalf("a broken history must not fail the send: %s", err)
	}
	if hash == "" {
		t.Fatalf("send must still return the hash")
	}
}

func TestReadContractWorksDisconnected(t *testing.T) {
	registry := contracts.NewRegistry()
	if err := registry.RegisterContract("erc20", addrDest.Hex(), 1); err != nil {
		t.Fatalf("registering failed: %s", err)
	}
	client := &fakeClient{readOut: []interface{}{big.NewInt(1000)}}
	s := newSession(t, session.Config{
		Backend:   newFakeBackend(addrEph1),
		Contracts: registry,
		Client:    client,
	})
	out, err := s.ReadContract(context.Background(), "erc20", "", "balanceOf", []interface{}{addrEph1}, contracts.ResolveOptions{})
	if err != nil {
		t.Fatalf("reading failed: %s", err)
	}
	if len(out) != 1 || out[0].(*big.Int).Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("unexpected read result: %v", out)
	}
	if client.lastRead.addr != addrDest || client.lastRead.method != "balanceOf" {
		t.Fatalf("read went to %s.%s, want %s.balanceOf", client.lastRead.addr.Hex(), client.lastRead.method, addrDest.Hex())
	}
}

func TestWriteContract(t *testing.T) {
	registry := contracts.NewRegistry()
	if err := registry.RegisterContract("erc20", addrDest.Hex(), 1); err != nil {
		t.Fatalf("registering failed: %s", err)
	}
	client := &fakeClient{}
	s := newSession(t, session.Config{
		Backend:   newFakeBackend(addrEph1),
		Contracts: registry,
		Client:    client,
	})
	args := []interface{}{addrEph1, big.NewInt(5)}
	if _, err := s.WriteContract(context.Background(), "erc20", "", "transfer", args, nil, contracts.ResolveOptions{}); !errors.Is(err, session.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if err := s.Connect(addrEph1); err != nil {
		t.Fatalf("connecting failed: %s", err)
	}
	if _, err := s.WriteContract(context.Background(), "erc20", "", "transfer", args, nil, contracts.ResolveOptions{}); err != nil {
		t.Fatalf("writing failed: %s", err)
	}
	if len(client.sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(client.sent))
	}
	sent := client.sent[0]
	if sent.to != addrDest || len(sent.data) == 0 {
		t.Fatalf("unexpected contract call: %+v", sent)
	}
	if _, err := s.WriteContract(context.Background(), "erc20", "", "mintUnicorns", nil, nil, contracts.ResolveOptions{}); err == nil {
		t.Fatalf("packing an unknown method must fail")
	}
}
