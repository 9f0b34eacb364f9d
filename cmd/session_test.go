package cmd

import (
	"testing"

	"github.com/w3agent/w3agent/contracts"
	"github.com/w3agent/w3agent/keyvault"
	"github.com/w3agent/w3agent/networks"
	"github.com/w3agent/w3agent/session"
	"github.com/w3agent/w3agent/ui"
)

func newLoopEnv(t *testing.T) (*sessionEnv, *keyvault.EphemeralBackend) {
	t.Helper()
	chains := networks.NewRegistry()
	backend, err := keyvault.NewEphemeralBackend(2)
	if err != nil {
		t.Fatalf("seeding backend failed: %s", err)
	}
	sess, err := session.New(session.Config{
		Chains:         chains,
		Contracts:      contracts.NewRegistry(),
		Backend:        backend,
		DefaultChainID: 1,
	})
	if err != nil {
		t.Fatalf("creating session failed: %s", err)
	}
	return &sessionEnv{sess: sess, chains: chains, backend: backend}, backend
}

func TestSessionLoopDrivesTheSession(t *testing.T) {
	env, backend := newLoopEnv(t)
	addr := backend.Addresses()[0]
	u := ui.NewRecordingUI(
		"help",
		"status",
		"addresses",
		"connect nope",
		"connect 0x0000000000000000000000000000000000000001",
		"connect "+addr.Hex(),
		"status",
		"mode vault",
		"chain polygon",
		"chain 999999",
		"disconnect",
		"bogus",
		"quit",
	)
	sessionLoop(u, env)

	if !u.HasMessage("Connected " + addr.Hex()) {
		t.Fatalf("connecting a seeded identity must succeed, log: %v", u.Entries())
	}
	if !u.HasMessage("usage: connect") {
		t.Fatalf("malformed connect must print usage")
	}
	if !u.HasMessage("not available in the active signing mode") {
		t.Fatalf("connecting an unseeded address must report the membership failure")
	}
	if !u.HasMessage("has no keys imported") {
		t.Fatalf("switching to vault mode without a vault must report NoKeysImported")
	}
	if !u.HasMessage("Active chain is now polygon (137)") {
		t.Fatalf("chain switch by name must report the new chain")
	}
	if !u.HasMessage("unknown chain") {
		t.Fatalf("switching to an unknown chain must fail")
	}
	if !u.HasMessage("Unknown command 'bogus'") {
		t.Fatalf("a bogus command must be rejected")
	}
	if !u.HasMessage("Session closed.") {
		t.Fatalf("quit must close the session")
	}
	if env.sess.ActiveChain() != 137 {
		t.Fatalf("the loop must have switched the session to chain 137, got %d", env.sess.ActiveChain())
	}
	if _, ok := env.sess.ConnectedAddress(); ok {
		t.Fatalf("the loop must have disconnected the session")
	}
}

func TestSessionLoopExitsOnEmptyInput(t *testing.T) {
	env, _ := newLoopEnv(t)
	u := ui.NewRecordingUI("")
	sessionLoop(u, env)
	if !u.HasMessage("Session closed.") {
		t.Fatalf("an empty line must end the session")
	}
}
