package keyvault_test

import (
	"errors"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/w3agent/w3agent/keyvault"
)

const (
	testPassword = "correct horse battery"
	testKeyHex   = "0x1111111111111111111111111111111111111111111111111111111111111111"
	testKey2Hex  = "0x2222222222222222222222222222222222222222222222222222222222222222"
)

func keyAddress(t *testing.T, privHex string) common.Address {
	t.Helper()
	key, err := crypto.HexToECDSA(privHex[2:])
	if err != nil {
		t.Fatalf("couldn't parse test key: %s", err)
	}
	return crypto.PubkeyToAddress(key.PublicKey)
}

func newVault(t *testing.T) (*keyvault.Vault, *keyvault.FileStore) {
	t.Helper()
	store := keyvault.NewFileStore(filepath.Join(t.TempDir(), "vault.json"))
	vault, err := keyvault.Create(store, testPassword)
	if err != nil {
		t.Fatalf("creating vault failed: %s", err)
	}
	return vault, store
}

func TestCreateRejectsWeakPassword(t *testing.T) {
	store := keyvault.NewFileStore(filepath.Join(t.TempDir(), "vault.json"))
	if _, err := keyvault.Create(store, "short"); !errors.Is(err, keyvault.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestCreateRejectsExistingVault(t *testing.T) {
	_, store := newVault(t)
	if _, err := keyvault.Create(store, testPassword); !errors.Is(err, keyvault.ErrVaultExists) {
		t.Fatalf("expected ErrVaultExists, got %v", err)
	}
}

func TestImportReopenUnlockSign(t *testing.T) {
	vault, store := newVault(t)
	addr, err := vault.ImportKey(testKeyHex, testPassword, "hot")
	if err != nil {
		t.Fatalf("importing key failed: %s", err)
	}
	if want := keyAddress(t, testKeyHex); addr != want {
		t.Fatalf("imported address %s, want %s", addr.Hex(), want.Hex())
	}
	vault.Lock()

	reopened, err := keyvault.Open(store)
	if err != nil {
		t.Fatalf("reopening vault failed: %s", err)
	}
	if reopened.IsUnlocked() {
		t.Fatalf("reopened vault must start locked")
	}
	if _, err := reopened.ListKeys(); !errors.Is(err, keyvault.ErrVaultLocked) {
		t.Fatalf("expected ErrVaultLocked, got %v", err)
	}
	if err := reopened.Unlock("wrong password!"); !errors.Is(err, keyvault.ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if err := reopened.Unlock(testPassword); err != nil {
		t.Fatalf("unlocking vault failed: %s", err)
	}
	keys, err := reopened.ListKeys()
	if err != nil {
		t.Fatalf("listing keys failed: %s", err)
	}
	if len(keys) != 1 || keys[0].Address != addr || keys[0].Label != "hot" {
		t.Fatalf("unexpected key listing: %+v", keys)
	}

	signer, err := reopened.SignerFor(addr)
	if err != nil {
		t.Fatalf("getting signer failed: %s", err)
	}
	if signer.Address() != addr {
		t.Fatalf("signer address %s, want %s", signer.Address().Hex(), addr.Hex())
	}
	chainID := big.NewInt(1)
	tx := types.NewTransaction(0, common.Address{}, big.NewInt(1), 21000, big.NewInt(1), nil)
	signed, err := signer.SignTx(tx, chainID)
	if err != nil {
		t.Fatalf("signing failed: %s", err)
	}
	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	if err != nil {
		t.Fatalf("recovering sender failed: %s", err)
	}
	if sender != addr {
		t.Fatalf("recovered sender %s, want %s", sender.Hex(), addr.Hex())
	}
}

func TestImportRejectsMalformedKeys(t *testing.T) {
	vault, _ := newVault(t)
	for _, privHex := range []string{
		"",
		"1111111111111111111111111111111111111111111111111111111111111111",
		"0x1111",
		"0xzz11111111111111111111111111111111111111111111111111111111111111",
	} {
		if _, err := vault.ImportKey(privHex, testPassword, ""); !errors.Is(err, keyvault.ErrInvalidKeyFormat) {
			t.Fatalf("importing %q: expected ErrInvalidKeyFormat, got %v", privHex, err)
		}
	}
}

func TestImportRejectsWrongPassword(t *testing.T) {
	vault, _ := newVault(t)
	if _, err := vault.ImportKey(testKeyHex, "not the password", ""); !errors.Is(err, keyvault.ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if len(vault.Addresses()) != 0 {
		t.Fatalf("failed import must not add a key")
	}
}

func TestReimportOnlyUpdatesLabel(t *testing.T) {
	vault, _ := newVault(t)
	addr, err := vault.ImportKey(testKeyHex, testPassword, "old label")
	if err != nil {
		t.Fatalf("importing key failed: %s", err)
	}
	if _, err := vault.ImportKey(testKeyHex, testPassword, "new label"); err != nil {
		t.Fatalf("re-importing key failed: %s", err)
	}
	keys, err := vault.ListKeys()
	if err != nil {
		t.Fatalf("listing keys failed: %s", err)
	}
	if len(keys) != 1 {
		t.Fatalf("re-import must not duplicate the key, got %d entries", len(keys))
	}
	if keys[0].Address != addr || keys[0].Label != "new label" {
		t.Fatalf("unexpected listing after re-import: %+v", keys[0])
	}
}

func TestLockedVaultKeepsIndexReadable(t *testing.T) {
	vault, _ := newVault(t)
	addr, err := vault.ImportKey(testKeyHex, testPassword, "")
	if err != nil {
		t.Fatalf("importing key failed: %s", err)
	}
	vault.Lock()

	if !vault.Has(addr) {
		t.Fatalf("Has must work on a locked vault")
	}
	if got := vault.Addresses(); len(got) != 1 || got[0] != addr {
		t.Fatalf("Addresses must work on a locked vault, got %v", got)
	}
	if _, err := vault.ImportKey(testKey2Hex, testPassword, ""); !errors.Is(err, keyvault.ErrVaultLocked) {
		t.Fatalf("expected ErrVaultLocked on import, got %v", err)
	}
	if _, err := vault.SignerFor(addr); !errors.Is(err, keyvault.ErrVaultLocked) {
		t.Fatalf("expected ErrVaultLocked on SignerFor, got %v", err)
	}
}

func TestRemoveKey(t *testing.T) {
	vault, _ := newVault(t)
	addr, err := vault.ImportKey(testKeyHex, testPassword, "")
	if err != nil {
		t.Fatalf("importing key failed: %s", err)
	}
	if err := vault.RemoveKey(keyAddress(t, testKey2Hex)); !errors.Is(err, keyvault.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if err := vault.RemoveKey(addr); err != nil {
		t.Fatalf("removing key failed: %s", err)
	}
	if vault.Has(addr) {
		t.Fatalf("removed key must leave the index")
	}
	if _, err := vault.SignerFor(addr); !errors.Is(err, keyvault.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound after removal, got %v", err)
	}
}

func TestChangeMasterPassword(t *testing.T) {
	vault, store := newVault(t)
	addr, err := vault.ImportKey(testKeyHex, testPassword, "kept")
	if err != nil {
		t.Fatalf("importing key failed: %s", err)
	}
	vault.Lock()

	if err := vault.ChangeMasterPassword("not the password", "whatever works"); !errors.Is(err, keyvault.ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if err := vault.ChangeMasterPassword(testPassword, "tiny"); !errors.Is(err, keyvault.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	// rotation works on a locked vault
	if err := vault.ChangeMasterPassword(testPassword, "a better password"); err != nil {
		t.Fatalf("changing master password failed: %s", err)
	}

	reopened, err := keyvault.Open(store)
	if err != nil {
		t.Fatalf("reopening vault failed: %s", err)
	}
	if err := reopened.Unlock(testPassword); !errors.Is(err, keyvault.ErrInvalidPassword) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if err := reopened.Unlock("a better password"); err != nil {
		t.Fatalf("unlocking with new password failed: %s", err)
	}
	signer, err := reopened.SignerFor(addr)
	if err != nil {
		t.Fatalf("getting signer after rotation failed: %s", err)
	}
	if signer.Address() != addr {
		t.Fatalf("key must survive rotation intact")
	}
}

func TestTamperedRecordFailsClosed(t *testing.T) {
	vault, store := newVault(t)
	if _, err := vault.ImportKey(testKeyHex, testPassword, ""); err != nil {
		t.Fatalf("importing key failed: %s", err)
	}
	if _, err := vault.ImportKey(testKey2Hex, testPassword, ""); err != nil {
		t.Fatalf("importing second key failed: %s", err)
	}
	file, err := store.Load()
	if err != nil {
		t.Fatalf("loading vault file failed: %s", err)
	}
	for addrHex, record := range file.Keys {
		record.Ciphertext[0] ^= 0xff
		file.Keys[addrHex] = record
		break
	}
	if err := store.Save(file); err != nil {
		t.Fatalf("saving tampered file failed: %s", err)
	}

	reopened, err := keyvault.Open(store)
	if err != nil {
		t.Fatalf("reopening vault failed: %s", err)
	}
	if err := reopened.Unlock(testPassword); !errors.Is(err, keyvault.ErrInvalidPassword) {
		t.Fatalf("tampered record must unlock-fail as ErrInvalidPassword, got %v", err)
	}
	if reopened.IsUnlocked() {
		t.Fatalf("failed unlock must not leave the vault unlocked")
	}
	if _, err := reopened.ListKeys(); !errors.Is(err, keyvault.ErrVaultLocked) {
		t.Fatalf("no keys may be retained after a failed unlock, got %v", err)
	}
}
