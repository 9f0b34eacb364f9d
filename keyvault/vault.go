// Package keyvault implements the password-protected at-rest store of the
// wallet's private keys. Keys are encrypted per record with scrypt derived
// AES-256-GCM and only live decrypted in memory while the vault is unlocked.
//
// Plaintext buffers are cleared after use on a best-effort basis. Go gives no
// guarantee the runtime has not copied them, so this is hygiene, not a
// security boundary.
package keyvault

import (
	"bytes"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

var (
	ErrWeakPassword     = errors.New("master password is too weak, need at least 8 characters")
	ErrInvalidPassword  = errors.New("invalid password or corrupted data")
	ErrInvalidKeyFormat = errors.New("private key must be 0x followed by 64 hex characters")
	ErrKeyNotFound      = errors.New("no key with that address in the vault")
	ErrVaultLocked      = errors.New("vault is locked")
	ErrVaultExists      = errors.New("vault file already exists")
)

const minPasswordLen = 8

// guardSentinel is the known plaintext sealed under the master password so
// the password can be checked against an empty vault.
var guardSentinel = []byte("w3agent vault guard v1")

// Vault is the in-process view of one vault file. It is not safe for
// concurrent use: the caller serializes access, one vault per session.
type Vault struct {
	store    Store
	file     *VaultFile
	unlocked bool
	keys     map[common.Address]*ecdsa.PrivateKey
}

// Create makes a new empty vault protected by masterPassword and persists
// it. The returned vault is unlocked.
func Create(store Store, masterPassword string) (*Vault, error) {
	if len(masterPassword) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	if store.Exists() {
		return nil, ErrVaultExists
	}
	guard, err := sealGuard(masterPassword)
	if err != nil {
		return nil, err
	}
	file := &VaultFile{
		Version: VaultFileVersion,
		Guard:   guard,
		Keys:    map[string]EncryptedKeyRecord{},
	}
	if err := store.Save(file); err != nil {
		return nil, err
	}
	return &Vault{
		store:    store,
		file:     file,
		unlocked: true,
		keys:     map[common.Address]*ecdsa.PrivateKey{},
	}, nil
}

// Open loads an existing vault. The vault starts locked; call Unlock before
// any operation that touches key material.
func Open(store Store) (*Vault, error) {
	file, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Vault{store: store, file: file}, nil
}

// Unlock verifies masterPassword and decrypts every stored key into memory.
// Fails closed: either all keys decrypt or none are retained.
func (v *Vault) Unlock(masterPassword string) error {
	if err := v.checkPassword(masterPassword); err != nil {
		return err
	}
	keys := map[common.Address]*ecdsa.PrivateKey{}
	for _, record := range v.file.Keys {
		keyBytes, err := open([]byte(masterPassword), record.Ciphertext, record.Nonce, record.Salt)
		if err != nil {
			return ErrInvalidPassword
		}
		key, err := crypto.ToECDSA(keyBytes)
		clear(keyBytes)
		if err != nil {
			return ErrInvalidPassword
		}
		addr := crypto.PubkeyToAddress(key.PublicKey)
		if addr.Hex() != record.Address {
			// record was tampered with, indistinguishable from a bad password
			return ErrInvalidPassword
		}
		keys[addr] = key
	}
	v.keys = keys
	v.unlocked = true
	return nil
}

// Lock discards all decrypted key material. Zeroing the scalars is
// best-effort, see the package comment.
func (v *Vault) Lock() {
	for _, key := range v.keys {
		if key != nil && key.D != nil {
			key.D.SetInt64(0)
		}
	}
	v.keys = nil
	v.unlocked = false
}

func (v *Vault) IsUnlocked() bool {
	return v.unlocked
}

// Addresses lists every address in the vault index. It works on a locked
// vault since addresses are stored in the clear.
func (v *Vault) Addresses() []common.Address {
	res := []common.Address{}
	for _, record := range v.file.Keys {
		res = append(res, common.HexToAddress(record.Address))
	}
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Bytes(), res[j].Bytes()) < 0
	})
	return res
}

// Has reports whether addr is in the vault index, locked or not.
func (v *Vault) Has(addr common.Address) bool {
	_, found := v.file.Keys[addr.Hex()]
	return found
}

// ImportKey validates and encrypts a private key under masterPassword.
// Importing an address that is already in the vault only updates its label.
func (v *Vault) ImportKey(privHex string, masterPassword string, label string) (common.Address, error) {
	if !v.unlocked {
		return common.Address{}, ErrVaultLocked
	}
	key, err := parsePrivateKey(privHex)
	if err != nil {
		return common.Address{}, err
	}
	addr := crypto.PubkeyToAddress(key.PublicKey)

	if record, found := v.file.Keys[addr.Hex()]; found {
		record.Label = label
		next := v.cloneFile()
		next.Keys[addr.Hex()] = record
		if err := v.store.Save(next); err != nil {
			return common.Address{}, err
		}
		v.file = next
		v.keys[addr] = key
		return addr, nil
	}

	if err := v.checkPassword(masterPassword); err != nil {
		return common.Address{}, err
	}
	keyBytes := crypto.FromECDSA(key)
	ciphertext, nonce, salt, err := seal([]byte(masterPassword), keyBytes)
	clear(keyBytes)
	if err != nil {
		return common.Address{}, err
	}
	next := v.cloneFile()
	next.Keys[addr.Hex()] = EncryptedKeyRecord{
		ID:         uuid.NewString(),
		Address:    addr.Hex(),
		Ciphertext: ciphertext,
		Nonce:      nonce,
		Salt:       salt,
		Label:      label,
		CreatedAt:  time.Now().Unix(),
	}
	if err := v.store.Save(next); err != nil {
		return common.Address{}, err
	}
	v.file = next
	v.keys[addr] = key
	return addr, nil
}

// RemoveKey deletes the key for addr from the vault.
func (v *Vault) RemoveKey(addr common.Address) error {
	if !v.unlocked {
		return ErrVaultLocked
	}
	if _, found := v.file.Keys[addr.Hex()]; !found {
		return fmt.Errorf("%s: %w", addr.Hex(), ErrKeyNotFound)
	}
	next := v.cloneFile()
	delete(next.Keys, addr.Hex())
	if err := v.store.Save(next); err != nil {
		return err
	}
	v.file = next
	delete(v.keys, addr)
	return nil
}

// UpdateLabel renames the key for addr.
func (v *Vault) UpdateLabel(addr common.Address, label string) error {
	if !v.unlocked {
		return ErrVaultLocked
	}
	record, found := v.file.Keys[addr.Hex()]
	if !found {
		return fmt.Errorf("%s: %w", addr.Hex(), ErrKeyNotFound)
	}
	record.Label = label
	next := v.cloneFile()
	next.Keys[addr.Hex()] = record
	if err := v.store.Save(next); err != nil {
		return err
	}
	v.file = next
	return nil
}

// ChangeMasterPassword re-encrypts every key and the guard under newPassword.
// The whole file is rebuilt in memory and persisted with a single save, so a
// failure anywhere leaves the old password authoritative. Works on a locked
// vault: records are decrypted with oldPassword directly.
func (v *Vault) ChangeMasterPassword(oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return ErrWeakPassword
	}
	if err := v.checkPassword(oldPassword); err != nil {
		return err
	}
	guard, err := sealGuard(newPassword)
	if err != nil {
		return err
	}
	next := &VaultFile{
		Version: VaultFileVersion,
		Guard:   guard,
		Keys:    map[string]EncryptedKeyRecord{},
	}
	for addrHex, record := range v.file.Keys {
		keyBytes, err := open([]byte(oldPassword), record.Ciphertext, record.Nonce, record.Salt)
		if err != nil {
			return ErrInvalidPassword
		}
		ciphertext, nonce, salt, err := seal([]byte(newPassword), keyBytes)
		clear(keyBytes)
		if err != nil {
			return err
		}
		record.Ciphertext = ciphertext
		record.Nonce = nonce
		record.Salt = salt
		next.Keys[addrHex] = record
	}
	if err := v.store.Save(next); err != nil {
		return err
	}
	v.file = next
	return nil
}

// KeyInfo is the public listing entry for one stored key. It never carries
// key material.
type KeyInfo struct {
	Address   common.Address
	Label     string
	CreatedAt time.Time
}

// ListKeys returns address, label and creation time for every stored key.
func (v *Vault) ListKeys() ([]KeyInfo, error) {
	if !v.unlocked {
		return nil, ErrVaultLocked
	}
	res := []KeyInfo{}
	for _, record := range v.file.Keys {
		res = append(res, KeyInfo{
			Address:   common.HexToAddress(record.Address),
			Label:     record.Label,
			CreatedAt: time.Unix(record.CreatedAt, 0),
		})
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.Before(res[j].CreatedAt)
		}
		return bytes.Compare(res[i].Address.Bytes(), res[j].Address.Bytes()) < 0
	})
	return res, nil
}

// SignerFor returns a signer backed by the decrypted key for addr.
func (v *Vault) SignerFor(addr common.Address) (*KeySigner, error) {
	if !v.unlocked {
		return nil, ErrVaultLocked
	}
	key, found := v.keys[addr]
	if !found {
		return nil, fmt.Errorf("%s: %w", addr.Hex(), ErrKeyNotFound)
	}
	return NewKeySigner(key), nil
}

func (v *Vault) checkPassword(masterPassword string) error {
	plaintext, err := open([]byte(masterPassword), v.file.Guard.Ciphertext, v.file.Guard.Nonce, v.file.Guard.Salt)
	if err != nil {
		return err
	}
	match := bytes.Equal(plaintext, guardSentinel)
	clear(plaintext)
	if !match {
		return ErrInvalidPassword
	}
	return nil
}

func (v *Vault) cloneFile() *VaultFile {
	next := &VaultFile{
		Version: v.file.Version,
		Guard:   v.file.Guard,
		Keys:    make(map[string]EncryptedKeyRecord, len(v.file.Keys)),
	}
	for addr, record := range v.file.Keys {
		next.Keys[addr] = record
	}
	return next
}

func sealGuard(masterPassword string) (guardRecord, error) {
	ciphertext, nonce, salt, err := seal([]byte(masterPassword), guardSentinel)
	if err != nil {
		return guardRecord{}, err
	}
	return guardRecord{Ciphertext: ciphertext, Nonce: nonce, Salt: salt}, nil
}

func parsePrivateKey(privHex string) (*ecdsa.PrivateKey, error) {
	if !strings.HasPrefix(privHex, "0x") || len(privHex) != 66 {
		return nil, ErrInvalidKeyFormat
	}
	key, err := crypto.HexToECDSA(privHex[2:])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKeyFormat, err)
	}
	return key, nil
}
