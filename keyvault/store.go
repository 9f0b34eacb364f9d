package keyvault

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// VaultFileVersion is the current on-disk format version. Bump it together
// with an explicit migration when the layout changes.
const VaultFileVersion = 1

// EncryptedKeyRecord is one private key encrypted at rest. Byte fields are
// base64 in json. Salt and nonce are unique per record.
type EncryptedKeyRecord struct {
	ID         string `json:"id"`
	Address    string `json:"address"`
	Ciphertext []byte `json:"ciphertext"`
	Nonce      []byte `json:"nonce"`
	Salt       []byte `json:"salt"`
	Label      string `json:"label,omitempty"`
	CreatedAt  int64  `json:"created_at"`
}

// guardRecord seals a fixed sentinel under the master password so the
// password can be verified even when the vault holds no keys.
type guardRecord struct {
	Ciphertext []byte `json:"ciphertext"`
	Nonce      []byte `json:"nonce"`
	Salt       []byte `json:"salt"`
}

// VaultFile is the persisted vault document.
type VaultFile struct {
	Version int                           `json:"version"`
	Guard   guardRecord                   `json:"guard"`
	Keys    map[string]EncryptedKeyRecord `json:"keys"`
}

// Store persists a VaultFile. Save must be all-or-nothing: a failed save
// leaves the previously stored file authoritative.
type Store interface {
	Load() (*VaultFile, error)
	Save(*VaultFile) error
	Exists() bool
}

// FileStore keeps the vault as a single json file. Saves go through a temp
// file and a rename so a crash mid-write never corrupts the vault.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && info.Size() > 0
}

func (s *FileStore) Load() (*VaultFile, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault file %s: %w", s.path, err)
	}
	file := &VaultFile{}
	if err := json.Unmarshal(content, file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vault file %s: %w", s.path, err)
	}
	if file.Version != VaultFileVersion {
		return nil, fmt.Errorf("unsupported vault file version %d (want %d)", file.Version, VaultFileVersion)
	}
	if file.Keys == nil {
		file.Keys = map[string]EncryptedKeyRecord{}
	}
	return file, nil
}

func (s *FileStore) Save(file *VaultFile) error {
	content, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal vault file: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create vault dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".vault-*")
	if err != nil {
		return fmt.Errorf("failed to create temp vault file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp vault file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp vault file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod temp vault file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace vault file: %w", err)
	}
	return nil
}
