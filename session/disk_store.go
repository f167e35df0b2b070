package session

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const sealedFormatVersion = 1

// kdfParams are the argon2id cost parameters.
type kdfParams struct {
	Time    uint32 `json:"time"`
	Memory  uint32 `json:"memory"`
	Threads uint8  `json:"threads"`
}

var defaultKDF = kdfParams{Time: 1, Memory: 64 * 1024, Threads: 4}

// sealed is the on-disk JSON structure.
type sealed struct {
	V      int       `json:"v"`
	KDF    kdfParams `json:"kdf"`
	Salt   []byte    `json:"salt"`
	Nonce  []byte    `json:"nonce"`
	Cipher []byte    `json:"cipher"`
}

// DiskStore persists the session to a single file encrypted with a key derived from a
// passphrase. Every write rewrites the whole file.
type DiskStore struct {
	path string
	key  []byte
	salt []byte
	kdf  kdfParams

	mu  sync.RWMutex
	doc document
}

// NewDiskStore opens the session file at path, creating its directory if needed. An
// existing file is decrypted and loaded; a missing one starts an empty session.
func NewDiskStore(path, passphrase string) (*DiskStore, error) {
	return newDiskStore(path, passphrase, defaultKDF)
}

func newDiskStore(path, passphrase string, kdf kdfParams) (*DiskStore, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("session passphrase is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	s := &DiskStore{path: path, kdf: kdf}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.salt = make([]byte, 16)
		if _, err := rand.Read(s.salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
		s.key = deriveKey(passphrase, s.salt, kdf)
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var blob sealed
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	if blob.V > sealedFormatVersion {
		return nil, fmt.Errorf("unsupported session file version %d", blob.V)
	}
	s.salt = blob.Salt
	s.kdf = blob.KDF
	s.key = deriveKey(passphrase, s.salt, s.kdf)

	raw, err := s.open(blob)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &s.doc); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return s, nil
}

func deriveKey(passphrase string, salt []byte, p kdfParams) []byte {
	return argon2.IDKey([]byte(passphrase), salt, p.Time, p.Memory, p.Threads, chacha20poly1305.KeySize)
}

func (s *DiskStore) open(blob sealed) ([]byte, error) {
	aead, err := chacha20poly1305.New(s.key)
	if err != nil {
		return nil, err
	}
	raw, err := aead.Open(nil, blob.Nonce, blob.Cipher, blob.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return raw, nil
}

// save must be called with s.mu held.
func (s *DiskStore) save() error {
	raw, err := json.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	aead, err := chacha20poly1305.New(s.key)
	if err != nil {
		return err
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	data, err := json.Marshal(sealed{
		V:      sealedFormatVersion,
		KDF:    s.kdf,
		Salt:   s.salt,
		Nonce:  nonce,
		Cipher: aead.Seal(nil, nonce, raw, s.salt),
	})
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

func (s *DiskStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Token
}

func (s *DiskStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Token = token
	return s.save()
}

func (s *DiskStore) Profile() (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.profile()
}

func (s *DiskStore) SetProfile(p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Profile = &p
	return s.save()
}

// Clear empties the session and removes the file.
func (s *DiskStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = document{}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
