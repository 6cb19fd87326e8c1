package files

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"conduit/internal/crypto"
)

// Storage is a durable string key/value store, the client-side equivalent of localStorage.
type Storage interface {
	// GetItem returns ok == false when the key is absent.
	GetItem(key string) (value string, ok bool, err error)
	SetItem(key, value string) error
	// RemoveItem does not fail when the key is absent.
	RemoveItem(key string) error
}

// LocalStorage keeps all items in one JSON object on disk.
type LocalStorage struct {
	filePath string
	mu       sync.RWMutex
}

const storageFileName = "storage.json"

// NewLocalStorage stores items in dir/storage.json, creating dir on first write.
func NewLocalStorage(dir string) *LocalStorage {
	return &LocalStorage{filePath: filepath.Join(dir, storageFileName)}
}

// Path returns the backing file.
func (s *LocalStorage) Path() string { return s.filePath }

func (s *LocalStorage) GetItem(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := items[key]
	return v, ok, nil
}

func (s *LocalStorage) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.readOrReset()
	if err != nil {
		return err
	}
	items[key] = value
	return s.write(items)
}

func (s *LocalStorage) RemoveItem(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.read()
	if errors.Is(err, ErrCorruptRecord) {
		// nothing in an unreadable file can be removed selectively
		return s.write(map[string]string{})
	}
	if err != nil {
		return err
	}
	if _, ok := items[key]; !ok {
		return nil
	}
	delete(items, key)
	return s.write(items)
}

// readOrReset is read, except that an unreadable file counts as empty. Writers use it
// so a corrupt file is replaced instead of blocking every later write.
func (s *LocalStorage) readOrReset() (map[string]string, error) {
	items, err := s.read()
	if errors.Is(err, ErrCorruptRecord) {
		return make(map[string]string), nil
	}
	return items, err
}

func (s *LocalStorage) read() (map[string]string, error) {
	items := make(map[string]string)
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return items, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: storage file %s: %v", ErrCorruptRecord, s.filePath, err)
	}
	return items, nil
}

func (s *LocalStorage) write(items map[string]string) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0700); err != nil {
		return err
	}
	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.filePath)
}

// MemoryStorage is an in-process Storage.
type MemoryStorage struct {
	mu    sync.Mutex
	items map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (m *MemoryStorage) GetItem(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryStorage) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MemoryStorage) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// SealedStorage encrypts every value with AES-GCM before handing it to the inner storage.
// Values are stored base64 encoded.
type SealedStorage struct {
	inner Storage
	key   []byte
}

// NewSealedStorage derives the sealing key from the master key.
func NewSealedStorage(inner Storage, masterKey []byte) (*SealedStorage, error) {
	key, err := crypto.DeriveStorageKey(masterKey, "items")
	if err != nil {
		return nil, err
	}
	return &SealedStorage{inner: inner, key: key}, nil
}

func (s *SealedStorage) GetItem(key string) (string, bool, error) {
	v, ok, err := s.inner.GetItem(key)
	if err != nil || !ok {
		return "", ok, err
	}
	blob, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return "", true, fmt.Errorf("%w: sealed item %q: %v", ErrCorruptRecord, key, err)
	}
	plain, err := crypto.DecryptAESGCM(s.key, blob)
	if err != nil {
		return "", true, fmt.Errorf("%w: sealed item %q: %v", ErrCorruptRecord, key, err)
	}
	return string(plain), true, nil
}

func (s *SealedStorage) SetItem(key, value string) error {
	blob, err := crypto.EncryptAESGCM(s.key, []byte(value))
	if err != nil {
		return err
	}
	return s.inner.SetItem(key, base64.StdEncoding.EncodeToString(blob))
}

func (s *SealedStorage) RemoveItem(key string) error {
	return s.inner.RemoveItem(key)
}
