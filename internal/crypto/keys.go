package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// MasterKeyEnv names the environment variable holding the hex encoded master key.
const MasterKeyEnv = "CONDUIT_MASTER_KEY"

// MasterKeySize is the master key length in bytes.
const MasterKeySize = 32

// DeriveStorageKey derives the 32-byte key used to seal stored records from the master key.
// Different purposes yield unrelated keys for the same master key.
func DeriveStorageKey(master []byte, purpose string) ([]byte, error) {
	if len(master) != MasterKeySize {
		return nil, ErrInvalidKeyLength
	}
	h := hkdf.New(sha256.New, master, nil, []byte("conduit-storage:"+purpose))
	out := make([]byte, 32)
	if _, err := io.ReadFull(h, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateMasterKey returns a fresh random master key.
func GenerateMasterKey() []byte {
	return MustRandom(MasterKeySize)
}

// ParseMasterKey decodes a hex master key, tolerating surrounding whitespace.
func ParseMasterKey(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("master key hex decode error: %w", err)
	}
	if len(b) != MasterKeySize {
		return nil, fmt.Errorf("master key length must be %d bytes: %w", MasterKeySize, ErrInvalidKeyLength)
	}
	return b, nil
}

// ReadMasterKey reads the master key from CONDUIT_MASTER_KEY, or from keyFile when the
// variable is unset.
func ReadMasterKey(keyFile string) ([]byte, error) {
	h := os.Getenv(MasterKeyEnv)
	if h == "" {
		data, err := os.ReadFile(keyFile)
		if err != nil {
			return nil, fmt.Errorf("%s not set and %s not readable: %w", MasterKeyEnv, keyFile, err)
		}
		h = string(data)
	}
	return ParseMasterKey(h)
}

// MustRandom returns n random bytes or panics.
func MustRandom(n int) []byte {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		panic(err)
	}
	return b
}
