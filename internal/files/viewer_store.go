package files

import (
	"encoding/json"
	"errors"
	"fmt"

	"conduit/internal/models"
)

// StorageKey is the single key the viewer record lives under.
const StorageKey = "conduit"

// RecordVersion is the schema version written with every viewer record.
const RecordVersion = 1

// ErrCorruptRecord marks a stored record that exists but cannot be read back.
var ErrCorruptRecord = errors.New("corrupt stored record")

// viewerRecord is the persisted form of a viewer.
type viewerRecord struct {
	Username string  `json:"username"`
	Image    *string `json:"image"`
	Token    string  `json:"token"`
	Version  int     `json:"version,omitempty"`
}

// ViewerStore persists the logged-in viewer.
type ViewerStore struct {
	storage Storage
}

func NewViewerStore(storage Storage) *ViewerStore {
	return &ViewerStore{storage: storage}
}

// Load returns nil, nil when no viewer is stored. A record that is present but unreadable
// yields an error wrapping ErrCorruptRecord.
func (s *ViewerStore) Load() (*models.Viewer, error) {
	raw, ok, err := s.storage.GetItem(StorageKey)
	if err != nil {
		return nil, fmt.Errorf("load viewer: %w", err)
	}
	if !ok {
		return nil, nil
	}
	v, err := decodeViewer(raw)
	if err != nil {
		return nil, fmt.Errorf("load viewer: %w: %v", ErrCorruptRecord, err)
	}
	return &v, nil
}

// MustLoad is Load that panics on any failure.
func (s *ViewerStore) MustLoad() *models.Viewer {
	v, err := s.Load()
	if err != nil {
		panic(err)
	}
	return v
}

// Store overwrites any previously stored viewer.
func (s *ViewerStore) Store(v models.Viewer) error {
	data, err := EncodeViewer(v)
	if err != nil {
		return err
	}
	if err := s.storage.SetItem(StorageKey, string(data)); err != nil {
		return fmt.Errorf("store viewer: %w", err)
	}
	return nil
}

// Clear removes the stored viewer, if any.
func (s *ViewerStore) Clear() error {
	if err := s.storage.RemoveItem(StorageKey); err != nil {
		return fmt.Errorf("clear viewer: %w", err)
	}
	return nil
}

// EncodeViewer returns the JSON record for v.
func EncodeViewer(v models.Viewer) ([]byte, error) {
	rec := viewerRecord{
		Username: v.Credentials.Username().String(),
		Token:    v.Credentials.AuthToken(),
		Version:  RecordVersion,
	}
	if url, ok := v.Avatar.URL(); ok {
		rec.Image = &url
	}
	return json.Marshal(rec)
}

func decodeViewer(raw string) (models.Viewer, error) {
	var rec viewerRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return models.Viewer{}, err
	}
	if rec.Version == 0 {
		rec.Version = RecordVersion
	}
	if rec.Version != RecordVersion {
		return models.Viewer{}, fmt.Errorf("unsupported record version %d", rec.Version)
	}
	return models.NewViewer(rec.Username, rec.Token, rec.Image)
}
