package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// fileStoreDocument is the on-disk shape of a FileConfigStore's TOML file.
type fileStoreDocument struct {
	ChairmanModel   string   `toml:"chairman_model"`
	CouncilModels   []string `toml:"council_models"`
	EncryptedAPIKey string   `toml:"encrypted_api_key"`
	APIBaseURL      string   `toml:"api_base_url"`
}

// FileConfigStore is a ConfigStore backed by a single TOML file, sitting
// between environment variables and the built-in defaults in the
// resolution order. It is the on-disk override file a local
// or single-tenant deployment would use instead of a database-backed
// preferences service.
type FileConfigStore struct {
	path string
	mu   sync.Mutex
}

// NewFileConfigStore returns a store reading/writing path. The file need
// not exist yet — reads return zero values until the first write.
func NewFileConfigStore(path string) *FileConfigStore {
	return &FileConfigStore{path: path}
}

func (f *FileConfigStore) read() (fileStoreDocument, error) {
	var doc fileStoreDocument
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("read config file %s: %w", f.path, err)
	}
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return doc, fmt.Errorf("decode config file %s: %w", f.path, err)
	}
	return doc, nil
}

func (f *FileConfigStore) write(doc fileStoreDocument) error {
	// The temp file must live next to the target so the rename below
	// never crosses a filesystem boundary.
	tmp, err := os.CreateTemp(filepath.Dir(f.path), "concilium-config-*.toml")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("encode config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace config file %s: %w", f.path, err)
	}
	return nil
}

func (f *FileConfigStore) GetCouncilModels(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	return doc.CouncilModels, err
}

func (f *FileConfigStore) SetCouncilModels(_ context.Context, models []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return err
	}
	doc.CouncilModels = models
	return f.write(doc)
}

func (f *FileConfigStore) GetChairmanModel(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	return doc.ChairmanModel, err
}

func (f *FileConfigStore) SetChairmanModel(_ context.Context, model string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return err
	}
	doc.ChairmanModel = model
	return f.write(doc)
}

func (f *FileConfigStore) GetEncryptedAPIKey(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	return doc.EncryptedAPIKey, err
}

func (f *FileConfigStore) SetEncryptedAPIKey(_ context.Context, encrypted string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return err
	}
	doc.EncryptedAPIKey = encrypted
	return f.write(doc)
}

func (f *FileConfigStore) GetAPIBaseURL(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	return doc.APIBaseURL, err
}

var _ ConfigStore = (*FileConfigStore)(nil)
