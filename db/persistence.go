package db

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"

	"similarity-lab/config"
)

/*
PersistenceManager handles saving and loading collections.

Each collection is a directory under basePath holding config.json and
vectors.json.
*/
type PersistenceManager struct {
	basePath string
	mu       sync.RWMutex
}

/*
NewPersistenceManager creates a new persistence manager
*/
func NewPersistenceManager(basePath string) *PersistenceManager {
	return &PersistenceManager{
		basePath: basePath,
	}
}

/*
SaveCollection writes a collection to disk. Files are written to a temporary
name first and renamed so a crash never leaves a half-written collection.
*/
func (p *PersistenceManager) SaveCollection(col *Collection) error {
	if err := ValidateName(col.Name); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	dir := filepath.Join(p.basePath, col.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	if err := writeJSON(filepath.Join(dir, "config.json"), col.Config); err != nil {
		return fmt.Errorf("save %s config: %w", col.Name, err)
	}
	if err := writeJSON(filepath.Join(dir, "vectors.json"), col.Vectors()); err != nil {
		return fmt.Errorf("save %s vectors: %w", col.Name, err)
	}
	return nil
}

/*
LoadCollection reads a collection from disk and rebuilds its HNSW graph
*/
func (p *PersistenceManager) LoadCollection(name string) (*Collection, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	dir := filepath.Join(p.basePath, name)

	var cc config.CollectionConfig
	if err := readJSON(filepath.Join(dir, "config.json"), &cc); err != nil {
		return nil, fmt.Errorf("load %s config: %w", name, err)
	}

	var vectors []Vector
	if err := readJSON(filepath.Join(dir, "vectors.json"), &vectors); err != nil {
		return nil, fmt.Errorf("load %s vectors: %w", name, err)
	}

	col, err := NewCollection(name, cc)
	if err != nil {
		return nil, err
	}
	for _, v := range vectors {
		if err := col.Add(v); err != nil {
			return nil, fmt.Errorf("load %s vector %s: %w", name, v.ID, err)
		}
	}
	log.Debugf("loaded collection %s with %d vectors", name, col.Len())
	return col, nil
}

/*
SaveAll saves every collection of the manager
*/
func (p *PersistenceManager) SaveAll(m *Manager) error {
	for _, name := range m.ListCollections() {
		col, err := m.GetCollection(name)
		if err != nil {
			// deleted concurrently
			continue
		}
		if err := p.SaveCollection(col); err != nil {
			return err
		}
	}
	return nil
}

/*
LoadAll restores every saved collection into the manager. A missing data
directory is not an error.
*/
func (p *PersistenceManager) LoadAll(m *Manager) (int, error) {
	names, err := p.ListCollections()
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	for _, name := range names {
		col, err := p.LoadCollection(name)
		if err != nil {
			return 0, err
		}
		m.Restore(col)
	}
	return len(names), nil
}

/*
DeleteCollection removes a collection from disk
*/
func (p *PersistenceManager) DeleteCollection(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return os.RemoveAll(filepath.Join(p.basePath, name))
}

/*
ListCollections returns the names of all saved collections
*/
func (p *PersistenceManager) ListCollections() ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries, err := os.ReadDir(p.basePath)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func writeJSON(path string, v interface{}) error {
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(file).Encode(v); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readJSON(path string, v interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return json.NewDecoder(file).Decode(v)
}
