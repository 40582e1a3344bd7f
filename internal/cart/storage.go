package cart

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Storage is the durable home of one session's cart lines. It is written
// on every mutation and read once at session start.
type Storage interface {
	Load() ([]Line, error)
	Save(lines []Line) error
}

// FileStorage keeps the cart as a single JSON file. A missing file is an
// empty cart; a corrupt file is discarded with a warning rather than
// blocking the session.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (f *FileStorage) Load() ([]Line, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cart file: %w", err)
	}

	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		log.Printf("Discarding unreadable cart file %s: %v", f.path, err)
		return nil, nil
	}
	return lines, nil
}

func (f *FileStorage) Save(lines []Line) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create cart directory: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write cart file: %w", err)
	}
	return nil
}

// MemoryStorage is a non-durable Storage for tests.
type MemoryStorage struct {
	lines []Line
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load() ([]Line, error) {
	lines := make([]Line, len(m.lines))
	copy(lines, m.lines)
	return lines, nil
}

func (m *MemoryStorage) Save(lines []Line) error {
	m.lines = make([]Line, len(lines))
	copy(m.lines, lines)
	return nil
}
