package cart

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Manager hands out one Store per session, backed by a JSON file under
// its data directory. A store is loaded from disk on first access and
// reused for the life of the process.
type Manager struct {
	dir string

	mu     sync.Mutex
	stores map[string]*Store
}

func NewManager(dir string) *Manager {
	return &Manager{
		dir:    dir,
		stores: make(map[string]*Store),
	}
}

func (m *Manager) Get(sessionID string) (*Store, error) {
	if sessionID == "" || strings.ContainsAny(sessionID, `/\`) {
		return nil, fmt.Errorf("invalid session id %q", sessionID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[sessionID]; ok {
		return s, nil
	}

	s, err := NewStore(NewFileStorage(filepath.Join(m.dir, sessionID+".json")))
	if err != nil {
		return nil, err
	}
	m.stores[sessionID] = s
	return s, nil
}
