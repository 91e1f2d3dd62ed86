package mock

import (
	"context"
	"sync"

	"github.com/gamehub/gamehub/internal/database"
)

var _ database.DB = (*MockDB)(nil)

// MockDB is a mock implementation of database.DB for testing.
type MockDB struct {
	mu    sync.RWMutex
	prefs map[string]database.Preferences

	// Error simulation
	GetPreferencesError    error
	SavePreferencesError   error
	DeletePreferencesError error
}

// NewMockDB creates a new MockDB instance.
func NewMockDB() *MockDB {
	return &MockDB{
		prefs: make(map[string]database.Preferences),
	}
}

func (m *MockDB) GetPreferences(_ context.Context, userID string) (*database.Preferences, error) {
	if m.GetPreferencesError != nil {
		return nil, m.GetPreferencesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.prefs[userID]; ok {
		return &p, nil
	}
	return &database.Preferences{UserID: userID}, nil
}

func (m *MockDB) SavePreferences(_ context.Context, prefs *database.Preferences) error {
	if m.SavePreferencesError != nil {
		return m.SavePreferencesError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs[prefs.UserID] = *prefs
	return nil
}

func (m *MockDB) DeletePreferences(_ context.Context, userID string) error {
	if m.DeletePreferencesError != nil {
		return m.DeletePreferencesError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.prefs, userID)
	return nil
}

func (m *MockDB) Close() error { return nil }
