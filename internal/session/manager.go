package session

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Manager reparte sesiones a los flujos de UI. Equivale al "una sesión por
// pestaña" de la aplicación original: cada flujo crea la suya y opera solo
// sobre ella.
type Manager struct {
	store  Store
	sender UpdateSender
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	seq      *atomic.Int64
}

// NewManager crea el registro de sesiones.
func NewManager(store Store, sender UpdateSender, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.L()
	}
	return &Manager{
		store:    store,
		sender:   sender,
		logger:   logger,
		sessions: make(map[string]*Session),
		seq:      atomic.NewInt64(0),
	}
}

// Create abre una sesión nueva y devuelve su id.
func (m *Manager) Create() (string, *Session) {
	id := fmt.Sprintf("s-%d-%d-%d", time.Now().UnixNano(), os.Getpid(), m.seq.Inc())
	sess := New(m.store, m.sender, m.logger)

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	m.logger.Info("sesión creada", zap.String("session_id", id))
	return id, sess
}

// Get devuelve la sesión con ese id, si existe.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Remove descarta la sesión. Idempotente.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len devuelve el número de sesiones vivas.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
