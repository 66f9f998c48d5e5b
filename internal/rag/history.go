package rag

import (
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// History is a single conversation's append-only log of completed
// pipeline rounds. It is safe for concurrent use; per spec.md's
// concurrency model, a given conversation is expected to serialize its
// own inquiries, but GetAll defends against a front-end that reads
// history while a round is still appending.
type History struct {
	mu      sync.RWMutex
	entries []HistoryEntry
}

// NewHistory returns an empty History.
func NewHistory() *History {
	return &History{}
}

// Add appends one completed round. An entry is appended only after
// Respond completes; no partial entry is ever stored.
func (h *History) Add(entry HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry)
}

// GetAll returns a defensive copy of every entry recorded so far.
func (h *History) GetAll() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Reset clears the conversation, as triggered by the /reset command.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}

// Save snapshots the history to a JSON file. This is an ambient
// convenience for local/dev runs, not a persistence feature: callers
// that never set GAMAL_HISTORY_DIR never call this.
func (h *History) Save(path string) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data, err := json.MarshalIndent(h.entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load restores a history snapshot written by Save. A missing file is
// not an error: the conversation simply starts empty.
func (h *History) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var entries []HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		// A corrupt snapshot degrades to an empty history rather than
		// failing startup.
		return nil
	}
	h.mu.Lock()
	h.entries = entries
	h.mu.Unlock()
	return nil
}

// Manager isolates multiple conversations by an opaque id (a chat id
// on Telegram, a fixed key for the single-conversation front-ends).
// Grounded on the teacher's SessionManager: same lazy-create-under-
// lock shape, generalized from disk-backed sessions to an optional
// store directory.
type Manager struct {
	mu       sync.RWMutex
	byID     map[string]*History
	storeDir string // empty disables snapshotting
}

// NewManager creates a Manager. storeDir may be empty to disable
// snapshot persistence entirely.
func NewManager(storeDir string) *Manager {
	if storeDir != "" {
		_ = os.MkdirAll(storeDir, 0755)
	}
	return &Manager{byID: make(map[string]*History), storeDir: storeDir}
}

// Get returns the History for id, creating (and, if a store directory
// is configured, loading) it on first access.
func (m *Manager) Get(id string) *History {
	m.mu.RLock()
	h, ok := m.byID[id]
	m.mu.RUnlock()
	if ok {
		return h
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok = m.byID[id]; ok {
		return h
	}

	h = NewHistory()
	if m.storeDir != "" {
		_ = h.Load(m.snapshotPath(id))
	}
	m.byID[id] = h
	return h
}

// Save snapshots one conversation's history, a no-op if persistence is
// disabled.
func (m *Manager) Save(id string) error {
	if m.storeDir == "" {
		return nil
	}
	return m.Get(id).Save(m.snapshotPath(id))
}

func (m *Manager) snapshotPath(id string) string {
	safe := make([]byte, 0, len(id))
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
			safe = append(safe, c)
		default:
			safe = append(safe, '_')
		}
	}
	return m.storeDir + "/history_" + string(safe) + ".json"
}
