package log

import "sync"

// MemoryLog keeps entries in insertion order.
type MemoryLog struct {
	mu      sync.RWMutex
	entries []LogEntry
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

func (m *MemoryLog) Log(entry LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, entry)

	return nil
}

// GetLogs returns a copy of the stored entries.
func (m *MemoryLog) GetLogs() ([]LogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]LogEntry, len(m.entries))
	copy(out, m.entries)

	return out, nil
}
