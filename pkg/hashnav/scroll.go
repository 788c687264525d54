package hashnav

import "sync"

// scrollMemory maps route paths to their last captured scroll records.
// At most one record per path; a new capture overwrites the old one.
// The table is unbounded and cleared only on explicit request or teardown.
type scrollMemory struct {
	mu      sync.Mutex
	records map[string]*Record
}

func newScrollMemory() *scrollMemory {
	return &scrollMemory{records: make(map[string]*Record)}
}

// put stores rec for path, replacing any prior record.
func (m *scrollMemory) put(path string, rec *Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[path] = rec
}

// get returns the record for path, if any. The read is non-destructive.
func (m *scrollMemory) get(path string) (*Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[path]
	return rec, ok
}

// clear empties the table. Restorations already scheduled keep their
// record; they captured the pointer before the clear.
func (m *scrollMemory) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]*Record)
}

// size returns the number of stored records.
func (m *scrollMemory) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
