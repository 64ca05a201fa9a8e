package archive

// IDMap tracks surrogate-key remapping between a source archive and the
// target store during one import run. A missing mapping is a named condition
// (Get's second return), not a zero value smuggled through the pipeline.
type IDMap struct {
	fwd map[int64]int64
	rev map[int64]int64
}

// NewIDMap creates an empty IDMap.
func NewIDMap() *IDMap {
	return &IDMap{
		fwd: make(map[int64]int64),
		rev: make(map[int64]int64),
	}
}

// Put records that the archive's oldID resolved to newID in the target store.
func (m *IDMap) Put(oldID, newID int64) {
	m.fwd[oldID] = newID
	m.rev[newID] = oldID
}

// Get returns the target-store id for an archive id.
func (m *IDMap) Get(oldID int64) (int64, bool) {
	id, ok := m.fwd[oldID]
	return id, ok
}

// Source returns the archive id that resolved to a target-store id.
func (m *IDMap) Source(newID int64) (int64, bool) {
	id, ok := m.rev[newID]
	return id, ok
}

// Len returns the number of recorded mappings.
func (m *IDMap) Len() int {
	return len(m.fwd)
}
