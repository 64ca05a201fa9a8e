package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDMap(t *testing.T) {
	m := NewIDMap()
	assert.Equal(t, 0, m.Len())

	_, ok := m.Get(1)
	assert.False(t, ok)

	m.Put(1, 42)
	m.Put(2, 7)

	newID, ok := m.Get(1)
	assert.True(t, ok)
	assert.Equal(t, int64(42), newID)

	oldID, ok := m.Source(7)
	assert.True(t, ok)
	assert.Equal(t, int64(2), oldID)

	_, ok = m.Source(99)
	assert.False(t, ok)
	assert.Equal(t, 2, m.Len())
}
