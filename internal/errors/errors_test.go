package errors

import (
	std "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrNotFound, "category 7 not found")
	assert.Equal(t, "[NOT_FOUND] category 7 not found", err.Error())

	wrapped := Wrap(ErrIO, "failed to copy payload", std.New("disk full"))
	assert.Equal(t, "[IO_ERROR] failed to copy payload: disk full", wrapped.Error())
}

func TestNewf(t *testing.T) {
	err := Newf(ErrInvalid, "invalid %s: %q", "id", "abc")
	assert.Equal(t, ErrInvalid, err.Code)
	assert.Contains(t, err.Message, `invalid id: "abc"`)
}

func TestUnwrap(t *testing.T) {
	cause := std.New("root cause")
	err := Wrap(ErrDatabase, "query failed", cause)
	assert.True(t, std.Is(err, cause))
}

func TestIsWalksWrapChain(t *testing.T) {
	base := New(ErrCorruptArchive, "manifest has no version")
	assert.True(t, Is(base, ErrCorruptArchive))
	assert.False(t, Is(base, ErrNotFound))

	// A code survives fmt.Errorf %w wrapping.
	wrapped := fmt.Errorf("import failed: %w", base)
	assert.True(t, Is(wrapped, ErrCorruptArchive))

	// The outermost code wins when codes nest.
	nested := Wrap(ErrIO, "copy failed", base)
	assert.True(t, Is(nested, ErrIO))
	assert.False(t, Is(nested, ErrCorruptArchive))

	assert.False(t, Is(nil, ErrIO))
	assert.False(t, Is(std.New("plain"), ErrIO))
}
