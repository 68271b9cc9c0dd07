package clipboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryWritesAndReleases(t *testing.T) {
	m := &Memory{}

	h, err := m.Open()
	require.NoError(t, err)
	assert.Equal(t, 1, m.OpenHandles())

	require.NoError(t, h.SetContents("4"))
	require.NoError(t, h.Close())

	assert.Equal(t, "4", m.Contents())
	assert.Equal(t, 0, m.OpenHandles())
}

func TestMemoryOpenFailure(t *testing.T) {
	m := &Memory{OpenErr: ErrUnavailable}

	h, err := m.Open()
	assert.Nil(t, h)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 0, m.OpenHandles())
}

func TestMemoryWriteFailure(t *testing.T) {
	writeErr := errors.New("denied")
	m := &Memory{WriteErr: writeErr}

	h, err := m.Open()
	require.NoError(t, err)
	assert.ErrorIs(t, h.SetContents("4"), writeErr)
	require.NoError(t, h.Close())

	assert.Empty(t, m.Contents())
}

func TestClosedHandleRejectsWrites(t *testing.T) {
	m := &Memory{}
	h, err := m.Open()
	require.NoError(t, err)
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	assert.Error(t, h.SetContents("x"))
	assert.Equal(t, 0, m.OpenHandles())
}

func TestNew(t *testing.T) {
	tests := []struct {
		backend     string
		expectError bool
	}{
		{"", false},
		{"system", false},
		{"memory", false},
		{"carrier-pigeon", true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			p, err := New(tt.backend)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, p)
		})
	}
}
