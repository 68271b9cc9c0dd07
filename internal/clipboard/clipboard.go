// Package clipboard provides scoped access to a clipboard. A Handle is
// opened for a single operation and closed afterwards; providers decide
// what opening and closing mean for their backend.
package clipboard

import (
	"errors"
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

// ErrUnavailable is returned by Open when no clipboard can be acquired.
var ErrUnavailable = errors.New("clipboard unavailable")

// Provider opens clipboard handles.
type Provider interface {
	Open() (Handle, error)
}

// Handle is an acquired clipboard. Callers must Close it.
type Handle interface {
	SetContents(s string) error
	Close() error
}

// System is the platform clipboard (pbcopy, xclip/xsel/wl-copy, or the
// Windows clipboard API).
type System struct{}

func (System) Open() (Handle, error) {
	if clipboard.Unsupported {
		return nil, fmt.Errorf("%w: no clipboard utility found", ErrUnavailable)
	}
	return systemHandle{}, nil
}

type systemHandle struct{}

func (systemHandle) SetContents(s string) error {
	return clipboard.WriteAll(s)
}

func (systemHandle) Close() error {
	return nil
}

// Memory is an in-process clipboard for headless hosts and tests.
// OpenErr and WriteErr, when set, make the corresponding step fail.
type Memory struct {
	mu       sync.Mutex
	contents string
	open     int

	OpenErr  error
	WriteErr error
}

func (m *Memory) Open() (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	m.open++
	return &memoryHandle{m: m}, nil
}

// Contents returns what was last written.
func (m *Memory) Contents() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contents
}

// OpenHandles reports how many handles have been opened but not closed.
func (m *Memory) OpenHandles() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

type memoryHandle struct {
	m      *Memory
	closed bool
}

func (h *memoryHandle) SetContents(s string) error {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()

	if h.closed {
		return errors.New("clipboard handle closed")
	}
	if h.m.WriteErr != nil {
		return h.m.WriteErr
	}
	h.m.contents = s
	return nil
}

func (h *memoryHandle) Close() error {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()

	if !h.closed {
		h.closed = true
		h.m.open--
	}
	return nil
}

// New returns the provider for a configured backend name.
func New(backend string) (Provider, error) {
	switch backend {
	case "", "system":
		return System{}, nil
	case "memory":
		return &Memory{}, nil
	default:
		return nil, fmt.Errorf("unknown clipboard backend %q", backend)
	}
}
