// Package mathplugin is the Math search plugin: queries that parse as
// arithmetic expressions are answered with their value, and selecting an
// answer copies it to the clipboard.
package mathplugin

import (
	"errors"
	"log/slog"
	"slices"
	"strings"

	"qsmath/internal/clipboard"
	"qsmath/internal/mathexpr"
	"qsmath/pkg/plugin"
)

const (
	// Name is the plugin's display name.
	Name = "Math"

	// Color is the display color applied to every character of Name.
	Color uint32 = 0x16BE2FFF
)

// Math implements plugin.Searchable.
type Math struct {
	id        plugin.PluginID
	clipboard clipboard.Provider
	logger    *slog.Logger
}

var _ plugin.Searchable = (*Math)(nil)

// Option configures a Math plugin.
type Option func(*Math)

// WithClipboard sets the clipboard results are copied to.
func WithClipboard(p clipboard.Provider) Option {
	return func(m *Math) {
		m.clipboard = p
	}
}

// WithLogger sets the logger for evaluation and clipboard diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(m *Math) {
		m.logger = l
	}
}

// New creates the plugin with the host-assigned id. Without options it
// uses the system clipboard and slog.Default().
func New(id plugin.PluginID, opts ...Option) *Math {
	m := &Math{
		id:        id,
		clipboard: clipboard.System{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.logger = m.logger.With("plugin", Name)
	return m
}

// GetSearchable matches plugin.GetSearchableFunc.
func GetSearchable(id plugin.PluginID) plugin.Searchable {
	return New(id)
}

// Search returns one result per distinct answer, sorted by title.
// Input that does not parse produces no results and is not logged.
func (m *Math) Search(query string) []plugin.SearchResult {
	var results []plugin.SearchResult

	term, err := mathexpr.Parse(query)
	if err != nil {
		return results
	}

	answer, err := term.Eval()
	if err != nil {
		var evalErr *mathexpr.EvalError
		if errors.As(err, &evalErr) {
			m.logger.Error("Error evaluating expression", "expression", term.String(), "op", evalErr.Op, "error", evalErr.Err)
		} else {
			m.logger.Error("Error evaluating expression", "expression", term.String(), "error", err)
		}
		return results
	}

	expr := term.String()
	for _, v := range answer.Values() {
		results = append(results, result(expr, v))
	}

	slices.SortFunc(results, func(a, b plugin.SearchResult) int {
		return strings.Compare(a.Title(), b.Title())
	})
	return slices.CompactFunc(results, func(a, b plugin.SearchResult) bool {
		return a.Title() == b.Title()
	})
}

func result(expr string, value float64) plugin.SearchResult {
	v := mathexpr.FormatNumber(value)
	return plugin.NewSearchResult(expr + " = " + v).WithExtraInfo(v)
}

func (m *Math) Name() string {
	return Name
}

func (m *Math) ColoredName() []plugin.ColoredChar {
	return plugin.ColoredCharsFromString(Name, Color)
}

// Execute copies the result's value to the clipboard. Failures are logged.
func (m *Math) Execute(r plugin.SearchResult) {
	s := r.ExtraInfo()

	h, err := m.clipboard.Open()
	if err != nil {
		m.logger.Error("Failed to copy to clipboard", "value", s, "error", err)
		return
	}
	defer func() {
		if err := h.Close(); err != nil {
			m.logger.Warn("Failed to release clipboard", "error", err)
		}
	}()

	if err := h.SetContents(s); err != nil {
		m.logger.Error("Failed to copy to clipboard", "value", s, "error", err)
		return
	}
	m.logger.Info("Copied to clipboard", "value", s)
}

func (m *Math) PluginID() plugin.PluginID {
	return m.id
}
