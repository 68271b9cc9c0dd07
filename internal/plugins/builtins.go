package plugins

import (
	"qsmath/internal/clipboard"
	"qsmath/internal/mathplugin"
	qsPlugin "qsmath/pkg/plugin"
)

// NewWithBuiltins creates a manager with every compiled-in plugin
// registered. Builtins copy to the given clipboard.
func NewWithBuiltins(cb clipboard.Provider) (*Manager, error) {
	m, err := New()
	if err != nil {
		return nil, err
	}

	m.RegisterBuiltin("math", func(id qsPlugin.PluginID) qsPlugin.Searchable {
		return mathplugin.New(id, mathplugin.WithClipboard(cb))
	})

	return m, nil
}
