// Command math is the Math search plugin packaged for dynamic loading.
//
// Build it with:
//
//	go build -buildmode=plugin -o math.so ./plugins/math
package main

import (
	"qsmath/internal/mathplugin"
	"qsmath/pkg/plugin"
)

// Compile-time check against the exported factory signature
var _ plugin.GetSearchableFunc = GetSearchable

// GetSearchable is the symbol the host looks up after opening math.so.
func GetSearchable(id plugin.PluginID) plugin.Searchable {
	return mathplugin.New(id)
}

func main() {}
