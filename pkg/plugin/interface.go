package plugin

import (
	"encoding/json"
)

// Symbol is the name of the factory function every plugin must export.
// The host looks it up after opening the plugin file.
const Symbol = "GetSearchable"

// GetSearchableFunc is the signature of the exported factory. The host
// supplies the plugin's identity token and receives a ready Searchable.
type GetSearchableFunc = func(id PluginID) Searchable

// Searchable defines the interface that all search plugins must implement.
type Searchable interface {
	// Search returns the results this plugin contributes for query.
	// It never fails; a query the plugin does not understand yields no results.
	Search(query string) []SearchResult

	// Name returns the plugin's display name.
	Name() string

	// ColoredName returns the display name with a color per character.
	ColoredName() []ColoredChar

	// Execute performs the plugin's action for a result the user selected.
	// It is fire-and-forget: failures are handled by the plugin.
	Execute(result SearchResult)

	// PluginID returns the identity token the plugin was constructed with.
	PluginID() PluginID
}

// PluginID is an opaque identity token assigned by the host.
type PluginID struct {
	value string
}

// NewPluginID wraps a host-chosen value as an identity token.
func NewPluginID(value string) PluginID {
	return PluginID{value: value}
}

func (id PluginID) String() string {
	return id.value
}

// ColoredChar is a single character of a plugin name and its display color.
// Color is packed RGBA; interpretation is up to the host.
type ColoredChar struct {
	Char  rune
	Color uint32
}

// ColoredCharsFromString colors every character of s with the same color.
func ColoredCharsFromString(s string, color uint32) []ColoredChar {
	chars := make([]ColoredChar, 0, len(s))
	for _, r := range s {
		chars = append(chars, ColoredChar{Char: r, Color: color})
	}
	return chars
}

// SearchResult is a single selectable search result. It is immutable once
// built; WithExtraInfo returns a copy.
type SearchResult struct {
	title     string
	extraInfo string
}

// NewSearchResult creates a result with the given title and no extra info.
func NewSearchResult(title string) SearchResult {
	return SearchResult{title: title}
}

// WithExtraInfo returns a copy of r carrying the given payload.
func (r SearchResult) WithExtraInfo(extra string) SearchResult {
	r.extraInfo = extra
	return r
}

// Title is the human-readable line shown to the user.
func (r SearchResult) Title() string {
	return r.title
}

// ExtraInfo is the plugin-defined payload handed back on Execute.
func (r SearchResult) ExtraInfo() string {
	return r.extraInfo
}

type searchResultJSON struct {
	Title     string `json:"title"`
	ExtraInfo string `json:"extra_info"`
}

func (r SearchResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(searchResultJSON{Title: r.title, ExtraInfo: r.extraInfo})
}

func (r *SearchResult) UnmarshalJSON(data []byte) error {
	var v searchResultJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	r.title = v.Title
	r.extraInfo = v.ExtraInfo
	return nil
}
