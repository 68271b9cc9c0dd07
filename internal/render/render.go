// Package render writes search results in the formats the host supports:
// plain text for terminals, JSON for API clients, Alfred script-filter XML
// and an HTML fragment that shows each plugin's colored name.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"qsmath/internal/plugins"
)

type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatAlfred Format = "alfred"
	FormatHTML   Format = "html"
)

var validFormats = []Format{FormatText, FormatJSON, FormatAlfred, FormatHTML}

// ParseFormat validates a format name. The empty string selects text.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatText, nil
	}
	f := Format(strings.ToLower(s))
	if !slices.Contains(validFormats, f) {
		return "", fmt.Errorf("invalid output format: %s (valid: %v)", s, validFormats)
	}
	return f, nil
}

// ContentType is the MIME type for a format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatAlfred:
		return "application/xml; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Item is one result flattened with the plugin that produced it.
type Item struct {
	PluginID  string `json:"plugin_id"`
	Plugin    string `json:"plugin"`
	Title     string `json:"title"`
	ExtraInfo string `json:"extra_info"`
}

// Items flattens groups in plugin order, keeping each plugin's result order.
func Items(groups []plugins.Group) []Item {
	items := []Item{}
	for _, g := range groups {
		for _, r := range g.Results {
			items = append(items, Item{
				PluginID:  g.PluginID.String(),
				Plugin:    g.Name,
				Title:     r.Title(),
				ExtraInfo: r.ExtraInfo(),
			})
		}
	}
	return items
}

func Render(w io.Writer, format Format, groups []plugins.Group) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, groups)
	case FormatAlfred:
		return renderAlfred(w, groups)
	case FormatHTML:
		return renderHTML(w, groups)
	default:
		return renderText(w, groups)
	}
}

func renderText(w io.Writer, groups []plugins.Group) error {
	for i, item := range Items(groups) {
		if _, err := fmt.Fprintf(w, "%d\t[%s] %s\n", i, item.Plugin, item.Title); err != nil {
			return err
		}
	}
	return nil
}

func renderJSON(w io.Writer, groups []plugins.Group) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"items": Items(groups)})
}

// ColorHex formats a packed RGBA color as a CSS hex color.
func ColorHex(c uint32) string {
	return fmt.Sprintf("#%08x", c)
}
