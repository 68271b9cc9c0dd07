package render

import (
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"qsmath/internal/plugins"
	"qsmath/pkg/plugin"
)

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// ColoredNameNode renders a colored plugin name as one span per character.
func ColoredNameNode(chars []plugin.ColoredChar) *html.Node {
	heading := element(atom.H2, html.Attribute{Key: "class", Val: "plugin-name"})
	for _, c := range chars {
		span := element(atom.Span, html.Attribute{Key: "style", Val: "color:" + ColorHex(c.Color)})
		span.AppendChild(text(string(c.Char)))
		heading.AppendChild(span)
	}
	return heading
}

func renderHTML(w io.Writer, groups []plugins.Group) error {
	root := element(atom.Div, html.Attribute{Key: "class", Val: "search-results"})

	for _, g := range groups {
		section := element(atom.Section, html.Attribute{Key: "data-plugin-id", Val: g.PluginID.String()})
		section.AppendChild(ColoredNameNode(g.ColoredName))

		list := element(atom.Ul)
		for _, r := range g.Results {
			li := element(atom.Li, html.Attribute{Key: "data-value", Val: r.ExtraInfo()})
			li.AppendChild(text(r.Title()))
			list.AppendChild(li)
		}
		section.AppendChild(list)
		root.AppendChild(section)
	}

	return html.Render(w, root)
}
