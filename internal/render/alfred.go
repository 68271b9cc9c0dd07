package render

import (
	"io"

	"github.com/beevik/etree"

	"qsmath/internal/plugins"
)

// renderAlfred writes an Alfred script-filter XML document. Each result's
// extra info becomes the item's arg, which Alfred passes to the next action.
func renderAlfred(w io.Writer, groups []plugins.Group) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	items := doc.CreateElement("items")
	for _, item := range Items(groups) {
		el := items.CreateElement("item")
		el.CreateAttr("uid", item.PluginID+":"+item.Title)
		el.CreateAttr("arg", item.ExtraInfo)
		el.CreateAttr("valid", "yes")
		el.CreateElement("title").SetText(item.Title)
		el.CreateElement("subtitle").SetText(item.Plugin)
	}

	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}
