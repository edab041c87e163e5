package render

import (
	"html"
	"io"
	"sort"
	"strings"
)

// Node is one element of the projected UI tree.
type Node struct {
	Tag      string
	Attrs    map[string]string
	Text     string
	Children []*Node
}

// NewEl creates an element node.
func NewEl(tag string) *Node {
	return &Node{Tag: tag, Attrs: map[string]string{}}
}

// Set sets an attribute and returns the node for chaining.
func (n *Node) Set(key, value string) *Node {
	n.Attrs[key] = value
	return n
}

// AddClass appends a class token, skipping empties and duplicates.
func (n *Node) AddClass(class string) *Node {
	if class == "" {
		return n
	}
	existing := strings.Fields(n.Attrs["class"])
	for _, c := range existing {
		if c == class {
			return n
		}
	}
	existing = append(existing, class)
	n.Attrs["class"] = strings.Join(existing, " ")
	return n
}

// RemoveClass drops a class token if present.
func (n *Node) RemoveClass(class string) *Node {
	existing := strings.Fields(n.Attrs["class"])
	kept := existing[:0]
	for _, c := range existing {
		if c != class {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		delete(n.Attrs, "class")
		return n
	}
	n.Attrs["class"] = strings.Join(kept, " ")
	return n
}

// Del removes an attribute.
func (n *Node) Del(key string) *Node {
	delete(n.Attrs, key)
	return n
}

// SetText sets the node's text content.
func (n *Node) SetText(text string) *Node {
	n.Text = text
	return n
}

// Append adds child nodes.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Find returns the first node (depth-first, self included) matching pred.
func (n *Node) Find(pred func(*Node) bool) *Node {
	if pred(n) {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(pred); found != nil {
			return found
		}
	}
	return nil
}

// FindByAttr returns the first node with the given attribute value.
func (n *Node) FindByAttr(key, value string) *Node {
	return n.Find(func(c *Node) bool { return c.Attrs[key] == value })
}

// RemoveChild removes a direct child, returning true if found.
func (n *Node) RemoveChild(child *Node) bool {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			return true
		}
	}
	return false
}

// voidTags render without a closing tag.
var voidTags = map[string]bool{"input": true, "br": true, "hr": true, "img": true}

// WriteHTML serializes the tree. Attributes are written in sorted order so
// output is deterministic and diffable.
func (n *Node) WriteHTML(w io.Writer) error {
	var b strings.Builder
	n.writeHTML(&b, 0)
	_, err := io.WriteString(w, b.String())
	return err
}

// HTML returns the serialized tree as a string.
func (n *Node) HTML() string {
	var b strings.Builder
	n.writeHTML(&b, 0)
	return b.String()
}

func (n *Node) writeHTML(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	b.WriteString(indent)
	b.WriteByte('<')
	b.WriteString(n.Tag)

	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(n.Attrs[k]))
		b.WriteByte('"')
	}
	b.WriteByte('>')

	if voidTags[n.Tag] {
		b.WriteByte('\n')
		return
	}

	if len(n.Children) == 0 {
		b.WriteString(html.EscapeString(n.Text))
	} else {
		b.WriteByte('\n')
		for _, c := range n.Children {
			c.writeHTML(b, depth+1)
		}
		b.WriteString(indent)
	}
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteString(">\n")
}
