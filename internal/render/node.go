package render

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Tag is the closed set of node kinds the renderer knows about. Anything
// else parses as Generic.
type Tag int

const (
	Generic Tag = iota
	Text
	Heading
	Paragraph
	Bold
	Italic
	Code
	Link
	UnorderedList
	OrderedList
	ListItem
	LineBreak
	Suppressed
)

var tagNames = [...]string{
	Generic:       "generic",
	Text:          "text",
	Heading:       "heading",
	Paragraph:     "paragraph",
	Bold:          "bold",
	Italic:        "italic",
	Code:          "code",
	Link:          "link",
	UnorderedList: "unordered_list",
	OrderedList:   "ordered_list",
	ListItem:      "list_item",
	LineBreak:     "line_break",
	Suppressed:    "suppressed",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "unknown"
}

// Node is an immutable view of one element or text run of a content
// document. Level is set for headings, Target for links, Text for text
// runs. Suppressed nodes keep no children.
type Node struct {
	Tag      Tag
	Level    int
	Name     string
	Text     string
	Target   string
	Children []*Node
}

// TextContent concatenates every text run below n, untrimmed.
func (n *Node) TextContent() string {
	if n == nil {
		return ""
	}
	if n.Tag == Text {
		return n.Text
	}
	var b strings.Builder
	for _, c := range n.Children {
		b.WriteString(c.TextContent())
	}
	return b.String()
}

var elementTags = map[atom.Atom]Tag{
	atom.P:      Paragraph,
	atom.B:      Bold,
	atom.Strong: Bold,
	atom.I:      Italic,
	atom.Em:     Italic,
	atom.Code:   Code,
	atom.A:      Link,
	atom.Ul:     UnorderedList,
	atom.Ol:     OrderedList,
	atom.Li:     ListItem,
	atom.Br:     LineBreak,
	atom.Script: Suppressed,
	atom.Style:  Suppressed,
	atom.Nav:    Suppressed,
	atom.Footer: Suppressed,
	atom.Svg:    Suppressed,
}

var headingLevels = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3, atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

// Parse reads an (X)HTML content document and returns the tree rooted at
// its body element, or at the document itself when there is no body.
func Parse(data string) (*Node, error) {
	doc, err := html.Parse(strings.NewReader(data))
	if err != nil {
		return nil, err
	}
	root := findBody(doc)
	if root == nil {
		root = doc
	}
	n := convert(root)
	if n == nil {
		return &Node{Tag: Generic}, nil
	}
	return n, nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

func convert(h *html.Node) *Node {
	switch h.Type {
	case html.TextNode:
		return &Node{Tag: Text, Text: h.Data}
	case html.ElementNode, html.DocumentNode:
	default:
		// comments and doctypes carry no content
		return nil
	}

	n := &Node{Tag: Generic, Name: strings.ToLower(h.Data)}
	if h.Type == html.ElementNode {
		if lvl, ok := headingLevels[h.DataAtom]; ok {
			n.Tag = Heading
			n.Level = lvl
		} else if tag, ok := elementTags[h.DataAtom]; ok {
			n.Tag = tag
		}
	}
	if n.Tag == Suppressed {
		return n
	}
	if n.Tag == Link {
		n.Target = attr(h, "href")
	}
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		if child := convert(c); child != nil {
			n.Children = append(n.Children, child)
		}
	}
	return n
}

func attr(h *html.Node, key string) string {
	for _, a := range h.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
