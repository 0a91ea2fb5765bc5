package render

import (
	"fmt"
	"strings"
)

// rule renders one node. fold renders a child with the full table, so
// rules that want their children rendered (rather than flattened to text)
// call it.
type rule func(n *Node, fold func(*Node) string) string

// rules maps each tag to its rendering. Tags missing from the table fall
// back to concatenating their rendered children.
var rules = map[Tag]rule{
	Text:          textRule,
	Heading:       headingRule,
	Paragraph:     blockRule,
	Bold:          wrapRule("**"),
	Italic:        wrapRule("*"),
	Code:          wrapRule("`"),
	Link:          linkRule,
	UnorderedList: listRule(false),
	OrderedList:   listRule(true),
	LineBreak:     func(*Node, func(*Node) string) string { return "\n" },
	Suppressed:    func(*Node, func(*Node) string) string { return "" },
	Generic:       childrenRule,
	ListItem:      childrenRule,
}

// Fold renders n and its subtree through the rule table.
func Fold(n *Node) string {
	if n == nil {
		return ""
	}
	r, ok := rules[n.Tag]
	if !ok {
		r = childrenRule
	}
	return r(n, Fold)
}

func textRule(n *Node, _ func(*Node) string) string {
	return strings.TrimSpace(n.Text)
}

func childrenRule(n *Node, fold func(*Node) string) string {
	var b strings.Builder
	for _, c := range n.Children {
		b.WriteString(fold(c))
	}
	return b.String()
}

func headingRule(n *Node, _ func(*Node) string) string {
	text := strings.TrimSpace(n.TextContent())
	if text == "" {
		return ""
	}
	level := n.Level
	if level < 1 || level > 6 {
		level = 1
	}
	return "\n\n" + strings.Repeat("#", level) + " " + text + "\n\n"
}

func blockRule(n *Node, _ func(*Node) string) string {
	text := strings.TrimSpace(n.TextContent())
	if text == "" {
		return ""
	}
	return "\n\n" + text + "\n\n"
}

func wrapRule(marker string) rule {
	return func(n *Node, _ func(*Node) string) string {
		text := strings.TrimSpace(n.TextContent())
		if text == "" {
			return ""
		}
		return marker + text + marker
	}
}

func linkRule(n *Node, _ func(*Node) string) string {
	text := strings.TrimSpace(n.TextContent())
	if n.Target != "" && text != "" {
		return "[" + text + "](" + n.Target + ")"
	}
	return text
}

// listRule renders direct ListItem children only. Ordered numbering counts
// every item, including the empty ones that are not printed.
func listRule(ordered bool) rule {
	return func(n *Node, _ func(*Node) string) string {
		var b strings.Builder
		b.WriteString("\n\n")
		i := 0
		for _, c := range n.Children {
			if c.Tag != ListItem {
				continue
			}
			i++
			text := strings.TrimSpace(c.TextContent())
			if text == "" {
				continue
			}
			if ordered {
				b.WriteString(fmt.Sprintf("%d. %s\n", i, text))
			} else {
				b.WriteString("- " + text + "\n")
			}
		}
		b.WriteString("\n")
		return b.String()
	}
}
