package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/repolens/cli/entity"
)

const (
	maxKeyPadding  = 50
	paragraphWidth = 60
	minTruncate    = 5
)

func Color(w io.Writer) aurora.Aurora {
	if f, ok := w.(*os.File); ok {
		return aurora.NewAurora(IsTerminal(f))
	}
	return aurora.NewAurora(false)
}

func Bold(text string) string {
	return Color(os.Stdout).Bold(text).String()
}

func GreenText(text string) string {
	return Color(os.Stdout).Green(text).String()
}

func RedText(text string) string {
	return Color(os.Stdout).Red(text).String()
}

func YellowText(text string) string {
	return Color(os.Stdout).Yellow(text).String()
}

func BlueText(text string) string {
	return Color(os.Stdout).Blue(text).String()
}

func MagentaText(text string) string {
	return Color(os.Stdout).Magenta(text).String()
}

func GrayText(text string) string {
	return Color(os.Stdout).Gray(12, text).String()
}

// KeyValues prints one "key: value" line per entry, sorted by key, with
// values aligned unless a key is unreasonably long.
func KeyValues(items map[string]string) string {
	if len(items) == 0 {
		return ""
	}
	keys := make([]string, 0, len(items))
	width := 0
	for k := range items {
		keys = append(keys, k)
		if len(k) > width {
			width = len(k)
		}
	}
	sort.Strings(keys)
	if width > maxKeyPadding {
		width = maxKeyPadding
	}

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%-*s %s\n", width+1, k+":", items[k])
	}
	return b.String()
}

func UnorderedList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "- %s\n", item)
	}
	return b.String()
}

func OrderedList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d) %s\n", i+1, item)
	}
	return b.String()
}

// Truncate shortens s to n characters by cutting out its middle.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n < minTruncate {
		n = minTruncate
	}
	keep := n - 3
	head := (keep + 1) / 2
	tail := keep / 2
	return s[:head] + "..." + s[len(s)-tail:]
}

// Paragraph wraps text at word boundaries.
func Paragraph(text string) string {
	var b strings.Builder
	line := 0
	for _, word := range strings.Fields(text) {
		switch {
		case line == 0:
		case line+1+len(word) > paragraphWidth:
			b.WriteString("\n")
			line = 0
		default:
			b.WriteString(" ")
			line++
		}
		b.WriteString(word)
		line += len(word)
	}
	if line > 0 {
		b.WriteString("\n")
	}
	return b.String()
}

func PrefixLines(text, prefix string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		b.WriteString(prefix + line + "\n")
	}
	return b.String()
}

// EntryLabel renders a tree node the way listings show it: directories end
// in a slash.
func EntryLabel(n *entity.TreeNode) string {
	if n.IsDir() {
		return n.Name + "/"
	}
	return n.Name
}

// Tree renders the loaded part of a repository tree with box-drawing guides.
func Tree(root *entity.TreeNode) string {
	if root == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(root.Name + "/\n")
	writeTree(&b, root.Children, "")
	return b.String()
}

func writeTree(b *strings.Builder, nodes []*entity.TreeNode, indent string) {
	for i, n := range nodes {
		branch, next := "├── ", "│   "
		if i == len(nodes)-1 {
			branch, next = "└── ", "    "
		}
		b.WriteString(indent + branch + EntryLabel(n) + "\n")
		if n.ChildrenLoaded {
			writeTree(b, n.Children, indent+next)
		}
	}
}

// RepositoryLine is the one-line summary used by `repolens repos`.
func RepositoryLine(r *entity.Repository) string {
	var flags []string
	if r.Private {
		flags = append(flags, "private")
	}
	if r.Fork {
		flags = append(flags, "fork")
	}
	if r.Language != "" {
		flags = append(flags, r.Language)
	}
	line := r.ID().String()
	if len(flags) > 0 {
		line += " (" + strings.Join(flags, ", ") + ")"
	}
	if r.Description != "" {
		line += " " + Truncate(r.Description, paragraphWidth)
	}
	return line
}
