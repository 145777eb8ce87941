package toolwin

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrInvalidMarkup is returned for content that is not well-formed HTML.
var ErrInvalidMarkup = errors.New("invalid tool window markup")

// voidElements never have a closing tag.
var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Link: true, atom.Meta: true, atom.Source: true, atom.Track: true,
	atom.Wbr: true,
}

// impliedEnd elements may leave their end tag out. An enclosing end tag,
// or the end of the markup, closes them.
var impliedEnd = map[atom.Atom]bool{
	atom.Li: true, atom.P: true, atom.Dt: true, atom.Dd: true,
	atom.Option: true, atom.Optgroup: true, atom.Tr: true, atom.Td: true,
	atom.Th: true, atom.Thead: true, atom.Tbody: true, atom.Tfoot: true,
	atom.Colgroup: true, atom.Rt: true, atom.Rp: true,
}

// blockElements start a new line when rendered as text.
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true,
	atom.Ul: true, atom.Ol: true, atom.Tr: true, atom.Table: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Pre: true, atom.Section: true,
	atom.Header: true, atom.Footer: true, atom.Form: true, atom.Hr: true,
}

// Validate checks that markup is a balanced HTML fragment. Elements whose
// end tag HTML makes optional, such as li, p, td and option, may be left
// open. Every other element must be closed, in order.
func Validate(markup string) error {
	z := html.NewTokenizer(strings.NewReader(markup))
	var stack []atom.Atom
	var names []string

	// popImplied drops open elements that close implicitly, stopping at
	// the first one named until.
	popImplied := func(until string) {
		for n := len(stack); n > 0 && names[n-1] != until && impliedEnd[stack[n-1]]; n-- {
			stack, names = stack[:n-1], names[:n-1]
		}
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return fmt.Errorf("%w: %v", ErrInvalidMarkup, err)
			}
			popImplied("")
			if len(names) > 0 {
				return fmt.Errorf("%w: unclosed <%s>", ErrInvalidMarkup, names[len(names)-1])
			}
			return nil

		case html.StartTagToken:
			name, _ := z.TagName()
			if a := atom.Lookup(name); !voidElements[a] {
				stack, names = append(stack, a), append(names, string(name))
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			if voidElements[atom.Lookup(name)] {
				continue
			}
			popImplied(string(name))
			if len(names) == 0 {
				return fmt.Errorf("%w: unexpected </%s>", ErrInvalidMarkup, name)
			}
			if top := names[len(names)-1]; top != string(name) {
				return fmt.Errorf("%w: </%s> closes <%s>", ErrInvalidMarkup, name, top)
			}
			stack, names = stack[:len(stack)-1], names[:len(names)-1]
		}
	}
}

// parseFragment parses markup as children of a <div>.
func parseFragment(markup string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMarkup, err)
	}
	return nodes, nil
}

// ElementIDs returns the id attributes present in markup, in document order.
func ElementIDs(markup string) ([]string, error) {
	nodes, err := parseFragment(markup)
	if err != nil {
		return nil, err
	}

	var ids []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "id" && a.Val != "" {
					ids = append(ids, a.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return ids, nil
}

// RenderText renders markup as plain text.
// Script and style contents are dropped; whitespace runs collapse to one space.
func RenderText(markup string) (string, error) {
	nodes, err := parseFragment(markup)
	if err != nil {
		return "", err
	}

	var lines []string
	var cur strings.Builder
	flush := func() {
		if line := strings.Join(strings.Fields(cur.String()), " "); line != "" {
			lines = append(lines, line)
		}
		cur.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur.WriteString(n.Data)
			cur.WriteByte(' ')
			return
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
			if blockElements[n.DataAtom] {
				flush()
				defer flush()
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	flush()

	return strings.Join(lines, "\n"), nil
}
