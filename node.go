// Copyright 2023 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package markdown

import "fmt"

// Node is a [Block] or an [Inline].
// The set of node types is closed:
// every implementation is declared in this package.
type Node interface {
	node()
}

// A Block is a structural element in a Markdown document
// that occupies one or more full lines.
type Block interface {
	Node
	Kind() BlockKind
	block()
}

// An Inline is a structural element inside a block's text,
// like emphasis or a link.
type Inline interface {
	Node
	Kind() InlineKind
	inline()
}

// BlockKind is an enumeration of values returned by [Block.Kind].
type BlockKind uint16

const (
	ParagraphKind BlockKind = 1 + iota
	HeadingKind
	ThematicBreakKind
	CodeBlockKind
	HTMLBlockKind
	BlockQuoteKind
	ListKind
	ListItemKind
	TableKind
	TableCellKind

	blockKindEnd
)

func (kind BlockKind) String() string {
	switch kind {
	case ParagraphKind:
		return "Paragraph"
	case HeadingKind:
		return "Heading"
	case ThematicBreakKind:
		return "ThematicBreak"
	case CodeBlockKind:
		return "CodeBlock"
	case HTMLBlockKind:
		return "HTMLBlock"
	case BlockQuoteKind:
		return "BlockQuote"
	case ListKind:
		return "List"
	case ListItemKind:
		return "ListItem"
	case TableKind:
		return "Table"
	case TableCellKind:
		return "TableCell"
	default:
		return fmt.Sprintf("BlockKind(%d)", uint16(kind))
	}
}

// InlineKind is an enumeration of values returned by [Inline.Kind].
type InlineKind uint16

const (
	TextKind InlineKind = 1 + iota
	EmphasisKind
	StrongKind
	StrikethroughKind
	CodeSpanKind
	LinkKind
	ImageKind
	LineBreakKind

	inlineKindEnd
)

func (kind InlineKind) String() string {
	switch kind {
	case TextKind:
		return "Text"
	case EmphasisKind:
		return "Emphasis"
	case StrongKind:
		return "Strong"
	case StrikethroughKind:
		return "Strikethrough"
	case CodeSpanKind:
		return "CodeSpan"
	case LinkKind:
		return "Link"
	case ImageKind:
		return "Image"
	case LineBreakKind:
		return "LineBreak"
	default:
		return fmt.Sprintf("InlineKind(%d)", uint16(kind))
	}
}

// Paragraph is a run of text lines.
type Paragraph struct {
	Children []Inline
}

// Heading is an [ATX heading].
//
// [ATX heading]: https://spec.commonmark.org/0.30/#atx-headings
type Heading struct {
	// Level is in the range [1, 6].
	Level    int
	Children []Inline
}

// ThematicBreak is a horizontal rule.
type ThematicBreak struct{}

// CodeBlock is a fenced code block.
// Its text is never interpreted as Markdown.
type CodeBlock struct {
	// Info is the full info string following the opening fence
	// with backslash escapes resolved.
	Info string
	// Language is the first word of Info.
	Language string
	// Text is the verbatim content of the block.
	// Each line, including the last, ends in a newline.
	Text string
}

// HTMLBlock is a block of raw HTML.
// Whether it is passed through depends on [HTMLRenderer.AllowRawHTML].
type HTMLBlock struct {
	Text string
}

// BlockQuote is a block prefixed with '>' markers.
type BlockQuote struct {
	Children []Block
}

// List is a bullet or ordered list.
type List struct {
	Ordered bool
	// Start is the number of the first item.
	// It is only meaningful if Ordered is true.
	Start int
	// Marker is the bullet character ('-', '+', or '*')
	// or the ordered list delimiter ('.' or ')').
	Marker byte
	// Loose reports whether any items are separated by blank lines.
	// Paragraphs in tight lists are rendered without <p> tags.
	Loose bool
	Items []*ListItem
}

// ListItem is a single item of a [List].
type ListItem struct {
	Children []Block
}

// Alignment is the text alignment of a table column.
type Alignment uint8

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

func (a Alignment) String() string {
	switch a {
	case AlignNone:
		return ""
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return fmt.Sprintf("Alignment(%d)", uint8(a))
	}
}

// Table is a pipe table.
// Every row has exactly len(Header) cells.
type Table struct {
	Header []*TableCell
	Align  []Alignment
	Rows   [][]*TableCell
}

// TableCell is a single cell of a [Table].
type TableCell struct {
	Children []Inline
}

// Text is literal text.
type Text struct {
	Content string
}

// Emphasis is text wrapped in single '*' or '_' delimiters.
type Emphasis struct {
	Children []Inline
}

// Strong is text wrapped in double '*' or '_' delimiters.
type Strong struct {
	Children []Inline
}

// Strikethrough is text wrapped in "~~" delimiters.
type Strikethrough struct {
	Children []Inline
}

// CodeSpan is text wrapped in backticks.
// Its content is never interpreted as Markdown.
type CodeSpan struct {
	Content string
}

// Link is a hyperlink.
type Link struct {
	Children     []Inline
	Destination  string
	Title        string
	TitlePresent bool
}

// Image is an embedded image.
type Image struct {
	// Alt is the plain text content of the image description.
	Alt          string
	Destination  string
	Title        string
	TitlePresent bool
}

// LineBreak is a hard line break.
type LineBreak struct{}

func (*Paragraph) Kind() BlockKind     { return ParagraphKind }
func (*Heading) Kind() BlockKind       { return HeadingKind }
func (*ThematicBreak) Kind() BlockKind { return ThematicBreakKind }
func (*CodeBlock) Kind() BlockKind     { return CodeBlockKind }
func (*HTMLBlock) Kind() BlockKind     { return HTMLBlockKind }
func (*BlockQuote) Kind() BlockKind    { return BlockQuoteKind }
func (*List) Kind() BlockKind          { return ListKind }
func (*ListItem) Kind() BlockKind      { return ListItemKind }
func (*Table) Kind() BlockKind         { return TableKind }
func (*TableCell) Kind() BlockKind     { return TableCellKind }

func (*Text) Kind() InlineKind          { return TextKind }
func (*Emphasis) Kind() InlineKind      { return EmphasisKind }
func (*Strong) Kind() InlineKind        { return StrongKind }
func (*Strikethrough) Kind() InlineKind { return StrikethroughKind }
func (*CodeSpan) Kind() InlineKind      { return CodeSpanKind }
func (*Link) Kind() InlineKind          { return LinkKind }
func (*Image) Kind() InlineKind         { return ImageKind }
func (*LineBreak) Kind() InlineKind     { return LineBreakKind }

func (*Paragraph) node()     {}
func (*Heading) node()       {}
func (*ThematicBreak) node() {}
func (*CodeBlock) node()     {}
func (*HTMLBlock) node()     {}
func (*BlockQuote) node()    {}
func (*List) node()          {}
func (*ListItem) node()      {}
func (*Table) node()         {}
func (*TableCell) node()     {}
func (*Text) node()          {}
func (*Emphasis) node()      {}
func (*Strong) node()        {}
func (*Strikethrough) node() {}
func (*CodeSpan) node()      {}
func (*Link) node()          {}
func (*Image) node()         {}
func (*LineBreak) node()     {}

func (*Paragraph) block()     {}
func (*Heading) block()       {}
func (*ThematicBreak) block() {}
func (*CodeBlock) block()     {}
func (*HTMLBlock) block()     {}
func (*BlockQuote) block()    {}
func (*List) block()          {}
func (*ListItem) block()      {}
func (*Table) block()         {}
func (*TableCell) block()     {}

func (*Text) inline()          {}
func (*Emphasis) inline()      {}
func (*Strong) inline()        {}
func (*Strikethrough) inline() {}
func (*CodeSpan) inline()      {}
func (*Link) inline()          {}
func (*Image) inline()         {}
func (*LineBreak) inline()     {}

// ChildCount returns the number of children the node has.
// Table children are its cells, header first, in row-major order.
// Calling ChildCount on nil returns 0.
func ChildCount(n Node) int {
	switch n := n.(type) {
	case *Paragraph:
		return len(n.Children)
	case *Heading:
		return len(n.Children)
	case *BlockQuote:
		return len(n.Children)
	case *List:
		return len(n.Items)
	case *ListItem:
		return len(n.Children)
	case *Table:
		return len(n.Header) * (1 + len(n.Rows))
	case *TableCell:
		return len(n.Children)
	case *Emphasis:
		return len(n.Children)
	case *Strong:
		return len(n.Children)
	case *Strikethrough:
		return len(n.Children)
	case *Link:
		return len(n.Children)
	default:
		return 0
	}
}

// Child returns the i'th child of the node.
// It panics if i is out of range.
func Child(n Node, i int) Node {
	switch n := n.(type) {
	case *Paragraph:
		return n.Children[i]
	case *Heading:
		return n.Children[i]
	case *BlockQuote:
		return n.Children[i]
	case *List:
		return n.Items[i]
	case *ListItem:
		return n.Children[i]
	case *Table:
		row, col := i/len(n.Header), i%len(n.Header)
		if row == 0 {
			return n.Header[col]
		}
		return n.Rows[row-1][col]
	case *TableCell:
		return n.Children[i]
	case *Emphasis:
		return n.Children[i]
	case *Strong:
		return n.Children[i]
	case *Strikethrough:
		return n.Children[i]
	case *Link:
		return n.Children[i]
	default:
		panic(fmt.Errorf("Child(%T, %d): index out of range", n, i))
	}
}

// PlainText returns the concatenated text content of the given inlines,
// without any markup.
// Line breaks become a single space.
func PlainText(inlines []Inline) string {
	var buf []byte
	stack := make([]Inline, 0, len(inlines))
	for i := len(inlines) - 1; i >= 0; i-- {
		stack = append(stack, inlines[i])
	}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch curr := curr.(type) {
		case *Text:
			buf = append(buf, curr.Content...)
		case *CodeSpan:
			buf = append(buf, curr.Content...)
		case *Image:
			buf = append(buf, curr.Alt...)
		case *LineBreak:
			buf = append(buf, ' ')
		default:
			for i := ChildCount(curr) - 1; i >= 0; i-- {
				stack = append(stack, Child(curr, i).(Inline))
			}
		}
	}
	return string(buf)
}
