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

import (
	"fmt"
	"io"
	"strconv"

	"golang.org/x/net/html/atom"
)

// An HTMLRenderer converts parsed Markdown blocks into HTML.
//
// # Security considerations
//
// Link and image destinations with a scheme that can run code
// (see [IsSafeURL]) are never emitted:
// such a link renders only its content
// and such an image renders only its alternative text.
//
// Raw [HTMLBlock] content is escaped and shown as a paragraph by default.
// If AllowRawHTML is set, the HTML is passed through a filter
// that removes elements that run scripts or embed other documents,
// comments, event handler attributes, and unsafe URLs.
// The filter is not a full sanitizer:
// output from untrusted inputs with AllowRawHTML set
// should still be sent through an HTML sanitizer.
type HTMLRenderer struct {
	// If AllowRawHTML is true, HTML blocks are filtered and emitted as HTML
	// instead of being escaped.
	AllowRawHTML bool
}

// RenderHTML writes the given sequence of parsed blocks
// to the given writer as HTML
// using the default options for [HTMLRenderer].
// It will return the first error encountered, if any.
func RenderHTML(w io.Writer, blocks []Block) error {
	return new(HTMLRenderer).Render(w, blocks)
}

// Render writes the given sequence of parsed blocks
// to the given writer as HTML.
// It will return the first error encountered, if any.
func (r *HTMLRenderer) Render(w io.Writer, blocks []Block) error {
	var buf []byte
	for _, b := range blocks {
		buf = r.AppendBlock(buf[:0], b)
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("render markdown to html: %w", err)
		}
	}
	return nil
}

// AppendHTML appends the rendered HTML of a sequence of blocks to dst
// and returns the resulting byte slice.
func (r *HTMLRenderer) AppendHTML(dst []byte, blocks []Block) []byte {
	for _, b := range blocks {
		dst = r.AppendBlock(dst, b)
	}
	return dst
}

// AppendBlock appends the rendered HTML of a parsed block to dst
// and returns the resulting byte slice.
// Every block's HTML ends with a newline.
func (r *HTMLRenderer) AppendBlock(dst []byte, block Block) []byte {
	state := &renderState{
		HTMLRenderer: r,
		dst:          dst,
	}
	Walk(block, &WalkOptions{
		Pre:  state.pre,
		Post: state.post,
	})
	return state.dst
}

type renderState struct {
	*HTMLRenderer
	dst []byte
	// tight records whether each enclosing list is tight.
	tight []bool
}

var headingTags = [...]atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

func headingTag(level int) atom.Atom {
	return headingTags[min(max(level, 1), len(headingTags))-1]
}

func (r *renderState) openTagAttr(name atom.Atom) {
	r.dst = append(r.dst, '<')
	r.dst = append(r.dst, name.String()...)
}

func (r *renderState) openTag(name atom.Atom) {
	r.openTagAttr(name)
	r.dst = append(r.dst, '>')
}

func (r *renderState) closeTag(name atom.Atom) {
	r.dst = append(r.dst, "</"...)
	r.dst = append(r.dst, name.String()...)
	r.dst = append(r.dst, '>')
}

func (r *renderState) attr(key, value string) {
	r.dst = append(r.dst, ' ')
	r.dst = append(r.dst, key...)
	r.dst = append(r.dst, `="`...)
	r.dst = escapeHTML(r.dst, value)
	r.dst = append(r.dst, '"')
}

// startLine begins a new line for a block-level tag
// unless the output is already at the start of a line.
func (r *renderState) startLine() {
	if len(r.dst) > 0 && r.dst[len(r.dst)-1] != '\n' {
		r.dst = append(r.dst, '\n')
	}
}

// inTightList reports whether a paragraph with the given parent
// should be rendered without <p> tags.
func (r *renderState) inTightList(parent Node) bool {
	_, isItem := parent.(*ListItem)
	return isItem && len(r.tight) > 0 && r.tight[len(r.tight)-1]
}

func (r *renderState) pre(c *Cursor) bool {
	switch n := c.Node().(type) {
	case *Paragraph:
		if !r.inTightList(c.Parent()) {
			r.startLine()
			r.openTag(atom.P)
		}
	case *Heading:
		r.startLine()
		r.openTag(headingTag(n.Level))
	case *ThematicBreak:
		r.startLine()
		r.openTag(atom.Hr)
		r.dst = append(r.dst, '\n')
	case *CodeBlock:
		r.startLine()
		r.openTag(atom.Pre)
		r.openTagAttr(atom.Code)
		if n.Language != "" {
			r.attr("class", "language-"+n.Language)
		}
		r.dst = append(r.dst, '>')
		r.dst = escapeHTML(r.dst, n.Text)
		r.closeTag(atom.Code)
		r.closeTag(atom.Pre)
		r.dst = append(r.dst, '\n')
	case *HTMLBlock:
		r.startLine()
		if r.AllowRawHTML {
			r.dst = appendSanitizedHTML(r.dst, n.Text)
		} else {
			r.openTag(atom.P)
			r.dst = escapeHTML(r.dst, n.Text)
			r.closeTag(atom.P)
		}
		r.dst = append(r.dst, '\n')
	case *BlockQuote:
		r.startLine()
		r.openTag(atom.Blockquote)
		r.dst = append(r.dst, '\n')
	case *List:
		r.startLine()
		if n.Ordered {
			r.openTagAttr(atom.Ol)
			if n.Start != 1 {
				r.dst = append(r.dst, ` start="`...)
				r.dst = strconv.AppendInt(r.dst, int64(n.Start), 10)
				r.dst = append(r.dst, '"')
			}
			r.dst = append(r.dst, '>')
		} else {
			r.openTag(atom.Ul)
		}
		r.dst = append(r.dst, '\n')
		r.tight = append(r.tight, !n.Loose)
	case *ListItem:
		r.startLine()
		r.openTag(atom.Li)
	case *Table:
		r.startLine()
		r.openTag(atom.Table)
		r.dst = append(r.dst, '\n')
		r.openTag(atom.Thead)
		r.dst = append(r.dst, '\n')
		r.openTag(atom.Tr)
		r.dst = append(r.dst, '\n')
	case *TableCell:
		table := c.Parent().(*Table)
		row, col := c.Index()/len(table.Header), c.Index()%len(table.Header)
		if row > 0 && col == 0 {
			r.closeTag(atom.Tr)
			r.dst = append(r.dst, '\n')
			if row == 1 {
				r.closeTag(atom.Thead)
				r.dst = append(r.dst, '\n')
				r.openTag(atom.Tbody)
				r.dst = append(r.dst, '\n')
			}
			r.openTag(atom.Tr)
			r.dst = append(r.dst, '\n')
		}
		r.openTagAttr(cellTag(row))
		if col < len(table.Align) && table.Align[col] != AlignNone {
			r.attr("align", table.Align[col].String())
		}
		r.dst = append(r.dst, '>')

	case *Text:
		r.dst = escapeHTML(r.dst, n.Content)
	case *Emphasis:
		r.openTag(atom.Em)
	case *Strong:
		r.openTag(atom.Strong)
	case *Strikethrough:
		r.openTag(atom.Del)
	case *CodeSpan:
		r.openTag(atom.Code)
		r.dst = escapeHTML(r.dst, n.Content)
		r.closeTag(atom.Code)
	case *Link:
		if IsSafeURL(n.Destination) {
			r.openTagAttr(atom.A)
			r.attr("href", NormalizeURI(n.Destination))
			if n.TitlePresent {
				r.attr("title", n.Title)
			}
			r.dst = append(r.dst, '>')
		}
	case *Image:
		if !IsSafeURL(n.Destination) {
			r.dst = escapeHTML(r.dst, n.Alt)
			break
		}
		r.openTagAttr(atom.Img)
		r.attr("src", NormalizeURI(n.Destination))
		r.attr("alt", n.Alt)
		if n.TitlePresent {
			r.attr("title", n.Title)
		}
		r.dst = append(r.dst, '>')
	case *LineBreak:
		r.openTag(atom.Br)
		r.dst = append(r.dst, '\n')
	default:
		panic(fmt.Errorf("render html: unhandled node %T", n))
	}
	return true
}

func (r *renderState) post(c *Cursor) bool {
	switch n := c.Node().(type) {
	case *Paragraph:
		if !r.inTightList(c.Parent()) {
			r.closeTag(atom.P)
			r.dst = append(r.dst, '\n')
		}
	case *Heading:
		r.closeTag(headingTag(n.Level))
		r.dst = append(r.dst, '\n')
	case *BlockQuote:
		r.startLine()
		r.closeTag(atom.Blockquote)
		r.dst = append(r.dst, '\n')
	case *List:
		r.tight = r.tight[:len(r.tight)-1]
		r.startLine()
		if n.Ordered {
			r.closeTag(atom.Ol)
		} else {
			r.closeTag(atom.Ul)
		}
		r.dst = append(r.dst, '\n')
	case *ListItem:
		r.closeTag(atom.Li)
		r.dst = append(r.dst, '\n')
	case *Table:
		r.closeTag(atom.Tr)
		r.dst = append(r.dst, '\n')
		if len(n.Rows) == 0 {
			r.closeTag(atom.Thead)
		} else {
			r.closeTag(atom.Tbody)
		}
		r.dst = append(r.dst, '\n')
		r.closeTag(atom.Table)
		r.dst = append(r.dst, '\n')
	case *TableCell:
		table := c.Parent().(*Table)
		r.closeTag(cellTag(c.Index() / len(table.Header)))
		r.dst = append(r.dst, '\n')
	case *Emphasis:
		r.closeTag(atom.Em)
	case *Strong:
		r.closeTag(atom.Strong)
	case *Strikethrough:
		r.closeTag(atom.Del)
	case *Link:
		if IsSafeURL(n.Destination) {
			r.closeTag(atom.A)
		}
	}
	return true
}

func cellTag(row int) atom.Atom {
	if row == 0 {
		return atom.Th
	}
	return atom.Td
}
