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

// Package format provides a function to format a Markdown document tree
// as normalized Markdown text.
//
// The output uses ATX headings, fenced code blocks, "***" thematic breaks,
// inline links, and pipe tables.
// Parsing the formatted text produces the same tree for ordinary documents.
// Emphasis spans that directly abut other spans using the same delimiter
// character may regroup differently.
package format

import (
	"io"
	"strconv"
	"strings"

	"zombiezen.com/go/markdown"
)

// Format writes the given blocks as Markdown to the given writer.
func Format(w io.Writer, blocks []markdown.Block) error {
	f := &formatter{w: &errWriter{w: w}}
	for i, b := range blocks {
		if i > 0 {
			f.blankLine()
		}
		markdown.Walk(b, &markdown.WalkOptions{
			Pre:  f.preBlock,
			Post: f.postBlock,
		})
	}
	return f.w.err
}

// A prefix is the text that begins each line inside a container block.
// The first line uses first (a list marker, for example)
// and the remaining lines use cont.
type prefix struct {
	first string
	cont  string
	used  bool
}

type formatter struct {
	w        *errWriter
	prefixes []prefix
	// tight records whether each enclosing list is tight.
	tight []bool
}

// linePrefix returns the prefix for the next line
// and marks all containers as having started.
func (f *formatter) linePrefix() string {
	sb := new(strings.Builder)
	for i := range f.prefixes {
		p := &f.prefixes[i]
		if p.used {
			sb.WriteString(p.cont)
		} else {
			sb.WriteString(p.first)
			p.used = true
		}
	}
	return sb.String()
}

func (f *formatter) startLine() {
	f.w.WriteString(f.linePrefix())
}

// blankLine writes a line that is empty
// except for any block quote markers.
func (f *formatter) blankLine() {
	writeTrimmedPrefix(f.w, f.linePrefix())
	f.w.WriteString("\n")
}

func writeTrimmedPrefix(w io.StringWriter, p string) error {
	_, err := w.WriteString(strings.TrimRight(p, " \t"))
	return err
}

func (f *formatter) pushPrefix(first, cont string) {
	f.prefixes = append(f.prefixes, prefix{first: first, cont: cont})
}

func (f *formatter) popPrefix() {
	if !f.prefixes[len(f.prefixes)-1].used {
		// Empty container.
		f.blankLine()
	}
	f.prefixes = f.prefixes[:len(f.prefixes)-1]
}

func (f *formatter) inTightList() bool {
	return len(f.tight) > 0 && f.tight[len(f.tight)-1]
}

func (f *formatter) preBlock(c *markdown.Cursor) bool {
	if c.Index() > 0 {
		switch parent := c.Parent().(type) {
		case *markdown.BlockQuote:
			f.blankLine()
		case *markdown.List:
			if parent.Loose {
				f.blankLine()
			}
		case *markdown.ListItem:
			if !f.inTightList() {
				f.blankLine()
			}
		}
	}

	switch b := c.Node().(type) {
	case *markdown.Paragraph:
		f.writeLines(formatInlines(b.Children, inlineContext{}))
		return false
	case *markdown.Heading:
		f.startLine()
		f.w.WriteString(strings.Repeat("#", b.Level))
		if len(b.Children) > 0 {
			f.w.WriteString(" ")
			f.w.WriteString(formatInlines(b.Children, inlineContext{heading: true}))
		}
		f.w.WriteString("\n")
		return false
	case *markdown.ThematicBreak:
		// "---" would form a thematic break with a "-" list marker.
		f.startLine()
		f.w.WriteString("***\n")
		return false
	case *markdown.CodeBlock:
		f.codeBlock(b)
		return false
	case *markdown.HTMLBlock:
		f.writeLines(b.Text)
		return false
	case *markdown.BlockQuote:
		f.pushPrefix("> ", "> ")
		return true
	case *markdown.List:
		f.tight = append(f.tight, !b.Loose)
		return true
	case *markdown.ListItem:
		marker := listMarker(c.Parent().(*markdown.List), c.Index())
		f.pushPrefix(marker+" ", strings.Repeat(" ", len(marker)+1))
		return true
	case *markdown.Table:
		f.table(b)
		return false
	default:
		return false
	}
}

func (f *formatter) postBlock(c *markdown.Cursor) bool {
	switch c.Node().(type) {
	case *markdown.BlockQuote, *markdown.ListItem:
		f.popPrefix()
	case *markdown.List:
		f.tight = f.tight[:len(f.tight)-1]
	}
	return true
}

// writeLines writes each line of s with the current prefix.
func (f *formatter) writeLines(s string) {
	for _, line := range strings.Split(s, "\n") {
		f.startLine()
		f.w.WriteString(line)
		f.w.WriteString("\n")
	}
}

func listMarker(list *markdown.List, i int) string {
	if !list.Ordered {
		return string(list.Marker)
	}
	return strconv.Itoa(list.Start+i) + string(list.Marker)
}

func (f *formatter) codeBlock(b *markdown.CodeBlock) {
	fenceChar := "`"
	if strings.Contains(b.Info, "`") {
		fenceChar = "~"
	}
	fence := strings.Repeat(fenceChar, max(3, longestRun(b.Text, fenceChar[0])+1))
	f.startLine()
	f.w.WriteString(fence)
	f.w.WriteString(strings.ReplaceAll(b.Info, `\`, `\\`))
	f.w.WriteString("\n")
	if b.Text != "" {
		for _, line := range strings.Split(strings.TrimSuffix(b.Text, "\n"), "\n") {
			if line == "" {
				f.blankLine()
				continue
			}
			f.startLine()
			f.w.WriteString(line)
			f.w.WriteString("\n")
		}
	}
	f.startLine()
	f.w.WriteString(fence)
	f.w.WriteString("\n")
}

func (f *formatter) table(b *markdown.Table) {
	row := func(cells []*markdown.TableCell) {
		f.startLine()
		f.w.WriteString("|")
		for _, c := range cells {
			f.w.WriteString(" ")
			f.w.WriteString(formatInlines(c.Children, inlineContext{table: true}))
			f.w.WriteString(" |")
		}
		f.w.WriteString("\n")
	}

	row(b.Header)
	f.startLine()
	f.w.WriteString("|")
	for i := range b.Header {
		var align markdown.Alignment
		if i < len(b.Align) {
			align = b.Align[i]
		}
		switch align {
		case markdown.AlignLeft:
			f.w.WriteString(" :-- |")
		case markdown.AlignCenter:
			f.w.WriteString(" :-: |")
		case markdown.AlignRight:
			f.w.WriteString(" --: |")
		default:
			f.w.WriteString(" --- |")
		}
	}
	f.w.WriteString("\n")
	for _, r := range b.Rows {
		row(r)
	}
}

// longestRun returns the length of the longest run of c in s.
func longestRun(s string, c byte) int {
	longest, n := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			n++
			longest = max(longest, n)
		} else {
			n = 0
		}
	}
	return longest
}

type errWriter struct {
	w   io.Writer
	err error
}

func (w *errWriter) Write(p []byte) (n int, err error) {
	if w.err != nil {
		return 0, w.err
	}
	n, w.err = w.w.Write(p)
	return n, w.err
}

func (w *errWriter) WriteString(s string) (n int, err error) {
	if w.err != nil {
		return 0, w.err
	}
	n, w.err = io.WriteString(w.w, s)
	return n, w.err
}
