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

package format

import (
	"strings"

	"zombiezen.com/go/markdown"
)

// inlineContext describes the block that inline content is written into.
type inlineContext struct {
	heading bool
	table   bool
}

type inlineFormatter struct {
	ctx       inlineContext
	sb        strings.Builder
	delims    []string
	lineStart bool
}

// formatInlines returns the Markdown source for the given inlines.
// The result contains a newline only after a hard line break.
func formatInlines(inlines []markdown.Inline, ctx inlineContext) string {
	f := &inlineFormatter{
		ctx:       ctx,
		lineStart: !ctx.heading && !ctx.table,
	}
	opts := &markdown.WalkOptions{
		Pre:  f.pre,
		Post: f.post,
	}
	for _, inline := range inlines {
		markdown.Walk(inline, opts)
	}
	return f.sb.String()
}

func (f *inlineFormatter) pre(c *markdown.Cursor) bool {
	switch n := c.Node().(type) {
	case *markdown.Text:
		f.text(n.Content)
	case *markdown.Emphasis:
		d := "_"
		if f.enclosedBy('_') || f.lastByte() == '_' {
			d = "*"
		}
		f.open(d)
		return true
	case *markdown.Strong:
		d := "**"
		if f.enclosedBy('*') || f.lastByte() == '*' {
			d = "__"
		}
		f.open(d)
		return true
	case *markdown.Strikethrough:
		f.open("~~")
		return true
	case *markdown.CodeSpan:
		f.codeSpan(n.Content)
	case *markdown.Link:
		f.write("[")
		return true
	case *markdown.Image:
		f.write("![")
		f.text(n.Alt)
		f.write("]")
		f.linkTail(n.Destination, n.Title, n.TitlePresent)
	case *markdown.LineBreak:
		if f.ctx.heading || f.ctx.table {
			f.write(" ")
		} else {
			f.write("\\\n")
			f.lineStart = true
		}
	}
	return false
}

func (f *inlineFormatter) post(c *markdown.Cursor) bool {
	switch n := c.Node().(type) {
	case *markdown.Emphasis, *markdown.Strong, *markdown.Strikethrough:
		d := f.delims[len(f.delims)-1]
		f.delims = f.delims[:len(f.delims)-1]
		f.write(d)
	case *markdown.Link:
		f.write("]")
		f.linkTail(n.Destination, n.Title, n.TitlePresent)
	}
	return true
}

func (f *inlineFormatter) open(d string) {
	f.write(d)
	f.delims = append(f.delims, d)
}

// enclosedBy reports whether the innermost open emphasis
// uses the given delimiter character.
func (f *inlineFormatter) enclosedBy(c byte) bool {
	return len(f.delims) > 0 && f.delims[len(f.delims)-1][0] == c
}

func (f *inlineFormatter) lastByte() byte {
	s := f.sb.String()
	if s == "" {
		return 0
	}
	return s[len(s)-1]
}

func (f *inlineFormatter) write(s string) {
	if s == "" {
		return
	}
	f.sb.WriteString(s)
	f.lineStart = false
}

// text writes literal text, escaping anything that would be parsed as markup.
func (f *inlineFormatter) text(s string) {
	if s == "" {
		return
	}
	s = strings.ReplaceAll(s, "\n", " ")
	i := 0
	if f.lineStart {
		switch s[0] {
		case '#', '>', '-', '+', '<':
			f.sb.WriteByte('\\')
			f.sb.WriteByte(s[0])
			i = 1
		default:
			// Ordered list markers.
			n := 0
			for n < len(s) && n < 9 && '0' <= s[n] && s[n] <= '9' {
				n++
			}
			if n > 0 && n < len(s) && (s[n] == '.' || s[n] == ')') {
				f.sb.WriteString(s[:n])
				f.sb.WriteByte('\\')
				f.sb.WriteByte(s[n])
				i = n + 1
			}
		}
	}
	for ; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', '`', '*', '_', '[', ']', '~', '|':
			f.sb.WriteByte('\\')
			f.sb.WriteByte(c)
		case '#':
			if f.ctx.heading {
				f.sb.WriteByte('\\')
			}
			f.sb.WriteByte(c)
		case '!':
			// A following link would become an image.
			if i == len(s)-1 {
				f.sb.WriteByte('\\')
			}
			f.sb.WriteByte(c)
		default:
			f.sb.WriteByte(c)
		}
	}
	f.lineStart = false
}

func (f *inlineFormatter) codeSpan(content string) {
	if f.ctx.table {
		content = strings.ReplaceAll(content, "|", `\|`)
	}
	fence := strings.Repeat("`", longestRun(content, '`')+1)
	pad := strings.HasPrefix(content, "`") || strings.HasSuffix(content, "`") ||
		(len(content) >= 2 && content[0] == ' ' && content[len(content)-1] == ' ' &&
			strings.Trim(content, " ") != "")
	f.write(fence)
	if pad {
		f.write(" ")
	}
	f.write(content)
	if pad {
		f.write(" ")
	}
	f.write(fence)
}

func (f *inlineFormatter) linkTail(dest, title string, titlePresent bool) {
	f.write("(")
	switch {
	case dest == "" && titlePresent:
		f.write("<>")
	case needsAngleBrackets(dest):
		f.write("<")
		f.write(escapeChars(dest, `\<>`))
		f.write(">")
	default:
		f.write(dest)
	}
	if titlePresent {
		f.write(` "`)
		f.write(escapeChars(title, `\"`))
		f.write(`"`)
	}
	f.write(")")
}

// needsAngleBrackets reports whether a link destination
// must be written in its <...> form.
func needsAngleBrackets(dest string) bool {
	for i := 0; i < len(dest); i++ {
		switch c := dest[i]; {
		case c <= ' ' || c == 0x7f:
			return true
		case c == '<' || c == '>' || c == '(' || c == ')' || c == '\\':
			return true
		}
	}
	return false
}

// escapeChars returns s with a backslash inserted before any of the given bytes.
func escapeChars(s string, chars string) string {
	if !strings.ContainsAny(s, chars) {
		return s
	}
	sb := new(strings.Builder)
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(chars, s[i]) >= 0 {
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
