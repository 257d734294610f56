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
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const htmlCommentPrefix = "<!--"

// isHTMLBlockStart reports whether the line opens an HTML block:
// after at most three spaces of indentation,
// an opening tag, a closing tag, or a comment.
func isHTMLBlockStart(line string) bool {
	line, _, ok := trimMarkerIndent(line)
	if !ok || len(line) < 2 || line[0] != '<' {
		return false
	}
	switch {
	case strings.HasPrefix(line, htmlCommentPrefix):
		return true
	case line[1] == '/':
		return len(line) > 2 && isASCIILetter(line[2])
	default:
		return isASCIILetter(line[1])
	}
}

// parseHTMLBlock collects the lines of an HTML block,
// which runs until the next blank line.
func parseHTMLBlock(lines []string) (b *HTMLBlock, n int) {
	n = 1
	for n < len(lines) && !isBlankLine(lines[n]) {
		n++
	}
	return &HTMLBlock{Text: strings.Join(lines[:n], "\n")}, n
}

// htmlURLAttributes is the set of attributes whose values are URLs
// that a browser may navigate to or fetch.
var htmlURLAttributes = map[string]struct{}{
	"href":       {},
	"src":        {},
	"action":     {},
	"formaction": {},
	"poster":     {},
	"background": {},
	"cite":       {},
	"data":       {},
	"xlink:href": {},
}

// appendSanitizedHTML appends a filtered copy of the raw HTML to dst.
// Elements that run scripts or embed other documents
// are dropped along with their content,
// as are comments, doctypes, event handler attributes,
// srcdoc attributes, and URL attributes with unsafe schemes.
// The remaining tokens are re-serialized,
// so attribute values are always quoted and escaped.
func appendSanitizedHTML(dst []byte, raw string) []byte {
	z := html.NewTokenizer(strings.NewReader(raw))
	// skipDepth counts open dropped elements.
	skipDepth := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				// Tokenizing from memory only fails on EOF.
				panic(err)
			}
			return dst
		}
		tok := z.Token()
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			if droppedVoidElements[tok.DataAtom] {
				continue
			}
			if droppedElements[tok.DataAtom] {
				if tt == html.StartTagToken {
					skipDepth++
				}
				continue
			}
			if skipDepth > 0 {
				continue
			}
			tok.Attr = filterAttributes(tok.Attr)
			dst = append(dst, tok.String()...)
		case html.EndTagToken:
			if droppedVoidElements[tok.DataAtom] {
				continue
			}
			if droppedElements[tok.DataAtom] {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if skipDepth == 0 {
				dst = append(dst, tok.String()...)
			}
		case html.TextToken:
			if skipDepth == 0 {
				dst = escapeHTML(dst, tok.Data)
			}
		case html.CommentToken, html.DoctypeToken:
			// Dropped.
		}
	}
}

// droppedElements are removed together with their content.
var droppedElements = map[atom.Atom]bool{
	atom.Applet:   true,
	atom.Frame:    true,
	atom.Frameset: true,
	atom.Iframe:   true,
	atom.Noembed:  true,
	atom.Object:   true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Template: true,
}

// droppedVoidElements have no content and are removed on their own.
var droppedVoidElements = map[atom.Atom]bool{
	atom.Base:  true,
	atom.Embed: true,
	atom.Link:  true,
	atom.Meta:  true,
}

// filterAttributes removes event handlers and unsafe URLs
// from an attribute list in place.
func filterAttributes(attrs []html.Attribute) []html.Attribute {
	n := 0
	for _, attr := range attrs {
		key := strings.ToLower(attr.Key)
		if strings.HasPrefix(key, "on") || key == "srcdoc" {
			continue
		}
		if _, isURL := htmlURLAttributes[key]; isURL && !IsSafeURL(attr.Val) {
			continue
		}
		attrs[n] = attr
		n++
	}
	return attrs[:n]
}
