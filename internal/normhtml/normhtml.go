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

// Package normhtml provides helpers for comparing rendered HTML in tests.
// [NormalizeHTML] ignores insignificant output differences,
// based on the [CommonMark spec test normalization].
// [UnbalancedTags] checks that every element that was opened is closed.
//
// [CommonMark spec test normalization]: https://github.com/commonmark/commonmark-spec/blob/0.30.0/test/normalize.py
package normhtml

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"go4.org/bytereplacer"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var spaceRun = regexp.MustCompile(`\s+`)

var textEscaper = bytereplacer.New(
	"&", "&amp;",
	`'`, "&apos;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
)

// NormalizeHTML strips insignificant output differences from HTML.
func NormalizeHTML(s string) string {
	n := &normalizer{
		tok:      html.NewTokenizerFragment(strings.NewReader(s), "div"),
		prevType: html.StartTagToken,
	}
	for n.next() {
	}
	return n.out.String()
}

// normalizer holds the state of a single NormalizeHTML call.
type normalizer struct {
	tok *html.Tokenizer
	out strings.Builder

	// prevType is the type of the previous token,
	// with self-closing tags counted as end tags.
	prevType html.TokenType
	prevTag  atom.Atom
	inPre    bool
}

func (n *normalizer) next() bool {
	tt := n.tok.Next()
	switch tt {
	case html.ErrorToken:
		return false
	case html.TextToken:
		n.text(string(n.tok.Text()))
	case html.StartTagToken, html.SelfClosingTagToken:
		n.startTag()
	case html.EndTagToken:
		name, _ := n.tok.TagName()
		a := atom.Lookup(name)
		switch {
		case a == atom.Pre:
			n.inPre = false
		case blockElements[a]:
			n.trimTrailingSpace()
		}
		n.out.WriteString("</")
		n.out.Write(name)
		n.out.WriteString(">")
		n.prevTag = a
	case html.CommentToken:
		n.out.Write(n.tok.Raw())
	}
	n.prevType = tt
	if tt == html.SelfClosingTagToken {
		n.prevType = html.EndTagToken
	}
	return true
}

func (n *normalizer) text(data string) {
	afterTag := n.prevType == html.StartTagToken || n.prevType == html.EndTagToken
	if afterTag && n.prevTag == atom.Br {
		data = strings.TrimLeft(data, "\n")
	}
	if !n.inPre {
		data = spaceRun.ReplaceAllString(data, " ")
		if afterTag && blockElements[n.prevTag] {
			if n.prevType == html.StartTagToken {
				data = strings.TrimLeftFunc(data, unicode.IsSpace)
			} else {
				data = strings.TrimSpace(data)
			}
		}
	}
	n.out.Write(textEscaper.Replace([]byte(data)))
}

func (n *normalizer) startTag() {
	name, hasAttr := n.tok.TagName()
	a := atom.Lookup(name)
	if a == atom.Pre {
		n.inPre = true
	}
	if blockElements[a] {
		n.trimTrailingSpace()
	}
	n.out.WriteString("<")
	n.out.Write(name)
	var attrs [][2]string
	for hasAttr {
		var k, v []byte
		k, v, hasAttr = n.tok.TagAttr()
		attrs = append(attrs, [2]string{string(k), string(v)})
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i][0] < attrs[j][0]
	})
	for _, attr := range attrs {
		n.out.WriteString(" ")
		n.out.WriteString(attr[0])
		if attr[1] != "" {
			n.out.WriteString(`="`)
			n.out.WriteString(html.EscapeString(attr[1]))
			n.out.WriteString(`"`)
		}
	}
	n.out.WriteString(">")
	n.prevTag = a
}

func (n *normalizer) trimTrailingSpace() {
	s := n.out.String()
	trimmed := strings.TrimRightFunc(s, unicode.IsSpace)
	if len(trimmed) == len(s) {
		return
	}
	n.out.Reset()
	n.out.WriteString(trimmed)
}

// blockElements is the set of elements around which whitespace is insignificant.
var blockElements = map[atom.Atom]bool{
	atom.Article:    true,
	atom.Aside:      true,
	atom.Blockquote: true,
	atom.Body:       true,
	atom.Caption:    true,
	atom.Col:        true,
	atom.Colgroup:   true,
	atom.Dd:         true,
	atom.Div:        true,
	atom.Dl:         true,
	atom.Dt:         true,
	atom.Fieldset:   true,
	atom.Figcaption: true,
	atom.Figure:     true,
	atom.Footer:     true,
	atom.Form:       true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Header:     true,
	atom.Hr:         true,
	atom.Li:         true,
	atom.Ol:         true,
	atom.P:          true,
	atom.Pre:        true,
	atom.Script:     true,
	atom.Section:    true,
	atom.Style:      true,
	atom.Table:      true,
	atom.Tbody:      true,
	atom.Td:         true,
	atom.Tfoot:      true,
	atom.Th:         true,
	atom.Thead:      true,
	atom.Tr:         true,
	atom.Ul:         true,
}

// voidElements never have a closing tag.
var voidElements = map[atom.Atom]bool{
	atom.Br:    true,
	atom.Col:   true,
	atom.Hr:    true,
	atom.Img:   true,
	atom.Input: true,
	atom.Link:  true,
	atom.Meta:  true,
	atom.Wbr:   true,
}

// UnbalancedTags returns the sorted names of the elements in s
// whose start and end tags do not nest properly.
// Void elements like <br> are ignored.
// An end tag that closes an element while others are still open
// reports all of them.
func UnbalancedTags(s string) []string {
	tok := html.NewTokenizerFragment(strings.NewReader(s), "div")
	var open []string
	bad := make(map[string]struct{})
	for {
		tt := tok.Next()
		if tt == html.ErrorToken {
			break
		}
		switch tt {
		case html.StartTagToken:
			name, _ := tok.TagName()
			if !voidElements[atom.Lookup(name)] {
				open = append(open, string(name))
			}
		case html.EndTagToken:
			name, _ := tok.TagName()
			tag := string(name)
			i := len(open) - 1
			for i >= 0 && open[i] != tag {
				i--
			}
			if i < 0 {
				bad[tag] = struct{}{}
				continue
			}
			if i < len(open)-1 {
				bad[tag] = struct{}{}
				for _, inner := range open[i+1:] {
					bad[inner] = struct{}{}
				}
			}
			open = open[:i]
		}
	}
	for _, tag := range open {
		bad[tag] = struct{}{}
	}
	result := make([]string, 0, len(bad))
	for tag := range bad {
		result = append(result, tag)
	}
	sort.Strings(result)
	return result
}
